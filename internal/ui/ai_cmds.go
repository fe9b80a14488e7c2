package ui

import (
	"errors"

	tea "charm.land/bubbletea/v2"

	"github.com/oakwood-commons/jlens/internal/ai"
)

// ErrBusy is shown when an AI request is started while another runs.
var ErrBusy = errors.New("an AI request is already running")

type aiFeature string

const (
	featureSummary aiFeature = "Summary"
	featureSchema  aiFeature = "Inferred schema"
	featureExplain aiFeature = "Explanation"
	featureQuery   aiFeature = "Query"
)

// aiResultMsg carries a finished request back to Update.
type aiResultMsg struct {
	feature aiFeature
	target  string
	reply   ai.Reply
	answer  ai.PathAnswer
	err     error
}

// startAI returns the command running feature. Only one request runs at a
// time.
func (m *Model) startAI(feature aiFeature, question string) tea.Cmd {
	if m.assistant == nil {
		m.setError(ai.ErrNoAPIKey.Error())
		return nil
	}
	if m.aiBusy {
		m.setError(ErrBusy.Error())
		return nil
	}
	doc, err := m.sess.Document()
	if err != nil {
		m.setError(err.Error())
		return nil
	}
	if feature == featureQuery && question == "" {
		return nil
	}

	assistant, ctx := m.assistant, m.ctx
	msg := aiResultMsg{feature: feature}
	var run func() tea.Msg
	switch feature {
	case featureSummary:
		run = func() tea.Msg {
			msg.reply, msg.err = assistant.Summarize(ctx, doc)
			return msg
		}
	case featureSchema:
		run = func() tea.Msg {
			msg.reply, msg.err = assistant.InferSchema(ctx, doc)
			return msg
		}
	case featureExplain:
		msg.target = m.sess.ExplainTarget()
		run = func() tea.Msg {
			msg.reply, msg.err = assistant.Explain(ctx, doc, msg.target)
			return msg
		}
	case featureQuery:
		msg.target = question
		run = func() tea.Msg {
			msg.answer, msg.err = assistant.Query(ctx, doc, question)
			return msg
		}
	}

	m.aiBusy = true
	m.aiTitle = string(feature)
	if msg.target != "" {
		m.aiTitle += ": " + msg.target
	}
	m.aiText = ""
	return tea.Batch(m.spinner.Tick, run)
}

func (m *Model) handleAIResult(msg aiResultMsg) {
	m.aiBusy = false
	if msg.err != nil {
		m.aiText = ""
		if errors.Is(msg.err, ai.ErrNoValidPath) {
			m.setError("Could not find a valid path for: " + msg.target)
			return
		}
		m.setError("AI request failed: " + msg.err.Error())
		return
	}

	if msg.feature == featureQuery {
		res, err := m.sess.ApplyAIPath(msg.answer.Path)
		if err != nil {
			m.setError(err.Error())
			return
		}
		m.reportNavigation(res)
		if m.status == "" {
			m.setStatus("Found " + res.Path)
		}
		return
	}

	text := ai.PlainText(msg.reply.Text)
	if notice := msg.reply.Notice(); notice != "" {
		text = notice + "\n\n" + text
	}
	m.aiText = text
}
