// Package ai sends parts of the loaded document to a language model for
// summaries, natural-language path queries, schema descriptions and node
// explanations.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/jlens/internal/jpath"
	"github.com/oakwood-commons/jlens/internal/jsonvalue"
	"github.com/oakwood-commons/jlens/pkg/logger"
)

// DefaultMaxContext is the number of characters of JSON sent with a prompt.
const DefaultMaxContext = 150000

// invalidPathSentinel is what the model answers when it cannot build a path.
const invalidPathSentinel = "INVALID_PATH"

// smallValueLimit is the longest JSON text of a node that Explain inlines.
const smallValueLimit = 200

// Reply is the text answer of a feature.
type Reply struct {
	Text string
	// Truncated is set when the context was cut to MaxContext characters.
	Truncated bool
	// OriginalLength is the context length before truncation.
	OriginalLength int
	MaxContext     int
}

// Notice is the message shown to the user when the context was truncated.
func (r Reply) Notice() string {
	if !r.Truncated {
		return ""
	}
	return fmt.Sprintf("Note: the JSON was too large and was truncated before it was sent. The answer is based on the first %d characters.", r.MaxContext)
}

// PathAnswer is the result of Query.
type PathAnswer struct {
	// Path is the decoded path the model returned.
	Path string
	// Raw is the trimmed model reply.
	Raw       string
	Truncated bool
}

// Assistant runs the features against a Service.
type Assistant struct {
	svc        Service
	model      string
	maxContext int
}

// NewAssistant returns an assistant using model. maxContext <= 0 means
// DefaultMaxContext.
func NewAssistant(svc Service, model string, maxContext int) *Assistant {
	if maxContext <= 0 {
		maxContext = DefaultMaxContext
	}
	return &Assistant{svc: svc, model: model, maxContext: maxContext}
}

// Model is the model the assistant calls.
func (a *Assistant) Model() string { return a.model }

// WithModel returns a copy calling a different model.
func (a *Assistant) WithModel(model string) *Assistant {
	c := *a
	c.model = model
	return &c
}

type prepared struct {
	text      string
	original  int
	truncated bool
}

func (a *Assistant) prepare(text string) prepared {
	n := len([]rune(text))
	if n <= a.maxContext {
		return prepared{text: text, original: n}
	}
	return prepared{text: string([]rune(text)[:a.maxContext]), original: n, truncated: true}
}

func (a *Assistant) note(p prepared, tail string) string {
	if !p.truncated {
		return ""
	}
	return fmt.Sprintf("Note: The provided JSON data was truncated due to its large size (original length %d characters, truncated to %d characters). %s", p.original, a.maxContext, tail)
}

func (a *Assistant) complete(ctx context.Context, feature string, req Request) (string, error) {
	if a == nil || a.svc == nil {
		return "", ErrNoAPIKey
	}
	req.Model = a.model
	log := logger.FromContext(ctx).WithValues("feature", feature, logger.ModelKey, a.model)
	log.V(logger.LevelDebug).Info("sending prompt", "chars", len(req.Prompt()))
	text, err := a.svc.Complete(ctx, req)
	if err != nil {
		logFailure(log, err)
		return "", err
	}
	return text, nil
}

func logFailure(log logr.Logger, err error) {
	var f *Failure
	if errors.As(err, &f) {
		log.Info("completion failed", "kind", string(f.Kind), "status", f.Status, "reason", f.Reason)
		return
	}
	log.Error(err, "completion failed")
}

// Summarize describes the purpose and structure of doc.
func (a *Assistant) Summarize(ctx context.Context, doc jsonvalue.Value) (Reply, error) {
	p := a.prepare(doc.String())
	instruction := strings.TrimSpace(a.note(p, "Please provide a summary based on this partial data.") +
		" Please provide a concise summary of the following JSON data. Describe its main purpose, overall structure, and identify any key entities or important fields.")
	text, err := a.complete(ctx, "summarize", Request{Context: p.text, Instruction: instruction, Trailer: "Summary:"})
	if err != nil {
		return Reply{}, err
	}
	return a.reply(text, p), nil
}

// InferSchema describes the field types of doc in prose.
func (a *Assistant) InferSchema(ctx context.Context, doc jsonvalue.Value) (Reply, error) {
	p := a.prepare(doc.String())
	instruction := "Analyze the following JSON data and provide a concise schema inference. " +
		"Describe the data types of the fields (e.g., String, Number, Boolean, Array, Object), identify common or important keys, " +
		"and if possible, suggest if fields seem optional or typically present. " +
		"Present the schema in a human-readable, descriptive format such as nested bullet points. " +
		"Avoid outputting a formal JSON Schema document unless the JSON structure itself is extremely simple."
	if n := a.note(p, "Base your schema inference on this partial data."); n != "" {
		instruction += "\n\n" + n
	}
	text, err := a.complete(ctx, "schema", Request{Context: p.text, Instruction: instruction, Trailer: "Inferred Schema Description:"})
	if err != nil {
		return Reply{}, err
	}
	return a.reply(text, p), nil
}

// Query translates a natural-language question into a path within doc. A
// reply that is the sentinel, empty, or not rooted at "$" yields
// ErrNoValidPath; a rooted reply that does not parse is a malformed path
// error naming the reply.
func (a *Assistant) Query(ctx context.Context, doc jsonvalue.Value, question string) (PathAnswer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return PathAnswer{}, errors.New("query is empty")
	}
	p := a.prepare(doc.String())
	instruction := "Given the following JSON data, translate the natural language query into a single path expression. " +
		"Use only this syntax: start with $, then one segment per step, ['key'] for object keys (escape ' and \\ with a backslash) and [n] for array indexes, " +
		"for example $['store']['book'][0]['title']. " +
		"Only return the path itself. Do not include any markdown, explanations, or surrounding text. " +
		"If you cannot determine a valid path from the query, or if the query is too ambiguous, return the exact string '" + invalidPathSentinel + "'."
	if n := a.note(p, "Base your path on this partial data."); n != "" {
		instruction += "\n\n" + n
	}
	text, err := a.complete(ctx, "query", Request{
		Context:     p.text,
		Instruction: instruction,
		Trailer:     fmt.Sprintf("Natural Language Query: %q\n\nPath:", question),
	})
	if err != nil {
		return PathAnswer{}, err
	}
	raw := cleanPathReply(text)
	answer := PathAnswer{Raw: raw, Truncated: p.truncated}
	if raw == "" || raw == invalidPathSentinel || !strings.HasPrefix(raw, jpath.Root) {
		return answer, ErrNoValidPath
	}
	if _, err := jpath.Decode(raw); err != nil {
		return answer, err
	}
	answer.Path = raw
	return answer, nil
}

// cleanPathReply trims whitespace and a surrounding code fence or backticks.
func cleanPathReply(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(strings.Trim(s, "`"))
}

// Explain describes the node at path using its parent as context. The node
// value is included when it is primitive or its JSON is short.
func (a *Assistant) Explain(ctx context.Context, doc jsonvalue.Value, path string) (Reply, error) {
	node, err := jpath.Resolve(doc, path)
	if err != nil {
		return Reply{}, err
	}
	contextValue := doc
	if parent, ok := jpath.Parent(path); ok {
		if pv, err := jpath.Resolve(doc, parent); err == nil {
			contextValue = pv
		}
	}
	p := a.prepare(string(contextValue.MarshalIndent("", "  ")))

	instruction := "Given the following JSON context, explain the likely meaning or purpose of the specified selected node. Focus on its role and significance within this context."
	if p.truncated {
		instruction += fmt.Sprintf("\n\nNote: The provided JSON context might be truncated. Original length was %d, truncated to %d.", p.original, a.maxContext)
	}
	trailer := fmt.Sprintf("Selected Node Path: %q\n", path)
	if nodeJSON, _ := node.MarshalJSON(); node.IsPrimitive() || len(nodeJSON) < smallValueLimit {
		trailer += "Selected Node Value: " + string(nodeJSON)
	} else {
		trailer += "Selected Node is an object or a large array."
	}
	trailer += "\n\nExplanation:"

	text, err := a.complete(ctx, "explain", Request{Context: p.text, Instruction: instruction, Trailer: trailer})
	if err != nil {
		return Reply{}, err
	}
	return a.reply(text, p), nil
}

func (a *Assistant) reply(text string, p prepared) Reply {
	return Reply{Text: text, Truncated: p.truncated, OriginalLength: p.original, MaxContext: a.maxContext}
}
