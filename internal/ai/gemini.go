package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultEndpoint is the public Gemini API host.
const DefaultEndpoint = "https://generativelanguage.googleapis.com"

// Request is one completion call.
type Request struct {
	// Context is the JSON text the instruction refers to.
	Context string
	// Instruction is the task text placed before the context.
	Instruction string
	// Trailer follows the context, e.g. "Summary:".
	Trailer string
	Model   string
}

// Prompt assembles the text sent to the model.
func (r Request) Prompt() string {
	var b strings.Builder
	b.WriteString(r.Instruction)
	if r.Context != "" {
		b.WriteString("\n\nJSON Data:\n```json\n")
		b.WriteString(r.Context)
		b.WriteString("\n```")
	}
	if r.Trailer != "" {
		b.WriteString("\n\n")
		b.WriteString(r.Trailer)
	}
	return b.String()
}

// Service completes prompts.
type Service interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// GeminiClient calls the generateContent endpoint. It never retries.
type GeminiClient struct {
	http     *http.Client
	endpoint string
	apiKey   string
}

// NewGeminiClient returns a client for endpoint (DefaultEndpoint when empty).
func NewGeminiClient(endpoint, apiKey string, timeout time.Duration) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNoAPIKey
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &GeminiClient{
		http:     &http.Client{Timeout: timeout},
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
	}, nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type safetyRating struct {
	Category    string `json:"category"`
	Probability string `json:"probability"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason   string         `json:"blockReason"`
		SafetyRatings []safetyRating `json:"safetyRatings"`
	} `json:"promptFeedback"`
}

func (c *GeminiClient) url(model string) string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.endpoint, url.PathEscape(model), url.QueryEscape(c.apiKey))
}

// Complete sends req and returns the first candidate's text. Every other
// outcome is a *Failure.
func (c *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: []part{{Text: req.Prompt()}}}}})
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(req.Model), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", &Failure{Kind: FailureNetwork, Err: redact(err, c.apiKey)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Failure{Kind: FailureNetwork, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Failure{Kind: FailureStatus, Status: resp.StatusCode, Reason: http.StatusText(resp.StatusCode), Detail: snippet(raw)}
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		return "", &Failure{Kind: FailureParse, Reason: fmt.Sprintf("unexpected content type %q", ct), Detail: snippet(raw)}
	}
	return extractText(raw)
}

func extractText(raw []byte) (string, error) {
	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &Failure{Kind: FailureParse, Reason: "invalid JSON", Detail: snippet(raw), Err: err}
	}
	if len(out.Candidates) > 0 && len(out.Candidates[0].Content.Parts) > 0 {
		return out.Candidates[0].Content.Parts[0].Text, nil
	}
	if fb := out.PromptFeedback; fb != nil && fb.BlockReason != "" {
		ratings := make([]string, 0, len(fb.SafetyRatings))
		for _, r := range fb.SafetyRatings {
			ratings = append(ratings, r.Category+": "+r.Probability)
		}
		detail := "N/A"
		if len(ratings) > 0 {
			detail = strings.Join(ratings, ", ")
		}
		return "", &Failure{Kind: FailureBlocked, Reason: fb.BlockReason, Detail: detail}
	}
	return "", &Failure{Kind: FailureEmpty}
}

// redact removes the API key from transport errors, which embed the URL.
func redact(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), key, "REDACTED"))
}
