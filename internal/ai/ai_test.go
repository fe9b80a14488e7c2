package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/jlens/internal/jpath"
	"github.com/oakwood-commons/jlens/internal/jsonvalue"
)

// fakeService records requests and replays a canned answer.
type fakeService struct {
	reply string
	err   error
	reqs  []Request
}

func (f *fakeService) Complete(_ context.Context, req Request) (string, error) {
	f.reqs = append(f.reqs, req)
	return f.reply, f.err
}

func mustParse(t *testing.T, s string) jsonvalue.Value {
	t.Helper()
	v, err := jsonvalue.Parse([]byte(s))
	require.NoError(t, err)
	return v
}

const storeDoc = `{"store":{"book":[{"title":"A","price":8.95},{"title":"B","price":12.99}],"bicycle":{"color":"red"}}}`

func TestQuery(t *testing.T) {
	doc := mustParse(t, storeDoc)
	tests := []struct {
		name    string
		reply   string
		want    string
		wantErr error
	}{
		{name: "plain path", reply: "$['store']['bicycle']['color']\n", want: "$['store']['bicycle']['color']"},
		{name: "fenced path", reply: "```\n$['store']['book'][1]\n```", want: "$['store']['book'][1]"},
		{name: "backticks", reply: "`$['store']`", want: "$['store']"},
		{name: "sentinel", reply: "INVALID_PATH", wantErr: ErrNoValidPath},
		{name: "empty", reply: "  ", wantErr: ErrNoValidPath},
		{name: "not rooted", reply: "store.book", wantErr: ErrNoValidPath},
		{name: "dotted", reply: "$.store.book[*].author", wantErr: jpath.ErrMalformedPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{reply: tt.reply}
			got, err := NewAssistant(svc, "m1", 0).Query(context.Background(), doc, "bike color")
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Path)
			require.Len(t, svc.reqs, 1)
			assert.Equal(t, "m1", svc.reqs[0].Model)
			assert.Contains(t, svc.reqs[0].Trailer, `"bike color"`)
			assert.Contains(t, svc.reqs[0].Instruction, "INVALID_PATH")
		})
	}
}

func TestQueryEmptyQuestion(t *testing.T) {
	svc := &fakeService{}
	_, err := NewAssistant(svc, "m", 0).Query(context.Background(), mustParse(t, `{}`), "  ")
	require.Error(t, err)
	assert.Empty(t, svc.reqs)
}

func TestSummarizeTruncates(t *testing.T) {
	doc := mustParse(t, `{"text":"`+strings.Repeat("x", 100)+`"}`)
	svc := &fakeService{reply: "a summary"}
	reply, err := NewAssistant(svc, "m", 20).Summarize(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "a summary", reply.Text)
	assert.True(t, reply.Truncated)
	assert.Equal(t, 111, reply.OriginalLength)
	assert.Contains(t, reply.Notice(), "first 20 characters")

	req := svc.reqs[0]
	assert.Len(t, req.Context, 20)
	assert.Contains(t, req.Instruction, "original length 111 characters, truncated to 20 characters")
	assert.Equal(t, "Summary:", req.Trailer)
}

func TestSummarizeSmallDocument(t *testing.T) {
	svc := &fakeService{reply: "ok"}
	reply, err := NewAssistant(svc, "m", 0).Summarize(context.Background(), mustParse(t, `{"a":1}`))
	require.NoError(t, err)
	assert.False(t, reply.Truncated)
	assert.Empty(t, reply.Notice())
	assert.Equal(t, `{"a":1}`, svc.reqs[0].Context)
	assert.NotContains(t, svc.reqs[0].Instruction, "truncated")
}

func TestInferSchema(t *testing.T) {
	svc := &fakeService{reply: "- store: Object"}
	reply, err := NewAssistant(svc, "m", 0).InferSchema(context.Background(), mustParse(t, storeDoc))
	require.NoError(t, err)
	assert.Equal(t, "- store: Object", reply.Text)
	assert.Equal(t, "Inferred Schema Description:", svc.reqs[0].Trailer)
}

func TestExplain(t *testing.T) {
	doc := mustParse(t, storeDoc)

	svc := &fakeService{reply: "the price"}
	_, err := NewAssistant(svc, "m", 0).Explain(context.Background(), doc, "$['store']['book'][0]['price']")
	require.NoError(t, err)
	req := svc.reqs[0]
	assert.Equal(t, "{\n  \"title\": \"A\",\n  \"price\": 8.95\n}", req.Context, "parent value is the context")
	assert.Contains(t, req.Trailer, "Selected Node Value: 8.95")

	big := mustParse(t, `{"list":[`+strings.TrimSuffix(strings.Repeat(`"abcdefghij",`, 30), ",")+`]}`)
	svc = &fakeService{reply: "a list"}
	_, err = NewAssistant(svc, "m", 0).Explain(context.Background(), big, "$['list']")
	require.NoError(t, err)
	assert.Contains(t, svc.reqs[0].Trailer, "Selected Node is an object or a large array.")

	svc = &fakeService{reply: "root"}
	_, err = NewAssistant(svc, "m", 0).Explain(context.Background(), doc, "$")
	require.NoError(t, err)
	assert.Contains(t, svc.reqs[0].Context, `"store"`)

	_, err = NewAssistant(svc, "m", 0).Explain(context.Background(), doc, "$['nope']")
	assert.ErrorIs(t, err, jpath.ErrNotFound)
}

func TestAssistantWithoutService(t *testing.T) {
	_, err := NewAssistant(nil, "m", 0).Summarize(context.Background(), mustParse(t, `{}`))
	assert.ErrorIs(t, err, ErrNoAPIKey)

	var a *Assistant
	_, err = a.InferSchema(context.Background(), mustParse(t, `{}`))
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestAssistantPropagatesFailure(t *testing.T) {
	svc := &fakeService{err: &Failure{Kind: FailureBlocked, Reason: "SAFETY", Detail: "N/A"}}
	_, err := NewAssistant(svc, "m", 0).Summarize(context.Background(), mustParse(t, `{}`))
	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, FailureBlocked, f.Kind)
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	_, err := NewGeminiClient("", " ", time.Second)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestGeminiComplete(t *testing.T) {
	var gotPath, gotKey string
	var gotBody generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json; charset=UTF-8")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"hello"},{"text":"ignored"}]}}]}`))
	}))
	defer server.Close()

	c, err := NewGeminiClient(server.URL+"/", "k-123", time.Second)
	require.NoError(t, err)
	text, err := c.Complete(context.Background(), Request{Instruction: "Say hi.", Context: `{"a":1}`, Trailer: "Answer:", Model: "gemini-x"})
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, "/v1beta/models/gemini-x:generateContent", gotPath)
	assert.Equal(t, "k-123", gotKey)
	require.Len(t, gotBody.Contents, 1)
	assert.Equal(t, "Say hi.\n\nJSON Data:\n```json\n{\"a\":1}\n```\n\nAnswer:", gotBody.Contents[0].Parts[0].Text)
}

func TestGeminiFailures(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		kind        FailureKind
		contains    string
	}{
		{name: "status", status: 403, contentType: "application/json", body: `{"error":"denied"}`, kind: FailureStatus, contains: "403 Forbidden"},
		{name: "long status body", status: 500, contentType: "text/plain", body: strings.Repeat("e", 900), kind: FailureStatus, contains: strings.Repeat("e", 500)},
		{name: "content type", status: 200, contentType: "text/html", body: "<html>", kind: FailureParse, contains: "unexpected content type"},
		{name: "bad json", status: 200, contentType: "application/json", body: "{", kind: FailureParse, contains: "invalid JSON"},
		{name: "blocked", status: 200, contentType: "application/json", body: `{"promptFeedback":{"blockReason":"SAFETY","safetyRatings":[{"category":"HARM","probability":"HIGH"}]}}`, kind: FailureBlocked, contains: "HARM: HIGH"},
		{name: "no candidates", status: 200, contentType: "application/json", body: `{"candidates":[]}`, kind: FailureEmpty, contains: "could not extract"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c, err := NewGeminiClient(server.URL, "k", time.Second)
			require.NoError(t, err)
			_, err = c.Complete(context.Background(), Request{Instruction: "x", Model: "m"})
			var f *Failure
			require.True(t, errors.As(err, &f), "got %v", err)
			assert.Equal(t, tt.kind, f.Kind)
			assert.Contains(t, f.Error(), tt.contains)
			assert.LessOrEqual(t, len(f.Detail), snippetLimit)
		})
	}
}

func TestGeminiNetworkErrorHidesKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	c, err := NewGeminiClient(server.URL, "secret-key", time.Second)
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), Request{Model: "m"})
	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, FailureNetwork, f.Kind)
	assert.NotContains(t, f.Error(), "secret-key")
}

func TestPlainText(t *testing.T) {
	md := "# Summary\n\nThis is **bold** and `code`.\n\n- first\n- second\n  1. nested\n\n```\nx := 1\n```\n"
	got := PlainText(md)
	assert.NotContains(t, got, "**")
	assert.NotContains(t, got, "#")
	assert.Contains(t, got, "Summary")
	assert.Contains(t, got, "This is bold and code.")
	assert.Contains(t, got, "- first")
	assert.Contains(t, got, "- second")
	assert.Contains(t, got, "  1. nested")
	assert.Contains(t, got, "    x := 1")
}

func TestHTML(t *testing.T) {
	assert.Contains(t, HTML("**hi**"), "<strong>hi</strong>")
}
