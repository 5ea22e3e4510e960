package autofix

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/ikeike55momo/article-flow/internal/cache"
	"github.com/ikeike55momo/article-flow/internal/document"
	"github.com/ikeike55momo/article-flow/internal/llm"
)

type capturingClient struct {
	lastReq openai.ChatCompletionRequest
	calls   int
	reply   string
	finish  openai.FinishReason
}

func (c *capturingClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.lastReq = req
	c.calls++
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: c.reply},
			FinishReason: c.finish,
		}},
	}, nil
}

type blockingClient struct{}

func (blockingClient) CreateChatCompletion(ctx context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	<-ctx.Done()
	return openai.ChatCompletionResponse{}, ctx.Err()
}

func TestFix_RequestShape(t *testing.T) {
	cc := &capturingClient{reply: "```html\n<div class=\"article-content\"><p>ok</p></div>\n```"}
	f := &Fixer{Client: cc, Model: "m", Log: zerolog.Nop()}
	res := f.Fix(context.Background(), "<div class=\"article-content\">**x**</div>")
	if !res.Success || res.Content != `<div class="article-content"><p>ok</p></div>` || !res.ChangesMade {
		t.Fatalf("unexpected result %+v", res)
	}
	req := cc.lastReq
	if len(req.Messages) != 2 || req.Messages[0].Role != openai.ChatMessageRoleSystem || req.Messages[0].Content != DefaultSystemPrompt {
		t.Fatalf("system message missing: %+v", req.Messages)
	}
	if !strings.Contains(req.Messages[1].Content, "**x**") {
		t.Fatalf("document missing from user turn")
	}
	if req.MaxTokens != DefaultMaxTokens || req.Temperature > 0.0001 {
		t.Fatalf("max_tokens=%d temperature=%v", req.MaxTokens, req.Temperature)
	}
}

func TestFix_NotConfigured(t *testing.T) {
	var f *Fixer
	if res := f.Fix(context.Background(), "x"); res.Success || res.Reason != ReasonNotConfigured {
		t.Fatalf("got %+v", res)
	}
	if res := (&Fixer{Client: &capturingClient{}}).Fix(context.Background(), "x"); res.Reason != ReasonNotConfigured {
		t.Fatalf("missing model must be not_configured, got %+v", res)
	}
}

func TestFix_EmptyResponse(t *testing.T) {
	f := &Fixer{Client: &capturingClient{reply: "   "}, Model: "m", Log: zerolog.Nop()}
	if res := f.Fix(context.Background(), "x"); res.Success || res.Reason != ReasonEmptyResponse {
		t.Fatalf("got %+v", res)
	}
}

func TestFix_Timeout(t *testing.T) {
	f := &Fixer{Client: blockingClient{}, Model: "m", Timeout: 20 * time.Millisecond, Log: zerolog.Nop()}
	if res := f.Fix(context.Background(), "x"); res.Success || res.Reason != ReasonTimeout {
		t.Fatalf("got %+v", res)
	}
}

func TestFix_HTTPStatusClassification(t *testing.T) {
	cases := []struct {
		status int
		want   Reason
	}{
		{http.StatusUnauthorized, ReasonUnauthorized},
		{http.StatusTooManyRequests, ReasonRateLimited},
		{http.StatusBadGateway, ReasonServerError},
		{http.StatusBadRequest, ReasonHTTPError},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"x"}}`))
		}))
		f := &Fixer{Client: llm.NewOpenAI(srv.URL+"/v1", "k", srv.Client()), Model: "m", Log: zerolog.Nop()}
		res := f.Fix(context.Background(), "x")
		srv.Close()
		if res.Success || res.Reason != tc.want || res.StatusCode != tc.status {
			t.Fatalf("status %d: got %+v", tc.status, res)
		}
	}
}

func TestFix_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	f := &Fixer{Client: llm.NewOpenAI(url+"/v1", "k", nil), Model: "m", Log: zerolog.Nop()}
	if res := f.Fix(context.Background(), "x"); res.Success || res.Reason != ReasonTransportError {
		t.Fatalf("got %+v", res)
	}
}

func TestFix_Sanitizes(t *testing.T) {
	reply := `<div class="article-content"><script>alert(1)</script><p onclick="x()">ok</p>` +
		`<figure class="link-card"><a href="https://x.test/a" target="_blank" rel="noopener">x</a></figure></div>`
	f := &Fixer{Client: &capturingClient{reply: reply}, Model: "m", Policy: ArticlePolicy(), Log: zerolog.Nop()}
	res := f.Fix(context.Background(), "x")
	if !res.Success {
		t.Fatalf("got %+v", res)
	}
	if strings.Contains(res.Content, "script") || strings.Contains(res.Content, "onclick") {
		t.Fatalf("unsafe markup kept: %s", res.Content)
	}
	for _, want := range []string{`<div class="article-content">`, `<figure class="link-card">`, `target="_blank"`, `<p>ok</p>`} {
		if !strings.Contains(res.Content, want) {
			t.Fatalf("missing %s in %s", want, res.Content)
		}
	}
}

func TestFix_UsesCache(t *testing.T) {
	cc := &capturingClient{reply: "<div>fixed</div>"}
	f := &Fixer{Client: cc, Model: "m", Cache: &cache.LLMCache{Dir: t.TempDir()}, Log: zerolog.Nop()}
	first := f.Fix(context.Background(), "doc")
	second := f.Fix(context.Background(), "doc")
	if !first.Success || !second.Success || !second.Cached || second.Content != "<div>fixed</div>" {
		t.Fatalf("first=%+v second=%+v", first, second)
	}
	if cc.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", cc.calls)
	}
}

func TestFixFile_WritesAndDropsBackup(t *testing.T) {
	p := filepath.Join(t.TempDir(), "final_article.html")
	if err := document.Save(p, "**x**"); err != nil {
		t.Fatal(err)
	}
	f := &Fixer{Client: &capturingClient{reply: "<div class=\"article-content\"><strong>x</strong></div>"}, Model: "m", Log: zerolog.Nop()}
	res := f.FixFile(context.Background(), p)
	if !res.Success {
		t.Fatalf("got %+v", res)
	}
	got, _ := document.Load(p)
	if got != `<div class="article-content"><strong>x</strong></div>` {
		t.Fatalf("file content %q", got)
	}
	if _, err := os.Stat(p + document.BackupSuffix); !os.IsNotExist(err) {
		t.Fatalf("backup should be removed after success")
	}
}

func TestFixFile_FailureLeavesFileUntouched(t *testing.T) {
	dir := t.TempDir()
	if res := (&Fixer{Client: &capturingClient{}, Model: "m", Log: zerolog.Nop()}).FixFile(context.Background(), filepath.Join(dir, "nope.html")); res.Reason != ReasonInputError {
		t.Fatalf("got %+v", res)
	}
	p := filepath.Join(dir, "a.html")
	_ = document.Save(p, "orig")
	res := (&Fixer{Client: &capturingClient{reply: ""}, Model: "m", Log: zerolog.Nop()}).FixFile(context.Background(), p)
	if res.Success {
		t.Fatalf("expected failure")
	}
	if got, _ := document.Load(p); got != "orig" {
		t.Fatalf("file changed: %q", got)
	}
}

func TestFixFile_TruncatedReplyKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "final_article.html")
	orig := "<div class=\"article-content\"><h2>見出し</h2><p>本文の前半と後半</p></div>"
	if err := document.Save(p, orig); err != nil {
		t.Fatal(err)
	}
	c := cache.LLMCache{Dir: filepath.Join(dir, "cache")}
	cc := &capturingClient{
		reply:  "<div class=\"article-content\"><h2>見出し</h2><p>本文の前半",
		finish: openai.FinishReasonLength,
	}
	f := &Fixer{Client: cc, Model: "m", Cache: &c, Log: zerolog.Nop()}
	res := f.FixFile(context.Background(), p)
	if res.Success || res.Reason != ReasonTruncated {
		t.Fatalf("got %+v", res)
	}
	if got, _ := document.Load(p); got != orig {
		t.Fatalf("file changed: %q", got)
	}
	if _, err := os.Stat(p + document.BackupSuffix); !os.IsNotExist(err) {
		t.Fatalf("no backup expected when nothing was written")
	}
	// A truncated reply must not be served from the cache on the next run.
	cc.finish = openai.FinishReasonStop
	cc.reply = orig
	if res := f.Fix(context.Background(), orig); !res.Success || res.Cached || cc.calls != 2 {
		t.Fatalf("second attempt %+v calls=%d", res, cc.calls)
	}
}

func TestStripFence(t *testing.T) {
	cases := map[string]string{
		"```html\n<p>a</p>\n```":      "<p>a</p>",
		"```\n<p>a</p>```":            "<p>a</p>",
		"  <p>a</p>  ":                "<p>a</p>",
		"```html\na\n```\n```\nb\n```": "```html\na\n```\n```\nb\n```",
	}
	for in, want := range cases {
		if got := StripFence(in); got != want {
			t.Fatalf("StripFence(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDocumentFromUserPrompt(t *testing.T) {
	doc := "<div class=\"article-content\">\n**x**\n</div>"
	got, ok := DocumentFromUserPrompt(UserPrompt(doc))
	if !ok || got != doc {
		t.Fatalf("got %q ok=%v", got, ok)
	}
	if _, ok := DocumentFromUserPrompt("hello"); ok {
		t.Fatal("unrelated prompt must not parse")
	}
}
