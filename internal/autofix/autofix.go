// Package autofix repairs an article document by sending it to a chat model
// with a fixed instruction and writing the returned HTML back. Failures of
// the model call are reported as a Result, never as an error.
package autofix

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/ikeike55momo/article-flow/internal/budget"
	"github.com/ikeike55momo/article-flow/internal/cache"
	"github.com/ikeike55momo/article-flow/internal/document"
	"github.com/ikeike55momo/article-flow/internal/llm"
)

// Reason classifies a failed fix.
type Reason string

const (
	ReasonNotConfigured  Reason = "not_configured"
	ReasonTimeout        Reason = "timeout"
	ReasonUnauthorized   Reason = "unauthorized"
	ReasonRateLimited    Reason = "rate_limited"
	ReasonServerError    Reason = "server_error"
	ReasonHTTPError      Reason = "http_error"
	ReasonTransportError Reason = "transport_error"
	ReasonEmptyResponse  Reason = "empty_response"
	ReasonTruncated      Reason = "truncated"
	ReasonInputError     Reason = "input_error"
	ReasonWriteError     Reason = "write_error"
)

// Defaults applied when the corresponding Fixer field is zero.
const (
	DefaultTimeout   = 60 * time.Second
	DefaultMaxTokens = 8000
)

// Result is the outcome of one fix attempt.
type Result struct {
	Success     bool   `json:"success"`
	ChangesMade bool   `json:"changes_made"`
	Reason      Reason `json:"reason,omitempty"`
	Message     string `json:"message,omitempty"`
	StatusCode  int    `json:"status_code,omitempty"`
	Cached      bool   `json:"cached,omitempty"`
	// Content is the repaired document when Success is true.
	Content string `json:"-"`
}

// Fixer calls Client to repair documents.
type Fixer struct {
	Client    llm.Client
	Model     string
	MaxTokens int
	Timeout   time.Duration
	// SystemPrompt overrides DefaultSystemPrompt when non-empty.
	SystemPrompt string
	// Cache, when enabled, short-circuits repeated fixes of the same document.
	Cache *cache.LLMCache
	// Policy, when non-nil, sanitizes the model output before it is returned.
	Policy *bluemonday.Policy
	Log    zerolog.Logger
}

func (f *Fixer) systemPrompt() string {
	if strings.TrimSpace(f.SystemPrompt) != "" {
		return f.SystemPrompt
	}
	return DefaultSystemPrompt
}

// Fix sends content to the model and returns the repaired document.
func (f *Fixer) Fix(ctx context.Context, content string) Result {
	if f == nil || f.Client == nil || strings.TrimSpace(f.Model) == "" {
		return Result{Reason: ReasonNotConfigured, Message: "LLM client or model not configured"}
	}
	system := f.systemPrompt()
	user := UserPrompt(content)
	key := cache.KeyFrom(f.Model, system, user)

	if f.Cache.Enabled() {
		if e, ok, err := f.Cache.Get(ctx, key); err == nil && ok {
			f.Log.Debug().Str("key", key).Msg("auto-fix cache hit")
			return f.finish(content, e.Content, true)
		}
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxTokens := f.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if plan := budget.Check(f.Model, system, user, content, maxTokens); !plan.Fits || plan.OutputShort {
		f.Log.Warn().
			Int("context_tokens", plan.ContextTokens).
			Int("prompt_tokens", plan.PromptTokens).
			Int("document_tokens", plan.DocumentTokens).
			Int("max_tokens", maxTokens).
			Bool("fits", plan.Fits).
			Msg("auto-fix request may exceed the model budget")
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	f.Log.Info().Str("model", f.Model).Int("input_chars", len(content)).Msg("calling LLM for HTML correction")
	resp, err := f.Client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: f.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		// go-openai omits a zero temperature, which servers read as their default.
		Temperature: math.SmallestNonzeroFloat32,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		res := classify(callCtx, err)
		f.Log.Warn().Err(err).Int("status", res.StatusCode).Str("reason", string(res.Reason)).Msg("LLM call failed")
		return res
	}
	if len(resp.Choices) == 0 {
		f.Log.Warn().Str("reason", string(ReasonEmptyResponse)).Msg("LLM returned no choices")
		return Result{Reason: ReasonEmptyResponse, Message: "no choices in response"}
	}
	// A reply cut at max_tokens is a partial document; it must never reach
	// the cache or the file.
	if fr := resp.Choices[0].FinishReason; fr == openai.FinishReasonLength {
		f.Log.Warn().Str("reason", string(ReasonTruncated)).Int("max_tokens", maxTokens).Msg("LLM reply hit the token limit")
		return Result{Reason: ReasonTruncated, Message: "reply truncated at max_tokens"}
	}
	fixed := StripFence(resp.Choices[0].Message.Content)
	if fixed == "" {
		f.Log.Warn().Str("reason", string(ReasonEmptyResponse)).Msg("LLM returned empty content")
		return Result{Reason: ReasonEmptyResponse, Message: "empty content in response"}
	}
	if f.Cache.Enabled() {
		if err := f.Cache.Save(ctx, key, f.Model, fixed); err != nil {
			f.Log.Debug().Err(err).Msg("auto-fix cache save failed")
		}
	}
	return f.finish(content, fixed, false)
}

func (f *Fixer) finish(original, fixed string, cached bool) Result {
	if f.Policy != nil {
		fixed = strings.TrimSpace(f.Policy.Sanitize(fixed))
		if fixed == "" {
			return Result{Reason: ReasonEmptyResponse, Message: "content empty after sanitization", Cached: cached}
		}
	}
	f.Log.Info().Int("output_chars", len(fixed)).Bool("cached", cached).Msg("HTML fixed")
	return Result{Success: true, ChangesMade: fixed != original, Cached: cached, Content: fixed}
}

// FixFile repairs the document at path in place. The original is copied to
// a .backup sibling before writing; the backup is removed after a
// successful write and restored over path when the write fails.
func (f *Fixer) FixFile(ctx context.Context, path string) Result {
	original, err := document.Load(path)
	if err != nil {
		return Result{Reason: ReasonInputError, Message: err.Error()}
	}
	res := f.Fix(ctx, original)
	if !res.Success {
		return res
	}
	backup, err := document.Backup(path)
	if err != nil {
		return Result{Reason: ReasonWriteError, Message: err.Error()}
	}
	f.Log.Debug().Str("backup", backup).Msg("backup created")
	if err := document.Save(path, res.Content); err != nil {
		if rerr := document.Restore(path); rerr != nil {
			f.Log.Error().Err(rerr).Str("backup", backup).Msg("restore from backup failed")
		}
		return Result{Reason: ReasonWriteError, Message: err.Error()}
	}
	if err := os.Remove(backup); err != nil {
		f.Log.Debug().Err(err).Msg("remove backup")
	}
	return res
}

func classify(ctx context.Context, err error) Result {
	res := Result{Message: err.Error(), StatusCode: llm.StatusCode(err)}
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.Reason = ReasonTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		res.Reason = ReasonTimeout
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		res.Reason = ReasonUnauthorized
	case res.StatusCode == http.StatusTooManyRequests:
		res.Reason = ReasonRateLimited
	case res.StatusCode >= 500:
		res.Reason = ReasonServerError
	case res.StatusCode > 0:
		res.Reason = ReasonHTTPError
	default:
		res.Reason = ReasonTransportError
	}
	return res
}

var fenceRe = regexp.MustCompile("(?s)^```[A-Za-z]*[ \t]*\r?\n(.*?)\r?\n?```$")

// StripFence trims content and removes a single code fence wrapping the
// whole response, as chat models often add one around HTML.
func StripFence(content string) string {
	s := strings.TrimSpace(content)
	if m := fenceRe.FindStringSubmatch(s); m != nil && !strings.Contains(m[1], "```") {
		return strings.TrimSpace(m[1])
	}
	return s
}

// ArticlePolicy returns a sanitization policy that keeps the markup the
// article template uses, including link cards and embedded iframes.
func ArticlePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(false)
	p.AllowAttrs("class").Globally()
	p.AllowElements("figure", "figcaption", "iframe")
	p.AllowAttrs("src", "frameborder", "allowfullscreen", "loading").OnElements("iframe")
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	p.AllowAttrs("rel").Matching(regexp.MustCompile(`^[a-z ]+$`)).OnElements("a")
	p.AllowAttrs("loading").OnElements("img")
	return p
}
