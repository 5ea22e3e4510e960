// Command openai-stub is a local OpenAI-compatible server for exercising the
// auto-fix path without a real model. It answers the auto-fix instruction by
// running the deterministic converters plus simple inline Markdown rewrites.
//
// Environment: ADDR (default :8081), MODEL_ID (default test-model) and
// STUB_STATUS, an HTTP status the chat endpoint returns instead of answering.
package main

import (
	"encoding/json"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ikeike55momo/article-flow/internal/autofix"
	"github.com/ikeike55momo/article-flow/internal/mdlist"
	"github.com/ikeike55momo/article-flow/internal/shortcode"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}
	status, _ := strconv.Atoi(os.Getenv("STUB_STATUS"))

	log.Info().Str("addr", addr).Str("model", model).Msg("openai-stub listening")
	if err := http.ListenAndServe(addr, newMux(model, status, log.Logger)); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}

func newMux(model string, failStatus int, logger zerolog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if failStatus >= 400 {
			writeError(w, failStatus, "stub configured to fail")
			return
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) < 2 {
			writeError(w, http.StatusBadRequest, "expected system and user messages")
			return
		}
		sys := strings.TrimSpace(req.Messages[0].Content)
		if !strings.Contains(sys, "HTML修正専門エージェント") {
			writeError(w, http.StatusBadRequest, "unexpected system")
			return
		}
		doc, ok := autofix.DocumentFromUserPrompt(req.Messages[1].Content)
		if !ok {
			writeError(w, http.StatusBadRequest, "user turn does not carry a document")
			return
		}
		fixed := fixDocument(doc)
		logger.Debug().Int("in", len(doc)).Int("out", len(fixed)).Msg("answered auto-fix")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "stub",
			"object": "chat.completion",
			"model":  model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": "```html\n" + fixed + "\n```"},
				"finish_reason": "stop",
			}},
		})
	})
	return mux
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"message": msg, "type": "stub_error"},
	})
}

var (
	headingRe = regexp.MustCompile(`(?m)^(#{1,6})[ \t]+(.+?)[ \t]*$`)
	boldRe    = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	italicRe  = regexp.MustCompile(`\*([^*\n]+)\*`)
	strikeRe  = regexp.MustCompile(`~~([^~\n]+)~~`)
	codeRe    = regexp.MustCompile("`([^`\n]+)`")
	imageRe   = regexp.MustCompile(`!\[([^\]\n]*)\]\(([^)\s]+)\)`)
	linkRe    = regexp.MustCompile(`\[([^\]\n]+)\]\(([^)\s]+)\)`)
)

// fixDocument is deliberately simple; it does not protect verbatim regions.
func fixDocument(doc string) string {
	out, _ := shortcode.Default().Convert(doc)
	out, _ = mdlist.Convert(out)
	out = headingRe.ReplaceAllStringFunc(out, func(m string) string {
		sub := headingRe.FindStringSubmatch(m)
		n := strconv.Itoa(len(sub[1]))
		return "<h" + n + ">" + sub[2] + "</h" + n + ">"
	})
	out = imageRe.ReplaceAllString(out, `<img src="$2" alt="$1" loading="lazy">`)
	out = linkRe.ReplaceAllString(out, `<a href="$2">$1</a>`)
	out = boldRe.ReplaceAllString(out, "<strong>$1</strong>")
	out = italicRe.ReplaceAllString(out, "<em>$1</em>")
	out = strikeRe.ReplaceAllString(out, "<del>$1</del>")
	out = codeRe.ReplaceAllString(out, "<code>$1</code>")
	if !strings.Contains(out, `<div class="article-content"`) {
		out = "<div class=\"article-content\">\n" + strings.TrimSpace(out) + "\n</div>"
	}
	return out
}
