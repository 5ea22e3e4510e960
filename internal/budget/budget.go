// Package budget estimates whether an auto-fix request fits a model's
// context window and whether the reserved output can hold the whole repaired
// document.
package budget

import (
	"math"
	"strings"
	"unicode"
)

// EstimateTokens returns a conservative token estimate for s. Han, Hiragana,
// Katakana and Hangul runes count as one token each; other text is taken at
// roughly four bytes per token.
func EstimateTokens(s string) int {
	if s == "" {
		return 0
	}
	wide, other := 0, 0
	for _, r := range s {
		if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul) {
			wide++
			continue
		}
		other += len(string(r))
	}
	return wide + int(math.Ceil(float64(other)/4.0))
}

// ModelContextTokens returns an estimated context window for modelName.
// Unknown models fall back to 8192.
func ModelContextTokens(modelName string) int {
	name := strings.ToLower(strings.TrimSpace(modelName))
	if v, ok := knownModelMax[name]; ok {
		return v
	}
	for _, s := range suffixes {
		if strings.HasSuffix(name, s.suffix) {
			return s.tokens
		}
	}
	if strings.Contains(name, "-mini") {
		return 128_000
	}
	return 8192
}

// Plan is the sizing of one request.
type Plan struct {
	Model          string
	ContextTokens  int
	PromptTokens   int
	DocumentTokens int
	MaxOutput      int
	// Fits is false when prompt plus reserved output exceeds the context.
	Fits bool
	// OutputShort is true when MaxOutput is below the document estimate, so
	// a full-document reply is likely to be cut off.
	OutputShort bool
}

// Check sizes a request whose user turn embeds document.
func Check(model, system, user, document string, maxOutput int) Plan {
	p := Plan{
		Model:          model,
		ContextTokens:  ModelContextTokens(model),
		PromptTokens:   EstimateTokens(system) + EstimateTokens(user),
		DocumentTokens: EstimateTokens(document),
		MaxOutput:      maxOutput,
	}
	p.Fits = p.PromptTokens+p.MaxOutput+headroom(p.ContextTokens) <= p.ContextTokens
	p.OutputShort = p.MaxOutput < p.DocumentTokens
	return p
}

// headroom covers tokenizer error and message framing: 5% of the context,
// at least 512 tokens.
func headroom(contextTokens int) int {
	dyn := int(math.Ceil(float64(contextTokens) * 0.05))
	if dyn < 512 {
		return 512
	}
	return dyn
}

var knownModelMax = map[string]int{
	"gpt-4o":        128_000,
	"gpt-4o-mini":   128_000,
	"gpt-4-turbo":   128_000,
	"gpt-4.1":       1_000_000,
	"gpt-4.1-mini":  1_000_000,
	"gpt-3.5-turbo": 16_384,
	"llama-3":       8_192,
	"llama-3.1":     128_000,
	"gpt-oss-20b":   4_096,
}

var suffixes = []struct {
	suffix string
	tokens int
}{
	{"1m", 1_000_000},
	{"512k", 512_000},
	{"200k", 200_000},
	{"128k", 128_000},
	{"32k", 32_768},
}
