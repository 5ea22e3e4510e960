package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReadEnvFiles_KnownKeysOnly(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "\n# sample dotenv file\nLLM_MODEL=alpha\nexport LLM_BASE_URL=\"http://llm.test/v1\"\nFOO=bar\nmalformed\n=x\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	vals, err := ReadEnvFiles(envPath, filepath.Join(dir, "missing"))
	if err != nil {
		t.Fatalf("ReadEnvFiles error: %v", err)
	}
	if vals.Get("LLM_MODEL") != "alpha" || vals.Get("LLM_BASE_URL") != "http://llm.test/v1" {
		t.Fatalf("values %v", vals)
	}
	if len(vals) != 2 {
		t.Fatalf("unknown keys should be dropped, got %v", vals)
	}
}

// Later files override earlier ones when loading multiple dotenv files.
func TestReadEnvFiles_OverrideOrder(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, ".env")
	b := filepath.Join(dir, ".env.local")
	if err := os.WriteFile(a, []byte("LLM_MODEL=first\n"), 0o600); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := os.WriteFile(b, []byte("LLM_MODEL='second'\n"), 0o600); err != nil {
		t.Fatalf("write b: %v", err)
	}
	vals, err := ReadEnvFiles(a, b)
	if err != nil {
		t.Fatalf("ReadEnvFiles error: %v", err)
	}
	if got := vals.Get("LLM_MODEL"); got != "second" {
		t.Fatalf("override order failed: got %q, want second", got)
	}
}

// Dotenv values are the lowest layer; the process environment still wins.
func TestApplyEnvValues_BelowProcessEnv(t *testing.T) {
	t.Setenv("LLM_MODEL", "from-env")
	t.Setenv("LLM_BASE_URL", "")
	t.Setenv("REPORT_PDF", "")
	cfg := Defaults()
	ApplyEnvValues(&cfg, EnvValues{"LLM_MODEL": "from-dotenv", "LLM_BASE_URL": "http://dotenv/v1", "REPORT_PDF": "1"})
	ApplyEnvOverrides(&cfg)
	if cfg.LLMModel != "from-env" || cfg.LLMBaseURL != "http://dotenv/v1" || !cfg.PDFSummary {
		t.Fatalf("layering %+v", cfg)
	}
}

func TestApplyEnvOverrides_FromEnv(t *testing.T) {
	t.Setenv("LLM_BASE_URL", "http://llm.test/v1")
	t.Setenv("LLM_MODEL", "m1")
	t.Setenv("OPENAI_API_KEY", "openai")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("LLM_TIMEOUT", "15s")
	t.Setenv("LLM_MAX_TOKENS", "1234")
	t.Setenv("ARTICLE_OUTPUT_DIR", "/tmp/articles")
	t.Setenv("CACHE_DIR", "/tmp/cache")
	t.Setenv("CACHE_MAX_AGE", "2h")
	t.Setenv("AUTOFIX_SANITIZE", "false")
	t.Setenv("REPORT_PDF", "yes")
	t.Setenv("VERBOSE", "")

	cfg := Defaults()
	ApplyEnvOverrides(&cfg)
	if cfg.LLMBaseURL != "http://llm.test/v1" || cfg.LLMModel != "m1" {
		t.Fatalf("llm settings %+v", cfg)
	}
	if cfg.LLMAPIKey != "openai" {
		t.Fatalf("OPENAI_API_KEY fallback not applied: %q", cfg.LLMAPIKey)
	}
	if cfg.LLMTimeout != 15*time.Second || cfg.LLMMaxTokens != 1234 {
		t.Fatalf("timeout=%v maxTokens=%d", cfg.LLMTimeout, cfg.LLMMaxTokens)
	}
	if cfg.OutputDir != "/tmp/articles" || cfg.CacheDir != "/tmp/cache" || cfg.CacheMaxAge != 2*time.Hour {
		t.Fatalf("paths %+v", cfg)
	}
	if !cfg.DisableSanitize || !cfg.PDFSummary || cfg.Verbose {
		t.Fatalf("booleans %+v", cfg)
	}

	t.Setenv("LLM_API_KEY", "primary")
	ApplyEnvOverrides(&cfg)
	if cfg.LLMAPIKey != "primary" {
		t.Fatalf("LLM_API_KEY should win, got %q", cfg.LLMAPIKey)
	}
}
