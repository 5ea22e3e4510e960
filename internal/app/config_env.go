package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides overrides cfg fields with environment variables that are
// set. It runs after the config file and before explicitly set flags.
func ApplyEnvOverrides(cfg *Config) { applyEnv(cfg, os.Getenv) }

// ApplyEnvValues applies dotenv settings the same way. It runs before the
// config file.
func ApplyEnvValues(cfg *Config, vals EnvValues) { applyEnv(cfg, vals.Get) }

func applyEnv(cfg *Config, getenv func(string) string) {
	if cfg == nil {
		return
	}

	if v := getenv("LLM_BASE_URL"); v != "" {
		cfg.LLMBaseURL = v
	}
	if v := getenv("LLM_MODEL"); v != "" {
		cfg.LLMModel = v
	}
	if v := getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLMAPIKey = v
	}
	// LLM_API_KEY wins over the OpenAI fallback.
	if v := getenv("LLM_API_KEY"); v != "" {
		cfg.LLMAPIKey = v
	}
	if v := getenv("ARTICLE_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := getenv("CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}

	setDuration := func(dst *time.Duration, key string) {
		if s := strings.TrimSpace(getenv(key)); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				*dst = d
			}
		}
	}
	setDuration(&cfg.LLMTimeout, "LLM_TIMEOUT")
	setDuration(&cfg.CacheMaxAge, "CACHE_MAX_AGE")

	setInt := func(dst *int, key string) {
		if s := strings.TrimSpace(getenv(key)); s != "" {
			if n, err := strconv.Atoi(s); err == nil && n > 0 {
				*dst = n
			}
		}
	}
	setInt(&cfg.LLMMaxTokens, "LLM_MAX_TOKENS")
	setInt(&cfg.CacheMaxEntries, "CACHE_MAX_ENTRIES")

	if v, ok := envBool(getenv, "AUTOFIX_SANITIZE"); ok {
		cfg.DisableSanitize = !v
	}
	if v, ok := envBool(getenv, "REPORT_PDF"); ok {
		cfg.PDFSummary = v
	}
	if v, ok := envBool(getenv, "VERBOSE"); ok {
		cfg.Verbose = v
	}
	if v, ok := envBool(getenv, "CACHE_CLEAR"); ok {
		cfg.CacheClear = v
	}
	if v, ok := envBool(getenv, "CACHE_STRICT_PERMS"); ok {
		cfg.CacheStrictPerms = v
	}
}

// envBool reads truthy/falsey values; ok is false when unset or unrecognised.
func envBool(getenv func(string) string, key string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(getenv(key))) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}
