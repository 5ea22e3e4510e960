package app

import (
	"bufio"
	"errors"
	"os"
	"strings"
)

// DefaultEnvFiles are read by every binary before configuration is resolved.
var DefaultEnvFiles = []string{".env", ".env.local"}

// EnvKeys are the variables article-flow reads. Dotenv entries for any other
// key are ignored.
var EnvKeys = []string{
	"LLM_BASE_URL", "LLM_MODEL", "LLM_API_KEY", "OPENAI_API_KEY",
	"LLM_TIMEOUT", "LLM_MAX_TOKENS",
	"ARTICLE_OUTPUT_DIR", "AUTOFIX_SANITIZE", "REPORT_PDF", "VERBOSE",
	"CACHE_DIR", "CACHE_MAX_AGE", "CACHE_MAX_ENTRIES", "CACHE_CLEAR", "CACHE_STRICT_PERMS",
}

// EnvValues holds dotenv settings. They sit below the config file and the
// process environment, so they are kept apart from os.Environ.
type EnvValues map[string]string

// Get returns the value for key, or "" when unset.
func (v EnvValues) Get(key string) string { return v[key] }

// ReadEnvFiles parses dotenv files of KEY=VALUE pairs. Later files override
// earlier ones; missing files are skipped. Values are not expanded.
func ReadEnvFiles(paths ...string) (EnvValues, error) {
	known := make(map[string]bool, len(EnvKeys))
	for _, k := range EnvKeys {
		known[k] = true
	}
	vals := EnvValues{}
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if err := readEnvFile(p, known, vals); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
	}
	return vals, nil
}

func readEnvFile(path string, known map[string]bool, into EnvValues) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, val, ok := parseEnvLine(scanner.Text())
		if ok && known[key] {
			into[key] = val
		}
	}
	return scanner.Err()
}

// parseEnvLine accepts KEY=VALUE with an optional "export " prefix and one
// level of matching quotes.
func parseEnvLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimPrefix(line, "export ")
	key, val, found := strings.Cut(line, "=")
	key = strings.TrimSpace(key)
	if !found || key == "" {
		return "", "", false
	}
	val = strings.TrimSpace(val)
	if n := len(val); n >= 2 && (val[0] == '"' || val[0] == '\'') && val[n-1] == val[0] {
		val = val[1 : n-1]
	}
	return key, val, true
}
