package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Entry is one cached model response.
type Entry struct {
	Model   string    `json:"model"`
	Content string    `json:"content"`
	SavedAt time.Time `json:"saved_at"`
}

// LLMCache stores model responses keyed by a digest of model, system prompt
// and document. A nil *LLMCache or an empty Dir disables caching.
type LLMCache struct {
	Dir string
	// StrictPerms, when true, enforces 0700 on the cache directory and 0600
	// on files.
	StrictPerms bool
}

// Enabled reports whether c is configured.
func (c *LLMCache) Enabled() bool { return c != nil && c.Dir != "" }

func (c *LLMCache) ensureDir() error {
	if !c.Enabled() {
		return errors.New("cache dir not configured")
	}
	perm := os.FileMode(0o755)
	if c.StrictPerms {
		perm = 0o700
	}
	if err := os.MkdirAll(c.Dir, perm); err != nil {
		return err
	}
	if c.StrictPerms {
		if info, err := os.Stat(c.Dir); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(c.Dir, 0o700)
		}
	}
	return nil
}

// KeyFrom builds a cache key from the model name and the prompt parts.
func KeyFrom(model string, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(model))
	for _, p := range parts {
		h.Write([]byte("\n\n"))
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *LLMCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".json")
}

// Get returns the cached entry for key. A miss is not an error.
func (c *LLMCache) Get(_ context.Context, key string) (Entry, bool, error) {
	if err := c.ensureDir(); err != nil {
		return Entry{}, false, err
	}
	p := c.pathFor(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return Entry{}, false, nil
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		// Corrupt entries are dropped and treated as a miss.
		_ = os.Remove(p)
		return Entry{}, false, nil
	}
	// Touch mtime on access so EnforceLimits evicts least recently used first.
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return e, true, nil
}

// Save stores content under key.
func (c *LLMCache) Save(_ context.Context, key string, model string, content string) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	b, err := json.Marshal(Entry{Model: model, Content: content, SavedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	mode := os.FileMode(0o644)
	if c.StrictPerms {
		mode = 0o600
	}
	return os.WriteFile(c.pathFor(key), b, mode)
}
