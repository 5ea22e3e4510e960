package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
	Article struct {
		ID      string `yaml:"id" json:"id"`
		Output  string `yaml:"output" json:"output"`
		HTML    string `yaml:"html" json:"html"`
		Reports string `yaml:"reports" json:"reports"`
	} `yaml:"article" json:"article"`

	LLM struct {
		BaseURL   string   `yaml:"base" json:"base"`
		Model     string   `yaml:"model" json:"model"`
		APIKey    string   `yaml:"key" json:"key"`
		Timeout   Duration `yaml:"timeout" json:"timeout"`
		MaxTokens int      `yaml:"maxTokens" json:"maxTokens"`
	} `yaml:"llm" json:"llm"`

	AutoFix struct {
		SystemPrompt     string `yaml:"systemPrompt" json:"systemPrompt"`
		SystemPromptFile string `yaml:"systemPromptFile" json:"systemPromptFile"`
		Sanitize         *bool  `yaml:"sanitize" json:"sanitize"`
	} `yaml:"autofix" json:"autofix"`

	Cache struct {
		Dir         string   `yaml:"dir" json:"dir"`
		MaxAge      Duration `yaml:"maxAge" json:"maxAge"`
		MaxEntries  int      `yaml:"maxEntries" json:"maxEntries"`
		Clear       bool     `yaml:"clear" json:"clear"`
		StrictPerms bool     `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	Report struct {
		PDF bool `yaml:"pdf" json:"pdf"`
	} `yaml:"report" json:"report"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// Duration accepts "90s" style strings in both YAML and JSON.
type Duration time.Duration

func (d *Duration) set(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	return d.set(n.Value)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	return d.set(s)
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays every value the file sets onto cfg.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	setStr := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	setStr(&cfg.ArticleID, fc.Article.ID)
	setStr(&cfg.OutputDir, fc.Article.Output)
	setStr(&cfg.HTMLPath, fc.Article.HTML)
	setStr(&cfg.ReportsDir, fc.Article.Reports)

	setStr(&cfg.LLMBaseURL, fc.LLM.BaseURL)
	setStr(&cfg.LLMModel, fc.LLM.Model)
	setStr(&cfg.LLMAPIKey, fc.LLM.APIKey)
	if fc.LLM.Timeout > 0 {
		cfg.LLMTimeout = time.Duration(fc.LLM.Timeout)
	}
	if fc.LLM.MaxTokens != 0 {
		cfg.LLMMaxTokens = fc.LLM.MaxTokens
	}

	setStr(&cfg.SystemPrompt, fc.AutoFix.SystemPrompt)
	setStr(&cfg.SystemPromptFile, fc.AutoFix.SystemPromptFile)
	if fc.AutoFix.Sanitize != nil {
		cfg.DisableSanitize = !*fc.AutoFix.Sanitize
	}

	setStr(&cfg.CacheDir, fc.Cache.Dir)
	if fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = time.Duration(fc.Cache.MaxAge)
	}
	if fc.Cache.MaxEntries != 0 {
		cfg.CacheMaxEntries = fc.Cache.MaxEntries
	}
	if fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}
	if fc.Report.PDF {
		cfg.PDFSummary = true
	}
	if fc.Verbose {
		cfg.Verbose = true
	}
}

// ValidateConfig performs minimal schema validation. requireArticle is set by
// binaries that address a document by article id rather than by path.
func ValidateConfig(cfg Config, requireArticle bool) error {
	if requireArticle && strings.TrimSpace(cfg.ArticleID) == "" && strings.TrimSpace(cfg.HTMLPath) == "" {
		return errors.New("config: article id is required (or set -html)")
	}
	if strings.ContainsAny(cfg.ArticleID, `/\`) {
		return fmt.Errorf("config: article id %q must not contain path separators", cfg.ArticleID)
	}
	if cfg.LLMTimeout < 0 || cfg.LLMMaxTokens < 0 || cfg.CacheMaxAge < 0 || cfg.CacheMaxEntries < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	if strings.TrimSpace(cfg.LLMBaseURL) != "" && strings.TrimSpace(cfg.LLMModel) == "" {
		return errors.New("config: llm.model is required when llm.base is set (or set LLM_MODEL)")
	}
	return nil
}
