package app

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// Flags binds the shared command-line surface onto a FlagSet. Only flags the
// user actually passes override env and file values.
type Flags struct {
	fs         *flag.FlagSet
	vals       Config
	sanitize   bool
	ConfigPath string
	Version    bool
}

// BindFlags registers the LLM, cache and logging flags on fs.
func BindFlags(fs *flag.FlagSet) *Flags {
	d := Defaults()
	f := &Flags{fs: fs, sanitize: true}
	fs.StringVar(&f.ConfigPath, "config", "", "Path to YAML or JSON config file")
	fs.StringVar(&f.vals.LLMBaseURL, "llm.base", "", "OpenAI-compatible base URL (env LLM_BASE_URL)")
	fs.StringVar(&f.vals.LLMModel, "llm.model", "", "Model name (env LLM_MODEL)")
	fs.StringVar(&f.vals.LLMAPIKey, "llm.key", "", "API key (env LLM_API_KEY or OPENAI_API_KEY)")
	fs.DurationVar(&f.vals.LLMTimeout, "llm.timeout", d.LLMTimeout, "Auto-fix request timeout")
	fs.IntVar(&f.vals.LLMMaxTokens, "llm.maxTokens", d.LLMMaxTokens, "Maximum output tokens for the auto-fix reply")
	fs.StringVar(&f.vals.SystemPrompt, "autofix.systemPrompt", "", "Override the auto-fix system prompt (inline string)")
	fs.StringVar(&f.vals.SystemPromptFile, "autofix.systemPromptFile", "", "Path to file containing the auto-fix system prompt")
	fs.BoolVar(&f.sanitize, "autofix.sanitize", true, "Sanitize model output before writing it")
	fs.StringVar(&f.vals.CacheDir, "cache.dir", "", "LLM response cache directory (empty disables)")
	fs.DurationVar(&f.vals.CacheMaxAge, "cache.maxAge", 0, "Purge cache entries older than this before a run; 0 disables")
	fs.IntVar(&f.vals.CacheMaxEntries, "cache.maxEntries", 0, "Keep at most this many cache entries, evicting least recently used; 0 disables")
	fs.BoolVar(&f.vals.CacheClear, "cache.clear", false, "Clear the cache directory before the run")
	fs.BoolVar(&f.vals.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.BoolVar(&f.vals.Verbose, "v", false, "Verbose logging")
	fs.BoolVar(&f.Version, "version", false, "Print version and exit")
	return f
}

// BindArticle adds the article addressing and report flags.
func (f *Flags) BindArticle() *Flags {
	f.fs.StringVar(&f.vals.ArticleID, "article", "", "Article id; the document is <output>/<id>/final_article.html")
	f.fs.StringVar(&f.vals.OutputDir, "output", DefaultOutputDir, "Output root directory (env ARTICLE_OUTPUT_DIR)")
	f.fs.StringVar(&f.vals.HTMLPath, "html", "", "Explicit document path, overrides -article/-output")
	f.fs.StringVar(&f.vals.ReportsDir, "reports", "", "Reports directory (default: validation_reports next to the document)")
	f.fs.BoolVar(&f.vals.PDFSummary, "report.pdf", false, "Also write a PDF run summary (env REPORT_PDF)")
	return f
}

// Resolve layers defaults, dotenv files, the config file, the environment and
// explicitly set flags, in increasing precedence.
func (f *Flags) Resolve() (Config, error) {
	dotenv, err := ReadEnvFiles(DefaultEnvFiles...)
	if err != nil {
		return Config{}, fmt.Errorf("read env files: %w", err)
	}
	cfg := Defaults()
	ApplyEnvValues(&cfg, dotenv)
	if strings.TrimSpace(f.ConfigPath) != "" {
		fc, err := LoadConfigFile(f.ConfigPath)
		if err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", f.ConfigPath, err)
		}
		ApplyFileConfig(&cfg, fc)
	}
	ApplyEnvOverrides(&cfg)
	f.fs.Visit(func(fl *flag.Flag) { f.apply(&cfg, fl.Name) })

	if strings.TrimSpace(cfg.SystemPromptFile) != "" {
		b, err := os.ReadFile(cfg.SystemPromptFile)
		if err != nil {
			return Config{}, fmt.Errorf("system prompt file: %w", err)
		}
		cfg.SystemPrompt = string(b)
	}
	return cfg, nil
}

func (f *Flags) apply(cfg *Config, name string) {
	v := f.vals
	switch name {
	case "article":
		cfg.ArticleID = v.ArticleID
	case "output":
		cfg.OutputDir = v.OutputDir
	case "html":
		cfg.HTMLPath = v.HTMLPath
	case "reports":
		cfg.ReportsDir = v.ReportsDir
	case "report.pdf":
		cfg.PDFSummary = v.PDFSummary
	case "llm.base":
		cfg.LLMBaseURL = v.LLMBaseURL
	case "llm.model":
		cfg.LLMModel = v.LLMModel
	case "llm.key":
		cfg.LLMAPIKey = v.LLMAPIKey
	case "llm.timeout":
		cfg.LLMTimeout = v.LLMTimeout
	case "llm.maxTokens":
		cfg.LLMMaxTokens = v.LLMMaxTokens
	case "autofix.systemPrompt":
		cfg.SystemPrompt = v.SystemPrompt
	case "autofix.systemPromptFile":
		cfg.SystemPromptFile = v.SystemPromptFile
	case "autofix.sanitize":
		cfg.DisableSanitize = !f.sanitize
	case "cache.dir":
		cfg.CacheDir = v.CacheDir
	case "cache.maxAge":
		cfg.CacheMaxAge = v.CacheMaxAge
	case "cache.maxEntries":
		cfg.CacheMaxEntries = v.CacheMaxEntries
	case "cache.clear":
		cfg.CacheClear = v.CacheClear
	case "cache.strictPerms":
		cfg.CacheStrictPerms = v.CacheStrictPerms
	case "v":
		cfg.Verbose = v.Verbose
	}
}
