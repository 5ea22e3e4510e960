package app

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/ikeike55momo/article-flow/internal/autofix"
)

const (
	DefaultOutputDir   = "output"
	DefaultHTMLName    = "final_article.html"
	DefaultReportsName = "validation_reports"
	DefaultPDFName     = "report_summary.pdf"
)

// Config holds runtime configuration for the application.
type Config struct {
	// Article addressing
	ArticleID  string
	OutputDir  string
	HTMLPath   string
	ReportsDir string

	// LLM
	LLMBaseURL   string
	LLMModel     string
	LLMAPIKey    string
	LLMTimeout   time.Duration
	LLMMaxTokens int

	// SystemPrompt overrides the built-in auto-fix instruction.
	SystemPrompt     string
	SystemPromptFile string

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheMaxEntries  int
	CacheClear       bool
	CacheStrictPerms bool

	// Behavior
	DisableSanitize bool
	PDFSummary      bool
	Verbose         bool
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		OutputDir:    DefaultOutputDir,
		LLMTimeout:   autofix.DefaultTimeout,
		LLMMaxTokens: autofix.DefaultMaxTokens,
	}
}

// ArticleHTMLPath is the document a run rewrites: HTMLPath when set, otherwise
// <output>/<article id>/final_article.html.
func (c Config) ArticleHTMLPath() string {
	if strings.TrimSpace(c.HTMLPath) != "" {
		return c.HTMLPath
	}
	out := c.OutputDir
	if out == "" {
		out = DefaultOutputDir
	}
	return filepath.Join(out, c.ArticleID, DefaultHTMLName)
}

// ArticleReportsDir defaults to validation_reports next to the document.
func (c Config) ArticleReportsDir() string {
	if strings.TrimSpace(c.ReportsDir) != "" {
		return c.ReportsDir
	}
	return filepath.Join(filepath.Dir(c.ArticleHTMLPath()), DefaultReportsName)
}

// PDFSummaryPath is empty unless PDF output is enabled.
func (c Config) PDFSummaryPath() string {
	if !c.PDFSummary {
		return ""
	}
	return filepath.Join(c.ArticleReportsDir(), DefaultPDFName)
}

// LLMConfigured reports whether enough is set to call the model.
func (c Config) LLMConfigured() bool {
	return strings.TrimSpace(c.LLMBaseURL) != "" && strings.TrimSpace(c.LLMModel) != ""
}
