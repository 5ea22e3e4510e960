package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ikeike55momo/article-flow/internal/autofix"
	"github.com/ikeike55momo/article-flow/internal/cache"
	"github.com/ikeike55momo/article-flow/internal/llm"
	"github.com/ikeike55momo/article-flow/internal/pipeline"
	"github.com/ikeike55momo/article-flow/internal/shortcode"
)

// App wires configuration into the converters, the auto-fixer and the
// pipeline controller.
type App struct {
	cfg      Config
	log      zerolog.Logger
	provider *llm.OpenAIProvider
	fixer    *autofix.Fixer
}

// New builds the components for cfg. An unreachable LLM endpoint is not an
// error: the preflight only logs, and the auto-fix stage reports the failure.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: logger}

	var llmCache *cache.LLMCache
	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				logger.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 || cfg.CacheMaxEntries > 0 {
			if n, err := cache.EnforceLimits(cfg.CacheDir, cfg.CacheMaxAge, cfg.CacheMaxEntries); err != nil {
				logger.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache purge failed")
			} else if n > 0 {
				logger.Debug().Int("removed", n).Msg("cache purged")
			}
		}
		llmCache = &cache.LLMCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}

	a.fixer = &autofix.Fixer{
		Model:        cfg.LLMModel,
		MaxTokens:    cfg.LLMMaxTokens,
		Timeout:      cfg.LLMTimeout,
		SystemPrompt: cfg.SystemPrompt,
		Cache:        llmCache,
		Log:          logger.With().Str("component", "autofix").Logger(),
	}
	if !cfg.DisableSanitize {
		a.fixer.Policy = autofix.ArticlePolicy()
	}

	if cfg.LLMConfigured() {
		a.provider = llm.NewOpenAI(cfg.LLMBaseURL, cfg.LLMAPIKey, newLLMHTTPClient(cfg.LLMTimeout))
		a.fixer.Client = a.provider
		a.preflight(ctx)
	} else {
		logger.Debug().Msg("LLM not configured; auto-fix will report not_configured")
	}
	return a, nil
}

// preflight lists models to surface connectivity problems early.
func (a *App) preflight(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	models, err := a.provider.ListModels(ctx)
	if err != nil {
		a.log.Warn().Err(err).Int("status", llm.StatusCode(err)).Msg("LLM model list failed; continuing")
		return
	}
	if len(models.Models) == 0 {
		a.log.Warn().Msg("LLM returned zero models")
		return
	}
	found := false
	for _, m := range models.Models {
		if m.ID == a.cfg.LLMModel {
			found = true
			break
		}
	}
	a.log.Info().Int("count", len(models.Models)).Bool("model_listed", found).Msg("LLM models available")
}

// Config returns the resolved configuration.
func (a *App) Config() Config { return a.cfg }

// Fixer returns the configured auto-fixer. It is never nil; without an LLM
// endpoint its results carry the not_configured reason.
func (a *App) Fixer() *autofix.Fixer { return a.fixer }

// Pipeline returns a controller for the configured article.
func (a *App) Pipeline() (*pipeline.Controller, error) {
	return pipeline.New(pipeline.Options{
		HTMLPath:   a.cfg.ArticleHTMLPath(),
		ReportsDir: a.cfg.ArticleReportsDir(),
		ArticleID:  a.cfg.ArticleID,
		Converter:  shortcode.Default(),
		Fixer:      a.fixer,
		PDFSummary: a.cfg.PDFSummaryPath(),
		Generator:  "article-flow " + BuildVersion,
		Log:        a.log.With().Str("component", "pipeline").Logger(),
	})
}

// Run executes the six-stage pipeline once.
func (a *App) Run(ctx context.Context) (pipeline.Result, error) {
	c, err := a.Pipeline()
	if err != nil {
		return pipeline.Result{}, err
	}
	return c.Run(ctx)
}
