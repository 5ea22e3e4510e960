// Package pipeline runs the six fixed stages that converge an LLM-authored
// article into validated HTML, writing one report per stage.
//
// Stages never abort the run: a failing or panicking stage is recorded as an
// error outcome in its report and the next stage proceeds with whatever
// document state exists.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/ikeike55momo/article-flow/internal/autofix"
	"github.com/ikeike55momo/article-flow/internal/document"
	"github.com/ikeike55momo/article-flow/internal/mdlist"
	"github.com/ikeike55momo/article-flow/internal/report"
	"github.com/ikeike55momo/article-flow/internal/shortcode"
	"github.com/ikeike55momo/article-flow/internal/validate"
)

// Outcome is the tagged result of one stage.
type Outcome struct {
	Stage  int
	Status string
	Err    error
}

// OK reports whether the stage completed.
func (o Outcome) OK() bool { return o.Status == report.StatusCompleted }

// Fixer is the auto-fix capability the pipeline depends on.
type Fixer interface {
	FixFile(ctx context.Context, path string) autofix.Result
}

// Options configures a Controller.
type Options struct {
	// HTMLPath is the document rewritten in place.
	HTMLPath string
	// ReportsDir receives the stage reports.
	ReportsDir string
	ArticleID  string
	// Converter defaults to shortcode.Default().
	Converter *shortcode.Converter
	// Fixer may be nil; stage 5 then records a fix failure when needed.
	Fixer Fixer
	// PDFSummary, when non-empty, is the path of a PDF rendering of the rollup.
	PDFSummary string
	// Generator is stamped into every report, e.g. "htmlpipeline 1.2.0".
	Generator string
	Log       zerolog.Logger
}

// Result summarizes a full run.
type Result struct {
	RunID           string
	Outcomes        []Outcome
	DeploymentReady bool
	FinalStatus     string
	Summary         report.Summary
	SummaryPath     string
}

// Controller owns the document for the duration of one run.
type Controller struct {
	opts    Options
	writer  *report.Writer
	log     zerolog.Logger
	content string
	loaded  bool

	apiFixNeeded bool
	finalStatus  string
	ready        bool
}

// New returns a Controller for opts.
func New(opts Options) (*Controller, error) {
	if opts.HTMLPath == "" {
		return nil, errors.New("pipeline: html path required")
	}
	if opts.ReportsDir == "" {
		return nil, errors.New("pipeline: reports dir required")
	}
	if opts.Converter == nil {
		opts.Converter = shortcode.Default()
	}
	w := report.NewWriter(opts.ReportsDir, opts.ArticleID, opts.HTMLPath, opts.Log)
	w.Generator = opts.Generator
	return &Controller{
		opts:   opts,
		writer: w,
		log:    opts.Log.With().Str("run_id", w.RunID).Str("article_id", opts.ArticleID).Logger(),
	}, nil
}

// RunID identifies this run in every report it writes.
func (c *Controller) RunID() string { return c.writer.RunID }

type stageFunc func(ctx context.Context, r *report.Report) error

// Run executes all six stages in order and writes the rollup. The returned
// error is non-nil only when the reports directory cannot be prepared.
func (c *Controller) Run(ctx context.Context) (Result, error) {
	if err := c.writer.Reset(); err != nil {
		return Result{}, err
	}
	stages := []stageFunc{c.initial, c.shortcodes, c.lists, c.postConversion, c.apiFix, c.final}
	res := Result{RunID: c.writer.RunID}
	for i, fn := range stages {
		res.Outcomes = append(res.Outcomes, c.runStage(ctx, i+1, fn))
	}
	sum, p, err := c.writer.WriteSummary()
	if err != nil {
		c.log.Error().Err(err).Msg("write summary")
	}
	res.Summary, res.SummaryPath = sum, p
	res.DeploymentReady = c.ready
	res.FinalStatus = c.finalStatus
	if c.opts.PDFSummary != "" {
		if err := report.WritePDFSummary(c.opts.PDFSummary, sum, c.writer.Collected()); err != nil {
			c.log.Warn().Err(err).Str("path", c.opts.PDFSummary).Msg("pdf summary failed")
		}
	}
	return res, nil
}

// runStage executes fn with panic recovery and persists its report before
// returning, so the next stage starts only after this one is on disk.
func (c *Controller) runStage(ctx context.Context, n int, fn stageFunc) Outcome {
	r := c.writer.Begin(n)
	log := c.log.With().Int("step", n).Str("stage", r.StepName).Logger()
	log.Info().Msg("stage started")
	func() {
		defer func() {
			if p := recover(); p != nil {
				log.Error().Interface("panic", p).Msg("stage panicked")
				r.Fail(fmt.Errorf("panic: %v", p))
			}
		}()
		if err := fn(ctx, &r); err != nil {
			log.Error().Err(err).Msg("stage failed")
			r.Fail(err)
		}
	}()
	if _, err := c.writer.Write(r); err != nil {
		log.Error().Err(err).Msg("write stage report")
		if r.Status == report.StatusCompleted {
			r.Fail(err)
		}
	}
	log.Info().Str("status", r.Status).Msg("stage finished")
	return Outcome{Stage: n, Status: r.Status, Err: errorOf(r)}
}

func errorOf(r report.Report) error {
	if r.Error == "" {
		return nil
	}
	return errors.New(r.Error)
}

// load reads the document on first use.
func (c *Controller) load() error {
	if c.loaded {
		return nil
	}
	content, err := document.Load(c.opts.HTMLPath)
	if err != nil {
		return err
	}
	c.content, c.loaded = content, true
	return nil
}

// reload drops the in-memory document so the next stage reads it from disk.
func (c *Controller) reload() error {
	c.loaded = false
	return c.load()
}

func (c *Controller) save(content string) error {
	if err := document.Save(c.opts.HTMLPath, content); err != nil {
		return err
	}
	c.content = content
	return nil
}

func (c *Controller) validate(r *report.Report) (validate.Result, error) {
	if err := c.load(); err != nil {
		return validate.Result{}, err
	}
	res := validate.Validate(c.content)
	if info, err := os.Stat(c.opts.HTMLPath); err == nil {
		res.FileSize = info.Size()
	}
	r.SetValidation(res)
	return res, nil
}

func (c *Controller) initial(_ context.Context, r *report.Report) error {
	res, err := c.validate(r)
	if err != nil {
		return err
	}
	if res.Success {
		c.log.Info().Msg("document already valid; later stages are trivial passes")
	}
	return nil
}

func (c *Controller) shortcodes(_ context.Context, r *report.Report) error {
	if err := c.load(); err != nil {
		return err
	}
	out, res := c.opts.Converter.Convert(c.content)
	r.ConversionResults = report.ShortcodeConversion(res)
	imp := report.NewImprovements(res.BeforeCount, res.AfterCount)
	r.Improvements = &imp
	r.RemainingIssues = report.Int(res.AfterCount)
	if res.ConvertedCount > 0 {
		if err := c.save(out); err != nil {
			return err
		}
	}
	r.FileInfo = document.Stat(c.opts.HTMLPath)
	r.ValidationResults = report.Quick(c.content)
	return nil
}

func (c *Controller) lists(_ context.Context, r *report.Report) error {
	if err := c.load(); err != nil {
		return err
	}
	out, res := mdlist.Convert(c.content)
	for _, w := range res.Warnings {
		c.log.Warn().Str("issue", w).Msg("ordered list structure")
	}
	r.ConversionResults = report.ListConversion(res)
	imp := report.NewImprovements(res.BeforeCount, res.AfterCount)
	r.Improvements = &imp
	r.RemainingIssues = report.Int(res.AfterCount)
	if res.ConvertedCount > 0 {
		if err := c.save(out); err != nil {
			return err
		}
	}
	r.FileInfo = document.Stat(c.opts.HTMLPath)
	r.ValidationResults = report.Quick(c.content)
	return nil
}

func (c *Controller) postConversion(_ context.Context, r *report.Report) error {
	// Undecided until validation runs; a failing stage still asks for a fix.
	c.apiFixNeeded = true
	summary := c.writer.Conversion()
	r.ConversionSummary = &summary
	res, err := c.validate(r)
	if err != nil {
		r.APIFixNeeded = report.Bool(true)
		return err
	}
	c.apiFixNeeded = !res.Success
	r.APIFixNeeded = report.Bool(c.apiFixNeeded)
	return nil
}

func (c *Controller) apiFix(ctx context.Context, r *report.Report) error {
	if !c.apiFixNeeded {
		c.finalStatus = report.FinalNotNeeded
		r.FinalStatus = c.finalStatus
		return nil
	}
	c.finalStatus = report.FinalFixFailed
	r.FinalStatus = c.finalStatus
	var fix autofix.Result
	if c.opts.Fixer == nil {
		fix = autofix.Result{Reason: autofix.ReasonNotConfigured, Message: "auto-fix not configured"}
	} else {
		fix = c.opts.Fixer.FixFile(ctx, c.opts.HTMLPath)
	}
	r.APIFixResults = &report.FixResults{
		Success:     fix.Success,
		ChangesMade: fix.ChangesMade,
		Reason:      string(fix.Reason),
		Message:     fix.Message,
		StatusCode:  fix.StatusCode,
		Cached:      fix.Cached,
	}
	r.APIFixSuccess = report.Bool(fix.Success)
	if !fix.Success {
		c.log.Warn().Str("reason", string(fix.Reason)).Msg("auto-fix failed")
		return nil
	}
	if err := c.reload(); err != nil {
		return err
	}
	res := validate.Validate(c.content)
	r.PostFixValidation = report.Bool(res.Success)
	if res.Success {
		c.finalStatus = report.FinalFixed
	} else {
		c.finalStatus = report.FinalPartialFix
	}
	r.FinalStatus = c.finalStatus
	r.FileInfo = document.Stat(c.opts.HTMLPath)
	r.ValidationResults = report.Quick(c.content)
	return nil
}

func (c *Controller) final(_ context.Context, r *report.Report) error {
	c.ready = false
	r.DeploymentReady = report.Bool(false)
	r.FinalValidationPassed = report.Bool(false)
	overall := c.writer.Overall()
	r.OverallSummary = &overall
	r.Recommendations = []string{report.RecManualIntervention, report.RecDetailedDebugging}
	if err := c.reload(); err != nil {
		return err
	}
	res := validate.Validate(c.content)
	r.ValidationPassed = report.Bool(res.Success)
	r.IssuesDetected = res.Issues()
	r.Findings = &res
	c.ready = res.Success
	r.FinalValidationPassed = report.Bool(res.Success)
	r.DeploymentReady = report.Bool(res.Success)
	if res.Success {
		r.Recommendations = []string{report.RecReadyForDeployment}
	}
	return nil
}
