// Command htmlpipeline runs the six convergence stages over one article:
// validation, shortcode conversion, list conversion, post-conversion
// validation, LLM auto-fix when still needed, and final validation.
//
// It exits 0 only when the article ends deployment ready.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ikeike55momo/article-flow/internal/app"
	"github.com/ikeike55momo/article-flow/internal/pipeline"
	"github.com/ikeike55momo/article-flow/internal/report"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("htmlpipeline", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := app.BindFlags(fs).BindArticle()
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: htmlpipeline -article <id> [flags]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if flags.Version {
		fmt.Fprintln(stdout, app.VersionString("htmlpipeline"))
		return 0
	}
	if fs.NArg() != 0 {
		fs.Usage()
		return 2
	}
	cfg, err := flags.Resolve()
	if err == nil {
		err = app.ValidateConfig(cfg, true)
	}
	if err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return 2
	}
	log := app.SetupLogging(stderr, cfg.Verbose)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "🚀 Running HTML pipeline for: %s\n", cfg.ArticleHTMLPath())
	res, err := a.Run(ctx)
	if err != nil {
		fmt.Fprintf(stdout, "❌ Pipeline could not start: %v\n", err)
		return 1
	}
	printSummary(stdout, res)
	if !res.DeploymentReady {
		return 1
	}
	return 0
}

func printSummary(w io.Writer, res pipeline.Result) {
	for _, o := range res.Outcomes {
		step, _ := report.StepByNumber(o.Stage)
		if o.OK() {
			fmt.Fprintf(w, "   ✅ %d. %s\n", o.Stage, step.Name)
		} else {
			fmt.Fprintf(w, "   ❌ %d. %s: %v\n", o.Stage, step.Name, o.Err)
		}
	}
	s := res.Summary
	fmt.Fprintf(w, "📊 Steps: %d completed, %d failed of %d\n", s.CompletedSteps, s.FailedSteps, s.TotalSteps)
	if res.FinalStatus != "" {
		fmt.Fprintf(w, "🔧 Auto-fix: %s\n", res.FinalStatus)
	}
	if res.SummaryPath != "" {
		fmt.Fprintf(w, "📁 Summary: %s\n", res.SummaryPath)
	}
	if res.DeploymentReady {
		fmt.Fprintln(w, "🎉 Article is ready for deployment")
	} else {
		fmt.Fprintln(w, "🚨 Manual intervention required")
	}
}
