// Command autofix-html asks an OpenAI-compatible model to repair one article
// HTML file in place. It exits 0 when the model returned a usable document.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ikeike55momo/article-flow/internal/app"
	"github.com/ikeike55momo/article-flow/internal/validate"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("autofix-html", flag.ContinueOnError)
	fs.SetOutput(stderr)
	flags := app.BindFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: autofix-html [flags] <html_file>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if flags.Version {
		fmt.Fprintln(stdout, app.VersionString("autofix-html"))
		return 0
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	cfg, err := flags.Resolve()
	if err == nil {
		err = app.ValidateConfig(cfg, false)
	}
	if err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return 2
	}
	path := fs.Arg(0)
	log := app.SetupLogging(stderr, cfg.Verbose)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "🔧 Auto-fixing HTML with LLM: %s\n", path)
	res := a.Fixer().FixFile(ctx, path)
	if !res.Success {
		fmt.Fprintf(stdout, "❌ Auto-fix failed (%s): %s\n", res.Reason, res.Message)
		return 1
	}
	if res.Cached {
		fmt.Fprintln(stdout, "♻️  Using cached model response")
	}
	if res.ChangesMade {
		fmt.Fprintf(stdout, "💾 File updated: %s\n", path)
	} else {
		fmt.Fprintln(stdout, "✅ Model returned the document unchanged")
	}
	if v, err := validate.ValidateFile(path); err == nil {
		if v.Success {
			fmt.Fprintln(stdout, "✅ Post-fix validation passed")
		} else {
			fmt.Fprintf(stdout, "⚠️  Post-fix validation found %d issues\n", v.TotalIssues)
		}
	}
	return 0
}
