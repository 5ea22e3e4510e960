// Command render-article renders a Markdown article draft into the
// article-content HTML document the pipeline consumes.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ikeike55momo/article-flow/internal/app"
	"github.com/ikeike55momo/article-flow/internal/document"
	"github.com/ikeike55momo/article-flow/internal/render"
	"github.com/ikeike55momo/article-flow/internal/validate"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("render-article", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var cfg app.Config
	fs.StringVar(&cfg.ArticleID, "article", "", "Article id; output goes to <output>/<id>/final_article.html")
	fs.StringVar(&cfg.OutputDir, "output", app.DefaultOutputDir, "Output root directory")
	fs.StringVar(&cfg.HTMLPath, "html", "", "Explicit output path, overrides -article/-output")
	verbose := fs.Bool("v", false, "Verbose logging")
	version := fs.Bool("version", false, "Print version and exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: render-article [-article id | -html path] <draft.md>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *version {
		fmt.Fprintln(stdout, app.VersionString("render-article"))
		return 0
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	if err := app.ValidateConfig(cfg, true); err != nil {
		fmt.Fprintf(stderr, "❌ %v\n", err)
		return 2
	}
	draft := fs.Arg(0)
	log := app.SetupLogging(stderr, *verbose)

	md, err := document.Load(draft)
	if err != nil {
		fmt.Fprintf(stdout, "❌ Failed to read draft: %v\n", err)
		return 1
	}
	article, err := render.Markdown(md)
	if err != nil {
		fmt.Fprintf(stdout, "❌ %v\n", err)
		return 1
	}
	out := cfg.ArticleHTMLPath()
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		fmt.Fprintf(stdout, "❌ %v\n", err)
		return 1
	}
	if err := document.Save(out, article.HTML); err != nil {
		fmt.Fprintf(stdout, "❌ Failed to write file: %v\n", err)
		return 1
	}
	log.Debug().Str("draft", draft).Str("html", out).Int("bytes", len(article.HTML)).Msg("rendered")
	if strings.TrimSpace(article.Title) != "" {
		fmt.Fprintf(stdout, "📰 Title: %s\n", article.Title)
	}
	fmt.Fprintf(stdout, "💾 HTML written: %s\n", out)

	if res := validate.Validate(article.HTML); res.Success {
		fmt.Fprintln(stdout, "✅ Rendered HTML passes validation")
	} else {
		fmt.Fprintf(stdout, "⚠️  Rendered HTML has %d issues; run htmlpipeline to converge it\n", res.TotalIssues)
	}
	return 0
}
