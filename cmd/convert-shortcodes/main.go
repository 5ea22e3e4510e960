// Command convert-shortcodes rewrites bracket shortcodes in an article HTML
// file into their HTML fragments, in place.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ikeike55momo/article-flow/internal/app"
	"github.com/ikeike55momo/article-flow/internal/document"
	"github.com/ikeike55momo/article-flow/internal/shortcode"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("convert-shortcodes", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "Verbose logging")
	dryRun := fs.Bool("dry-run", false, "Report conversions without writing the file")
	version := fs.Bool("version", false, "Print version and exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: convert-shortcodes [flags] <html_file>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *version {
		fmt.Fprintln(stdout, app.VersionString("convert-shortcodes"))
		return 0
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	path := fs.Arg(0)
	log := app.SetupLogging(stderr, *verbose)

	fmt.Fprintf(stdout, "🔄 Converting shortcodes in: %s\n", path)
	content, err := document.Load(path)
	if err != nil {
		fmt.Fprintf(stdout, "❌ Failed to read file: %v\n", err)
		return 1
	}

	before := shortcode.Detect(content)
	if len(before) == 0 {
		fmt.Fprintln(stdout, "✅ No shortcodes detected")
		return 0
	}
	fmt.Fprintf(stdout, "📝 Detected shortcodes before conversion: %d\n", len(before))
	for _, sc := range before {
		fmt.Fprintf(stdout, "   - %s\n", sc)
	}

	out, res := shortcode.Default().Convert(content)
	log.Debug().Int("before", res.BeforeCount).Int("after", res.AfterCount).Int("converted", res.ConvertedCount).Msg("shortcode conversion")
	if res.AfterCount == 0 {
		fmt.Fprintln(stdout, "✅ All shortcodes converted successfully")
	} else {
		fmt.Fprintf(stdout, "⚠️  Remaining shortcodes after conversion: %d\n", res.AfterCount)
		for _, sc := range res.Residual {
			fmt.Fprintf(stdout, "   - %s\n", sc)
		}
	}
	if res.ConvertedCount == 0 || *dryRun {
		return 0
	}
	if err := document.Save(path, out); err != nil {
		fmt.Fprintf(stdout, "❌ Failed to write file: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "💾 File updated: %s\n", path)
	return 0
}
