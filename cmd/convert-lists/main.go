// Command convert-lists rewrites runs of Markdown numbered lines in an article
// HTML file into <ol> lists, in place.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ikeike55momo/article-flow/internal/app"
	"github.com/ikeike55momo/article-flow/internal/document"
	"github.com/ikeike55momo/article-flow/internal/mdlist"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("convert-lists", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "Verbose logging")
	dryRun := fs.Bool("dry-run", false, "Report conversions without writing the file")
	version := fs.Bool("version", false, "Print version and exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: convert-lists [flags] <html_file>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *version {
		fmt.Fprintln(stdout, app.VersionString("convert-lists"))
		return 0
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	path := fs.Arg(0)
	log := app.SetupLogging(stderr, *verbose)

	fmt.Fprintf(stdout, "🔄 Converting Markdown numbered lists to HTML in: %s\n", path)
	content, err := document.Load(path)
	if err != nil {
		fmt.Fprintf(stdout, "❌ Failed to read file: %v\n", err)
		return 1
	}

	blocks := mdlist.Detect(content)
	fmt.Fprintf(stdout, "📝 Detected numbered list blocks before conversion: %d\n", len(blocks))
	fmt.Fprintf(stdout, "📝 Total numbered list items: %d\n", mdlist.ItemCount(blocks))
	if len(blocks) > 0 {
		fmt.Fprintln(stdout, "📝 Example items:")
		shown := 0
		for _, b := range blocks {
			for _, it := range b.Items {
				if shown == 3 {
					break
				}
				fmt.Fprintf(stdout, "   - %d. %s\n", it.Number, preview(it.Text, 50))
				shown++
			}
		}
	}

	out, res := mdlist.Convert(content)
	log.Debug().Int("converted", res.ConvertedCount).Int("skipped", res.Skipped).Msg("list conversion")
	if res.ConvertedCount == 0 {
		fmt.Fprintln(stdout, "✅ No numbered lists detected or conversion needed")
		return 0
	}
	fmt.Fprintf(stdout, "✅ Converted %d numbered list blocks to HTML\n", res.ConvertedCount)
	fmt.Fprintf(stdout, "✅ Remaining Markdown lists: %d blocks (%d items)\n", res.AfterCount, res.ItemsAfter)
	if len(res.Warnings) > 0 {
		fmt.Fprintln(stdout, "⚠️  HTML structure warnings:")
		for _, w := range res.Warnings {
			fmt.Fprintf(stdout, "   - %s\n", w)
		}
	} else {
		fmt.Fprintln(stdout, "✅ HTML structure validation passed")
	}
	if res.ItemsBefore > 0 {
		rate := float64(res.ItemsBefore-res.ItemsAfter) / float64(res.ItemsBefore) * 100
		fmt.Fprintf(stdout, "📊 Conversion effectiveness: %.1f%% of items converted\n", rate)
	}
	if *dryRun {
		return 0
	}
	if err := document.Save(path, out); err != nil {
		fmt.Fprintf(stdout, "❌ Failed to write file: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "💾 File updated: %s\n", path)
	return 0
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
