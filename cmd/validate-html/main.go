// Command validate-html checks one article HTML file for leftover shortcodes,
// Markdown syntax and broken structure. It exits 0 when the file is clean.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ikeike55momo/article-flow/internal/app"
	"github.com/ikeike55momo/article-flow/internal/validate"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate-html", flag.ContinueOnError)
	fs.SetOutput(stderr)
	verbose := fs.Bool("v", false, "Verbose logging")
	asJSON := fs.Bool("json", false, "Print the validation result as JSON")
	version := fs.Bool("version", false, "Print version and exit")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: validate-html [flags] <html_file>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *version {
		fmt.Fprintln(stdout, app.VersionString("validate-html"))
		return 0
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	path := fs.Arg(0)
	log := app.SetupLogging(stderr, *verbose)
	log.Debug().Str("file", path).Msg("validating")

	res, err := validate.ValidateFile(path)
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		_ = enc.Encode(res)
	} else {
		printReport(stdout, path, res)
	}
	if err != nil || !res.Success {
		return 1
	}
	return 0
}

func printReport(w io.Writer, path string, res validate.Result) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "📊 HTML VALIDATION REPORT")
	fmt.Fprintln(w, rule)
	if res.Error != "" {
		fmt.Fprintf(w, "❌ Error: %s\n", res.Error)
		return
	}
	fmt.Fprintf(w, "📁 File: %s\n", path)
	fmt.Fprintf(w, "📏 Size: %d bytes\n", res.FileSize)
	fmt.Fprintf(w, "🔢 Total issues: %d\n\n", res.TotalIssues)

	printFindings(w, "🚨 SHORTCODE DETECTIONS:", res.Shortcodes)
	printFindings(w, "🚨 MARKDOWN SYNTAX DETECTIONS:", res.Markdown)

	fmt.Fprintln(w, "🏗️  HTML STRUCTURE VALIDATION:")
	for _, k := range []string{validate.RequiredOpen, validate.RequiredClose, validate.SingleArticleDiv, validate.WellFormedTags} {
		status := "✅"
		if !res.HTMLStructure[k] {
			status = "❌"
		}
		fmt.Fprintf(w, "   %s %s\n", status, k)
	}
	for _, issue := range res.TagIssues {
		fmt.Fprintf(w, "   ⚠️  %s\n", issue)
	}
	fmt.Fprintln(w)

	if len(res.Recommendations) > 0 {
		fmt.Fprintln(w, "💡 RECOMMENDATIONS:")
		for _, rec := range res.Recommendations {
			msg, ok := validate.Messages[rec]
			if !ok {
				msg = rec
			}
			fmt.Fprintf(w, "   %s\n", msg)
		}
		fmt.Fprintln(w)
	}
	if res.Success {
		fmt.Fprintln(w, "✅ VALIDATION PASSED - HTML output is clean!")
	} else {
		fmt.Fprintln(w, "❌ VALIDATION FAILED - Issues detected!")
	}
}

func printFindings(w io.Writer, title string, found map[string][]string) {
	if len(found) == 0 {
		return
	}
	names := make([]string, 0, len(found))
	for n := range found {
		names = append(names, n)
	}
	sort.Strings(names)
	fmt.Fprintln(w, title)
	for _, n := range names {
		fmt.Fprintf(w, "   %s: %d occurrences\n", n, len(found[n]))
		for i, m := range found[n] {
			if i == 3 {
				fmt.Fprintf(w, "      ... and %d more\n", len(found[n])-3)
				break
			}
			fmt.Fprintf(w, "      - %s\n", m)
		}
	}
	fmt.Fprintln(w)
}
