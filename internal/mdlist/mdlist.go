// Package mdlist turns runs of Markdown numbered-list lines left in HTML
// into <ol> blocks.
package mdlist

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html/atom"

	"github.com/ikeike55momo/article-flow/internal/extract"
)

var lineRe = regexp.MustCompile(`^\s*(\d+)\.\s+(.+)$`)

// MinRun is the smallest number of consecutive numbered lines treated as a
// list. A lone "1. foo" reads as prose and is left alone.
const MinRun = 2

// Item is one numbered line.
type Item struct {
	LineNumber int
	Number     int
	Text       string
}

// Block is a run of consecutive numbered lines.
type Block struct {
	Items []Item
	// Start and End are byte offsets of the run in the scanned content,
	// End excluding the trailing newline.
	Start int
	End   int
}

// Detect returns every run of at least MinRun consecutive numbered lines.
func Detect(content string) []Block {
	var (
		blocks  []Block
		current Block
		offset  int
	)
	flush := func() {
		if len(current.Items) >= MinRun {
			blocks = append(blocks, current)
		}
		current = Block{}
	}
	for i, line := range strings.Split(content, "\n") {
		m := lineRe.FindStringSubmatch(line)
		if m == nil {
			flush()
			offset += len(line) + 1
			continue
		}
		n, _ := strconv.Atoi(m[1])
		if len(current.Items) == 0 {
			current.Start = offset
		}
		current.Items = append(current.Items, Item{LineNumber: i + 1, Number: n, Text: strings.TrimSpace(m[2])})
		current.End = offset + len(line)
		offset += len(line) + 1
	}
	flush()
	return blocks
}

// ItemCount sums the items across blocks.
func ItemCount(blocks []Block) int {
	n := 0
	for _, b := range blocks {
		n += len(b.Items)
	}
	return n
}

// Result is the accounting for one conversion pass. Counts are in blocks.
type Result struct {
	BeforeCount    int `json:"before_count"`
	AfterCount     int `json:"after_count"`
	ConvertedCount int `json:"converted_count"`
	ItemsBefore    int `json:"items_before"`
	ItemsAfter     int `json:"items_after"`
	// Skipped counts blocks left alone because they sit in verbatim or list markup.
	Skipped int `json:"skipped"`
	// Warnings lists <ol> structure problems found after conversion.
	Warnings []string `json:"warnings,omitempty"`
}

// Protected lists the elements whose contents are never converted.
var Protected = []atom.Atom{atom.Pre, atom.Code, atom.Ol, atom.Script, atom.Style, atom.Textarea}

// Convert replaces each detected block outside Protected elements with an
// <ol> list. Blocks are rewritten back to front so earlier offsets stay valid.
func Convert(content string) (string, Result) {
	blocks := Detect(content)
	res := Result{BeforeCount: len(blocks), ItemsBefore: ItemCount(blocks)}
	if len(blocks) == 0 {
		return content, res
	}
	protected := extract.VerbatimRanges(content, Protected...)
	out := content
	for i := len(blocks) - 1; i >= 0; i-- {
		b := blocks[i]
		if extract.Overlaps(protected, b.Start, b.End) {
			res.Skipped++
			continue
		}
		out = out[:b.Start] + Render(b) + out[b.End:]
		res.ConvertedCount++
	}
	after := Detect(out)
	res.AfterCount = len(after)
	res.ItemsAfter = ItemCount(after)
	if res.ConvertedCount > 0 {
		res.Warnings = extract.OrderedListIssues(out)
	}
	return out, res
}

var itemEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// Render formats a block as an <ol> element, escaping < and > in item text.
func Render(b Block) string {
	var sb strings.Builder
	sb.WriteString("<ol>\n")
	for _, it := range b.Items {
		sb.WriteString("  <li>")
		sb.WriteString(itemEscaper.Replace(it.Text))
		sb.WriteString("</li>\n")
	}
	sb.WriteString("</ol>")
	return sb.String()
}
