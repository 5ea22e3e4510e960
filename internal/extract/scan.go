package extract

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Range is a half-open byte interval [Start, End) into the scanned content.
type Range struct {
	Start int
	End   int
}

// DefaultVerbatim lists the elements whose contents must never be rewritten.
var DefaultVerbatim = []atom.Atom{atom.Pre, atom.Code, atom.Script, atom.Style, atom.Textarea}

type token struct {
	typ   html.TokenType
	name  string
	atom  atom.Atom
	start int
	end   int
}

// tokens walks content with the x/net/html tokenizer and records byte
// offsets for each token. The tokenizer's Raw slices tile the input, so the
// running sum of their lengths is the offset into content.
func tokens(content string) []token {
	z := html.NewTokenizer(strings.NewReader(content))
	var out []token
	offset := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF, or a read error that a strings.Reader never produces.
			return out
		}
		raw := len(z.Raw())
		tk := token{typ: tt, start: offset, end: offset + raw}
		if tt == html.StartTagToken || tt == html.EndTagToken || tt == html.SelfClosingTagToken {
			name, _ := z.TagName()
			tk.name = string(name)
			tk.atom = atom.Lookup(name)
		}
		out = append(out, tk)
		offset += raw
	}
}

// VerbatimRanges returns the byte ranges covered by the outermost elements
// named in tags, from the start of the opening tag through the end of the
// matching closing tag. An element left open runs to the end of content.
func VerbatimRanges(content string, tags ...atom.Atom) []Range {
	if len(tags) == 0 {
		tags = DefaultVerbatim
	}
	set := make(map[atom.Atom]bool, len(tags))
	for _, t := range tags {
		set[t] = true
	}
	var (
		out   []Range
		depth = map[atom.Atom]int{}
		total int
		start int
	)
	for _, tk := range tokens(content) {
		if tk.atom == 0 || !set[tk.atom] {
			continue
		}
		switch tk.typ {
		case html.StartTagToken:
			if total == 0 {
				start = tk.start
			}
			depth[tk.atom]++
			total++
		case html.EndTagToken:
			if depth[tk.atom] == 0 {
				continue
			}
			depth[tk.atom]--
			total--
			if total == 0 {
				out = append(out, Range{Start: start, End: tk.end})
			}
		}
	}
	if total > 0 {
		out = append(out, Range{Start: start, End: len(content)})
	}
	return out
}

// Overlaps reports whether [start, end) intersects any range.
func Overlaps(ranges []Range, start, end int) bool {
	for _, r := range ranges {
		if start < r.End && r.Start < end {
			return true
		}
	}
	return false
}

var voidElements = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true, atom.Embed: true,
	atom.Hr: true, atom.Img: true, atom.Input: true, atom.Link: true, atom.Meta: true,
	atom.Param: true, atom.Source: true, atom.Track: true, atom.Wbr: true,
}

// optionalEnd elements may be closed implicitly by their parent's end tag.
var optionalEnd = map[atom.Atom]bool{
	atom.Html: true, atom.Head: true, atom.Body: true, atom.Li: true, atom.Dt: true,
	atom.Dd: true, atom.Option: true, atom.Optgroup: true, atom.Tr: true, atom.Td: true,
	atom.Th: true, atom.Thead: true, atom.Tbody: true, atom.Tfoot: true,
	atom.Colgroup: true, atom.Caption: true, atom.Rb: true, atom.Rt: true,
	atom.Rtc: true, atom.Rp: true,
}

// TagScan summarizes tag usage in a document.
type TagScan struct {
	// Open and Close count start and end tags by lower-case name.
	// Self-closing syntax (<div/>) is counted in neither.
	Open  map[string]int
	Close map[string]int
	// Issues lists nesting problems in document order.
	Issues []string
}

// ScanTags tokenizes content, counts start/end tags and checks that end tags
// close the element opened most recently. Void elements and elements with
// optional end tags are tolerated.
func ScanTags(content string) TagScan {
	scan := TagScan{Open: map[string]int{}, Close: map[string]int{}}
	type open struct {
		name string
		atom atom.Atom
	}
	var stack []open
	for _, tk := range tokens(content) {
		switch tk.typ {
		case html.StartTagToken:
			scan.Open[tk.name]++
			if voidElements[tk.atom] {
				continue
			}
			stack = append(stack, open{name: tk.name, atom: tk.atom})
		case html.EndTagToken:
			scan.Close[tk.name]++
			if voidElements[tk.atom] {
				continue
			}
			idx := -1
			for i := len(stack) - 1; i >= 0; i-- {
				if stack[i].name == tk.name {
					idx = i
					break
				}
			}
			if idx < 0 {
				scan.Issues = append(scan.Issues, fmt.Sprintf("unmatched </%s> at byte %d", tk.name, tk.start))
				continue
			}
			for i := len(stack) - 1; i > idx; i-- {
				if !optionalEnd[stack[i].atom] {
					scan.Issues = append(scan.Issues, fmt.Sprintf("</%s> at byte %d closes while <%s> is still open", tk.name, tk.start, stack[i].name))
				}
			}
			stack = stack[:idx]
		}
	}
	for _, o := range stack {
		if !optionalEnd[o.atom] {
			scan.Issues = append(scan.Issues, fmt.Sprintf("unclosed <%s>", o.name))
		}
	}
	return scan
}

// Unbalanced returns the tags among names whose start and end counts differ,
// sorted, each formatted as "<tag> opens:N closes:M".
func (s TagScan) Unbalanced(names ...string) []string {
	var out []string
	for _, n := range names {
		if s.Open[n] != s.Close[n] {
			out = append(out, fmt.Sprintf("<%s> opens:%d closes:%d", n, s.Open[n], s.Close[n]))
		}
	}
	sort.Strings(out)
	return out
}
