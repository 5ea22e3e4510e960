// Package patterns holds the named detectors used to find shortcodes and
// Markdown constructs that leaked into LLM-authored HTML. Patterns are
// compiled once at package init and shared read-only.
package patterns

import (
	"regexp"
	"sort"
)

// Family groups patterns so reports can tell shortcode residue from Markdown residue.
type Family string

const (
	Shortcode Family = "shortcode"
	Markdown  Family = "markdown"
)

// Match is a single detector hit.
type Match struct {
	PatternName string `json:"pattern_name"`
	MatchedText string `json:"matched_text"`
	Position    int    `json:"position"`
}

// Pattern is a named, compiled matching rule. All patterns are
// case-insensitive and multiline.
type Pattern struct {
	Name   string
	Family Family
	Re     *regexp.Regexp
	// reject drops a regex hit that RE2 cannot exclude on its own
	// (lookbehind/lookahead in the original rule set).
	reject func(s string, start, end int) bool
}

// FindAll returns every non-rejected match of p in s, in document order.
func (p *Pattern) FindAll(s string) []Match {
	locs := p.Re.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return nil
	}
	out := make([]Match, 0, len(locs))
	for _, loc := range locs {
		if p.reject != nil && p.reject(s, loc[0], loc[1]) {
			continue
		}
		out = append(out, Match{PatternName: p.Name, MatchedText: s[loc[0]:loc[1]], Position: loc[0]})
	}
	return out
}

// MatchString reports whether p matches anywhere in s.
func (p *Pattern) MatchString(s string) bool {
	return len(p.FindAll(s)) > 0
}

var (
	// ShortcodeTag captures the name and raw attribute text of a bracket shortcode.
	ShortcodeTag = regexp.MustCompile(`\[([A-Za-z_][\w-]*)((?:\s+[^\]]*)?)\]`)
	// ShortcodeAttr captures key="value" pairs inside a shortcode.
	ShortcodeAttr = regexp.MustCompile(`([A-Za-z_][\w-]*)\s*=\s*"([^"]*)"`)
)

func compile(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?im)` + expr)
}

// adjacentStar rejects an emphasis hit glued to another asterisk, i.e. part of **bold**.
func adjacentStar(s string, start, end int) bool {
	if start > 0 && s[start-1] == '*' {
		return true
	}
	return end < len(s) && s[end] == '*'
}

var shortcodes = []*Pattern{
	{Name: "generic_shortcode", Re: compile(`\[[A-Za-z_][\w-]*(?:\s+[^\]]*)?\]`)},
	{Name: "blog_card", Re: compile(`\[blog_card\s+[^\]]*\]`)},
	{Name: "link_card", Re: compile(`\[link_card\s+[^\]]*\]`)},
	{Name: "video", Re: compile(`\[video\s+[^\]]*\]`)},
	{Name: "embed", Re: compile(`\[embed\s+[^\]]*\]`)},
	{Name: "gallery", Re: compile(`\[gallery\s+[^\]]*\]`)},
	{Name: "button", Re: compile(`\[button\s+[^\]]*\]`)},
}

var markdown = []*Pattern{
	{Name: "headers", Re: compile(`^[ \t]{0,3}#{1,6}[ \t]+.+$`)},
	{Name: "bullet_lists", Re: compile(`^[ \t]{0,3}[-*+][ \t]+.+$`)},
	{Name: "numbered_lists", Re: compile(`^[ \t]{0,3}\d+\.[ \t]+.+$`)},
	{Name: "code_fences", Re: compile("^```\\w*$")},
	{Name: "code_inline", Re: compile("`[^`]+`")},
	{Name: "markdown_links", Re: compile(`\[[^\]]+\]\([^)]+\)`)},
	{Name: "markdown_images", Re: compile(`!\[[^\]]*\]\([^)]+\)`)},
	{Name: "bold_markdown", Re: compile(`\*\*[^*]+\*\*`)},
	{Name: "italic_markdown", Re: compile(`\*[^*\s][^*]*[^*\s]\*`), reject: adjacentStar},
	{Name: "strikethrough", Re: compile(`~~[^~]+~~`)},
	{Name: "blockquotes", Re: compile(`^[ \t]{0,3}>[ \t]+.+$`)},
	{Name: "hr_markdown", Re: compile(`^[ \t]{0,3}(?:-[ \t]*-[ \t]*-[ \t-]*|\*[ \t]*\*[ \t]*\*[ \t*]*|_[ \t]*_[ \t]*_[ \t_]*)$`)},
}

var byName = map[string]*Pattern{}

func init() {
	for _, p := range shortcodes {
		p.Family = Shortcode
		register(p)
	}
	for _, p := range markdown {
		p.Family = Markdown
		register(p)
	}
}

func register(p *Pattern) {
	if _, dup := byName[p.Name]; dup {
		panic("patterns: duplicate pattern name " + p.Name)
	}
	byName[p.Name] = p
}

// Shortcodes returns the shortcode family in declaration order.
func Shortcodes() []*Pattern { return append([]*Pattern(nil), shortcodes...) }

// MarkdownPatterns returns the Markdown family in declaration order.
func MarkdownPatterns() []*Pattern { return append([]*Pattern(nil), markdown...) }

// Lookup returns the pattern registered under name.
func Lookup(name string) (*Pattern, bool) {
	p, ok := byName[name]
	return p, ok
}

// Names lists every registered pattern name, sorted.
func Names() []string {
	out := make([]string, 0, len(byName))
	for n := range byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Detect runs every pattern in set against s and returns the matched texts
// keyed by pattern name. Patterns without hits are omitted.
func Detect(s string, set []*Pattern) map[string][]string {
	out := map[string][]string{}
	for _, p := range set {
		ms := p.FindAll(s)
		if len(ms) == 0 {
			continue
		}
		texts := make([]string, 0, len(ms))
		for _, m := range ms {
			texts = append(texts, m.MatchedText)
		}
		out[p.Name] = texts
	}
	return out
}

// CountShortcodes counts generic bracket shortcodes in s.
func CountShortcodes(s string) int {
	p, _ := Lookup("generic_shortcode")
	return len(p.FindAll(s))
}
