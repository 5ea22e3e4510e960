package patterns

import "testing"

func TestNamesAreUniqueAcrossFamilies(t *testing.T) {
	seen := map[string]Family{}
	for _, p := range append(Shortcodes(), MarkdownPatterns()...) {
		if f, ok := seen[p.Name]; ok {
			t.Fatalf("pattern %q registered twice (%s and %s)", p.Name, f, p.Family)
		}
		seen[p.Name] = p.Family
	}
	if len(Names()) != len(seen) {
		t.Fatalf("Names() = %d entries, want %d", len(Names()), len(seen))
	}
}

func TestMarkdownDetectors(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want bool
	}{
		{"headers", "## Section", true},
		{"headers", "#hashtag", false},
		{"bullet_lists", "- item", true},
		{"numbered_lists", "1. first", true},
		{"numbered_lists", "version 1.2 is out", false},
		{"code_fences", "```go", true},
		{"code_inline", "use `go test` here", true},
		{"markdown_links", "see [docs](https://x.test)", true},
		{"markdown_images", "![alt](https://x.test/a.png)", true},
		{"bold_markdown", "this is **bold**", true},
		{"italic_markdown", "this is *soft* text", true},
		{"italic_markdown", "this is **bold** only", false},
		{"strikethrough", "~~gone~~", true},
		{"blockquotes", "> quoted", true},
		{"hr_markdown", "---", true},
		{"hr_markdown", "* * *", true},
		{"hr_markdown", "-*-", false},
	}
	for _, tc := range cases {
		p, ok := Lookup(tc.name)
		if !ok {
			t.Fatalf("missing pattern %q", tc.name)
		}
		if got := p.MatchString(tc.in); got != tc.want {
			t.Fatalf("%s(%q) = %v, want %v", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestDetectKeysByPatternName(t *testing.T) {
	got := Detect("[blog_card url=\"https://x.test/a\"]\n[gallery ids=\"1,2\"]", Shortcodes())
	if len(got["generic_shortcode"]) != 2 {
		t.Fatalf("generic_shortcode = %v", got["generic_shortcode"])
	}
	if len(got["blog_card"]) != 1 || len(got["gallery"]) != 1 {
		t.Fatalf("unexpected detections: %v", got)
	}
	if _, ok := got["video"]; ok {
		t.Fatalf("video should be absent when it has no hits")
	}
}

func TestFindAllPositions(t *testing.T) {
	p, _ := Lookup("bold_markdown")
	ms := p.FindAll("a **b** c **d**")
	if len(ms) != 2 || ms[0].Position != 2 || ms[1].Position != 10 {
		t.Fatalf("unexpected matches: %+v", ms)
	}
}
