package render

import (
	"strings"
	"testing"

	"github.com/ikeike55momo/article-flow/internal/validate"
)

const draft = "# 記事タイトル\n\n本文は **太字** と *斜体* と ~~取り消し~~ を含みます。\n\n## 手順\n\n1. 準備\n2. 実行\n\n- 項目\n- 項目\n\n> 引用\n\n---\n\n```go\nfmt.Println(\"**x**\")\n```\n\n[リンク](https://x.test/a)\n"

func TestMarkdown_WrapsAndTitles(t *testing.T) {
	a, err := Markdown(draft)
	if err != nil {
		t.Fatal(err)
	}
	if a.Title != "記事タイトル" {
		t.Fatalf("title %q", a.Title)
	}
	if !strings.HasPrefix(a.HTML, "<div class=\"article-content\">\n") || !strings.HasSuffix(a.HTML, "</div>\n") {
		t.Fatalf("wrapper missing: %s", a.HTML)
	}
	for _, want := range []string{"<strong>太字</strong>", "<em>斜体</em>", "<del>取り消し</del>", "<ol>", "<blockquote>", `<a href="https://x.test/a">`} {
		if !strings.Contains(a.HTML, want) {
			t.Fatalf("missing %s in %s", want, a.HTML)
		}
	}
}

func TestMarkdown_OutputValidates(t *testing.T) {
	a, err := Markdown(draft)
	if err != nil {
		t.Fatal(err)
	}
	res := validate.Validate(a.HTML)
	if !res.Success {
		t.Fatalf("rendered draft should validate: shortcodes=%v markdown=%v structure=%v issues=%v",
			res.Shortcodes, res.Markdown, res.HTMLStructure, res.TagIssues)
	}
}

func TestMarkdown_NoTitle(t *testing.T) {
	a, err := Markdown("plain text\n")
	if err != nil {
		t.Fatal(err)
	}
	if a.Title != "" || !strings.Contains(a.HTML, "<p>plain text</p>") {
		t.Fatalf("unexpected %+v", a)
	}
}
