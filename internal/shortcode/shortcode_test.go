package shortcode

import (
	"strings"
	"testing"
)

func TestBlogCardConvertsToLinkCard(t *testing.T) {
	out, res := Default().Convert(`<div class="article-content">[blog_card url="https://x.test/a"]</div>`)
	if !strings.Contains(out, `<figure class="link-card">`) {
		t.Fatalf("missing link-card wrapper: %s", out)
	}
	if !strings.Contains(out, `<a href="https://x.test/a"`) {
		t.Fatalf("missing anchor with url: %s", out)
	}
	if !strings.Contains(out, "x.testの関連記事") {
		t.Fatalf("expected host-derived title: %s", out)
	}
	if res.BeforeCount != 1 || res.AfterCount != 0 || res.ConvertedCount != 1 {
		t.Fatalf("unexpected accounting %+v", res)
	}
}

func TestVideoConvertsToIframe(t *testing.T) {
	out, _ := Default().Convert(`[video url="https://x.test/v.mp4"]`)
	if !strings.Contains(out, `<figure class="video-embed">`) {
		t.Fatalf("missing video-embed wrapper: %s", out)
	}
	if !strings.Contains(out, `<iframe src="https://x.test/v.mp4"`) {
		t.Fatalf("missing iframe: %s", out)
	}
}

func TestLinkCardTitleDefaultAndOverride(t *testing.T) {
	out, _ := Default().Convert(`[link_card url="https://x.test/b"]`)
	if !strings.Contains(out, `<p class="link-card-title">関連記事</p>`) {
		t.Fatalf("expected default title: %s", out)
	}
	out, _ = Default().Convert(`[link_card url="https://x.test/b" title="Guide" rating="5"]`)
	if !strings.Contains(out, `<p class="link-card-title">Guide</p>`) {
		t.Fatalf("expected explicit title: %s", out)
	}
	if strings.Contains(out, "rating") {
		t.Fatalf("unknown attributes must be ignored: %s", out)
	}
}

func TestAttributeValuesAreEscaped(t *testing.T) {
	out, _ := Default().Convert(`[link_card url="https://x.test/?a=1&b=2" title="<b>x</b>"]`)
	if strings.Contains(out, "<b>x</b>") {
		t.Fatalf("title must be escaped: %s", out)
	}
	if !strings.Contains(out, "a=1&amp;b=2") {
		t.Fatalf("url ampersand must be escaped: %s", out)
	}
	out, _ = Default().Convert(`[embed url="javascript:alert(1)"]`)
	if strings.Contains(out, "javascript:") {
		t.Fatalf("unsafe url must be neutralized: %s", out)
	}
}

func TestEscapedAttributeValuesAreNotDoubleEscaped(t *testing.T) {
	out, _ := Default().Convert(`[blog_card url="https://x.test/?a=1&amp;b=2" title="A &amp; B"]`)
	if strings.Contains(out, "&amp;amp;") {
		t.Fatalf("entities escaped twice: %s", out)
	}
	if !strings.Contains(out, `href="https://x.test/?a=1&amp;b=2"`) {
		t.Fatalf("href should carry the decoded query once escaped: %s", out)
	}
	if !strings.Contains(out, `<p class="link-card-title">A &amp; B</p>`) {
		t.Fatalf("title should be escaped once: %s", out)
	}
}

func TestConvertIsIdempotent(t *testing.T) {
	c := Default()
	once, _ := c.Convert(`[blog_card url="https://x.test/a"] and [embed url="https://x.test/e"]`)
	twice, res := c.Convert(once)
	if twice != once {
		t.Fatalf("second pass changed content")
	}
	if res.ConvertedCount != 0 {
		t.Fatalf("second pass converted %d", res.ConvertedCount)
	}
}

func TestUnknownAndMalformedAreResidual(t *testing.T) {
	in := `[gallery ids="1,2"] [video src="https://x.test/v"]`
	out, res := Default().Convert(in)
	if out != in {
		t.Fatalf("content should be untouched, got %s", out)
	}
	if res.ConvertedCount != 0 || len(res.Residual) != 2 {
		t.Fatalf("unexpected accounting %+v", res)
	}
}

func TestShortcodesInsideCodeAreKept(t *testing.T) {
	in := `<pre><code>[video url="https://x.test/v"]</code></pre>`
	out, res := Default().Convert(in)
	if out != in || res.BeforeCount != 0 || res.ConvertedCount != 0 {
		t.Fatalf("verbatim shortcode must be left alone: %s %+v", out, res)
	}
}

func TestNewRejectsDuplicates(t *testing.T) {
	if _, err := New(Spec{TagName: "a", RenderTemplate: "x"}, Spec{TagName: "A", RenderTemplate: "y"}); err == nil {
		t.Fatalf("expected duplicate error")
	}
}
