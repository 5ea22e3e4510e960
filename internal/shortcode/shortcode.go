// Package shortcode rewrites bracket shortcodes such as
// [blog_card url="..."] into the fixed HTML fragments the article template
// expects. Unknown shortcodes and shortcodes missing a required attribute
// are left in place and reported as residue.
package shortcode

import (
	"fmt"
	"html"
	"html/template"
	"net/url"
	"strings"

	"github.com/ikeike55momo/article-flow/internal/extract"
	"github.com/ikeike55momo/article-flow/internal/patterns"
)

// Spec maps a shortcode name to its HTML replacement.
type Spec struct {
	TagName       string
	RequiredAttrs []string
	OptionalAttrs []string
	// Defaults supplies values for missing optional attributes.
	Defaults map[string]string
	// Derive may fill attributes computed from others before rendering.
	Derive func(attrs map[string]string)
	// RenderTemplate is an html/template source executed with the attribute
	// map, so substituted values are escaped for their HTML context.
	RenderTemplate string
}

const linkCardTemplate = `<figure class="link-card">
  <a href="{{.url}}" target="_blank" rel="noopener">
    <div class="link-card-content">
      <p class="link-card-title">{{.title}}</p>
      <p class="link-card-url">{{.url}}</p>
    </div>
  </a>
</figure>`

const defaultLinkTitle = "関連記事"

// DefaultSpecs returns the shortcodes the article generator is known to emit.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			TagName:        "blog_card",
			RequiredAttrs:  []string{"url"},
			OptionalAttrs:  []string{"title"},
			Derive:         deriveBlogCardTitle,
			RenderTemplate: linkCardTemplate,
		},
		{
			TagName:        "link_card",
			RequiredAttrs:  []string{"url"},
			OptionalAttrs:  []string{"title"},
			Defaults:       map[string]string{"title": defaultLinkTitle},
			RenderTemplate: linkCardTemplate,
		},
		{
			TagName:       "video",
			RequiredAttrs: []string{"url"},
			RenderTemplate: `<figure class="video-embed">
  <iframe src="{{.url}}" frameborder="0" allowfullscreen loading="lazy"></iframe>
  <figcaption>動画コンテンツ</figcaption>
</figure>`,
		},
		{
			TagName:       "embed",
			RequiredAttrs: []string{"url"},
			RenderTemplate: `<figure class="embed-content">
  <iframe src="{{.url}}" frameborder="0" loading="lazy"></iframe>
  <figcaption>埋め込みコンテンツ</figcaption>
</figure>`,
		},
	}
}

// deriveBlogCardTitle titles a blog card after the linked host.
func deriveBlogCardTitle(attrs map[string]string) {
	if attrs["title"] != "" {
		return
	}
	attrs["title"] = defaultLinkTitle
	if u, err := url.Parse(attrs["url"]); err == nil && u.Host != "" {
		attrs["title"] = u.Host + "の" + defaultLinkTitle
	}
}

type compiled struct {
	spec  Spec
	known map[string]bool
	tmpl  *template.Template
}

// Converter applies a fixed set of Specs. It is safe for concurrent use.
type Converter struct {
	specs map[string]*compiled
}

// New compiles specs. Tag names are matched case-insensitively.
func New(specs ...Spec) (*Converter, error) {
	c := &Converter{specs: make(map[string]*compiled, len(specs))}
	for _, s := range specs {
		name := strings.ToLower(s.TagName)
		if name == "" {
			return nil, fmt.Errorf("shortcode: empty tag name")
		}
		if _, dup := c.specs[name]; dup {
			return nil, fmt.Errorf("shortcode: duplicate spec %q", name)
		}
		t, err := template.New(name).Option("missingkey=zero").Parse(s.RenderTemplate)
		if err != nil {
			return nil, fmt.Errorf("shortcode %q: parse template: %w", name, err)
		}
		known := map[string]bool{}
		for _, a := range append(append([]string{}, s.RequiredAttrs...), s.OptionalAttrs...) {
			known[strings.ToLower(a)] = true
		}
		c.specs[name] = &compiled{spec: s, known: known, tmpl: t}
	}
	return c, nil
}

// Default returns a Converter for DefaultSpecs.
func Default() *Converter {
	c, err := New(DefaultSpecs()...)
	if err != nil {
		panic(err)
	}
	return c
}

// Result is the accounting for one conversion pass.
type Result struct {
	BeforeCount    int `json:"before_count"`
	AfterCount     int `json:"after_count"`
	ConvertedCount int `json:"converted_count"`
	// Residual lists shortcodes still present outside verbatim regions.
	Residual []string `json:"residual,omitempty"`
}

// Convert replaces every recognized shortcode outside pre/code/script/style
// regions and returns the new content with its accounting.
func (c *Converter) Convert(content string) (string, Result) {
	before := Detect(content)
	verbatim := extract.VerbatimRanges(content)

	var b strings.Builder
	converted := 0
	last := 0
	for _, m := range patterns.ShortcodeTag.FindAllStringSubmatchIndex(content, -1) {
		start, end := m[0], m[1]
		if extract.Overlaps(verbatim, start, end) {
			continue
		}
		name := strings.ToLower(content[m[2]:m[3]])
		html, ok := c.render(name, content[m[4]:m[5]])
		if !ok {
			continue
		}
		b.WriteString(content[last:start])
		b.WriteString(html)
		last = end
		converted++
	}
	b.WriteString(content[last:])
	out := b.String()

	after := Detect(out)
	return out, Result{
		BeforeCount:    len(before),
		AfterCount:     len(after),
		ConvertedCount: converted,
		Residual:       after,
	}
}

func (c *Converter) render(name, rawAttrs string) (string, bool) {
	cs, ok := c.specs[name]
	if !ok {
		return "", false
	}
	attrs := map[string]string{}
	for _, kv := range patterns.ShortcodeAttr.FindAllStringSubmatch(rawAttrs, -1) {
		key := strings.ToLower(kv[1])
		if !cs.known[key] {
			continue
		}
		// Values sit in HTML text, so entities are decoded once before the
		// template re-escapes them.
		if _, seen := attrs[key]; !seen {
			attrs[key] = html.UnescapeString(kv[2])
		}
	}
	for _, req := range cs.spec.RequiredAttrs {
		if strings.TrimSpace(attrs[strings.ToLower(req)]) == "" {
			return "", false
		}
	}
	for k, v := range cs.spec.Defaults {
		if attrs[k] == "" {
			attrs[k] = v
		}
	}
	if cs.spec.Derive != nil {
		cs.spec.Derive(attrs)
	}
	var b strings.Builder
	if err := cs.tmpl.Execute(&b, attrs); err != nil {
		return "", false
	}
	return b.String(), true
}

// Detect lists bracket shortcodes found outside verbatim regions, in
// document order.
func Detect(content string) []string {
	p, _ := patterns.Lookup("generic_shortcode")
	verbatim := extract.VerbatimRanges(content)
	var out []string
	for _, m := range p.FindAll(content) {
		if extract.Overlaps(verbatim, m.Position, m.Position+len(m.MatchedText)) {
			continue
		}
		out = append(out, m.MatchedText)
	}
	return out
}
