// Package render turns a Markdown article draft into the article-content
// HTML fragment the convergence pipeline validates.
package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

var engine = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

var titleRe = regexp.MustCompile(`(?m)^#[ \t]+(.+?)[ \t]*#*[ \t]*$`)

// Article is a rendered draft.
type Article struct {
	Title string
	HTML  string
}

// Markdown renders md inside <div class="article-content">. The first level-1
// heading becomes the title; it stays in the body.
func Markdown(md string) (Article, error) {
	var buf bytes.Buffer
	if err := engine.Convert([]byte(md), &buf); err != nil {
		return Article{}, fmt.Errorf("render markdown: %w", err)
	}
	var a Article
	if m := titleRe.FindStringSubmatch(md); m != nil {
		a.Title = strings.TrimSpace(m[1])
	}
	var out strings.Builder
	out.WriteString("<div class=\"article-content\">\n")
	out.WriteString(buf.String())
	if !strings.HasSuffix(buf.String(), "\n") {
		out.WriteString("\n")
	}
	out.WriteString("</div>\n")
	a.HTML = out.String()
	return a, nil
}
