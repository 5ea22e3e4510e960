package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"
)

// PlainText returns the visible text of an HTML document, one text node per
// line, NFC-normalized. Markup, attribute values and the contents of
// script, style, pre and code elements are dropped so that pattern scans do
// not fire on legitimate code samples or inline scripts.
//
// If the input cannot be parsed the raw input is returned unchanged.
func PlainText(content string) string {
	node, err := html.Parse(strings.NewReader(content))
	if err != nil || node == nil {
		return content
	}
	var parts []string
	collectText(node, &parts)
	return norm.NFC.String(strings.Join(parts, "\n"))
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Pre, atom.Code:
			return
		}
	}
	if n.Type == html.TextNode {
		if s := strings.TrimSpace(n.Data); s != "" {
			*parts = append(*parts, s)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

// findAll returns every element named tag in document order.
func findAll(n *html.Node, tag atom.Atom) []*html.Node {
	var out []*html.Node
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if cur.Type == html.ElementNode && cur.DataAtom == tag {
			out = append(out, cur)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
		}
	}
	dfs(n)
	return out
}

// OrderedListIssues reports <ol> elements that are empty or hold direct
// element children other than <li>.
func OrderedListIssues(content string) []string {
	node, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return []string{"html parsing error: " + err.Error()}
	}
	var issues []string
	for _, ol := range findAll(node, atom.Ol) {
		items := 0
		for c := ol.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if c.DataAtom == atom.Li {
				items++
				continue
			}
			issues = append(issues, "invalid child '"+c.Data+"' in <ol> tag")
		}
		if items == 0 {
			issues = append(issues, "empty <ol> tag found")
		}
	}
	return issues
}
