// Package validate decides whether an article HTML document is ready to
// publish: no leftover shortcodes or Markdown in the visible text, exactly one
// article-content wrapper, and balanced, properly nested block tags.
package validate

import (
	"os"
	"regexp"
	"strconv"

	"github.com/ikeike55momo/article-flow/internal/document"
	"github.com/ikeike55momo/article-flow/internal/extract"
	"github.com/ikeike55momo/article-flow/internal/patterns"
)

// Structure result keys.
const (
	RequiredOpen     = "required_structure_1"
	RequiredClose    = "required_structure_2"
	SingleArticleDiv = "single_article_content_div"
	WellFormedTags   = "well_formed_tags"
)

// Recommendation codes, derived only from which finding categories are non-empty.
const (
	RecShortcodeConversion = "shortcode_conversion"
	RecShortcodeExamples   = "strengthen_prompt_shortcode_examples"
	RecListConversion      = "markdown_lists_conversion"
	RecLLMRewrite          = "llm_rewrite"
	RecSystemPrompt        = "strengthen_system_prompt"
	RecFixArticleDiv       = "fix_article_content_div"
	RecFixTagBalance       = "fix_tag_balance"
)

// Messages holds the console text for each recommendation code.
var Messages = map[string]string{
	RecShortcodeConversion: "🔧 ショートコード変換スクリプトの実行を推奨",
	RecShortcodeExamples:   "📝 システムプロンプトにショートコード変換例を追加",
	RecListConversion:      "🔢 番号付きリスト変換スクリプトの実行を推奨",
	RecLLMRewrite:          "🚨 LLMによる自動リライトが必要",
	RecSystemPrompt:        "💡 システムプロンプトの強化を検討",
	RecFixArticleDiv:       "🏗️  article-content divの重複または不足を修正",
	RecFixTagBalance:       "🔗 HTMLタグの開始・終了バランスを修正",
}

// BlockTags are the elements whose start and end tag counts must agree.
var BlockTags = []string{"div", "section", "article", "figure", "p", "h1", "h2", "h3", "h4", "h5", "h6"}

var (
	articleOpenRe = regexp.MustCompile(`<div\s+class="article-content"[^>]*>`)
	divCloseRe    = regexp.MustCompile(`</div>`)
	articleDivRe  = regexp.MustCompile(`<div\s+class="article-content"`)
)

// Result is the outcome of validating one document.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	// Shortcodes and Markdown map pattern names to matched texts.
	Shortcodes      map[string][]string `json:"shortcodes"`
	Markdown        map[string][]string `json:"markdown"`
	HTMLStructure   map[string]bool     `json:"html_structure"`
	TagIssues       []string            `json:"tag_issues,omitempty"`
	Recommendations []string            `json:"recommendations"`
	FileSize        int64               `json:"file_size"`
	TotalIssues     int                 `json:"total_issues"`
}

// Issues flattens the findings into one line per problem, for stage reports.
func (r Result) Issues() []string {
	var out []string
	if r.Error != "" {
		out = append(out, r.Error)
	}
	for _, name := range patterns.Names() {
		if ms, ok := r.Shortcodes[name]; ok {
			out = append(out, "shortcode "+name+": "+strconv.Itoa(len(ms))+" occurrences")
		}
		if ms, ok := r.Markdown[name]; ok {
			out = append(out, "markdown "+name+": "+strconv.Itoa(len(ms))+" occurrences")
		}
	}
	for _, k := range []string{RequiredOpen, RequiredClose, SingleArticleDiv, WellFormedTags} {
		if ok, present := r.HTMLStructure[k]; present && !ok {
			out = append(out, "structure check failed: "+k)
		}
	}
	out = append(out, r.TagIssues...)
	return out
}

// Validate checks content. It never fails; problems are findings.
func Validate(content string) Result {
	text := extract.PlainText(content)
	shortcodes := patterns.Detect(text, patterns.Shortcodes())
	markdown := patterns.Detect(text, patterns.MarkdownPatterns())
	structure, tagIssues := checkStructure(content)

	failed := 0
	for _, ok := range structure {
		if !ok {
			failed++
		}
	}
	return Result{
		Success:         len(shortcodes) == 0 && len(markdown) == 0 && failed == 0,
		Shortcodes:      shortcodes,
		Markdown:        markdown,
		HTMLStructure:   structure,
		TagIssues:       tagIssues,
		Recommendations: recommend(shortcodes, markdown, structure),
		FileSize:        int64(len(content)),
		TotalIssues:     len(shortcodes) + len(markdown) + failed,
	}
}

// ValidateFile loads and validates path. The error is non-nil only for input
// errors (document.ErrNotFound, document.ErrNotUTF8 or a read failure); the
// returned Result then carries the message with Success false.
func ValidateFile(path string) (Result, error) {
	content, err := document.Load(path)
	if err != nil {
		return Result{
			Error:           err.Error(),
			Shortcodes:      map[string][]string{},
			Markdown:        map[string][]string{},
			HTMLStructure:   map[string]bool{},
			Recommendations: []string{},
		}, err
	}
	res := Validate(content)
	if info, err := os.Stat(path); err == nil {
		res.FileSize = info.Size()
	}
	return res, nil
}

// checkStructure runs the structural checks on raw HTML.
func checkStructure(content string) (map[string]bool, []string) {
	scan := extract.ScanTags(content)
	unbalanced := scan.Unbalanced(BlockTags...)
	issues := append(append([]string{}, unbalanced...), scan.Issues...)
	return map[string]bool{
		RequiredOpen:     articleOpenRe.MatchString(content),
		RequiredClose:    divCloseRe.MatchString(content),
		SingleArticleDiv: len(articleDivRe.FindAllStringIndex(content, -1)) == 1,
		WellFormedTags:   len(issues) == 0,
	}, issues
}

func recommend(shortcodes, markdown map[string][]string, structure map[string]bool) []string {
	out := []string{}
	if len(shortcodes) > 0 {
		out = append(out, RecShortcodeConversion, RecShortcodeExamples)
	}
	if _, ok := markdown["numbered_lists"]; ok {
		out = append(out, RecListConversion)
	}
	if len(markdown) > 0 {
		out = append(out, RecLLMRewrite, RecSystemPrompt)
	}
	if ok, present := structure[SingleArticleDiv]; present && !ok {
		out = append(out, RecFixArticleDiv)
	}
	if ok, present := structure[WellFormedTags]; present && !ok {
		out = append(out, RecFixTagBalance)
	}
	return out
}
