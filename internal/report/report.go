// Package report builds and persists the JSON stage reports written by the
// HTML convergence pipeline, one write-once file per stage plus a rollup.
package report

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ikeike55momo/article-flow/internal/document"
	"github.com/ikeike55momo/article-flow/internal/mdlist"
	"github.com/ikeike55momo/article-flow/internal/shortcode"
	"github.com/ikeike55momo/article-flow/internal/validate"
)

// Step describes one fixed pipeline stage.
type Step struct {
	Number int
	Type   string
	Name   string
	File   string
}

// Steps lists the six stages in execution order.
var Steps = []Step{
	{1, "initial_validation", "Initial HTML Validation", "report1_initial.json"},
	{2, "shortcode_conversion", "Shortcode Auto-Conversion", "report2_shortcode.json"},
	{3, "markdown_lists_conversion", "Markdown Lists Auto-Conversion", "report3_markdown_lists.json"},
	{4, "post_conversion_validation", "Post-Conversion Validation", "report4_post_conversion.json"},
	{5, "api_auto_fix", "LLM Auto-Fix", "report5_api_fix.json"},
	{6, "final_validation", "Final Strict Validation", "report6_final.json"},
}

// SummaryFile is the rollup written after the last stage.
const SummaryFile = "report_summary.json"

// Stage statuses.
const (
	StatusCompleted = "completed"
	StatusError     = "error"
)

// Final statuses of the auto-fix stage.
const (
	FinalNotNeeded  = "not_needed"
	FinalFixed      = "fixed"
	FinalPartialFix = "partial_fix"
	FinalFixFailed  = "fix_failed"
)

// Final stage recommendations.
const (
	RecReadyForDeployment = "ready_for_deployment"
	RecManualIntervention = "manual_intervention_required"
	RecDetailedDebugging  = "detailed_debugging_needed"
)

// StepByNumber returns the Step numbered n.
func StepByNumber(n int) (Step, bool) {
	for _, s := range Steps {
		if s.Number == n {
			return s, true
		}
	}
	return Step{}, false
}

// QuickChecks are cheap text-level checks recorded in every report, even
// when the full validator cannot run.
type QuickChecks struct {
	ContentLength         int    `json:"content_length"`
	LineCount             int    `json:"line_count"`
	HasArticleContentDiv  bool   `json:"has_article_content_div"`
	EndsWithClosingDiv    bool   `json:"ends_with_closing_div"`
	ContainsMarkdownLists bool   `json:"contains_markdown_lists"`
	Error                 string `json:"error,omitempty"`
}

// MarshalJSON emits only the error when the checks could not run.
func (q QuickChecks) MarshalJSON() ([]byte, error) {
	if q.Error != "" {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{q.Error})
	}
	type plain QuickChecks
	return json.Marshal(plain(q))
}

var markdownListRe = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)

// Quick runs the quick checks on content.
func Quick(content string) QuickChecks {
	if content == "" {
		return QuickChecks{Error: "Empty or unreadable file"}
	}
	return QuickChecks{
		ContentLength:         utf8.RuneCountInString(content),
		LineCount:             strings.Count(content, "\n"),
		HasArticleContentDiv:  strings.Contains(content, `<div class="article-content">`),
		EndsWithClosingDiv:    strings.HasSuffix(strings.TrimSpace(content), "</div>"),
		ContainsMarkdownLists: markdownListRe.MatchString(content),
	}
}

// QuickFile runs the quick checks on the file at path.
func QuickFile(path string) QuickChecks {
	content, err := document.Load(path)
	if err != nil {
		return QuickChecks{Error: err.Error()}
	}
	return Quick(content)
}

// Improvements compares before and after issue counts of a conversion.
type Improvements struct {
	Count           int     `json:"count"`
	ImprovementRate float64 `json:"improvement_rate"`
}

// NewImprovements computes the improvement of after over before as a count
// and a percentage of before, rounded to two decimals.
func NewImprovements(before, after int) Improvements {
	imp := Improvements{Count: before - after}
	if before > 0 {
		imp.ImprovementRate = math.Round(float64(imp.Count)/float64(before)*100*100) / 100
	}
	return imp
}

// ConversionAttempt records whether a conversion stage ran and completed.
type ConversionAttempt struct {
	Attempted bool `json:"attempted"`
	Success   bool `json:"success"`
}

// ConversionSummary is derived from the shortcode and list stage reports.
type ConversionSummary struct {
	Shortcode         ConversionAttempt `json:"shortcode_conversion"`
	MarkdownLists     ConversionAttempt `json:"markdown_lists_conversion"`
	TotalImprovements int               `json:"total_improvements"`
	Error             string            `json:"error,omitempty"`
}

// ConversionResults is the accounting of one conversion stage. Before and
// After count residual constructs, Conversions counts replacements.
type ConversionResults struct {
	Before      int               `json:"before"`
	After       int               `json:"after"`
	Conversions int               `json:"conversions"`
	Shortcodes  *shortcode.Result `json:"shortcodes,omitempty"`
	Lists       *mdlist.Result    `json:"lists,omitempty"`
}

// ShortcodeConversion wraps a shortcode pass.
func ShortcodeConversion(r shortcode.Result) *ConversionResults {
	return &ConversionResults{Before: r.BeforeCount, After: r.AfterCount, Conversions: r.ConvertedCount, Shortcodes: &r}
}

// ListConversion wraps a numbered-list pass.
func ListConversion(r mdlist.Result) *ConversionResults {
	return &ConversionResults{Before: r.BeforeCount, After: r.AfterCount, Conversions: r.ConvertedCount, Lists: &r}
}

// StepStatus is the status of one stage in a rollup.
type StepStatus struct {
	Step   int    `json:"step"`
	Name   string `json:"step_name"`
	Status string `json:"status"`
}

// Summary is the rollup over the reports of one run.
type Summary struct {
	RunID           string       `json:"run_id"`
	ArticleID       string       `json:"article_id"`
	TotalSteps      int          `json:"total_steps"`
	CompletedSteps  int          `json:"completed_steps"`
	FailedSteps     int          `json:"failed_steps"`
	Steps           []StepStatus `json:"steps"`
	DeploymentReady bool         `json:"deployment_ready"`
}

// FixResults is the auto-fix outcome as recorded in the stage 5 report.
type FixResults struct {
	Success     bool   `json:"success"`
	ChangesMade bool   `json:"changes_made"`
	Reason      string `json:"reason,omitempty"`
	Message     string `json:"message,omitempty"`
	StatusCode  int    `json:"status_code,omitempty"`
	Cached      bool   `json:"cached,omitempty"`
}

// Report is one stage report. Fields after Error are stage specific and
// omitted when unset.
type Report struct {
	ReportType        string            `json:"report_type"`
	Timestamp         string            `json:"timestamp"`
	RunID             string            `json:"run_id"`
	ArticleID         string            `json:"article_id"`
	HTMLFile          string            `json:"html_file"`
	Step              int               `json:"step"`
	StepName          string            `json:"step_name"`
	FileInfo          document.FileInfo `json:"file_info"`
	ValidationResults QuickChecks       `json:"validation_results"`
	Status            string            `json:"status"`
	Error             string            `json:"error,omitempty"`
	Generator         string            `json:"generator,omitempty"`

	ValidationPassed      *bool              `json:"validation_passed,omitempty"`
	IssuesDetected        []string           `json:"issues_detected,omitempty"`
	Recommendations       []string           `json:"recommendations,omitempty"`
	Findings              *validate.Result   `json:"findings,omitempty"`
	ConversionResults     *ConversionResults `json:"conversion_results,omitempty"`
	Improvements          *Improvements      `json:"improvements,omitempty"`
	RemainingIssues       *int               `json:"remaining_issues,omitempty"`
	APIFixNeeded          *bool              `json:"api_fix_needed,omitempty"`
	ConversionSummary     *ConversionSummary `json:"conversion_summary,omitempty"`
	APIFixResults         *FixResults        `json:"api_fix_results,omitempty"`
	APIFixSuccess         *bool              `json:"api_fix_success,omitempty"`
	PostFixValidation     *bool              `json:"post_fix_validation,omitempty"`
	FinalStatus           string             `json:"final_status,omitempty"`
	FinalValidationPassed *bool              `json:"final_validation_passed,omitempty"`
	DeploymentReady       *bool              `json:"deployment_ready,omitempty"`
	OverallSummary        *Summary           `json:"overall_summary,omitempty"`
}

// Bool returns a pointer to b, for the optional report fields.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to n.
func Int(n int) *int { return &n }

// Fail marks r as failed with err.
func (r *Report) Fail(err error) {
	r.Status = StatusError
	if err != nil {
		r.Error = err.Error()
	}
}

// SetValidation records a validator result on r.
func (r *Report) SetValidation(res validate.Result) {
	r.ValidationPassed = Bool(res.Success)
	r.IssuesDetected = res.Issues()
	r.Recommendations = res.Recommendations
	r.Findings = &res
}
