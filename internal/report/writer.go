package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ikeike55momo/article-flow/internal/document"
)

// ErrExists is returned when a stage report for the run was already written.
var ErrExists = errors.New("report already written")

// Writer persists the reports of one pipeline run into Dir.
type Writer struct {
	Dir       string
	RunID     string
	ArticleID string
	HTMLFile  string
	Generator string
	Log       zerolog.Logger
	// Now is the clock used for timestamps; nil means time.Now.
	Now func() time.Time
}

// NewWriter returns a Writer with a fresh run id.
func NewWriter(dir, articleID, htmlFile string, log zerolog.Logger) *Writer {
	return &Writer{
		Dir:       dir,
		RunID:     uuid.NewString(),
		ArticleID: articleID,
		HTMLFile:  htmlFile,
		Log:       log,
	}
}

func (w *Writer) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

// Reset creates Dir and removes reports left by earlier runs so that the
// directory only ever describes the latest run.
func (w *Writer) Reset() error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}
	names := []string{SummaryFile}
	for _, s := range Steps {
		names = append(names, s.File)
	}
	for _, n := range names {
		if err := os.Remove(filepath.Join(w.Dir, n)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove stale report: %w", err)
		}
	}
	return nil
}

// Begin returns a report for stage n with the common fields filled from the
// current state of the HTML file. Status starts as completed.
func (w *Writer) Begin(n int) Report {
	step, _ := StepByNumber(n)
	return Report{
		ReportType:        step.Type,
		Timestamp:         w.now().Format(time.RFC3339),
		RunID:             w.RunID,
		ArticleID:         w.ArticleID,
		HTMLFile:          w.HTMLFile,
		Step:              step.Number,
		StepName:          step.Name,
		FileInfo:          document.Stat(w.HTMLFile),
		ValidationResults: QuickFile(w.HTMLFile),
		Status:            StatusCompleted,
		Generator:         w.Generator,
	}
}

// Path returns the file path of the report for stage n.
func (w *Writer) Path(n int) string {
	step, ok := StepByNumber(n)
	if !ok {
		return filepath.Join(w.Dir, fmt.Sprintf("report%d.json", n))
	}
	return filepath.Join(w.Dir, step.File)
}

// Write persists r once. The file is synced before Write returns, so a
// report on disk always describes a finished stage.
func (w *Writer) Write(r Report) (string, error) {
	p := w.Path(r.Step)
	if err := writeOnce(p, r); err != nil {
		return "", err
	}
	w.Log.Info().Int("step", r.Step).Str("status", r.Status).Str("path", p).Msg("stage report saved")
	return p, nil
}

// WriteSummary computes the rollup and persists it as SummaryFile.
func (w *Writer) WriteSummary() (Summary, string, error) {
	s := w.Overall()
	p := filepath.Join(w.Dir, SummaryFile)
	if err := writeOnce(p, s); err != nil {
		return s, "", err
	}
	w.Log.Info().Int("completed", s.CompletedSteps).Int("failed", s.FailedSteps).Str("path", p).Msg("summary saved")
	return s, p, nil
}

func writeOnce(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create reports dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
		return fmt.Errorf("create report: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode report: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync report: %w", err)
	}
	return f.Close()
}

// Read loads the report for stage n written by this run. The boolean is
// false when the stage has no report for this run.
func (w *Writer) Read(n int) (Report, bool, error) {
	b, err := os.ReadFile(w.Path(n))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Report{}, false, nil
		}
		return Report{}, false, err
	}
	var r Report
	if err := json.Unmarshal(b, &r); err != nil {
		return Report{}, false, fmt.Errorf("decode %s: %w", w.Path(n), err)
	}
	if r.RunID != w.RunID {
		return Report{}, false, nil
	}
	return r, true, nil
}

// Conversion derives the conversion summary from the stage 2 and 3 reports.
func (w *Writer) Conversion() ConversionSummary {
	var s ConversionSummary
	var errs []string
	for _, n := range []int{2, 3} {
		r, ok, err := w.Read(n)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		if !ok {
			continue
		}
		att := ConversionAttempt{Attempted: true, Success: r.Status == StatusCompleted}
		if n == 2 {
			s.Shortcode = att
		} else {
			s.MarkdownLists = att
		}
		if r.Improvements != nil {
			s.TotalImprovements += r.Improvements.Count
		}
	}
	if len(errs) > 0 {
		s.Error = "failed to create conversion summary: " + strings.Join(errs, "; ")
	}
	return s
}

// Overall scans the stage reports of this run. Reports that cannot be read
// count as failed steps; stages without a report are not counted.
func (w *Writer) Overall() Summary {
	s := Summary{RunID: w.RunID, ArticleID: w.ArticleID, TotalSteps: len(Steps), Steps: []StepStatus{}}
	for _, step := range Steps {
		r, ok, err := w.Read(step.Number)
		switch {
		case err != nil:
			s.FailedSteps++
			s.Steps = append(s.Steps, StepStatus{Step: step.Number, Name: step.Name, Status: StatusError})
		case !ok:
		case r.Status == StatusCompleted:
			s.CompletedSteps++
			s.Steps = append(s.Steps, StepStatus{Step: step.Number, Name: step.Name, Status: r.Status})
			if step.Number == 6 && r.DeploymentReady != nil {
				s.DeploymentReady = *r.DeploymentReady
			}
		default:
			s.FailedSteps++
			s.Steps = append(s.Steps, StepStatus{Step: step.Number, Name: step.Name, Status: r.Status})
		}
	}
	return s
}
