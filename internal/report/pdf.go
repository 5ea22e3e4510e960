package report

import (
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// WritePDFSummary renders a one-page human-readable summary of a run: the
// rollup counts followed by each stage's status and issues. Core fonts are
// used, so text outside cp1252 is transliterated by gofpdf.
func WritePDFSummary(outPath string, s Summary, reports []Report) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Validation summary "+s.ArticleID, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, tr("Validation summary: "+s.ArticleID), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Run "+s.RunID, "", 1, "L", false, 0, "")
	ready := "no"
	if s.DeploymentReady {
		ready = "yes"
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Steps: %d total, %d completed, %d failed. Deployment ready: %s",
		s.TotalSteps, s.CompletedSteps, s.FailedSteps, ready), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	for _, r := range reports {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 7, tr(fmt.Sprintf("%d. %s [%s]", r.Step, r.StepName, r.Status)), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		if r.Error != "" {
			pdf.MultiCell(0, 5, tr("Error: "+r.Error), "", "L", false)
		}
		if r.FinalStatus != "" {
			pdf.MultiCell(0, 5, "Final status: "+r.FinalStatus, "", "L", false)
		}
		for _, issue := range r.IssuesDetected {
			pdf.MultiCell(0, 5, tr("- "+issue), "", "L", false)
		}
		if len(r.Recommendations) > 0 {
			pdf.MultiCell(0, 5, tr("Recommendations: "+strings.Join(r.Recommendations, ", ")), "", "L", false)
		}
		pdf.Ln(2)
	}
	return pdf.OutputFileAndClose(outPath)
}

// Collected returns the reports this run has written, in stage order.
func (w *Writer) Collected() []Report {
	var out []Report
	for _, s := range Steps {
		if r, ok, err := w.Read(s.Number); err == nil && ok {
			out = append(out, r)
		}
	}
	return out
}
