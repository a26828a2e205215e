package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/akyairhashvil/marathon/internal/models"
)

// GenerateProgressReport writes a PDF with catalog stats and every user's
// progress into dir and returns the file path.
func GenerateProgressReport(data consoleData, dir string, now time.Time) (string, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, fmt.Sprintf("Marathon Progress Report: %s", now.Format("2006-01-02")))
	pdf.Ln(12)

	d := data.Dashboard
	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Users: %d (approved %d, waiting %d)", d.Users, d.ApprovedUsers, d.PendingUsers))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Tasks: %d   Submissions: %d   Pending review: %d",
		d.Tasks, d.Submissions, d.ByStatus[models.SubmissionPending]))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, "Participants")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 12)
	if len(data.Users) == 0 {
		pdf.Cell(0, 8, "  - No participants yet.")
		pdf.Ln(8)
	}
	for _, r := range data.Users {
		status := "waiting for approval"
		if r.User.Approved {
			status = fmt.Sprintf("day %d, %s", r.User.CurrentTask, FormatProgress(r.Progress))
		}
		if r.User.Finished {
			status += ", finished"
		}
		pdf.Cell(0, 8, fmt.Sprintf("  @%s - %s", r.User.Username, status))
		pdf.Ln(6)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	filename := filepath.Join(dir, fmt.Sprintf("marathon_report_%s.pdf", now.Format("20060102_150405")))
	if err := pdf.OutputFileAndClose(filename); err != nil {
		return "", err
	}
	return filename, nil
}
