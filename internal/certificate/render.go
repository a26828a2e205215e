package certificate

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/akyairhashvil/marathon/internal/models"
	"github.com/go-pdf/fpdf"
)

// Render produces a one page landscape certificate for user.
func Render(user models.User, p models.Progress, issued time.Time) ([]byte, error) {
	name := strings.TrimSpace(user.Username)
	if name == "" {
		name = user.Handle
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Marathon Certificate", true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	w, h := pdf.GetPageSize()

	pdf.SetLineWidth(1.5)
	pdf.Rect(10, 10, w-20, h-20, "D")
	pdf.SetLineWidth(0.4)
	pdf.Rect(14, 14, w-28, h-28, "D")

	pdf.SetY(40)
	pdf.SetFont("Arial", "B", 32)
	pdf.CellFormat(0, 16, "Certificate of Completion", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 16)
	pdf.CellFormat(0, 10, "This certifies that", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 26)
	pdf.CellFormat(0, 14, tr("@"+strings.TrimPrefix(name, "@")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 16)
	pdf.CellFormat(0, 10, fmt.Sprintf("completed all %d tasks of the speaking marathon", p.Total), "", 1, "C", false, 0, "")
	pdf.Ln(20)

	pdf.SetFont("Arial", "I", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Issued %s", issued.Format("2 January 2006")), "", 1, "C", false, 0, "")

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
