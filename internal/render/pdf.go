package render

import (
	"bytes"

	"github.com/go-pdf/fpdf"

	"sri-notifier/internal/types"
)

// ToPDF draws a composed Summary onto an A4 PDF and returns the document
// bytes. All positioning was decided by the layout accumulator; this function
// only translates elements into text runs.
func ToPDF(s *Summary) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, page := range s.Pages {
		pdf.AddPage()
		for _, el := range page.Elements {
			applyStyle(pdf, el.Style)
			pdf.Text(el.X, el.Y, tr(el.Text))
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, types.NewAppError(types.ErrCodeRenderSummary, "PDF output failed", err)
	}
	return buf.Bytes(), nil
}

func applyStyle(pdf *fpdf.Fpdf, s Style) {
	switch s {
	case StyleTitle:
		pdf.SetFont("Helvetica", "B", 16)
	case StyleBanner:
		pdf.SetFont("Helvetica", "B", 11)
	case StyleLabel:
		pdf.SetFont("Helvetica", "B", 9)
	case StyleValue:
		pdf.SetFont("Helvetica", "", 9)
	default:
		pdf.SetFont("Courier", "", 8)
	}
}
