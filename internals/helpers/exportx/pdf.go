package exportx

import (
	"bytes"

	"github.com/go-pdf/fpdf"
)

// Report is a simple title + summary + table document.
type Report struct {
	Title    string
	Subtitle []string
	Summary  [][2]string
	Header   []string
	Widths   []float64 // mm, must match Header
	Rows     [][]string
	Footer   string
}

// PDF renders the report on A4. Landscape when the table is wide.
func (r Report) PDF() ([]byte, error) {
	total := 0.0
	for _, w := range r.Widths {
		total += w
	}
	orientation := "P"
	if total > 190 {
		orientation = "L"
	}
	pdf := fpdf.New(orientation, "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 14)
	if r.Footer != "" {
		pdf.SetFooterFunc(func() {
			pdf.SetY(-10)
			pdf.SetFont("Helvetica", "I", 8)
			pdf.CellFormat(0, 6, tr(r.Footer), "", 0, "C", false, 0, "")
		})
	}
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(0, 9, tr(r.Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, s := range r.Subtitle {
		pdf.CellFormat(0, 6, tr(s), "", 1, "C", false, 0, "")
	}
	pdf.Ln(3)

	if len(r.Summary) > 0 {
		pdf.SetFont("Helvetica", "B", 10)
		for _, kv := range r.Summary {
			pdf.CellFormat(50, 6, tr(kv[0]), "1", 0, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			pdf.CellFormat(30, 6, tr(kv[1]), "1", 1, "R", false, 0, "")
			pdf.SetFont("Helvetica", "B", 10)
		}
		pdf.Ln(4)
	}

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 236, 245)
		for i, h := range r.Header {
			pdf.CellFormat(r.width(i), 7, tr(h), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
	}
	if len(r.Header) > 0 {
		header()
		_, pageH := pdf.GetPageSize()
		_, _, _, bottom := pdf.GetMargins()
		for _, row := range r.Rows {
			if pdf.GetY()+6 > pageH-bottom {
				pdf.AddPage()
				header()
			}
			for i := range r.Header {
				v := ""
				if i < len(row) {
					v = row[i]
				}
				pdf.CellFormat(r.width(i), 6, tr(v), "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r Report) width(i int) float64 {
	if i < len(r.Widths) && r.Widths[i] > 0 {
		return r.Widths[i]
	}
	return 30
}
