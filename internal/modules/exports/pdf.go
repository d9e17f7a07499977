package exports

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-pdf/fpdf"
)

// column width weights; N°, CÓDIGO and ZONA get extra room, the numeric
// columns share the rest evenly. The classification column of the
// low-recovery tables is appended when a section carries it.
var pdfColWeights = []float64{
	0.8, 2.2, 2.0,
	1.3, 1.1, 1.3,
	1.2, 1.2, 1.2, 1.2,
	1.1, 1.3, 1.3, 1.1,
}

const pdfClassColWeight = 2.0

func pdfColWidths(usable float64, cols int) []float64 {
	weights := pdfColWeights
	if cols > len(weights) {
		weights = append(append([]float64{}, weights...), pdfClassColWeight)
	}
	var weightSum float64
	for _, w := range weights {
		weightSum += w
	}
	widths := make([]float64, len(weights))
	for i, w := range weights {
		widths[i] = usable * w / weightSum
	}
	return widths
}

// RenderPDF renders the document as a landscape A4 PDF: title and date
// header, one table per section with a SUBTOTAL footer row, and the
// three-signatory block at the end.
func RenderPDF(doc Doc) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 18)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	usable := pageW - left - right

	renderLogo(pdf, doc.LogoPath, left)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(usable, 8, tr(doc.Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(usable, 6, tr(doc.DateLine), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	for _, section := range doc.Sections {
		renderPDFSection(pdf, tr, section, pdfColWidths(usable, len(section.Columns)))
	}

	renderSignatures(pdf, tr, usable)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// renderLogo draws the site logo in the top-left header corner, scaled to
// fit. A missing or unreadable file just leaves the corner blank.
func renderLogo(pdf *fpdf.Fpdf, path string, left float64) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}

	const maxW, maxH = 45.0, 16.0
	opts := fpdf.ImageOptions{ImageType: "", ReadDpi: false}
	info := pdf.RegisterImageOptions(path, opts)
	if info == nil || info.Width() <= 0 || info.Height() <= 0 {
		return
	}
	scale := maxW / info.Width()
	if h := maxH / info.Height(); h < scale {
		scale = h
	}
	pdf.ImageOptions(path, left, 8, info.Width()*scale, info.Height()*scale, false, opts, 0, "")
}

func renderPDFSection(pdf *fpdf.Fpdf, tr func(string) string, s Section, widths []float64) {
	const rowH = 5.5

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(sum(widths), 6.5, tr(s.Heading), "1", 1, "L", true, 0, "")

	pdf.SetFont("Helvetica", "B", 7.5)
	pdf.SetFillColor(244, 244, 244)
	for i, col := range s.Columns {
		pdf.CellFormat(widths[i], rowH, tr(col), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 7.5)
	for _, row := range s.Rows {
		for i, v := range row {
			align := "R"
			if i <= 2 {
				align = "L"
			}
			pdf.CellFormat(widths[i], rowH, tr(v), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Helvetica", "B", 7.5)
	pdf.SetFillColor(255, 243, 205)
	for i, v := range s.Subtotal {
		align := "R"
		if i <= 2 {
			align = "L"
		}
		pdf.CellFormat(widths[i], rowH, tr(v), "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)
	pdf.Ln(3)
}

func renderSignatures(pdf *fpdf.Fpdf, tr func(string) string, usable float64) {
	_, pageH := pdf.GetPageSize()
	if pdf.GetY() > pageH-50 {
		pdf.AddPage()
	}
	pdf.Ln(16)

	blockW := usable / float64(len(signatories))
	y := pdf.GetY()
	left, _, _, _ := pdf.GetMargins()
	for i, sig := range signatories {
		x := left + float64(i)*blockW
		pdf.SetXY(x+8, y)
		pdf.CellFormat(blockW-16, 0.2, "", "T", 0, "C", false, 0, "")
		pdf.SetXY(x, y+2)
		pdf.SetFont("Helvetica", "B", 8.5)
		pdf.CellFormat(blockW, 4.5, tr(sig.Role), "", 0, "C", false, 0, "")
		pdf.SetXY(x, y+6.5)
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(blockW, 4.5, tr(sig.Company), "", 0, "C", false, 0, "")
	}
	pdf.Ln(12)
}

func sum(vals []float64) float64 {
	var t float64
	for _, v := range vals {
		t += v
	}
	return t
}
