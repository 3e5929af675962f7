package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/layoutverifier/backend/internal/domain"
)

// FormatPDF is the printable report
const FormatPDF = "pdf"

func init() {
	Register(FormatPDF, ".pdf", "application/pdf", writePDF)
}

const (
	pdfFont       = "Helvetica"
	pdfLineHeight = 6.0
	pdfRowHeight  = 6.0
)

// pdfReport draws report sections on an A4 page flow. Text goes through a
// cp1252 translator because the core fonts carry no other encoding.
type pdfReport struct {
	doc *fpdf.Fpdf
	tr  func(string) string
}

func writePDF(w io.Writer, s *domain.VerificationSummary) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Product Layout Verification Report", true)
	doc.SetCreationDate(now())
	doc.SetAutoPageBreak(true, 15)
	doc.AddPage()

	r := &pdfReport{doc: doc, tr: doc.UnicodeTranslatorFromDescriptor("")}

	r.heading(18, "Product Layout Verification Report")
	r.text("Generated: %s", now().Format("2006-01-02 15:04:05"))
	r.gap()

	r.heading(14, "Summary")
	r.text("Total products in Excel: %d", s.TotalProducts)
	r.text("Layouts verified: %d", s.ProductsVerified)
	r.text("Fully verified (all fields found): %d", s.ProductsComplete)
	r.text("Partially verified (some fields missing): %d", s.ProductsPartial)
	r.text("Layouts without Excel match: %d", s.LayoutsWithoutMatch)
	r.text("Overall success rate: %.1f%%", s.OverallSuccessRate())
	r.gap()

	if len(s.UnmatchedLayouts) > 0 {
		r.heading(14, "Layouts Without Excel Match")
		r.text("The following layout files could not be matched to any product in Excel:")
		for _, name := range s.UnmatchedLayouts {
			r.text("- %s", flattenCell(name))
		}
		r.gap()
	}

	if partial := s.PartialResults(); len(partial) > 0 {
		r.heading(14, "Products With Missing Fields")

		for _, res := range partial {
			r.heading(11, "Item# "+res.ItemNumber)
			r.text("File: %s", res.LayoutFile)
			r.text("Match rate: %.1f%% (%d/%d)", res.SuccessRate(), res.MatchedFields, res.TotalFields)

			var missing, found [][]string
			for _, fr := range res.FieldResults {
				if fr.Found {
					found = append(found, []string{fr.FieldName, fr.ExpectedValue, string(fr.MatchType)})
				} else {
					missing = append(missing, []string{fr.FieldName, fr.ExpectedValue})
				}
			}

			if len(missing) > 0 {
				r.text("Missing fields:")
				r.table([]float64{60, 120}, []string{"Field", "Expected Value"}, missing)
			}
			if len(found) > 0 {
				r.text("Found fields:")
				r.table([]float64{50, 100, 30}, []string{"Field", "Value", "Match Type"}, found)
			}
		}
	}

	if complete := s.CompleteResults(); len(complete) > 0 {
		r.heading(14, "Fully Verified Products")
		r.text("The following products have all fields verified:")

		rows := make([][]string, 0, len(complete))
		for _, res := range complete {
			rows = append(rows, []string{res.ItemNumber, res.LayoutFile, fmt.Sprint(res.TotalFields)})
		}
		r.table([]float64{30, 120, 30}, []string{"Item#", "Layout File", "Fields"}, rows)
	}

	if err := doc.Output(w); err != nil {
		return fmt.Errorf("rendering pdf report: %w", err)
	}
	return nil
}

func (r *pdfReport) heading(size float64, text string) {
	r.doc.SetFont(pdfFont, "B", size)
	r.doc.MultiCell(0, size*0.5, r.tr(text), "", "L", false)
	r.doc.Ln(1)
}

func (r *pdfReport) text(format string, args ...any) {
	r.doc.SetFont(pdfFont, "", 10)
	r.doc.MultiCell(0, pdfLineHeight, r.tr(fmt.Sprintf(format, args...)), "", "L", false)
}

func (r *pdfReport) gap() {
	r.doc.Ln(4)
}

func (r *pdfReport) table(widths []float64, header []string, rows [][]string) {
	r.doc.SetFont(pdfFont, "B", 9)
	r.doc.SetFillColor(240, 240, 240)
	for i, h := range header {
		r.doc.CellFormat(widths[i], pdfRowHeight+1, r.tr(h), "1", 0, "L", true, 0, "")
	}
	r.doc.Ln(-1)

	r.doc.SetFont(pdfFont, "", 9)
	for _, row := range rows {
		for i, cell := range row {
			r.doc.CellFormat(widths[i], pdfRowHeight, r.fit(cell, widths[i]), "1", 0, "L", false, 0, "")
		}
		r.doc.Ln(-1)
	}
	r.gap()
}

// fit flattens a cell to one line and shortens it to the column width
func (r *pdfReport) fit(cell string, width float64) string {
	limit := width - 2*r.doc.GetCellMargin()
	runes := []rune(flattenCell(cell))

	text := r.tr(string(runes))
	if r.doc.GetStringWidth(text) <= limit {
		return text
	}
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		text = r.tr(string(runes) + "...")
		if r.doc.GetStringWidth(text) <= limit {
			break
		}
	}
	return text
}
