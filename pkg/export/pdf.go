package export

import (
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/chazu/lintel/pkg/tessellate"
)

// Page layout (A4 landscape, mm).
const (
	pageWidth   = 297.0
	pageHeight  = 210.0
	margin      = 15.0
	rowHeight   = 6.0
	headerSize  = 14.0
	contentSize = 9.0
)

// reportColumn is one column of the PDF element table.
type reportColumn struct {
	title string
	width float64
	align string
	cell  func(r tessellate.Record) string
}

var reportColumns = []reportColumn{
	{"GlobalId", 48, "L", func(r tessellate.Record) string { return r.GlobalID }},
	{"Type", 42, "L", func(r tessellate.Record) string { return r.Type }},
	{"Name", 55, "L", func(r tessellate.Record) string { return r.Name }},
	{"Storey", 30, "L", func(r tessellate.Record) string { return text(r.Properties["Storey"]) }},
	{"Faces", 18, "R", func(r tessellate.Record) string { return text(r.Properties["NumFaces"]) }},
	{"Volume", 30, "R", func(r tessellate.Record) string {
		if v, ok := r.Properties["Volume"].(float64); ok {
			return fmt.Sprintf("%.4g", v)
		}
		return "-"
	}},
	{"Size", 44, "R", func(r tessellate.Record) string {
		lo, okLo := r.Properties["BoundsMin"].([]float64)
		hi, okHi := r.Properties["BoundsMax"].([]float64)
		if !okLo || !okHi || len(lo) != 3 || len(hi) != 3 {
			return "-"
		}
		return fmt.Sprintf("%.0f x %.0f x %.0f", hi[0]-lo[0], hi[1]-lo[1], hi[2]-lo[2])
	}},
}

// WritePDF writes a report: the per-type summary when opts.Summary is set,
// then a table of every element.
func WritePDF(path string, recs []tessellate.Record, opts Options) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.AddPage()

	title := opts.Title
	if title == "" {
		title = "Element geometry report"
	}
	pdf.SetFont("Helvetica", "B", headerSize)
	pdf.CellFormat(pageWidth-2*margin, 10, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", contentSize+1)
	pdf.CellFormat(pageWidth-2*margin, rowHeight, fmt.Sprintf("%d elements", len(recs)), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	if len(opts.Summary) > 0 {
		renderSummary(pdf, opts)
		pdf.Ln(5)
	}
	renderElements(pdf, recs)

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("export: pdf: %w", err)
	}
	return nil
}

func renderSummary(pdf *fpdf.Fpdf, opts Options) {
	heads := []string{"Type", "Elements", "Solids", "Openings", "Boolean", "Skipped items"}
	widths := []float64{60, 25, 25, 25, 25, 30}

	pdf.SetFont("Helvetica", "B", contentSize)
	pdf.SetFillColor(220, 220, 220)
	for i, h := range heads {
		pdf.CellFormat(widths[i], rowHeight, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", contentSize)
	for _, s := range opts.Summary {
		cells := []string{
			s.Type,
			fmt.Sprint(s.Elements), fmt.Sprint(s.Solids), fmt.Sprint(s.Openings),
			fmt.Sprint(s.Boolean), fmt.Sprint(s.Skipped),
		}
		for i, c := range cells {
			align := "R"
			if i == 0 {
				align = "L"
				setTypeFill(pdf, opts.Color, s.Type)
			} else {
				pdf.SetFillColor(255, 255, 255)
			}
			pdf.CellFormat(widths[i], rowHeight, c, "1", 0, align, i == 0 && opts.Color != nil, 0, "")
		}
		pdf.Ln(-1)
	}
}

func setTypeFill(pdf *fpdf.Fpdf, color func(string) string, elementType string) {
	if color == nil {
		return
	}
	r, g, b, ok := parseHex(color(elementType))
	if !ok {
		return
	}
	// Lighten so the text stays readable.
	pdf.SetFillColor(r+(255-r)*2/3, g+(255-g)*2/3, b+(255-b)*2/3)
}

func renderElements(pdf *fpdf.Fpdf, recs []tessellate.Record) {
	header := func() {
		pdf.SetFont("Helvetica", "B", contentSize)
		pdf.SetFillColor(220, 220, 220)
		for _, c := range reportColumns {
			pdf.CellFormat(c.width, rowHeight, c.title, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", contentSize)
	}

	header()
	for _, r := range recs {
		if pdf.GetY()+rowHeight > pageHeight-margin {
			pdf.AddPage()
			header()
		}
		for _, c := range reportColumns {
			pdf.CellFormat(c.width, rowHeight, fit(pdf, c.cell(r), c.width-2), "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// fit shortens s with an ellipsis until it is at most w wide.
func fit(pdf *fpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s) <= w {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > w {
		r = r[:len(r)-1]
	}
	return strings.TrimSpace(string(r)) + "..."
}
