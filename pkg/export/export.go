// Package export writes tessellated element records to files: tables
// (CSV, XLSX, SQLite), a PDF report, meshes (STL, DXF) and JSON.
package export

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/chazu/lintel/pkg/extract"
	"github.com/chazu/lintel/pkg/tessellate"
)

// Format names an output format.
type Format string

const (
	CSV    Format = "csv"
	XLSX   Format = "xlsx"
	SQLite Format = "sqlite"
	PDF    Format = "pdf"
	STL    Format = "stl"
	DXF    Format = "dxf"
	JSON   Format = "json"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{CSV, XLSX, SQLite, PDF, STL, DXF, JSON}
}

// ParseFormat accepts a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !lo.Contains(Formats(), f) {
		return "", fmt.Errorf("export: unknown format %q", s)
	}
	return f, nil
}

// Options carries the extras some formats use.
type Options struct {
	// Title heads the PDF report.
	Title string
	// Summary is printed in the PDF report.
	Summary []extract.Summary
	// Color maps an element type to #RRGGBB for DXF layers.
	Color func(elementType string) string
}

// Write exports recs to path in format f.
func Write(ctx context.Context, path string, f Format, recs []tessellate.Record, opts Options) error {
	switch f {
	case CSV, JSON:
		out, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if f == CSV {
			err = WriteCSV(out, recs)
		} else {
			err = WriteJSON(out, recs)
		}
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		return err
	case XLSX:
		return WriteXLSX(path, recs)
	case SQLite:
		return WriteSQLite(ctx, path, recs)
	case PDF:
		return WritePDF(path, recs, opts)
	case STL:
		return WriteSTL(path, recs)
	case DXF:
		return WriteDXF(path, recs, opts.Color)
	}
	return fmt.Errorf("export: unknown format %q", f)
}

// identity columns lead every table, in this order.
var identity = []string{"GlobalId", "Type", "Name"}

// Columns returns the table header for recs: the identity columns, then
// every property key in sorted order.
func Columns(recs []tessellate.Record) []string {
	keys := lo.Uniq(lo.FlatMap(recs, func(r tessellate.Record, _ int) []string {
		return lo.Keys(r.Properties)
	}))
	keys = lo.Without(keys, identity...)
	sort.Strings(keys)
	return append(append([]string(nil), identity...), keys...)
}

// value returns the cell of column col for r, nil when absent.
func value(r tessellate.Record, col string) any {
	switch col {
	case "GlobalId":
		return r.GlobalID
	case "Type":
		return r.Type
	case "Name":
		if r.Name == "" {
			return nil
		}
		return r.Name
	}
	return r.Properties[col]
}

// text formats a cell value for text outputs.
func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case []float64:
		parts := lo.Map(x, func(f float64, _ int) string { return strconv.FormatFloat(f, 'g', -1, 64) })
		return strings.Join(parts, " ")
	}
	return fmt.Sprint(v)
}

// rows renders recs as text rows under Columns(recs).
func rows(recs []tessellate.Record) ([]string, [][]string) {
	cols := Columns(recs)
	out := make([][]string, len(recs))
	for i, r := range recs {
		out[i] = lo.Map(cols, func(c string, _ int) string { return text(value(r, c)) })
	}
	return cols, out
}
