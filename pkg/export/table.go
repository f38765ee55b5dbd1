package export

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/xuri/excelize/v2"

	"github.com/chazu/lintel/pkg/ifc"
	"github.com/chazu/lintel/pkg/tessellate"
)

// WriteCSV writes one row per record under a header row.
func WriteCSV(w io.Writer, recs []tessellate.Record) error {
	cols, body := rows(recs)
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("export: csv: %w", err)
	}
	if err := cw.WriteAll(body); err != nil {
		return fmt.Errorf("export: csv: %w", err)
	}
	return nil
}

// WriteJSON writes the records, meshes included, as an indented array.
func WriteJSON(w io.Writer, recs []tessellate.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if recs == nil {
		recs = []tessellate.Record{}
	}
	if err := enc.Encode(recs); err != nil {
		return fmt.Errorf("export: json: %w", err)
	}
	return nil
}

// ElementsSheet is the worksheet WriteXLSX fills.
const ElementsSheet = "Elements"

// WriteXLSX writes the element table to a workbook with one sheet. Numbers
// and booleans keep their cell types.
func WriteXLSX(path string, recs []tessellate.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ElementsSheet); err != nil {
		return fmt.Errorf("export: xlsx: %w", err)
	}

	cols := Columns(recs)
	set := func(col, row int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(ElementsSheet, cell, v)
	}
	for j, c := range cols {
		if err := set(j+1, 1, c); err != nil {
			return fmt.Errorf("export: xlsx: %w", err)
		}
	}
	for i, r := range recs {
		for j, c := range cols {
			v := value(r, c)
			switch v.(type) {
			case nil:
				continue
			case []float64, []any:
				v = text(v)
			}
			if err := set(j+1, i+2, v); err != nil {
				return fmt.Errorf("export: xlsx: %w", err)
			}
		}
	}
	if err := f.SetPanes(ElementsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("export: xlsx: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("export: xlsx: %w", err)
	}
	return nil
}

const sqliteSchema = `
CREATE TABLE elements (
    global_id    TEXT PRIMARY KEY,
    guid         TEXT,
    type         TEXT NOT NULL,
    name         TEXT,
    storey       TEXT,
    num_vertices INTEGER,
    num_faces    INTEGER,
    volume       REAL
);
CREATE TABLE element_properties (
    global_id TEXT NOT NULL REFERENCES elements(global_id),
    key       TEXT NOT NULL,
    value     TEXT,
    PRIMARY KEY (global_id, key)
);
CREATE INDEX element_properties_key ON element_properties(key);
`

// WriteSQLite writes a fresh database at path with an elements table and a
// key/value element_properties table. An existing file is replaced. The
// guid column holds the expanded UUID form of the GlobalId, NULL when the
// GlobalId is malformed.
func WriteSQLite(ctx context.Context, path string, recs []tessellate.Record) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("export: sqlite: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return fmt.Errorf("export: sqlite: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("export: sqlite: schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("export: sqlite: %w", err)
	}
	defer tx.Rollback()

	elem, err := tx.PrepareContext(ctx, `
        INSERT OR REPLACE INTO elements (global_id, guid, type, name, storey, num_vertices, num_faces, volume)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `)
	if err != nil {
		return fmt.Errorf("export: sqlite: %w", err)
	}
	defer elem.Close()
	prop, err := tx.PrepareContext(ctx, `
        INSERT OR REPLACE INTO element_properties (global_id, key, value) VALUES (?, ?, ?)
    `)
	if err != nil {
		return fmt.Errorf("export: sqlite: %w", err)
	}
	defer prop.Close()

	for _, r := range recs {
		p := r.Properties
		var guid any
		if u, err := ifc.ExpandGlobalID(r.GlobalID); err == nil {
			guid = u.String()
		}
		if _, err := elem.ExecContext(ctx, r.GlobalID, guid, r.Type, value(r, "Name"),
			p["Storey"], p["NumVertices"], p["NumFaces"], p["Volume"]); err != nil {
			return fmt.Errorf("export: sqlite: %s: %w", r.GlobalID, err)
		}
		for k, v := range p {
			if v == nil {
				continue
			}
			if _, err := prop.ExecContext(ctx, r.GlobalID, k, text(v)); err != nil {
				return fmt.Errorf("export: sqlite: %s.%s: %w", r.GlobalID, k, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("export: sqlite: %w", err)
	}
	return nil
}
