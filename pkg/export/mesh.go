package export

import (
	"fmt"
	"math"
	"strconv"

	"github.com/samber/lo"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"

	"github.com/chazu/lintel/pkg/kernel"
	"github.com/chazu/lintel/pkg/kernel/sdfx"
	"github.com/chazu/lintel/pkg/tessellate"
)

func meshes(recs []tessellate.Record) []*kernel.Mesh {
	return lo.FilterMap(recs, func(r tessellate.Record, _ int) (*kernel.Mesh, bool) {
		return r.Mesh, !r.Mesh.IsEmpty()
	})
}

// WriteSTL writes every record mesh into one binary STL file.
func WriteSTL(path string, recs []tessellate.Record) error {
	ms := meshes(recs)
	if len(ms) == 0 {
		return fmt.Errorf("export: stl: no meshes to write")
	}
	if err := sdfx.SaveSTL(path, ms...); err != nil {
		return fmt.Errorf("export: stl: %w", err)
	}
	return nil
}

// WriteDXF writes every mesh triangle as a 3DFACE, on one layer per element
// type. Layers are colored with the nearest AutoCAD color to colorOf(type)
// when colorOf is set.
func WriteDXF(path string, recs []tessellate.Record, colorOf func(string) string) error {
	d := dxf.NewDrawing()
	layers := make(map[string]bool)

	for _, r := range recs {
		if r.Mesh.IsEmpty() {
			continue
		}
		if !layers[r.Type] {
			cn := dxf.DefaultColor
			if colorOf != nil {
				cn = aci(colorOf(r.Type))
			}
			if _, err := d.AddLayer(r.Type, cn, dxf.DefaultLineType, true); err != nil {
				return fmt.Errorf("export: dxf: layer %s: %w", r.Type, err)
			}
			layers[r.Type] = true
		}
		if err := d.ChangeLayer(r.Type); err != nil {
			return fmt.Errorf("export: dxf: %w", err)
		}
		for _, tri := range r.Mesh.Triangles() {
			// A 3DFACE always has four corners; a triangle repeats the last.
			pts := [][]float64{
				{tri[0][0], tri[0][1], tri[0][2]},
				{tri[1][0], tri[1][1], tri[1][2]},
				{tri[2][0], tri[2][1], tri[2][2]},
				{tri[2][0], tri[2][1], tri[2][2]},
			}
			if _, err := d.ThreeDFace(pts); err != nil {
				return fmt.Errorf("export: dxf: %s: %w", r.GlobalID, err)
			}
		}
	}
	if len(layers) == 0 {
		return fmt.Errorf("export: dxf: no meshes to write")
	}
	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("export: dxf: %w", err)
	}
	return nil
}

// aciColors are the RGB values of AutoCAD color indices 1 to 9.
var aciColors = []struct {
	n       color.ColorNumber
	r, g, b int
}{
	{1, 255, 0, 0},
	{2, 255, 255, 0},
	{3, 0, 255, 0},
	{4, 0, 255, 255},
	{5, 0, 0, 255},
	{6, 255, 0, 255},
	{7, 255, 255, 255},
	{8, 128, 128, 128},
	{9, 192, 192, 192},
}

// aci returns the AutoCAD color index closest to a #RRGGBB color.
func aci(hex string) color.ColorNumber {
	r, g, b, ok := parseHex(hex)
	if !ok {
		return dxf.DefaultColor
	}
	best, bestDist := dxf.DefaultColor, math.MaxFloat64
	for _, c := range aciColors {
		dr, dg, db := float64(r-c.r), float64(g-c.g), float64(b-c.b)
		if d := dr*dr + dg*dg + db*db; d < bestDist {
			best, bestDist = c.n, d
		}
	}
	return best
}

func parseHex(hex string) (r, g, b int, ok bool) {
	if len(hex) != 7 || hex[0] != '#' {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff), true
}
