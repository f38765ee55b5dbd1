package app

import (
	"github.com/chazu/lintel/pkg/tessellate"
)

// MeshData is the JSON mesh format sent to viewers. Coordinates are
// narrowed to float32, which is what WebGL buffers take.
type MeshData struct {
	GlobalID   string         `json:"globalId"`
	Type       string         `json:"type"`
	Name       string         `json:"name"`
	Vertices   []float32      `json:"vertices"`
	Normals    []float32      `json:"normals"`
	Indices    []uint32       `json:"indices"`
	Color      string         `json:"color"`
	Properties map[string]any `json:"properties"`
}

// Meshes converts the records that have geometry to MeshData, colored by
// element type.
func (a *App) Meshes(recs []tessellate.Record) []MeshData {
	out := []MeshData{}
	for _, r := range recs {
		if r.Mesh.IsEmpty() {
			continue
		}
		out = append(out, MeshData{
			GlobalID:   r.GlobalID,
			Type:       r.Type,
			Name:       r.Name,
			Vertices:   float32s(r.Mesh.Vertices),
			Normals:    float32s(r.Mesh.Normals),
			Indices:    r.Mesh.Indices,
			Color:      a.Color(r.Type),
			Properties: r.Properties,
		})
	}
	return out
}

func float32s(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
