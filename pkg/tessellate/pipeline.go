// Package tessellate turns extracted element geometry into triangle meshes
// using a boolean kernel: every host solid is extruded and placed, the
// element's openings are extruded the same way and subtracted, and the
// host solids are merged into one mesh per element.
package tessellate

import (
	"context"
	"runtime"
	"sync"

	"github.com/samber/lo"

	"github.com/chazu/lintel/pkg/geom"
	"github.com/chazu/lintel/pkg/kernel"
)

// ElementMesh is the tessellation of one element.
type ElementMesh struct {
	Element geom.ElementGeometry

	// Mesh is the merged host mesh, nil when no solid produced geometry.
	Mesh *kernel.Mesh

	// Outcomes has one entry per host solid, OpeningOutcomes one per
	// opening solid, in extraction order.
	Outcomes        []Outcome
	OpeningOutcomes []Outcome

	// Applied counts successful subtractions over all host solids.
	Applied int
	Skipped []ToolFailure
}

// Produced reports whether the element got any geometry.
func (e ElementMesh) Produced() bool {
	return !e.Mesh.IsEmpty()
}

// Pipeline tessellates elements with one kernel.
type Pipeline struct {
	Kernel kernel.Kernel
}

// Element tessellates a single element. It never fails; degradations are
// reported through the outcome and failure lists.
func (p Pipeline) Element(eg geom.ElementGeometry) ElementMesh {
	res := ElementMesh{Element: eg}

	var hosts []*kernel.Mesh
	for _, s := range eg.Solids {
		sm := Synthesize(s)
		res.Outcomes = append(res.Outcomes, sm.Outcome)
		if sm.Mesh != nil {
			hosts = append(hosts, sm.Mesh.Transform(eg.ObjectPlacement))
		}
	}

	var tools []*kernel.Mesh
	for _, o := range eg.Openings {
		for _, s := range o.Solids {
			sm := Synthesize(s)
			res.OpeningOutcomes = append(res.OpeningOutcomes, sm.Outcome)
			if sm.Mesh != nil {
				tools = append(tools, sm.Mesh.Transform(o.ObjectPlacement))
			}
		}
	}

	for i, h := range hosts {
		sub := Subtract(p.Kernel, h, tools)
		hosts[i] = sub.Mesh
		res.Applied += sub.Applied
		res.Skipped = append(res.Skipped, sub.Skipped...)
	}

	switch len(hosts) {
	case 0:
	case 1:
		res.Mesh = hosts[0]
	default:
		res.Mesh = kernel.Merge(hosts...)
	}
	if res.Mesh != nil {
		res.Mesh.PartName = eg.GlobalID
	}
	return res
}

// Run tessellates elements on a bounded pool of workers and returns the
// results in input order. workers <= 0 uses runtime.NumCPU(). When ctx is
// cancelled no further elements are started; ctx.Err() is returned along
// with the results finished so far (unfinished slots are zero).
func (p Pipeline) Run(ctx context.Context, elems []geom.ElementGeometry, workers int) ([]ElementMesh, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	out := make([]ElementMesh, len(elems))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = p.Element(elems[i])
			}
		}()
	}

	var err error
dispatch:
	for i := range elems {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return out, err
}

// Record is the per-element output: identity, mesh and the flat property
// map.
type Record struct {
	GlobalID   string         `json:"globalId"`
	Type       string         `json:"type"`
	Name       string         `json:"name"`
	Mesh       *kernel.Mesh   `json:"mesh,omitempty"`
	Properties map[string]any `json:"properties"`
}

// NewRecord joins a tessellated element with its properties and adds the
// mesh-derived fields NumVertices, NumFaces, BoundsMin and BoundsMax, and
// Volume when the mesh is watertight. props is not modified.
func NewRecord(em ElementMesh, props map[string]any) Record {
	merged := lo.Assign(map[string]any{}, props)
	if m := em.Mesh; !m.IsEmpty() {
		b := m.Bounds()
		merged["NumVertices"] = m.VertexCount()
		merged["NumFaces"] = m.TriangleCount()
		merged["BoundsMin"] = []float64{b.Min[0], b.Min[1], b.Min[2]}
		merged["BoundsMax"] = []float64{b.Max[0], b.Max[1], b.Max[2]}
		if m.IsWatertight() {
			merged["Volume"] = m.Volume()
		}
	}
	return Record{
		GlobalID:   em.Element.GlobalID,
		Type:       em.Element.ElementType,
		Name:       em.Element.Name,
		Mesh:       em.Mesh,
		Properties: merged,
	}
}
