// Package app wires the stages together: an IFC model goes through
// extraction, the element filter, tessellation with the configured kernel,
// and comes out as records ready for export or the HTTP API.
package app

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/chazu/lintel/pkg/config"
	"github.com/chazu/lintel/pkg/extract"
	"github.com/chazu/lintel/pkg/filter"
	"github.com/chazu/lintel/pkg/geom"
	"github.com/chazu/lintel/pkg/ifc"
	"github.com/chazu/lintel/pkg/kernel"
	"github.com/chazu/lintel/pkg/kernel/csg"
	"github.com/chazu/lintel/pkg/kernel/manifold"
	"github.com/chazu/lintel/pkg/kernel/sdfx"
	"github.com/chazu/lintel/pkg/tessellate"
)

// App runs models through the pipeline. It is safe for concurrent use.
type App struct {
	cfg    *config.Config
	kernel kernel.Kernel
	filter *filter.Filter
}

// New builds an App from cfg: it selects the kernel and compiles the
// filter expression.
func New(cfg *config.Config) (*App, error) {
	k, err := NewKernel(cfg)
	if err != nil {
		return nil, err
	}
	f, err := filter.Compile(cfg.Filter)
	if err != nil {
		return nil, err
	}
	return &App{cfg: cfg, kernel: k, filter: f}, nil
}

// NewKernel returns the boolean kernel named by cfg.Engine.
func NewKernel(cfg *config.Config) (kernel.Kernel, error) {
	switch cfg.Engine {
	case config.EngineCSG, "":
		return csg.New(), nil
	case config.EngineSDFX:
		k := sdfx.New()
		if cfg.SDFCells > 0 {
			k.Cells = cfg.SDFCells
		}
		return k, nil
	case config.EngineManifold:
		k, err := manifold.New()
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		return k, nil
	}
	return nil, fmt.Errorf("app: unknown engine %q", cfg.Engine)
}

// Config returns the configuration the App was built with.
func (a *App) Config() *config.Config { return a.cfg }

// Kernel returns the boolean kernel in use.
func (a *App) Kernel() kernel.Kernel { return a.kernel }

// Result is the output of processing one model.
type Result struct {
	Elements []tessellate.ElementMesh
	Records  []tessellate.Record
	Summary  []extract.Summary
	Warnings []string
}

// Process extracts, filters and tessellates the elements of m. Only
// cancellation and filter evaluation errors fail the call; geometric
// problems are reported as warnings.
func (a *App) Process(ctx context.Context, m *ifc.Model) (*Result, error) {
	x := extract.New(m)
	res := &Result{}

	ents, err := a.filter.Select(ctx, x, x.Elements(a.cfg.ElementTypes))
	if err != nil {
		return nil, err
	}
	if limit := a.cfg.MaxElements; limit > 0 && len(ents) > limit {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("%d elements selected, processing the first %d", len(ents), limit))
		ents = ents[:limit]
	}

	geoms := lo.Map(ents, func(e *ifc.Entity, _ int) geom.ElementGeometry {
		return x.ExtractElement(e)
	})
	res.Warnings = append(res.Warnings, identify(geoms, ents)...)
	res.Summary = extract.Summarize(geoms)

	p := tessellate.Pipeline{Kernel: a.kernel}
	res.Elements, err = p.Run(ctx, geoms, a.cfg.Workers)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	res.Records = make([]tessellate.Record, len(ents))
	for i, em := range res.Elements {
		props := x.Properties(ents[i])
		props["GlobalId"] = em.Element.GlobalID
		if pl := em.Element.ObjectPlacement; !pl.IsIdentity() {
			props["ObjectPlacement"] = pl.RowMajor()
		}
		if em.Element.HasBoolean() {
			props["HasBoolean"] = true
		}
		res.Records[i] = tessellate.NewRecord(em, props)
		res.Warnings = append(res.Warnings, warnings(em)...)
	}
	return res, nil
}

// Color returns the display color of an element type.
func (a *App) Color(elementType string) string {
	return a.cfg.Color(elementType)
}
