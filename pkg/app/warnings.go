package app

import (
	"fmt"

	"github.com/chazu/lintel/pkg/geom"
	"github.com/chazu/lintel/pkg/ifc"
	"github.com/chazu/lintel/pkg/tessellate"
)

// identify checks the GlobalId of every element. An element without one
// is given a fresh GlobalId so its record can still be keyed.
func identify(geoms []geom.ElementGeometry, ents []*ifc.Entity) []string {
	var out []string
	for i := range geoms {
		g := &geoms[i]
		switch {
		case g.GlobalID == "":
			g.GlobalID = ifc.NewGlobalID()
			out = append(out, fmt.Sprintf("%s #%d: missing GlobalId, assigned %s", g.ElementType, ents[i].ID, g.GlobalID))
		case !ifc.ValidGlobalID(g.GlobalID):
			out = append(out, fmt.Sprintf("%s #%d: malformed GlobalId %q", g.ElementType, ents[i].ID, g.GlobalID))
		}
	}
	return out
}

// warnings describes everything that degraded an element's geometry.
func warnings(em tessellate.ElementMesh) []string {
	el := em.Element
	label := fmt.Sprintf("%s %s", el.ElementType, el.GlobalID)
	if el.Name != "" {
		label += fmt.Sprintf(" (%s)", el.Name)
	}

	var out []string
	if len(el.Solids) == 0 {
		out = append(out, label+": no extractable body geometry")
	}
	for _, item := range el.SkippedItems {
		out = append(out, fmt.Sprintf("%s: skipped %s representation item", label, item))
	}
	for i, o := range em.Outcomes {
		if o != tessellate.OutcomeOK {
			out = append(out, fmt.Sprintf("%s: solid %d: %s", label, i, o))
		}
	}
	for i, o := range em.OpeningOutcomes {
		if !o.Produced() {
			out = append(out, fmt.Sprintf("%s: opening solid %d: %s", label, i, o))
		}
	}
	for _, f := range em.Skipped {
		out = append(out, fmt.Sprintf("%s: opening not subtracted: %v", label, f))
	}
	if el.HasBoolean() {
		out = append(out, label+": boolean clipping not applied")
	}
	return out
}
