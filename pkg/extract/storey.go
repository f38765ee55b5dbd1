package extract

import (
	"fmt"
	"math"
	"sort"

	"github.com/chazu/lintel/pkg/ifc"
)

// UnknownStorey is reported when no storey can be assigned.
const UnknownStorey = "Unknown"

type storey struct {
	name      string
	elevation float64
}

// Storeys returns the building storey names ordered by elevation.
func (x *Extractor) Storeys() []string {
	x.loadStoreys()
	names := make([]string, len(x.storeys))
	for i, s := range x.storeys {
		names[i] = s.name
	}
	return names
}

func (x *Extractor) loadStoreys() {
	x.storeyOnce.Do(func() {
		for _, e := range x.model.ByType("IfcBuildingStorey") {
			elev, _ := e.Float("Elevation")
			name := e.Name()
			if name == "" {
				name = fmt.Sprintf("Level %.1f", elev)
			}
			x.storeys = append(x.storeys, storey{name: name, elevation: elev})
		}
		sort.SliceStable(x.storeys, func(i, j int) bool {
			return x.storeys[i].elevation < x.storeys[j].elevation
		})
	})
}

// Storey names the building storey of an element: the storey that contains
// it through IfcRelContainedInSpatialStructure, otherwise the storey whose
// elevation is closest to the element's placed height, otherwise
// UnknownStorey.
func (x *Extractor) Storey(e *ifc.Entity) string {
	x.loadStoreys()
	if len(x.storeys) == 0 {
		return UnknownStorey
	}

	for _, rel := range x.model.Inverse(e, "IfcRelContainedInSpatialStructure", "RelatedElements") {
		if s := rel.Ref("RelatingStructure"); s.IsA("IfcBuildingStorey") {
			if name := s.Name(); name != "" {
				return name
			}
			return UnknownStorey
		}
	}

	if e.Ref("ObjectPlacement") == nil {
		return UnknownStorey
	}
	z := x.ResolvePlacement(e).At(2, 3)
	best, bestDist := UnknownStorey, math.Inf(1)
	for _, s := range x.storeys {
		if d := math.Abs(z - s.elevation); d < bestDist {
			best, bestDist = s.name, d
		}
	}
	return best
}
