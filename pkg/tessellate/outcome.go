package tessellate

import "fmt"

// Outcome classifies the result of synthesizing one solid.
type Outcome int

const (
	// OutcomeOK means a mesh was produced.
	OutcomeOK Outcome = iota
	// OutcomeNoProfile means the profile had fewer than three vertices,
	// including parameter-only profiles such as I-shapes.
	OutcomeNoProfile
	// OutcomeInvalidPolygon means the profile ring was self-intersecting,
	// had no area, or triangulation failed.
	OutcomeInvalidPolygon
	// OutcomeDegenerateDepth means the extrusion depth was not positive.
	OutcomeDegenerateDepth
	// OutcomeObliqueIgnored means a mesh was produced along local Z even
	// though the solid asked for a different extrusion direction.
	OutcomeObliqueIgnored
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNoProfile:
		return "no-profile"
	case OutcomeInvalidPolygon:
		return "invalid-polygon"
	case OutcomeDegenerateDepth:
		return "degenerate-depth"
	case OutcomeObliqueIgnored:
		return "oblique-ignored"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Produced reports whether the outcome comes with a mesh.
func (o Outcome) Produced() bool {
	return o == OutcomeOK || o == OutcomeObliqueIgnored
}
