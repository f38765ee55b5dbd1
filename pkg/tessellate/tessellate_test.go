package tessellate_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chazu/lintel/pkg/extract"
	"github.com/chazu/lintel/pkg/geom"
	"github.com/chazu/lintel/pkg/ifc"
	"github.com/chazu/lintel/pkg/kernel"
	"github.com/chazu/lintel/pkg/kernel/csg"
	"github.com/chazu/lintel/pkg/tessellate"
)

const eps = 1e-6

// newKernel returns a fresh csg kernel for testing.
func newKernel() kernel.Kernel {
	return csg.New()
}

func rect(w, h, depth float64, loc mgl64.Vec3) geom.SolidGeometry {
	pos := geom.DefaultPlacement()
	pos.Location = loc
	return geom.SolidGeometry{
		Profile:            geom.Rectangle{Type: "IfcRectangleProfileDef", Width: w, Height: h},
		Position:           pos,
		ExtrusionDirection: geom.ZAxis,
		Depth:              depth,
	}
}

func polygon(depth float64, pts ...mgl64.Vec2) geom.SolidGeometry {
	return geom.SolidGeometry{
		Profile:            geom.Polygon{Type: "IfcArbitraryClosedProfileDef", Points: pts},
		Position:           geom.DefaultPlacement(),
		ExtrusionDirection: geom.ZAxis,
		Depth:              depth,
	}
}

func assertBox(t *testing.T, got geom.Box3, min, max mgl64.Vec3) {
	t.Helper()
	for i := 0; i < 3; i++ {
		if math.Abs(got.Min[i]-min[i]) > eps || math.Abs(got.Max[i]-max[i]) > eps {
			t.Fatalf("bounds = %v..%v, want %v..%v", got.Min, got.Max, min, max)
		}
	}
}

func TestSynthesizeRectangle(t *testing.T) {
	tests := []struct {
		name     string
		loc      mgl64.Vec3
		min, max mgl64.Vec3
	}{
		{"untransformed", mgl64.Vec3{}, mgl64.Vec3{-100, -50, 0}, mgl64.Vec3{100, 50, 300}},
		{"translated", mgl64.Vec3{10, 20, 30}, mgl64.Vec3{-90, -30, 30}, mgl64.Vec3{110, 70, 330}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := tessellate.Synthesize(rect(200, 100, 300, tt.loc))
			if sm.Outcome != tessellate.OutcomeOK || sm.Mesh == nil {
				t.Fatalf("Synthesize() outcome = %v, err = %v", sm.Outcome, sm.Err)
			}
			assertBox(t, sm.Mesh.Bounds(), tt.min, tt.max)
			if !sm.Mesh.IsWatertight() {
				t.Error("prism is not watertight")
			}
			if v := sm.Mesh.Volume(); math.Abs(v-200*100*300) > eps {
				t.Errorf("Volume() = %v, want %v", v, 200*100*300)
			}
			if len(sm.Mesh.Normals) != len(sm.Mesh.Vertices) {
				t.Error("normals not computed")
			}
		})
	}
}

func TestSynthesizeRotated(t *testing.T) {
	s := rect(200, 100, 10, mgl64.Vec3{})
	s.Position.Axis = geom.ZAxis
	s.Position.RefDirection = mgl64.Vec3{0, 1, 0}

	sm := tessellate.Synthesize(s)
	if sm.Mesh == nil {
		t.Fatalf("Synthesize() outcome = %v", sm.Outcome)
	}
	// Local X runs along global Y.
	assertBox(t, sm.Mesh.Bounds(), mgl64.Vec3{-50, -100, 0}, mgl64.Vec3{50, 100, 10})
	if v := sm.Mesh.Volume(); v <= 0 {
		t.Errorf("rotation flipped winding: Volume() = %v", v)
	}
}

func TestSynthesizeCircle(t *testing.T) {
	s := geom.SolidGeometry{
		Profile:  geom.Circle{Radius: 150},
		Position: geom.DefaultPlacement(),
		Depth:    3000,
	}
	sm := tessellate.Synthesize(s)
	if sm.Outcome != tessellate.OutcomeOK {
		t.Fatalf("Synthesize() outcome = %v, err = %v", sm.Outcome, sm.Err)
	}
	if got := sm.Mesh.VertexCount(); got != 2*geom.CircleSegments {
		t.Errorf("VertexCount() = %d, want %d", got, 2*geom.CircleSegments)
	}
	for i := 0; i < sm.Mesh.VertexCount(); i++ {
		v := sm.Mesh.Vertex(i)
		if r := math.Hypot(v[0], v[1]); math.Abs(r-150) > eps {
			t.Fatalf("vertex %d at radius %v, want 150", i, r)
		}
	}
	if !sm.Mesh.IsWatertight() {
		t.Error("cylinder is not watertight")
	}
}

func TestSynthesizePolygon(t *testing.T) {
	lshape := []mgl64.Vec2{{0, 0}, {5000, 0}, {5000, 3000}, {2000, 3000}, {2000, 5000}, {0, 5000}}
	area := 5000.0*3000 + 2000*2000

	tests := []struct {
		name string
		pts  []mgl64.Vec2
	}{
		{"closed", append(append([]mgl64.Vec2(nil), lshape...), lshape[0])},
		{"open", lshape},
		{"clockwise", reversed(lshape)},
		{"collinear vertex", []mgl64.Vec2{{0, 0}, {2500, 0}, {5000, 0}, {5000, 3000}, {2000, 3000}, {2000, 5000}, {0, 5000}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := tessellate.Synthesize(polygon(200, tt.pts...))
			if sm.Mesh == nil {
				t.Fatalf("Synthesize() outcome = %v, err = %v", sm.Outcome, sm.Err)
			}
			if v := sm.Mesh.Volume(); math.Abs(v-area*200) > 1e-3 {
				t.Errorf("Volume() = %v, want %v", v, area*200)
			}
			if !sm.Mesh.IsWatertight() {
				t.Error("extruded polygon is not watertight")
			}
		})
	}
}

func reversed(pts []mgl64.Vec2) []mgl64.Vec2 {
	out := make([]mgl64.Vec2, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

func TestSynthesizeFailures(t *testing.T) {
	ishape := geom.SolidGeometry{Profile: geom.IShape{OverallWidth: 100, OverallDepth: 200}, Depth: 10}
	flat := rect(1, 1, 0, mgl64.Vec3{})

	tests := []struct {
		name  string
		solid geom.SolidGeometry
		want  tessellate.Outcome
	}{
		{"nil profile", geom.SolidGeometry{Depth: 1}, tessellate.OutcomeNoProfile},
		{"parameter-only profile", ishape, tessellate.OutcomeNoProfile},
		{"unsupported profile", geom.SolidGeometry{Profile: geom.Unsupported{Type: "IfcLShapeProfileDef"}, Depth: 1}, tessellate.OutcomeNoProfile},
		{"two vertices", polygon(1, mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0}), tessellate.OutcomeNoProfile},
		{"bow tie", polygon(1, mgl64.Vec2{0, 0}, mgl64.Vec2{1, 1}, mgl64.Vec2{1, 0}, mgl64.Vec2{0, 1}), tessellate.OutcomeInvalidPolygon},
		{"collinear ring", polygon(1, mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0}, mgl64.Vec2{2, 0}), tessellate.OutcomeInvalidPolygon},
		{"repeated point", polygon(1, mgl64.Vec2{0, 0}, mgl64.Vec2{0, 0}, mgl64.Vec2{0, 0}), tessellate.OutcomeInvalidPolygon},
		{"zero depth", flat, tessellate.OutcomeDegenerateDepth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := tessellate.Synthesize(tt.solid)
			if sm.Outcome != tt.want {
				t.Errorf("Outcome = %v, want %v", sm.Outcome, tt.want)
			}
			if sm.Mesh != nil {
				t.Error("failed synthesis returned a mesh")
			}
		})
	}
}

func TestSynthesizeOblique(t *testing.T) {
	s := rect(10, 10, 5, mgl64.Vec3{})
	s.ExtrusionDirection = mgl64.Vec3{1, 0, 0}

	sm := tessellate.Synthesize(s)
	if sm.Outcome != tessellate.OutcomeObliqueIgnored {
		t.Fatalf("Outcome = %v, want %v", sm.Outcome, tessellate.OutcomeObliqueIgnored)
	}
	if !sm.Outcome.Produced() || sm.Mesh == nil {
		t.Fatal("oblique solid should still produce a mesh")
	}
	assertBox(t, sm.Mesh.Bounds(), mgl64.Vec3{-5, -5, 0}, mgl64.Vec3{5, 5, 5})
}

// fakeKernel replays scripted behaviors per call.
type fakeKernel struct {
	calls int
	steps []func(a, b *kernel.Mesh) (*kernel.Mesh, error)
}

func (k *fakeKernel) Name() string { return "fake" }

func (k *fakeKernel) Difference(a, b *kernel.Mesh) (*kernel.Mesh, error) {
	step := k.steps[k.calls]
	k.calls++
	return step(a, b)
}

func TestSubtractNoTools(t *testing.T) {
	host := kernel.Box(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1})
	res := tessellate.Subtract(&fakeKernel{}, host, nil)
	if res.Mesh != host {
		t.Error("Subtract with no tools should return the host itself")
	}
	if res.Applied != 0 || len(res.Skipped) != 0 {
		t.Errorf("Applied = %d, Skipped = %v", res.Applied, res.Skipped)
	}
}

func TestSubtractBestEffort(t *testing.T) {
	host := kernel.Box(mgl64.Vec3{}, mgl64.Vec3{10, 10, 10})
	tool := kernel.Box(mgl64.Vec3{1, 1, 1}, mgl64.Vec3{2, 2, 2})
	shrunk := kernel.Box(mgl64.Vec3{}, mgl64.Vec3{5, 5, 5})
	boom := errors.New("boom")

	open := tool.Clone()
	open.Indices = open.Indices[:len(open.Indices)-3]

	k := &fakeKernel{steps: []func(a, b *kernel.Mesh) (*kernel.Mesh, error){
		func(a, b *kernel.Mesh) (*kernel.Mesh, error) { panic("kernel bug") },
		func(a, b *kernel.Mesh) (*kernel.Mesh, error) { return nil, boom },
		func(a, b *kernel.Mesh) (*kernel.Mesh, error) { return &kernel.Mesh{}, nil },
		func(a, b *kernel.Mesh) (*kernel.Mesh, error) {
			if a != host {
				t.Error("failed tools must leave the host unchanged")
			}
			return shrunk, nil
		},
		func(a, b *kernel.Mesh) (*kernel.Mesh, error) {
			leaky := a.Clone()
			leaky.Indices = leaky.Indices[3:]
			return leaky, nil
		},
	}}
	far := kernel.Box(mgl64.Vec3{100, 100, 100}, mgl64.Vec3{101, 101, 101})
	tools := []*kernel.Mesh{tool, nil, tool, open, tool, far, tool, tool}

	res := tessellate.Subtract(k, host, tools)

	if res.Mesh != shrunk {
		t.Error("successful tool result was not kept")
	}
	if k.calls != 5 {
		t.Errorf("kernel called %d times, want 5", k.calls)
	}
	if res.Applied != 2 {
		t.Errorf("Applied = %d, want 2 (one cut, one disjoint)", res.Applied)
	}

	want := []struct {
		index int
		err   error
	}{
		{0, tessellate.ErrKernelPanic},
		{1, tessellate.ErrEmptyTool},
		{2, boom},
		{3, tessellate.ErrToolNotClosed},
		{4, tessellate.ErrEmptyDifference},
		{7, tessellate.ErrOpenDifference},
	}
	if len(res.Skipped) != len(want) {
		t.Fatalf("Skipped = %v, want %d failures", res.Skipped, len(want))
	}
	for i, w := range want {
		if res.Skipped[i].Index != w.index || !errors.Is(res.Skipped[i].Err, w.err) {
			t.Errorf("Skipped[%d] = %v, want tool %d: %v", i, res.Skipped[i], w.index, w.err)
		}
	}
}

func wallWithOpening(openingSolids ...geom.SolidGeometry) geom.ElementGeometry {
	wall := rect(4000, 200, 2800, mgl64.Vec3{2000, 100, 0})
	return geom.ElementGeometry{
		ElementType:     "IfcWall",
		GlobalID:        "3vB2YO$MX4xv5uCqZZG05x",
		Name:            "Wall A",
		ObjectPlacement: geom.Translation(mgl64.Vec3{0, 0, 3000}),
		Solids:          []geom.SolidGeometry{wall},
		Openings: []geom.OpeningGeometry{{
			GlobalID:        "1hqIFTRjfV6AWq_bMtnZwI",
			ObjectPlacement: geom.Translation(mgl64.Vec3{1000, 0, 3900}),
			Solids:          openingSolids,
		}},
	}
}

func TestPipelineElement(t *testing.T) {
	p := tessellate.Pipeline{Kernel: newKernel()}

	t.Run("opening cut", func(t *testing.T) {
		em := p.Element(wallWithOpening(rect(900, 300, 1200, mgl64.Vec3{450, 100, 0})))
		if !em.Produced() {
			t.Fatal("no mesh produced")
		}
		if em.Applied != 1 || len(em.Skipped) != 0 {
			t.Fatalf("Applied = %d, Skipped = %v", em.Applied, em.Skipped)
		}
		want := 4000.0*200*2800 - 900*200*1200
		if v := em.Mesh.Volume(); math.Abs(v-want)/want > 1e-6 {
			t.Errorf("Volume() = %v, want %v", v, want)
		}
		assertBox(t, em.Mesh.Bounds(), mgl64.Vec3{0, 0, 3000}, mgl64.Vec3{4000, 200, 5800})
		if em.Mesh.PartName != "3vB2YO$MX4xv5uCqZZG05x" {
			t.Errorf("PartName = %q", em.Mesh.PartName)
		}
		if !em.Mesh.IsWatertight() {
			t.Fatal("cut wall is not watertight")
		}
		r := tessellate.NewRecord(em, nil)
		if v, ok := r.Properties["Volume"].(float64); !ok || math.Abs(v-want)/want > 1e-6 {
			t.Errorf("record Volume = %v, want %v", r.Properties["Volume"], want)
		}
	})

	t.Run("two openings cut", func(t *testing.T) {
		eg := wallWithOpening(rect(900, 300, 1200, mgl64.Vec3{450, 100, 0}))
		eg.Openings = append(eg.Openings, geom.OpeningGeometry{
			GlobalID:        "0BcMVbV$f4rQLh7AIKz9Tm",
			ObjectPlacement: geom.Translation(mgl64.Vec3{2500, 0, 3000}),
			Solids:          []geom.SolidGeometry{rect(1000, 300, 2100, mgl64.Vec3{500, 100, -100})},
		})
		em := p.Element(eg)
		if em.Applied != 2 || len(em.Skipped) != 0 {
			t.Fatalf("Applied = %d, Skipped = %v", em.Applied, em.Skipped)
		}
		want := 4000.0*200*2800 - 900*200*1200 - 1000*200*2000
		r := tessellate.NewRecord(em, nil)
		if v, ok := r.Properties["Volume"].(float64); !ok || math.Abs(v-want)/want > 1e-6 {
			t.Errorf("record Volume = %v, want %v", r.Properties["Volume"], want)
		}
	})

	t.Run("opening without mesh leaves host whole", func(t *testing.T) {
		ishape := geom.SolidGeometry{Profile: geom.IShape{}, Depth: 10}
		em := p.Element(wallWithOpening(ishape))
		if em.Applied != 0 || len(em.Skipped) != 0 {
			t.Fatalf("Applied = %d, Skipped = %v", em.Applied, em.Skipped)
		}
		if len(em.OpeningOutcomes) != 1 || em.OpeningOutcomes[0] != tessellate.OutcomeNoProfile {
			t.Errorf("OpeningOutcomes = %v", em.OpeningOutcomes)
		}
		if v := em.Mesh.Volume(); math.Abs(v-4000.0*200*2800) > 1 {
			t.Errorf("Volume() = %v, want the uncut wall", v)
		}
		if !em.Mesh.IsWatertight() {
			t.Error("uncut wall should stay watertight")
		}
	})

	t.Run("no solids", func(t *testing.T) {
		em := p.Element(geom.ElementGeometry{ElementType: "IfcCovering"})
		if em.Produced() || em.Mesh != nil {
			t.Error("element without solids produced a mesh")
		}
	})

	t.Run("several solids merge", func(t *testing.T) {
		eg := geom.ElementGeometry{
			ObjectPlacement: geom.Identity(),
			Solids: []geom.SolidGeometry{
				rect(10, 10, 10, mgl64.Vec3{}),
				rect(10, 10, 10, mgl64.Vec3{100, 0, 0}),
				{Profile: geom.IShape{}, Depth: 1},
			},
		}
		em := p.Element(eg)
		if em.Mesh.TriangleCount() != 24 {
			t.Errorf("TriangleCount() = %d, want 24", em.Mesh.TriangleCount())
		}
		want := []tessellate.Outcome{tessellate.OutcomeOK, tessellate.OutcomeOK, tessellate.OutcomeNoProfile}
		for i, o := range want {
			if em.Outcomes[i] != o {
				t.Errorf("Outcomes[%d] = %v, want %v", i, em.Outcomes[i], o)
			}
		}
	})
}

func TestPipelineRun(t *testing.T) {
	p := tessellate.Pipeline{Kernel: newKernel()}
	elems := make([]geom.ElementGeometry, 20)
	for i := range elems {
		elems[i] = geom.ElementGeometry{
			GlobalID:        string(rune('A' + i)),
			ObjectPlacement: geom.Translation(mgl64.Vec3{float64(i) * 100, 0, 0}),
			Solids:          []geom.SolidGeometry{rect(10, 10, 10, mgl64.Vec3{})},
		}
	}

	out, err := p.Run(context.Background(), elems, 4)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for i, em := range out {
		if em.Element.GlobalID != elems[i].GlobalID {
			t.Fatalf("result %d out of order: %q", i, em.Element.GlobalID)
		}
		if c := em.Mesh.Bounds().Center(); math.Abs(c[0]-float64(i)*100) > eps {
			t.Errorf("result %d centered at %v", i, c)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Run(ctx, elems, 2); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() on cancelled context error = %v, want context.Canceled", err)
	}
}

func TestNewRecord(t *testing.T) {
	em := tessellate.Pipeline{Kernel: newKernel()}.Element(geom.ElementGeometry{
		ElementType:     "IfcColumn",
		GlobalID:        "2P0Sz5Uoz1VQmXb5kLK8fE",
		Name:            "Column C1",
		ObjectPlacement: geom.Identity(),
		Solids:          []geom.SolidGeometry{rect(2, 3, 4, mgl64.Vec3{1, 1.5, 0})},
	})
	props := map[string]any{"Name": "Column C1", "Storey": "Ground"}

	r := tessellate.NewRecord(em, props)
	if r.GlobalID != "2P0Sz5Uoz1VQmXb5kLK8fE" || r.Type != "IfcColumn" || r.Name != "Column C1" {
		t.Errorf("identity = %q %q %q", r.GlobalID, r.Type, r.Name)
	}
	if r.Properties["NumVertices"] != 8 || r.Properties["NumFaces"] != 12 {
		t.Errorf("counts = %v/%v", r.Properties["NumVertices"], r.Properties["NumFaces"])
	}
	if v, ok := r.Properties["Volume"].(float64); !ok || math.Abs(v-24) > eps {
		t.Errorf("Volume = %v, want 24", r.Properties["Volume"])
	}
	if got := r.Properties["BoundsMax"].([]float64); got[0] != 2 || got[1] != 3 || got[2] != 4 {
		t.Errorf("BoundsMax = %v", got)
	}
	if r.Properties["Storey"] != "Ground" {
		t.Error("properties not carried over")
	}
	if _, ok := props["Volume"]; ok {
		t.Error("NewRecord modified its input map")
	}

	empty := tessellate.NewRecord(tessellate.ElementMesh{}, nil)
	if _, ok := empty.Properties["NumVertices"]; ok {
		t.Error("mesh fields set without a mesh")
	}
}

func TestHouseEndToEnd(t *testing.T) {
	m, err := ifc.ReadFile("../ifc/testdata/house.ifc")
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	x := extract.New(m)
	out, err := tessellate.Pipeline{Kernel: newKernel()}.Run(context.Background(), x.ExtractAll(nil), 0)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	byType := map[string]tessellate.ElementMesh{}
	for _, em := range out {
		byType[em.Element.ElementType] = em
	}

	wall := byType["IfcWallStandardCase"]
	if !wall.Produced() || wall.Applied != 1 {
		t.Fatalf("wall: produced = %v, applied = %d, skipped = %v", wall.Produced(), wall.Applied, wall.Skipped)
	}
	want := 4000.0*200*2800 - 900*200*1200
	if v := wall.Mesh.Volume(); math.Abs(v-want)/want > 1e-6 {
		t.Errorf("wall volume = %v, want %v", v, want)
	}
	assertBox(t, wall.Mesh.Bounds(), mgl64.Vec3{800, 500, 3000}, mgl64.Vec3{1000, 4500, 5800})

	if beam := byType["IfcBeam"]; beam.Produced() || beam.Outcomes[0] != tessellate.OutcomeNoProfile {
		t.Errorf("beam: produced = %v, outcomes = %v", beam.Produced(), beam.Outcomes)
	}
	if byType["IfcCovering"].Produced() {
		t.Error("covering without representation produced a mesh")
	}
	for _, typ := range []string{"IfcSlab", "IfcColumn", "IfcRoof", "IfcFooting", "IfcDoor"} {
		if !byType[typ].Produced() {
			t.Errorf("%s produced no mesh", typ)
		}
	}
	if v := byType["IfcSlab"].Mesh.Volume(); math.Abs(v-(5000.0*3000+2000*2000)*200) > 1 {
		t.Errorf("slab volume = %v", v)
	}
}
