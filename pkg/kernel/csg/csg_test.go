package csg

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/chazu/lintel/pkg/kernel"
)

func cube(min, max float64) *kernel.Mesh {
	return kernel.Box(mgl64.Vec3{min, min, min}, mgl64.Vec3{max, max, max})
}

func TestDifference(t *testing.T) {
	host := cube(0, 10)
	tests := []struct {
		name       string
		tool       *kernel.Mesh
		wantVolume float64
	}{
		{"through hole", kernel.Box(mgl64.Vec3{2, 2, -1}, mgl64.Vec3{8, 8, 11}), 1000 - 6*6*10},
		{"corner notch", cube(5, 15), 1000 - 125},
		{"blind pocket", kernel.Box(mgl64.Vec3{2, 2, 5}, mgl64.Vec3{4, 4, 20}), 1000 - 2*2*5},
		{"disjoint tool", cube(20, 30), 1000},
		{"interior cavity", cube(4, 6), 1000 - 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New().Difference(host, tt.tool)
			if err != nil {
				t.Fatalf("Difference() error = %v", err)
			}
			if math.Abs(got.Volume()-tt.wantVolume) > 1e-6 {
				t.Errorf("Volume() = %v, want %v", got.Volume(), tt.wantVolume)
			}
			if len(got.Normals) != len(got.Vertices) {
				t.Errorf("normals length %d != vertices length %d", len(got.Normals), len(got.Vertices))
			}
			if !got.IsWatertight() {
				t.Error("result is not watertight")
			}
		})
	}
}

func TestDifferenceChainStaysClosed(t *testing.T) {
	k := New()
	wall := kernel.Box(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{4000, 200, 2800})
	door := kernel.Box(mgl64.Vec3{500, -50, -100}, mgl64.Vec3{1400, 250, 2100})
	window := kernel.Box(mgl64.Vec3{2200, -50, 900}, mgl64.Vec3{3400, 250, 2100})

	once, err := k.Difference(wall, door)
	if err != nil {
		t.Fatalf("Difference(door) error = %v", err)
	}
	if !once.IsWatertight() {
		t.Fatal("wall minus door is not watertight")
	}
	twice, err := k.Difference(once, window)
	if err != nil {
		t.Fatalf("Difference(window) error = %v", err)
	}
	if !twice.IsWatertight() {
		t.Fatal("wall minus door and window is not watertight")
	}
	want := 4000.0*200*2800 - 900*200*2100 - 1200*200*1200
	if math.Abs(twice.Volume()-want)/want > 1e-9 {
		t.Errorf("Volume() = %v, want %v", twice.Volume(), want)
	}
}

func TestDifferenceLeavesInputsAlone(t *testing.T) {
	host := cube(0, 10)
	tool := cube(5, 15)
	before := host.Clone()

	if _, err := New().Difference(host, tool); err != nil {
		t.Fatalf("Difference() error = %v", err)
	}
	if len(host.Vertices) != len(before.Vertices) || host.Volume() != before.Volume() {
		t.Error("Difference modified its host")
	}
}

func TestDifferenceConsumesHost(t *testing.T) {
	_, err := New().Difference(cube(2, 4), cube(0, 10))
	if !errors.Is(err, kernel.ErrEmptyResult) {
		t.Fatalf("Difference() error = %v, want ErrEmptyResult", err)
	}
}

func TestDifferenceEmptyOperands(t *testing.T) {
	k := New()
	if _, err := k.Difference(&kernel.Mesh{}, cube(0, 1)); !errors.Is(err, kernel.ErrEmptyResult) {
		t.Errorf("empty host: error = %v, want ErrEmptyResult", err)
	}
	got, err := k.Difference(cube(0, 1), &kernel.Mesh{})
	if err != nil {
		t.Fatalf("empty tool: error = %v", err)
	}
	if math.Abs(got.Volume()-1) > 1e-9 {
		t.Errorf("empty tool: Volume() = %v, want 1", got.Volume())
	}
}

func TestName(t *testing.T) {
	if got := New().Name(); got != "csg" {
		t.Errorf("Name() = %q, want csg", got)
	}
}

func TestStitchSplitsTJunction(t *testing.T) {
	quad := func(pts ...mgl64.Vec3) polygon { return polygon{verts: pts} }
	polys := []polygon{
		quad(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{2, 0, 0}, mgl64.Vec3{2, 1, 0}, mgl64.Vec3{0, 1, 0}),
		quad(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 1, 0}, mgl64.Vec3{1, 2, 0}, mgl64.Vec3{0, 2, 0}),
		quad(mgl64.Vec3{1 + 1e-7, 1, 0}, mgl64.Vec3{2, 1, 0}, mgl64.Vec3{2, 2, 0}, mgl64.Vec3{1, 2, 0}),
	}

	out := stitch(polys, DefaultEpsilon)
	if len(out) != 3 {
		t.Fatalf("stitch() returned %d polygons, want 3", len(out))
	}
	if len(out[0]) != 5 || out[0][3] != (mgl64.Vec3{1, 1, 0}) {
		t.Errorf("lower quad = %v, want (1,1,0) inserted into its top edge", out[0])
	}
	if out[2][0] != (mgl64.Vec3{1, 1, 0}) {
		t.Errorf("near vertex %v was not snapped to (1,1,0)", out[2][0])
	}

	tris := fan(out[0], DefaultEpsilon)
	var area float64
	for _, tri := range tris {
		a := tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0])).Len() / 2
		if a < 1e-9 {
			t.Errorf("degenerate triangle %v", tri)
		}
		area += a
	}
	if math.Abs(area-2) > 1e-9 {
		t.Errorf("fan area = %v, want 2", area)
	}
}

func TestStitchDropsSlivers(t *testing.T) {
	sliver := polygon{verts: []mgl64.Vec3{{0, 0, 0}, {10, 0, 0}, {5, 1e-6, 0}}}
	if out := stitch([]polygon{sliver}, DefaultEpsilon); len(out) != 0 {
		t.Errorf("stitch() kept sliver %v", out)
	}
}
