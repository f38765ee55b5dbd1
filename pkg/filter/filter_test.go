package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/chazu/lintel/pkg/extract"
	"github.com/chazu/lintel/pkg/ifc"
)

type fakeSubject struct {
	typ      string
	parents  []string
	name     string
	id       string
	storey   string
	props    map[string]any
	qtos     map[string]float64
	openings int
}

func (f fakeSubject) Type() string     { return f.typ }
func (f fakeSubject) Name() string     { return f.name }
func (f fakeSubject) GlobalID() string { return f.id }
func (f fakeSubject) Storey() string   { return f.storey }
func (f fakeSubject) Openings() int    { return f.openings }

func (f fakeSubject) IsA(t string) bool {
	if t == f.typ {
		return true
	}
	for _, p := range f.parents {
		if p == t {
			return true
		}
	}
	return false
}

func (f fakeSubject) Property(key string) (any, bool) {
	v, ok := f.props[key]
	return v, ok
}

func (f fakeSubject) Quantity(name string) (float64, bool) {
	v, ok := f.qtos[name]
	return v, ok
}

var wall = fakeSubject{
	typ:     "IfcWallStandardCase",
	parents: []string{"IfcWall", "IfcBuildingElement"},
	name:    "Wall 1",
	id:      "2O2Fr$t4X7Zf8NOew3FLOH",
	storey:  "Level 1",
	props: map[string]any{
		"Pset_WallCommon.IsExternal": true,
		"Pset_WallCommon.FireRating": "REI60",
		"NetVolume":                  2.1,
	},
	qtos:     map[string]float64{"NetVolume": 2.1, "Length": 4000},
	openings: 1,
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"type", `(== (type) "IfcWallStandardCase")`, true},
		{"type mismatch", `(== (type) "IfcSlab")`, false},
		{"is-a parent", `(is-a "IfcWall")`, true},
		{"is-a keyword", `(is-a :IfcBuildingElement)`, true},
		{"is-a other", `(is-a "IfcDoor")`, false},
		{"name", `(== (name) "Wall 1")`, true},
		{"global id", `(== (global-id) "2O2Fr$t4X7Zf8NOew3FLOH")`, true},
		{"storey", `(== (storey) "Level 1")`, true},
		{"bool property", `(prop "Pset_WallCommon.IsExternal")`, true},
		{"string property", `(== (prop "Pset_WallCommon.FireRating") "REI60")`, true},
		{"property default", `(prop "Pset_WallCommon.LoadBearing" false)`, false},
		{"has-prop", `(has-prop :Pset_WallCommon.FireRating)`, true},
		{"has-prop missing", `(has-prop "Pset_WallCommon.LoadBearing")`, false},
		{"quantity", `(> (qto "NetVolume") 1.5)`, true},
		{"quantity keyword", `(> (qto :Length) 5000.0)`, false},
		{"missing quantity is zero", `(== (qto "GrossArea") 0.0)`, true},
		{"quantity default", `(> (qto "GrossArea" 10.0) 5.0)`, true},
		{"openings", `(has-openings)`, true},
		{"and", `(and (is-a "IfcWall") (has-openings))`, true},
		{"or", `(or (is-a "IfcSlab") (is-a "IfcDoor"))`, false},
		{"not", `(not (is-a "IfcSlab"))`, true},
		{"comment", "; external walls only\n(prop :Pset_WallCommon.IsExternal)", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Compile(tt.src)
			if err != nil {
				t.Fatalf("Compile(%q): %v", tt.src, err)
			}
			got, err := f.Match(context.Background(), wall)
			if err != nil {
				t.Fatalf("Match: %v", err)
			}
			if got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestBlankSourceMatchesEverything(t *testing.T) {
	for _, src := range []string{"", "  \n\t"} {
		f, err := Compile(src)
		if err != nil {
			t.Fatalf("Compile(%q): %v", src, err)
		}
		if f != nil {
			t.Fatalf("Compile(%q) = %v, want nil filter", src, f)
		}
		ok, err := f.Match(context.Background(), wall)
		if err != nil || !ok {
			t.Errorf("nil filter Match = %v, %v", ok, err)
		}
	}
}

func TestCompileError(t *testing.T) {
	_, err := Compile("(and (is-a \"IfcWall\")")
	if err == nil {
		t.Fatal("expected a compile error")
	}
	var ee EvalError
	if !errors.As(err, &ee) {
		t.Fatalf("error %T is not an EvalError", err)
	}
}

func TestNotBoolean(t *testing.T) {
	f, err := Compile(`(qto "NetVolume")`)
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.Match(context.Background(), wall)
	if !errors.Is(err, ErrNotBoolean) {
		t.Errorf("err = %v, want ErrNotBoolean", err)
	}
}

func TestBuiltinArity(t *testing.T) {
	for _, src := range []string{`(is-a)`, `(type "x")`, `(prop)`, `(qto "a" 1.0 2.0)`} {
		t.Run(src, func(t *testing.T) {
			f, err := Compile(src)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := f.Match(context.Background(), wall); err == nil {
				t.Errorf("Match(%q) succeeded", src)
			}
		})
	}
}

func TestCancelledContext(t *testing.T) {
	f, err := Compile(`(is-a "IfcWall")`)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// The result may still win the race; either way there is no panic and
	// an error, if any, is the context's.
	if _, err := f.Match(ctx, wall); err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}

func TestRewrite(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`(is-a "IfcWall")`, `(is_a "IfcWall")`},
		{`(qto :NetVolume)`, `(qto "__kw_NetVolume")`},
		{`(prop :Pset_WallCommon.FireRating)`, `(prop "__kw_Pset_WallCommon.FireRating")`},
		{`(prop "has-dash :x")`, `(prop "has-dash :x")`},
		{`(- 5 1)`, `(- 5 1)`},
		{`(x := 1)`, `(x := 1)`},
		{";; note\n(type)", "// note\n(type)"},
		{`"esc \" is-a"`, `"esc \" is-a"`},
	}
	for _, tt := range tests {
		if got := rewrite(tt.in); got != tt.want {
			t.Errorf("rewrite(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEvalErrorLine(t *testing.T) {
	tests := []struct {
		msg      string
		wantLine int
		wantMsg  string
	}{
		{"Error on line 3: unexpected token", 3, "unexpected token"},
		{"line 7: bad", 7, "bad"},
		{"something failed", 0, "something failed"},
	}
	for _, tt := range tests {
		ee := evalError(errors.New(tt.msg))
		if ee.Line != tt.wantLine || ee.Message != tt.wantMsg {
			t.Errorf("evalError(%q) = %+v", tt.msg, ee)
		}
	}
}

func TestSelectHouse(t *testing.T) {
	m, err := ifc.ReadFile("../ifc/testdata/house.ifc")
	if err != nil {
		t.Fatal(err)
	}
	x := extract.New(m)
	elems := x.Elements(nil)

	tests := []struct {
		src  string
		want []int
	}{
		{`(is-a "IfcWall")`, []int{41}},
		{`(has-openings)`, []int{41}},
		{`(== (storey) "Ground")`, []int{82, 97, 139}},
		{`(> (qto "NetVolume") 2.0)`, []int{41}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			f, err := Compile(tt.src)
			if err != nil {
				t.Fatal(err)
			}
			got, err := f.Select(context.Background(), x, elems)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("selected %d elements, want %v", len(got), tt.want)
			}
			for i, e := range got {
				if e.ID != tt.want[i] {
					t.Errorf("element %d = #%d, want #%d", i, e.ID, tt.want[i])
				}
			}
		})
	}
}
