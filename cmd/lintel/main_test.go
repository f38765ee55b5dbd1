package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const house = "../../pkg/ifc/testdata/house.ifc"

func TestSummary(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"summary", "-v", house}, &out); err != nil {
		t.Fatalf("summary: %v", err)
	}
	s := out.String()
	for _, want := range []string{"TYPE", "IfcWallStandardCase", "IfcBeam", "8 elements", "no-profile"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary output lacks %q:\n%s", want, s)
		}
	}
}

func TestSummaryWhere(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), []string{"summary", "-where", `(is-a "IfcWall")`, house}, &out)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !strings.Contains(out.String(), "1 elements") {
		t.Errorf("filtered summary:\n%s", out.String())
	}
	if strings.Contains(out.String(), "IfcSlab") {
		t.Errorf("slab should be filtered out:\n%s", out.String())
	}
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		args []string
		file string
	}{
		{[]string{"-format", "csv"}, "out.txt"},
		{nil, "out.json"},
		{[]string{"-format", "stl", "-engine", "csg", "-workers", "2"}, "out.stl"},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			args := append([]string{"export"}, tt.args...)
			args = append(args, "-o", path, house)

			var out bytes.Buffer
			if err := run(context.Background(), args, &out); err != nil {
				t.Fatalf("export: %v", err)
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatal(err)
			}
			if info.Size() == 0 {
				t.Error("empty output file")
			}
			if !strings.HasPrefix(out.String(), "wrote 8 elements") {
				t.Errorf("output = %q", out.String())
			}
		})
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"render"}},
		{"summary without file", []string{"summary"}},
		{"export without -o", []string{"export", house}},
		{"export unknown format", []string{"export", "-o", "x.obj", house}},
		{"bad engine", []string{"summary", "-engine", "cgal", house}},
		{"bad filter", []string{"summary", "-where", "(is-a", house}},
		{"missing file", []string{"summary", "does-not-exist.ifc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := run(context.Background(), tt.args, &out); err == nil {
				t.Errorf("run(%v) succeeded", tt.args)
			}
		})
	}

	var out bytes.Buffer
	if err := run(context.Background(), nil, &out); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("no args: err = %v", err)
	}
}
