package morph

import (
	"testing"

	"github.com/skeltree/skeltree/pkg/vec"
)

func TestParseVerbosity(t *testing.T) {
	tests := []struct {
		name string
		want Verbosity
		ok   bool
	}{
		{"all", VerbosityAll, true},
		{"debug", VerbosityDebug, true},
		{"info", VerbosityInfo, true},
		{"warning", VerbosityWarning, true},
		{"error", VerbosityError, true},
		{"chatty", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseVerbosity(tt.name)
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("ParseVerbosity(%q) = (%v, %v), want %v", tt.name, got, err, tt.want)
		}
		if !tt.ok && err == nil {
			t.Errorf("ParseVerbosity(%q) succeeded, want error", tt.name)
		}
	}
}

func TestDebugArtifactsTiers(t *testing.T) {
	g := referenceGraph(t)
	res := resolve(t, g, vec.V3{}, 0.5)

	base := func() (*Morphology, int) {
		var diags Diagnostics
		tree := BuildTree(g, res, &diags)
		m := NewMorphology(Soma{Centre: vec.V3{}, Radius: 0.5})
		Segmenter{}.Build(g, tree, m, &diags)
		m.Transform(1)
		return m, m.SectionCount()
	}

	// soma star: 25 steps on 3 circles; axis markers: 3 bars + 6 fingers
	const debugExtra = somaStarPoints*3 + 9

	tests := []struct {
		v     Verbosity
		extra int
	}{
		{0, 0}, // unset verbosity emits nothing
		{VerbosityError, 0},
		{VerbosityWarning, 0},
		{VerbosityInfo, 0},
		{VerbosityDebug, debugExtra},
		{VerbosityAll, debugExtra + 1}, // one interior node
	}
	for _, tt := range tests {
		m, before := base()
		DebugArtifacts(m, g, res, tt.v, 1)
		if got := m.SectionCount() - before; got != tt.extra {
			t.Errorf("%s: extra sections = %d, want %d", tt.v, got, tt.extra)
		}
	}
}

func TestDebugArtifactsDisjoint(t *testing.T) {
	g := referenceGraph(t)
	res := resolve(t, g, vec.V3{}, 0.5)

	var diags Diagnostics
	tree := BuildTree(g, res, &diags)
	m := NewMorphology(Soma{Centre: vec.V3{}, Radius: 0.5})
	Segmenter{}.Build(g, tree, m, &diags)
	m.Transform(1)

	realRoots := len(m.Roots)
	realPoints := make(map[*Section][]Point)
	m.Walk(func(s *Section) {
		pts := make([]Point, len(s.Points))
		copy(pts, s.Points)
		realPoints[s] = pts
	})

	DebugArtifacts(m, g, res, VerbosityAll, 1)

	// artifacts only append new root subtrees; real sections untouched
	if len(m.Roots) <= realRoots {
		t.Fatal("no artifact roots appended")
	}
	for s, want := range realPoints {
		if len(s.Points) != len(want) {
			t.Errorf("section %d point count changed", s.ID)
			continue
		}
		for i := range want {
			if s.Points[i] != want[i] {
				t.Errorf("section %d point %d changed", s.ID, i)
			}
		}
	}

	// every artifact stub has two points and the debug diameter
	for _, r := range m.Roots[realRoots:] {
		if len(r.Points) != 2 {
			t.Errorf("artifact root has %d points, want 2", len(r.Points))
		}
		if r.Points[0].Diameter != debugStubDiameter {
			t.Errorf("artifact diameter = %v, want %v", r.Points[0].Diameter, debugStubDiameter)
		}
	}
}
