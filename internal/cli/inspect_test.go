package cli

import (
	"testing"

	"github.com/skeltree/skeltree/pkg/skeleton"
	"github.com/skeltree/skeltree/pkg/vec"
)

func buildTestGraph(t *testing.T) *skeleton.Graph {
	t.Helper()
	g := skeleton.NewGraph()
	nodes := []skeleton.Node{
		{ID: 0, Pos: vec.V3{}, Radius: 1},
		{ID: 1, Pos: vec.V3{X: 1}, Radius: 0.5},
		{ID: 2, Pos: vec.V3{X: 2}, Radius: 0.5},
		{ID: 3, Pos: vec.V3{X: 2}, Radius: 0.5}, // duplicate position
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range []skeleton.Edge{{A: 0, B: 1}, {A: 1, B: 2}, {A: 1, B: 3}} {
		if err := g.AddEdge(e); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestGraphStats(t *testing.T) {
	stats := graphStats(buildTestGraph(t))

	if stats.DegreeMin != 1 {
		t.Errorf("degree min = %d, want 1", stats.DegreeMin)
	}
	if stats.DegreeMax != 3 {
		t.Errorf("degree max = %d, want 3", stats.DegreeMax)
	}
	if want := 6.0 / 4.0; stats.DegreeAvg != want {
		t.Errorf("degree avg = %v, want %v", stats.DegreeAvg, want)
	}
	if stats.Duplicates != 2 {
		t.Errorf("duplicates = %d, want 2", stats.Duplicates)
	}
}

func TestGraphStatsEmpty(t *testing.T) {
	stats := graphStats(skeleton.NewGraph())
	if stats.DegreeMin != 0 || stats.DegreeMax != 0 || stats.Duplicates != 0 {
		t.Errorf("empty graph stats = %+v, want zeros", stats)
	}
}

func TestCountOutsideAABB(t *testing.T) {
	g := buildTestGraph(t)
	box := vec.NewAABB(vec.V3{}, vec.V3{X: 1.5, Y: 1, Z: 1})

	if got := countOutsideAABB(g, box); got != 2 {
		t.Errorf("nodes outside box = %d, want 2", got)
	}
}
