package morph

import (
	"testing"

	skelerrors "github.com/skeltree/skeltree/pkg/errors"
	"github.com/skeltree/skeltree/pkg/skeleton"
	"github.com/skeltree/skeltree/pkg/vec"
)

func buildGraph(t *testing.T, nodes []skeleton.Node, edges []skeleton.Edge) *skeleton.Graph {
	t.Helper()
	g := skeleton.NewGraph()
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%d): %v", n.ID, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(e); err != nil {
			t.Fatalf("AddEdge(%v): %v", e, err)
		}
	}
	return g
}

func TestResolveSoma(t *testing.T) {
	g := buildGraph(t, []skeleton.Node{
		{ID: 0, Pos: vec.V3{}},
		{ID: 1, Pos: vec.V3{X: 0.5}}, // exactly on the boundary
		{ID: 2, Pos: vec.V3{X: 2}},
	}, []skeleton.Edge{{A: 0, B: 1}, {A: 1, B: 2}})

	res, err := ResolveSoma(g, vec.V3{}, 0.5)
	if err != nil {
		t.Fatalf("ResolveSoma: %v", err)
	}
	if res.Detached {
		t.Error("unexpected detached resolution")
	}
	if !res.Interior[0] || !res.Interior[1] {
		t.Errorf("interior = %v, want nodes 0 and 1 (boundary inclusive)", res.Interior)
	}
	if res.Interior[2] {
		t.Error("node 2 wrongly absorbed into soma")
	}
	if res.Anchor != 0 {
		t.Errorf("anchor = %d, want 0", res.Anchor)
	}
}

func TestResolveSomaAnchorTieBreak(t *testing.T) {
	// nodes 1 and 3 are equidistant from the centre; lower ID anchors
	g := buildGraph(t, []skeleton.Node{
		{ID: 3, Pos: vec.V3{X: 0.3}},
		{ID: 1, Pos: vec.V3{X: -0.3}},
	}, nil)

	res, err := ResolveSoma(g, vec.V3{}, 1)
	if err != nil {
		t.Fatalf("ResolveSoma: %v", err)
	}
	if res.Anchor != 1 {
		t.Errorf("anchor = %d, want 1", res.Anchor)
	}
}

func TestResolveSomaDetached(t *testing.T) {
	g := buildGraph(t, []skeleton.Node{
		{ID: 0, Pos: vec.V3{X: 10}},
		{ID: 1, Pos: vec.V3{X: 12}},
	}, []skeleton.Edge{{A: 0, B: 1}})

	res, err := ResolveSoma(g, vec.V3{}, 1)
	if err != nil {
		t.Fatalf("ResolveSoma: %v", err)
	}
	if !res.Detached {
		t.Fatal("expected detached resolution")
	}
	if len(res.Interior) != 0 {
		t.Errorf("interior = %v, want empty", res.Interior)
	}
	if res.Anchor != 0 {
		t.Errorf("anchor = %d, want nearest node 0", res.Anchor)
	}
}

func TestResolveSomaEmptyGraph(t *testing.T) {
	_, err := ResolveSoma(skeleton.NewGraph(), vec.V3{}, 1)
	if err == nil {
		t.Fatal("expected error for empty graph")
	}
	if code := skelerrors.GetCode(err); code != skelerrors.ErrCodeMalformedGraph {
		t.Errorf("code = %s, want %s", code, skelerrors.ErrCodeMalformedGraph)
	}
}
