package skeleton

import (
	"errors"
	"slices"

	skelerrors "github.com/skeltree/skeltree/pkg/errors"
	"github.com/skeltree/skeltree/pkg/vec"
)

var (
	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same identifier already exists. Node identifiers must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrNegativeRadius is returned by [Graph.AddNode] for nodes with a
	// negative radius. Zero means "unknown" and is allowed.
	ErrNegativeRadius = errors.New("node radius must not be negative")

	// ErrUnknownEndpoint is returned by [Graph.AddEdge] when either endpoint
	// does not exist in the graph.
	ErrUnknownEndpoint = errors.New("unknown edge endpoint")
)

// Node is a vertex of the flattened skeleton graph: a position in skeleton
// space and the local radius (half the measured thickness; zero if unknown).
// Nodes are immutable once added, except for radius overrides applied through
// cross-section data before the graph is built.
type Node struct {
	ID     int
	Pos    vec.V3
	Radius float64
}

// Edge is an undirected connection between two nodes. The graph may contain
// cycles and parallel paths; neither is an error here. Cycle edges are
// detected and dropped later, while the spanning tree is built.
type Edge struct {
	A int
	B int
}

// Graph is the undirected node/edge view of a skeleton. It is a pure data
// holder: neighbor lookup and degree only, no traversal logic.
//
// The zero value is not usable; use NewGraph. Graph is not safe for
// concurrent mutation, but conversions never share one (each run builds its
// own from its own inputs).
type Graph struct {
	nodes map[int]Node
	edges []Edge
	adj   map[int][]int
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[int]Node),
		adj:   make(map[int][]int),
	}
}

// AddNode adds a node to the graph.
// Returns ErrDuplicateNodeID if the identifier is already present, or
// ErrNegativeRadius for a negative radius.
func (g *Graph) AddNode(n Node) error {
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Radius < 0 {
		return ErrNegativeRadius
	}
	g.nodes[n.ID] = n
	return nil
}

// AddEdge adds an undirected edge between two existing nodes.
// Returns ErrUnknownEndpoint if either node does not exist. Self-loops and
// parallel edges are accepted; the tree builder reports them as cycle edges.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.A]; !ok {
		return ErrUnknownEndpoint
	}
	if _, ok := g.nodes[e.B]; !ok {
		return ErrUnknownEndpoint
	}
	g.edges = append(g.edges, e)
	if !slices.Contains(g.adj[e.A], e.B) {
		g.adj[e.A] = append(g.adj[e.A], e.B)
	}
	if e.A != e.B && !slices.Contains(g.adj[e.B], e.A) {
		g.adj[e.B] = append(g.adj[e.B], e.A)
	}
	return nil
}

// Node returns the node with the given identifier and true, or a zero node
// and false if not found.
func (g *Graph) Node(id int) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// SetRadius overrides a node's radius. This is the single mutation the graph
// permits after construction; it exists for cross-section override merging.
func (g *Graph) SetRadius(id int, radius float64) bool {
	n, ok := g.nodes[id]
	if !ok || radius < 0 {
		return false
	}
	n.Radius = radius
	g.nodes[id] = n
	return true
}

// Neighbors returns the identifiers adjacent to the node, sorted ascending.
// Sorted order is what makes repeated conversions byte-identical.
func (g *Graph) Neighbors(id int) []int {
	ns := slices.Clone(g.adj[id])
	slices.Sort(ns)
	return ns
}

// Degree returns the number of distinct neighbors of the node.
func (g *Graph) Degree(id int) int { return len(g.adj[id]) }

// Nodes returns all nodes sorted by ascending identifier.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b Node) int { return a.ID - b.ID })
	return out
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// NearestNode returns the identifier of the node closest to pos, breaking
// distance ties by lower identifier. The second result is false for an empty
// graph.
func (g *Graph) NearestNode(pos vec.V3) (int, bool) {
	best, bestD := 0, 0.0
	found := false
	for _, n := range g.Nodes() {
		d := vec.DistSq(pos, n.Pos)
		if !found || d < bestD {
			best, bestD, found = n.ID, d, true
		}
	}
	return best, found
}

// BuildGraph flattens a skeleton's polyline segments into a node/edge graph.
//
// Named skeleton nodes keep their identifiers. Interior polyline points
// become synthetic degree-2 nodes with identifiers allocated above the
// highest named identifier, chained between their segment's endpoints, so
// downstream consumers see a plain graph of positioned, radius-carrying
// vertices. Endpoint radii are taken from the polyline end thicknesses; the
// first non-zero observation wins when segments disagree.
//
// Segments whose endpoints are missing from the node table make the input
// malformed.
func BuildGraph(s *Skeleton) (*Graph, error) {
	g := NewGraph()

	ids := make([]int, 0, len(s.Nodes))
	nextID := 0
	for id := range s.Nodes {
		ids = append(ids, id)
		if id >= nextID {
			nextID = id + 1
		}
	}
	slices.Sort(ids)
	for _, id := range ids {
		if err := g.AddNode(Node{ID: id, Pos: s.Nodes[id]}); err != nil {
			return nil, skelerrors.Wrap(skelerrors.ErrCodeMalformedGraph, err, "node %d", id)
		}
	}

	for si := range s.Segments {
		seg := &s.Segments[si]
		if _, ok := s.Nodes[seg.Start]; !ok {
			return nil, skelerrors.New(skelerrors.ErrCodeMalformedGraph,
				"segment %d references unknown start node %d", si, seg.Start)
		}
		if _, ok := s.Nodes[seg.End]; !ok {
			return nil, skelerrors.New(skelerrors.ErrCodeMalformedGraph,
				"segment %d references unknown end node %d", si, seg.End)
		}

		if n := len(seg.Points); n >= 2 {
			adoptRadius(g, seg.Start, seg.Points[0].Diameter/2)
			adoptRadius(g, seg.End, seg.Points[n-1].Diameter/2)
		}

		prev := seg.Start
		for pi := 1; pi < len(seg.Points)-1; pi++ {
			pt := seg.Points[pi]
			id := nextID
			nextID++
			if err := g.AddNode(Node{ID: id, Pos: pt.Pos, Radius: pt.Diameter / 2}); err != nil {
				return nil, skelerrors.Wrap(skelerrors.ErrCodeMalformedGraph, err,
					"segment %d interior point %d", si, pi)
			}
			if err := g.AddEdge(Edge{A: prev, B: id}); err != nil {
				return nil, skelerrors.Wrap(skelerrors.ErrCodeMalformedGraph, err,
					"segment %d interior edge", si)
			}
			prev = id
		}
		if err := g.AddEdge(Edge{A: prev, B: seg.End}); err != nil {
			return nil, skelerrors.Wrap(skelerrors.ErrCodeMalformedGraph, err,
				"segment %d closing edge", si)
		}
	}

	return g, nil
}

// adoptRadius sets a named node's radius from an observed segment endpoint
// thickness, keeping the first non-zero value.
func adoptRadius(g *Graph, id int, radius float64) {
	if n, ok := g.nodes[id]; ok && n.Radius == 0 && radius > 0 {
		n.Radius = radius
		g.nodes[id] = n
	}
}
