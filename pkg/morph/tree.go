package morph

import (
	"slices"

	"github.com/skeltree/skeltree/pkg/skeleton"
)

// Tree is the spanning tree extracted from the skeleton graph: every
// reachable non-soma node with exactly one parent. The soma (the whole
// interior set, or the synthetic centre when detached) acts as the single
// root; Roots lists the nodes attached directly to it.
type Tree struct {
	Anchor   int
	Detached bool
	Roots    []int
	Parent   map[int]int // -1 for root-attached nodes
	Children map[int][]int
	Order    []int // global visit order
}

// Contains reports whether the node was reached by the traversal.
func (t *Tree) Contains(id int) bool {
	_, ok := t.Parent[id]
	return ok
}

// BuildTree extracts a rooted spanning tree from the graph by breadth-first
// traversal, starting at the soma. Neighbors are visited in ascending
// identifier order so repeated runs on identical input produce identical
// trees. Edges that would revisit a node are dropped and recorded as cycle
// edges; nodes with no path from the soma are recorded as unreachable and
// excluded. Neither condition fails the build.
func BuildTree(g *skeleton.Graph, res SomaResolution, diags *Diagnostics) *Tree {
	t := &Tree{
		Anchor:   res.Anchor,
		Detached: res.Detached,
		Parent:   make(map[int]int),
		Children: make(map[int][]int),
	}

	visited := make(map[int]bool, g.NodeCount())
	seenCycle := make(map[skeleton.Edge]bool)
	usedEdge := make(map[skeleton.Edge]bool)
	discoverer := make(map[int]int)

	norm := func(a, b int) skeleton.Edge {
		return skeleton.Edge{A: min(a, b), B: max(a, b)}
	}
	recordCycle := func(a, b int) {
		e := norm(a, b)
		if !seenCycle[e] {
			seenCycle[e] = true
			diags.CycleEdges = append(diags.CycleEdges, e)
		}
	}

	var queue []int
	if res.Detached {
		diags.SomaDetached = true
		visited[res.Anchor] = true
		t.Parent[res.Anchor] = -1
		t.Roots = append(t.Roots, res.Anchor)
		queue = append(queue, res.Anchor)
	} else {
		interior := make([]int, 0, len(res.Interior))
		for id := range res.Interior {
			interior = append(interior, id)
			visited[id] = true
		}
		slices.Sort(interior)
		for _, in := range interior {
			for _, v := range g.Neighbors(in) {
				if res.Interior[v] {
					continue // edge inside the soma, absorbed
				}
				if visited[v] {
					recordCycle(in, v)
					continue
				}
				visited[v] = true
				discoverer[v] = in
				usedEdge[norm(in, v)] = true
				t.Parent[v] = -1
				t.Roots = append(t.Roots, v)
				queue = append(queue, v)
			}
		}
	}

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		t.Order = append(t.Order, u)

		for _, v := range g.Neighbors(u) {
			if d, ok := discoverer[u]; ok && v == d {
				continue
			}
			if v == u || visited[v] || res.Interior[v] {
				recordCycle(u, v)
				continue
			}
			visited[v] = true
			discoverer[v] = u
			usedEdge[norm(u, v)] = true
			t.Parent[v] = u
			t.Children[u] = append(t.Children[u], v)
			queue = append(queue, v)
		}
	}

	// Parallel edges collapse into a single adjacency entry, so the
	// traversal above sees each node pair once. Every extra copy of a
	// pair the traversal used or already dropped is itself a dropped
	// edge. Insertion order keeps the report deterministic.
	multiplicity := make(map[skeleton.Edge]int)
	for _, e := range g.Edges() {
		ne := norm(e.A, e.B)
		multiplicity[ne]++
		if multiplicity[ne] > 1 && (usedEdge[ne] || seenCycle[ne]) {
			diags.CycleEdges = append(diags.CycleEdges, ne)
		}
	}

	for _, n := range g.Nodes() {
		if !visited[n.ID] {
			diags.Unreachable = append(diags.Unreachable, n.ID)
		}
	}

	return t
}
