package morph

import (
	"github.com/skeltree/skeltree/pkg/skeleton"
)

// Segmenter cuts the spanning tree into morphology sections and applies the
// minimum section length threshold. Threshold zero means no merging.
type Segmenter struct {
	Threshold float64
}

// Build produces the section forest for the tree in source space. Each
// maximal run between topological events (soma attachment, branch point,
// leaf) becomes one section; the event node's point opens the section and
// the closing event's point ends it, so adjacent sections share their
// boundary point. After segmentation the threshold pass folds too-short
// sections into their parents; merged section identifiers are recorded in
// diags.
func (sg Segmenter) Build(g *skeleton.Graph, t *Tree, m *Morphology, diags *Diagnostics) {
	open := anchorPoint(g, t, m)
	for _, root := range t.Roots {
		sg.section(g, t, m, nil, open, root)
	}
	sg.applyThreshold(m, diags)
}

// anchorPoint is the opening point of a root section: the rooting node for
// an attached soma, or the soma centre itself when the skeleton never
// touches the sphere.
func anchorPoint(g *skeleton.Graph, t *Tree, m *Morphology) Point {
	if !t.Detached {
		if n, ok := g.Node(t.Anchor); ok {
			return nodePoint(n)
		}
	}
	return Point{Pos: m.Soma.Centre, Diameter: m.Soma.Radius * 2}
}

func nodePoint(n skeleton.Node) Point {
	return Point{Pos: n.Pos, Diameter: n.Radius * 2}
}

// section grows one section starting at the given opening point and walking
// through interior nodes from start until the next topological event, then
// recurses for the closing event's children.
func (sg Segmenter) section(g *skeleton.Graph, t *Tree, m *Morphology, parent *Section, open Point, start int) {
	s := m.NewSection(parent, SectionNeurite)
	s.Points = append(s.Points, open)

	cur := start
	for {
		n, _ := g.Node(cur)
		s.Points = append(s.Points, nodePoint(n))
		children := t.Children[cur]
		if len(children) != 1 {
			// leaf or branch point closes the section
			for _, c := range children {
				sg.section(g, t, m, s, nodePoint(n), c)
			}
			return
		}
		cur = children[0]
	}
}

// applyThreshold merges sections shorter than the threshold into their
// parents until none remain. A merged section's points are appended to the
// parent's tail (the shared boundary point is not repeated) and its
// children take its place in the parent's child list, so no point data is
// lost and child order stays stable. Root sections and degenerate
// zero-length sections between adjacent events are never merged.
func (sg Segmenter) applyThreshold(m *Morphology, diags *Diagnostics) {
	if sg.Threshold <= 0 {
		return
	}
	for {
		victim := sg.findVictim(m)
		if victim == nil {
			return
		}
		parent := victim.Parent
		parent.Points = append(parent.Points, victim.Points[1:]...)
		for i, c := range parent.Children {
			if c == victim {
				repl := make([]*Section, 0, len(parent.Children)-1+len(victim.Children))
				repl = append(repl, parent.Children[:i]...)
				repl = append(repl, victim.Children...)
				repl = append(repl, parent.Children[i+1:]...)
				parent.Children = repl
				break
			}
		}
		for _, c := range victim.Children {
			c.Parent = parent
		}
		diags.MergedSections = append(diags.MergedSections, victim.ID)
	}
}

// findVictim returns the first section in walk order that is below the
// threshold and eligible for merging, or nil when the forest is stable.
// Only a section whose opening point continues its parent's tail can fold
// in; after a sibling merged first, the others no longer continue the
// polyline and must keep their boundary.
func (sg Segmenter) findVictim(m *Morphology) *Section {
	var victim *Section
	m.Walk(func(s *Section) {
		if victim != nil || s.Parent == nil || s.degenerate() {
			return
		}
		tail := s.Parent.Points[len(s.Parent.Points)-1]
		if s.Points[0].Pos != tail.Pos {
			return
		}
		if s.Length() < sg.Threshold {
			victim = s
		}
	})
	return victim
}
