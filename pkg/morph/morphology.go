// Package morph turns a flattened skeleton graph into a rooted cell
// morphology: soma resolution, spanning-tree extraction, section
// segmentation with threshold merging, the source-to-target coordinate
// transform, and optional visual debug artifacts.
package morph

import (
	"fmt"

	"github.com/skeltree/skeltree/pkg/vec"
)

// SectionType distinguishes the soma record from neurite sections. Debug
// artifacts are plain neurite sections.
type SectionType int

const (
	SectionSoma SectionType = iota
	SectionNeurite
)

func (t SectionType) String() string {
	switch t {
	case SectionSoma:
		return "soma"
	case SectionNeurite:
		return "neurite"
	default:
		return fmt.Sprintf("SectionType(%d)", int(t))
	}
}

// Point is one polyline sample of a section: a position and the local
// diameter.
type Point struct {
	Pos      vec.V3
	Diameter float64
}

// Section is a maximal polyline run between two topological events (branch,
// leaf, or soma). Parent is nil for sections attached directly to the soma.
// Sections are never mutated after segmentation finishes, except by the
// threshold merge pass which runs before the morphology is handed out.
type Section struct {
	ID       int
	Type     SectionType
	Parent   *Section
	Children []*Section
	Points   []Point
}

// Length returns the section's polyline length, the sum of consecutive
// point distances.
func (s *Section) Length() float64 {
	total := 0.0
	for i := 1; i < len(s.Points); i++ {
		total += vec.Dist(s.Points[i-1].Pos, s.Points[i].Pos)
	}
	return total
}

// degenerate sections join two directly adjacent topological events at the
// same position. They mark a real branch and are exempt from threshold
// merging.
func (s *Section) degenerate() bool {
	return len(s.Points) == 2 && s.Points[0].Pos == s.Points[1].Pos
}

// Soma is the morphology's root record.
type Soma struct {
	Centre vec.V3
	Radius float64
}

// Morphology is the conversion result: one soma plus the section forest
// hanging off it. Roots are the sections attached directly to the soma, in
// creation order; that order, with each section's child order, fully
// determines the serialized layout.
type Morphology struct {
	Soma  Soma
	Roots []*Section

	nextID int
}

// NewMorphology returns a morphology with the given soma and no sections.
func NewMorphology(soma Soma) *Morphology {
	return &Morphology{Soma: soma}
}

// NewSection allocates a section with the next identifier and links it
// under parent (or as a root when parent is nil).
func (m *Morphology) NewSection(parent *Section, typ SectionType) *Section {
	s := &Section{ID: m.nextID, Type: typ, Parent: parent}
	m.nextID++
	if parent == nil {
		m.Roots = append(m.Roots, s)
	} else {
		parent.Children = append(parent.Children, s)
	}
	return s
}

// Walk visits every section depth-first in deterministic order: roots in
// creation order, then each section's children in their stored order.
func (m *Morphology) Walk(fn func(*Section)) {
	var rec func(*Section)
	rec = func(s *Section) {
		fn(s)
		for _, c := range s.Children {
			rec(c)
		}
	}
	for _, r := range m.Roots {
		rec(r)
	}
}

// SectionCount returns the number of sections in the morphology.
func (m *Morphology) SectionCount() int {
	n := 0
	m.Walk(func(*Section) { n++ })
	return n
}

// PointCount returns the total number of points across all sections.
func (m *Morphology) PointCount() int {
	n := 0
	m.Walk(func(s *Section) { n += len(s.Points) })
	return n
}

// Transform applies the source-to-target axis swizzle to the soma centre
// and every section point, and multiplies positions and diameters by scale.
// It must run exactly once, after segmentation; debug artifacts are
// generated in target space afterwards and are never passed through it.
func (m *Morphology) Transform(scale float64) {
	m.Soma.Centre = vec.Swizzle(m.Soma.Centre).Scale(scale)
	m.Soma.Radius *= scale
	m.Walk(func(s *Section) {
		for i := range s.Points {
			s.Points[i].Pos = vec.Swizzle(s.Points[i].Pos).Scale(scale)
			s.Points[i].Diameter *= scale
		}
	})
}
