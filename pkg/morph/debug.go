package morph

import (
	"math"
	"slices"

	"github.com/skeltree/skeltree/pkg/skeleton"
	"github.com/skeltree/skeltree/pkg/vec"
)

// somaStarPoints is the number of angular steps of the soma outline star.
const somaStarPoints = 25

// debugStubDiameter is the diameter of all synthetic debug geometry.
const debugStubDiameter = 0.1

// DebugArtifacts appends visual debug geometry to a morphology that has
// already been transformed into target space. The artifacts are extra root
// sections, structurally disjoint from the real ones; they are never merged
// or thresholded.
//
// At debug verbosity and below: a soma outline star plus three axis bars
// from the origin, each ending in a finger fan whose finger count names the
// axis (one finger X, two Y, three Z). At the all tier additionally a
// soma-dendrite star marking the original positions of the nodes that were
// absorbed into the soma.
// The scale is the same factor the morphology was transformed with, needed
// because the soma-dendrite star is rebuilt from raw graph positions.
func DebugArtifacts(m *Morphology, g *skeleton.Graph, res SomaResolution, v Verbosity, scale float64) {
	// The verbosity zero value means unset, not "all"; an unset caller
	// gets no artifacts rather than every artifact.
	if v == 0 || v > VerbosityDebug {
		return
	}

	somaStar(m)
	axisMarkers(m)

	if v <= VerbosityAll {
		somaDendriteStar(m, g, res, scale)
	}
}

// somaStar outlines the soma sphere with radial stubs on the three great
// circles.
func somaStar(m *Morphology) {
	c := m.Soma.Centre
	r := m.Soma.Radius
	for a := 0; a < somaStarPoints; a++ {
		ang := float64(a) * (2 * math.Pi / somaStarPoints)
		i := math.Sin(ang) * r
		j := math.Cos(ang) * r
		for _, off := range []vec.V3{{X: i, Y: j}, {X: i, Z: j}, {Y: i, Z: j}} {
			stub(m, nil, c, c.Add(off))
		}
	}
}

// axisMarkers draws one bar per axis from the origin, twice the soma radius
// long, ending in a fan of fingers that encodes which axis the bar is.
func axisMarkers(m *Morphology) {
	r := m.Soma.Radius
	axes := []struct {
		dir     vec.V3
		fingers []vec.V3
	}{
		{vec.V3{X: 1}, []vec.V3{{Y: 1}}},
		{vec.V3{Y: 1}, []vec.V3{{X: 1}, {Z: 1}}},
		{vec.V3{Z: 1}, []vec.V3{{X: 1}, {Y: 1}, {X: 1, Y: 1}}},
	}
	for _, ax := range axes {
		tip := ax.dir.Scale(r * 2)
		bar := stub(m, nil, vec.V3{}, tip)
		for _, f := range ax.fingers {
			stub(m, bar, tip, tip.Add(f))
		}
	}
}

// somaDendriteStar reproduces the pre-merge soma-interior node positions as
// radial stubs so the soma resolution can be audited visually. Positions
// are swizzled here since the artifact is built after the morphology moved
// to target space.
func somaDendriteStar(m *Morphology, g *skeleton.Graph, res SomaResolution, scale float64) {
	ids := make([]int, 0, len(res.Interior))
	for id := range res.Interior {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		n, ok := g.Node(id)
		if !ok {
			continue
		}
		stub(m, nil, m.Soma.Centre, vec.Swizzle(n.Pos).Scale(scale))
	}
}

func stub(m *Morphology, parent *Section, from, to vec.V3) *Section {
	s := m.NewSection(parent, SectionNeurite)
	s.Points = []Point{
		{Pos: from, Diameter: debugStubDiameter},
		{Pos: to, Diameter: debugStubDiameter},
	}
	return s
}
