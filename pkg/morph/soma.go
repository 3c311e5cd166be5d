package morph

import (
	skelerrors "github.com/skeltree/skeltree/pkg/errors"
	"github.com/skeltree/skeltree/pkg/skeleton"
	"github.com/skeltree/skeltree/pkg/vec"
)

// SomaResolution names the nodes absorbed into the soma sphere and the
// anchor the tree is rooted at.
type SomaResolution struct {
	// Anchor is the rooting node: the interior node closest to the soma
	// centre, or, when Detached, the graph node closest to the centre.
	Anchor int

	// Interior holds the identifiers of every node within the soma
	// radius of the centre, boundary included. These nodes are excluded
	// from section building.
	Interior map[int]bool

	// Detached is set when Interior is empty: the soma sphere touches
	// no skeleton node and a synthetic root is placed at the centre.
	Detached bool
}

// ResolveSoma determines which graph nodes belong to the soma and where the
// morphology tree attaches. Nodes with distance to the centre less than or
// equal to the radius are soma-interior; among them the one closest to the
// centre anchors the tree, ties going to the lower identifier. When the
// sphere absorbs no node at all, the globally nearest node is used instead
// and the resolution is flagged detached.
func ResolveSoma(g *skeleton.Graph, centre vec.V3, radius float64) (SomaResolution, error) {
	if g.NodeCount() == 0 {
		return SomaResolution{}, skelerrors.New(skelerrors.ErrCodeMalformedGraph,
			"cannot resolve soma on an empty graph")
	}

	res := SomaResolution{Interior: make(map[int]bool)}
	rsq := radius * radius
	bestID, bestD := 0, 0.0
	found := false
	for _, n := range g.Nodes() {
		d := vec.DistSq(n.Pos, centre)
		if d <= rsq {
			res.Interior[n.ID] = true
			if !found || d < bestD {
				bestID, bestD, found = n.ID, d, true
			}
		}
	}

	if found {
		res.Anchor = bestID
		return res, nil
	}

	nearest, _ := g.NearestNode(centre)
	res.Anchor = nearest
	res.Detached = true
	return res, nil
}
