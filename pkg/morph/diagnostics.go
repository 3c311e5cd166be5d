package morph

import (
	"fmt"
	"strings"

	"github.com/skeltree/skeltree/pkg/skeleton"
)

// Diagnostics collects the non-fatal anomalies of one conversion run.
// Anything recorded here degrades the output instead of failing it: the
// conversion proceeds on the best-effort tree and the caller decides how
// loudly to report.
type Diagnostics struct {
	// SomaDetached is set when no skeleton node fell inside the soma
	// sphere and a synthetic root had to be placed at the soma centre.
	SomaDetached bool

	// CycleEdges are the edges dropped while extracting the spanning
	// tree, normalized so the lower node identifier comes first. One
	// entry per dropped copy: parallel edges of the same pair appear
	// repeatedly.
	CycleEdges []skeleton.Edge

	// Unreachable lists nodes outside the soma with no path from the
	// root anchor, sorted ascending. They are excluded from the tree.
	Unreachable []int

	// MergedSections lists identifiers of sections folded into their
	// parents by the threshold pass, in merge order.
	MergedSections []int
}

// Degraded reports whether any anomaly was recorded.
func (d *Diagnostics) Degraded() bool {
	return d.SomaDetached || len(d.CycleEdges) > 0 || len(d.Unreachable) > 0
}

// Summary returns a one-line report of the recorded anomalies, or "clean"
// when there are none.
func (d *Diagnostics) Summary() string {
	var parts []string
	if d.SomaDetached {
		parts = append(parts, "soma detached from skeleton")
	}
	if n := len(d.CycleEdges); n > 0 {
		parts = append(parts, fmt.Sprintf("%d cycle edges dropped", n))
	}
	if n := len(d.Unreachable); n > 0 {
		parts = append(parts, fmt.Sprintf("%d unreachable nodes excluded", n))
	}
	if n := len(d.MergedSections); n > 0 {
		parts = append(parts, fmt.Sprintf("%d sections merged by threshold", n))
	}
	if len(parts) == 0 {
		return "clean"
	}
	return strings.Join(parts, ", ")
}
