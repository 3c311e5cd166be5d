package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skeltree/skeltree/pkg/annotations"
	skelerrors "github.com/skeltree/skeltree/pkg/errors"
	"github.com/skeltree/skeltree/pkg/pipeline"
	"github.com/skeltree/skeltree/pkg/skeleton"
	"github.com/skeltree/skeltree/pkg/vec"
)

// inspectCommand creates the inspect command for printing graph statistics
// without running a conversion.
func (c *CLI) inspectCommand() *cobra.Command {
	var annotationsPath string

	cmd := &cobra.Command{
		Use:   "inspect <skeleton.am>",
		Short: "Print statistics about a skeleton graph",
		Long: `Parse a skeleton graph and print node, edge and degree statistics.

With an annotation sidecar present, nodes falling outside the recorded image
stack bounding box are reported as well.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args[0], annotationsPath)
		},
	}

	cmd.Flags().StringVarP(&annotationsPath, "annotations", "a", "", "annotation sidecar path (default <name>.annotations.json)")

	return cmd
}

func runInspect(input, annotationsPath string) error {
	skel, err := skeleton.ParseFile(input)
	if err != nil {
		return err
	}
	g, err := skeleton.BuildGraph(skel)
	if err != nil {
		return err
	}

	stats := graphStats(g)

	fmt.Println(StyleTitle.Render(input))
	printDetail("%d nodes, %d edges (%d named, %d polyline)",
		g.NodeCount(), g.EdgeCount(), len(skel.Nodes), g.NodeCount()-len(skel.Nodes))
	printDetail("degree min %d / max %d / avg %.2f",
		stats.DegreeMin, stats.DegreeMax, stats.DegreeAvg)
	if stats.Duplicates > 0 {
		printWarning("%d nodes share a position with another node", stats.Duplicates)
	}

	if annotationsPath == "" {
		annotationsPath = pipeline.BaseName(input) + ".annotations.json"
	}
	ann, err := annotations.ReadFile(annotationsPath)
	if err != nil {
		if skelerrors.Is(err, skelerrors.ErrCodeFileNotFound) {
			printDetail("no annotation sidecar")
			return nil
		}
		return err
	}

	printDetail("soma at (%g, %g, %g), radius %g",
		ann.Soma.Centre.X, ann.Soma.Centre.Y, ann.Soma.Centre.Z, ann.Soma.Radius)
	if ann.HasThreshold {
		printDetail("annotated segment threshold %g", ann.Threshold)
	}
	if ann.StackAABB != nil {
		if n := countOutsideAABB(g, *ann.StackAABB); n > 0 {
			printWarning("%d nodes fall outside the image stack bounding box", n)
		}
	}
	return nil
}

// stats computed per inspect run.
type inspectStats struct {
	DegreeMin  int
	DegreeMax  int
	DegreeAvg  float64
	Duplicates int
}

func graphStats(g *skeleton.Graph) inspectStats {
	var s inspectStats
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return s
	}

	s.DegreeMin = g.Degree(nodes[0].ID)
	var total int
	seen := make(map[vec.V3]int, len(nodes))
	for _, n := range nodes {
		d := g.Degree(n.ID)
		total += d
		if d < s.DegreeMin {
			s.DegreeMin = d
		}
		if d > s.DegreeMax {
			s.DegreeMax = d
		}
		seen[n.Pos]++
	}
	s.DegreeAvg = float64(total) / float64(len(nodes))

	for _, count := range seen {
		if count > 1 {
			s.Duplicates += count
		}
	}
	return s
}

func countOutsideAABB(g *skeleton.Graph, box vec.AABB) int {
	var n int
	for _, node := range g.Nodes() {
		if !box.Contains(node.Pos) {
			n++
		}
	}
	return n
}
