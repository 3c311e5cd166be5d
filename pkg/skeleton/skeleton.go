// Package skeleton holds the in-memory representation of a parsed
// skeletonization: named nodes in 3-D space joined by polyline segments, and
// the flattened node/edge graph the morphology builder consumes.
//
// The package has three layers:
//
//   - Skeleton: the raw parse result, one entry per file record
//     (see [Parse])
//   - cross-section overrides merged into the Skeleton after parsing
//     (see [Skeleton.ApplyCrossSections])
//   - Graph: the flattened undirected node/edge view with polyline interior
//     points expanded into degree-2 nodes (see [BuildGraph])
package skeleton

import (
	"fmt"

	skelerrors "github.com/skeltree/skeltree/pkg/errors"
	"github.com/skeltree/skeltree/pkg/vec"
)

// Point is a polyline sample: a position plus the local thickness estimate
// produced by the skeletonization stack.
type Point struct {
	Pos      vec.V3
	Diameter float64
}

// Segment is a polyline run between two named nodes. The first and last
// points coincide with the start and end node positions. PointCount is the
// declared point total from the file; Points is filled in afterwards by
// [Skeleton.DistributePoints].
type Segment struct {
	Start      int
	End        int
	PointCount int
	Points     []Point
}

// Len returns the number of points in the segment.
func (s *Segment) Len() int { return len(s.Points) }

// Skeleton is the raw parse result: node positions indexed by identifier and
// the segment polylines joining them. Segments are kept in file order so
// cross-section override files, which key on (segment, point) indices, can be
// merged deterministically.
type Skeleton struct {
	Nodes    map[int]vec.V3
	Segments []Segment
}

// NewSkeleton returns an empty skeleton.
func NewSkeleton() *Skeleton {
	return &Skeleton{Nodes: make(map[int]vec.V3)}
}

// AddNode records a node position under the given identifier.
// The first write wins; re-adding an existing identifier is ignored,
// matching the reader's tolerance for duplicate node records.
func (s *Skeleton) AddNode(id int, pos vec.V3) {
	if _, ok := s.Nodes[id]; !ok {
		s.Nodes[id] = pos
	}
}

// AddSegment appends a segment polyline.
func (s *Skeleton) AddSegment(seg Segment) {
	s.Segments = append(s.Segments, seg)
}

// DistributePoints hands the flat point list out to the segments according
// to their declared point counts. Segments must already carry their counts;
// the list length must match the declared total exactly.
func (s *Skeleton) DistributePoints(points []Point) error {
	total := 0
	for i := range s.Segments {
		total += s.Segments[i].PointCount
	}
	if total != len(points) {
		return skelerrors.New(skelerrors.ErrCodeMalformedGraph,
			"segments declare %d points, file carries %d", total, len(points))
	}
	offset := 0
	for i := range s.Segments {
		n := s.Segments[i].PointCount
		s.Segments[i].Points = points[offset : offset+n : offset+n]
		offset += n
	}
	return nil
}

// PointCount returns the total number of polyline points across all segments.
func (s *Skeleton) PointCount() int {
	c := 0
	for i := range s.Segments {
		c += len(s.Segments[i].Points)
	}
	return c
}

// Info returns a short human-readable summary of the skeleton's size.
func (s *Skeleton) Info() string {
	return fmt.Sprintf("Nodes    : %5d\nSegments : %5d\nPoints   : %5d",
		len(s.Nodes), len(s.Segments), s.PointCount())
}
