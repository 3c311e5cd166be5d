package skeleton

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	skelerrors "github.com/skeltree/skeltree/pkg/errors"
	"github.com/skeltree/skeltree/pkg/vec"
)

// Parse reads the amiramesh-style skeleton text format.
//
// The file carries five data blocks, each introduced by a line starting
// with "@": node coordinates, segment endpoint node pairs, per-segment
// polyline point counts, polyline point coordinates, and per-point
// thicknesses. Everything before the first "@" line is header material and
// is skipped. A thickness of "nan" is read as zero (unknown).
func Parse(r io.Reader) (*Skeleton, error) {
	skel := NewSkeleton()

	var points []Point
	section := 0
	lineInSection := 0
	lineNo := 0

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "@") {
			section++
			lineInSection = 0
			continue
		}
		if section == 0 {
			continue
		}

		switch section {
		case 1: // node coordinates
			pos, err := parseVec3(line)
			if err != nil {
				return nil, malformedLine(lineNo, "node coordinates", err)
			}
			skel.AddNode(lineInSection, pos)
			lineInSection++

		case 2: // segment endpoint pairs
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return nil, malformedLine(lineNo, "segment endpoints", nil)
			}
			start, err1 := strconv.Atoi(fields[0])
			end, err2 := strconv.Atoi(fields[1])
			if err1 != nil || err2 != nil {
				return nil, malformedLine(lineNo, "segment endpoints", nil)
			}
			skel.AddSegment(Segment{Start: start, End: end})

		case 3: // per-segment polyline point counts
			if lineInSection >= len(skel.Segments) {
				return nil, skelerrors.New(skelerrors.ErrCodeMalformedGraph,
					"line %d: more point counts than segments", lineNo)
			}
			count, err := strconv.Atoi(strings.Fields(line)[0])
			if err != nil || count < 0 {
				return nil, malformedLine(lineNo, "point count", err)
			}
			skel.Segments[lineInSection].PointCount = count
			lineInSection++

		case 4: // polyline point coordinates
			pos, err := parseVec3(line)
			if err != nil {
				return nil, malformedLine(lineNo, "point coordinates", err)
			}
			points = append(points, Point{Pos: pos})

		case 5: // per-point thicknesses
			if lineInSection >= len(points) {
				return nil, skelerrors.New(skelerrors.ErrCodeMalformedGraph,
					"line %d: more thicknesses than points", lineNo)
			}
			if line == "nan" {
				points[lineInSection].Diameter = 0
			} else {
				d, err := strconv.ParseFloat(strings.Fields(line)[0], 64)
				if err != nil {
					return nil, malformedLine(lineNo, "thickness", err)
				}
				points[lineInSection].Diameter = d
			}
			lineInSection++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, skelerrors.Wrap(skelerrors.ErrCodeMalformedGraph, err, "reading skeleton")
	}
	if section == 0 {
		return nil, skelerrors.New(skelerrors.ErrCodeMalformedGraph, "no data blocks found")
	}

	if err := skel.DistributePoints(points); err != nil {
		return nil, err
	}
	return skel, nil
}

// ParseFile opens and parses a skeleton file.
func ParseFile(path string) (*Skeleton, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, skelerrors.Wrap(skelerrors.ErrCodeFileNotFound, err, "skeleton file %q", path)
		}
		return nil, skelerrors.Wrap(skelerrors.ErrCodeMalformedGraph, err, "opening skeleton file %q", path)
	}
	defer f.Close()
	return Parse(f)
}

func parseVec3(line string) (vec.V3, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return vec.V3{}, skelerrors.New(skelerrors.ErrCodeMalformedGraph, "expected three coordinates, got %d", len(fields))
	}
	var out [3]float64
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return vec.V3{}, err
		}
		out[i] = v
	}
	return vec.V3{X: out[0], Y: out[1], Z: out[2]}, nil
}

func malformedLine(lineNo int, what string, cause error) error {
	if cause != nil {
		return skelerrors.Wrap(skelerrors.ErrCodeMalformedGraph, cause, "line %d: bad %s", lineNo, what)
	}
	return skelerrors.New(skelerrors.ErrCodeMalformedGraph, "line %d: bad %s", lineNo, what)
}
