package skeleton

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	skelerrors "github.com/skeltree/skeltree/pkg/errors"
)

// XSectionKey addresses one polyline point by its segment's file position
// and the point's position within that segment.
type XSectionKey struct {
	SegmentIdx int
	PointIdx   int
}

// XSection is one measured cross-section record from the side-channel
// measurement tool. Diameter is derived from the measured area; the
// Estimated* fields echo the skeletonization stack's own guesses and are
// used only for sanity checks and outlier logging.
type XSection struct {
	Area              float64
	Perimeter         float64
	Diameter          float64
	EstimatedDiameter float64
}

// XSectionData maps point addresses to measured cross-sections.
type XSectionData map[XSectionKey]XSection

// UpdateStats summarises a cross-section merge pass.
type UpdateStats struct {
	Updated int
	Raised  int
	Lowered int
}

func (u UpdateStats) String() string {
	return fmt.Sprintf("updated %d diameters (%d raised, %d lowered)", u.Updated, u.Raised, u.Lowered)
}

// xsection files are tab-separated with '|' as the quote character.
const (
	xsectionDelim = '\t'
	xsectionQuote = '|'
)

// ReadXSection parses a cross-section measurement file. The first line is a
// header naming the columns; at minimum segment_idx, pnt_idx and area must
// be present. The point diameter is derived as sqrt(area)/π.
func ReadXSection(r io.Reader) (XSectionData, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, skelerrors.Wrap(skelerrors.ErrCodeMalformedXSection, err, "reading header")
		}
		return nil, skelerrors.New(skelerrors.ErrCodeMalformedXSection, "empty cross-section file")
	}
	cols := splitXSectionLine(sc.Text())
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		idx[c] = i
	}
	for _, required := range []string{"segment_idx", "pnt_idx", "area"} {
		if _, ok := idx[required]; !ok {
			return nil, skelerrors.New(skelerrors.ErrCodeMalformedXSection,
				"missing required column %q", required)
		}
	}

	data := make(XSectionData)
	lineNo := 1
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := splitXSectionLine(line)
		if len(fields) != len(cols) {
			return nil, skelerrors.New(skelerrors.ErrCodeMalformedXSection,
				"line %d: %d fields, header has %d", lineNo, len(fields), len(cols))
		}
		get := func(name string) string { return fields[idx[name]] }
		getFloat := func(name string) float64 {
			if i, ok := idx[name]; ok {
				if v, err := strconv.ParseFloat(fields[i], 64); err == nil {
					return v
				}
			}
			return 0
		}

		segIdx, err1 := strconv.Atoi(get("segment_idx"))
		pntIdx, err2 := strconv.Atoi(get("pnt_idx"))
		area, err3 := strconv.ParseFloat(get("area"), 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return nil, skelerrors.New(skelerrors.ErrCodeMalformedXSection,
				"line %d: bad segment_idx/pnt_idx/area", lineNo)
		}

		data[XSectionKey{SegmentIdx: segIdx, PointIdx: pntIdx}] = XSection{
			Area:              area,
			Perimeter:         getFloat("perimeter"),
			Diameter:          math.Sqrt(area) / math.Pi,
			EstimatedDiameter: getFloat("estimated_diameter"),
		}
	}
	if err := sc.Err(); err != nil {
		return nil, skelerrors.Wrap(skelerrors.ErrCodeMalformedXSection, err, "reading cross-sections")
	}
	return data, nil
}

// ReadXSectionFile opens and parses a cross-section file.
func ReadXSectionFile(path string) (XSectionData, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, skelerrors.Wrap(skelerrors.ErrCodeFileNotFound, err, "cross-section file %q", path)
		}
		return nil, skelerrors.Wrap(skelerrors.ErrCodeMalformedXSection, err, "opening cross-section file %q", path)
	}
	defer f.Close()
	return ReadXSection(f)
}

// ApplyCrossSections overrides point diameters from measured cross-section
// data. Points without a record keep their parsed thickness. This runs on
// the raw skeleton, before the graph is built, so the overrides flow into
// every downstream consumer.
func (s *Skeleton) ApplyCrossSections(data XSectionData) UpdateStats {
	var stats UpdateStats
	for si := range s.Segments {
		seg := &s.Segments[si]
		for pi := range seg.Points {
			xs, ok := data[XSectionKey{SegmentIdx: si, PointIdx: pi}]
			if !ok {
				continue
			}
			old := seg.Points[pi].Diameter
			seg.Points[pi].Diameter = xs.Diameter
			stats.Updated++
			switch {
			case xs.Diameter > old:
				stats.Raised++
			case xs.Diameter < old:
				stats.Lowered++
			}
		}
	}
	return stats
}

// MergeChunks reassembles chunked cross-section files into a single stream:
// the first file contributes its header line, every file contributes its
// data rows, in the order given.
func MergeChunks(w io.Writer, paths []string) error {
	if len(paths) == 0 {
		return skelerrors.New(skelerrors.ErrCodeMalformedXSection, "no chunk files given")
	}
	bw := bufio.NewWriter(w)
	for i, path := range paths {
		if err := appendChunk(bw, path, i == 0); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return skelerrors.Wrap(skelerrors.ErrCodeInternal, err, "flushing merged cross-sections")
	}
	return nil
}

func appendChunk(w *bufio.Writer, path string, keepHeader bool) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return skelerrors.Wrap(skelerrors.ErrCodeFileNotFound, err, "chunk file %q", path)
		}
		return skelerrors.Wrap(skelerrors.ErrCodeMalformedXSection, err, "opening chunk file %q", path)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	first := true
	for sc.Scan() {
		if first {
			first = false
			if !keepHeader {
				continue
			}
		}
		if _, err := w.WriteString(sc.Text()); err != nil {
			return skelerrors.Wrap(skelerrors.ErrCodeInternal, err, "writing merged cross-sections")
		}
		if err := w.WriteByte('\n'); err != nil {
			return skelerrors.Wrap(skelerrors.ErrCodeInternal, err, "writing merged cross-sections")
		}
	}
	if err := sc.Err(); err != nil {
		return skelerrors.Wrap(skelerrors.ErrCodeMalformedXSection, err, "reading chunk file %q", path)
	}
	return nil
}

// splitXSectionLine splits a tab-separated line, honoring the '|' quote
// character around fields that embed tabs.
func splitXSectionLine(line string) []string {
	var fields []string
	var b strings.Builder
	quoted := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == xsectionQuote:
			quoted = !quoted
		case c == xsectionDelim && !quoted:
			fields = append(fields, b.String())
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	fields = append(fields, b.String())
	return fields
}
