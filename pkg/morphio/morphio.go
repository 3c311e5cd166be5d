// Package morphio serializes morphologies to their on-disk JSON container
// and reads them back for rendering and serving. The container is a flat,
// ordered section list with parent indices, which keeps the format stable
// and trivially diffable; the tree shape is reconstructed from the indices.
package morphio

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	skelerrors "github.com/skeltree/skeltree/pkg/errors"
	"github.com/skeltree/skeltree/pkg/morph"
	"github.com/skeltree/skeltree/pkg/vec"
)

// Document is the serialized morphology. The same shape is stored in
// MongoDB by the serve path, hence the bson tags.
type Document struct {
	Soma     SomaRecord      `json:"soma" bson:"soma"`
	Sections []SectionRecord `json:"sections" bson:"sections"`
}

// SomaRecord is the root record: centre and radius in target space.
type SomaRecord struct {
	Centre vec.V3  `json:"centre" bson:"centre"`
	Radius float64 `json:"radius" bson:"radius"`
}

// SectionRecord is one section of the flat list. Parent is the index of the
// parent section within the list, or -1 for sections attached directly to
// the soma.
type SectionRecord struct {
	Type   string        `json:"type" bson:"type"`
	Parent int           `json:"parent" bson:"parent"`
	Points []PointRecord `json:"points" bson:"points"`
}

// PointRecord is a section polyline sample.
type PointRecord struct {
	Pos      vec.V3  `json:"pos" bson:"pos"`
	Diameter float64 `json:"diameter" bson:"diameter"`
}

// Flatten converts a morphology into its document form. Sections are laid
// out in the morphology's deterministic walk order, so identical inputs
// produce identical documents.
func Flatten(m *morph.Morphology) *Document {
	doc := &Document{
		Soma: SomaRecord{Centre: m.Soma.Centre, Radius: m.Soma.Radius},
	}
	index := make(map[*morph.Section]int)
	m.Walk(func(s *morph.Section) {
		parent := -1
		if s.Parent != nil {
			parent = index[s.Parent]
		}
		index[s] = len(doc.Sections)
		rec := SectionRecord{
			Type:   s.Type.String(),
			Parent: parent,
			Points: make([]PointRecord, len(s.Points)),
		}
		for i, p := range s.Points {
			rec.Points[i] = PointRecord{Pos: p.Pos, Diameter: p.Diameter}
		}
		doc.Sections = append(doc.Sections, rec)
	})
	return doc
}

// Write encodes a morphology document as indented JSON. The document is
// rendered to a buffer first so a failing writer never receives a partial
// encoding.
func Write(w io.Writer, doc *Document) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return skelerrors.Wrap(skelerrors.ErrCodeInternal, err, "encoding morphology")
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return skelerrors.Wrap(skelerrors.ErrCodeInternal, err, "writing morphology")
	}
	return nil
}

// WriteFile writes the document to path. The file is written through a
// temporary sibling and renamed into place, so a failed run never leaves a
// truncated morphology behind.
func WriteFile(path string, doc *Document) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return skelerrors.Wrap(skelerrors.ErrCodeInternal, err, "creating %q", tmp)
	}
	if err := Write(f, doc); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return skelerrors.Wrap(skelerrors.ErrCodeInternal, err, "closing %q", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return skelerrors.Wrap(skelerrors.ErrCodeInternal, err, "renaming %q", tmp)
	}
	return nil
}

// Read decodes a morphology document and validates its parent indices:
// every parent must point at an earlier section or be -1.
func Read(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, skelerrors.Wrap(skelerrors.ErrCodeInvalidFormat, err, "decoding morphology")
	}
	for i, s := range doc.Sections {
		if s.Parent < -1 || s.Parent >= i {
			return nil, skelerrors.New(skelerrors.ErrCodeInvalidFormat,
				"section %d has invalid parent index %d", i, s.Parent)
		}
	}
	return &doc, nil
}

// ReadFile opens and decodes a morphology document file.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, skelerrors.Wrap(skelerrors.ErrCodeFileNotFound, err, "morphology file %q", path)
		}
		return nil, skelerrors.Wrap(skelerrors.ErrCodeInvalidFormat, err, "opening morphology file %q", path)
	}
	defer f.Close()
	return Read(f)
}

// Children returns, for each section index, the indices of its child
// sections, preserving document order. Used by the render and browse paths
// to rebuild the tree shape.
func (d *Document) Children() [][]int {
	out := make([][]int, len(d.Sections))
	for i, s := range d.Sections {
		if s.Parent >= 0 {
			out[s.Parent] = append(out[s.Parent], i)
		}
	}
	return out
}

// Roots returns the indices of sections attached directly to the soma.
func (d *Document) Roots() []int {
	var roots []int
	for i, s := range d.Sections {
		if s.Parent == -1 {
			roots = append(roots, i)
		}
	}
	return roots
}
