// Package annotations reads the JSON sidecar that accompanies a skeleton
// file. The sidecar names the soma sphere the skeletonization stack was
// seeded with, optionally the imaging stack's bounding box, and optionally a
// segment length threshold recorded at skeletonization time.
package annotations

import (
	"encoding/json"
	"io"
	"math"
	"os"

	skelerrors "github.com/skeltree/skeltree/pkg/errors"
	"github.com/skeltree/skeltree/pkg/vec"
)

// stackAABBAdjust shrinks the reported stack bounds; the outermost voxel
// layer of a stack is unreliable.
const stackAABBAdjust = -1.0

// Soma is the cell body sphere in skeleton space.
type Soma struct {
	Centre vec.V3
	Radius float64
}

// Annotations is the parsed sidecar. Soma is always present after a
// successful read; StackAABB and Threshold are optional.
type Annotations struct {
	Soma Soma

	// StackAABB is the imaging stack's bounding box, adjusted inward,
	// if the sidecar carried one. Informational only.
	StackAABB *vec.AABB

	// Threshold is the segment length threshold recorded at
	// skeletonization time, if any.
	Threshold    float64
	HasThreshold bool
}

type sidecarVec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v sidecarVec) v3() vec.V3 { return vec.V3{X: v.X, Y: v.Y, Z: v.Z} }

type sidecar struct {
	Soma *struct {
		Centre *sidecarVec `json:"centre"`
		Radius *float64    `json:"radius"`
	} `json:"soma"`
	Stack *struct {
		AABB *struct {
			V1 sidecarVec `json:"v1"`
			V2 sidecarVec `json:"v2"`
		} `json:"AABB"`
	} `json:"stack"`
	Skeletonize *struct {
		ThresholdSegmentLength *float64 `json:"threshold_segment_length"`
	} `json:"skeletonize"`
}

// Read parses an annotation sidecar. The soma section with centre and radius
// is mandatory; a missing or unusable soma is a fatal error since the whole
// conversion is anchored on it.
func Read(r io.Reader) (*Annotations, error) {
	var sc sidecar
	dec := json.NewDecoder(r)
	if err := dec.Decode(&sc); err != nil {
		return nil, skelerrors.Wrap(skelerrors.ErrCodeMalformedAnnotations, err, "decoding annotations")
	}

	if sc.Soma == nil || sc.Soma.Centre == nil || sc.Soma.Radius == nil {
		return nil, skelerrors.New(skelerrors.ErrCodeMissingSoma,
			"annotations carry no soma centre and radius")
	}
	radius := *sc.Soma.Radius
	if radius <= 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
		return nil, skelerrors.New(skelerrors.ErrCodeMissingSoma,
			"soma radius %v is not a positive finite number", radius)
	}

	out := &Annotations{
		Soma: Soma{Centre: sc.Soma.Centre.v3(), Radius: radius},
	}

	if sc.Stack != nil && sc.Stack.AABB != nil {
		box := vec.NewAABB(sc.Stack.AABB.V1.v3(), sc.Stack.AABB.V2.v3()).Adjust(stackAABBAdjust)
		out.StackAABB = &box
	}

	if sc.Skeletonize != nil && sc.Skeletonize.ThresholdSegmentLength != nil {
		t := *sc.Skeletonize.ThresholdSegmentLength
		if err := skelerrors.ValidateThreshold(t); err != nil {
			return nil, skelerrors.Wrap(skelerrors.ErrCodeMalformedAnnotations, err,
				"skeletonize.threshold_segment_length")
		}
		out.Threshold = t
		out.HasThreshold = true
	}

	return out, nil
}

// ReadFile opens and parses an annotation sidecar file.
func ReadFile(path string) (*Annotations, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, skelerrors.Wrap(skelerrors.ErrCodeFileNotFound, err, "annotation file %q", path)
		}
		return nil, skelerrors.Wrap(skelerrors.ErrCodeMalformedAnnotations, err, "opening annotation file %q", path)
	}
	defer f.Close()
	return Read(f)
}
