package pipeline

import (
	"github.com/skeltree/skeltree/pkg/annotations"
	"github.com/skeltree/skeltree/pkg/morph"
	"github.com/skeltree/skeltree/pkg/skeleton"
)

// ConvertResult bundles the morphology with the run's topology diagnostics
// and the soma resolution that shaped it.
type ConvertResult struct {
	Morphology  *morph.Morphology
	Diagnostics morph.Diagnostics
	Resolution  morph.SomaResolution
}

// Convert runs the pure conversion: soma resolution, spanning tree,
// segmentation with the effective threshold, the coordinate transform, and
// verbosity-gated debug artifacts. It touches no files and shares no state
// between calls; batch jobs may run many conversions concurrently.
//
// The threshold and scale must already be resolved (see
// [Options.EffectiveThreshold]); the annotation's soma is the rooting
// reference.
func Convert(g *skeleton.Graph, ann *annotations.Annotations, threshold, scale float64, verbosity morph.Verbosity) (*ConvertResult, error) {
	res, err := morph.ResolveSoma(g, ann.Soma.Centre, ann.Soma.Radius)
	if err != nil {
		return nil, err
	}

	result := &ConvertResult{Resolution: res}
	tree := morph.BuildTree(g, res, &result.Diagnostics)

	m := morph.NewMorphology(morph.Soma{Centre: ann.Soma.Centre, Radius: ann.Soma.Radius})
	morph.Segmenter{Threshold: threshold}.Build(g, tree, m, &result.Diagnostics)

	m.Transform(scale)
	morph.DebugArtifacts(m, g, res, verbosity, scale)

	result.Morphology = m
	return result, nil
}
