package pipeline

import (
	"strings"

	skelerrors "github.com/skeltree/skeltree/pkg/errors"
	"github.com/skeltree/skeltree/pkg/morph"
)

// Default option values shared by CLI and API entry points.
const (
	// DefaultThreshold disables section merging.
	DefaultThreshold = 0.0

	// DefaultScale leaves emitted positions and diameters untouched.
	DefaultScale = 1.0

	// DefaultVerbosity keeps runs quiet and debug artifacts out of the
	// output unless asked for.
	DefaultVerbosity = morph.VerbosityWarning
)

// Options describes one conversion run. The zero value plus a skeleton path
// is valid after ValidateAndSetDefaults.
type Options struct {
	// SkeletonPath is the skeleton graph file. By convention the
	// annotation sidecar and output live next to it under the same base
	// name; empty AnnotationsPath and OutputPath are derived from it.
	SkeletonPath    string
	AnnotationsPath string
	OutputPath      string

	// XSectionPath optionally points at measured cross-section overrides.
	XSectionPath string

	// Threshold is the minimum section length; shorter sections merge
	// into their parents. An annotation-recorded threshold overrides
	// this value unless ForceThreshold is set.
	Threshold      float64
	ForceThreshold bool

	// Scale multiplies emitted positions and diameters.
	Scale float64

	Verbosity morph.Verbosity

	// Overwrite permits clobbering an existing output file.
	Overwrite bool

	// Refresh bypasses the cache for this run.
	Refresh bool
}

// ValidateAndSetDefaults checks option values and fills in derived paths and
// defaults. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.SkeletonPath == "" {
		return skelerrors.New(skelerrors.ErrCodeFileNotFound, "no skeleton file given")
	}
	if err := skelerrors.ValidateThreshold(o.Threshold); err != nil {
		return err
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if err := skelerrors.ValidateScale(o.Scale); err != nil {
		return err
	}
	if o.Verbosity == 0 {
		o.Verbosity = DefaultVerbosity
	}

	base := BaseName(o.SkeletonPath)
	if o.AnnotationsPath == "" {
		o.AnnotationsPath = base + ".annotations.json"
	}
	if o.OutputPath == "" {
		o.OutputPath = base + ".morph.json"
	}
	return nil
}

// BaseName strips the skeleton file extension so sibling file names can be
// derived: <name>.am, <name>.annotations.json, <name>.morph.json.
func BaseName(skeletonPath string) string {
	return strings.TrimSuffix(skeletonPath, ".am")
}

// EffectiveThreshold applies the precedence rule between the option value
// and a threshold recorded in the annotations: the recorded value wins over
// the default unless the option was explicitly forced.
func (o *Options) EffectiveThreshold(annotated float64, hasAnnotated bool) float64 {
	if hasAnnotated && !o.ForceThreshold {
		return annotated
	}
	return o.Threshold
}
