package morph

import (
	skelerrors "github.com/skeltree/skeltree/pkg/errors"
)

// Verbosity orders the output tiers from most to least verbose. Beyond
// controlling log levels it decides which visual debug artifacts are added
// to the morphology.
type Verbosity int

// The zero value is deliberately unnamed so callers who leave the field
// unset can be given a default.
const (
	VerbosityAll Verbosity = iota + 1
	VerbosityDebug
	VerbosityInfo
	VerbosityWarning
	VerbosityError
)

var verbosityNames = map[Verbosity]string{
	VerbosityAll:     "all",
	VerbosityDebug:   "debug",
	VerbosityInfo:    "info",
	VerbosityWarning: "warning",
	VerbosityError:   "error",
}

func (v Verbosity) String() string {
	if name, ok := verbosityNames[v]; ok {
		return name
	}
	return "unknown"
}

// ParseVerbosity maps a tier name to its Verbosity value.
func ParseVerbosity(name string) (Verbosity, error) {
	for v, n := range verbosityNames {
		if n == name {
			return v, nil
		}
	}
	return VerbosityInfo, skelerrors.New(skelerrors.ErrCodeInvalidVerbosity,
		"unknown verbosity %q (want all, debug, info, warning or error)", name)
}
