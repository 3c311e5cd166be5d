package errors

import (
	"strings"
	"unicode"
)

// ValidateThreshold validates a minimum-section-length threshold.
// Thresholds are lengths in the units of the input skeleton and must be
// non-negative; zero disables merging entirely.
func ValidateThreshold(t float64) error {
	if t < 0 {
		return New(ErrCodeInvalidThreshold, "threshold must be >= 0, got %g", t)
	}
	if t != t { // NaN
		return New(ErrCodeInvalidThreshold, "threshold must be a number")
	}
	return nil
}

// ValidateScale validates the output scaling factor.
func ValidateScale(s float64) error {
	if s <= 0 {
		return New(ErrCodeInvalidScale, "scale must be > 0, got %g", s)
	}
	if s != s {
		return New(ErrCodeInvalidScale, "scale must be a number")
	}
	return nil
}

// Verbosity tiers recognized on the configuration surface, most to least
// verbose. "all" additionally enables the soma-dendrite debug artifacts on
// top of what "debug" produces.
var verbosityTiers = []string{"all", "debug", "info", "warning", "error"}

// ValidateVerbosity checks a verbosity tier name.
func ValidateVerbosity(level string) error {
	for _, tier := range verbosityTiers {
		if level == tier {
			return nil
		}
	}
	return New(ErrCodeInvalidVerbosity,
		"unknown verbosity %q (must be one of: %s)", level, strings.Join(verbosityTiers, ", "))
}

// ValidateBaseName validates a skeleton base name for safety and correctness.
// Base names become file paths (<name>.am, <name>.annotations.json), so names
// that could escape the working directory are rejected.
func ValidateBaseName(name string) error {
	if name == "" {
		return New(ErrCodeFileNotFound, "skeleton name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeFileNotFound, "skeleton name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeFileNotFound, "skeleton name contains invalid control characters")
		}
	}

	if strings.Contains(name, "..") || strings.Contains(name, "\x00") {
		return New(ErrCodeFileNotFound, "skeleton name contains invalid sequence")
	}

	return nil
}
