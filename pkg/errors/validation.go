package errors

import (
	"math"
	"path/filepath"
	"strings"
	"unicode"
)

// gcodeExtensions lists the text G-code extensions slicers produce.
var gcodeExtensions = map[string]bool{
	".gcode": true,
	".gco":   true,
	".g":     true,
	".nc":    true,
}

// ValidateGCodePath validates a G-code file path given on the command line.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes or control characters
//   - Binary G-code (.bgcode) is rejected as unsupported
//   - Unknown extensions are accepted; slicers pass temporary files
//     with arbitrary suffixes to post-processing scripts
func ValidateGCodePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".bgcode" {
		return New(ErrCodeUnsupported, "binary G-code is not supported: %s", path)
	}

	return nil
}

// IsGCodeExtension reports whether path has a well-known text G-code extension.
func IsGCodeExtension(path string) bool {
	return gcodeExtensions[strings.ToLower(filepath.Ext(path))]
}

// ValidatePositive checks that a numeric option is finite and > 0.
func ValidatePositive(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return New(ErrCodeInvalidOption, "%s must be positive, got %g", name, v)
	}
	return nil
}

// ValidateNonNegative checks that a numeric option is finite and >= 0.
func ValidateNonNegative(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return New(ErrCodeInvalidOption, "%s must not be negative, got %g", name, v)
	}
	return nil
}

// ValidateToggle checks a 0/1 switch as used by the slicer-facing flags.
func ValidateToggle(name string, v int) error {
	if v != 0 && v != 1 {
		return New(ErrCodeInvalidOption, "%s must be 0 or 1, got %d", name, v)
	}
	return nil
}

// ValidateChoice checks that v is one of the allowed values.
func ValidateChoice(name, v string, allowed ...string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return New(ErrCodeInvalidOption, "invalid %s: %q (must be one of: %s)", name, v, strings.Join(allowed, ", "))
}
