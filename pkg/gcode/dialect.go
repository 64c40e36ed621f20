package gcode

import (
	"bufio"
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/bricklayers/pkg/errors"
)

// Dialect names.
const (
	DialectBambu   = "bambu"
	DialectPrusa   = "prusa"
	DialectGeneric = "generic"
)

// Dialect describes the annotation comments a slicer family writes.
type Dialect struct {
	Name          string
	LayerMarkers  []string       // comment prefixes announcing a new layer
	ZPattern      *regexp.Regexp // comment carrying the layer's print Z
	FeaturePrefix string         // comment prefix carrying the feature name
}

var (
	bambuDialect = Dialect{
		Name:          DialectBambu,
		LayerMarkers:  []string{"; CHANGE_LAYER"},
		ZPattern:      regexp.MustCompile(`^; Z_HEIGHT: ?([-+]?\d*\.?\d+)`),
		FeaturePrefix: "; FEATURE:",
	}
	prusaDialect = Dialect{
		Name:          DialectPrusa,
		LayerMarkers:  []string{";LAYER_CHANGE"},
		ZPattern:      regexp.MustCompile(`^;Z: ?([-+]?\d*\.?\d+)`),
		FeaturePrefix: ";TYPE:",
	}
	genericDialect = Dialect{Name: DialectGeneric}
)

// Dialects returns the known dialect names.
func Dialects() []string {
	return []string{DialectBambu, DialectPrusa, DialectGeneric}
}

// LookupDialect returns the dialect with the given name.
func LookupDialect(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case DialectBambu, "orca":
		return bambuDialect, nil
	case DialectPrusa, "superslicer":
		return prusaDialect, nil
	case DialectGeneric:
		return genericDialect, nil
	}
	return Dialect{}, errors.New(errors.ErrCodeInvalidOption, "unknown dialect %q (must be one of: %s)", name, strings.Join(Dialects(), ", "))
}

// DetectDialect scans data for the first dialect-specific comment. The
// second result is false when nothing was recognised and the generic
// dialect was returned.
func DetectDialect(data []byte) (Dialect, bool) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(line, ";") {
			continue
		}
		switch {
		case strings.Contains(line, bambuDialect.FeaturePrefix), strings.Contains(line, bambuDialect.LayerMarkers[0]):
			return bambuDialect, true
		case strings.Contains(line, prusaDialect.FeaturePrefix), strings.Contains(line, prusaDialect.LayerMarkers[0]):
			return prusaDialect, true
		}
	}
	return genericDialect, false
}

// HasMarkers reports whether the dialect announces layers with comments.
func (d Dialect) HasMarkers() bool {
	return len(d.LayerMarkers) > 0
}

// HasFeatures reports whether the dialect names features in comments.
func (d Dialect) HasFeatures() bool {
	return d.FeaturePrefix != ""
}

// IsLayerChange reports whether ins is a layer marker comment.
func (d Dialect) IsLayerChange(ins *Instruction) bool {
	if !ins.IsComment() {
		return false
	}
	for _, m := range d.LayerMarkers {
		if strings.HasPrefix(ins.Comment, m) {
			return true
		}
	}
	return false
}

// LayerZ extracts the layer print height from a Z annotation comment.
func (d Dialect) LayerZ(ins *Instruction) (float64, bool) {
	if d.ZPattern == nil || !ins.IsComment() {
		return 0, false
	}
	m := d.ZPattern.FindStringSubmatch(ins.Comment)
	if m == nil {
		return 0, false
	}
	z, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return z, true
}

// FeatureName extracts the feature name from a feature comment.
func (d Dialect) FeatureName(ins *Instruction) (string, bool) {
	if d.FeaturePrefix == "" || !ins.IsComment() {
		return "", false
	}
	name, ok := strings.CutPrefix(ins.Comment, d.FeaturePrefix)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(name), true
}
