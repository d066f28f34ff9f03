// Package version provides lenient semantic-version parsing and comparison
// helpers used by the compatibility policy.
package version

import (
	"fmt"
	"strings"

	masterminds "github.com/Masterminds/semver/v3"
)

const logPrefix = "version:version"

// Parse parses a version string leniently: partial versions such as "2.4"
// or "3" are padded with zeros ("2.4.0", "3.0.0"). A leading "v" is
// accepted. An empty string is an error.
func Parse(s string) (*masterminds.Version, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, fmt.Errorf("%s - empty version string", logPrefix)
	}

	v, err := masterminds.NewVersion(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%s - invalid version %q: %w", logPrefix, s, err)
	}
	return v, nil
}

// MustParse is Parse for trusted literals; it panics on error. Intended for
// the fixed per-endpoint annotation tables.
func MustParse(s string) *masterminds.Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// AtLeast reports whether v >= threshold. A nil on either side is false.
func AtLeast(v, threshold *masterminds.Version) bool {
	if v == nil || threshold == nil {
		return false
	}
	return v.Compare(threshold) >= 0
}

// Before reports whether v < threshold. A nil on either side is false.
func Before(v, threshold *masterminds.Version) bool {
	if v == nil || threshold == nil {
		return false
	}
	return v.Compare(threshold) < 0
}

// String renders a version, tolerating nil.
func String(v *masterminds.Version) string {
	if v == nil {
		return ""
	}
	return v.String()
}
