// Package modmeta holds the module's compiled-in identity: name, version,
// host compatibility range and declared dependencies.
package modmeta

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

var (
	ErrInvalidVersion = errors.New("invalid semantic version")
	ErrInvalidRange   = errors.New("invalid version range")
)

// Metadata is the module's immutable identity record.
type Metadata struct {
	GUID         string
	Name         string
	Author       string
	Version      string
	HostRange    string
	License      string
	IsBundle     bool
	Dependencies map[string]string // dependency GUID -> version range
}

// Arsenal is the metadata this binary ships with.
var Arsenal = Metadata{
	GUID:      "de.salco.salcosarsenalv2",
	Name:      "Salco's Arsenal",
	Author:    "Salco",
	Version:   "1.0.3",
	HostRange: "~4.0.3",
	License:   "MIT",
	IsBundle:  true,
	Dependencies: map[string]string{
		"com.wtt.commonlib":       "~2.0.14",
		"com.wtt.contentbackport": "~1.0.4",
	},
}

// Banner is the single completion line logged after a successful load.
func (m Metadata) Banner() string {
	return fmt.Sprintf("[%s v%s successfully loaded]", strings.ToUpper(m.Name), m.Version)
}

// DependencyNames returns dependency GUIDs in sorted order.
func (m Metadata) DependencyNames() []string {
	names := make([]string, 0, len(m.Dependencies))
	for name := range m.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that the version and every range parse.
func (m Metadata) Validate() error {
	if m.GUID == "" || m.Name == "" {
		return errors.New("metadata requires guid and name")
	}
	if !semver.IsValid(canonical(m.Version)) {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, m.Version)
	}
	if _, _, _, err := parseRange(m.HostRange); err != nil {
		return fmt.Errorf("host range: %w", err)
	}
	for _, name := range m.DependencyNames() {
		if _, _, _, err := parseRange(m.Dependencies[name]); err != nil {
			return fmt.Errorf("dependency %s: %w", name, err)
		}
	}
	return nil
}

// SupportsHost reports whether hostVersion falls within the host range.
func (m Metadata) SupportsHost(hostVersion string) (bool, error) {
	return SatisfiesRange(hostVersion, m.HostRange)
}

// SatisfiesRange reports whether version matches rng, with npm-style range
// semantics:
//
//	~X.Y.Z  >=X.Y.Z <X.(Y+1).0      ~X  >=X.0.0 <(X+1).0.0
//	^X.Y.Z  >=X.Y.Z <(X+1).0.0 for X>0, <0.(Y+1).0 for 0.Y, <0.0.(Z+1) for 0.0.Z
//	X.Y.Z   exact match
func SatisfiesRange(version, rng string) (bool, error) {
	v := canonical(version)
	if !semver.IsValid(v) {
		return false, fmt.Errorf("%w: %q", ErrInvalidVersion, version)
	}
	op, base, parts, err := parseRange(rng)
	if err != nil {
		return false, err
	}

	if op == 0 {
		return semver.Compare(v, base) == 0, nil
	}
	upper := upperBound(op, parts)
	return semver.Compare(v, base) >= 0 && semver.Compare(v, upper) < 0, nil
}

// upperBound returns the exclusive upper version for a ~ or ^ range whose
// base was written with the given numeric components (1 to 3 of them).
func upperBound(op byte, parts []int) string {
	major, minor, patch := parts[0], 0, 0
	if len(parts) > 1 {
		minor = parts[1]
	}
	if len(parts) > 2 {
		patch = parts[2]
	}

	switch {
	case op == '~' && len(parts) == 1:
		return fmt.Sprintf("v%d.0.0", major+1)
	case op == '~':
		return fmt.Sprintf("v%d.%d.0", major, minor+1)
	case major > 0 || len(parts) == 1:
		return fmt.Sprintf("v%d.0.0", major+1)
	case minor > 0 || len(parts) == 2:
		return fmt.Sprintf("v0.%d.0", minor+1)
	default:
		return fmt.Sprintf("v0.0.%d", patch+1)
	}
}

func parseRange(rng string) (byte, string, []int, error) {
	rng = strings.TrimSpace(rng)
	if rng == "" {
		return 0, "", nil, fmt.Errorf("%w: empty", ErrInvalidRange)
	}
	var op byte
	if rng[0] == '~' || rng[0] == '^' {
		op = rng[0]
		rng = rng[1:]
	}
	base := canonical(rng)
	if !semver.IsValid(base) {
		return 0, "", nil, fmt.Errorf("%w: %q", ErrInvalidRange, rng)
	}

	core := strings.TrimPrefix(base, "v")
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core = core[:i]
	}
	fields := strings.Split(core, ".")
	parts := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return 0, "", nil, fmt.Errorf("%w: %q", ErrInvalidRange, rng)
		}
		parts[i] = n
	}
	return op, base, parts, nil
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
