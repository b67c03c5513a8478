// Package model holds the entity model shared by sources, databases and
// the acquisition pipeline: versions, version requirements, packages,
// dependencies and per-install configuration overlays.
package model

import (
	"encoding/json"
	"strconv"
	"strings"

	goversion "github.com/hashicorp/go-version"

	ralpherrors "github.com/cperrin88/ralph/pkg/errors"
)

// Version is a dotted numeric sequence with an optional trailing
// prerelease tag, e.g. "1.4.2" or "2.0.0-beta". Numeric comparison and
// prerelease ordering are delegated to hashicorp/go-version; this type
// only adds the stricter parse grammar and canonical formatting that the
// rest of the module relies on.
type Version struct {
	components []int64
	tag        string
	inner      *goversion.Version
}

// ParseVersion parses a dotted numeric version with an optional "-tag"
// suffix on the last component. Rejects empty input, non-numeric numeric
// components, and more than one "-".
func ParseVersion(s string) (Version, error) {
	if s == "" {
		return Version{}, ralpherrors.New(ralpherrors.KindBadVersionSyntax, "empty version string")
	}

	parts := strings.Split(s, "-")
	if len(parts) > 2 {
		return Version{}, ralpherrors.New(ralpherrors.KindBadVersionSyntax, "version %q has more than one '-'", s)
	}

	numeric := parts[0]
	tag := ""
	if len(parts) == 2 {
		tag = parts[1]
		if tag == "" {
			return Version{}, ralpherrors.New(ralpherrors.KindBadVersionSyntax, "version %q has an empty prerelease tag", s)
		}
	}

	compStrs := strings.Split(numeric, ".")
	components := make([]int64, len(compStrs))
	for i, cs := range compStrs {
		if cs == "" {
			return Version{}, ralpherrors.New(ralpherrors.KindBadVersionSyntax, "version %q has an empty component", s)
		}
		n, err := strconv.ParseInt(cs, 10, 64)
		if err != nil {
			return Version{}, ralpherrors.Wrapf(err, ralpherrors.KindBadVersionSyntax, "version %q has a non-numeric component %q", s, cs)
		}
		if n < 0 {
			return Version{}, ralpherrors.New(ralpherrors.KindBadVersionSyntax, "version %q has a negative component", s)
		}
		components[i] = n
	}

	v := Version{components: components, tag: tag}
	inner, err := goversion.NewVersion(v.canonicalForLib())
	if err != nil {
		return Version{}, ralpherrors.Wrapf(err, ralpherrors.KindBadVersionSyntax, "version %q", s)
	}
	v.inner = inner
	return v, nil
}

// MustParseVersion panics if s does not parse. Reserved for literals known
// to be valid at compile time (defaults, test fixtures).
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// newVersionFromComponents builds a Version from trusted-valid numeric
// components with no tag, used internally to construct requirement range
// bounds that were never parsed from user input.
func newVersionFromComponents(components []int64) Version {
	v := Version{components: components}
	inner, err := goversion.NewVersion(v.canonicalForLib())
	if err != nil {
		panic(err)
	}
	v.inner = inner
	return v
}

// componentAt returns the i-th numeric component, or 0 past the end.
func (v Version) componentAt(i int) int64 {
	if i < len(v.components) {
		return v.components[i]
	}
	return 0
}

// Tag returns the prerelease tag, or "" if the version is untagged.
func (v Version) Tag() string {
	return v.tag
}

// String formats the canonical dotted-numeric[-tag] representation.
func (v Version) String() string {
	parts := make([]string, len(v.components))
	for i, c := range v.components {
		parts[i] = strconv.FormatInt(c, 10)
	}
	s := strings.Join(parts, ".")
	if v.tag != "" {
		s += "-" + v.tag
	}
	return s
}

// canonicalForLib pads to three numeric components, since go-version
// expects at least a major.minor.patch shape for reliable comparison.
func (v Version) canonicalForLib() string {
	major, minor, patch := v.componentAt(0), v.componentAt(1), v.componentAt(2)
	s := strconv.FormatInt(major, 10) + "." + strconv.FormatInt(minor, 10) + "." + strconv.FormatInt(patch, 10)
	for i := 3; i < len(v.components); i++ {
		s += "." + strconv.FormatInt(v.components[i], 10)
	}
	if v.tag != "" {
		s += "-" + v.tag
	}
	return s
}

// Compare returns -1, 0 or 1 as v is less than, equal to, or greater than
// other, per hashicorp/go-version's total order: component-wise numeric
// compare, then an untagged version sorts after a tagged one with equal
// components, then prerelease tags compare segment-wise.
func (v Version) Compare(other Version) int {
	return v.inner.Compare(other.inner)
}

// LessThan reports whether v sorts before other.
func (v Version) LessThan(other Version) bool { return v.Compare(other) < 0 }

// Equal reports whether v and other compare equal under Compare; missing
// trailing components count as zero, so 1.0 equals 1.0.0.
func (v Version) Equal(other Version) bool { return v.Compare(other) == 0 }

// MarshalJSON encodes the version as its canonical string.
func (v Version) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON decodes the version from a JSON string.
func (v *Version) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseVersion(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
