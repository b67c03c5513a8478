package model

// PackageConfiguration is a mapping from option key to option value used to
// parameterize an installation. Order is irrelevant; when two
// configurations are merged the rightmost argument wins per key.
type PackageConfiguration map[string]string

// Merge returns a new configuration built by layering overlays onto c in
// order, left to right, with later values overriding earlier ones.
func (c PackageConfiguration) Merge(overlays ...PackageConfiguration) PackageConfiguration {
	out := make(PackageConfiguration, len(c))
	for k, v := range c {
		out[k] = v
	}
	for _, overlay := range overlays {
		for k, v := range overlay {
			out[k] = v
		}
	}
	return out
}

// Equal reports whether c and other hold the same key/value pairs.
func (c PackageConfiguration) Equal(other PackageConfiguration) bool {
	if len(c) != len(other) {
		return false
	}
	for k, v := range c {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// Dependency is a declared dependency: a package name, a version
// requirement, and an optional configuration overlay applied when the
// dependency is materialized.
type Dependency struct {
	Name        string               `json:"name"`
	Requirement VersionRequirement   `json:"version"`
	Config      PackageConfiguration `json:"config,omitempty"`
}

// SourceIdentity names the PackageSource a Package was produced by.
type SourceIdentity string

// Package is immutable once loaded from a source's index. Two packages
// are equal iff their name, version and source identity all match.
type Package struct {
	Name         string
	Version      Version
	Dependencies []Dependency
	Flags        []string
	Source       SourceIdentity
	// Hooks maps a hook type ("pre-install", "post-install", "pre-remove",
	// "post-remove") to the Tengo script that should run for it.
	Hooks map[string]string
}

// Equal reports whether p and other identify the same package.
func (p Package) Equal(other Package) bool {
	return p.Name == other.Name && p.Version.Equal(other.Version) && p.Source == other.Source
}

// packageFile is the on-disk shape of packages/<name>/<version>.json
// inside a source mirror. Unknown fields are ignored on read.
type packageFile struct {
	Name         string            `json:"name"`
	Version      Version           `json:"version"`
	Dependencies []Dependency      `json:"dependencies,omitempty"`
	Flags        []string          `json:"flags,omitempty"`
	Hooks        map[string]string `json:"hooks,omitempty"`
}
