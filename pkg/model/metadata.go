package model

import (
	"encoding/json"
	"strings"

	ralpherrors "github.com/cperrin88/ralph/pkg/errors"
)

// DecodePackageMetadata parses the contents of a packages/<name>/<version>.json
// file into a Package attributed to source. Unknown fields are ignored by
// the underlying json.Unmarshal call.
func DecodePackageMetadata(path string, data []byte, source SourceIdentity) (Package, error) {
	var pf packageFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return Package{}, ralpherrors.SourceFormat(path, err)
	}
	if pf.Name == "" {
		return Package{}, ralpherrors.SourceFormat(path, ralpherrors.New(ralpherrors.KindSourceFormat, "missing package name"))
	}

	return Package{
		Name:         pf.Name,
		Version:      pf.Version,
		Dependencies: pf.Dependencies,
		Flags:        pf.Flags,
		Source:       source,
		Hooks:        pf.Hooks,
	}, nil
}

// ParsePackageQuery splits a CLI-style "name[@requirement]" token into its
// package name and version requirement, defaulting to AnyVersion when no
// "@requirement" suffix is present.
func ParsePackageQuery(token string) (name string, req VersionRequirement, err error) {
	if token == "" {
		return "", VersionRequirement{}, ralpherrors.New(ralpherrors.KindBadArgument, "empty package query")
	}

	name, reqStr, hasReq := strings.Cut(token, "@")
	if name == "" {
		return "", VersionRequirement{}, ralpherrors.New(ralpherrors.KindBadArgument, "package query %q has an empty name", token)
	}
	if !hasReq {
		return name, AnyVersion, nil
	}

	req, err = ParseVersionRequirement(reqStr)
	if err != nil {
		return "", VersionRequirement{}, err
	}
	return name, req, nil
}
