// Package acquire implements the install/remove/check pipeline: resolving
// "name[@requirement]" queries against a package database, mutating its
// installed groups, and firing install/remove hooks around each step.
package acquire

import (
	"context"

	"github.com/cperrin88/ralph/pkg/database"
	ralpherrors "github.com/cperrin88/ralph/pkg/errors"
	"github.com/cperrin88/ralph/pkg/model"
)

// Resolve parses query as a "name[@requirement]" token and returns the
// highest version visible from db that satisfies the requirement. Returns
// a KindUnknownPackage error if the name has no candidates at all, or
// KindNoMatchingVersion if candidates exist but none satisfy req.
func Resolve(ctx context.Context, db *database.Database, query string) (model.Package, error) {
	name, req, err := model.ParsePackageQuery(query)
	if err != nil {
		return model.Package{}, err
	}

	candidates, err := db.FindPackages(ctx, name, model.AnyVersion)
	if err != nil {
		return model.Package{}, err
	}
	if len(candidates) == 0 {
		return model.Package{}, ralpherrors.New(ralpherrors.KindUnknownPackage, "unknown package %q", name)
	}

	var best model.Package
	found := false
	for _, pkg := range candidates {
		if !req.Satisfies(pkg.Version) {
			continue
		}
		if !found || pkg.Version.Compare(best.Version) > 0 {
			best = pkg
			found = true
		}
	}
	if !found {
		return model.Package{}, ralpherrors.New(ralpherrors.KindNoMatchingVersion, "no version of %q satisfies %q", name, req.String())
	}
	return best, nil
}

// notInstalledError reports that pkg is not a member of a group's
// installed set.
func notInstalledError(pkg model.Package) error {
	return ralpherrors.New(ralpherrors.KindNotInstalled, "%s@%s is not installed", pkg.Name, pkg.Version.String())
}
