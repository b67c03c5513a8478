package acquire

import (
	"github.com/hashicorp/go-multierror"

	"github.com/cperrin88/ralph/pkg/model"
)

// PackageOutcome is the result of resolving and acting on a single
// "name[@requirement]" query within a batch.
type PackageOutcome struct {
	Query   string
	Package model.Package
	Err     error
}

// Result aggregates the per-package outcomes of an Install, Remove or
// Check batch, in the input order the queries were given.
type Result struct {
	Outcomes []PackageOutcome
}

// Err merges every failed outcome's error into a single
// *multierror.Error, or returns nil if every outcome succeeded. The CLI
// layer selects an exit code by checking whether this is nil.
func (r *Result) Err() error {
	var merged *multierror.Error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			merged = multierror.Append(merged, o.Err)
		}
	}
	if merged == nil {
		return nil
	}
	return merged
}

// Failed reports whether any outcome in the batch failed.
func (r *Result) Failed() bool {
	for _, o := range r.Outcomes {
		if o.Err != nil {
			return true
		}
	}
	return false
}
