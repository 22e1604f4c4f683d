package generator

import (
	"github.com/google/uuid"

	"github.com/toyz/axon-aot/internal/codegen"
	"github.com/toyz/axon-aot/internal/errors"
	"github.com/toyz/axon-aot/internal/manifest"
	"github.com/toyz/axon-aot/internal/models"
)

// Summary counts what a compilation did
type Summary struct {
	Total                int
	Processed            int
	Excluded             int
	Failed               int
	Units                int
	ContributionFailures int
}

// Result is the outcome of one compilation. Output and Manifest are complete
// for every component that compiled; Failures lists the ones that did not.
type Result struct {
	RunID       uuid.UUID
	Output      *codegen.Context
	Manifest    *manifest.Registry
	Descriptors []*models.ComponentDescriptor
	Summary     Summary

	Failures             []*errors.ComponentError
	ContributionFailures []*errors.ContributionError
}

// Err aggregates the component failures. Contribution failures never fail a
// compilation and are not included.
func (r *Result) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	all := errors.NewMultipleErrors()
	for _, f := range r.Failures {
		all.Add(f)
	}
	return all.ErrorOrNil()
}
