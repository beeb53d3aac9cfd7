// Public domain.

package iodobs

import "errors"

// Errors that end processing of a single case.  Neither one stops a batch.
var (
	// ErrUnknownSite is returned when a site identifier is neither in the
	// catalog nor the pass-through marker.
	ErrUnknownSite = errors.New("unknown site")

	// ErrGeometryDegenerate is returned when two members of a triplet share
	// an epoch, leaving the time ordering undefined.
	ErrGeometryDegenerate = errors.New("degenerate geometry: zero time baseline")
)
