// Public domain.

package iodtrack

import (
	"errors"
	"fmt"

	"github.com/soniakeys/angiod/internal/iodobs"
)

var errMissing = errors.New("missing observation")

// Select orders three observations by epoch into a triplet.
//
// Ordering is two compare and swap passes: the first brings the earliest
// observation to slot 1, the second the latest to slot 3.  Two equal epochs
// leave the order undefined and fail with iodobs.ErrGeometryDegenerate.
func Select(a, b, c *iodobs.Observation) (iodobs.Triplet, error) {
	obs := [3]*iodobs.Observation{a, b, c}
	for i, o := range obs {
		if o == nil {
			return iodobs.Triplet{}, fmt.Errorf("slot %d: %w", i+1, errMissing)
		}
	}
	for i := 0; i < 2; i++ {
		for j := i + 1; j < 3; j++ {
			if obs[i].Epoch.Sub(obs[j].Epoch) == 0 {
				return iodobs.Triplet{}, fmt.Errorf("observations %d and %d at MJD %.8f: %w",
					i+1, j+1, obs[i].Epoch.MJD(), iodobs.ErrGeometryDegenerate)
			}
		}
	}
	// pass 1: earliest to slot 1
	for j := 1; j < 3; j++ {
		if obs[j].Epoch.Sub(obs[0].Epoch) < 0 {
			obs[0], obs[j] = obs[j], obs[0]
		}
	}
	// pass 2: latest to slot 3
	if obs[1].Epoch.Sub(obs[2].Epoch) > 0 {
		obs[1], obs[2] = obs[2], obs[1]
	}
	return iodobs.Triplet{Obs: obs, SameSite: iodobs.SameSite(obs)}, nil
}

// Midpoints selects the middle observation of each of three tracks.
func Midpoints(t1, t2, t3 *iodobs.Track) (iodobs.Triplet, error) {
	for i, t := range []*iodobs.Track{t1, t2, t3} {
		if t == nil || len(t.Obs) == 0 {
			return iodobs.Triplet{}, fmt.Errorf("track %d: %w", i+1, errMissing)
		}
	}
	return Select(t1.Mid(), t2.Mid(), t3.Mid())
}

// Scan tries each member of track in turn with the fixed partners b and c.
// The returned slices are parallel to track.Obs; for each member exactly
// one of the triplet or the error is meaningful.
func Scan(track *iodobs.Track, b, c *iodobs.Observation) ([]iodobs.Triplet, []error) {
	tr := make([]iodobs.Triplet, len(track.Obs))
	errs := make([]error, len(track.Obs))
	for i := range track.Obs {
		tr[i], errs[i] = Select(&track.Obs[i], b, c)
	}
	return tr, errs
}
