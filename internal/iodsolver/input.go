// Public domain.

package iodsolver

import (
	"math"

	"github.com/soniakeys/coord"

	"github.com/soniakeys/angiod/internal/iodobs"
)

// Input is the solver view of a triplet: unit lines of sight and inertial
// site vectors at three increasing epochs.
type Input struct {
	Epochs   [3]iodobs.Epoch
	L        [3]coord.Cart // unit line of sight
	R        [3]coord.Cart // site position, km
	V        [3]coord.Cart // site velocity, km/s
	HalfRevs int           // half revolutions between first and last observation
}

// NewInput builds the solver input for a time ordered triplet.
func NewInput(tr *iodobs.Triplet, halfRevs int) Input {
	in := Input{HalfRevs: halfRevs}
	for i, o := range tr.Obs {
		in.Epochs[i] = o.Epoch
		in.L[i] = o.LineOfSight()
		in.R[i] = o.SiteECI
		in.V[i] = o.SiteVECI
	}
	return in
}

// Tau returns t1-t2 and t3-t2 in seconds.
func (in *Input) Tau() (tau1, tau3 float64) {
	return in.Epochs[0].Sub(in.Epochs[1]), in.Epochs[2].Sub(in.Epochs[1])
}

// SlantRange returns the distance along unit vector l from site position r
// to the sphere of the given geocentric radius.  ok is false when the line
// of sight does not reach that radius.
func SlantRange(l, r coord.Cart, radius float64) (rho float64, ok bool) {
	c := 2 * iodobs.Dot(l, r)
	disc := c*c - 4*(r.Square()-radius*radius)
	if disc < 0 {
		return 0, false
	}
	rho = (-c + math.Sqrt(disc)) / 2
	return rho, rho > 0
}
