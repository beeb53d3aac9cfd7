// Public domain.

// Package iodprop implements two-body propagation, Lambert's problem and
// conversion of state vectors to classical and equinoctial elements.
//
// Units are km, km/s and radians throughout.
package iodprop

import (
	"errors"
	"math"

	"github.com/soniakeys/coord"

	"github.com/soniakeys/angiod/internal/iodobs"
)

// Mu is the geocentric gravitational parameter, km³/s².
const Mu = 398600.4418

// ErrNoConvergence is returned when an iteration exceeds its limit.
var ErrNoConvergence = errors.New("iteration did not converge")

// ErrZeroState is returned for a zero position vector.
var ErrZeroState = errors.New("zero position vector")

// Propagator is the two-body propagation gateway.  It holds no state.
type Propagator struct {
	mu float64
}

// New returns a geocentric propagator.
func New() *Propagator { return &Propagator{mu: Mu} }

// stumpff returns the Stumpff functions C(z) and S(z).
func stumpff(z float64) (c, s float64) {
	switch {
	case z > 1e-6:
		sz := math.Sqrt(z)
		return (1 - math.Cos(sz)) / z, (sz - math.Sin(sz)) / (sz * z)
	case z < -1e-6:
		sz := math.Sqrt(-z)
		return (math.Cosh(sz) - 1) / -z, (math.Sinh(sz) - sz) / (sz * -z)
	}
	// series near zero
	return 1./2 - z/24 + z*z/720, 1./6 - z/120 + z*z/5040
}

// Kepler propagates pos, vel by dt seconds on a two-body orbit using
// universal variables.
func (p *Propagator) Kepler(pos, vel coord.Cart, dt float64) (coord.Cart, coord.Cart, error) {
	r0 := iodobs.Norm(pos)
	if r0 == 0 {
		return coord.Cart{}, coord.Cart{}, ErrZeroState
	}
	if dt == 0 {
		return pos, vel, nil
	}
	smu := math.Sqrt(p.mu)
	v0sq := vel.Square()
	vr0 := iodobs.Dot(pos, vel) / r0
	alpha := 2/r0 - v0sq/p.mu // reciprocal semimajor axis

	// initial guess, elliptic or otherwise
	x := smu * math.Abs(alpha) * dt
	if math.Abs(alpha) < 1e-10 {
		x = smu * dt / r0
	}
	converged := false
	for i := 0; i < 100; i++ {
		z := alpha * x * x
		c, s := stumpff(z)
		f := r0*vr0/smu*x*x*c + (1-alpha*r0)*x*x*x*s + r0*x - smu*dt
		df := r0*vr0/smu*x*(1-alpha*x*x*s) + (1-alpha*r0)*x*x*c + r0
		dx := f / df
		x -= dx
		if math.Abs(dx) <= 1e-12*math.Max(1, math.Abs(x)) {
			converged = true
			break
		}
	}
	if !converged {
		return coord.Cart{}, coord.Cart{}, ErrNoConvergence
	}
	z := alpha * x * x
	c, s := stumpff(z)
	f := 1 - x*x/r0*c
	g := dt - x*x*x*s/smu
	r := iodobs.Add(iodobs.Scale(pos, f), iodobs.Scale(vel, g))
	rm := iodobs.Norm(r)
	fdot := smu / (rm * r0) * (alpha*x*x*x*s - x)
	gdot := 1 - x*x/rm*c
	v := iodobs.Add(iodobs.Scale(pos, fdot), iodobs.Scale(vel, gdot))
	return r, v, nil
}
