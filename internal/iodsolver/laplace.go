// Public domain.

package iodsolver

import (
	"math"

	"github.com/soniakeys/coord"

	"github.com/soniakeys/angiod/internal/iodframe"
	"github.com/soniakeys/angiod/internal/iodobs"
	"github.com/soniakeys/angiod/internal/iodprop"
)

// lagrange returns the first and second derivatives at the middle epoch of
// the quadratic through three vectors.
func lagrange(v [3]coord.Cart, tau1, tau3 float64) (d1, d2 coord.Cart) {
	// t1-t2 = tau1, t3-t2 = tau3, t1-t3 = tau1-tau3
	w1 := -tau3 / (tau1 * (tau1 - tau3))
	w2 := -(tau1 + tau3) / (tau1 * tau3)
	w3 := -tau1 / ((tau3 - tau1) * tau3)
	s1 := 2 / (tau1 * (tau1 - tau3))
	s2 := 2 / (tau1 * tau3)
	s3 := 2 / ((tau3 - tau1) * tau3)
	d1 = iodobs.Add(iodobs.Add(iodobs.Scale(v[0], w1), iodobs.Scale(v[1], w2)), iodobs.Scale(v[2], w3))
	d2 = iodobs.Add(iodobs.Add(iodobs.Scale(v[0], s1), iodobs.Scale(v[1], s2)), iodobs.Scale(v[2], s3))
	return
}

// Laplace solves by the method of Laplace, differentiating the line of
// sight at the middle epoch.
//
// When sameSite is true the site motion is taken as rotation with the
// Earth.  Otherwise it is interpolated from the three site positions.
func (s *Solver) Laplace(in Input, sameSite bool) Solution {
	tau1, tau3 := in.Tau()
	l := in.L[1]
	ld, ldd := lagrange(in.L, tau1, tau3)
	r := in.R[1]
	var rd, rdd coord.Cart
	if sameSite {
		om := coord.Cart{Z: iodframe.OmegaEarth}
		rd = in.V[1]
		if rd == (coord.Cart{}) {
			rd = iodobs.Cross(om, r)
		}
		rdd = iodobs.Cross(om, rd)
	} else {
		rd, rdd = lagrange(in.R, tau1, tau3)
	}

	delta := iodobs.Det(l, ld, ldd)
	if math.Abs(delta) < 1e-30 {
		return fail(NoteDegenerate, 0, "line of sight derivatives coplanar")
	}
	mu := iodprop.Mu
	p := -iodobs.Det(l, ld, rdd) / delta
	q := -mu * iodobs.Det(l, ld, r) / delta
	c := iodobs.Dot(l, r)

	var rm, rho float64
	for _, x := range rangeRoots(-(p*p + 2*c*p + r.Square()), -2*q*(p+c), -q*q) {
		if rho = p + q/(x*x*x); rho > 0 {
			rm = x
			break
		}
	}
	if rm == 0 {
		return fail(NoteNoRoot, 0, "no positive range")
	}
	rm3 := rm * rm * rm
	rhod := iodobs.Dot(
		iodobs.Add(rdd, iodobs.Scale(r, mu/rm3)),
		iodobs.Cross(l, ldd)) / (2 * delta)

	pos := iodobs.Add(r, iodobs.Scale(l, rho))
	vel := iodobs.Add(iodobs.Add(rd, iodobs.Scale(l, rhod)), iodobs.Scale(ld, rho))
	return s.converged(pos, vel, 0)
}
