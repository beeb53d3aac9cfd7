// Public domain.

package iodsolver

import (
	"fmt"
	"math"

	"github.com/soniakeys/coord"

	"github.com/soniakeys/angiod/internal/iodobs"
	"github.com/soniakeys/angiod/internal/iodprop"
)

// doubleR is one evaluation of the Double-r time equations.
type doubleR struct {
	f1, f2   float64 // time residuals, s
	pos, vel coord.Cart
}

// DoubleR solves by the Double-r method, iterating on the geocentric
// distances at the first two epochs from seeds r1 and r2 (km).
//
// pct is the percentage of each distance used as the initial finite
// difference step.  Later steps shrink with the corrections.
func (s *Solver) DoubleR(in Input, r1, r2, pct float64) Solution {
	if pct <= 0 {
		return fail(NoteDegenerate, 0, "perturbation %g%% not positive", pct)
	}
	tau1, tau3 := in.Tau()
	frac := pct / 100
	h1, h2 := frac*r1, frac*r2

	cur, err := s.doubleREval(&in, r1, r2, tau1, tau3)
	if err != nil {
		return fail(NoteDegenerate, 0, "seed (%.3f, %.3f): %v", r1, r2, err)
	}
	for it := 1; it <= s.MaxIter; it++ {
		// partial derivatives, reversing and halving the step if it
		// leaves valid geometry
		partial := func(u1, u2, h float64) (float64, float64, error) {
			for k := 0; k < 10; k++ {
				e, err := s.doubleREval(&in, r1+u1*h, r2+u2*h, tau1, tau3)
				if err == nil {
					return (e.f1 - cur.f1) / h, (e.f2 - cur.f2) / h, nil
				}
				if h > 0 {
					h = -h / 2
				} else {
					h /= 2
				}
			}
			return 0, 0, fmt.Errorf("finite difference left valid geometry")
		}
		j11, j21, err := partial(1, 0, h1)
		if err != nil {
			return fail(NoteDegenerate, it, "%v", err)
		}
		j12, j22, err := partial(0, 1, h2)
		if err != nil {
			return fail(NoteDegenerate, it, "%v", err)
		}
		det := j11*j22 - j12*j21
		if det == 0 || math.IsNaN(det) {
			return fail(NoteDegenerate, it, "singular Jacobian")
		}
		d1 := -(j22*cur.f1 - j12*cur.f2) / det
		d2 := -(-j21*cur.f1 + j11*cur.f2) / det

		// halve the correction until the new point evaluates
		var next doubleR
		for k := 0; ; k++ {
			if k == 20 {
				return fail(NoteNonConvergent, it, "no valid step from (%.3f, %.3f)", r1, r2)
			}
			next, err = s.doubleREval(&in, r1+d1, r2+d2, tau1, tau3)
			if err == nil {
				break
			}
			d1, d2 = d1/2, d2/2
		}
		r1, r2, cur = r1+d1, r2+d2, next
		if math.Abs(d1)+math.Abs(d2) < s.Tol {
			return s.converged(cur.pos, cur.vel, it)
		}
		h1 = math.Max(frac*math.Abs(d1), 1e-7*r1)
		h2 = math.Max(frac*math.Abs(d2), 1e-7*r2)
	}
	sol := fail(NoteNonConvergent, s.MaxIter, "radii (%.3f, %.3f)", r1, r2)
	sol.Pos, sol.Vel = cur.pos, cur.vel
	return sol
}

// doubleREval evaluates the time residuals for trial distances r1, r2.
func (s *Solver) doubleREval(in *Input, r1, r2, tau1, tau3 float64) (doubleR, error) {
	var dr doubleR
	rho1, ok1 := SlantRange(in.L[0], in.R[0], r1)
	rho2, ok2 := SlantRange(in.L[1], in.R[1], r2)
	if !ok1 || !ok2 {
		return dr, fmt.Errorf("radius below site")
	}
	p1 := iodobs.Add(in.R[0], iodobs.Scale(in.L[0], rho1))
	p2 := iodobs.Add(in.R[1], iodobs.Scale(in.L[1], rho2))
	w := iodobs.Unit(iodobs.Cross(p1, p2))
	lw := iodobs.Dot(in.L[2], w)
	if math.Abs(lw) < 1e-12 {
		return dr, fmt.Errorf("third line of sight in orbit plane")
	}
	rho3 := -iodobs.Dot(in.R[2], w) / lw
	p3 := iodobs.Add(in.R[2], iodobs.Scale(in.L[2], rho3))
	m1, m2, m3 := iodobs.Norm(p1), iodobs.Norm(p2), iodobs.Norm(p3)

	// transfer angles measured in the plane with normal w
	angle := func(a, b coord.Cart, ma, mb float64) (sin, cos float64) {
		cos = iodobs.Dot(a, b) / (ma * mb)
		sin = iodobs.Dot(iodobs.Cross(a, b), w) / (ma * mb)
		return
	}
	s21, c21 := angle(p1, p2, m1, m2)
	s31, c31 := angle(p1, p3, m1, m3)
	s32, c32 := angle(p2, p3, m2, m3)

	// semilatus rectum from the conic through three coplanar points
	var p float64
	if math.Atan2(s31, c31) < 0 {
		c1 := m2 * s32 / (m1 * s31)
		c3 := m2 * s21 / (m3 * s31)
		p = (c1*m1 - m2 + c3*m3) / (c1 + c3 - 1)
	} else {
		c1 := m1 * s31 / (m2 * s32)
		c3 := m1 * s21 / (m3 * s32)
		p = (c3*m3 - c1*m2 + m1) / (-c1 + c3 + 1)
	}
	if !(p > 0) {
		return dr, fmt.Errorf("semilatus rectum %g", p)
	}
	ecv1 := p/m1 - 1
	ecv2 := p/m2 - 1
	ecv3 := p/m3 - 1
	var esv2 float64
	if math.Abs(s21) > 1e-10 {
		esv2 = (-c21*ecv2 + ecv1) / s21
	} else {
		esv2 = (c32*ecv2 - ecv3) / s32
	}
	e := math.Hypot(ecv2, esv2)
	if math.Abs(1-e) < 1e-8 {
		return dr, fmt.Errorf("parabolic trial orbit")
	}
	a := p / (1 - e*e)
	n := math.Sqrt(iodprop.Mu / math.Abs(a*a*a))

	nu2 := math.Atan2(esv2, ecv2)
	nu1 := nu2 - math.Atan2(s21, c21)
	nu3 := nu2 + math.Atan2(s32, c32)
	m1a := iodprop.MeanAnomaly(e, nu1)
	m2a := iodprop.MeanAnomaly(e, nu2)
	m3a := iodprop.MeanAnomaly(e, nu3)
	var dm12, dm32 float64
	if e < 1 {
		dm12 = -wrap2π(m2a - m1a)
		dm32 = wrap2π(m3a - m2a)
	} else {
		dm12 = m1a - m2a
		dm32 = m3a - m2a
	}
	dr.f1 = tau1 - dm12/n
	dr.f2 = tau3 - dm32/n

	f := 1 - m3/p*(1-c32)
	g := m3 * m2 * s32 / math.Sqrt(iodprop.Mu*p)
	dr.pos = p2
	dr.vel = iodobs.Scale(iodobs.Sub(p3, iodobs.Scale(p2, f)), 1/g)
	return dr, nil
}
