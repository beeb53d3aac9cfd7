// Public domain.

package iodsolver

import (
	"errors"
	"math"

	"github.com/soniakeys/coord"

	"github.com/soniakeys/angiod/internal/iodobs"
	"github.com/soniakeys/angiod/internal/iodprop"
)

// goodingEval is one evaluation of the Gooding miss function.
type goodingEval struct {
	miss     [2]float64 // km, perpendicular to the middle line of sight
	pos, vel coord.Cart // at the middle epoch
}

// Gooding solves by Gooding's method, iterating on the slant ranges at the
// first and last epochs from seeds rho1 and rho3 (km).
//
// The transfer between the outer observations is a Lambert arc with
// in.HalfRevs/2 full revolutions, going the long way for an odd count.
// The middle observation fixes the ranges.
func (s *Solver) Gooding(in Input, rho1, rho3 float64) Solution {
	if rho1 <= 0 || rho3 <= 0 {
		return fail(NoteDegenerate, 0, "seed ranges (%.3f, %.3f) not positive", rho1, rho3)
	}
	// basis perpendicular to the middle line of sight
	l2 := in.L[1]
	ref := coord.Cart{Z: 1}
	if math.Abs(l2.Z) > .9 {
		ref = coord.Cart{X: 1}
	}
	e1 := iodobs.Unit(iodobs.Cross(l2, ref))
	e2 := iodobs.Cross(l2, e1)

	eval := func(r1, r3 float64) (goodingEval, error) {
		return s.goodingEval(&in, r1, r3, e1, e2)
	}
	cur, err := eval(rho1, rho3)
	if err != nil {
		return goodingFail(0, err)
	}
	for it := 1; it <= s.MaxIter; it++ {
		h1 := 1e-6 * math.Max(rho1, 1)
		h3 := 1e-6 * math.Max(rho3, 1)
		a, err := eval(rho1+h1, rho3)
		if err != nil {
			return goodingFail(it, err)
		}
		b, err := eval(rho1, rho3+h3)
		if err != nil {
			return goodingFail(it, err)
		}
		j11, j21 := (a.miss[0]-cur.miss[0])/h1, (a.miss[1]-cur.miss[1])/h1
		j12, j22 := (b.miss[0]-cur.miss[0])/h3, (b.miss[1]-cur.miss[1])/h3
		det := j11*j22 - j12*j21
		if det == 0 || math.IsNaN(det) {
			return fail(NoteDegenerate, it, "singular Jacobian")
		}
		d1 := -(j22*cur.miss[0] - j12*cur.miss[1]) / det
		d3 := -(-j21*cur.miss[0] + j11*cur.miss[1]) / det

		// keep ranges positive and the step evaluable
		var next goodingEval
		for k := 0; ; k++ {
			if k == 20 {
				return fail(NoteNonConvergent, it, "no valid step from (%.3f, %.3f)", rho1, rho3)
			}
			if rho1+d1 > 0 && rho3+d3 > 0 {
				if next, err = eval(rho1+d1, rho3+d3); err == nil {
					break
				}
			}
			d1, d3 = d1/2, d3/2
		}
		rho1, rho3, cur = rho1+d1, rho3+d3, next
		if math.Abs(d1)+math.Abs(d3) < s.Tol {
			return s.converged(cur.pos, cur.vel, it)
		}
	}
	sol := fail(NoteNonConvergent, s.MaxIter, "ranges (%.3f, %.3f)", rho1, rho3)
	sol.Pos, sol.Vel = cur.pos, cur.vel
	return sol
}

func goodingFail(iter int, err error) Solution {
	if errors.Is(err, errMultiRev) {
		return fail(NoteMultiRevUnsupported, iter, "%v", err)
	}
	return fail(NoteDegenerate, iter, "%v", err)
}

var errMultiRev = errors.New("no multi-revolution transfer for time of flight")

func (s *Solver) goodingEval(in *Input, rho1, rho3 float64, e1, e2 coord.Cart) (goodingEval, error) {
	var ge goodingEval
	p1 := iodobs.Add(in.R[0], iodobs.Scale(in.L[0], rho1))
	p3 := iodobs.Add(in.R[2], iodobs.Scale(in.L[2], rho3))
	tof := in.Epochs[2].Sub(in.Epochs[0])
	nrev := in.HalfRevs / 2
	v1, _, err := s.prop.Lambert(p1, p3, tof, in.HalfRevs%2 == 1, nrev)
	if err != nil {
		if nrev > 0 && errors.Is(err, iodprop.ErrLambertTime) {
			return ge, errMultiRev
		}
		return ge, err
	}
	pos, vel, err := s.prop.Kepler(p1, v1, in.Epochs[1].Sub(in.Epochs[0]))
	if err != nil {
		return ge, err
	}
	d := iodobs.Sub(pos, in.R[1])
	ge.miss = [2]float64{iodobs.Dot(d, e1), iodobs.Dot(d, e2)}
	ge.pos, ge.vel = pos, vel
	return ge, nil
}
