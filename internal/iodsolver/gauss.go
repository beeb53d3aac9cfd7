// Public domain.

package iodsolver

import (
	"errors"
	"math"

	"github.com/soniakeys/coord"

	"github.com/soniakeys/angiod/internal/iodobs"
	"github.com/soniakeys/angiod/internal/iodprop"
)

// ErrNoRoot is returned by GaussRoot when the range polynomial has no root
// in the searched interval.
var ErrNoRoot = errors.New("no positive root of range polynomial")

// ErrCoplanar is returned by GaussRoot when the three lines of sight are
// coplanar.
var ErrCoplanar = errors.New("lines of sight coplanar")

// gauss holds the quantities of the Gauss method that do not depend on the
// range.
type gauss struct {
	tau1, tau3, tau float64
	d0              float64
	d               [3][3]float64
	a, b            float64
	e, r2sq         float64
}

func newGauss(in *Input) (*gauss, error) {
	g := &gauss{}
	g.tau1, g.tau3 = in.Tau()
	g.tau = g.tau3 - g.tau1
	p := [3]coord.Cart{
		iodobs.Cross(in.L[1], in.L[2]),
		iodobs.Cross(in.L[0], in.L[2]),
		iodobs.Cross(in.L[0], in.L[1]),
	}
	g.d0 = iodobs.Dot(in.L[0], p[0])
	if math.Abs(g.d0) < 1e-14 {
		return nil, ErrCoplanar
	}
	for i := range in.R {
		for j := range p {
			g.d[i][j] = iodobs.Dot(in.R[i], p[j])
		}
	}
	t1, t3, t := g.tau1, g.tau3, g.tau
	g.a = (-g.d[0][1]*t3/t + g.d[1][1] + g.d[2][1]*t1/t) / g.d0
	g.b = (g.d[0][1]*(t3*t3-t*t)*t3/t + g.d[2][1]*(t*t-t1*t1)*t1/t) / (6 * g.d0)
	g.e = iodobs.Dot(in.R[1], in.L[1])
	g.r2sq = in.R[1].Square()
	return g, nil
}

// roots returns candidate geocentric distances at the middle epoch.
func (g *gauss) roots() []float64 {
	mu := iodprop.Mu
	a := -(g.a*g.a + 2*g.a*g.e + g.r2sq)
	b := -2 * mu * g.b * (g.a + g.e)
	c := -mu * mu * g.b * g.b
	return rangeRoots(a, b, c)
}

// slant returns the three slant ranges for geocentric distance r at the
// middle epoch.
func (g *gauss) slant(r float64) (rho [3]float64) {
	mu := iodprop.Mu
	r3 := r * r * r
	t1, t3, t := g.tau1, g.tau3, g.tau
	d := &g.d
	rho[0] = ((6*(d[2][0]*t1/t3+d[1][0]*t/t3)*r3+mu*d[2][0]*(t*t-t1*t1)*t1/t3)/
		(6*r3+mu*(t*t-t3*t3)) - d[0][0]) / g.d0
	rho[1] = g.a + mu*g.b/r3
	rho[2] = ((6*(d[0][2]*t3/t1-d[1][2]*t/t1)*r3+mu*d[0][2]*(t*t-t3*t3)*t3/t1)/
		(6*r3+mu*(t*t-t1*t1)) - d[2][2]) / g.d0
	return
}

// GaussRoot returns the geocentric distance at the middle epoch from the
// Gauss eighth degree polynomial.  Of several roots the largest with a
// positive slant range is taken.
func (s *Solver) GaussRoot(in Input) (float64, error) {
	g, err := newGauss(&in)
	if err != nil {
		return 0, err
	}
	for _, r := range g.roots() {
		if g.slant(r)[1] > 0 {
			return r, nil
		}
	}
	return 0, ErrNoRoot
}

// Gauss solves by the method of Gauss with iterative improvement of the
// Lagrange coefficients.
func (s *Solver) Gauss(in Input) Solution {
	g, err := newGauss(&in)
	if err != nil {
		return fail(NoteDegenerate, 0, "%v", err)
	}
	var r float64
	var rho [3]float64
	for _, x := range g.roots() {
		if rho = g.slant(x); rho[1] > 0 {
			r = x
			break
		}
	}
	if r == 0 {
		return fail(NoteNoRoot, 0, "%v", ErrNoRoot)
	}

	mu := iodprop.Mu
	r3 := r * r * r
	f1 := 1 - mu*g.tau1*g.tau1/(2*r3)
	g1 := g.tau1 - mu*g.tau1*g.tau1*g.tau1/(6*r3)
	f3 := 1 - mu*g.tau3*g.tau3/(2*r3)
	g3 := g.tau3 - mu*g.tau3*g.tau3*g.tau3/(6*r3)

	var pos [3]coord.Cart
	var v2 coord.Cart
	state := func() {
		for i := range pos {
			pos[i] = iodobs.Add(in.R[i], iodobs.Scale(in.L[i], rho[i]))
		}
		den := f1*g3 - f3*g1
		v2 = iodobs.Scale(iodobs.Sub(
			iodobs.Scale(pos[2], f1),
			iodobs.Scale(pos[0], f3)), 1/den)
	}
	state()

	d := &g.d
	for it := 1; it <= s.MaxIter; it++ {
		p1, _, err1 := s.prop.Kepler(pos[1], v2, g.tau1)
		p3, _, err3 := s.prop.Kepler(pos[1], v2, g.tau3)
		if err1 != nil || err3 != nil {
			return fail(NoteNonConvergent, it, "refinement propagation failed")
		}
		nf1, ng1 := lagrangeFG(pos[1], v2, p1)
		nf3, ng3 := lagrangeFG(pos[1], v2, p3)
		f1, g1 = (f1+nf1)/2, (g1+ng1)/2
		f3, g3 = (f3+nf3)/2, (g3+ng3)/2

		den := f1*g3 - f3*g1
		c1 := g3 / den
		c3 := -g1 / den
		next := [3]float64{
			(-d[0][0] + d[1][0]/c1 - d[2][0]*c3/c1) / g.d0,
			(-c1*d[0][1] + d[1][1] - c3*d[2][1]) / g.d0,
			(-d[0][2]*c1/c3 + d[1][2]/c3 - d[2][2]) / g.d0,
		}
		diff := math.Abs(next[0]-rho[0]) + math.Abs(next[1]-rho[1]) + math.Abs(next[2]-rho[2])
		rho = next
		state()
		if diff < s.Tol {
			return s.converged(pos[1], v2, it)
		}
	}
	sol := fail(NoteNonConvergent, s.MaxIter, "slant ranges still changing")
	sol.Pos, sol.Vel = pos[1], v2
	return sol
}

// lagrangeFG recovers f and g such that r = f r0 + g v0.
func lagrangeFG(r0, v0, r coord.Cart) (f, g float64) {
	h := iodobs.Cross(r0, v0)
	hsq := h.Square()
	f = iodobs.Dot(iodobs.Cross(r, v0), h) / hsq
	g = iodobs.Dot(iodobs.Cross(r0, r), h) / hsq
	return
}
