// Public domain.

// Package iodsolver implements angles-only initial orbit determination by
// the methods of Laplace, Gauss, Double-r and Gooding.
//
// All methods take an Input built from a time ordered triplet and return a
// Solution at the epoch of the middle observation.  Failures are reported
// in the solution Status and never as panics or errors, so a caller can run
// every method on one triplet and compare what comes back.
package iodsolver

import (
	"github.com/soniakeys/coord"

	"github.com/soniakeys/angiod/internal/iodobs"
	"github.com/soniakeys/angiod/internal/iodprop"
)

// Default iteration controls.
const (
	DefaultMaxIter = 50
	DefaultTol     = 1e-6 // km
)

// Solver implements the solver gateway over a two-body propagator.
type Solver struct {
	prop    *iodprop.Propagator
	MaxIter int
	Tol     float64 // km, on slant range or radius corrections
}

// New returns a Solver with default iteration controls.
func New(prop *iodprop.Propagator) *Solver {
	if prop == nil {
		prop = iodprop.New()
	}
	return &Solver{prop: prop, MaxIter: DefaultMaxIter, Tol: DefaultTol}
}

// converged wraps a final state, noting an unbound orbit.
func (s *Solver) converged(pos, vel coord.Cart, iter int) Solution {
	sol := Solution{
		Pos:    pos,
		Vel:    vel,
		Status: Status{Converged: true, Iterations: iter},
	}
	if vel.Square()/2-iodprop.Mu/iodobs.Norm(pos) >= 0 {
		sol.Status.Note = NoteHyperbolic
	}
	return sol
}
