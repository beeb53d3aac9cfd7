// Public domain.

package iodrun

import (
	"math"

	"github.com/soniakeys/angiod/internal/iodobs"
	"github.com/soniakeys/angiod/internal/iodsolver"
)

// Range guess limits, km.  Raw estimates outside (0, MaxRange] are replaced
// with DefaultRange regardless of orbit regime.
const (
	MaxRange     = 75000
	DefaultRange = 40000
)

// Bracket factors applied to the guess.
var BracketFactors = [3]float64{1, 1.02, 1.08}

// RangeGuess is the seed for the iterative methods.
type RangeGuess struct {
	Raw       float64 // root as found, km
	RawErr    error   // root finding failure, if any
	Guess     float64 // km
	Clamped   bool    // Guess replaced Raw
	Bracket   [3]float64
	DayCounts [3]int // whole days t2-t1, t3-t2, t3-t1
	HalfRevs  int
}

// ClampRange bounds a raw range estimate.
func ClampRange(raw float64) (guess float64, clamped bool) {
	if !(raw > 0 && raw <= MaxRange) {
		return DefaultRange, true
	}
	return raw, false
}

// DayCounts returns the whole day counts of the three gaps of a triplet.
// A negative count is replaced by the count of the first gap.
func DayCounts(tr *iodobs.Triplet) (c [3]int) {
	day := func(a, b int) int {
		return int(math.Floor(tr.Obs[b].Epoch.Sub(tr.Obs[a].Epoch) / iodobs.SecPerDay))
	}
	c = [3]int{day(0, 1), day(1, 2), day(0, 2)}
	for i := 1; i < 3; i++ {
		if c[i] < 0 {
			c[i] = c[0]
		}
	}
	return
}

// HalfRevs returns 2 if any day count is positive, otherwise 0.
func HalfRevs(c [3]int) int {
	for _, n := range c {
		if n > 0 {
			return 2
		}
	}
	return 0
}

// RootSolver gives a raw geocentric range for a triplet.
type RootSolver interface {
	GaussRoot(in iodsolver.Input) (float64, error)
}

// Estimator produces range guesses.
type Estimator struct {
	Roots RootSolver
}

// Estimate computes the range guess for a triplet.  A root finding failure
// is treated as an out of band raw value.
func (e *Estimator) Estimate(tr *iodobs.Triplet) RangeGuess {
	var rg RangeGuess
	rg.DayCounts = DayCounts(tr)
	rg.HalfRevs = HalfRevs(rg.DayCounts)
	rg.Raw, rg.RawErr = e.Roots.GaussRoot(iodsolver.NewInput(tr, rg.HalfRevs))
	if rg.RawErr != nil {
		rg.Raw = math.NaN()
	}
	rg.Guess, rg.Clamped = ClampRange(rg.Raw)
	for i, f := range BracketFactors {
		rg.Bracket[i] = rg.Guess * f
	}
	return rg
}
