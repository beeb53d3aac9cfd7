// Public domain.

package iodsolver

import "math"

const (
	rootMin  = 1.   // km
	rootMax  = 1e7  // km
	rootStep = 1.005
)

// rangeRoots returns the roots of x⁸ + a x⁶ + b x³ + c between rootMin and
// rootMax, largest first.
//
// The scan is geometric, so roots closer together than half a percent may
// be missed.  No physically distinct ranges are that close.
func rangeRoots(a, b, c float64) []float64 {
	f := func(x float64) float64 {
		x3 := x * x * x
		return x3*x3*x*x + a*x3*x3 + b*x3 + c
	}
	var roots []float64
	hi := rootMax
	fhi := f(hi)
	for hi > rootMin {
		lo := hi / rootStep
		flo := f(lo)
		switch {
		case flo == 0:
			roots = append(roots, lo)
		case fhi != 0 && (flo < 0) != (fhi < 0):
			roots = append(roots, bisect(f, lo, hi, flo))
		}
		hi, fhi = lo, flo
	}
	return roots
}

func bisect(f func(float64) float64, lo, hi, flo float64) float64 {
	for i := 0; i < 100 && hi-lo > 1e-12*hi; i++ {
		mid := (lo + hi) / 2
		fm := f(mid)
		if fm == 0 {
			return mid
		}
		if (fm < 0) == (flo < 0) {
			lo, flo = mid, fm
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// wrap2π returns x reduced to [0, 2π).
func wrap2π(x float64) float64 {
	x = math.Mod(x, 2*math.Pi)
	if x < 0 {
		x += 2 * math.Pi
	}
	return x
}
