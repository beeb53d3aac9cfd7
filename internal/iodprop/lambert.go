// Public domain.

package iodprop

import (
	"errors"
	"math"

	"github.com/soniakeys/coord"

	"github.com/soniakeys/angiod/internal/iodobs"
)

// ErrLambertGeometry is returned for transfers with an undefined plane,
// such as collinear position vectors.
var ErrLambertGeometry = errors.New("lambert: undefined transfer plane")

// ErrLambertTime is returned when no transfer of the requested revolution
// count fits the time of flight.
var ErrLambertTime = errors.New("lambert: no solution for time of flight")

// Lambert solves for the velocities at r1 and r2 on the conic connecting
// them in tof seconds.
//
// longWay selects a transfer angle greater than π.  nrev full revolutions
// are made before arriving; for nrev > 0 the low energy branch is returned.
func (p *Propagator) Lambert(r1, r2 coord.Cart, tof float64, longWay bool, nrev int) (v1, v2 coord.Cart, err error) {
	if tof <= 0 || nrev < 0 {
		return v1, v2, ErrLambertTime
	}
	m1, m2 := iodobs.Norm(r1), iodobs.Norm(r2)
	if m1 == 0 || m2 == 0 {
		return v1, v2, ErrZeroState
	}
	cosθ := iodobs.Dot(r1, r2) / (m1 * m2)
	cosθ = math.Max(-1, math.Min(1, cosθ))
	θ := math.Acos(cosθ)
	if longWay {
		θ = 2*math.Pi - θ
	}
	if 1-cosθ < 1e-14 {
		return v1, v2, ErrLambertGeometry
	}
	a := math.Sin(θ) * math.Sqrt(m1*m2/(1-cosθ))
	if math.Abs(a) < 1e-10 {
		return v1, v2, ErrLambertGeometry
	}
	smu := math.Sqrt(p.mu)

	y := func(z float64) float64 {
		c, s := stumpff(z)
		return m1 + m2 + a*(z*s-1)/math.Sqrt(c)
	}
	// time of flight as a function of z.  where y <= 0 no real transfer
	// exists; those z are assigned the limit the branch approaches.
	t := func(z float64, below float64) float64 {
		yz := y(z)
		if yz <= 0 {
			return below
		}
		c, s := stumpff(z)
		x := math.Sqrt(yz / c)
		return (x*x*x*s + a*math.Sqrt(yz)) / smu
	}

	var z float64
	if nrev == 0 {
		z, err = bisectZero(t, tof)
	} else {
		z, err = bisectMulti(t, tof, nrev)
	}
	if err != nil {
		return v1, v2, err
	}
	yz := y(z)
	f := 1 - yz/m1
	g := a * math.Sqrt(yz/p.mu)
	gdot := 1 - yz/m2
	v1 = iodobs.Scale(iodobs.Sub(r2, iodobs.Scale(r1, f)), 1/g)
	v2 = iodobs.Scale(iodobs.Sub(iodobs.Scale(r2, gdot), r1), 1/g)
	return v1, v2, nil
}

// bisectZero solves t(z) = tof on the zero revolution branch, where t is
// increasing in z up to 4π².
func bisectZero(t func(z, below float64) float64, tof float64) (float64, error) {
	hi := 4 * math.Pi * math.Pi * (1 - 1e-6)
	lo := -4 * math.Pi * math.Pi
	for i := 0; t(lo, 0) > tof; i++ {
		if i == 12 {
			return 0, ErrLambertTime
		}
		lo *= 2
	}
	if t(hi, 0) < tof {
		return 0, ErrLambertTime
	}
	for i := 0; i < 200 && hi-lo > 1e-14*math.Max(1, math.Abs(lo)); i++ {
		mid := (lo + hi) / 2
		if t(mid, 0) < tof {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, nil
}

// bisectMulti solves t(z) = tof for n full revolutions.  t has a single
// minimum between (2πn)² and (2π(n+1))²; the branch left of the minimum is
// searched.
func bisectMulti(t func(z, below float64) float64, tof float64, n int) (float64, error) {
	inf := math.Inf(1)
	lo := math.Pow(2*math.Pi*float64(n), 2) * (1 + 1e-6)
	hi := math.Pow(2*math.Pi*float64(n+1), 2) * (1 - 1e-6)

	// golden section search for the minimum time of flight
	const gr = .6180339887498949
	a, b := lo, hi
	c := b - gr*(b-a)
	d := a + gr*(b-a)
	for i := 0; i < 200 && b-a > 1e-12*b; i++ {
		if t(c, inf) < t(d, inf) {
			b = d
		} else {
			a = c
		}
		c = b - gr*(b-a)
		d = a + gr*(b-a)
	}
	zmin := (a + b) / 2
	if t(zmin, inf) > tof {
		return 0, ErrLambertTime
	}
	hi = zmin
	for i := 0; i < 200 && hi-lo > 1e-14*hi; i++ {
		mid := (lo + hi) / 2
		if t(mid, inf) > tof {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, nil
}
