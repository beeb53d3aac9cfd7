// Public domain.

package iodprop

import (
	"errors"
	"math"

	"github.com/soniakeys/coord"

	"github.com/soniakeys/angiod/internal/iodobs"
)

// ErrRectilinear is returned for a state with zero angular momentum.
var ErrRectilinear = errors.New("zero angular momentum")

// Classical holds classical orbital elements.  Angles are radians in
// [0, 2π) except inclination, in [0, π].
type Classical struct {
	P      float64 // semilatus rectum, km
	A      float64 // semimajor axis, km; negative for hyperbolas, Inf for parabolas
	Ecc    float64
	Incl   float64
	RAAN   float64
	ArgP   float64
	Nu     float64 // true anomaly
	M      float64 // mean anomaly
	ArgLat float64 // argument of latitude
}

// Equinoctial holds equinoctial elements in the direct (Fr = 1) or
// retrograde (Fr = -1) set.
type Equinoctial struct {
	N         float64 // mean motion, rad/s
	AF, AG    float64
	Chi, Psi  float64
	MeanLonM  float64 // mean longitude from mean anomaly
	MeanLonNu float64 // mean longitude from true anomaly
	Fr        int
}

// AngularMomentum returns r × v.
func AngularMomentum(pos, vel coord.Cart) coord.Cart {
	return iodobs.Cross(pos, vel)
}

const small = 1e-10

func mod2π(x float64) float64 {
	x = math.Mod(x, 2*math.Pi)
	if x < 0 {
		x += 2 * math.Pi
	}
	return x
}

func acos(x float64) float64 {
	return math.Acos(math.Max(-1, math.Min(1, x)))
}

// Classical converts a state to classical elements.
//
// Circular orbits take ArgP = 0 and measure Nu from the node (or, when
// also equatorial, from the x axis).  Equatorial orbits take RAAN = 0.
func (p *Propagator) Classical(pos, vel coord.Cart) (Classical, error) {
	var el Classical
	r := iodobs.Norm(pos)
	if r == 0 {
		return el, ErrZeroState
	}
	hv := AngularMomentum(pos, vel)
	h := iodobs.Norm(hv)
	if h < small*r {
		return el, ErrRectilinear
	}
	vsq := vel.Square()
	rv := iodobs.Dot(pos, vel)

	el.P = h * h / p.mu
	if alpha := 2/r - vsq/p.mu; math.Abs(alpha) < small {
		el.A = math.Inf(1)
	} else {
		el.A = 1 / alpha
	}
	el.Incl = acos(hv.Z / h)

	nv := coord.Cart{X: -hv.Y, Y: hv.X}
	nm := iodobs.Norm(nv)
	equatorial := nm < small*h
	if !equatorial {
		el.RAAN = acos(nv.X / nm)
		if nv.Y < 0 {
			el.RAAN = 2*math.Pi - el.RAAN
		}
	}

	ev := iodobs.Scale(iodobs.Sub(
		iodobs.Scale(pos, vsq-p.mu/r),
		iodobs.Scale(vel, rv)), 1/p.mu)
	el.Ecc = iodobs.Norm(ev)

	switch {
	case el.Ecc > small && !equatorial:
		el.ArgP = acos(iodobs.Dot(nv, ev) / (nm * el.Ecc))
		if ev.Z < 0 {
			el.ArgP = 2*math.Pi - el.ArgP
		}
	case el.Ecc > small:
		// longitude of periapsis
		el.ArgP = mod2π(math.Atan2(ev.Y, ev.X))
		if hv.Z < 0 {
			el.ArgP = mod2π(-el.ArgP)
		}
	}

	switch {
	case el.Ecc > small:
		el.Nu = acos(iodobs.Dot(ev, pos) / (el.Ecc * r))
		if rv < 0 {
			el.Nu = 2*math.Pi - el.Nu
		}
	case !equatorial:
		el.Nu = acos(iodobs.Dot(nv, pos) / (nm * r))
		if pos.Z < 0 {
			el.Nu = 2*math.Pi - el.Nu
		}
	default:
		el.Nu = mod2π(math.Atan2(pos.Y, pos.X))
		if hv.Z < 0 {
			el.Nu = mod2π(-el.Nu)
		}
	}

	if equatorial {
		el.ArgLat = mod2π(el.ArgP + el.Nu)
	} else {
		el.ArgLat = acos(iodobs.Dot(nv, pos) / (nm * r))
		if pos.Z < 0 {
			el.ArgLat = 2*math.Pi - el.ArgLat
		}
	}

	el.M = MeanAnomaly(el.Ecc, el.Nu)
	return el, nil
}

// MeanAnomaly converts true anomaly nu to mean anomaly for eccentricity e.
// Elliptic results are in [0, 2π); hyperbolic and parabolic results are
// signed.
func MeanAnomaly(e, nu float64) float64 {
	sn, cn := math.Sincos(nu)
	switch {
	case e < 1-1e-8:
		ea := math.Atan2(math.Sqrt(1-e*e)*sn, e+cn)
		return mod2π(ea - e*math.Sin(ea))
	case e > 1+1e-8:
		sh := math.Sqrt(e*e-1) * sn / (1 + e*cn)
		return e*sh - math.Asinh(sh)
	}
	d := math.Tan(nu / 2)
	return d + d*d*d/3
}

// Equinoctial converts a state to equinoctial elements.
func (p *Propagator) Equinoctial(pos, vel coord.Cart) (Equinoctial, error) {
	var eq Equinoctial
	el, err := p.Classical(pos, vel)
	if err != nil {
		return eq, err
	}
	eq.Fr = 1
	if el.Incl > math.Pi/2 {
		eq.Fr = -1
	}
	fr := float64(eq.Fr)
	if !math.IsInf(el.A, 0) {
		eq.N = math.Sqrt(p.mu / math.Abs(el.A*el.A*el.A))
	}
	w := el.ArgP + fr*el.RAAN
	eq.AF = el.Ecc * math.Cos(w)
	eq.AG = el.Ecc * math.Sin(w)
	t := math.Tan(el.Incl / 2)
	if eq.Fr < 0 {
		t = 1 / t
	}
	sO, cO := math.Sincos(el.RAAN)
	eq.Chi = t * sO
	eq.Psi = t * cO
	eq.MeanLonM = mod2π(w + el.M)
	eq.MeanLonNu = mod2π(w + el.Nu)
	return eq, nil
}
