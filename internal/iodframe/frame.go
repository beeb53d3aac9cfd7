// Public domain.

// Package iodframe converts positions and velocities between the Earth fixed
// frame (ITRF) and the inertial frame (J2000 mean equator and equinox) using
// IAU-1976 precession, IAU-1980 nutation, apparent sidereal time and polar
// motion.
//
// Every conversion depends only on its arguments.  A Transformer holds no
// state, so one value may be shared by any number of cases.
package iodframe

import (
	"math"

	satellite "github.com/joshuaferrara/go-satellite"
	"github.com/soniakeys/coord"
	"github.com/soniakeys/meeus/v3/nutation"

	"github.com/soniakeys/angiod/internal/iodobs"
)

// OmegaEarth is the nominal rotation rate of the Earth, rad/s.
const OmegaEarth = 7.292115146706979e-5

const (
	jdJ2000    = 2451545.0
	ttMinusTAI = 32.184
	arcsec     = math.Pi / (180 * 3600)
)

// Transformer implements the frame conversions.
type Transformer struct{}

// New returns a Transformer.
func New() *Transformer { return &Transformer{} }

// chain is the set of rotations for one epoch.
type chain struct {
	pn    mat3 // true of date to J2000: precession times nutation
	r     mat3 // pseudo Earth fixed to true of date
	w     mat3 // ITRF to pseudo Earth fixed
	omega float64
}

func newChain(ep iodobs.Epoch, eop iodobs.EOP) chain {
	jdUT1 := ep.JD + (ep.Frac + eop.DUT1/iodobs.SecPerDay)
	jdTT := ep.JD + (ep.Frac + (eop.DAT+ttMinusTAI)/iodobs.SecPerDay)
	t := (jdTT - jdJ2000) / 36525

	// IAU-1976 precession angles
	zeta := (2306.2181*t + .30188*t*t + .017998*t*t*t) * arcsec
	theta := (2004.3109*t - .42665*t*t - .041833*t*t*t) * arcsec
	z := (2306.2181*t + 1.09468*t*t + .018203*t*t*t) * arcsec
	p := rot3(zeta).mul(rot2(-theta)).mul(rot3(z))

	// IAU-1980 nutation plus observed corrections
	dPsi, dEps := nutation.Nutation(jdTT)
	eps0 := nutation.MeanObliquity(jdTT).Rad()
	dpsi := dPsi.Rad() + eop.DDPsi
	eps := eps0 + dEps.Rad() + eop.DDEps
	n := rot1(-eps0).mul(rot3(dpsi)).mul(rot1(eps))

	// apparent sidereal time: mean sidereal time plus equation of equinoxes
	gast := satellite.ThetaG_JD(jdUT1) + dpsi*math.Cos(eps0)
	gast = math.Mod(gast, 2*math.Pi)

	return chain{
		pn:    p.mul(n),
		r:     rot3(-gast),
		w:     rot1(eop.YP).mul(rot2(eop.XP)),
		omega: OmegaEarth * (1 - eop.LOD/iodobs.SecPerDay),
	}
}

// InertialFromFixed converts an ITRF position (km) and velocity (km/s) at
// epoch ep to the inertial frame.
func (*Transformer) InertialFromFixed(pos, vel coord.Cart, ep iodobs.Epoch, eop iodobs.EOP) (coord.Cart, coord.Cart) {
	c := newChain(ep, eop)
	rPEF := c.w.apply(pos)
	vPEF := c.w.apply(vel)
	om := coord.Cart{Z: c.omega}
	vPEF = iodobs.Add(vPEF, iodobs.Cross(om, rPEF))
	m := c.pn.mul(c.r)
	return m.apply(rPEF), m.apply(vPEF)
}

// FixedFromInertial is the inverse of InertialFromFixed.
func (*Transformer) FixedFromInertial(pos, vel coord.Cart, ep iodobs.Epoch, eop iodobs.EOP) (coord.Cart, coord.Cart) {
	c := newChain(ep, eop)
	m := c.pn.mul(c.r).t()
	rPEF := m.apply(pos)
	vPEF := m.apply(vel)
	om := coord.Cart{Z: c.omega}
	vPEF = iodobs.Sub(vPEF, iodobs.Cross(om, rPEF))
	wt := c.w.t()
	return wt.apply(rPEF), wt.apply(vPEF)
}

// GAST returns apparent Greenwich sidereal time in radians for ep.
func GAST(ep iodobs.Epoch, eop iodobs.EOP) float64 {
	c := newChain(ep, eop)
	// r = rot3(-gast): r[0][1] = -sin(gast), r[0][0] = cos(gast)
	g := math.Atan2(-c.r[0][1], c.r[0][0])
	if g < 0 {
		g += 2 * math.Pi
	}
	return g
}
