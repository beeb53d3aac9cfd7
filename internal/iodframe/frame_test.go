// Public domain.

package iodframe_test

import (
	"math"
	"testing"

	"github.com/soniakeys/coord"

	"github.com/soniakeys/angiod/internal/iodframe"
	"github.com/soniakeys/angiod/internal/iodobs"
)

var eop = iodobs.EOP{
	DUT1:  -.2,
	DAT:   37,
	LOD:   .0015,
	XP:    .1 * math.Pi / 648000,
	YP:    .3 * math.Pi / 648000,
	DDPsi: -.05 * math.Pi / 648000,
	DDEps: -.003 * math.Pi / 648000,
}

func TestRoundTrip(t *testing.T) {
	tf := iodframe.New()
	ep := iodobs.NewEpoch(2458849.5, .3125)
	for _, tc := range []struct{ r, v coord.Cart }{
		{coord.Cart{X: 6378.137}, coord.Cart{}},
		{coord.Cart{X: 1000, Y: -5000, Z: 3000}, coord.Cart{X: 1, Y: 2, Z: -3}},
		{coord.Cart{X: -42164}, coord.Cart{Y: 3.07}},
	} {
		ri, vi := tf.InertialFromFixed(tc.r, tc.v, ep, eop)
		if d := math.Abs(iodobs.Norm(ri) - iodobs.Norm(tc.r)); d > 1e-8 {
			t.Fatal("rotation changed magnitude by", d)
		}
		rf, vf := tf.FixedFromInertial(ri, vi, ep, eop)
		switch {
		case iodobs.Norm(iodobs.Sub(rf, tc.r)) > 1e-8:
			t.Fatal("position round trip", tc.r, rf)
		case iodobs.Norm(iodobs.Sub(vf, tc.v)) > 1e-11:
			t.Fatal("velocity round trip", tc.v, vf)
		}
	}
}

func TestSiteVelocity(t *testing.T) {
	// a fixed point on the equator moves at ω⊕ r in the inertial frame
	tf := iodframe.New()
	ep := iodobs.NewEpoch(2458849.5, .75)
	_, v := tf.InertialFromFixed(coord.Cart{X: 6378.137}, coord.Cart{}, ep, iodobs.EOP{})
	want := iodframe.OmegaEarth * 6378.137
	if d := math.Abs(iodobs.Norm(v) - want); d > 1e-4 {
		t.Fatalf("site speed %.6f, want %.6f", iodobs.Norm(v), want)
	}
}

func TestGAST(t *testing.T) {
	// sidereal time advances about 361 degrees per solar day
	a := iodframe.GAST(iodobs.NewEpoch(2458849.5, .25), eop)
	b := iodframe.GAST(iodobs.NewEpoch(2458849.5, .50), eop)
	if a < 0 || a >= 2*math.Pi || b < 0 || b >= 2*math.Pi {
		t.Fatal("GAST out of range", a, b)
	}
	d := math.Mod(b-a+2*math.Pi, 2*math.Pi)
	want := math.Mod(2*math.Pi*1.0027379*.25, 2*math.Pi)
	if math.Abs(d-want) > 1e-4 {
		t.Fatalf("6h sidereal advance %.6f, want %.6f", d, want)
	}
}
