// Public domain.

package iodobs

import (
	"math"

	"github.com/soniakeys/coord"
)

// Value forms of the coord.Cart operations.  coord works in place on
// pointers; the IOD formulas read better as expressions.

// Add returns a + b.
func Add(a, b coord.Cart) (c coord.Cart) {
	c.Add(&a, &b)
	return
}

// Sub returns a - b.
func Sub(a, b coord.Cart) (c coord.Cart) {
	c.Sub(&a, &b)
	return
}

// Scale returns s * a.
func Scale(a coord.Cart, s float64) (c coord.Cart) {
	c.MulScalar(&a, s)
	return
}

// Cross returns a × b.
func Cross(a, b coord.Cart) (c coord.Cart) {
	c.Cross(&a, &b)
	return
}

// Dot returns a · b.
func Dot(a, b coord.Cart) float64 {
	return a.Dot(&b)
}

// Norm returns |a|.
func Norm(a coord.Cart) float64 {
	return math.Sqrt(a.Square())
}

// Unit returns a / |a|, or the zero vector if a is zero.
func Unit(a coord.Cart) coord.Cart {
	m := Norm(a)
	if m == 0 {
		return coord.Cart{}
	}
	return Scale(a, 1/m)
}

// Det returns the scalar triple product a · (b × c).
func Det(a, b, c coord.Cart) float64 {
	return Dot(a, Cross(b, c))
}

// LineOfSight returns the unit vector toward right ascension ra and
// declination dec, both in radians.
func LineOfSight(ra, dec float64) coord.Cart {
	sr, cr := math.Sincos(ra)
	sd, cd := math.Sincos(dec)
	return coord.Cart{X: cd * cr, Y: cd * sr, Z: sd}
}

// RADec inverts LineOfSight for any non-zero vector.  RA is returned in
// [0, 2π).
func RADec(v coord.Cart) (ra, dec float64) {
	ra = math.Atan2(v.Y, v.X)
	if ra < 0 {
		ra += 2 * math.Pi
	}
	dec = math.Atan2(v.Z, math.Hypot(v.X, v.Y))
	return
}
