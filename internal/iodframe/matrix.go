// Public domain.

package iodframe

import (
	"math"

	"github.com/soniakeys/coord"
)

// mat3 is a row-major 3x3 rotation.
type mat3 [3][3]float64

// rot1, rot2, rot3 are frame (passive) rotations about x, y and z.
func rot1(a float64) mat3 {
	s, c := math.Sincos(a)
	return mat3{{1, 0, 0}, {0, c, s}, {0, -s, c}}
}

func rot2(a float64) mat3 {
	s, c := math.Sincos(a)
	return mat3{{c, 0, -s}, {0, 1, 0}, {s, 0, c}}
}

func rot3(a float64) mat3 {
	s, c := math.Sincos(a)
	return mat3{{c, s, 0}, {-s, c, 0}, {0, 0, 1}}
}

func (m mat3) mul(n mat3) (p mat3) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			p[i][j] = m[i][0]*n[0][j] + m[i][1]*n[1][j] + m[i][2]*n[2][j]
		}
	}
	return
}

func (m mat3) t() (p mat3) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			p[i][j] = m[j][i]
		}
	}
	return
}

func (m mat3) apply(v coord.Cart) coord.Cart {
	return coord.Cart{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}
