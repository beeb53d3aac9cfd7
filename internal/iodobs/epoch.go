// Public domain.

// Package iodobs holds the values passed between the stages of angle-only
// initial orbit determination: observations, sensor sites, tracks and
// observation triplets.
package iodobs

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// SecPerDay is the number of SI seconds in a day.
const SecPerDay = 86400

// Epoch is a UTC Julian date split into a whole part and a day fraction.
//
// JD holds the date at the preceding midnight (a value ending in .5) and Frac
// the fraction of the day since then.  Keeping them apart keeps sub-millisecond
// resolution on differences between epochs.
type Epoch struct {
	JD   float64
	Frac float64
}

// NewEpoch normalizes a (jd, frac) pair so that JD ends in .5 and
// 0 <= Frac < 1.
func NewEpoch(jd, frac float64) Epoch {
	w := math.Floor(jd-.5) + .5
	f := frac + (jd - w)
	d := math.Floor(f)
	return Epoch{JD: w + d, Frac: f - d}
}

// EpochFromMJD converts a modified Julian date.
func EpochFromMJD(mjd float64) Epoch {
	d, f := math.Modf(mjd)
	return NewEpoch(d+2400000.5, f)
}

// EpochFromTime converts a time.Time, taken as UTC.
func EpochFromTime(t time.Time) Epoch {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return Epoch{
		JD:   julian.TimeToJD(midnight),
		Frac: t.Sub(midnight).Seconds() / SecPerDay,
	}
}

// Float returns the epoch as a single Julian date.
func (e Epoch) Float() float64 { return e.JD + e.Frac }

// MJD returns the modified Julian date.
func (e Epoch) MJD() float64 { return (e.JD - 2400000.5) + e.Frac }

// Sub returns e - o in seconds.
func (e Epoch) Sub(o Epoch) float64 {
	return ((e.JD - o.JD) + (e.Frac - o.Frac)) * SecPerDay
}

// Add returns the epoch sec seconds after e.
func (e Epoch) Add(sec float64) Epoch {
	return NewEpoch(e.JD, e.Frac+sec/SecPerDay)
}

// Time converts the epoch to a time.Time in UTC.
func (e Epoch) Time() time.Time {
	return julian.JDToTime(e.JD).Add(
		time.Duration(e.Frac * SecPerDay * float64(time.Second))).UTC()
}

// EOP holds the Earth orientation parameters used to convert one
// observation between Earth fixed and inertial frames.
type EOP struct {
	DUT1  float64 // UT1-UTC, seconds
	DAT   float64 // TAI-UTC, seconds
	LOD   float64 // excess length of day, seconds
	XP    float64 // polar motion, radians
	YP    float64 // polar motion, radians
	DDPsi float64 // nutation correction in longitude, radians
	DDEps float64 // nutation correction in obliquity, radians
}
