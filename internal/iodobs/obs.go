// Public domain.

package iodobs

import (
	"math"

	"github.com/soniakeys/coord"
	"github.com/soniakeys/unit"
)

// SensorErrors holds per-sensor systematic bias or random noise figures.
// Angles are unit.Angle, range in km, rates per second.
type SensorErrors struct {
	RA, Dec   unit.Angle
	Az, El    unit.Angle
	Range     float64
	RangeRate float64
	AzRate    unit.Angle
	ElRate    unit.Angle
}

// SensorSite describes an observing sensor.  Sites are loaded once and not
// modified while cases run.
type SensorSite struct {
	ID     string
	Number int
	Name   string
	Lat    unit.Angle // geodetic
	Lon    unit.Angle // east positive
	Alt    float64    // km above the ellipsoid
	ECEF   coord.Cart // km
	VECEF  coord.Cart // km/s, zero for ground sites
	Bias   SensorErrors
	Noise  SensorErrors
}

// AzEl is an optional topocentric azimuth/elevation pair.
type AzEl struct {
	Az, El unit.Angle
}

// Observation is one angle measurement of an object, enriched with the
// position of the observing site.
//
// RA and Dec are always radians.  Conversion to degrees or sexagesimal
// happens only when formatting.
type Observation struct {
	Epoch    Epoch
	RA       unit.Angle
	Dec      unit.Angle
	AzEl     *AzEl
	SiteID   string
	Site     *SensorSite
	SiteECEF coord.Cart // km
	SiteECI  coord.Cart // km, at Epoch
	SiteVECI coord.Cart // km/s, at Epoch
	PassID   string
	ObjectID string
	EOP      EOP
}

// LineOfSight returns the inertial unit vector from site to object.
func (o *Observation) LineOfSight() coord.Cart {
	return LineOfSight(o.RA.Rad(), o.Dec.Rad())
}

// Track is a sealed run of observations sharing one pass identifier.
type Track struct {
	PassID   string
	ObjectID string
	Obs      []Observation
	Duration float64    // seconds, last epoch minus first
	RMS      unit.Angle // great circle residual, 0 for fewer than 3 obs
}

// Count returns the number of observations in the track.
func (t *Track) Count() int { return len(t.Obs) }

// Mid returns the middle member of the track.  For an even count it is the
// later of the two central observations.
func (t *Track) Mid() *Observation {
	return &t.Obs[len(t.Obs)/2]
}

// SameSiteTol is the geodetic tolerance, in radians, for two observations
// to count as taken from one site.
const SameSiteTol = .001

// Triplet is three observations in strictly increasing epoch order.
type Triplet struct {
	Obs      [3]*Observation
	SameSite bool
}

// Tau returns t1-t2 and t3-t2 in seconds.
func (t *Triplet) Tau() (tau1, tau3 float64) {
	t2 := t.Obs[1].Epoch
	return t.Obs[0].Epoch.Sub(t2), t.Obs[2].Epoch.Sub(t2)
}

// SameSite reports whether the sites of all observations agree within
// SameSiteTol in latitude and longitude.  Observations without a resolved
// site compare by site identifier.
func SameSite(obs [3]*Observation) bool {
	a := obs[0]
	for _, b := range obs[1:] {
		switch {
		case a.Site == nil || b.Site == nil:
			if a.SiteID != b.SiteID {
				return false
			}
		case math.Abs(float64(a.Site.Lat-b.Site.Lat)) > SameSiteTol:
			return false
		case math.Abs(lonDiff(a.Site.Lon, b.Site.Lon)) > SameSiteTol:
			return false
		}
	}
	return true
}

func lonDiff(a, b unit.Angle) float64 {
	d := math.Mod(float64(a-b), 2*math.Pi)
	switch {
	case d > math.Pi:
		d -= 2 * math.Pi
	case d < -math.Pi:
		d += 2 * math.Pi
	}
	return d
}
