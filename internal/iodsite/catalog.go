// Public domain.

// Package iodsite resolves sensor identifiers to site descriptions.
//
// A Catalog is a map from identifier to site, loaded before any case runs
// and read-only afterward.  One identifier, PassThrough, is special: it
// takes the caller's geodetic coordinates as given and only derives the
// Earth fixed vectors from them.
package iodsite

import (
	"fmt"
	"math"
	"sort"

	"github.com/soniakeys/coord"
	"github.com/soniakeys/meeus/v3/globe"
	"github.com/soniakeys/unit"

	"github.com/soniakeys/angiod/internal/iodobs"
)

// PassThrough is the site identifier meaning "use the coordinates supplied
// with the observation."  The empty identifier means the same.
const PassThrough = "as-given"

// WGS84 is the reference ellipsoid for site coordinates.  Er is km.
var WGS84 = globe.Ellipsoid{Er: 6378.137, Fl: 1 / 298.257223563}

// Catalog maps site identifiers to sites.
type Catalog struct {
	sites map[string]*iodobs.SensorSite
}

// New returns a catalog holding sites.  Later duplicates replace earlier
// ones.
func New(sites ...iodobs.SensorSite) *Catalog {
	c := &Catalog{sites: make(map[string]*iodobs.SensorSite)}
	for _, s := range sites {
		c.Add(s)
	}
	return c
}

// Add stores a copy of s, computing its Earth fixed position if the caller
// left it zero.
func (c *Catalog) Add(s iodobs.SensorSite) {
	if s.ECEF == (coord.Cart{}) {
		s.ECEF = ECEF(s.Lat, s.Lon, s.Alt)
	}
	c.sites[s.ID] = &s
}

// Len returns the number of catalog sites.
func (c *Catalog) Len() int { return len(c.sites) }

// Sites returns the catalog sites ordered by identifier.
func (c *Catalog) Sites() []*iodobs.SensorSite {
	s := make([]*iodobs.SensorSite, 0, len(c.sites))
	for _, site := range c.sites {
		s = append(s, site)
	}
	sort.Slice(s, func(i, j int) bool { return s[i].ID < s[j].ID })
	return s
}

// Resolve returns the site for id.
//
// For a catalog identifier the catalog coordinates override the fallback
// values.  For PassThrough (or "") the fallback latitude, longitude and
// altitude (km) are kept and only the Earth fixed vectors are derived.
// Any other identifier fails with iodobs.ErrUnknownSite.
func (c *Catalog) Resolve(id string, lat, lon unit.Angle, alt float64) (*iodobs.SensorSite, error) {
	if s, ok := c.sites[id]; ok {
		return s, nil
	}
	if id != PassThrough && id != "" {
		return nil, fmt.Errorf("%w: %q", iodobs.ErrUnknownSite, id)
	}
	return &iodobs.SensorSite{
		ID:   PassThrough,
		Lat:  lat,
		Lon:  lon,
		Alt:  alt,
		ECEF: ECEF(lat, lon, alt),
	}, nil
}

// ECEF computes the Earth fixed position (km) of a geodetic location.
func ECEF(lat, lon unit.Angle, alt float64) coord.Cart {
	// parallax constants are in units of the equatorial radius,
	// height is meters.
	s, c := WGS84.ParallaxConstants(lat, alt*1000)
	sl, cl := math.Sincos(lon.Rad())
	return coord.Cart{
		X: WGS84.Er * c * cl,
		Y: WGS84.Er * c * sl,
		Z: WGS84.Er * s,
	}
}

// Geodetic inverts ECEF, returning latitude, longitude and altitude (km).
func Geodetic(r coord.Cart) (lat, lon unit.Angle, alt float64) {
	a := WGS84.Er
	e2 := WGS84.Fl * (2 - WGS84.Fl)
	p := math.Hypot(r.X, r.Y)
	lon = unit.Angle(math.Atan2(r.Y, r.X))
	if p < 1e-9 {
		// on the axis
		b := a * (1 - WGS84.Fl)
		if r.Z < 0 {
			return unit.Angle(-math.Pi / 2), lon, -r.Z - b
		}
		return unit.Angle(math.Pi / 2), lon, r.Z - b
	}
	φ := math.Atan2(r.Z, p*(1-e2))
	var h float64
	for i := 0; i < 10; i++ {
		sφ := math.Sin(φ)
		n := a / math.Sqrt(1-e2*sφ*sφ)
		h = p/math.Cos(φ) - n
		next := math.Atan2(r.Z, p*(1-e2*n/(n+h)))
		if math.Abs(next-φ) < 1e-13 {
			φ = next
			break
		}
		φ = next
	}
	return unit.Angle(φ), lon, h
}
