// Public domain.

package iodsite_test

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/soniakeys/unit"

	"github.com/soniakeys/angiod/internal/iodobs"
	"github.com/soniakeys/angiod/internal/iodsite"
)

func TestECEF(t *testing.T) {
	for _, tc := range []struct {
		lat, lon, alt float64 // deg, deg, km
		x, y, z       float64
	}{
		{0, 0, 0, 6378.137, 0, 0},
		{0, 90, 1, 0, 6379.137, 0},
		{90, 0, 0, 0, 0, 6356.752314},
		{-90, 0, 0, 0, 0, -6356.752314},
	} {
		r := iodsite.ECEF(unit.AngleFromDeg(tc.lat), unit.AngleFromDeg(tc.lon), tc.alt)
		if math.Abs(r.X-tc.x) > 1e-3 || math.Abs(r.Y-tc.y) > 1e-3 || math.Abs(r.Z-tc.z) > 1e-3 {
			t.Fatalf("ECEF(%g, %g, %g) = %+v", tc.lat, tc.lon, tc.alt, r)
		}
	}
}

func TestGeodeticInverse(t *testing.T) {
	for _, tc := range []struct{ lat, lon, alt float64 }{
		{51.4772, 0, .046},
		{-33.2, 149.06, 1.1},
		{19.8207, -155.4681, 4.2},
		{89.9, 10, 0},
	} {
		r := iodsite.ECEF(unit.AngleFromDeg(tc.lat), unit.AngleFromDeg(tc.lon), tc.alt)
		lat, lon, alt := iodsite.Geodetic(r)
		switch {
		case math.Abs(lat.Deg()-tc.lat) > 1e-8:
			t.Fatal("lat", tc.lat, lat.Deg())
		case math.Abs(lon.Deg()-tc.lon) > 1e-8:
			t.Fatal("lon", tc.lon, lon.Deg())
		case math.Abs(alt-tc.alt) > 1e-6:
			t.Fatal("alt", tc.alt, alt)
		}
	}
}

func TestResolve(t *testing.T) {
	cat := iodsite.New(iodobs.SensorSite{
		ID:     "ATF",
		Number: 7,
		Lat:    unit.AngleFromDeg(40),
		Lon:    unit.AngleFromDeg(-105),
		Alt:    1.6,
	})
	fbLat, fbLon := unit.AngleFromDeg(10), unit.AngleFromDeg(20)

	s, err := cat.Resolve("ATF", fbLat, fbLon, .5)
	switch {
	case err != nil:
		t.Fatal(err)
	case s.Number != 7:
		t.Fatal("site number", s.Number)
	case s.Lat != unit.AngleFromDeg(40) || s.Alt != 1.6:
		t.Fatal("catalog coordinates should override fallback")
	case s.ECEF != iodsite.ECEF(s.Lat, s.Lon, s.Alt):
		t.Fatal("catalog ECEF not derived")
	}

	for _, id := range []string{iodsite.PassThrough, ""} {
		s, err = cat.Resolve(id, fbLat, fbLon, .5)
		switch {
		case err != nil:
			t.Fatal(err)
		case s.Lat != fbLat || s.Lon != fbLon || s.Alt != .5:
			t.Fatal("pass-through changed geodetic values")
		case s.ECEF != iodsite.ECEF(fbLat, fbLon, .5):
			t.Fatal("pass-through ECEF")
		case s.VECEF.X != 0 || s.VECEF.Y != 0 || s.VECEF.Z != 0:
			t.Fatal("ground site ECEF velocity should be zero")
		}
	}

	if _, err = cat.Resolve("XYZ", fbLat, fbLon, 0); !errors.Is(err, iodobs.ErrUnknownSite) {
		t.Fatal("want ErrUnknownSite, got", err)
	}
}

func TestReadSites(t *testing.T) {
	const doc = `
sites:
  - id: "568"
    number: 568
    name: Mauna Kea
    lat_deg: 19.8207
    lon_deg: -155.4681
    alt_km: 4.2
    noise:
      ra_arcsec: 0.5
      dec_arcsec: 0.4
  - id: ATF
    lat_deg: 40
    lon_deg: -105
`
	sites, err := iodsite.ReadSites(strings.NewReader(doc))
	switch {
	case err != nil:
		t.Fatal(err)
	case len(sites) != 2:
		t.Fatal("site count", len(sites))
	case sites[0].Name != "Mauna Kea" || sites[0].Number != 568:
		t.Fatal("site fields", sites[0])
	case math.Abs(sites[0].Noise.RA.Sec()-.5) > 1e-12:
		t.Fatal("noise RA", sites[0].Noise.RA.Sec())
	case sites[1].Noise.RA != 0:
		t.Fatal("missing noise should be zero")
	}

	if _, err = iodsite.ReadSites(strings.NewReader("sites: []\n")); !errors.Is(err, iodsite.ErrNoSites) {
		t.Fatal("want ErrNoSites, got", err)
	}
	if _, err = iodsite.ReadSites(strings.NewReader("sites:\n  - id: as-given\n")); err == nil {
		t.Fatal("reserved id accepted")
	}
}

// obscodeLine lays out one obscode.dat line in its fixed columns.
func obscodeLine(code, lon, cos, sin, name string) string {
	return fmt.Sprintf("%-3s %9s%8s%9s%s", code, lon, cos, sin, name)
}

var siteTestCases = []struct {
	code          string
	lon, cos, sin float64
	lat           float64 // expected geodetic latitude, deg
}{
	{"000", 0, .62411, .77873, 51.4774},
	{"644", 243.14022, .836325, .546877, 33.3573},
	{"E12", 149.0642, .85563, -.51621, -31.2735},
}

func TestReadObscodes(t *testing.T) {
	lines := []string{
		"<pre>",
		"Code  Long.   cos      sin    Name",
		obscodeLine("000", "0.0000", "0.62411", "+0.77873", "Greenwich"),
		obscodeLine("248", "0.0000", "0.00000", "+0.00000", "Hipparcos"),
		obscodeLine("644", "243.14022", "0.836325", "+0.546877", "NEAT at Palomar Mountain"),
		obscodeLine("E12", "149.0642", "0.85563", "-0.51621", "Siding Spring Survey"),
		"</pre>",
	}
	sites, err := iodsite.ReadObscodes(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		t.Fatal(err)
	}
	if len(sites) != len(siteTestCases) {
		t.Fatal("site count", len(sites))
	}
	cat := iodsite.New(sites...)
	if _, err := cat.Resolve("248", 0, 0, 0); !errors.Is(err, iodobs.ErrUnknownSite) {
		t.Fatal("space based code should not be in the catalog")
	}
	for _, c := range siteTestCases {
		s, err := cat.Resolve(c.code, 0, 0, 0)
		switch {
		case err != nil:
			t.Fatal("missing", c.code)
		case math.Abs(math.Mod(s.Lon.Deg()+360, 360)-c.lon) > 1e-9:
			t.Fatal("bad longitude, code", c.code)
		case math.Abs(s.ECEF.Z/iodsite.WGS84.Er-c.sin) > 1e-12:
			t.Fatal("bad rho sin, code", c.code)
		case math.Abs(math.Hypot(s.ECEF.X, s.ECEF.Y)/iodsite.WGS84.Er-c.cos) > 1e-12:
			t.Fatal("bad rho cos, code", c.code)
		case math.Abs(s.Lat.Deg()-c.lat) > .01:
			t.Fatal("bad latitude, code", c.code, s.Lat.Deg())
		case math.Abs(s.Alt) > 2:
			t.Fatal("implausible altitude, code", c.code, s.Alt)
		}
	}
}
