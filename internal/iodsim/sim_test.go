// Public domain.

package iodsim_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/soniakeys/unit"

	"github.com/soniakeys/angiod/internal/iodframe"
	"github.com/soniakeys/angiod/internal/iodobs"
	"github.com/soniakeys/angiod/internal/iodsim"
	"github.com/soniakeys/angiod/internal/iodsite"
	"github.com/soniakeys/angiod/internal/iodsolver"
	"github.com/soniakeys/angiod/internal/iodtrack"
)

const (
	issLine1 = "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
	issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"
)

var start = time.Date(2008, 9, 20, 12, 30, 0, 0, time.UTC)

func config() iodsim.Config {
	return iodsim.Config{
		Line1:        issLine1,
		Line2:        issLine2,
		Start:        start,
		Duration:     10 * time.Minute,
		Step:         10 * time.Second,
		MinElevation: unit.AngleFromDeg(10),
	}
}

// siteBelow places a site under the object at t.
func siteBelow(t *testing.T, s *iodsim.Simulator, at time.Time) *iodobs.SensorSite {
	p, _, err := s.Fixed(at)
	if err != nil {
		t.Fatal(err)
	}
	lat, lon, _ := iodsite.Geodetic(p)
	cat := iodsite.New(iodobs.SensorSite{ID: "SIM", Lat: lat, Lon: lon})
	return cat.Sites()[0]
}

func TestObserve(t *testing.T) {
	s, err := iodsim.New(config(), iodframe.New())
	if err != nil {
		t.Fatal(err)
	}
	if s.ObjectID() != "25544" {
		t.Fatal("object id", s.ObjectID())
	}
	site := siteBelow(t, s, start.Add(5*time.Minute))
	obs, err := s.Observe([]*iodobs.SensorSite{site})
	if err != nil {
		t.Fatal(err)
	}
	tracks := iodtrack.Assemble(obs)
	switch {
	case len(tracks) != 1:
		t.Fatal("tracks", len(tracks))
	case tracks[0].PassID != "SIM-1":
		t.Fatal("pass", tracks[0].PassID)
	case tracks[0].Count() < 9:
		t.Fatal("observations", tracks[0].Count())
	}
	for i := 1; i < len(obs); i++ {
		if obs[i].Epoch.Sub(obs[i-1].Epoch) < 9.999 {
			t.Fatal("observations out of order")
		}
	}
	// culmination is near zenith
	var maxEl float64
	for _, o := range obs {
		maxEl = math.Max(maxEl, o.AzEl.El.Deg())
	}
	if maxEl < 85 {
		t.Fatal("max elevation", maxEl)
	}

	// without noise, Gauss on the pass lands near the SGP4 state
	tk := tracks[0]
	n := tk.Count()
	tr, err := iodtrack.Select(&tk.Obs[0], &tk.Obs[n/2], &tk.Obs[n-1])
	if err != nil {
		t.Fatal(err)
	}
	sol := iodsolver.New(nil).Gauss(iodsolver.NewInput(&tr, 0))
	if !sol.Status.Converged {
		t.Fatal(sol.Status)
	}
	truth, _, err := s.Inertial(tk.Obs[n/2].Epoch.Time())
	if err != nil {
		t.Fatal(err)
	}
	if d := iodobs.Norm(iodobs.Sub(sol.Pos, truth)); d > 20 {
		t.Fatal("gauss position off by", d, "km")
	}
}

func TestNoise(t *testing.T) {
	run := func(noise bool) []iodobs.Observation {
		cfg := config()
		cfg.Noise = noise
		cfg.Seed = 3
		s, err := iodsim.New(cfg, iodframe.New())
		if err != nil {
			t.Fatal(err)
		}
		site := siteBelow(t, s, start.Add(5*time.Minute))
		site.Noise.RA = unit.AngleFromSec(2)
		site.Noise.Dec = unit.AngleFromSec(2)
		obs, err := s.Observe([]*iodobs.SensorSite{site})
		if err != nil {
			t.Fatal(err)
		}
		return obs
	}
	a, b, c := run(true), run(true), run(false)
	if len(a) == 0 || len(a) != len(b) || len(a) != len(c) {
		t.Fatal("observation counts", len(a), len(b), len(c))
	}
	moved := false
	for i := range a {
		if a[i].RA != b[i].RA || a[i].Dec != b[i].Dec {
			t.Fatal("same seed gave different noise")
		}
		d := math.Abs((a[i].Dec - c[i].Dec).Sec())
		if d > 10 {
			t.Fatal("noise", d, "arcsec")
		}
		moved = moved || d > 0
	}
	if !moved {
		t.Fatal("no noise applied")
	}
}

func TestBadConfig(t *testing.T) {
	cfg := config()
	cfg.Line1 = cfg.Line1[:40]
	if _, err := iodsim.New(cfg, iodframe.New()); !errors.Is(err, iodsim.ErrTLE) {
		t.Fatal("want ErrTLE, got", err)
	}
	cfg = config()
	cfg.Step = 0
	if _, err := iodsim.New(cfg, iodframe.New()); err == nil {
		t.Fatal("zero step accepted")
	}
}
