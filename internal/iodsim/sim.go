// Public domain.

// Package iodsim synthesizes angle observations of a TLE object from
// ground sensors.
//
// The object is propagated with SGP4.  Observations carry the sensor bias
// and, when enabled, Gaussian noise scaled by the sensor noise figures.
package iodsim

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
	xrand "golang.org/x/exp/rand"

	"github.com/soniakeys/coord"
	"github.com/soniakeys/unit"

	"github.com/soniakeys/angiod/internal/iodobs"
)

// ErrTLE is returned for malformed element sets.
var ErrTLE = errors.New("invalid two-line element set")

// Frame converts Earth fixed states to the inertial frame.
type Frame interface {
	InertialFromFixed(pos, vel coord.Cart, ep iodobs.Epoch, eop iodobs.EOP) (coord.Cart, coord.Cart)
}

// Config describes a simulation run.
type Config struct {
	Line1, Line2 string
	Start        time.Time
	Duration     time.Duration
	Step         time.Duration // whole seconds
	MinElevation unit.Angle
	Noise        bool
	Seed         uint64
	EOP          iodobs.EOP
}

// Simulator produces observations of one object.
type Simulator struct {
	cfg   Config
	sat   satellite.Satellite
	id    string
	frame Frame
	rnd   *xrand.Rand
}

// New validates cfg and returns a simulator.
func New(cfg Config, frame Frame) (*Simulator, error) {
	l1, l2 := strings.TrimRight(cfg.Line1, " \r\n"), strings.TrimRight(cfg.Line2, " \r\n")
	if len(l1) < 69 || len(l2) < 69 || !strings.HasPrefix(l1, "1 ") || !strings.HasPrefix(l2, "2 ") {
		return nil, ErrTLE
	}
	if cfg.Step < time.Second {
		return nil, fmt.Errorf("step %v below one second", cfg.Step)
	}
	cfg.Step = cfg.Step.Truncate(time.Second)
	cfg.Start = cfg.Start.UTC().Truncate(time.Second)
	rnd := xrand.New(&xrand.PCGSource{})
	rnd.Seed(cfg.Seed)
	return &Simulator{
		cfg:   cfg,
		sat:   satellite.TLEToSat(l1, l2, satellite.GravityWGS72),
		id:    strings.TrimSpace(l1[2:7]),
		frame: frame,
		rnd:   rnd,
	}, nil
}

// ObjectID returns the catalog number of the object.
func (s *Simulator) ObjectID() string { return s.id }

// Fixed returns the Earth fixed position and velocity of the object at t,
// truncated to whole seconds.
func (s *Simulator) Fixed(t time.Time) (pos, vel coord.Cart, err error) {
	t = t.UTC()
	y, mo, d := t.Date()
	h, mi, sec := t.Clock()
	p, v := satellite.Propagate(s.sat, y, int(mo), d, h, mi, sec)
	gmst := satellite.ThetaG_JD(satellite.JDay(y, int(mo), d, h, mi, sec))
	pf := satellite.ECIToECEF(p, gmst)
	vf := satellite.ECIToECEF(v, gmst)
	pos = coord.Cart{X: pf.X, Y: pf.Y, Z: pf.Z}
	if r := iodobs.Norm(pos); math.IsNaN(r) || r < 6000 {
		return pos, vel, fmt.Errorf("object %s: propagation failed at %s", s.id, t.Format(time.RFC3339))
	}
	// remove the frame rotation from the velocity
	const omega = 7.292115146706979e-5
	vel = coord.Cart{X: vf.X + omega*pf.Y, Y: vf.Y - omega*pf.X, Z: vf.Z}
	return pos, vel, nil
}

// Inertial returns the inertial state of the object at t.
func (s *Simulator) Inertial(t time.Time) (pos, vel coord.Cart, err error) {
	pf, vf, err := s.Fixed(t)
	if err != nil {
		return pos, vel, err
	}
	pos, vel = s.frame.InertialFromFixed(pf, vf, iodobs.EpochFromTime(t), s.cfg.EOP)
	return pos, vel, nil
}

// Observe generates observations from each site in turn.  Within a site
// observations are in time order and each contiguous visibility interval
// gets its own pass identifier, "<site>-<n>".
func (s *Simulator) Observe(sites []*iodobs.SensorSite) ([]iodobs.Observation, error) {
	var obs []iodobs.Observation
	end := s.cfg.Start.Add(s.cfg.Duration)
	for _, site := range sites {
		up := upVector(site.Lat, site.Lon)
		pass, visible := 0, false
		for t := s.cfg.Start; !t.After(end); t = t.Add(s.cfg.Step) {
			pf, vf, err := s.Fixed(t)
			if err != nil {
				return nil, err
			}
			losF := iodobs.Unit(iodobs.Sub(pf, site.ECEF))
			el := math.Asin(iodobs.Dot(losF, up))
			if el < s.cfg.MinElevation.Rad() {
				visible = false
				continue
			}
			if !visible {
				pass++
				visible = true
			}
			ep := iodobs.EpochFromTime(t)
			p, _ := s.frame.InertialFromFixed(pf, vf, ep, s.cfg.EOP)
			sp, sv := s.frame.InertialFromFixed(site.ECEF, site.VECEF, ep, s.cfg.EOP)
			ra, dec := iodobs.RADec(iodobs.Sub(p, sp))
			o := iodobs.Observation{
				Epoch:    ep,
				RA:       unit.Angle(ra) + site.Bias.RA,
				Dec:      unit.Angle(dec) + site.Bias.Dec,
				AzEl:     azEl(losF, up, site.Lon),
				SiteID:   site.ID,
				Site:     site,
				SiteECEF: site.ECEF,
				SiteECI:  sp,
				SiteVECI: sv,
				PassID:   fmt.Sprintf("%s-%d", site.ID, pass),
				ObjectID: s.id,
				EOP:      s.cfg.EOP,
			}
			if s.cfg.Noise {
				o.RA += unit.Angle(s.rnd.NormFloat64()) * site.Noise.RA
				o.Dec += unit.Angle(s.rnd.NormFloat64()) * site.Noise.Dec
			}
			o.RA = unit.Angle(math.Mod(o.RA.Rad()+2*math.Pi, 2*math.Pi))
			obs = append(obs, o)
		}
	}
	return obs, nil
}

// upVector is the geodetic zenith in the Earth fixed frame.
func upVector(lat, lon unit.Angle) coord.Cart {
	sφ, cφ := math.Sincos(lat.Rad())
	sλ, cλ := math.Sincos(lon.Rad())
	return coord.Cart{X: cφ * cλ, Y: cφ * sλ, Z: sφ}
}

func azEl(los, up coord.Cart, lon unit.Angle) *iodobs.AzEl {
	sλ, cλ := math.Sincos(lon.Rad())
	east := coord.Cart{X: -sλ, Y: cλ}
	north := iodobs.Cross(up, east)
	az := math.Atan2(iodobs.Dot(los, east), iodobs.Dot(los, north))
	if az < 0 {
		az += 2 * math.Pi
	}
	return &iodobs.AzEl{
		Az: unit.Angle(az),
		El: unit.Angle(math.Asin(iodobs.Dot(los, up))),
	}
}
