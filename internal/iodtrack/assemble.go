// Public domain.

// Package iodtrack groups observations into tracks and selects observation
// triplets from them.
package iodtrack

import (
	"github.com/soniakeys/coord"
	"github.com/soniakeys/lmfit"
	"github.com/soniakeys/unit"

	"github.com/soniakeys/angiod/internal/iodobs"
)

// State is the state of an Assembler.
type State int

const (
	NoActiveTrack State = iota
	AccumulatingTrack
)

func (s State) String() string {
	if s == AccumulatingTrack {
		return "accumulating"
	}
	return "idle"
}

// Assembler splits an observation stream into tracks in a single pass.
//
// A track is a contiguous run of observations with equal pass identifiers.
// A change of identifier seals the active track and starts a new one.
// Close seals whatever remains.  Every observation added ends up in exactly
// one track, and tracks come out in input order.
type Assembler struct {
	active *iodobs.Track
	sealed []iodobs.Track
}

// State reports whether a track is open.
func (a *Assembler) State() State {
	if a.active == nil {
		return NoActiveTrack
	}
	return AccumulatingTrack
}

// Add takes the next observation of the stream.
func (a *Assembler) Add(o iodobs.Observation) {
	if a.active != nil && a.active.PassID != o.PassID {
		a.seal()
	}
	if a.active == nil {
		a.active = &iodobs.Track{PassID: o.PassID, ObjectID: o.ObjectID}
	}
	a.active.Obs = append(a.active.Obs, o)
}

// Close seals any open track and returns all tracks in input order.  The
// Assembler is reset.
func (a *Assembler) Close() []iodobs.Track {
	a.seal()
	t := a.sealed
	a.sealed = nil
	return t
}

func (a *Assembler) seal() {
	if a.active == nil {
		return
	}
	Seal(a.active)
	a.sealed = append(a.sealed, *a.active)
	a.active = nil
}

// Assemble splits a complete observation sequence into tracks.
func Assemble(obs []iodobs.Observation) []iodobs.Track {
	var a Assembler
	for _, o := range obs {
		a.Add(o)
	}
	return a.Close()
}

// Seal computes the derived values of a track: duration and the rms of
// residuals against a great circle fit.  RMS is left zero for fewer than
// three observations.
func Seal(t *iodobs.Track) {
	n := len(t.Obs)
	if n == 0 {
		return
	}
	t.Duration = t.Obs[n-1].Epoch.Sub(t.Obs[0].Epoch)
	t.RMS = 0
	if n < 3 {
		return
	}
	tm := make([]float64, n)
	s := make(coord.EquaS, n)
	for i := range t.Obs {
		o := &t.Obs[i]
		tm[i] = o.Epoch.MJD()
		s[i] = coord.Equa{RA: unit.RAFromRad(o.RA.Rad()), Dec: o.Dec}
	}
	lmf := lmfit.New(tm, s)
	t.RMS = unit.Angle(float64(lmf.Rms()))
}

// EffectiveError returns the angular error to assume for an observation
// with sensor noise figure noise taken in a track with fit residual rms.
//
// A zero noise figure means the sensor is to be trusted exactly and takes
// precedence.  Otherwise the larger of the two is used, with a zero rms
// meaning none could be computed.
func EffectiveError(noise, rms unit.Angle) unit.Angle {
	switch {
	case noise == 0:
		return 0
	case rms == 0:
		return noise
	case noise > rms:
		return noise
	}
	return rms
}
