// Public domain.

package iodprog

import (
	"fmt"

	"github.com/soniakeys/angiod/internal/iodobs"
	"github.com/soniakeys/angiod/internal/iodrun"
	"github.com/soniakeys/angiod/internal/iodtrack"
)

// Stream is an enriched observation stream split into tracks.
type Stream struct {
	Tracks []iodobs.Track
	obs    []*iodobs.Observation // stream order
	meta   map[*iodobs.Observation]member
}

type member struct {
	track int
	err   error // enrichment failure
}

// NewStream enriches records and assembles them into tracks.  A record
// that fails enrichment stays in its track; cases using it are skipped.
func NewStream(recs []Record, en *iodrun.Enricher) *Stream {
	obs := make([]iodobs.Observation, len(recs))
	errs := make([]error, len(recs))
	for i := range recs {
		obs[i] = recs[i].Obs
		errs[i] = en.Enrich(&obs[i], recs[i].Lat, recs[i].Lon, recs[i].Alt)
	}
	s := &Stream{
		Tracks: iodtrack.Assemble(obs),
		meta:   make(map[*iodobs.Observation]member, len(recs)),
	}
	k := 0
	for t := range s.Tracks {
		for m := range s.Tracks[t].Obs {
			o := &s.Tracks[t].Obs[m]
			s.obs = append(s.obs, o)
			s.meta[o] = member{track: t, err: errs[k]}
			k++
		}
	}
	return s
}

// Len returns the number of observations.
func (s *Stream) Len() int { return len(s.obs) }

// Obs returns observation k of the stream.
func (s *Stream) Obs(k int) (*iodobs.Observation, error) {
	if k < 0 || k >= len(s.obs) {
		return nil, fmt.Errorf("%w: observation %d of %d", ErrCaseIndex, k, len(s.obs))
	}
	return s.obs[k], nil
}

func (s *Stream) track(i int) (*iodobs.Track, error) {
	if i < 0 || i >= len(s.Tracks) {
		return nil, fmt.Errorf("%w: track %d of %d", ErrCaseIndex, i, len(s.Tracks))
	}
	return &s.Tracks[i], nil
}

// newCase fills in track rms and the first enrichment error.
func (s *Stream) newCase(name string, obs [3]*iodobs.Observation, err error) iodrun.Case {
	c := iodrun.Case{Name: name, Obs: obs, Err: err}
	for i, o := range obs {
		m, ok := s.meta[o]
		if !ok {
			continue
		}
		c.RMS[i] = s.Tracks[m.track].RMS
		if c.Err == nil && m.err != nil {
			c.Err = m.err
		}
	}
	return c
}

// BuildCases returns the cases of cfg in order.  An index outside the
// stream is a configuration error and fails the whole batch.
func (s *Stream) BuildCases(cfg []CaseConfig) ([]iodrun.Case, error) {
	var cases []iodrun.Case
	for i, cc := range cfg {
		name := cc.Name
		if name == "" {
			name = fmt.Sprintf("case-%d", i+1)
		}
		switch cc.Policy {
		case "", "fixed":
			var obs [3]*iodobs.Observation
			for j, k := range cc.Obs {
				o, err := s.Obs(k)
				if err != nil {
					return nil, fmt.Errorf("case %s: %w", name, err)
				}
				obs[j] = o
			}
			cases = append(cases, s.newCase(name, obs, nil))
		case "scan":
			t, err := s.track(cc.Track)
			if err != nil {
				return nil, fmt.Errorf("case %s: %w", name, err)
			}
			b, err := s.Obs(cc.Fixed[0])
			if err != nil {
				return nil, fmt.Errorf("case %s: %w", name, err)
			}
			c, err := s.Obs(cc.Fixed[1])
			if err != nil {
				return nil, fmt.Errorf("case %s: %w", name, err)
			}
			cases = append(cases, s.scan(name, t, b, c)...)
		case "midpoints":
			var ts [3]*iodobs.Track
			for j, k := range cc.Tracks {
				t, err := s.track(k)
				if err != nil {
					return nil, fmt.Errorf("case %s: %w", name, err)
				}
				ts[j] = t
			}
			cases = append(cases, s.midpoints(name, ts))
		default:
			return nil, fmt.Errorf("case %s: %w %q", name, ErrInvalidPolicy, cc.Policy)
		}
	}
	return cases, nil
}

func (s *Stream) scan(name string, t *iodobs.Track, b, c *iodobs.Observation) []iodrun.Case {
	trs, errs := iodtrack.Scan(t, b, c)
	cases := make([]iodrun.Case, len(trs))
	for m := range trs {
		obs := trs[m].Obs
		if errs[m] != nil {
			obs = [3]*iodobs.Observation{&t.Obs[m], b, c}
		}
		cases[m] = s.newCase(fmt.Sprintf("%s/%d", name, m+1), obs, errs[m])
	}
	return cases
}

func (s *Stream) midpoints(name string, ts [3]*iodobs.Track) iodrun.Case {
	tr, err := iodtrack.Midpoints(ts[0], ts[1], ts[2])
	if err != nil {
		return s.newCase(name, [3]*iodobs.Observation{ts[0].Mid(), ts[1].Mid(), ts[2].Mid()}, err)
	}
	return s.newCase(name, tr.Obs, nil)
}

// AutoCases builds cases when the batch file lists none.  Each run of three
// consecutive tracks of an object gives a midpoints case.  An object with
// fewer than three tracks gets one case from the first, middle and last
// observation of its longest track, if that track has three members.
func (s *Stream) AutoCases() []iodrun.Case {
	var objects []string
	byObject := map[string][]int{}
	for i := range s.Tracks {
		id := s.Tracks[i].ObjectID
		if _, ok := byObject[id]; !ok {
			objects = append(objects, id)
		}
		byObject[id] = append(byObject[id], i)
	}
	var cases []iodrun.Case
	for _, id := range objects {
		ti := byObject[id]
		if len(ti) >= 3 {
			for j := 0; j+2 < len(ti); j++ {
				ts := [3]*iodobs.Track{&s.Tracks[ti[j]], &s.Tracks[ti[j+1]], &s.Tracks[ti[j+2]]}
				cases = append(cases, s.midpoints(fmt.Sprintf("%s/%d", id, j+1), ts))
			}
			continue
		}
		long := &s.Tracks[ti[0]]
		for _, i := range ti[1:] {
			if s.Tracks[i].Count() > long.Count() {
				long = &s.Tracks[i]
			}
		}
		n := long.Count()
		if n < 3 {
			continue
		}
		cases = append(cases, s.newCase(id,
			[3]*iodobs.Observation{&long.Obs[0], long.Mid(), &long.Obs[n-1]}, nil))
	}
	return cases
}
