// Public domain.

package iodprog

import (
	"errors"
	"strings"
	"testing"

	"github.com/soniakeys/angiod/internal/iodframe"
	"github.com/soniakeys/angiod/internal/iodobs"
	"github.com/soniakeys/angiod/internal/iodrun"
	"github.com/soniakeys/angiod/internal/iodsite"
)

func stream(t *testing.T) *Stream {
	t.Helper()
	recs, err := ReadText(strings.NewReader(textObs), iodobs.EOP{})
	if err != nil {
		t.Fatal(err)
	}
	return NewStream(recs, &iodrun.Enricher{Sites: iodsite.New(), Frame: iodframe.New()})
}

func TestStream(t *testing.T) {
	s := stream(t)
	switch {
	case s.Len() != 6:
		t.Fatal("len", s.Len())
	case len(s.Tracks) != 3:
		t.Fatal("tracks", len(s.Tracks))
	case s.Tracks[1].RMS != 0:
		t.Fatal("rms", s.Tracks[1].RMS)
	}
	o, err := s.Obs(4)
	switch {
	case err != nil:
		t.Fatal(err)
	case o != &s.Tracks[1].Obs[1]:
		t.Fatal("observation 4 is not the second member of track 1")
	case o.Site != nil:
		t.Fatal("unknown site resolved")
	}
	if o, _ = s.Obs(0); o.Site == nil || o.SiteECI == (iodobs.Observation{}).SiteECI {
		t.Fatal("observation 0 not enriched")
	}
	if _, err = s.Obs(6); !errors.Is(err, ErrCaseIndex) {
		t.Fatal("want ErrCaseIndex, got", err)
	}
}

func TestBuildCases(t *testing.T) {
	s := stream(t)
	cases, err := s.BuildCases([]CaseConfig{
		{Obs: []int{5, 0, 2}},
		{Name: "far", Policy: "scan", Track: 2, Fixed: []int{0, 2}},
		{Name: "self", Policy: "scan", Track: 0, Fixed: []int{0, 5}},
		{Name: "mid", Policy: "midpoints", Tracks: []int{0, 1, 2}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(cases) != 6 {
		t.Fatal("cases", len(cases))
	}
	o2, _ := s.Obs(2)
	c := cases[0]
	switch {
	case c.Name != "case-1" || c.Err != nil:
		t.Fatal("fixed case", c.Name, c.Err)
	case c.Obs[2] != o2:
		t.Fatal("fixed case keeps configured order")
	case c.RMS[2] != s.Tracks[0].RMS || c.RMS[0] != 0:
		t.Fatal("rms", c.RMS)
	}
	if c = cases[1]; c.Name != "far/1" || c.Err != nil {
		t.Fatal("scan case", c.Name, c.Err)
	}
	for i, want := range []error{iodobs.ErrGeometryDegenerate, nil, nil} {
		c = cases[2+i]
		if c.Name != "self/"+string(rune('1'+i)) {
			t.Fatal("scan name", c.Name)
		}
		if !errors.Is(c.Err, want) || (want == nil && c.Err != nil) {
			t.Fatal(c.Name, c.Err)
		}
	}
	if c = cases[5]; !errors.Is(c.Err, iodobs.ErrUnknownSite) {
		t.Fatal("midpoints over unknown site", c.Err)
	}

	for _, cc := range []CaseConfig{
		{Obs: []int{0, 1, 99}},
		{Policy: "scan", Track: 3, Fixed: []int{0, 1}},
		{Policy: "scan", Track: 0, Fixed: []int{-1, 1}},
		{Policy: "midpoints", Tracks: []int{0, 1, 7}},
	} {
		if _, err := s.BuildCases([]CaseConfig{cc}); !errors.Is(err, ErrCaseIndex) {
			t.Fatal("want ErrCaseIndex, got", err)
		}
	}
}

func TestAutoCases(t *testing.T) {
	s := stream(t)
	cases := s.AutoCases()
	switch {
	case len(cases) != 1:
		t.Fatal("cases", len(cases))
	case cases[0].Name != "X/1":
		t.Fatal("name", cases[0].Name)
	case !errors.Is(cases[0].Err, iodobs.ErrUnknownSite):
		t.Fatal("err", cases[0].Err)
	}

	// a single track gives its first, middle and last observation
	recs, err := ReadText(strings.NewReader(`
2024-03-01T02:00:00Z as-given 10 20 p1 Y 40 -105 1.6
2024-03-01T02:01:00Z as-given 10.5 20.1 p1 Y 40 -105 1.6
2024-03-01T02:02:00Z as-given 11 20.2 p1 Y 40 -105 1.6
2024-03-01T02:03:00Z as-given 11.5 20.3 p1 Y 40 -105 1.6
2024-03-01T02:04:00Z as-given 12 20.4 p1 Y 40 -105 1.6
2024-03-01T05:00:00Z as-given 90 20 q1 Z 40 -105 1.6
`), iodobs.EOP{})
	if err != nil {
		t.Fatal(err)
	}
	s = NewStream(recs, &iodrun.Enricher{Sites: iodsite.New(), Frame: iodframe.New()})
	cases = s.AutoCases()
	if len(cases) != 1 {
		t.Fatal("single track cases", len(cases))
	}
	c := cases[0]
	tr := &s.Tracks[0]
	switch {
	case c.Name != "Y" || c.Err != nil:
		t.Fatal(c.Name, c.Err)
	case c.Obs != [3]*iodobs.Observation{&tr.Obs[0], &tr.Obs[2], &tr.Obs[4]}:
		t.Fatal("members")
	}
}
