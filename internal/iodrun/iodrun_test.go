// Public domain.

package iodrun_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	xrand "golang.org/x/exp/rand"

	"github.com/soniakeys/coord"
	"github.com/soniakeys/unit"

	"github.com/soniakeys/angiod/internal/iodframe"
	"github.com/soniakeys/angiod/internal/iodobs"
	"github.com/soniakeys/angiod/internal/iodprop"
	"github.com/soniakeys/angiod/internal/iodrun"
	"github.com/soniakeys/angiod/internal/iodsite"
	"github.com/soniakeys/angiod/internal/iodsolver"
)

var ep0 = iodobs.NewEpoch(2458849.5, .5)

// scenario observes a circular orbit of radius a from a site at latitude 30°
// on a uniformly rotating sphere.  The orbit passes near the zenith at t=0
// with heading beta, degrees from east toward north.  r0, v0 is the true
// state at t=0.
func scenario(ts [3]float64, a, beta, off float64) (obs [3]iodobs.Observation, r0, v0 coord.Cart) {
	const re, th0 = 6378.137, 1.
	lat := 30 * math.Pi / 180
	site := func(t float64) coord.Cart {
		sth, cth := math.Sincos(th0 + iodframe.OmegaEarth*t)
		return coord.Cart{
			X: re * math.Cos(lat) * cth,
			Y: re * math.Cos(lat) * sth,
			Z: re * math.Sin(lat),
		}
	}
	u := iodobs.Unit(site(0))
	east := iodobs.Unit(iodobs.Cross(coord.Cart{Z: 1}, u))
	north := iodobs.Cross(u, east)
	sb, cb := math.Sincos(beta * math.Pi / 180)
	vd := iodobs.Add(iodobs.Scale(east, cb), iodobs.Scale(north, sb))
	r0 = iodobs.Scale(iodobs.Unit(iodobs.Add(u, iodobs.Scale(east, off))), a)
	ru := iodobs.Unit(r0)
	vd = iodobs.Unit(iodobs.Sub(vd, iodobs.Scale(ru, iodobs.Dot(vd, ru))))
	v0 = iodobs.Scale(vd, math.Sqrt(iodprop.Mu/a))

	prop := iodprop.New()
	for i, t := range ts {
		p, _, err := prop.Kepler(r0, v0, t)
		if err != nil {
			panic(err)
		}
		s := site(t)
		ra, dec := iodobs.RADec(iodobs.Sub(p, s))
		obs[i] = iodobs.Observation{
			Epoch:    ep0.Add(t),
			RA:       unit.Angle(ra),
			Dec:      unit.Angle(dec),
			SiteID:   "ATF",
			SiteECI:  s,
			SiteVECI: iodobs.Cross(coord.Cart{Z: iodframe.OmegaEarth}, s),
			PassID:   fmt.Sprint(i + 1),
			ObjectID: "40001",
		}
	}
	return
}

func newRunner(t *testing.T, names []string, solver iodrun.SolverGateway, opts ...iodrun.Option) *iodrun.Runner {
	t.Helper()
	ms, err := iodrun.ParseMethods(names)
	if err != nil {
		t.Fatal(err)
	}
	return iodrun.NewRunner(&iodrun.Orchestrator{
		Solver:  solver,
		Prop:    iodprop.New(),
		Methods: ms,
	}, opts...)
}

func caseOf(name string, obs *[3]iodobs.Observation, order [3]int) iodrun.Case {
	return iodrun.Case{
		Name: name,
		Obs:  [3]*iodobs.Observation{&obs[order[0]], &obs[order[1]], &obs[order[2]]},
	}
}

// Nominal LEO pass, iterative methods agree and meet the line of sight.
func TestScenarioNominal(t *testing.T) {
	obs, r0, v0 := scenario([3]float64{-120, 0, 120}, 7000, 40, 0)
	rn := newRunner(t, []string{"gauss", "doubler", "gooding"}, iodsolver.New(nil))
	c := caseOf("A", &obs, [3]int{2, 0, 1})
	rep := rn.RunCase(context.Background(), 0, &c)
	switch {
	case rep.Skipped():
		t.Fatal(rep.Err)
	case rep.Range.Clamped:
		t.Fatal("range guess clamped", rep.Range.Raw)
	case math.Abs(rep.Range.Guess-7000) > 35:
		t.Fatal("range guess", rep.Range.Guess)
	case rep.Range.HalfRevs != 0:
		t.Fatal("half revs", rep.Range.HalfRevs)
	case !rep.Triplet.SameSite:
		t.Fatal("same site not detected")
	case len(rep.Results) != 3:
		t.Fatal("results", len(rep.Results))
	}
	for i, m := range []iodrun.Method{iodrun.Gauss, iodrun.DoubleR, iodrun.Gooding} {
		r := rep.Results[i]
		switch {
		case r.Method != m:
			t.Fatal("result", i, "method", r.Method)
		case !r.Status.Converged:
			t.Fatal(m, r.Status)
		case iodobs.Norm(iodobs.Sub(r.Pos, r0)) > 1e-3:
			t.Fatal(m, "position error", iodobs.Norm(iodobs.Sub(r.Pos, r0)))
		case iodobs.Norm(iodobs.Sub(r.Vel, v0)) > 1e-6:
			t.Fatal(m, "velocity error", iodobs.Norm(iodobs.Sub(r.Vel, v0)))
		case r.ElemErr != nil:
			t.Fatal(m, r.ElemErr)
		case math.Abs(r.Classical.A-7000) > .01:
			t.Fatal(m, "semimajor axis", r.Classical.A)
		}
	}
	cr := rep.Consistency
	switch {
	case cr.PropagationMismatch:
		t.Fatal("propagation mismatch", cr.Residuals)
	case cr.MethodDisagreement:
		t.Fatal("method disagreement", cr.Deltas)
	case cr.Reference == nil || *cr.Reference != iodrun.DoubleR:
		t.Fatal("reference", cr.Reference)
	case len(cr.Residuals) != 3 || len(cr.Deltas) != 2:
		t.Fatal("checks", len(cr.Residuals), len(cr.Deltas))
	case len(rep.Summary) != 4:
		t.Fatal("summary lines", rep.Summary)
	case rep.Verbose[0] != "case A":
		t.Fatal("verbose heading", rep.Verbose[0])
	}
	for _, r := range cr.Residuals {
		if r.LOS.Sec() > 1 {
			t.Fatal(r.Method, "line of sight residual", r.LOS.Sec(), "arcsec")
		}
	}
	for i, m := range []string{"gauss", "doubler", "gooding", "check"} {
		if !strings.HasPrefix(rep.Summary[i], "A  "+m) {
			t.Fatal("summary line", i, rep.Summary[i])
		}
	}
}

// Scenario A over every method.  Laplace converges but differentiates the
// line of sight over the full four minute arc, so its range is off by
// hundreds of km and only its velocity check fails.  Its position still
// lies on the second line of sight.
func TestScenarioAllMethods(t *testing.T) {
	obs, r0, _ := scenario([3]float64{-120, 0, 120}, 7000, 40, 0)
	rn := newRunner(t, []string{"all"}, iodsolver.New(nil))
	c := caseOf("A", &obs, [3]int{0, 1, 2})
	rep := rn.RunCase(context.Background(), 0, &c)
	switch {
	case rep.Skipped():
		t.Fatal(rep.Err)
	case rep.Range.Guess < 6700 || rep.Range.Guess > 8000:
		t.Fatal("range guess", rep.Range.Guess)
	case len(rep.Results) != 4:
		t.Fatal("results", len(rep.Results))
	}
	for _, r := range rep.Results {
		if !r.Status.Converged {
			t.Fatal(r.Method, r.Status)
		}
		perr := iodobs.Norm(iodobs.Sub(r.Pos, r0))
		switch {
		case r.Method == iodrun.Laplace && (perr < 1 || perr > 1000):
			t.Fatal("laplace position error", perr)
		case r.Method != iodrun.Laplace && perr > 1e-3:
			t.Fatal(r.Method, "position error", perr)
		}
	}
	cr := rep.Consistency
	switch {
	case cr.PropagationMismatch:
		t.Fatal("propagation mismatch", cr.Residuals)
	case !cr.MethodDisagreement:
		t.Fatal("laplace velocity accepted", cr.Deltas)
	case len(cr.Deltas) != 3:
		t.Fatal("deltas", cr.Deltas)
	case cr.Deltas[0].Method != iodrun.Laplace || cr.Deltas[0].Pass:
		t.Fatal("laplace delta", cr.Deltas[0])
	case !cr.Deltas[1].Pass || !cr.Deltas[2].Pass:
		t.Fatal("gauss or gooding delta", cr.Deltas[1:])
	}
	for _, r := range cr.Residuals {
		if !r.Pass {
			t.Fatal(r.Method, "miss", r.Mag)
		}
	}
}

// wrongGauss reports a converged geostationary state whatever it is given.
type wrongGauss struct{ *iodsolver.Solver }

func (wrongGauss) Gauss(iodsolver.Input) iodsolver.Solution {
	return iodsolver.Solution{
		Pos:    coord.Cart{X: 42164},
		Vel:    coord.Cart{Y: 3.0747},
		Status: iodsolver.Status{Converged: true},
	}
}

func TestWrongStateMismatch(t *testing.T) {
	obs, _, _ := scenario([3]float64{-120, 0, 120}, 7000, 40, 0)
	rn := newRunner(t, []string{"gauss", "gooding"}, wrongGauss{iodsolver.New(nil)})
	c := caseOf("W", &obs, [3]int{0, 1, 2})
	rep := rn.RunCase(context.Background(), 0, &c)
	cr := rep.Consistency
	switch {
	case rep.Skipped():
		t.Fatal(rep.Err)
	case !cr.PropagationMismatch:
		t.Fatal("wrong state not flagged", cr.Residuals)
	case len(cr.Residuals) != 2:
		t.Fatal("residuals", len(cr.Residuals))
	case cr.Residuals[0].Pass || cr.Residuals[0].LOS.Deg() < 1:
		t.Fatal("gauss residual", cr.Residuals[0])
	case !cr.Residuals[1].Pass:
		t.Fatal("gooding residual", cr.Residuals[1])
	case !strings.Contains(rep.Summary[len(rep.Summary)-1], "propagation-mismatch"):
		t.Fatal("check line", rep.Summary[len(rep.Summary)-1])
	}
}

type fixedRoot struct {
	*iodsolver.Solver
	r   float64
	err error
}

func (f fixedRoot) GaussRoot(iodsolver.Input) (float64, error) { return f.r, f.err }

// An out of band root is replaced by the default range, flagged, and the
// methods still run.
func TestScenarioClamped(t *testing.T) {
	obs, _, _ := scenario([3]float64{-120, 0, 120}, 7000, 40, 0)
	for _, root := range []fixedRoot{
		{r: -50},
		{r: 90000},
		{err: iodsolver.ErrNoRoot},
	} {
		root.Solver = iodsolver.New(nil)
		rn := newRunner(t, []string{"all"}, root)
		c := caseOf("C", &obs, [3]int{0, 1, 2})
		rep := rn.RunCase(context.Background(), 0, &c)
		switch {
		case rep.Skipped():
			t.Fatal(rep.Err)
		case !rep.Range.Clamped:
			t.Fatal("not clamped", rep.Range.Raw)
		case rep.Range.Bracket != [3]float64{40000, 40800, 43200}:
			t.Fatal("bracket", rep.Range.Bracket)
		case len(rep.Results) != 4:
			t.Fatal("results", len(rep.Results))
		}
		found := false
		for _, l := range rep.Verbose {
			if strings.HasPrefix(l, "  range clamped to 40000 km") {
				found = true
			}
		}
		if !found {
			t.Fatal("clamp not reported")
		}
		if (root.err != nil) != (rep.Range.RawErr != nil) {
			t.Fatal("raw error", rep.Range.RawErr)
		}
	}
}

func TestClampRange(t *testing.T) {
	rnd := xrand.New(&xrand.PCGSource{})
	rnd.Seed(7)
	vals := []float64{0, -1, 75000, 75000.001, math.NaN(), math.Inf(1), math.Inf(-1), 1e-9}
	for i := 0; i < 500; i++ {
		vals = append(vals, rnd.NormFloat64()*60000)
	}
	for _, raw := range vals {
		g, clamped := iodrun.ClampRange(raw)
		switch {
		case !(g > 0 && g <= iodrun.MaxRange):
			t.Fatal(raw, "gave", g)
		case clamped != (g != raw):
			t.Fatal(raw, "clamped", clamped, "guess", g)
		case clamped && g != iodrun.DefaultRange:
			t.Fatal(raw, "clamped to", g)
		}
	}
}

func TestDayCounts(t *testing.T) {
	for _, tc := range []struct {
		t2, t3 float64 // days after t1
		days   [3]int
		half   int
	}{
		{.001, .002, [3]int{0, 0, 0}, 0},
		{.5, 2.7, [3]int{0, 2, 2}, 2},
		{1.25, 1.5, [3]int{1, 0, 1}, 2},
	} {
		a := iodobs.Observation{Epoch: ep0}
		b := iodobs.Observation{Epoch: ep0.Add(tc.t2 * iodobs.SecPerDay)}
		c := iodobs.Observation{Epoch: ep0.Add(tc.t3 * iodobs.SecPerDay)}
		tr := iodobs.Triplet{Obs: [3]*iodobs.Observation{&a, &b, &c}}
		d := iodrun.DayCounts(&tr)
		switch {
		case d != tc.days:
			t.Fatal(tc.t2, tc.t3, "day counts", d)
		case iodrun.HalfRevs(d) != tc.half:
			t.Fatal(tc.t2, tc.t3, "half revs", iodrun.HalfRevs(d))
		}
	}
}

func TestParseMethods(t *testing.T) {
	for _, tc := range []struct {
		names []string
		want  string
		ok    bool
	}{
		{[]string{"all"}, "laplace,gauss,doubler,gooding", true},
		{[]string{"Gooding", "laplace"}, "laplace,gooding", true},
		{[]string{"double-r"}, "doubler", true},
		{[]string{"gauss", "herget"}, "", false},
		{nil, "", false},
	} {
		s, err := iodrun.ParseMethods(tc.names)
		switch {
		case (err == nil) != tc.ok:
			t.Fatal(tc.names, err)
		case tc.ok && s.String() != tc.want:
			t.Fatal(tc.names, "gave", s)
		}
	}
}

func TestCheckFlags(t *testing.T) {
	obs, r0, v0 := scenario([3]float64{-120, 0, 120}, 7000, 40, 0)
	prop := iodprop.New()
	tr := iodobs.Triplet{Obs: [3]*iodobs.Observation{&obs[0], &obs[1], &obs[2]}}
	p1, v1, err := prop.Kepler(r0, v0, -120)
	if err != nil {
		t.Fatal(err)
	}
	good := func(m iodrun.Method) iodrun.Result {
		return iodrun.Result{
			Method: m, Pos: r0, Vel: v0, Pos1: p1, Vel1: v1,
			Status: iodsolver.Status{Converged: true},
		}
	}

	cr := iodrun.Check(prop, &tr, []iodrun.Result{good(iodrun.Gauss), good(iodrun.Gooding)})
	switch {
	case cr.PropagationMismatch || cr.MethodDisagreement:
		t.Fatal("flags on agreeing results")
	case cr.Reference == nil || *cr.Reference != iodrun.Gooding:
		t.Fatal("reference", cr.Reference)
	}

	off := good(iodrun.Laplace)
	off.Vel1.X += .02
	// a self consistent state 1 km off the second line of sight
	bad := good(iodrun.Gauss)
	bad.Pos = iodobs.Add(r0, iodobs.Unit(iodobs.Cross(obs[1].LineOfSight(), coord.Cart{Z: 1})))
	if bad.Pos1, bad.Vel1, err = prop.Kepler(bad.Pos, v0, -120); err != nil {
		t.Fatal(err)
	}
	failed := good(iodrun.DoubleR)
	failed.Status = iodsolver.Status{Note: iodsolver.NoteNonConvergent}
	cr = iodrun.Check(prop, &tr, []iodrun.Result{off, bad, failed, good(iodrun.Gooding)})
	switch {
	case !cr.PropagationMismatch:
		t.Fatal("position offset not flagged")
	case !cr.MethodDisagreement:
		t.Fatal("velocity offset not flagged")
	case len(cr.Residuals) != 3:
		t.Fatal("failed result checked")
	case cr.Residuals[1].Pass || math.Abs(cr.Residuals[1].Mag-1) > 1e-3:
		t.Fatal("miss distance", cr.Residuals[1].Mag)
	case *cr.Reference != iodrun.Gooding:
		t.Fatal("failed double-r used as reference")
	case cr.Deltas[0].Pass || cr.Deltas[1].DV2 > 1e-12:
		t.Fatal("deltas", cr.Deltas)
	}

	cr = iodrun.Check(prop, &tr, []iodrun.Result{good(iodrun.Gauss)})
	if cr.Reference != nil || len(cr.Deltas) != 0 {
		t.Fatal("reference without iterative result")
	}
}

func TestSkippedCase(t *testing.T) {
	obs, _, _ := scenario([3]float64{-120, 0, 120}, 7000, 40, 0)
	obs[2].Epoch = obs[1].Epoch
	rn := newRunner(t, []string{"all"}, iodsolver.New(nil))
	c := caseOf("D", &obs, [3]int{0, 1, 2})
	rep := rn.RunCase(context.Background(), 3, &c)
	switch {
	case !errors.Is(rep.Err, iodobs.ErrGeometryDegenerate):
		t.Fatal("want ErrGeometryDegenerate, got", rep.Err)
	case len(rep.Verbose) != 1 || len(rep.Summary) != 1:
		t.Fatal("skip lines", rep.Verbose, rep.Summary)
	case !strings.HasPrefix(rep.Summary[0], "case D skipped: "):
		t.Fatal(rep.Summary[0])
	case len(rep.Results) != 0:
		t.Fatal("methods ran on skipped case")
	}
}

type counter struct {
	sync.Mutex
	n, skipped int
}

func (c *counter) Record(rep *iodrun.CaseReport) {
	c.Lock()
	defer c.Unlock()
	c.n++
	if rep.Skipped() {
		c.skipped++
	}
}

func TestBatchOrder(t *testing.T) {
	var cases []iodrun.Case
	for i, p := range []struct {
		a, beta float64
	}{{7000, 40}, {6800, -30}, {8000, 60}, {7000, 90}, {7200, 20}, {6900, 50}} {
		obs, _, _ := scenario([3]float64{-120, 0, 120}, p.a, p.beta, 0)
		cases = append(cases, caseOf(fmt.Sprint("c", i), &obs, [3]int{1, 2, 0}))
	}
	cases = append(cases, iodrun.Case{Name: "bad", Err: iodobs.ErrUnknownSite})

	seq, err := newRunner(t, []string{"gauss", "doubler"}, iodsolver.New(nil)).
		Run(context.Background(), cases)
	if err != nil {
		t.Fatal(err)
	}
	var rec counter
	par, err := newRunner(t, []string{"gauss", "doubler"}, iodsolver.New(nil),
		iodrun.WithWorkers(4), iodrun.WithRecorder(&rec)).
		Run(context.Background(), cases)
	switch {
	case err != nil:
		t.Fatal(err)
	case len(par) != len(cases):
		t.Fatal("reports", len(par))
	case rec.n != len(cases) || rec.skipped != 1:
		t.Fatal("recorded", rec.n, rec.skipped)
	}
	for i := range cases {
		if par[i].Index != i || par[i].Name != cases[i].Name {
			t.Fatal("report", i, "is case", par[i].Index, par[i].Name)
		}
		if strings.Join(par[i].Summary, "\n") != strings.Join(seq[i].Summary, "\n") {
			t.Fatal("case", i, "differs between sequential and parallel runs")
		}
	}
	if !errors.Is(par[len(cases)-1].Err, iodobs.ErrUnknownSite) {
		t.Fatal("unknown site not reported")
	}
}

func TestBatchCancel(t *testing.T) {
	obs, _, _ := scenario([3]float64{-120, 0, 120}, 7000, 40, 0)
	cases := []iodrun.Case{caseOf("x", &obs, [3]int{0, 1, 2})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newRunner(t, []string{"gauss"}, iodsolver.New(nil)).Run(ctx, cases); !errors.Is(err, context.Canceled) {
		t.Fatal("want context.Canceled, got", err)
	}
}

func TestEnrich(t *testing.T) {
	e := iodrun.Enricher{
		Sites: iodsite.New(iodobs.SensorSite{ID: "ATF", ECEF: coord.Cart{X: 6378.137}}),
		Frame: iodframe.New(),
	}
	o := iodobs.Observation{Epoch: ep0, SiteID: "ATF"}
	if err := e.Enrich(&o, 0, 0, 0); err != nil {
		t.Fatal(err)
	}
	switch {
	case o.Site == nil || o.Site.ID != "ATF":
		t.Fatal("site not attached")
	case math.Abs(iodobs.Norm(o.SiteECI)-6378.137) > 1e-6:
		t.Fatal("inertial site radius", iodobs.Norm(o.SiteECI))
	case math.Abs(iodobs.Norm(o.SiteVECI)-6378.137*iodframe.OmegaEarth) > 1e-6:
		t.Fatal("inertial site speed", iodobs.Norm(o.SiteVECI))
	}
	o.SiteID = "XYZ"
	if err := e.Enrich(&o, 0, 0, 0); !errors.Is(err, iodobs.ErrUnknownSite) {
		t.Fatal("want ErrUnknownSite, got", err)
	}
}

func ExampleParseMethods() {
	fmt.Println(iodrun.ParseMethods([]string{"gooding", "Double-R"}))
	// Output:
	// doubler,gooding <nil>
}
