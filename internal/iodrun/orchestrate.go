// Public domain.

package iodrun

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/soniakeys/coord"

	"github.com/soniakeys/angiod/internal/iodobs"
	"github.com/soniakeys/angiod/internal/iodprop"
	"github.com/soniakeys/angiod/internal/iodsolver"
)

// Method identifies an IOD method.  Methods run in the order of their
// values.
type Method int

const (
	Laplace Method = iota
	Gauss
	DoubleR
	Gooding
	numMethods
)

var methodNames = [numMethods]string{"laplace", "gauss", "doubler", "gooding"}

func (m Method) String() string {
	if m < 0 || m >= numMethods {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodNames[m]
}

// MethodSet is a set of methods.
type MethodSet uint8

// AllMethods selects every method.
const AllMethods = MethodSet(1<<numMethods - 1)

// Has reports whether m is in the set.
func (s MethodSet) Has(m Method) bool { return s&(1<<m) != 0 }

// Methods returns the members of the set in invocation order.
func (s MethodSet) Methods() []Method {
	var ms []Method
	for m := Laplace; m < numMethods; m++ {
		if s.Has(m) {
			ms = append(ms, m)
		}
	}
	return ms
}

func (s MethodSet) String() string {
	var names []string
	for _, m := range s.Methods() {
		names = append(names, m.String())
	}
	return strings.Join(names, ",")
}

// ParseMethods builds a set from method names.  "all" selects every method.
// Names are case insensitive; "double-r" is accepted for doubler.
func ParseMethods(names []string) (MethodSet, error) {
	var s MethodSet
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "all":
			s |= AllMethods
		case "laplace":
			s |= 1 << Laplace
		case "gauss":
			s |= 1 << Gauss
		case "doubler", "double-r":
			s |= 1 << DoubleR
		case "gooding":
			s |= 1 << Gooding
		default:
			return 0, fmt.Errorf("unknown method %q", n)
		}
	}
	if s == 0 {
		return 0, fmt.Errorf("no methods selected")
	}
	return s, nil
}

// SolverGateway is the set of IOD methods the orchestrator drives.
type SolverGateway interface {
	RootSolver
	Laplace(in iodsolver.Input, sameSite bool) iodsolver.Solution
	Gauss(in iodsolver.Input) iodsolver.Solution
	DoubleR(in iodsolver.Input, r1, r2, pct float64) iodsolver.Solution
	Gooding(in iodsolver.Input, rho1, rho3 float64) iodsolver.Solution
}

// PropagationGateway is the two-body service used for back propagation,
// element conversion and checking.
type PropagationGateway interface {
	Kepler(pos, vel coord.Cart, dt float64) (coord.Cart, coord.Cart, error)
	Classical(pos, vel coord.Cart) (iodprop.Classical, error)
	Equinoctial(pos, vel coord.Cart) (iodprop.Equinoctial, error)
}

// Result is the outcome of one method on one triplet.
type Result struct {
	Method      Method
	Pos, Vel    coord.Cart // at the second observation
	Pos1, Vel1  coord.Cart // at the first observation
	Status      iodsolver.Status
	Classical   iodprop.Classical
	Equinoctial iodprop.Equinoctial
	H           coord.Cart // angular momentum
	ElemErr     error      // element conversion failure
}

// DefaultDoubleRPct is the Double-r perturbation percentage.
const DefaultDoubleRPct = 5

// Orchestrator runs a set of methods over a triplet.
type Orchestrator struct {
	Solver     SolverGateway
	Prop       PropagationGateway
	Methods    MethodSet
	DoubleRPct float64
	Log        *slog.Logger
}

// Run invokes each selected method in fixed order, appending one verbose
// block and one summary line per method to rep.  Solver failures are
// recorded in the results; they never stop later methods.
func (o *Orchestrator) Run(tr *iodobs.Triplet, rg RangeGuess, rep *CaseReport) []Result {
	log := o.Log
	if log == nil {
		log = slog.Default()
	}
	pct := o.DoubleRPct
	if pct == 0 {
		pct = DefaultDoubleRPct
	}
	in := iodsolver.NewInput(tr, rg.HalfRevs)
	dt1 := tr.Obs[0].Epoch.Sub(tr.Obs[1].Epoch)

	var results []Result
	for _, m := range o.Methods.Methods() {
		var sol iodsolver.Solution
		switch m {
		case Laplace:
			sol = o.Solver.Laplace(in, tr.SameSite)
		case Gauss:
			sol = o.Solver.Gauss(in)
		case DoubleR:
			sol = o.Solver.DoubleR(in, rg.Bracket[0], rg.Bracket[1], pct)
		case Gooding:
			rho1, ok1 := iodsolver.SlantRange(in.L[0], in.R[0], rg.Bracket[0])
			rho3, ok3 := iodsolver.SlantRange(in.L[2], in.R[2], rg.Bracket[2])
			if !ok1 || !ok3 {
				sol.Status = iodsolver.Status{
					Note:   iodsolver.NoteDegenerate,
					Detail: "seed radius not reached along line of sight",
				}
				break
			}
			sol = o.Solver.Gooding(in, rho1, rho3)
		}
		r := o.finish(m, sol, dt1)
		if !r.Status.Converged {
			log.Debug("method failed", "case", rep.Name, "method", m.String(), "status", r.Status.String())
		}
		results = append(results, r)
		rep.Verbose = append(rep.Verbose, verboseResult(&r)...)
		rep.Summary = append(rep.Summary, rep.Name+"  "+summaryResult(&r))
	}
	return results
}

// finish back propagates a solution to the first epoch and converts it to
// elements.
func (o *Orchestrator) finish(m Method, sol iodsolver.Solution, dt1 float64) Result {
	r := Result{Method: m, Pos: sol.Pos, Vel: sol.Vel, Status: sol.Status}
	if !sol.Status.Converged {
		return r
	}
	var err error
	if r.Pos1, r.Vel1, err = o.Prop.Kepler(sol.Pos, sol.Vel, dt1); err != nil {
		r.Status.Converged = false
		r.Status.Note = iodsolver.NoteNonConvergent
		r.Status.Detail = "back propagation: " + err.Error()
		return r
	}
	r.H = iodprop.AngularMomentum(sol.Pos, sol.Vel)
	if r.Classical, err = o.Prop.Classical(sol.Pos, sol.Vel); err != nil {
		r.ElemErr = err
		return r
	}
	r.Equinoctial, r.ElemErr = o.Prop.Equinoctial(sol.Pos, sol.Vel)
	return r
}
