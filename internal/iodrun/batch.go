// Public domain.

// Package iodrun runs angle-only initial orbit determination cases: it
// estimates a range seed for each triplet, drives the selected methods in a
// fixed order and cross checks their answers.
//
// Each case produces a self contained CaseReport.  A batch returns the
// reports in case order whatever the number of workers.
package iodrun

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/soniakeys/unit"

	"github.com/soniakeys/angiod/internal/iodobs"
	"github.com/soniakeys/angiod/internal/iodtrack"
)

// Case is one unit of work: three observations in any order.
type Case struct {
	Name string
	Obs  [3]*iodobs.Observation
	RMS  [3]unit.Angle // track residual of each observation, may be zero
	Err  error         // set when the case could not be built
}

func (c *Case) rmsOf(o *iodobs.Observation) unit.Angle {
	for i, p := range c.Obs {
		if p == o {
			return c.RMS[i]
		}
	}
	return 0
}

// CaseReport is the complete outcome of one case.
type CaseReport struct {
	Index       int
	Name        string
	Triplet     *iodobs.Triplet
	Range       RangeGuess
	Results     []Result
	Consistency ConsistencyReport
	Verbose     []string
	Summary     []string
	Err         error
}

// Skipped reports whether the case was abandoned before any method ran.
func (r *CaseReport) Skipped() bool { return r.Err != nil }

// Recorder observes finished cases.  It must be safe for concurrent use.
type Recorder interface {
	Record(rep *CaseReport)
}

// Runner processes batches of cases.
type Runner struct {
	orch    *Orchestrator
	est     Estimator
	workers int
	log     *slog.Logger
	tracer  trace.Tracer
	rec     Recorder
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers sets the number of cases processed concurrently.  Values
// below 2 run cases sequentially.
func WithWorkers(n int) Option {
	return func(r *Runner) { r.workers = n }
}

// WithLogger sets the logger.  The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// WithTracer sets the tracer for per case spans.  The default is the
// global tracer provider's.
func WithTracer(t trace.Tracer) Option {
	return func(r *Runner) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithRecorder registers a recorder called once per finished case.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.rec = rec }
}

// NewRunner returns a runner driving o.  The range estimator uses o's
// solver for its root.
func NewRunner(o *Orchestrator, opts ...Option) *Runner {
	r := &Runner{
		orch:    o,
		est:     Estimator{Roots: o.Solver},
		workers: 1,
		log:     slog.Default(),
		tracer:  otel.Tracer("github.com/soniakeys/angiod/iodrun"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if o.Log == nil {
		o.Log = r.log
	}
	return r
}

// Run processes cases and returns one report per case, in case order.
// A case that fails to build or select is reported as skipped; only
// context cancellation stops a batch.
func (r *Runner) Run(ctx context.Context, cases []Case) ([]CaseReport, error) {
	r.log.Info("batch start", "cases", len(cases), "methods", r.orch.Methods.String(), "workers", r.workers)
	reps := make([]CaseReport, len(cases))
	if r.workers <= 1 {
		for i := range cases {
			if err := ctx.Err(); err != nil {
				return reps[:i], err
			}
			reps[i] = r.RunCase(ctx, i, &cases[i])
		}
		r.log.Info("batch done", "cases", len(reps))
		return reps, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := range cases {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reps[i] = r.RunCase(gctx, i, &cases[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	r.log.Info("batch done", "cases", len(reps))
	return reps, nil
}

// RunCase processes a single case.
func (r *Runner) RunCase(ctx context.Context, index int, c *Case) CaseReport {
	_, span := r.tracer.Start(ctx, "iod.case",
		trace.WithAttributes(attribute.String("case", c.Name), attribute.Int("index", index)))
	defer span.End()

	rep := CaseReport{Index: index, Name: c.Name}
	defer func() {
		if r.rec != nil {
			r.rec.Record(&rep)
		}
	}()
	if c.Err != nil {
		r.skip(&rep, span, c.Err)
		return rep
	}
	tr, err := iodtrack.Select(c.Obs[0], c.Obs[1], c.Obs[2])
	if err != nil {
		r.skip(&rep, span, err)
		return rep
	}
	rep.Triplet = &tr
	rep.Range = r.est.Estimate(&tr)
	rep.Verbose = append(rep.Verbose, verboseCase(c, &tr, &rep.Range)...)
	rep.Results = r.orch.Run(&tr, rep.Range, &rep)
	rep.Consistency = Check(r.orch.Prop, &tr, rep.Results)
	rep.Verbose = append(rep.Verbose, verboseCheck(&rep.Consistency)...)
	rep.Summary = append(rep.Summary, rep.Name+"  "+summaryCheck(&rep.Consistency))

	conv := 0
	for i := range rep.Results {
		if rep.Results[i].Status.Converged {
			conv++
		}
	}
	span.SetAttributes(
		attribute.Float64("range.guess", rep.Range.Guess),
		attribute.Bool("range.clamped", rep.Range.Clamped),
		attribute.Int("methods.converged", conv),
		attribute.Bool("flag.propagation_mismatch", rep.Consistency.PropagationMismatch),
		attribute.Bool("flag.method_disagreement", rep.Consistency.MethodDisagreement),
	)
	return rep
}

func (r *Runner) skip(rep *CaseReport, span trace.Span, err error) {
	rep.Err = err
	line := fmt.Sprintf("case %s skipped: %v", rep.Name, err)
	rep.Verbose = append(rep.Verbose, line)
	rep.Summary = append(rep.Summary, line)
	span.RecordError(err)
	span.SetStatus(codes.Error, "case skipped")
	r.log.Warn("case skipped", "case", rep.Name, "error", err)
}
