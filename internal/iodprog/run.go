// Public domain.

package iodprog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/soniakeys/mpcformat"
	"github.com/spf13/cobra"

	"github.com/soniakeys/angiod/internal/iodframe"
	"github.com/soniakeys/angiod/internal/iodmetrics"
	"github.com/soniakeys/angiod/internal/iodprop"
	"github.com/soniakeys/angiod/internal/iodreport"
	"github.com/soniakeys/angiod/internal/iodrun"
	"github.com/soniakeys/angiod/internal/iodsolver"
	"github.com/soniakeys/angiod/internal/iodstore"
)

var (
	// ErrNoCases is returned when the input yields nothing to solve.
	ErrNoCases = errors.New("no cases to run")

	ErrNoObscodes = errors.New("mpc format needs an observatory code file")
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [flags] <observations>",
		Short: "Run a batch of IOD cases",
		Long: `Run reads observations, groups them into tracks and solves the cases of
the batch file.  Without cases, each three consecutive tracks of an object
make a case, or the first, middle and last observation of a single track.

The observation file is the angiod text format, one observation per line:

  epoch site ra dec pass object [lat lon alt [az el]]

or, with --format mpc, MPC 80 column observations.  "-" reads standard
input.

Examples:
  angiod run -c batch.yaml obs.txt
  angiod run --methods gauss,gooding --summary summary.txt obs.txt
  angiod run --format mpc --obscode obscode.dat --markdown report.md obs.mpc`,
		Args: cobra.ExactArgs(1),
		RunE: runRun,
	}
	addCatalogFlags(cmd)
	cmd.Flags().String("format", "text", "observation format: text or mpc")
	cmd.Flags().StringSlice("methods", nil, "methods: laplace, gauss, doubler, gooding or all")
	cmd.Flags().IntP("workers", "w", 0, "cases solved concurrently")
	cmd.Flags().Float64("doubler-pct", 0, "Double-r perturbation percentage")
	cmd.Flags().StringP("verbose", "o", "", `verbose report file, "-" for standard output`)
	cmd.Flags().String("summary", "", "summary report file")
	cmd.Flags().String("markdown", "", "markdown batch summary file")
	cmd.Flags().String("store", "", `result store directory, "default" for the data directory`)
	cmd.Flags().String("metrics", "", "Prometheus textfile to write")
	cmd.Flags().Bool("trace", false, "write per case spans to standard error")
	return cmd
}

// runFlags applies run flags over the batch file.
func runFlags(cmd *cobra.Command, cfg *Config) {
	f := cmd.Flags()
	if f.Changed("methods") {
		cfg.Methods, _ = f.GetStringSlice("methods")
	}
	if f.Changed("workers") {
		cfg.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("doubler-pct") {
		cfg.DoubleRPct, _ = f.GetFloat64("doubler-pct")
	}
	for flag, p := range map[string]*string{
		"verbose":  &cfg.Output.Verbose,
		"summary":  &cfg.Output.Summary,
		"markdown": &cfg.Output.Markdown,
		"store":    &cfg.Output.Store,
		"metrics":  &cfg.Output.Metrics,
	} {
		if f.Changed(flag) {
			*p, _ = f.GetString(flag)
		}
	}
	if f.Changed("trace") {
		cfg.Output.Trace, _ = f.GetBool("trace")
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigFlags(cmd)
	if err != nil {
		return err
	}
	runFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	log, err := newLogger(cmd, cfg.Log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	recs, err := readInput(cmd, args[0], format, cfg)
	if err != nil {
		return err
	}
	log.Info("observations read", "input", args[0], "count", len(recs), "sites", cat.Len())

	frame := iodframe.New()
	st := NewStream(recs, &iodrun.Enricher{Sites: cat, Frame: frame})
	var cases []iodrun.Case
	if len(cfg.Cases) > 0 {
		if cases, err = st.BuildCases(cfg.Cases); err != nil {
			return err
		}
	} else {
		cases = st.AutoCases()
	}
	if len(cases) == 0 {
		return fmt.Errorf("%s: %d observations in %d tracks: %w",
			args[0], st.Len(), len(st.Tracks), ErrNoCases)
	}

	shutdown, err := iodmetrics.InitTracing(ctx, iodmetrics.TracingConfig{
		Enabled:     cfg.Output.Trace,
		ServiceName: AppName,
		Writer:      cmd.ErrOrStderr(),
	}, log)
	if err != nil {
		return err
	}
	defer iodmetrics.Shutdown(context.Background(), shutdown, log)

	col, err := iodmetrics.NewCollector(prometheus.NewRegistry())
	if err != nil {
		return err
	}
	methods, _ := iodrun.ParseMethods(cfg.Methods)
	prop := iodprop.New()
	runner := iodrun.NewRunner(&iodrun.Orchestrator{
		Solver:     iodsolver.New(prop),
		Prop:       prop,
		Methods:    methods,
		DoubleRPct: cfg.DoubleRPct,
		Log:        log,
	},
		iodrun.WithWorkers(cfg.Workers),
		iodrun.WithLogger(log),
		iodrun.WithRecorder(col),
	)

	started := time.Now()
	reps, err := runner.Run(ctx, cases)
	if err != nil {
		return err
	}
	batch := iodreport.Batch{
		Input:   args[0],
		Methods: methods,
		Started: started,
		Elapsed: time.Since(started),
	}
	if err := writeReports(cmd, cfg.Output, batch, reps); err != nil {
		return err
	}
	if err := storeResults(ctx, cfg.Output.Store, batch, reps, log); err != nil {
		return err
	}
	if cfg.Output.Metrics != "" {
		if err := col.WriteTextfile(cfg.Output.Metrics); err != nil {
			return err
		}
	}
	t := iodreport.Count(reps)
	log.Info("batch complete", "cases", t.Cases, "skipped", t.Skipped,
		"clamped", t.Clamped, "elapsed", batch.Elapsed)
	return nil
}

func readInput(cmd *cobra.Command, name, format string, cfg *Config) ([]Record, error) {
	var r io.Reader = cmd.InOrStdin()
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	eop := cfg.EOP.EOP()
	switch strings.ToLower(format) {
	case "text":
		return ReadText(r, eop)
	case "mpc":
		if cfg.ObscodeFile == "" {
			return nil, ErrNoObscodes
		}
		ocd, err := mpcformat.ReadObscodeDatFile(cfg.ObscodeFile)
		if err != nil {
			return nil, err
		}
		return ReadMPC(r, ocd, eop)
	}
	return nil, fmt.Errorf("unknown observation format %q", format)
}

// create opens an output file, making its directory.  "-" is standard
// output.
func create(cmd *cobra.Command, name string) (io.Writer, func() error, error) {
	if name == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	if dir := filepath.Dir(name); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func writeReports(cmd *cobra.Command, out OutputConfig, b iodreport.Batch, reps []iodrun.CaseReport) error {
	verbose := out.Verbose
	if verbose == "" {
		verbose = "-"
	}
	outputs := []struct {
		name  string
		write func(io.Writer) error
	}{
		{verbose, func(w io.Writer) error { return iodreport.WriteVerbose(w, reps) }},
		{out.Summary, func(w io.Writer) error { return iodreport.WriteSummary(w, reps) }},
		{out.Markdown, func(w io.Writer) error { return iodreport.WriteMarkdown(w, b, reps) }},
	}
	for _, o := range outputs {
		if o.name == "" {
			continue
		}
		w, closeFn, err := create(cmd, o.name)
		if err != nil {
			return err
		}
		if err := o.write(w); err != nil {
			closeFn()
			return fmt.Errorf("%s: %w", o.name, err)
		}
		if err := closeFn(); err != nil {
			return err
		}
	}
	return nil
}

func storeResults(ctx context.Context, dir string, b iodreport.Batch, reps []iodrun.CaseReport, log *slog.Logger) error {
	switch dir {
	case "":
		return nil
	case "default":
		dir = DataDir()
	}
	st, err := iodstore.Open(dir)
	if err != nil {
		return err
	}
	defer st.Close()
	id, err := st.Save(ctx, b.Input, b.Methods, b.Started, reps)
	if err != nil {
		return err
	}
	log.Info("results stored", "path", st.Path(), "batch", id)
	return nil
}
