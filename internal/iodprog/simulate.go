// Public domain.

package iodprog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/soniakeys/unit"
	"github.com/spf13/cobra"

	"github.com/soniakeys/angiod/internal/iodframe"
	"github.com/soniakeys/angiod/internal/iodobs"
	"github.com/soniakeys/angiod/internal/iodsim"
	"github.com/soniakeys/angiod/internal/iodsite"
)

// NewSimulateCmd creates the simulate command.
func NewSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate [flags] <tle file>",
		Short: "Synthesize observations of a TLE object",
		Long: `Simulate propagates a two-line element set with SGP4 and writes the
angles seen from each catalog site while the object is above the minimum
elevation.  Site bias is always applied; noise is added with --noise.

Example:
  angiod simulate --sites sites.yaml --site ATF,MHO \
    --start 2024-03-01T02:00:00Z --duration 6h --step 30s obj.tle`,
		Args: cobra.ExactArgs(1),
		RunE: runSimulate,
	}
	addCatalogFlags(cmd)
	cmd.Flags().StringSlice("site", nil, "observing site ids")
	cmd.Flags().String("start", "", "start time, RFC 3339")
	cmd.Flags().Duration("duration", time.Hour, "simulated interval")
	cmd.Flags().Duration("step", time.Minute, "time between observations")
	cmd.Flags().Float64("min-el", 10, "minimum elevation, degrees")
	cmd.Flags().Bool("noise", false, "add Gaussian sensor noise")
	cmd.Flags().Uint64("seed", 1, "noise seed")
	cmd.Flags().StringP("output", "o", "-", "observation file")
	_ = cmd.MarkFlagRequired("site")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfigFlags(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cmd, cfg.Log)
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	ids, _ := cmd.Flags().GetStringSlice("site")
	sites, err := pickSites(cat, ids)
	if err != nil {
		return err
	}
	l1, l2, err := readTLE(args[0])
	if err != nil {
		return err
	}

	f := cmd.Flags()
	sc := iodsim.Config{Line1: l1, Line2: l2, EOP: cfg.EOP.EOP()}
	s, _ := f.GetString("start")
	if sc.Start, err = time.Parse(time.RFC3339, s); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	sc.Duration, _ = f.GetDuration("duration")
	sc.Step, _ = f.GetDuration("step")
	minEl, _ := f.GetFloat64("min-el")
	sc.MinElevation = unit.AngleFromDeg(minEl)
	sc.Noise, _ = f.GetBool("noise")
	sc.Seed, _ = f.GetUint64("seed")

	sim, err := iodsim.New(sc, iodframe.New())
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	obs, err := sim.Observe(sites)
	if err != nil {
		return err
	}
	out, _ := f.GetString("output")
	w, closeFn, err := create(cmd, out)
	if err != nil {
		return err
	}
	if err := WriteText(w, obs); err != nil {
		closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return err
	}
	log.Info("simulation done", "object", sim.ObjectID(), "sites", len(sites), "observations", len(obs))
	return nil
}

func pickSites(cat *iodsite.Catalog, ids []string) ([]*iodobs.SensorSite, error) {
	sites := make([]*iodobs.SensorSite, len(ids))
	for i, id := range ids {
		if id == "" || id == iodsite.PassThrough {
			return nil, fmt.Errorf("%w: simulate needs catalog sites", iodobs.ErrUnknownSite)
		}
		s, err := cat.Resolve(id, 0, 0, 0)
		if err != nil {
			return nil, err
		}
		sites[i] = s
	}
	return sites, nil
}

// readTLE returns the first element set in fn.  A name line is optional.
func readTLE(fn string) (l1, l2 string, err error) {
	f, err := os.Open(fn)
	if err != nil {
		return "", "", err
	}
	defer f.Close()
	return scanTLE(f)
}

func scanTLE(r io.Reader) (l1, l2 string, err error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \r")
		switch {
		case strings.HasPrefix(line, "1 "):
			l1 = line
		case strings.HasPrefix(line, "2 ") && l1 != "":
			return l1, line, nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", "", err
	}
	return "", "", iodsim.ErrTLE
}
