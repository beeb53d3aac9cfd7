// Public domain.

package iodprog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/soniakeys/unit"
	"gopkg.in/yaml.v3"

	"github.com/soniakeys/angiod/internal/iodlog"
	"github.com/soniakeys/angiod/internal/iodobs"
	"github.com/soniakeys/angiod/internal/iodrun"
)

// AppName names the data directory.
const AppName = "angiod"

// Configuration errors.
var (
	// ErrConfigNotFound is returned when the batch file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	ErrInvalidWorkers = errors.New("invalid workers: must be positive")
	ErrInvalidPct     = errors.New("invalid doubler_pct: must be positive")
	ErrInvalidPolicy  = errors.New("invalid case policy")
	ErrCaseIndex      = errors.New("case index out of range")
)

// Config is the batch file.
type Config struct {
	Methods     []string      `yaml:"methods"`
	DoubleRPct  float64       `yaml:"doubler_pct"`
	Workers     int           `yaml:"workers"`
	SitesFile   string        `yaml:"sites_file"`
	ObscodeFile string        `yaml:"obscode_file"`
	EOP         EOPConfig     `yaml:"eop"`
	Log         iodlog.Config `yaml:"log"`
	Output      OutputConfig  `yaml:"output"`
	Cases       []CaseConfig  `yaml:"cases"`
}

// EOPConfig gives Earth orientation in config units.
type EOPConfig struct {
	DUT1        float64 `yaml:"dut1"`
	DAT         float64 `yaml:"dat"`
	LOD         float64 `yaml:"lod"`
	XPArcsec    float64 `yaml:"xp_arcsec"`
	YPArcsec    float64 `yaml:"yp_arcsec"`
	DDPsiArcsec float64 `yaml:"ddpsi_arcsec"`
	DDEpsArcsec float64 `yaml:"ddeps_arcsec"`
}

// EOP converts to radians.
func (e EOPConfig) EOP() iodobs.EOP {
	return iodobs.EOP{
		DUT1:  e.DUT1,
		DAT:   e.DAT,
		LOD:   e.LOD,
		XP:    unit.AngleFromSec(e.XPArcsec).Rad(),
		YP:    unit.AngleFromSec(e.YPArcsec).Rad(),
		DDPsi: unit.AngleFromSec(e.DDPsiArcsec).Rad(),
		DDEps: unit.AngleFromSec(e.DDEpsArcsec).Rad(),
	}
}

// OutputConfig names the output files.  Empty names disable an output,
// except Verbose which defaults to standard output.
type OutputConfig struct {
	Verbose  string `yaml:"verbose"`
	Summary  string `yaml:"summary"`
	Markdown string `yaml:"markdown"`
	Store    string `yaml:"store"`   // directory, "default" for the data directory
	Metrics  string `yaml:"metrics"` // textfile collector file
	Trace    bool   `yaml:"trace"`
}

// CaseConfig selects the observations of one case.
//
// Policy fixed uses Obs, three indexes into the observation stream.  Policy
// scan pairs every member of track Track with the stream observations
// Fixed.  Policy midpoints uses the middle observation of each of Tracks.
type CaseConfig struct {
	Name   string `yaml:"name"`
	Policy string `yaml:"policy"`
	Obs    []int  `yaml:"obs"`
	Track  int    `yaml:"track"`
	Fixed  []int  `yaml:"fixed"`
	Tracks []int  `yaml:"tracks"`
}

// DefaultConfig returns the configuration used without a batch file.
func DefaultConfig() *Config {
	return &Config{
		Methods:    []string{"all"},
		DoubleRPct: iodrun.DefaultDoubleRPct,
		Workers:    1,
		Log:        iodlog.Config{Level: "info", Format: "text"},
	}
}

// LoadConfig reads a batch file over the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	c := DefaultConfig()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	// relative file names are relative to the batch file
	dir := filepath.Dir(path)
	for _, p := range []*string{&c.SitesFile, &c.ObscodeFile} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	return c, nil
}

// Validate checks values that do not depend on the input.
func (c *Config) Validate() error {
	if _, err := iodrun.ParseMethods(c.Methods); err != nil {
		return err
	}
	if c.Workers < 1 {
		return ErrInvalidWorkers
	}
	if c.DoubleRPct <= 0 {
		return ErrInvalidPct
	}
	for i, cc := range c.Cases {
		switch cc.Policy {
		case "", "fixed":
			if len(cc.Obs) != 3 {
				return fmt.Errorf("case %d: %w: fixed needs 3 observations", i+1, ErrInvalidPolicy)
			}
		case "scan":
			if len(cc.Fixed) != 2 {
				return fmt.Errorf("case %d: %w: scan needs 2 fixed observations", i+1, ErrInvalidPolicy)
			}
		case "midpoints":
			if len(cc.Tracks) != 3 {
				return fmt.Errorf("case %d: %w: midpoints needs 3 tracks", i+1, ErrInvalidPolicy)
			}
		default:
			return fmt.Errorf("case %d: %w %q", i+1, ErrInvalidPolicy, cc.Policy)
		}
	}
	return nil
}

// DataDir is the default directory for the result store.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}
