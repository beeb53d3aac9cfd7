// Public domain.

package iodprog

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "batch.yaml")
	const doc = `
methods: [gauss, gooding]
workers: 4
sites_file: sites.yaml
obscode_file: /data/obscode.dat
eop: {dut1: 0.1, xp_arcsec: 0.5}
log: {level: debug}
cases:
  - name: a
    obs: [0, 1, 2]
`
	if err := os.WriteFile(fn, []byte(doc), 0600); err != nil {
		t.Fatal(err)
	}
	c, err := LoadConfig(fn)
	switch {
	case err != nil:
		t.Fatal(err)
	case c.Workers != 4 || len(c.Methods) != 2:
		t.Fatal("values", c.Workers, c.Methods)
	case c.DoubleRPct != 5:
		t.Fatal("default pct lost", c.DoubleRPct)
	case c.Log.Format != "text" || c.Log.Level != "debug":
		t.Fatal("log", c.Log)
	case c.SitesFile != filepath.Join(dir, "sites.yaml"):
		t.Fatal("sites file", c.SitesFile)
	case c.ObscodeFile != "/data/obscode.dat":
		t.Fatal("obscode file", c.ObscodeFile)
	case math.Abs(c.EOP.EOP().XP-.5/206264.80624709636) > 1e-15:
		t.Fatal("xp", c.EOP.EOP().XP)
	}
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(filepath.Join(dir, "none.yaml")); !errors.Is(err, ErrConfigNotFound) {
		t.Fatal("want ErrConfigNotFound, got", err)
	}
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name string
		edit func(*Config)
		want error
	}{
		{"workers", func(c *Config) { c.Workers = 0 }, ErrInvalidWorkers},
		{"pct", func(c *Config) { c.DoubleRPct = -1 }, ErrInvalidPct},
		{"fixed", func(c *Config) { c.Cases = []CaseConfig{{Obs: []int{1, 2}}} }, ErrInvalidPolicy},
		{"scan", func(c *Config) { c.Cases = []CaseConfig{{Policy: "scan", Fixed: []int{1}}} }, ErrInvalidPolicy},
		{"midpoints", func(c *Config) { c.Cases = []CaseConfig{{Policy: "midpoints"}} }, ErrInvalidPolicy},
		{"policy", func(c *Config) { c.Cases = []CaseConfig{{Policy: "best"}} }, ErrInvalidPolicy},
	} {
		c := DefaultConfig()
		tc.edit(c)
		if err := c.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
	c := DefaultConfig()
	c.Methods = []string{"simplex"}
	if c.Validate() == nil {
		t.Fatal("unknown method accepted")
	}
}
