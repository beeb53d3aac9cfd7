// Public domain.

package iodprog

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/soniakeys/mpcformat"
	"github.com/spf13/cobra"

	"github.com/soniakeys/angiod/internal/iodsite"
)

// NewSitesCmd creates the sites command.
func NewSitesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "List the sensor site catalog",
		Long: `List the sites loaded from the site file and the MPC observatory code
file, in identifier order.`,
		Args: cobra.NoArgs,
		RunE: runSites,
	}
	addCatalogFlags(cmd)
	return cmd
}

func runSites(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfigFlags(cmd)
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-10s %5s %11s %11s %9s  %s\n", "id", "num", "lat", "lon", "alt km", "name")
	for _, s := range cat.Sites() {
		fmt.Fprintf(w, "%-10s %5d %11.6f %11.6f %9.4f  %s\n",
			s.ID, s.Number, s.Lat.Deg(), s.Lon.Deg(), s.Alt, s.Name)
	}
	return nil
}

// addCatalogFlags adds the flags naming the batch file and site sources.
func addCatalogFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "batch file")
	cmd.Flags().String("sites", "", "YAML site file")
	cmd.Flags().String("obscode", "", "MPC observatory code file")
}

// loadConfigFlags reads the batch file, if any, and applies the site
// source flags.
func loadConfigFlags(cmd *cobra.Command) (*Config, error) {
	cfg := DefaultConfig()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}
	if s, _ := cmd.Flags().GetString("sites"); s != "" {
		cfg.SitesFile = s
	}
	if s, _ := cmd.Flags().GetString("obscode"); s != "" {
		cfg.ObscodeFile = s
	}
	return cfg, nil
}

// loadCatalog builds the site catalog.  Site file entries replace
// observatory codes with the same identifier.
func loadCatalog(cfg *Config) (*iodsite.Catalog, error) {
	cat := iodsite.New()
	if cfg.ObscodeFile != "" {
		if err := ensureObscodes(cfg.ObscodeFile); err != nil {
			return nil, err
		}
		sites, err := iodsite.ReadObscodeFile(cfg.ObscodeFile)
		if err != nil {
			return nil, err
		}
		for _, s := range sites {
			cat.Add(s)
		}
	}
	if cfg.SitesFile != "" {
		sites, err := iodsite.ReadSiteFile(cfg.SitesFile)
		if err != nil {
			return nil, err
		}
		for _, s := range sites {
			cat.Add(s)
		}
	}
	return cat, nil
}

// ensureObscodes downloads the MPC observatory code list to fn if there is
// no file there yet.
func ensureObscodes(fn string) error {
	_, err := os.Stat(fn)
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	slog.Info("fetching observatory codes", "file", fn)
	if err := mpcformat.FetchObscodeDat(fn); err != nil {
		return fmt.Errorf("%s: %w", fn, err)
	}
	return nil
}
