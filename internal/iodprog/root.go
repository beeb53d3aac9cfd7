// Public domain.

package iodprog

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/soniakeys/angiod/internal/iodlog"
)

// NewRootCmd creates the command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   AppName,
		Short: "Angle-only initial orbit determination",
		Long: `angiod estimates orbits from three optical angle observations.

Observations are grouped into tracks, triplets are selected by the cases of
a batch file, and each triplet is solved with the Laplace, Gauss, Double-r
and Gooding methods.  The answers are cross checked and written to a
verbose log and a one line per method summary.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	cmd.PersistentFlags().String("log-format", "", "log format: text or json")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewSimulateCmd())
	cmd.AddCommand(NewSitesCmd())
	cmd.AddCommand(NewVersionCmd())
	return cmd
}

// logConfig applies the persistent log flags over cfg.
func logConfig(cmd *cobra.Command, cfg iodlog.Config) iodlog.Config {
	if s, _ := cmd.Flags().GetString("log-level"); s != "" {
		cfg.Level = s
	}
	if s, _ := cmd.Flags().GetString("log-format"); s != "" {
		cfg.Format = s
	}
	return cfg
}

// newLogger builds the command logger on standard error and makes it the
// default.
func newLogger(cmd *cobra.Command, cfg iodlog.Config) (*slog.Logger, error) {
	log, err := iodlog.New(cmd.ErrOrStderr(), logConfig(cmd, cfg))
	if err != nil {
		return nil, err
	}
	slog.SetDefault(log)
	return log, nil
}
