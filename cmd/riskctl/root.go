package main

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/collision"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/config"
	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/logging"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "riskctl",
		Short:         "Offline vessel collision-risk tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "YAML config file for engine thresholds")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "log engine decisions to stderr")

	cmd.AddCommand(newEvaluateCmd(opts), newZonesCmd())
	return cmd
}

// engine builds an engine from the config file, or from defaults when none
// is given.
func (o *rootOptions) engine(stderr io.Writer) (*collision.Engine, error) {
	opts := []collision.Option{}
	if o.configPath != "" {
		cfg, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, collision.WithThresholds(cfg.Thresholds()), collision.WithResolver(cfg.Resolver()))
	}
	if o.verbose {
		logger, err := logging.NewLogger(logging.LogConfig{Level: "debug", Format: "console", OutputPaths: []string{"stderr"}})
		if err != nil {
			return nil, err
		}
		opts = append(opts, collision.WithLogger(logger), collision.WithAlertSink(newPrintSink(stderr)))
	}
	return collision.NewEngine(opts...), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
