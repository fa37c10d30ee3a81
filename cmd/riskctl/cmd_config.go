package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"riskwatch/internal/platform/config"
	"riskwatch/internal/screening/registry"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect engine configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and resolve every screening provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return validateConfig(cmd.OutOrStdout(), configPath)
		},
	})
	return cmd
}

// validateConfig fails on any error the server would fail on at startup.
func validateConfig(out io.Writer, path string) error {
	cfg, _, err := config.Load(path)
	if err != nil {
		return err
	}
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg, err := registry.New(config.NewStatic(cfg), nil, registry.WithLogger(quiet))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "configuration valid (vendor %s)\n", reg.Vendor())
	for _, adapter := range reg.All() {
		fmt.Fprintf(out, "  %-16s %-18s timeout %s\n", adapter.Signal(), adapter.ID(), adapter.Timeout())
	}
	w := cfg.Scoring.Weights
	fmt.Fprintf(out, "  weights sanctions=%.2f pep=%.2f adverseMedia=%.2f internalHistory=%.2f countryBaseline=%.2f\n",
		w.Sanctions, w.PEP, w.AdverseMedia, w.InternalHistory, w.CountryBaseline)
	fmt.Fprintf(out, "  tiers low<%d medium<%d high\n", cfg.Scoring.LowCut, cfg.Scoring.HighCut)
	return nil
}
