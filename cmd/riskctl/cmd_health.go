package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"riskwatch/internal/screening/providers"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show the health of every screening provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := newAPIClient(serverAddr, authToken)
			raw, err := client.do(cmd.Context(), http.MethodGet, "/risk/providers/health", nil, nil)
			if err != nil {
				return err
			}
			var reports map[providers.Signal]providers.HealthReport
			if err := json.Unmarshal(raw, &reports); err != nil {
				return fmt.Errorf("decode health: %w", err)
			}

			out := cmd.OutOrStdout()
			unhealthy := 0
			for _, signal := range providers.AllSignals {
				report, ok := reports[signal]
				if !ok {
					continue
				}
				fmt.Fprintf(out, "%-16s %-9s %6dms %s\n", signal, report.Status, report.ResponseTimeMs, report.Error)
				if report.Status == providers.HealthUnhealthy {
					unhealthy++
				}
			}
			if unhealthy > 0 {
				return fmt.Errorf("%d provider(s) unhealthy", unhealthy)
			}
			return nil
		},
	}
}
