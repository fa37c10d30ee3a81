package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	serverAddr string
	authToken  string

	rootCmd = &cobra.Command{
		Use:          "riskctl",
		Short:        "Operate and query a riskwatch engine",
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("RISK_CONFIG_FILE"), "path to the engine YAML config")
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", "http://localhost:8080", "base URL of a running engine")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", os.Getenv("RISK_TOKEN"), "bearer token for the engine API")

	rootCmd.AddCommand(newConfigCmd(), newAssessCmd(), newHealthCmd(), newTokenCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
