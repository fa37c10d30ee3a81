package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"riskwatch/internal/risk/handler"
	"riskwatch/internal/risk/models"
)

func newAssessCmd() *cobra.Command {
	var (
		req        handler.AssessRiskRequest
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Request a risk assessment for one subject",
		Example: `  riskctl assess --name "John Smith" --country US
  riskctl assess --name "Acme Ltd" --country GB --type entity --key onboarding-991`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := newAPIClient(serverAddr, authToken)
			raw, err := client.do(cmd.Context(), http.MethodPost, "/risk/assessments", nil, req)
			if err != nil {
				return err
			}
			if jsonOutput {
				_, err := cmd.OutOrStdout().Write(raw)
				return err
			}
			var a models.RiskAssessment
			if err := json.Unmarshal(raw, &a); err != nil {
				return fmt.Errorf("decode assessment: %w", err)
			}
			printAssessment(cmd.OutOrStdout(), &a)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.SubjectName, "name", "", "subject name")
	cmd.Flags().StringVar(&req.CountryISO, "country", "", "ISO 3166-1 alpha-2 country code")
	cmd.Flags().StringVar(&req.SubjectType, "type", "individual", "individual or entity")
	cmd.Flags().StringVar(&req.IdempotencyKey, "key", "", "idempotency key")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the raw JSON response")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("country")
	return cmd
}

func printAssessment(out io.Writer, a *models.RiskAssessment) {
	fmt.Fprintf(out, "assessment %s\n", a.ID)
	fmt.Fprintf(out, "  subject   %s (%s, %s)\n", a.SubjectName, a.CountryISO, a.SubjectType)
	fmt.Fprintf(out, "  score     %d (%s)\n", a.OverallScore, a.Tier)
	fmt.Fprintf(out, "  penalties %s\n", a.PenaltyRange)
	for _, risk := range a.TopRisks {
		fmt.Fprintf(out, "  [%s] %s: %s\n", strings.ToUpper(string(risk.Severity)), risk.Title, risk.Description)
	}
	for _, rec := range a.Recommendations {
		fmt.Fprintf(out, "  - %s\n", rec)
	}
	if a.Warning != "" {
		fmt.Fprintf(out, "  warning: %s\n", a.Warning)
	}
}
