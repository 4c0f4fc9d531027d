package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sawpanic/vibeusage/internal/models"
	"github.com/sawpanic/vibeusage/internal/orchestrator"
)

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch usage data from every enabled provider",
		RunE:  runFetch,
	}
	cmd.Flags().StringSlice("provider", nil, "limit the fetch to these provider ids (default: all enabled)")
	return cmd
}

func runFetch(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}

	providers := a.providerSet()
	if selected, _ := cmd.Flags().GetStringSlice("provider"); len(selected) > 0 {
		filtered := make(orchestrator.ProviderSet, len(selected))
		for _, id := range selected {
			if strategies, ok := providers[id]; ok {
				filtered[id] = strategies
			}
		}
		providers = filtered
	}

	ctx := context.Background()
	outcomes := a.orchestrator.FetchEnabled(ctx, providers, a.cfg.IsProviderEnabled, func(outcome models.FetchOutcome) {
		a.recordOutcome(ctx, outcome)
	})
	aggregated := orchestrator.Aggregate(outcomes)

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		if err := json.NewEncoder(os.Stdout).Encode(outcomes); err != nil {
			return err
		}
	} else {
		for providerID, outcome := range outcomes {
			if outcome.Success {
				fmt.Printf("%-10s ok (%s)\n", providerID, outcome.Source)
			} else {
				fmt.Printf("%-10s FAILED: %s\n", providerID, outcome.Error)
			}
		}
	}

	if aggregated.AllFailed() {
		return fmt.Errorf("every provider failed")
	}
	if len(aggregated.Errors) > 0 {
		return &partialFailureError{failed: aggregated.FailedProviders()}
	}
	return nil
}
