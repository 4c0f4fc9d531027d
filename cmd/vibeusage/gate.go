package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gate <provider>",
		Short: "Show or clear a provider's failure gate state",
		Args:  cobra.ExactArgs(1),
		RunE:  runGateStatus,
	}
	cmd.Flags().Bool("clear", false, "clear the gate instead of reporting it")
	return cmd
}

func runGateStatus(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}

	providerID := args[0]
	g := a.gates.Get(providerID)

	if clear, _ := cmd.Flags().GetBool("clear"); clear {
		g.Clear()
		if err := a.store.SaveGateState(g.State()); err != nil {
			return fmt.Errorf("persisting cleared gate: %w", err)
		}
		fmt.Printf("%s: gate cleared\n", providerID)
		return nil
	}

	if g.IsGated() {
		fmt.Printf("%s: GATED, %s remaining\n", providerID, g.Remaining())
	} else {
		fmt.Printf("%s: open\n", providerID)
	}
	for _, f := range g.RecentFailures(5) {
		fmt.Printf("  %s  %-12s %s\n", f.Timestamp.Format("15:04:05"), f.Category, f.Message)
	}
	return nil
}
