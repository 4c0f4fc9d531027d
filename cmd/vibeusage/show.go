package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <provider>",
		Short: "Show the last cached usage snapshot for a provider",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}

	providerID := args[0]
	snapshot, ok := a.store.LoadSnapshot(providerID)
	if !ok {
		return fmt.Errorf("no cached snapshot for provider %q", providerID)
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		return json.NewEncoder(os.Stdout).Encode(snapshot)
	}

	fmt.Printf("%s (source: %s, fetched %s)\n", snapshot.Provider, snapshot.Source, snapshot.FetchedAt.Format("2006-01-02 15:04:05"))
	for _, p := range snapshot.Periods {
		fmt.Printf("  %-20s %3d%%\n", p.Name, p.Utilization)
	}
	return nil
}
