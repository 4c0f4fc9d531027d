package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache [provider]",
		Short: "Clear cached snapshot and org id data, for one provider or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCacheClear,
	}
	return cmd
}

// runCacheClear clears a single provider's cache when given one, or every
// provider's cache when given none, mirroring clear_all_cache(provider_id=None)
// in the reference implementation.
func runCacheClear(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		if err := a.store.ClearAll(""); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Println("cache cleared for all providers")
		return nil
	}

	providerID := args[0]
	if err := a.store.ClearAll(providerID); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}

	fmt.Printf("%s: cache cleared\n", providerID)
	return nil
}
