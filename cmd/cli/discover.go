package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chainwatch/price-compare/internal/adapters/config"
	"github.com/chainwatch/price-compare/internal/adapters/registry"
)

// discoverCmd represents the discover command.
var discoverCmd = &cobra.Command{
	Use:   "discover <chain>",
	Short: "List the store and price file URLs a chain adapter currently discovers",
	Long: `Discover the store-file and price-file URLs a chain's portal currently
publishes, without downloading or parsing them. Useful for confirming a
chain's index pages are reachable and its anchor-text signatures still match.`,
	Example: `  price-compare discover shufersal
  price-compare discover victory`,
	Args: cobra.ExactArgs(1),
	RunE: runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	chainID := args[0]
	if !config.IsValidChainID(chainID) {
		return fmt.Errorf("invalid chain ID: %s\nvalid chains: %s", chainID, strings.Join(validChains(), ", "))
	}

	if err := registry.InitializeDefaults(); err != nil {
		return fmt.Errorf("failed to initialize chain registry: %w", err)
	}

	adapter, err := registry.GetAdapter(config.ChainID(chainID))
	if err != nil {
		return fmt.Errorf("failed to get adapter for %s: %w", chainID, err)
	}

	ctx := context.Background()

	storeURLs, err := adapter.ListStoreFileURLs(ctx)
	if err != nil {
		return fmt.Errorf("discover store files: %w", err)
	}
	priceURLs, err := adapter.ListPriceFileURLs(ctx)
	if err != nil {
		return fmt.Errorf("discover price files: %w", err)
	}

	fmt.Printf("%s: %d store file(s), %d price file(s)\n", chainID, len(storeURLs), len(priceURLs))
	fmt.Println("\nStore files:")
	for _, u := range storeURLs {
		fmt.Println("  " + u)
	}
	fmt.Println("\nPrice files:")
	for _, u := range priceURLs {
		fmt.Println("  " + u)
	}
	return nil
}
