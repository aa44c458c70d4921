package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/chainwatch/price-compare/internal/adapters/config"
	"github.com/chainwatch/price-compare/internal/adapters/registry"
	"github.com/chainwatch/price-compare/internal/fetch"
	"github.com/chainwatch/price-compare/internal/fetch/ratelimit"
	"github.com/chainwatch/price-compare/internal/importer"
)

var ingestAll bool

// ingestCmd represents the ingest command.
var ingestCmd = &cobra.Command{
	Use:   "ingest <chain>",
	Short: "Run a full ingestion pass for a chain",
	Long: `Run the complete ingestion pipeline (discover, fetch, parse, persist) for
a specific retail chain. Use --all to ingest every registered chain.`,
	Example: `  price-compare ingest shufersal
  price-compare ingest --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&ingestAll, "all", false, "ingest every registered chain")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var chains []config.ChainID
	if ingestAll {
		chains = config.ChainIDs
		logger.Info().Msgf("ingesting all %d chains", len(chains))
	} else {
		if len(args) == 0 {
			return fmt.Errorf("either specify <chain> or use --all flag")
		}
		if !config.IsValidChainID(args[0]) {
			return fmt.Errorf("invalid chain ID: %s\nvalid chains: %s", args[0], strings.Join(validChains(), ", "))
		}
		chains = []config.ChainID{config.ChainID(args[0])}
	}

	if err := registry.InitializeDefaults(); err != nil {
		return fmt.Errorf("failed to initialize chain registry: %w", err)
	}

	client := fetch.NewClient(ratelimit.Config{
		RequestsPerSecond: int(cfg.RateLimit.RequestsPerSecond),
		MaxRetries:        cfg.RateLimit.MaxRetries,
		InitialBackoffMs:  cfg.RateLimit.InitialBackoffMs,
		MaxBackoffMs:      cfg.RateLimit.MaxBackoffMs,
	}, 30*time.Second)

	im := importer.New(dataStore, client, importer.Config{
		PreferLongerNames: cfg.Ingestion.PreferLongerNames,
		FileConcurrency:   4,
		PriceFileLimit:    cfg.Ingestion.ImportLimit,
	})

	results := make([]ingestResult, 0, len(chains))
	for _, chainID := range chains {
		adapter, err := registry.GetAdapter(chainID)
		if err != nil {
			results = append(results, ingestResult{Chain: string(chainID), Success: false, Error: err.Error()})
			continue
		}

		logger.Info().Str("chain", string(chainID)).Msg("starting ingestion")
		summary, err := im.ImportChain(ctx, chainID, adapter)
		if err != nil {
			logger.Error().Str("chain", string(chainID)).Err(err).Msg("ingestion failed")
			results = append(results, ingestResult{Chain: string(chainID), Success: false, Error: err.Error()})
			continue
		}
		results = append(results, ingestResult{
			Chain:           string(chainID),
			Success:         true,
			ProductsCreated: summary.ProductsCreated,
			PricesCreated:   summary.PricesCreated,
			PricesUpdated:   summary.PricesUpdated,
			Errors:          summary.Errors,
		})
	}

	displayIngestResults(results)

	for _, r := range results {
		if !r.Success {
			return fmt.Errorf("some ingestions failed")
		}
	}
	return nil
}

type ingestResult struct {
	Chain           string
	Success         bool
	ProductsCreated int
	PricesCreated   int
	PricesUpdated   int
	Errors          int
	Error           string
}

func displayIngestResults(results []ingestResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "CHAIN\tSTATUS\tPRODUCTS\tPRICES CREATED\tPRICES UPDATED\tERRORS")
	fmt.Fprintln(w, "-----\t------\t--------\t--------------\t--------------\t------")

	for _, r := range results {
		status := "SUCCESS"
		if !r.Success {
			status = "FAILED: " + r.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\n", r.Chain, status, r.ProductsCreated, r.PricesCreated, r.PricesUpdated, r.Errors)
	}
	w.Flush()
}

func validChains() []string {
	chains := make([]string, len(config.ChainIDs))
	for i, c := range config.ChainIDs {
		chains[i] = string(c)
	}
	return chains
}
