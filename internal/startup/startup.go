// Package startup runs once per process start: probes the store's
// health, conditionally creates schema, and conditionally drives a
// full ingestion pass.
package startup

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rs/zerolog/log"

	"github.com/chainwatch/price-compare/internal/adapters/base"
	adapterconfig "github.com/chainwatch/price-compare/internal/adapters/config"
	"github.com/chainwatch/price-compare/internal/importer"
	"github.com/chainwatch/price-compare/internal/store"
)

// requiredTables is the six graph tables plus the supplemental
// ingestion_run bookkeeping table.
var requiredTables = []string{
	"chain", "branch", "chain_product", "branch_price", "app_user", "saved_cart", "ingestion_run",
}

// Config controls the startup manager.
type Config struct {
	// AutoImport authorizes a full ingestion pass when the store
	// looks empty.
	AutoImport bool
	// Testing suppresses startup-time schema creation.
	Testing bool
}

// Manager runs the boot-time health probe and conditional bootstrap.
type Manager struct {
	store    store.Store
	adapters map[adapterconfig.ChainID]base.ChainAdapter
	importer *importer.Importer
	cfg      Config
}

// New builds a Manager.
func New(s store.Store, adapters map[adapterconfig.ChainID]base.ChainAdapter, im *importer.Importer, cfg Config) *Manager {
	return &Manager{store: s, adapters: adapters, importer: im, cfg: cfg}
}

// Run executes the boot sequence.
func (m *Manager) Run(ctx context.Context) error {
	missing, err := m.missingTables(ctx)
	if err != nil {
		return fmt.Errorf("startup: probe tables: %w", err)
	}

	if len(missing) > 0 {
		if m.cfg.Testing {
			log.Warn().Strs("missing_tables", missing).Msg("schema incomplete but TESTING=true suppresses migration")
			return nil
		} else {
			log.Info().Strs("missing_tables", missing).Msg("running schema migration")
			if err := m.store.Migrate(ctx); err != nil {
				return fmt.Errorf("startup: migrate: %w", err)
			}
		}
	}

	counts, err := m.store.Counts(ctx)
	if err != nil {
		return fmt.Errorf("startup: counts: %w", err)
	}

	looksEmpty := counts.Chains < 2 || counts.Branches == 0 || counts.ChainProducts == 0
	if looksEmpty && m.cfg.AutoImport {
		if err := m.runFullImport(ctx); err != nil {
			log.Error().Err(err).Msg("startup ingestion pass failed")
		}
		counts, err = m.store.Counts(ctx)
		if err != nil {
			return fmt.Errorf("startup: counts after import: %w", err)
		}
	}

	log.Info().
		Int64("chains", counts.Chains).
		Int64("branches", counts.Branches).
		Int64("chain_products", counts.ChainProducts).
		Int64("branch_prices", counts.BranchPrices).
		Int64("users", counts.Users).
		Int64("saved_carts", counts.SavedCarts).
		Int64("ingestion_runs", counts.IngestionRuns).
		Msg("startup summary")

	return nil
}

func (m *Manager) missingTables(ctx context.Context) ([]string, error) {
	var missing []string
	for _, table := range requiredTables {
		exists, err := m.store.TableExists(ctx, table)
		if err != nil {
			return nil, err
		}
		if !exists {
			missing = append(missing, table)
		}
	}
	return missing, nil
}

func (m *Manager) runFullImport(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for id, adapter := range m.adapters {
		id, adapter := id, adapter
		g.Go(func() error {
			summary, err := m.importer.ImportChain(gctx, id, adapter)
			if err != nil {
				return fmt.Errorf("chain %s: %w", id, err)
			}
			log.Info().
				Str("chain", string(id)).
				Int("products_created", summary.ProductsCreated).
				Int("prices_created", summary.PricesCreated).
				Int("errors", summary.Errors).
				Msg("chain ingestion complete")
			return nil
		})
	}
	return g.Wait()
}
