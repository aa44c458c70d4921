// Package importer runs the two-phase store-then-price orchestration
// of chain adapters and the fetcher into the data store.
package importer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rs/zerolog/log"

	"github.com/chainwatch/price-compare/internal/adapters/base"
	adapterconfig "github.com/chainwatch/price-compare/internal/adapters/config"
	"github.com/chainwatch/price-compare/internal/fetch"
	"github.com/chainwatch/price-compare/internal/store"
	"github.com/chainwatch/price-compare/internal/types"
)

// Config tunes importer behavior.
type Config struct {
	// PreferLongerNames makes the "longer name wins" ChainProduct
	// update heuristic a documented tunable rather than a silent
	// hard-code.
	PreferLongerNames bool
	// FileConcurrency bounds how many files within a phase are
	// fetched/parsed concurrently.
	FileConcurrency int
	// PriceFileLimit caps the number of price files processed per
	// chain, for bounded test/dev runs.
	PriceFileLimit int
}

// DefaultConfig returns the importer's documented default tuning.
func DefaultConfig() Config {
	return Config{PreferLongerNames: true, FileConcurrency: 4}
}

// Summary is the per-run counter set accumulated across one ingestion pass.
type Summary struct {
	ProductsCreated int
	ProductsUpdated int
	PricesCreated   int
	PricesUpdated   int
	BranchesSkipped int
	Errors          int
}

func (s *Summary) add(other Summary) {
	s.ProductsCreated += other.ProductsCreated
	s.ProductsUpdated += other.ProductsUpdated
	s.PricesCreated += other.PricesCreated
	s.PricesUpdated += other.PricesUpdated
	s.BranchesSkipped += other.BranchesSkipped
	s.Errors += other.Errors
}

// Importer drives one ingestion pass across chains. It owns its own
// fetch client, distinct from whatever client an adapter uses
// internally for HTML index scraping; the two are independent so an
// adapter can fetch its index pages with whatever client it needs.
type Importer struct {
	store  store.Store
	client *fetch.Client
	cfg    Config
}

// New builds an Importer against store s.
func New(s store.Store, client *fetch.Client, cfg Config) *Importer {
	return &Importer{store: s, client: client, cfg: cfg}
}

// ImportChain runs phase 1 then phase 2 for one chain, recording an
// ingestion_run row around the whole pass.
func (im *Importer) ImportChain(ctx context.Context, chainID adapterconfig.ChainID, adapter base.ChainAdapter) (Summary, error) {
	cfg, ok := adapterconfig.GetChainConfig(chainID)
	if !ok {
		return Summary{}, fmt.Errorf("importer: no config for chain %s", chainID)
	}
	chainRow, ok, err := im.store.ChainByTag(ctx, cfg.Name)
	if err != nil {
		return Summary{}, fmt.Errorf("importer: resolve chain %s: %w", cfg.Name, err)
	}
	if !ok {
		return Summary{}, fmt.Errorf("importer: chain %s not seeded", cfg.Name)
	}

	startedAt := time.Now().UTC()
	runID, err := im.store.RecordIngestionRun(ctx, chainRow.ChainID, startedAt)
	if err != nil {
		log.Warn().Err(err).Str("chain", cfg.Name).Msg("failed to record ingestion run, continuing without bookkeeping")
	}

	var summary Summary
	filesProcessed := 0

	branchMap, storesProcessed, err := im.importStores(ctx, chainRow.ChainID, adapter)
	filesProcessed += storesProcessed
	if err != nil {
		summary.Errors++
		log.Error().Err(err).Str("chain", cfg.Name).Msg("store phase failed")
	}

	priceSummary, pricesProcessed, err := im.importPrices(ctx, chainRow.ChainID, adapter, branchMap)
	filesProcessed += pricesProcessed
	summary.add(priceSummary)
	if err != nil {
		summary.Errors++
		log.Error().Err(err).Str("chain", cfg.Name).Msg("price phase failed")
	}

	if runID != 0 {
		if err := im.store.CompleteIngestionRun(ctx, runID, time.Now().UTC(), filesProcessed, summary.Errors); err != nil {
			log.Warn().Err(err).Str("chain", cfg.Name).Msg("failed to complete ingestion run row")
		}
	}

	return summary, nil
}

// importStores runs phase 1: fetch+parse every store file concurrently
// (bounded by FileConcurrency), upsert branches, and build the
// store_id -> branch_id map phase 2 needs.
func (im *Importer) importStores(ctx context.Context, chainID int64, adapter base.ChainAdapter) (map[string]int64, int, error) {
	urls, err := adapter.ListStoreFileURLs(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("list store file urls: %w", err)
	}

	branchMap := make(map[string]int64)
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.fileConcurrency())

	for _, u := range urls {
		u := u
		g.Go(func() error {
			data, err := im.client.GetBytes(gctx, u)
			if err != nil {
				log.Warn().Err(err).Str("url", u).Msg("failed to fetch stores file, skipping")
				return nil
			}
			records, err := adapter.ParseStores(data)
			if err != nil {
				log.Warn().Err(err).Str("url", u).Msg("failed to parse stores file, skipping")
				return nil
			}
			for _, rec := range records {
				res, err := im.store.UpsertBranch(gctx, chainID, rec)
				if err != nil {
					log.Warn().Err(err).Str("store_id", rec.StoreID).Msg("failed to upsert branch")
					continue
				}
				mu.Lock()
				branchMap[rec.StoreID] = res.BranchID
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return branchMap, len(urls), err
	}
	return branchMap, len(urls), nil
}

// importPrices runs phase 2: fetch+parse every price file, resolve
// branch ids via the phase-1 map, upsert chain products and prices
//. File count is capped by PriceFileLimit when set.
func (im *Importer) importPrices(ctx context.Context, chainID int64, adapter base.ChainAdapter, branchMap map[string]int64) (Summary, int, error) {
	urls, err := adapter.ListPriceFileURLs(ctx)
	if err != nil {
		return Summary{}, 0, fmt.Errorf("list price file urls: %w", err)
	}
	if im.cfg.PriceFileLimit > 0 && len(urls) > im.cfg.PriceFileLimit {
		urls = urls[:im.cfg.PriceFileLimit]
	}

	var mu sync.Mutex
	var total Summary
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.fileConcurrency())

	for _, u := range urls {
		u := u
		g.Go(func() error {
			data, err := im.client.GetBytes(gctx, u)
			if err != nil {
				log.Warn().Err(err).Str("url", u).Msg("failed to fetch prices file, skipping")
				return nil
			}
			records, err := adapter.ParsePrices(data)
			if err != nil {
				log.Warn().Err(err).Str("url", u).Msg("failed to parse prices file, skipping")
				return nil
			}

			fileSummary := im.applyPriceRecords(gctx, chainID, branchMap, records)
			mu.Lock()
			total.add(fileSummary)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return total, len(urls), err
	}
	return total, len(urls), nil
}

func (im *Importer) applyPriceRecords(ctx context.Context, chainID int64, branchMap map[string]int64, records []types.PriceRecord) Summary {
	var s Summary
	now := time.Now().UTC()
	for _, rec := range records {
		branchID, ok := branchMap[rec.StoreID]
		if !ok {
			s.BranchesSkipped++
			continue
		}

		productRes, err := im.store.UpsertChainProduct(ctx, chainID, rec.Barcode, rec.Name, im.cfg.PreferLongerNames)
		if err != nil {
			log.Warn().Err(err).Str("barcode", rec.Barcode).Msg("failed to upsert chain product")
			s.Errors++
			continue
		}
		if productRes.Created {
			s.ProductsCreated++
		} else {
			s.ProductsUpdated++
		}

		priceRes, err := im.store.UpsertBranchPrice(ctx, productRes.ChainProductID, branchID, rec.Price, now)
		if err != nil {
			log.Warn().Err(err).Str("barcode", rec.Barcode).Msg("failed to upsert branch price")
			s.Errors++
			continue
		}
		if priceRes.Created {
			s.PricesCreated++
		} else if priceRes.Changed {
			s.PricesUpdated++
		}
	}
	return s
}

func (im *Importer) fileConcurrency() int {
	if im.cfg.FileConcurrency > 0 {
		return im.cfg.FileConcurrency
	}
	return 4
}
