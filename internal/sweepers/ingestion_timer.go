// Package sweepers runs background maintenance loops. The only one
// this service needs is a recurring ingestion timer that re-drives
// the importer on a fixed schedule, so newly published price files
// get picked up without a restart.
package sweepers

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/chainwatch/price-compare/internal/adapters/base"
	adapterconfig "github.com/chainwatch/price-compare/internal/adapters/config"
	"github.com/chainwatch/price-compare/internal/importer"
)

// IngestionTimer periodically re-runs ingestion for every registered
// chain adapter, on a ticker, until stopped.
type IngestionTimer struct {
	importer *importer.Importer
	adapters map[adapterconfig.ChainID]base.ChainAdapter
	logger   *zerolog.Logger
	interval time.Duration
	stopChan chan struct{}
}

// NewIngestionTimer builds a timer over the given adapters.
func NewIngestionTimer(im *importer.Importer, adapters map[adapterconfig.ChainID]base.ChainAdapter, logger *zerolog.Logger, interval time.Duration) *IngestionTimer {
	return &IngestionTimer{
		importer: im,
		adapters: adapters,
		logger:   logger,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start runs the ticker loop until ctx is cancelled or Stop is called.
func (t *IngestionTimer) Start(ctx context.Context) {
	t.logger.Info().Dur("interval", t.interval).Msg("starting ingestion timer")

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("ingestion timer stopping (context cancelled)")
			return
		case <-t.stopChan:
			t.logger.Info().Msg("ingestion timer stopping (stop signal)")
			return
		case <-ticker.C:
			if err := t.runOnce(ctx); err != nil {
				t.logger.Error().Err(err).Msg("scheduled ingestion pass failed")
			}
		}
	}
}

// Stop signals the timer to stop.
func (t *IngestionTimer) Stop() {
	close(t.stopChan)
}

func (t *IngestionTimer) runOnce(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for id, adapter := range t.adapters {
		id, adapter := id, adapter
		g.Go(func() error {
			summary, err := t.importer.ImportChain(gctx, id, adapter)
			if err != nil {
				t.logger.Error().Err(err).Str("chain", string(id)).Msg("scheduled chain ingestion failed")
				return nil
			}
			t.logger.Info().
				Str("chain", string(id)).
				Int("products_created", summary.ProductsCreated).
				Int("prices_updated", summary.PricesUpdated).
				Msg("scheduled chain ingestion complete")
			return nil
		})
	}
	return g.Wait()
}
