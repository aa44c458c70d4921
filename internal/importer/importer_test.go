package importer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	adapterconfig "github.com/chainwatch/price-compare/internal/adapters/config"
	"github.com/chainwatch/price-compare/internal/fetch"
	"github.com/chainwatch/price-compare/internal/fetch/ratelimit"
	"github.com/chainwatch/price-compare/internal/store/sqlitestore"
	"github.com/chainwatch/price-compare/internal/types"
)

// fakeAdapter is a minimal base.ChainAdapter stand-in so the importer
// can be exercised without a real chain portal: URLs point at an
// httptest server, and ParseStores/ParsePrices return canned records
// regardless of the fetched bytes.
type fakeAdapter struct {
	storeURLs []string
	priceURLs []string
	stores    []types.StoreRecord
	prices    []types.PriceRecord
}

func (a *fakeAdapter) Slug() string { return "shufersal" }
func (a *fakeAdapter) ListStoreFileURLs(ctx context.Context) ([]string, error) {
	return a.storeURLs, nil
}
func (a *fakeAdapter) ListPriceFileURLs(ctx context.Context) ([]string, error) {
	return a.priceURLs, nil
}
func (a *fakeAdapter) ParseStores(data []byte) ([]types.StoreRecord, error) { return a.stores, nil }
func (a *fakeAdapter) ParsePrices(data []byte) ([]types.PriceRecord, error) { return a.prices, nil }

func newTestStore(t *testing.T) *sqlitestore.Store {
	t.Helper()
	s, err := sqlitestore.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(s.Close)
	return s
}

func newTestClient() *fetch.Client {
	return fetch.NewClient(ratelimit.Config{RequestsPerSecond: 100, MaxRetries: 0, InitialBackoffMs: 1, MaxBackoffMs: 1}, 0)
}

// TestImportChainTwoPhaseOrdering verifies branches are resolved in
// phase 1 before phase 2 can attach prices to them, and a price
// record whose store id wasn't seen in phase 1 must be skipped
// rather than erroring the whole run.
func TestImportChainTwoPhaseOrdering(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ignored"))
	}))
	defer srv.Close()

	adapter := &fakeAdapter{
		storeURLs: []string{srv.URL + "/stores1"},
		priceURLs: []string{srv.URL + "/prices1"},
		stores: []types.StoreRecord{
			{StoreID: "1", Name: "Branch A", City: "Haifa"},
		},
		prices: []types.PriceRecord{
			{StoreID: "1", Barcode: "111", Name: "Milk", Price: 6.5},
			{StoreID: "999", Barcode: "222", Name: "Unknown Branch Product", Price: 3.0},
		},
	}

	s := newTestStore(t)
	im := New(s, newTestClient(), Config{PreferLongerNames: true, FileConcurrency: 2})

	summary, err := im.ImportChain(context.Background(), adapterconfig.ChainShufersal, adapter)
	require.NoError(t, err)
	require.Equal(t, 1, summary.ProductsCreated)
	require.Equal(t, 1, summary.PricesCreated)
	require.Equal(t, 1, summary.BranchesSkipped, "a price row for an unresolved store id must be skipped, not fail the run")
}

// TestImportChainIdempotentReimport verifies re-running an identical
// import does not create duplicate rows or spuriously count price
// updates for unchanged prices.
func TestImportChainIdempotentReimport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ignored"))
	}))
	defer srv.Close()

	adapter := &fakeAdapter{
		storeURLs: []string{srv.URL + "/stores1"},
		priceURLs: []string{srv.URL + "/prices1"},
		stores:    []types.StoreRecord{{StoreID: "1", Name: "Branch A", City: "Haifa"}},
		prices:    []types.PriceRecord{{StoreID: "1", Barcode: "111", Name: "Milk", Price: 6.5}},
	}

	s := newTestStore(t)
	im := New(s, newTestClient(), Config{PreferLongerNames: true, FileConcurrency: 2})

	first, err := im.ImportChain(context.Background(), adapterconfig.ChainShufersal, adapter)
	require.NoError(t, err)
	require.Equal(t, 1, first.PricesCreated)

	second, err := im.ImportChain(context.Background(), adapterconfig.ChainShufersal, adapter)
	require.NoError(t, err)
	require.Equal(t, 0, second.PricesCreated, "re-import with the same price must not create a new row")
	require.Equal(t, 0, second.PricesUpdated, "re-import with an unchanged price must not count as an update")

	counts, err := s.Counts(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), counts.BranchPrices)
	require.Equal(t, int64(1), counts.Branches)
}

// TestImportChainPriceFileLimit covers the PriceFileLimit tunable
//: only the first N price files are processed.
func TestImportChainPriceFileLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ignored"))
	}))
	defer srv.Close()

	adapter := &fakeAdapter{
		storeURLs: []string{srv.URL + "/stores1"},
		priceURLs: []string{srv.URL + "/p1", srv.URL + "/p2", srv.URL + "/p3"},
		stores:    []types.StoreRecord{{StoreID: "1", City: "Haifa"}},
		prices:    []types.PriceRecord{{StoreID: "1", Barcode: "111", Name: "Milk", Price: 6.5}},
	}

	s := newTestStore(t)
	im := New(s, newTestClient(), Config{PreferLongerNames: true, FileConcurrency: 2, PriceFileLimit: 1})

	summary, err := im.ImportChain(context.Background(), adapterconfig.ChainShufersal, adapter)
	require.NoError(t, err)
	require.Equal(t, 1, summary.PricesCreated, "only the first price file should be processed when capped")
}
