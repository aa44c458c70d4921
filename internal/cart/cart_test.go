package cart

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chainwatch/price-compare/internal/store/sqlitestore"
	"github.com/chainwatch/price-compare/internal/types"
)

func newSeededStore(t *testing.T) *sqlitestore.Store {
	t.Helper()
	s, err := sqlitestore.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(s.Close)
	return s
}

// seedBranch creates a branch under the shufersal chain and returns its id.
func seedBranch(t *testing.T, s *sqlitestore.Store, storeID, city string) int64 {
	t.Helper()
	chain, ok, err := s.ChainByTag(context.Background(), "shufersal")
	require.NoError(t, err)
	require.True(t, ok)
	res, err := s.UpsertBranch(context.Background(), chain.ChainID, types.StoreRecord{StoreID: storeID, Name: "Branch " + storeID, City: city})
	require.NoError(t, err)
	return res.BranchID
}

func seedPrice(t *testing.T, s *sqlitestore.Store, branchID int64, barcode, name string, price float64) {
	t.Helper()
	chain, _, _ := s.ChainByTag(context.Background(), "shufersal")
	prod, err := s.UpsertChainProduct(context.Background(), chain.ChainID, barcode, name, true)
	require.NoError(t, err)
	_, err = s.UpsertBranchPrice(context.Background(), prod.ChainProductID, branchID, price, time.Now().UTC())
	require.NoError(t, err)
}

// TestCompareCheapestStoreWins verifies that between two branches
// that both stock everything, the comparator picks the cheaper total.
func TestCompareCheapestStoreWins(t *testing.T) {
	s := newSeededStore(t)
	cheap := seedBranch(t, s, "1", "Haifa")
	pricey := seedBranch(t, s, "2", "Haifa")

	seedPrice(t, s, cheap, "111", "Milk", 5.0)
	seedPrice(t, s, cheap, "222", "Bread", 4.0)
	seedPrice(t, s, pricey, "111", "Milk", 6.0)
	seedPrice(t, s, pricey, "222", "Bread", 5.0)

	c := New(s)
	items := []Item{{Barcode: "111", Quantity: 1}, {Barcode: "222", Quantity: 1}}
	comparison, err := c.Compare(context.Background(), items, "Haifa")
	require.NoError(t, err)
	require.NotNil(t, comparison.CheapestStore)
	require.Equal(t, cheap, comparison.CheapestStore.BranchID)
	require.Equal(t, 9.0, comparison.CheapestStore.TotalPrice)
}

// TestCompareCompleteBasketPreferredOverPrice verifies a branch
// stocking every item outranks a cheaper-but-incomplete branch.
func TestCompareCompleteBasketPreferredOverPrice(t *testing.T) {
	s := newSeededStore(t)
	complete := seedBranch(t, s, "1", "Haifa")
	cheaperButIncomplete := seedBranch(t, s, "2", "Haifa")

	seedPrice(t, s, complete, "111", "Milk", 10.0)
	seedPrice(t, s, complete, "222", "Bread", 10.0)
	seedPrice(t, s, cheaperButIncomplete, "111", "Milk", 1.0)
	// cheaperButIncomplete never stocks barcode 222.

	c := New(s)
	items := []Item{{Barcode: "111", Quantity: 1}, {Barcode: "222", Quantity: 1}}
	comparison, err := c.Compare(context.Background(), items, "Haifa")
	require.NoError(t, err)
	require.NotNil(t, comparison.CheapestStore)
	require.Equal(t, complete, comparison.CheapestStore.BranchID, "completeness must outrank a lower total price")
}

// TestCompareMissingItemEverywhere verifies that when no branch in
// the city stocks an item, every branch result still reports it as
// missing rather than the whole comparison failing.
func TestCompareMissingItemEverywhere(t *testing.T) {
	s := newSeededStore(t)
	branch := seedBranch(t, s, "1", "Haifa")
	seedPrice(t, s, branch, "111", "Milk", 5.0)

	c := New(s)
	items := []Item{{Barcode: "111", Quantity: 1}, {Barcode: "999", Quantity: 1}}
	comparison, err := c.Compare(context.Background(), items, "Haifa")
	require.NoError(t, err)
	require.NotNil(t, comparison.CheapestStore)
	require.Equal(t, 1, comparison.CheapestStore.MissingItems)
	require.Equal(t, 1, comparison.CheapestStore.AvailableItems)
}

func TestCompareNoBranchesInCityReturnsNoCheapestStore(t *testing.T) {
	s := newSeededStore(t)
	c := New(s)
	comparison, err := c.Compare(context.Background(), []Item{{Barcode: "111", Quantity: 1}}, "Nowhere")
	require.NoError(t, err)
	require.Nil(t, comparison.CheapestStore)
	require.Empty(t, comparison.AllStores)
}

func TestCompareZeroQuantityItemDoesNotCountAsAvailable(t *testing.T) {
	s := newSeededStore(t)
	branch := seedBranch(t, s, "1", "Haifa")
	seedPrice(t, s, branch, "111", "Milk", 5.0)

	c := New(s)
	items := []Item{{Barcode: "111", Quantity: 0}}
	comparison, err := c.Compare(context.Background(), items, "Haifa")
	require.NoError(t, err)
	require.Nil(t, comparison.CheapestStore, "a zero-quantity-only cart has no priced contribution, so no branch qualifies")
}

// TestCompareZeroQuantityItemCountsAsMissingInMixedCart verifies that a
// zero-quantity item stocked at a branch alongside a priced item still
// lands in MissingItems, so AvailableItems+MissingItems == len(items)
// even when the branch actually stocks every barcode in the cart.
func TestCompareZeroQuantityItemCountsAsMissingInMixedCart(t *testing.T) {
	s := newSeededStore(t)
	branch := seedBranch(t, s, "1", "Haifa")
	seedPrice(t, s, branch, "111", "Milk", 5.0)
	seedPrice(t, s, branch, "222", "Bread", 4.0)

	c := New(s)
	items := []Item{{Barcode: "111", Quantity: 1}, {Barcode: "222", Quantity: 0}}
	comparison, err := c.Compare(context.Background(), items, "Haifa")
	require.NoError(t, err)
	require.NotNil(t, comparison.CheapestStore)
	require.Equal(t, 1, comparison.CheapestStore.AvailableItems)
	require.Equal(t, 1, comparison.CheapestStore.MissingItems)
	require.Equal(t, len(items), comparison.CheapestStore.AvailableItems+comparison.CheapestStore.MissingItems)
}

func TestCompareEmptyCityRejected(t *testing.T) {
	s := newSeededStore(t)
	c := New(s)
	_, err := c.Compare(context.Background(), []Item{{Barcode: "111", Quantity: 1}}, "")
	require.Error(t, err)
}
