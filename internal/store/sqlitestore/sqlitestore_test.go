package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chainwatch/price-compare/internal/store"
	"github.com/chainwatch/price-compare/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(s.Close)
	return s
}

func TestMigrateSeedsChains(t *testing.T) {
	s := newTestStore(t)
	chains, err := s.ListChains(context.Background())
	require.NoError(t, err)
	require.Len(t, chains, 2)

	shufersal, ok, err := s.ChainByTag(context.Background(), "shufersal")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Shufersal", shufersal.DisplayName)
}

// TestUpsertBranchIdempotent verifies re-importing the same store
// record does not create a second branch row.
func TestUpsertBranchIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	chain, _, _ := s.ChainByTag(ctx, "shufersal")

	rec := types.StoreRecord{StoreID: "7", Name: "Tel Aviv", Address: "Dizengoff 1", City: "Tel Aviv"}
	first, err := s.UpsertBranch(ctx, chain.ChainID, rec)
	require.NoError(t, err)
	require.True(t, first.Created)

	rec.Name = "Tel Aviv Renamed"
	second, err := s.UpsertBranch(ctx, chain.ChainID, rec)
	require.NoError(t, err)
	require.False(t, second.Created)
	require.Equal(t, first.BranchID, second.BranchID)

	branches, err := s.BranchesByChainAndCity(ctx, chain.ChainID, []string{"Tel Aviv"})
	require.NoError(t, err)
	require.Len(t, branches, 1)
	require.Equal(t, "Tel Aviv Renamed", branches[0].Name)
}

// TestUpsertChainProductPreferLonger covers the "longer name wins"
// tunable: a shorter incoming name must not overwrite a
// longer stored name, but a longer incoming name should replace it.
func TestUpsertChainProductPreferLonger(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	chain, _, _ := s.ChainByTag(ctx, "shufersal")
	branch, err := s.UpsertBranch(ctx, chain.ChainID, types.StoreRecord{StoreID: "1", City: "Haifa"})
	require.NoError(t, err)

	first, err := s.UpsertChainProduct(ctx, chain.ChainID, "123", "Milk 1L Organic Farm", true)
	require.NoError(t, err)
	require.True(t, first.Created)
	_, err = s.UpsertBranchPrice(ctx, first.ChainProductID, branch.BranchID, 5.0, time.Now().UTC())
	require.NoError(t, err)

	second, err := s.UpsertChainProduct(ctx, chain.ChainID, "123", "Milk", true)
	require.NoError(t, err)
	require.False(t, second.Created)
	require.Equal(t, first.ChainProductID, second.ChainProductID)

	lookup, ok, err := s.BranchPriceLookup(ctx, chain.ChainID, "123", branch.BranchID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Milk 1L Organic Farm", lookup.ProductName, "a shorter incoming name must not overwrite the longer stored name")

	third, err := s.UpsertChainProduct(ctx, chain.ChainID, "123", "Milk 1L Organic Farm Extra Fresh", true)
	require.NoError(t, err)
	require.False(t, third.Created)

	lookup2, _, err := s.BranchPriceLookup(ctx, chain.ChainID, "123", branch.BranchID)
	require.NoError(t, err)
	require.Equal(t, "Milk 1L Organic Farm Extra Fresh", lookup2.ProductName, "a longer incoming name must replace the stored name")
}

// TestUpsertBranchPriceChangeDetection verifies an unchanged price is
// a no-op (Changed=false) that keeps the same row, and a changed price
// is reported as Changed and stored for the (chain_product, branch).
func TestUpsertBranchPriceChangeDetection(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	chain, _, _ := s.ChainByTag(ctx, "shufersal")

	branchRes, err := s.UpsertBranch(ctx, chain.ChainID, types.StoreRecord{StoreID: "1", City: "Haifa"})
	require.NoError(t, err)
	productRes, err := s.UpsertChainProduct(ctx, chain.ChainID, "999", "Bread", true)
	require.NoError(t, err)

	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	first, err := s.UpsertBranchPrice(ctx, productRes.ChainProductID, branchRes.BranchID, 5.0, t1)
	require.NoError(t, err)
	require.True(t, first.Created)
	require.True(t, first.Changed)

	t2 := t1.Add(24 * time.Hour)
	same, err := s.UpsertBranchPrice(ctx, productRes.ChainProductID, branchRes.BranchID, 5.0, t2)
	require.NoError(t, err)
	require.False(t, same.Created)
	require.False(t, same.Changed, "an unchanged price must not count as a change")
	require.Equal(t, first.PriceID, same.PriceID)

	t3 := t2.Add(24 * time.Hour)
	changed, err := s.UpsertBranchPrice(ctx, productRes.ChainProductID, branchRes.BranchID, 6.5, t3)
	require.NoError(t, err)
	require.False(t, changed.Created)
	require.True(t, changed.Changed)

	lookup, ok, err := s.BranchPriceLookup(ctx, chain.ChainID, "999", branchRes.BranchID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 6.5, lookup.Price)
}

// TestSaveCartInsertOrReplace verifies saving a cart under a name the
// user already used replaces it rather than creating a duplicate row.
func TestSaveCartInsertOrReplace(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	user, err := s.CreateUser(ctx, "shopper@example.com", "hash", time.Now().UTC())
	require.NoError(t, err)

	now := time.Now().UTC()
	first, err := s.SaveCart(ctx, user.UserID, "Weekly", "Haifa", `[{"barcode":"1","quantity":2}]`, now)
	require.NoError(t, err)

	second, err := s.SaveCart(ctx, user.UserID, "Weekly", "Haifa", `[{"barcode":"1","quantity":5}]`, now.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, first.CartID, second.CartID, "saving under the same name must replace, not duplicate")

	carts, err := s.ListSavedCarts(ctx, user.UserID)
	require.NoError(t, err)
	require.Len(t, carts, 1)
	require.Contains(t, carts[0].ItemsJSON, `"quantity":5`)
}

func TestDeleteSavedCartScopedToOwner(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	owner, _ := s.CreateUser(ctx, "owner@example.com", "hash", time.Now().UTC())
	other, _ := s.CreateUser(ctx, "other@example.com", "hash", time.Now().UTC())

	saved, err := s.SaveCart(ctx, owner.UserID, "Weekly", "Haifa", `[]`, time.Now().UTC())
	require.NoError(t, err)

	err = s.DeleteSavedCart(ctx, other.UserID, saved.CartID)
	var notFound *store.NotFoundError
	require.ErrorAs(t, err, &notFound, "deleting as a non-owner must report not found")

	_, ok, err := s.GetSavedCart(ctx, owner.UserID, saved.CartID)
	require.NoError(t, err)
	require.True(t, ok, "deleting as a non-owner must not remove the cart")

	require.NoError(t, s.DeleteSavedCart(ctx, owner.UserID, saved.CartID))
	_, ok, err = s.GetSavedCart(ctx, owner.UserID, saved.CartID)
	require.NoError(t, err)
	require.False(t, ok)
}
