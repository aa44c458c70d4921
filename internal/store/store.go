// Package store defines the data-store interface: the
// chain -> branch -> chain_product -> branch_price graph, plus the
// user/saved-cart/ingestion-run bookkeeping tables, behind a single
// interface that both the embedded (sqlitestore) and networked
// (pgstore) backends satisfy. Upper layers never see which backend is
// in use, nor how primary keys are assigned.
package store

import (
	"context"
	"time"

	"github.com/chainwatch/price-compare/internal/types"
)

// Chain is a retail brand seeded at schema creation.
type Chain struct {
	ChainID     int64
	Name        string
	DisplayName string
}

// Branch is a physical store belonging to a chain.
type Branch struct {
	BranchID int64
	ChainID  int64
	StoreID  string
	Name     string
	Address  string
	City     string
}

// ChainProduct is a (barcode, chain) pair.
type ChainProduct struct {
	ChainProductID int64
	ChainID        int64
	Barcode        string
	Name           string
}

// BranchPrice is the current observed price for a ChainProduct at a
// Branch.
type BranchPrice struct {
	PriceID        int64
	ChainProductID int64
	BranchID       int64
	Price          float64
	LastUpdated    time.Time
}

// BranchPriceWithProduct is the join the search/cart layers need:
// a price row plus the product and branch fields they're scoped by.
type BranchPriceWithProduct struct {
	ChainProductID int64
	ChainID        int64
	Barcode        string
	ProductName    string
	BranchID       int64
	BranchName     string
	City           string
	Price          float64
	LastUpdated    time.Time
}

// User is consumed only at the interface boundary, to key saved carts.
type User struct {
	UserID       int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// SavedCart is a JSON-serialized cart owned by a user.
type SavedCart struct {
	CartID    int64
	UserID    int64
	CartName  string
	City      string
	ItemsJSON string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IngestionRun is one row per ingestion pass per chain (supplemental
// bookkeeping table, not part of the six core entities).
type IngestionRun struct {
	RunID           int64
	ChainID         int64
	StartedAt       time.Time
	CompletedAt     *time.Time
	FilesProcessed  int
	ErrorCount      int
}

// TableCounts is the per-table row-count summary the startup manager
// emits on completion.
type TableCounts struct {
	Chains        int64
	Branches      int64
	ChainProducts int64
	BranchPrices  int64
	Users         int64
	SavedCarts    int64
	IngestionRuns int64
}

// UpsertBranchResult reports whether an upsert inserted or updated.
type UpsertBranchResult struct {
	BranchID int64
	Created  bool
}

// UpsertChainProductResult reports whether an upsert inserted or
// updated; it does not report whether an update replaced the stored
// name.
type UpsertChainProductResult struct {
	ChainProductID int64
	Created        bool
}

// UpsertBranchPriceResult reports insert/update and whether an update
// actually changed the price: an unchanged price must not refresh
// last_updated, and must not count as an update.
type UpsertBranchPriceResult struct {
	PriceID int64
	Created bool
	Changed bool
}

// Store is the uniform relational interface both backends implement.
// Each mutating method runs its statements as auto-committed calls on
// the pool; the interface has no method that groups several writes
// into one transaction.
type Store interface {
	// Migrate creates the schema and seeds the known chains if absent.
	Migrate(ctx context.Context) error

	// TableExists reports whether the named table is present (used by
	// the startup manager's health probe).
	TableExists(ctx context.Context, table string) (bool, error)

	// Counts returns a row-count summary across all tables.
	Counts(ctx context.Context) (TableCounts, error)

	// AllocateNextID returns the next value for the named sequence
	// kind. The embedded backend assigns ids through AUTOINCREMENT and
	// its AllocateNextID always returns an error.
	AllocateNextID(ctx context.Context, kind types.SequenceKind) (int64, error)

	// ChainByTag resolves a seeded chain by its short lowercase tag.
	ChainByTag(ctx context.Context, tag string) (Chain, bool, error)

	// ListChains returns every seeded chain.
	ListChains(ctx context.Context) ([]Chain, error)

	// ListCities returns the distinct set of Branch.city values, sorted.
	ListCities(ctx context.Context) ([]string, error)

	// BranchesByChainAndCity enumerates branches for a chain scoped to
	// a city, using the normalization rules of 4.E (callers pass the
	// already-normalized city candidates to match against).
	BranchesByChainAndCity(ctx context.Context, chainID int64, cityCandidates []string) ([]Branch, error)

	// BranchesByCity enumerates branches across all chains for a city.
	BranchesByCity(ctx context.Context, cityCandidates []string) ([]Branch, error)

	// UpsertBranch inserts or updates a Branch keyed by (chain_id, store_id).
	UpsertBranch(ctx context.Context, chainID int64, rec types.StoreRecord) (UpsertBranchResult, error)

	// UpsertChainProduct inserts or updates a ChainProduct keyed by
	// (chain_id, barcode); preferLonger implements the "longer name
	// wins" tunable.
	UpsertChainProduct(ctx context.Context, chainID int64, barcode, name string, preferLonger bool) (UpsertChainProductResult, error)

	// UpsertBranchPrice inserts or updates a BranchPrice keyed by
	// (chain_product_id, branch_id); an unchanged price is a no-op.
	UpsertBranchPrice(ctx context.Context, chainProductID, branchID int64, price float64, now time.Time) (UpsertBranchPriceResult, error)

	// BranchPriceLookup finds the (chain_product, price) pair for a
	// barcode at a specific branch.
	BranchPriceLookup(ctx context.Context, chainID int64, barcode string, branchID int64) (BranchPriceWithProduct, bool, error)

	// SearchProducts performs the case-insensitive substring match of
	// 4.E, scoped to the given city candidates, returning every
	// matching (product, branch, price) row for the caller to group.
	SearchProducts(ctx context.Context, query string, cityCandidates []string) ([]BranchPriceWithProduct, error)

	// ProductStatsByBarcode aggregates min/max/avg/count for a barcode
	// across the given branch ids.
	ProductStatsByBarcode(ctx context.Context, barcode string, branchIDs []int64) (ProductStats, error)

	// RecordIngestionRun inserts an ingestion_run row and returns its id.
	RecordIngestionRun(ctx context.Context, chainID int64, startedAt time.Time) (int64, error)

	// CompleteIngestionRun marks an ingestion_run row complete.
	CompleteIngestionRun(ctx context.Context, runID int64, completedAt time.Time, filesProcessed, errorCount int) error

	// ListSavedCarts returns every saved cart for a user.
	ListSavedCarts(ctx context.Context, userID int64) ([]SavedCart, error)

	// GetSavedCart fetches a single saved cart by id, scoped to its owner.
	GetSavedCart(ctx context.Context, userID, cartID int64) (SavedCart, bool, error)

	// SaveCart inserts or replaces a saved cart keyed by (user_id, cart_name).
	SaveCart(ctx context.Context, userID int64, cartName, city, itemsJSON string, now time.Time) (SavedCart, error)

	// DeleteSavedCart removes a saved cart scoped to its owner.
	DeleteSavedCart(ctx context.Context, userID, cartID int64) error

	// CreateUser inserts a new user row.
	CreateUser(ctx context.Context, email, passwordHash string, now time.Time) (User, error)

	// UserByEmail resolves a user by case-normalized email.
	UserByEmail(ctx context.Context, email string) (User, bool, error)

	// Close releases the underlying connection pool.
	Close()
}

// ProductStats is the 4.D aggregate query result.
type ProductStats struct {
	Min        float64
	Max        float64
	Avg        float64
	Count      int64
	StoreCount int
}

// ErrNotFound is returned by lookups that find nothing, where the
// caller distinguishes "no row" from a transport error via the bool
// return instead; kept for call sites that prefer an error value.
var ErrNotFound = &NotFoundError{}

// NotFoundError marks a not-found condition translated to 4xx at the
// API boundary.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return e.Resource + " not found"
}
