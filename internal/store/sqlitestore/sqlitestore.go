// Package sqlitestore is the embedded backend: a single-file SQLite
// database accessed through database/sql with a pool capped at one
// connection, AUTOINCREMENT primary keys, and no explicit sequences
//.
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/chainwatch/price-compare/internal/store"
	"github.com/chainwatch/price-compare/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS chain (
	chain_id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL,
	display_name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS branch (
	branch_id INTEGER PRIMARY KEY AUTOINCREMENT,
	chain_id INTEGER NOT NULL REFERENCES chain(chain_id) ON DELETE CASCADE,
	store_id TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	UNIQUE(chain_id, store_id)
);
CREATE INDEX IF NOT EXISTS idx_branch_chain_city ON branch(chain_id, city);
CREATE TABLE IF NOT EXISTS chain_product (
	chain_product_id INTEGER PRIMARY KEY AUTOINCREMENT,
	chain_id INTEGER NOT NULL REFERENCES chain(chain_id) ON DELETE CASCADE,
	barcode TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	UNIQUE(chain_id, barcode)
);
CREATE INDEX IF NOT EXISTS idx_chain_product_name ON chain_product(name);
CREATE TABLE IF NOT EXISTS branch_price (
	price_id INTEGER PRIMARY KEY AUTOINCREMENT,
	chain_product_id INTEGER NOT NULL REFERENCES chain_product(chain_product_id) ON DELETE CASCADE,
	branch_id INTEGER NOT NULL REFERENCES branch(branch_id) ON DELETE CASCADE,
	price REAL NOT NULL,
	last_updated TIMESTAMP NOT NULL,
	UNIQUE(chain_product_id, branch_id)
);
CREATE INDEX IF NOT EXISTS idx_branch_price_branch ON branch_price(branch_id);
CREATE INDEX IF NOT EXISTS idx_branch_price_last_updated ON branch_price(last_updated);
CREATE TABLE IF NOT EXISTS app_user (
	user_id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS saved_cart (
	cart_id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES app_user(user_id) ON DELETE CASCADE,
	cart_name TEXT NOT NULL,
	city TEXT NOT NULL DEFAULT '',
	items TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	UNIQUE(user_id, cart_name)
);
CREATE TABLE IF NOT EXISTS ingestion_run (
	run_id INTEGER PRIMARY KEY AUTOINCREMENT,
	chain_id INTEGER NOT NULL REFERENCES chain(chain_id),
	started_at TIMESTAMP NOT NULL,
	completed_at TIMESTAMP,
	files_processed INTEGER NOT NULL DEFAULT 0,
	error_count INTEGER NOT NULL DEFAULT 0
);
`

// Store is the embedded sqlitestore.Store implementation.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open opens (creating if absent) the SQLite file at path and caps the
// pool at a single connection, since SQLite's writer lock makes a
// larger pool counterproductive for an embedded file.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", path))
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

func (s *Store) Close() {
	s.db.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlitestore: migrate: %w", err)
	}
	for _, c := range store.SeededChains {
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO chain (name, display_name) VALUES (?, ?)`,
			c.Name, c.DisplayName); err != nil {
			return fmt.Errorf("sqlitestore: seed chain %s: %w", c.Name, err)
		}
	}
	return nil
}

func (s *Store) TableExists(ctx context.Context, table string) (bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type='table' AND name = ?`, table).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlitestore: table_exists %s: %w", table, err)
	}
	return true, nil
}

func (s *Store) Counts(ctx context.Context) (store.TableCounts, error) {
	var c store.TableCounts
	for table, dst := range map[string]*int64{
		"chain":          &c.Chains,
		"branch":         &c.Branches,
		"chain_product":  &c.ChainProducts,
		"branch_price":   &c.BranchPrices,
		"app_user":       &c.Users,
		"saved_cart":     &c.SavedCarts,
		"ingestion_run":  &c.IngestionRuns,
	} {
		if err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(dst); err != nil {
			return c, fmt.Errorf("sqlitestore: count %s: %w", table, err)
		}
	}
	return c, nil
}

// AllocateNextID always returns an error on the embedded backend:
// AUTOINCREMENT assigns the id on insert, so this isn't used by the
// sqlitestore upsert paths, which rely on LastInsertId instead.
func (s *Store) AllocateNextID(ctx context.Context, kind types.SequenceKind) (int64, error) {
	return 0, fmt.Errorf("sqlitestore: AllocateNextID not used by the embedded backend (kind=%s)", kind)
}

func (s *Store) ChainByTag(ctx context.Context, tag string) (store.Chain, bool, error) {
	var c store.Chain
	err := s.db.QueryRowContext(ctx,
		`SELECT chain_id, name, display_name FROM chain WHERE name = ?`, strings.ToLower(tag)).
		Scan(&c.ChainID, &c.Name, &c.DisplayName)
	if err == sql.ErrNoRows {
		return store.Chain{}, false, nil
	}
	if err != nil {
		return store.Chain{}, false, fmt.Errorf("sqlitestore: chain_by_tag %s: %w", tag, err)
	}
	return c, true, nil
}

func (s *Store) ListChains(ctx context.Context) ([]store.Chain, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT chain_id, name, display_name FROM chain ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: list_chains: %w", err)
	}
	defer rows.Close()
	var out []store.Chain
	for rows.Next() {
		var c store.Chain
		if err := rows.Scan(&c.ChainID, &c.Name, &c.DisplayName); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ListCities(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT city FROM branch WHERE city <> '' ORDER BY city`)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: list_cities: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanBranches(rows *sql.Rows) ([]store.Branch, error) {
	defer rows.Close()
	var out []store.Branch
	for rows.Next() {
		var b store.Branch
		if err := rows.Scan(&b.BranchID, &b.ChainID, &b.StoreID, &b.Name, &b.Address, &b.City); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) BranchesByChainAndCity(ctx context.Context, chainID int64, cityCandidates []string) ([]store.Branch, error) {
	if len(cityCandidates) == 0 {
		return nil, nil
	}
	clause, args, err := s.cityWhereClause(ctx, cityCandidates)
	if err != nil {
		return nil, err
	}
	args = append([]interface{}{chainID}, args...)
	rows, err := s.db.QueryContext(ctx,
		`SELECT branch_id, chain_id, store_id, name, address, city FROM branch WHERE chain_id = ? AND (`+clause+`)`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: branches_by_chain_and_city: %w", err)
	}
	return scanBranches(rows)
}

func (s *Store) BranchesByCity(ctx context.Context, cityCandidates []string) ([]store.Branch, error) {
	if len(cityCandidates) == 0 {
		return nil, nil
	}
	clause, args, err := s.cityWhereClause(ctx, cityCandidates)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT branch_id, chain_id, store_id, name, address, city FROM branch WHERE `+clause,
		args...)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: branches_by_city: %w", err)
	}
	return scanBranches(rows)
}

// cityWhereClause implements the exact-match-first, substring-fallback
// city predicate: it probes for an exact match on the candidates and, only
// if that probe finds nothing, widens to a case-insensitive substring match
// in both directions. Mirrors the original service's _get_branches_in_city,
// which tries db.query(Branch.city == city) before ever falling back to
// the ilike/contains query.
func (s *Store) cityWhereClause(ctx context.Context, candidates []string) (string, []interface{}, error) {
	exactClause, exactArgs := cityExactClause(candidates)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM branch WHERE `+exactClause, exactArgs...).Scan(&n); err != nil {
		return "", nil, fmt.Errorf("sqlitestore: city_exact_probe: %w", err)
	}
	if n > 0 {
		return exactClause, exactArgs, nil
	}
	clause, args := citySubstringClause(candidates)
	return clause, args, nil
}

func cityExactClause(candidates []string) (string, []interface{}) {
	var parts []string
	var args []interface{}
	for _, c := range candidates {
		parts = append(parts, "city = ?")
		args = append(args, c)
	}
	return strings.Join(parts, " OR "), args
}

func citySubstringClause(candidates []string) (string, []interface{}) {
	var parts []string
	var args []interface{}
	for _, c := range candidates {
		parts = append(parts, "city LIKE ? OR ? LIKE ('%' || city || '%')")
		args = append(args, "%"+c+"%", c)
	}
	return strings.Join(parts, " OR "), args
}

func (s *Store) UpsertBranch(ctx context.Context, chainID int64, rec types.StoreRecord) (store.UpsertBranchResult, error) {
	var existing int64
	err := s.db.QueryRowContext(ctx,
		`SELECT branch_id FROM branch WHERE chain_id = ? AND store_id = ?`, chainID, rec.StoreID).Scan(&existing)
	if err == sql.ErrNoRows {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO branch (chain_id, store_id, name, address, city) VALUES (?, ?, ?, ?, ?)`,
			chainID, rec.StoreID, rec.Name, rec.Address, rec.City)
		if err != nil {
			return store.UpsertBranchResult{}, fmt.Errorf("sqlitestore: insert branch: %w", err)
		}
		id, _ := res.LastInsertId()
		return store.UpsertBranchResult{BranchID: id, Created: true}, nil
	}
	if err != nil {
		return store.UpsertBranchResult{}, fmt.Errorf("sqlitestore: lookup branch: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE branch SET name = ?, address = ?, city = ? WHERE branch_id = ?`,
		rec.Name, rec.Address, rec.City, existing); err != nil {
		return store.UpsertBranchResult{}, fmt.Errorf("sqlitestore: update branch: %w", err)
	}
	return store.UpsertBranchResult{BranchID: existing, Created: false}, nil
}

func (s *Store) UpsertChainProduct(ctx context.Context, chainID int64, barcode, name string, preferLonger bool) (store.UpsertChainProductResult, error) {
	var existingID int64
	var existingName string
	err := s.db.QueryRowContext(ctx,
		`SELECT chain_product_id, name FROM chain_product WHERE chain_id = ? AND barcode = ?`,
		chainID, barcode).Scan(&existingID, &existingName)
	if err == sql.ErrNoRows {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO chain_product (chain_id, barcode, name) VALUES (?, ?, ?)`,
			chainID, barcode, name)
		if err != nil {
			return store.UpsertChainProductResult{}, fmt.Errorf("sqlitestore: insert chain_product: %w", err)
		}
		id, _ := res.LastInsertId()
		return store.UpsertChainProductResult{ChainProductID: id, Created: true}, nil
	}
	if err != nil {
		return store.UpsertChainProductResult{}, fmt.Errorf("sqlitestore: lookup chain_product: %w", err)
	}
	if preferLonger && len(name) > len(existingName) {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE chain_product SET name = ? WHERE chain_product_id = ?`, name, existingID); err != nil {
			return store.UpsertChainProductResult{}, fmt.Errorf("sqlitestore: update chain_product: %w", err)
		}
	}
	return store.UpsertChainProductResult{ChainProductID: existingID, Created: false}, nil
}

func (s *Store) UpsertBranchPrice(ctx context.Context, chainProductID, branchID int64, price float64, now time.Time) (store.UpsertBranchPriceResult, error) {
	var existingID int64
	var existingPrice float64
	err := s.db.QueryRowContext(ctx,
		`SELECT price_id, price FROM branch_price WHERE chain_product_id = ? AND branch_id = ?`,
		chainProductID, branchID).Scan(&existingID, &existingPrice)
	if err == sql.ErrNoRows {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO branch_price (chain_product_id, branch_id, price, last_updated) VALUES (?, ?, ?, ?)`,
			chainProductID, branchID, price, now.UTC())
		if err != nil {
			return store.UpsertBranchPriceResult{}, fmt.Errorf("sqlitestore: insert branch_price: %w", err)
		}
		id, _ := res.LastInsertId()
		return store.UpsertBranchPriceResult{PriceID: id, Created: true, Changed: true}, nil
	}
	if err != nil {
		return store.UpsertBranchPriceResult{}, fmt.Errorf("sqlitestore: lookup branch_price: %w", err)
	}
	if existingPrice == price {
		return store.UpsertBranchPriceResult{PriceID: existingID, Created: false, Changed: false}, nil
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE branch_price SET price = ?, last_updated = ? WHERE price_id = ?`,
		price, now.UTC(), existingID); err != nil {
		return store.UpsertBranchPriceResult{}, fmt.Errorf("sqlitestore: update branch_price: %w", err)
	}
	return store.UpsertBranchPriceResult{PriceID: existingID, Created: false, Changed: true}, nil
}

func (s *Store) BranchPriceLookup(ctx context.Context, chainID int64, barcode string, branchID int64) (store.BranchPriceWithProduct, bool, error) {
	var r store.BranchPriceWithProduct
	err := s.db.QueryRowContext(ctx, `
		SELECT cp.chain_product_id, cp.chain_id, cp.barcode, cp.name,
		       b.branch_id, b.name, b.city, bp.price, bp.last_updated
		FROM branch_price bp
		JOIN chain_product cp ON cp.chain_product_id = bp.chain_product_id
		JOIN branch b ON b.branch_id = bp.branch_id
		WHERE cp.chain_id = ? AND cp.barcode = ? AND bp.branch_id = ?`,
		chainID, barcode, branchID).
		Scan(&r.ChainProductID, &r.ChainID, &r.Barcode, &r.ProductName,
			&r.BranchID, &r.BranchName, &r.City, &r.Price, &r.LastUpdated)
	if err == sql.ErrNoRows {
		return store.BranchPriceWithProduct{}, false, nil
	}
	if err != nil {
		return store.BranchPriceWithProduct{}, false, fmt.Errorf("sqlitestore: branch_price_lookup: %w", err)
	}
	return r, true, nil
}

func (s *Store) SearchProducts(ctx context.Context, query string, cityCandidates []string) ([]store.BranchPriceWithProduct, error) {
	if len(cityCandidates) == 0 {
		return nil, nil
	}
	clause, args, err := s.cityWhereClause(ctx, cityCandidates)
	if err != nil {
		return nil, err
	}
	args = append([]interface{}{"%" + query + "%"}, args...)
	rows, err := s.db.QueryContext(ctx, `
		SELECT cp.chain_product_id, cp.chain_id, cp.barcode, cp.name,
		       b.branch_id, b.name, b.city, bp.price, bp.last_updated
		FROM branch_price bp
		JOIN chain_product cp ON cp.chain_product_id = bp.chain_product_id
		JOIN branch b ON b.branch_id = bp.branch_id
		WHERE cp.name LIKE ? AND (`+clause+`)`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: search_products: %w", err)
	}
	defer rows.Close()
	var out []store.BranchPriceWithProduct
	for rows.Next() {
		var r store.BranchPriceWithProduct
		if err := rows.Scan(&r.ChainProductID, &r.ChainID, &r.Barcode, &r.ProductName,
			&r.BranchID, &r.BranchName, &r.City, &r.Price, &r.LastUpdated); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ProductStatsByBarcode(ctx context.Context, barcode string, branchIDs []int64) (store.ProductStats, error) {
	if len(branchIDs) == 0 {
		return store.ProductStats{}, nil
	}
	placeholders := make([]string, len(branchIDs))
	args := make([]interface{}, 0, len(branchIDs)+1)
	args = append(args, barcode)
	for i, id := range branchIDs {
		placeholders[i] = "?"
		args = append(args, id)
	}
	var stats store.ProductStats
	var avg sql.NullFloat64
	var min, max sql.NullFloat64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT MIN(bp.price), MAX(bp.price), AVG(bp.price), COUNT(*)
		FROM branch_price bp
		JOIN chain_product cp ON cp.chain_product_id = bp.chain_product_id
		WHERE cp.barcode = ? AND bp.branch_id IN (%s)`, strings.Join(placeholders, ",")),
		args...).Scan(&min, &max, &avg, &stats.Count)
	if err != nil {
		return store.ProductStats{}, fmt.Errorf("sqlitestore: product_stats: %w", err)
	}
	stats.Min, stats.Max, stats.Avg = min.Float64, max.Float64, avg.Float64
	stats.StoreCount = int(stats.Count)
	return stats, nil
}

func (s *Store) RecordIngestionRun(ctx context.Context, chainID int64, startedAt time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO ingestion_run (chain_id, started_at) VALUES (?, ?)`, chainID, startedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("sqlitestore: record_ingestion_run: %w", err)
	}
	return res.LastInsertId()
}

func (s *Store) CompleteIngestionRun(ctx context.Context, runID int64, completedAt time.Time, filesProcessed, errorCount int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE ingestion_run SET completed_at = ?, files_processed = ?, error_count = ? WHERE run_id = ?`,
		completedAt.UTC(), filesProcessed, errorCount, runID)
	if err != nil {
		return fmt.Errorf("sqlitestore: complete_ingestion_run: %w", err)
	}
	return nil
}

func (s *Store) ListSavedCarts(ctx context.Context, userID int64) ([]store.SavedCart, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cart_id, user_id, cart_name, city, items, created_at, updated_at FROM saved_cart WHERE user_id = ? ORDER BY updated_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: list_saved_carts: %w", err)
	}
	defer rows.Close()
	var out []store.SavedCart
	for rows.Next() {
		var c store.SavedCart
		if err := rows.Scan(&c.CartID, &c.UserID, &c.CartName, &c.City, &c.ItemsJSON, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetSavedCart(ctx context.Context, userID, cartID int64) (store.SavedCart, bool, error) {
	var c store.SavedCart
	err := s.db.QueryRowContext(ctx,
		`SELECT cart_id, user_id, cart_name, city, items, created_at, updated_at FROM saved_cart WHERE user_id = ? AND cart_id = ?`,
		userID, cartID).Scan(&c.CartID, &c.UserID, &c.CartName, &c.City, &c.ItemsJSON, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return store.SavedCart{}, false, nil
	}
	if err != nil {
		return store.SavedCart{}, false, fmt.Errorf("sqlitestore: get_saved_cart: %w", err)
	}
	return c, true, nil
}

func (s *Store) SaveCart(ctx context.Context, userID int64, cartName, city, itemsJSON string, now time.Time) (store.SavedCart, error) {
	var existing int64
	err := s.db.QueryRowContext(ctx,
		`SELECT cart_id FROM saved_cart WHERE user_id = ? AND cart_name = ?`, userID, cartName).Scan(&existing)
	if err == sql.ErrNoRows {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO saved_cart (user_id, cart_name, city, items, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			userID, cartName, city, itemsJSON, now.UTC(), now.UTC())
		if err != nil {
			return store.SavedCart{}, fmt.Errorf("sqlitestore: insert saved_cart: %w", err)
		}
		id, _ := res.LastInsertId()
		return store.SavedCart{CartID: id, UserID: userID, CartName: cartName, City: city, ItemsJSON: itemsJSON, CreatedAt: now.UTC(), UpdatedAt: now.UTC()}, nil
	}
	if err != nil {
		return store.SavedCart{}, fmt.Errorf("sqlitestore: lookup saved_cart: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE saved_cart SET city = ?, items = ?, updated_at = ? WHERE cart_id = ?`,
		city, itemsJSON, now.UTC(), existing); err != nil {
		return store.SavedCart{}, fmt.Errorf("sqlitestore: update saved_cart: %w", err)
	}
	c, _, err := s.GetSavedCart(ctx, userID, existing)
	return c, err
}

func (s *Store) DeleteSavedCart(ctx context.Context, userID, cartID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM saved_cart WHERE user_id = ? AND cart_id = ?`, userID, cartID)
	if err != nil {
		return fmt.Errorf("sqlitestore: delete_saved_cart: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return &store.NotFoundError{Resource: "saved cart"}
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, email, passwordHash string, now time.Time) (store.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO app_user (email, password_hash, created_at) VALUES (?, ?, ?)`,
		email, passwordHash, now.UTC())
	if err != nil {
		return store.User{}, fmt.Errorf("sqlitestore: create_user: %w", err)
	}
	id, _ := res.LastInsertId()
	return store.User{UserID: id, Email: email, PasswordHash: passwordHash, CreatedAt: now.UTC()}, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (store.User, bool, error) {
	var u store.User
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, email, password_hash, created_at FROM app_user WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email))).
		Scan(&u.UserID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return store.User{}, false, nil
	}
	if err != nil {
		return store.User{}, false, fmt.Errorf("sqlitestore: user_by_email: %w", err)
	}
	return u, true, nil
}

