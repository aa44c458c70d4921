// Package pgstore is the networked backend: jackc/pgx/v5 pgxpool
// against a Postgres-compatible engine, using named sequences instead
// of native AUTOINCREMENT. DateStyle is set at pool construction.
package pgstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chainwatch/price-compare/internal/store"
	"github.com/chainwatch/price-compare/internal/types"
)

const schema = `
CREATE SEQUENCE IF NOT EXISTS chain_id_seq;
CREATE SEQUENCE IF NOT EXISTS branch_id_seq;
CREATE SEQUENCE IF NOT EXISTS chain_product_id_seq;
CREATE SEQUENCE IF NOT EXISTS price_id_seq;
CREATE SEQUENCE IF NOT EXISTS user_id_seq;
CREATE SEQUENCE IF NOT EXISTS cart_id_seq;
CREATE SEQUENCE IF NOT EXISTS ingestion_run_id_seq;

CREATE TABLE IF NOT EXISTS chain (
	chain_id BIGINT PRIMARY KEY DEFAULT nextval('chain_id_seq'),
	name TEXT UNIQUE NOT NULL,
	display_name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS branch (
	branch_id BIGINT PRIMARY KEY DEFAULT nextval('branch_id_seq'),
	chain_id BIGINT NOT NULL REFERENCES chain(chain_id) ON DELETE CASCADE,
	store_id TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	UNIQUE(chain_id, store_id)
);
CREATE INDEX IF NOT EXISTS idx_branch_chain_city ON branch(chain_id, city);
CREATE TABLE IF NOT EXISTS chain_product (
	chain_product_id BIGINT PRIMARY KEY DEFAULT nextval('chain_product_id_seq'),
	chain_id BIGINT NOT NULL REFERENCES chain(chain_id) ON DELETE CASCADE,
	barcode TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	UNIQUE(chain_id, barcode)
);
CREATE INDEX IF NOT EXISTS idx_chain_product_name ON chain_product(name);
CREATE TABLE IF NOT EXISTS branch_price (
	price_id BIGINT PRIMARY KEY DEFAULT nextval('price_id_seq'),
	chain_product_id BIGINT NOT NULL REFERENCES chain_product(chain_product_id) ON DELETE CASCADE,
	branch_id BIGINT NOT NULL REFERENCES branch(branch_id) ON DELETE CASCADE,
	price NUMERIC(12,2) NOT NULL,
	last_updated TIMESTAMPTZ NOT NULL,
	UNIQUE(chain_product_id, branch_id)
);
CREATE INDEX IF NOT EXISTS idx_branch_price_branch ON branch_price(branch_id);
CREATE INDEX IF NOT EXISTS idx_branch_price_last_updated ON branch_price(last_updated);
CREATE TABLE IF NOT EXISTS app_user (
	user_id BIGINT PRIMARY KEY DEFAULT nextval('user_id_seq'),
	email TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS saved_cart (
	cart_id BIGINT PRIMARY KEY DEFAULT nextval('cart_id_seq'),
	user_id BIGINT NOT NULL REFERENCES app_user(user_id) ON DELETE CASCADE,
	cart_name TEXT NOT NULL,
	city TEXT NOT NULL DEFAULT '',
	items TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE(user_id, cart_name)
);
CREATE TABLE IF NOT EXISTS ingestion_run (
	run_id BIGINT PRIMARY KEY DEFAULT nextval('ingestion_run_id_seq'),
	chain_id BIGINT NOT NULL REFERENCES chain(chain_id),
	started_at TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ,
	files_processed INT NOT NULL DEFAULT 0,
	error_count INT NOT NULL DEFAULT 0
);
`

var sequenceNames = map[types.SequenceKind]string{
	types.SeqUser:         "user_id_seq",
	types.SeqChain:        "chain_id_seq",
	types.SeqBranch:       "branch_id_seq",
	types.SeqChainProduct: "chain_product_id_seq",
	types.SeqPrice:        "price_id_seq",
	types.SeqCart:         "cart_id_seq",
	types.SeqIngestionRun: "ingestion_run_id_seq",
}

// Store is the networked pgstore.Store implementation.
type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

// Config controls pool construction.
type Config struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	// DateStyle sets the session's date parsing/formatting style,
	// pinned at construction rather than left to per-connection
	// defaults.
	DateStyle string
}

// DefaultConfig returns reasonable pool defaults for a single service instance.
func DefaultConfig() Config {
	return Config{
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
		DateStyle:       "ISO, MDY",
	}
}

// Open creates the connection pool and pings it.
func Open(ctx context.Context, connString string, cfg Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("pgstore: parse config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = time.Minute

	if cfg.DateStyle != "" {
		dateStyle := cfg.DateStyle
		poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, fmt.Sprintf("SET DateStyle = '%s'", dateStyle))
			return err
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pgstore: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("pgstore: migrate: %w", err)
	}
	for _, c := range store.SeededChains {
		if _, err := s.pool.Exec(ctx,
			`INSERT INTO chain (name, display_name) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
			c.Name, c.DisplayName); err != nil {
			return fmt.Errorf("pgstore: seed chain %s: %w", c.Name, err)
		}
	}
	return nil
}

func (s *Store) TableExists(ctx context.Context, table string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, table).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("pgstore: table_exists %s: %w", table, err)
	}
	return exists, nil
}

func (s *Store) Counts(ctx context.Context) (store.TableCounts, error) {
	var c store.TableCounts
	for table, dst := range map[string]*int64{
		"chain":         &c.Chains,
		"branch":        &c.Branches,
		"chain_product": &c.ChainProducts,
		"branch_price":  &c.BranchPrices,
		"app_user":      &c.Users,
		"saved_cart":    &c.SavedCarts,
		"ingestion_run": &c.IngestionRuns,
	} {
		if err := s.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(dst); err != nil {
			return c, fmt.Errorf("pgstore: count %s: %w", table, err)
		}
	}
	return c, nil
}

// AllocateNextID issues SELECT nextval($1) against the named sequence
// for kind.
func (s *Store) AllocateNextID(ctx context.Context, kind types.SequenceKind) (int64, error) {
	seq, ok := sequenceNames[kind]
	if !ok {
		return 0, fmt.Errorf("pgstore: unknown sequence kind %q", kind)
	}
	var id int64
	if err := s.pool.QueryRow(ctx, `SELECT nextval($1)`, seq).Scan(&id); err != nil {
		return 0, fmt.Errorf("pgstore: nextval(%s): %w", seq, err)
	}
	return id, nil
}

func (s *Store) ChainByTag(ctx context.Context, tag string) (store.Chain, bool, error) {
	var c store.Chain
	err := s.pool.QueryRow(ctx,
		`SELECT chain_id, name, display_name FROM chain WHERE name = $1`, strings.ToLower(tag)).
		Scan(&c.ChainID, &c.Name, &c.DisplayName)
	if err == pgx.ErrNoRows {
		return store.Chain{}, false, nil
	}
	if err != nil {
		return store.Chain{}, false, fmt.Errorf("pgstore: chain_by_tag %s: %w", tag, err)
	}
	return c, true, nil
}

func (s *Store) ListChains(ctx context.Context) ([]store.Chain, error) {
	rows, err := s.pool.Query(ctx, `SELECT chain_id, name, display_name FROM chain ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list_chains: %w", err)
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
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT city FROM branch WHERE city <> '' ORDER BY city`)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list_cities: %w", err)
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

func scanBranches(rows pgx.Rows) ([]store.Branch, error) {
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

// cityWhereClause implements the exact-match-first, substring-fallback
// city predicate: it probes for an exact match on the candidates and, only
// if that probe finds nothing, widens to a case-insensitive substring match
// in both directions. Mirrors the original service's _get_branches_in_city,
// which tries db.query(Branch.city == city) before ever falling back to
// the ilike/contains query. startAt is the first $N placeholder the
// returned clause may use, since callers embed it inside a larger query
// that may already have consumed earlier placeholder numbers.
func (s *Store) cityWhereClause(ctx context.Context, candidates []string, startAt int) (string, []interface{}, error) {
	exact, err := s.cityMatchesExact(ctx, candidates)
	if err != nil {
		return "", nil, err
	}
	if exact {
		clause, args := cityExactClause(candidates, startAt)
		return clause, args, nil
	}
	clause, args := citySubstringClause(candidates, startAt)
	return clause, args, nil
}

// cityMatchesExact runs the exact-match probe on its own $1-based
// placeholder numbering, independent of whatever startAt the caller's
// outer query will eventually use for the real clause.
func (s *Store) cityMatchesExact(ctx context.Context, candidates []string) (bool, error) {
	clause, args := cityExactClause(candidates, 1)
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(1) FROM branch WHERE `+clause, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("pgstore: city_exact_probe: %w", err)
	}
	return n > 0, nil
}

func cityExactClause(candidates []string, startAt int) (string, []interface{}) {
	var parts []string
	var args []interface{}
	n := startAt
	for _, c := range candidates {
		parts = append(parts, fmt.Sprintf("city = $%d", n))
		args = append(args, c)
		n++
	}
	return strings.Join(parts, " OR "), args
}

func citySubstringClause(candidates []string, startAt int) (string, []interface{}) {
	var parts []string
	var args []interface{}
	n := startAt
	for _, c := range candidates {
		parts = append(parts, fmt.Sprintf("city ILIKE $%d OR $%d ILIKE ('%%' || city || '%%')", n, n+1))
		args = append(args, "%"+c+"%", c)
		n += 2
	}
	return strings.Join(parts, " OR "), args
}

func (s *Store) BranchesByChainAndCity(ctx context.Context, chainID int64, cityCandidates []string) ([]store.Branch, error) {
	if len(cityCandidates) == 0 {
		return nil, nil
	}
	clause, args, err := s.cityWhereClause(ctx, cityCandidates, 2)
	if err != nil {
		return nil, err
	}
	args = append([]interface{}{chainID}, args...)
	rows, err := s.pool.Query(ctx,
		`SELECT branch_id, chain_id, store_id, name, address, city FROM branch WHERE chain_id = $1 AND (`+clause+`)`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("pgstore: branches_by_chain_and_city: %w", err)
	}
	return scanBranches(rows)
}

func (s *Store) BranchesByCity(ctx context.Context, cityCandidates []string) ([]store.Branch, error) {
	if len(cityCandidates) == 0 {
		return nil, nil
	}
	clause, args, err := s.cityWhereClause(ctx, cityCandidates, 1)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT branch_id, chain_id, store_id, name, address, city FROM branch WHERE `+clause,
		args...)
	if err != nil {
		return nil, fmt.Errorf("pgstore: branches_by_city: %w", err)
	}
	return scanBranches(rows)
}

func (s *Store) UpsertBranch(ctx context.Context, chainID int64, rec types.StoreRecord) (store.UpsertBranchResult, error) {
	var existing int64
	err := s.pool.QueryRow(ctx,
		`SELECT branch_id FROM branch WHERE chain_id = $1 AND store_id = $2`, chainID, rec.StoreID).Scan(&existing)
	if err == pgx.ErrNoRows {
		var id int64
		if err := s.pool.QueryRow(ctx,
			`INSERT INTO branch (chain_id, store_id, name, address, city) VALUES ($1, $2, $3, $4, $5) RETURNING branch_id`,
			chainID, rec.StoreID, rec.Name, rec.Address, rec.City).Scan(&id); err != nil {
			return store.UpsertBranchResult{}, fmt.Errorf("pgstore: insert branch: %w", err)
		}
		return store.UpsertBranchResult{BranchID: id, Created: true}, nil
	}
	if err != nil {
		return store.UpsertBranchResult{}, fmt.Errorf("pgstore: lookup branch: %w", err)
	}
	if _, err := s.pool.Exec(ctx,
		`UPDATE branch SET name = $1, address = $2, city = $3 WHERE branch_id = $4`,
		rec.Name, rec.Address, rec.City, existing); err != nil {
		return store.UpsertBranchResult{}, fmt.Errorf("pgstore: update branch: %w", err)
	}
	return store.UpsertBranchResult{BranchID: existing, Created: false}, nil
}

func (s *Store) UpsertChainProduct(ctx context.Context, chainID int64, barcode, name string, preferLonger bool) (store.UpsertChainProductResult, error) {
	var existingID int64
	var existingName string
	err := s.pool.QueryRow(ctx,
		`SELECT chain_product_id, name FROM chain_product WHERE chain_id = $1 AND barcode = $2`,
		chainID, barcode).Scan(&existingID, &existingName)
	if err == pgx.ErrNoRows {
		var id int64
		if err := s.pool.QueryRow(ctx,
			`INSERT INTO chain_product (chain_id, barcode, name) VALUES ($1, $2, $3) RETURNING chain_product_id`,
			chainID, barcode, name).Scan(&id); err != nil {
			return store.UpsertChainProductResult{}, fmt.Errorf("pgstore: insert chain_product: %w", err)
		}
		return store.UpsertChainProductResult{ChainProductID: id, Created: true}, nil
	}
	if err != nil {
		return store.UpsertChainProductResult{}, fmt.Errorf("pgstore: lookup chain_product: %w", err)
	}
	if preferLonger && len(name) > len(existingName) {
		if _, err := s.pool.Exec(ctx,
			`UPDATE chain_product SET name = $1 WHERE chain_product_id = $2`, name, existingID); err != nil {
			return store.UpsertChainProductResult{}, fmt.Errorf("pgstore: update chain_product: %w", err)
		}
	}
	return store.UpsertChainProductResult{ChainProductID: existingID, Created: false}, nil
}

func (s *Store) UpsertBranchPrice(ctx context.Context, chainProductID, branchID int64, price float64, now time.Time) (store.UpsertBranchPriceResult, error) {
	var existingID int64
	var existingPrice float64
	err := s.pool.QueryRow(ctx,
		`SELECT price_id, price FROM branch_price WHERE chain_product_id = $1 AND branch_id = $2`,
		chainProductID, branchID).Scan(&existingID, &existingPrice)
	if err == pgx.ErrNoRows {
		var id int64
		if err := s.pool.QueryRow(ctx,
			`INSERT INTO branch_price (chain_product_id, branch_id, price, last_updated) VALUES ($1, $2, $3, $4) RETURNING price_id`,
			chainProductID, branchID, price, now.UTC()).Scan(&id); err != nil {
			return store.UpsertBranchPriceResult{}, fmt.Errorf("pgstore: insert branch_price: %w", err)
		}
		return store.UpsertBranchPriceResult{PriceID: id, Created: true, Changed: true}, nil
	}
	if err != nil {
		return store.UpsertBranchPriceResult{}, fmt.Errorf("pgstore: lookup branch_price: %w", err)
	}
	if existingPrice == price {
		return store.UpsertBranchPriceResult{PriceID: existingID, Created: false, Changed: false}, nil
	}
	if _, err := s.pool.Exec(ctx,
		`UPDATE branch_price SET price = $1, last_updated = $2 WHERE price_id = $3`,
		price, now.UTC(), existingID); err != nil {
		return store.UpsertBranchPriceResult{}, fmt.Errorf("pgstore: update branch_price: %w", err)
	}
	return store.UpsertBranchPriceResult{PriceID: existingID, Created: false, Changed: true}, nil
}

func (s *Store) BranchPriceLookup(ctx context.Context, chainID int64, barcode string, branchID int64) (store.BranchPriceWithProduct, bool, error) {
	var r store.BranchPriceWithProduct
	err := s.pool.QueryRow(ctx, `
		SELECT cp.chain_product_id, cp.chain_id, cp.barcode, cp.name,
		       b.branch_id, b.name, b.city, bp.price, bp.last_updated
		FROM branch_price bp
		JOIN chain_product cp ON cp.chain_product_id = bp.chain_product_id
		JOIN branch b ON b.branch_id = bp.branch_id
		WHERE cp.chain_id = $1 AND cp.barcode = $2 AND bp.branch_id = $3`,
		chainID, barcode, branchID).
		Scan(&r.ChainProductID, &r.ChainID, &r.Barcode, &r.ProductName,
			&r.BranchID, &r.BranchName, &r.City, &r.Price, &r.LastUpdated)
	if err == pgx.ErrNoRows {
		return store.BranchPriceWithProduct{}, false, nil
	}
	if err != nil {
		return store.BranchPriceWithProduct{}, false, fmt.Errorf("pgstore: branch_price_lookup: %w", err)
	}
	return r, true, nil
}

func (s *Store) SearchProducts(ctx context.Context, query string, cityCandidates []string) ([]store.BranchPriceWithProduct, error) {
	if len(cityCandidates) == 0 {
		return nil, nil
	}
	clause, args, err := s.cityWhereClause(ctx, cityCandidates, 2)
	if err != nil {
		return nil, err
	}
	args = append([]interface{}{"%" + query + "%"}, args...)
	rows, err := s.pool.Query(ctx, `
		SELECT cp.chain_product_id, cp.chain_id, cp.barcode, cp.name,
		       b.branch_id, b.name, b.city, bp.price, bp.last_updated
		FROM branch_price bp
		JOIN chain_product cp ON cp.chain_product_id = bp.chain_product_id
		JOIN branch b ON b.branch_id = bp.branch_id
		WHERE cp.name ILIKE $1 AND (`+clause+`)`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("pgstore: search_products: %w", err)
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
	var stats store.ProductStats
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(MIN(bp.price), 0), COALESCE(MAX(bp.price), 0), COALESCE(AVG(bp.price), 0), COUNT(*)
		FROM branch_price bp
		JOIN chain_product cp ON cp.chain_product_id = bp.chain_product_id
		WHERE cp.barcode = $1 AND bp.branch_id = ANY($2)`,
		barcode, branchIDs).Scan(&stats.Min, &stats.Max, &stats.Avg, &stats.Count)
	if err != nil {
		return store.ProductStats{}, fmt.Errorf("pgstore: product_stats: %w", err)
	}
	stats.StoreCount = int(stats.Count)
	return stats, nil
}

func (s *Store) RecordIngestionRun(ctx context.Context, chainID int64, startedAt time.Time) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO ingestion_run (chain_id, started_at) VALUES ($1, $2) RETURNING run_id`,
		chainID, startedAt.UTC()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("pgstore: record_ingestion_run: %w", err)
	}
	return id, nil
}

func (s *Store) CompleteIngestionRun(ctx context.Context, runID int64, completedAt time.Time, filesProcessed, errorCount int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE ingestion_run SET completed_at = $1, files_processed = $2, error_count = $3 WHERE run_id = $4`,
		completedAt.UTC(), filesProcessed, errorCount, runID)
	if err != nil {
		return fmt.Errorf("pgstore: complete_ingestion_run: %w", err)
	}
	return nil
}

func (s *Store) ListSavedCarts(ctx context.Context, userID int64) ([]store.SavedCart, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT cart_id, user_id, cart_name, city, items, created_at, updated_at FROM saved_cart WHERE user_id = $1 ORDER BY updated_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list_saved_carts: %w", err)
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
	err := s.pool.QueryRow(ctx,
		`SELECT cart_id, user_id, cart_name, city, items, created_at, updated_at FROM saved_cart WHERE user_id = $1 AND cart_id = $2`,
		userID, cartID).Scan(&c.CartID, &c.UserID, &c.CartName, &c.City, &c.ItemsJSON, &c.CreatedAt, &c.UpdatedAt)
	if err == pgx.ErrNoRows {
		return store.SavedCart{}, false, nil
	}
	if err != nil {
		return store.SavedCart{}, false, fmt.Errorf("pgstore: get_saved_cart: %w", err)
	}
	return c, true, nil
}

func (s *Store) SaveCart(ctx context.Context, userID int64, cartName, city, itemsJSON string, now time.Time) (store.SavedCart, error) {
	var existing int64
	err := s.pool.QueryRow(ctx,
		`SELECT cart_id FROM saved_cart WHERE user_id = $1 AND cart_name = $2`, userID, cartName).Scan(&existing)
	if err == pgx.ErrNoRows {
		var id int64
		if err := s.pool.QueryRow(ctx,
			`INSERT INTO saved_cart (user_id, cart_name, city, items, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $5) RETURNING cart_id`,
			userID, cartName, city, itemsJSON, now.UTC()).Scan(&id); err != nil {
			return store.SavedCart{}, fmt.Errorf("pgstore: insert saved_cart: %w", err)
		}
		return store.SavedCart{CartID: id, UserID: userID, CartName: cartName, City: city, ItemsJSON: itemsJSON, CreatedAt: now.UTC(), UpdatedAt: now.UTC()}, nil
	}
	if err != nil {
		return store.SavedCart{}, fmt.Errorf("pgstore: lookup saved_cart: %w", err)
	}
	if _, err := s.pool.Exec(ctx,
		`UPDATE saved_cart SET city = $1, items = $2, updated_at = $3 WHERE cart_id = $4`,
		city, itemsJSON, now.UTC(), existing); err != nil {
		return store.SavedCart{}, fmt.Errorf("pgstore: update saved_cart: %w", err)
	}
	c, _, err := s.GetSavedCart(ctx, userID, existing)
	return c, err
}

func (s *Store) DeleteSavedCart(ctx context.Context, userID, cartID int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM saved_cart WHERE user_id = $1 AND cart_id = $2`, userID, cartID)
	if err != nil {
		return fmt.Errorf("pgstore: delete_saved_cart: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &store.NotFoundError{Resource: "saved cart"}
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, email, passwordHash string, now time.Time) (store.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO app_user (email, password_hash, created_at) VALUES ($1, $2, $3) RETURNING user_id`,
		email, passwordHash, now.UTC()).Scan(&id)
	if err != nil {
		return store.User{}, fmt.Errorf("pgstore: create_user: %w", err)
	}
	return store.User{UserID: id, Email: email, PasswordHash: passwordHash, CreatedAt: now.UTC()}, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (store.User, bool, error) {
	var u store.User
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, email, password_hash, created_at FROM app_user WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email))).
		Scan(&u.UserID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == pgx.ErrNoRows {
		return store.User{}, false, nil
	}
	if err != nil {
		return store.User{}, false, fmt.Errorf("pgstore: user_by_email: %w", err)
	}
	return u, true, nil
}
