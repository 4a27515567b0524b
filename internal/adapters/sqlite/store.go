package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"catalogsync/internal/domain"
	"catalogsync/internal/ports"

	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

// pairsPerStatement keeps a batch insert well under SQLite's bound-parameter limit
const pairsPerStatement = 400

// Store implements ports.PairTable using SQLite
type Store struct {
	db     *sql.DB
	dbPath string
}

// Ensure Store implements PairTable
var _ ports.PairTable = (*Store)(nil)

// NewStore creates a new, unopened pair store
func NewStore() *Store {
	return &Store{}
}

// Open opens (creating if needed) the pair database at path. An empty path
// selects the default location under the XDG data directory.
func (s *Store) Open(path string) error {
	path, err := expandHome(path)
	if err != nil {
		return err
	}
	if path == "" {
		path = defaultDatabasePath()
	}
	s.dbPath = path

	if err := os.MkdirAll(filepath.Dir(s.dbPath), 0755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	// Pragmas + schema in a single batch
	_, err = db.Exec(`
		PRAGMA synchronous = NORMAL;
		PRAGMA temp_store = MEMORY;

		CREATE TABLE IF NOT EXISTS sb_database (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		);
		CREATE TABLE IF NOT EXISTS sync_item (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			id_database INTEGER NOT NULL REFERENCES sb_database(id),
			id_item_type INTEGER NOT NULL,
			id_item INTEGER NOT NULL,
			UNIQUE (id_database, id_item_type, id_item)
		);
		CREATE TABLE IF NOT EXISTS sync_pair (
			id_sync_item_1 INTEGER NOT NULL REFERENCES sync_item(id),
			id_sync_item_2 INTEGER NOT NULL REFERENCES sync_item(id),
			PRIMARY KEY (id_sync_item_1, id_sync_item_2)
		);
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sync_pair_item_2 ON sync_pair(id_sync_item_2);
	`)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to setup database: %w", err)
	}

	if _, err := db.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)`, schemaVersion); err != nil {
		db.Close()
		return fmt.Errorf("failed to update metadata: %w", err)
	}

	return nil
}

// Path returns the database file in use
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CatalogID returns the id registered for a catalog name, creating it if absent
func (s *Store) CatalogID(ctx context.Context, name string) (domain.CatalogID, error) {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO sb_database (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
		return 0, fmt.Errorf("register catalog %q: %w", name, err)
	}

	var id int
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM sb_database WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup catalog %q: %w", name, err)
	}
	return domain.CatalogID(id), nil
}

// FindPeer returns the item paired with (catalog, layer, itemID) in peerCatalog.
// Pairs are unordered, so both columns of sync_pair are searched.
func (s *Store) FindPeer(ctx context.Context, layer domain.Layer, itemID int, catalog, peerCatalog domain.CatalogID) (int, bool, error) {
	var peer int
	err := s.db.QueryRowContext(ctx, `
		SELECT peer.id_item
		FROM sync_pair AS pair
		INNER JOIN sync_item AS own ON own.id IN (pair.id_sync_item_1, pair.id_sync_item_2)
		INNER JOIN sync_item AS peer ON peer.id IN (pair.id_sync_item_1, pair.id_sync_item_2) AND peer.id <> own.id
		WHERE own.id_database = ?
			AND own.id_item_type = ?
			AND own.id_item = ?
			AND peer.id_database = ?
		ORDER BY pair.rowid
		LIMIT 1
	`, int(catalog), layer.ItemTypeCode(), itemID, int(peerCatalog)).Scan(&peer)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.NoID, false, nil
	}
	if err != nil {
		return domain.NoID, false, err
	}
	return peer, true, nil
}

// FindHandle returns the sync handle of (catalog, layer, itemID)
func (s *Store) FindHandle(ctx context.Context, catalog domain.CatalogID, layer domain.Layer, itemID int) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM sync_item
		WHERE id_database = ? AND id_item_type = ? AND id_item = ?
	`, int(catalog), layer.ItemTypeCode(), itemID).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// CreateHandle inserts a sync handle and returns its surrogate key
func (s *Store) CreateHandle(ctx context.Context, catalog domain.CatalogID, layer domain.Layer, itemID int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_item (id_database, id_item_type, id_item)
		VALUES (?, ?, ?)
	`, int(catalog), layer.ItemTypeCode(), itemID)
	if err != nil {
		return 0, classify(err)
	}
	return res.LastInsertId()
}

// InsertPair records one SyncPair. A pair already stored in the same order
// fails with ports.ErrConstraint.
func (s *Store) InsertPair(ctx context.Context, pair ports.HandlePair) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_pair (id_sync_item_1, id_sync_item_2)
		VALUES (?, ?)
	`, pair.First, pair.Second)
	return classify(err)
}

// InsertPairs records all pairs in one transaction using multi-row inserts.
// Pairs already stored are skipped; the number of new rows is returned.
func (s *Store) InsertPairs(ctx context.Context, pairs []ports.HandlePair) (int, error) {
	if len(pairs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	ptx := &pairTx{tx: tx}

	inserted := 0
	for start := 0; start < len(pairs); start += pairsPerStatement {
		end := min(start+pairsPerStatement, len(pairs))
		n, err := ptx.insert(ctx, pairs[start:end])
		if err != nil {
			ptx.Rollback()
			return 0, classify(err)
		}
		inserted += n
	}

	if err := ptx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// DeletePair removes the SyncPair between two handles, in either order
func (s *Store) DeletePair(ctx context.Context, pair ports.HandlePair) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM sync_pair
		WHERE (id_sync_item_1 = ? AND id_sync_item_2 = ?)
			OR (id_sync_item_1 = ? AND id_sync_item_2 = ?)
	`, pair.First, pair.Second, pair.Second, pair.First)
	return err
}

// CountPairs returns how many pairs exist between two catalogs at layer
func (s *Store) CountPairs(ctx context.Context, layer domain.Layer, a, b domain.CatalogID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM sync_pair AS pair
		INNER JOIN sync_item AS one ON one.id = pair.id_sync_item_1
		INNER JOIN sync_item AS two ON two.id = pair.id_sync_item_2
		WHERE one.id_item_type = ?
			AND ((one.id_database = ? AND two.id_database = ?)
				OR (one.id_database = ? AND two.id_database = ?))
	`, layer.PairLayer().ItemTypeCode(), int(a), int(b), int(b), int(a)).Scan(&n)
	return n, err
}

// defaultDatabasePath returns the pair database location under XDG_DATA_HOME
func defaultDatabasePath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "catalogsync", "sync.db")
}

// expandHome expands a leading ~ in path
func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}
