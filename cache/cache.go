// Package cache stores generated tier sources in SQLite, keyed by the
// structural digest of the input tree and the transform options, so
// unchanged inputs are not rewritten again.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chazu/tiersplit/syntax"
	"github.com/chazu/tiersplit/syntax/hash"
	"github.com/chazu/tiersplit/transform"
)

// ErrNotFound indicates no output is cached for a key and tier.
var ErrNotFound = errors.New("cache entry not found")

// Entry is one cached output.
type Entry struct {
	Output  string
	RunID   string
	Created time.Time
}

// Cache is a handle on the output database. It is safe for concurrent use.
type Cache struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Key identifies the output of rewriting mod with opts. Positions do not
// contribute, so reformatting an input that keeps its structure still hits.
func Key(mod *syntax.Module, opts transform.Options) string {
	return hash.Hex(mod) + "/" + opts.Fingerprint()
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection serializes writers from concurrent build jobs.
	db.SetMaxOpenConns(1)

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS outputs (
		key     TEXT NOT NULL,
		tier    TEXT NOT NULL,
		output  TEXT NOT NULL,
		run     TEXT NOT NULL,
		created INTEGER NOT NULL,
		PRIMARY KEY (key, tier)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Cache{db: db, path: path}, nil
}

// Path returns the database file the cache was opened on.
func (c *Cache) Path() string {
	return c.path
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Get returns the cached output for key and tier, or ErrNotFound.
func (c *Cache) Get(key string, tier transform.Tier) (*Entry, error) {
	var (
		e       Entry
		created int64
	)
	err := c.db.QueryRow(
		"SELECT output, run, created FROM outputs WHERE key = ? AND tier = ?",
		key, string(tier),
	).Scan(&e.Output, &e.RunID, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying output: %w", err)
	}
	e.Created = time.Unix(created, 0)
	return &e, nil
}

// Put records output for key and tier, replacing any earlier entry.
func (c *Cache) Put(key string, tier transform.Tier, output, runID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO outputs (key, tier, output, run, created) VALUES (?, ?, ?, ?, ?)",
		key, string(tier), output, runID, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("saving output: %w", err)
	}
	return nil
}

// Prune deletes entries created before cutoff and returns how many were
// removed.
func (c *Cache) Prune(cutoff time.Time) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.db.Exec("DELETE FROM outputs WHERE created < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("pruning outputs: %w", err)
	}
	return res.RowsAffected()
}
