package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Cache persists expensive derivations (aggregate series, frequency tables)
// between sessions. Entries are keyed by variable, derivation kind, and the
// source directory's modification signature; any change to the directory
// invalidates the variable's entries wholesale.
type Cache struct {
	db *sql.DB
}

// OpenCache opens (or creates) the derivation cache at path and configures
// WAL mode.
func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "cache: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "cache: exec %s", pragma)
		}
	}
	c := &Cache{db: db}
	if err := c.migrate(context.Background()); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return c, nil
}

const cacheMigration = `
CREATE TABLE IF NOT EXISTS derivations (
	variable   TEXT NOT NULL,
	kind       TEXT NOT NULL,
	signature  TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (variable, kind)
);
`

func (c *Cache) migrate(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, cacheMigration)
	return eris.Wrap(err, "cache: migrate")
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get loads a cached derivation into out. It misses when no entry exists or
// the stored signature no longer matches the directory's current one.
func (c *Cache) Get(ctx context.Context, variable, kind, signature string, out any) (bool, error) {
	var payload string
	err := c.db.QueryRowContext(ctx,
		`SELECT payload FROM derivations WHERE variable = ? AND kind = ? AND signature = ?`,
		variable, kind, signature,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrap(err, "cache: get")
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return false, eris.Wrap(err, "cache: decode payload")
	}
	return true, nil
}

// Put stores a derivation, dropping every entry for the variable that was
// computed against a different signature.
func (c *Cache) Put(ctx context.Context, variable, kind, signature string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "cache: encode payload")
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "cache: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM derivations WHERE variable = ? AND signature != ?`,
		variable, signature,
	); err != nil {
		return eris.Wrap(err, "cache: invalidate stale entries")
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO derivations (variable, kind, signature, payload, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (variable, kind) DO UPDATE SET
			signature = excluded.signature,
			payload = excluded.payload,
			created_at = excluded.created_at`,
		variable, kind, signature, string(payload), time.Now().UTC(),
	); err != nil {
		return eris.Wrap(err, "cache: put")
	}
	return eris.Wrap(tx.Commit(), "cache: commit")
}

// DirSignature fingerprints a directory's listing: file names, sizes, and
// modification times. Any added, removed, or rewritten file changes the
// signature.
func DirSignature(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrapf(err, "cache: read directory %s", dir)
	}
	h := sha256.New()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return "", eris.Wrapf(err, "cache: stat %s", e.Name())
		}
		fmt.Fprintf(h, "%s|%d|%d\n", e.Name(), info.Size(), info.ModTime().UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
