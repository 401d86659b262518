// Package sqlite persists the local-dev state document in an embedded SQLite
// database, one row per top-level collection.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"squad-backend/internal/state"
)

// Persister stores each top-level key of the document as a JSON payload in
// the state(bucket, payload) table. Save replaces all buckets in one
// transaction.
type Persister struct {
	db   *sql.DB
	path string
}

// Open creates the database file and table if needed.
func Open(path string) (*Persister, error) {
	if path == "" {
		path = "state.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &Persister{db: db, path: path}, nil
}

func (p *Persister) Location() string { return "sqlite:" + p.path }

func (p *Persister) Load(ctx context.Context) ([]byte, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return nil, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	// Payloads are spliced in unvalidated so a damaged bucket surfaces as a
	// decode error of the whole document.
	var buf bytes.Buffer
	buf.WriteByte('{')
	n := 0
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		key, _ := json.Marshal(bucket)
		if n > 0 {
			buf.WriteByte(',')
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(payload)
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate state: %w", err)
	}
	if n == 0 {
		return nil, state.ErrNotExist
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (p *Persister) Save(ctx context.Context, data []byte) (retErr error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("split state: %w", err)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	// Buckets absent from the new document must not survive the save.
	if _, err := tx.ExecContext(ctx, `DELETE FROM state`); err != nil {
		return fmt.Errorf("clear state: %w", err)
	}
	for bucket, payload := range doc {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`,
			bucket, []byte(payload)); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	return tx.Commit()
}

// Quarantine copies every bucket into a state_corrupt_<n> table and empties
// the live table.
func (p *Persister) Quarantine(ctx context.Context) (string, error) {
	var n int
	if err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name LIKE 'state_corrupt_%'`).Scan(&n); err != nil {
		return "", fmt.Errorf("count quarantine tables: %w", err)
	}
	table := fmt.Sprintf("state_corrupt_%d", n+1)
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	if _, err := tx.ExecContext(ctx, `CREATE TABLE `+table+` AS SELECT * FROM state`); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("copy state: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM state`); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("clear state: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return p.Location() + "#" + table, nil
}

// DB exposes the underlying sql.DB for tests.
func (p *Persister) DB() *sql.DB { return p.db }

func (p *Persister) Close() error { return p.db.Close() }
