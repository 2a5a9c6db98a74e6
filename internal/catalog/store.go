package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// Store is the SQLite-backed item catalog.
type Store struct {
	db *sql.DB
}

// New opens or creates the catalog database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite is not concurrent for writes
	s := &Store{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Migrate creates the schema if needed.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS launcher_items (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL DEFAULT '',
			target TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_launcher_items_created ON launcher_items(created_at DESC);`,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: migrate: %w", err)
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			tx.Rollback()
			return fmt.Errorf("catalog: migrate: %w", err)
		}
	}
	return tx.Commit()
}

// Create validates and inserts it, assigning an ID and creation time.
func (s *Store) Create(ctx context.Context, it Item) (Item, error) {
	typ, err := ParseItemType(string(it.Type))
	if err != nil {
		return Item{}, err
	}
	it.Type = typ
	it.Name = strings.TrimSpace(it.Name)
	it.Target = strings.TrimSpace(it.Target)
	it.ID = uuid.New()
	it.CreatedAt = time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO launcher_items(id, type, name, target, created_at) VALUES(?, ?, ?, ?, ?)`,
		it.ID.String(), string(it.Type), it.Name, it.Target, it.CreatedAt)
	if err != nil {
		return Item{}, fmt.Errorf("catalog: create item: %w", err)
	}
	return it, nil
}

// Get returns the item with the given id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Item, error) {
	var it Item
	err := s.db.QueryRowContext(ctx,
		`SELECT id, type, name, target, created_at FROM launcher_items WHERE id=?`, id.String(),
	).Scan(&it.ID, &it.Type, &it.Name, &it.Target, &it.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Item{}, fmt.Errorf("catalog: get item: %w", err)
	}
	return it, nil
}

// Page size bounds for List.
const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// List returns a page of items, newest first, and the total item count.
// A non-positive limit selects DefaultListLimit; larger limits are capped
// at MaxListLimit.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Item, int, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM launcher_items`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("catalog: count items: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, name, target, created_at
		FROM launcher_items
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog: list items: %w", err)
	}
	defer rows.Close()

	out := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Type, &it.Name, &it.Target, &it.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("catalog: scan item: %w", err)
		}
		out = append(out, it)
	}
	return out, total, rows.Err()
}

// Rename sets the item's name.
func (s *Store) Rename(ctx context.Context, id uuid.UUID, name string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE launcher_items SET name=? WHERE id=?`, strings.TrimSpace(name), id.String())
	if err != nil {
		return fmt.Errorf("catalog: rename item: %w", err)
	}
	return requireRow(res, id)
}

// Delete removes the item.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM launcher_items WHERE id=?`, id.String())
	if err != nil {
		return fmt.Errorf("catalog: delete item: %w", err)
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("catalog: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
