// Package audit records request metadata for delivered reports. The
// report content itself is never stored; entries exist for operator
// follow-up and capacity tracking. The store is optional and every write
// is best effort.
package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry captures one analysis request.
type Entry struct {
	ID        string
	Lang      string
	Country   string
	Condition string
	Age       int
	Blocks    int // metric categories returned
	At        time.Time
}

// Summary is the read-friendly view served by the listing endpoint.
type Summary struct {
	ID        string `json:"id"`
	Lang      string `json:"lang"`
	Country   string `json:"country"`
	Condition string `json:"condition"`
	Age       int    `json:"age"`
	Blocks    int    `json:"blocks"`
	At        string `json:"at"`
}

type Store interface {
	Insert(ctx context.Context, entry Entry) (Summary, error)
	Latest(ctx context.Context, limit int) ([]Summary, error)
	Ping(ctx context.Context) error
}

const maxLimit = 50

func normalize(entry Entry) Entry {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	return entry
}

func summarize(entry Entry) Summary {
	return Summary{
		ID:        entry.ID,
		Lang:      entry.Lang,
		Country:   entry.Country,
		Condition: entry.Condition,
		Age:       entry.Age,
		Blocks:    entry.Blocks,
		At:        entry.At.Format(time.RFC3339),
	}
}

// PGStore is the Postgres-backed store.
type PGStore struct {
	pool *pgxpool.Pool
}

// Connect opens a pool, verifies connectivity and ensures the schema.
func Connect(ctx context.Context, url string) (*PGStore, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS report_audit (
			id         TEXT PRIMARY KEY,
			lang       TEXT NOT NULL,
			country    TEXT NOT NULL,
			condition  TEXT NOT NULL,
			age        INTEGER NOT NULL,
			blocks     INTEGER NOT NULL,
			at_utc     TIMESTAMPTZ NOT NULL
		)
	`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &PGStore{pool: pool}, nil
}

func (s *PGStore) Insert(ctx context.Context, entry Entry) (Summary, error) {
	entry = normalize(entry)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO report_audit (id, lang, country, condition, age, blocks, at_utc)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.ID, entry.Lang, entry.Country, entry.Condition, entry.Age, entry.Blocks, entry.At)
	if err != nil {
		return Summary{}, fmt.Errorf("insert audit: %w", err)
	}
	return summarize(entry), nil
}

func (s *PGStore) Latest(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 || limit > maxLimit {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, lang, country, condition, age, blocks, at_utc
		FROM report_audit
		ORDER BY at_utc DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum Summary
			at  time.Time
		)
		if err := rows.Scan(&sum.ID, &sum.Lang, &sum.Country, &sum.Condition, &sum.Age, &sum.Blocks, &at); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		sum.At = at.Format(time.RFC3339)
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PGStore) Close() {
	s.pool.Close()
}

// MemoryStore is a lightweight in-process store for tests and for
// running without a database.
type MemoryStore struct {
	mu      sync.Mutex
	entries []Summary
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Insert(_ context.Context, entry Entry) (Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sum := summarize(normalize(entry))
	m.entries = append(m.entries, sum)
	if len(m.entries) > maxLimit {
		m.entries = m.entries[len(m.entries)-maxLimit:]
	}
	return sum, nil
}

func (m *MemoryStore) Latest(_ context.Context, limit int) ([]Summary, error) {
	if limit <= 0 || limit > maxLimit {
		limit = 10
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	start := len(m.entries) - limit
	if start < 0 {
		start = 0
	}
	// Newest first, matching the SQL ordering.
	out := make([]Summary, 0, len(m.entries)-start)
	for i := len(m.entries) - 1; i >= start; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}
