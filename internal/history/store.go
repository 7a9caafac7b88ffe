// Package history records successful generations in the project database.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lightningmd/lightningmd/internal/adapter"
	"github.com/lightningmd/lightningmd/internal/db"
)

var (
	// ErrNotFound is returned when no generation matches.
	ErrNotFound = errors.New("history: generation not found")

	// ErrFailedGeneration is returned by Save for a failed result.
	ErrFailedGeneration = errors.New("history: failed generations are not recorded")
)

// Generation is one stored document.
type Generation struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"` // readme, index, api, examples, guides
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	Fingerprint  uint64    `json:"fingerprint"`
	PromptTokens int       `json:"prompt_tokens"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store provides read/write access to the generations table.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given DB.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Save records the text of res under g's metadata and returns the new ID.
// Failed results are rejected.
func (s *Store) Save(g Generation, res adapter.GenerationResult) (string, error) {
	if res.Failed() {
		return "", ErrFailedGeneration
	}
	g.Content = res.Text
	if g.Kind == "" {
		return "", fmt.Errorf("history: save: kind is required")
	}

	var id string
	err := s.db.Conn().QueryRow(`
		INSERT INTO generations (id, kind, provider, model, fingerprint, prompt_tokens, content)
		VALUES (lower(hex(randomblob(16))), ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		g.Kind, g.Provider, g.Model, formatFingerprint(g.Fingerprint), g.PromptTokens, g.Content,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("history: save: %w", err)
	}
	return id, nil
}

const selectColumns = `SELECT id, kind, provider, model, fingerprint, prompt_tokens, content, created_at FROM generations`

// Latest returns the most recent generation of kind.
func (s *Store) Latest(kind string) (Generation, error) {
	row := s.db.Conn().QueryRow(selectColumns+` WHERE kind = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, kind)
	g, err := scanGeneration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return g, ErrNotFound
	}
	if err != nil {
		return g, fmt.Errorf("history: latest: %w", err)
	}
	return g, nil
}

// Get returns the generation with the given ID.
func (s *Store) Get(id string) (Generation, error) {
	row := s.db.Conn().QueryRow(selectColumns+` WHERE id = ?`, id)
	g, err := scanGeneration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return g, ErrNotFound
	}
	if err != nil {
		return g, fmt.Errorf("history: get: %w", err)
	}
	return g, nil
}

// List returns up to limit generations, newest first. limit <= 0 means all.
func (s *Store) List(limit int) ([]Generation, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Conn().Query(selectColumns+` ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("history: list: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Count returns the number of stored generations.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.Conn().QueryRow(`SELECT COUNT(*) FROM generations`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneration(r rowScanner) (Generation, error) {
	var g Generation
	var fp string
	var createdAt time.Time
	err := r.Scan(&g.ID, &g.Kind, &g.Provider, &g.Model, &fp, &g.PromptTokens, &g.Content, &createdAt)
	if err != nil {
		return g, err
	}
	g.Fingerprint = parseFingerprint(fp)
	g.CreatedAt = createdAt
	return g, nil
}

// Fingerprints are stored as hex text; the driver rejects uint64 values
// with the high bit set.
func formatFingerprint(fp uint64) string {
	if fp == 0 {
		return ""
	}
	return fmt.Sprintf("%016x", fp)
}

func parseFingerprint(s string) uint64 {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0
	}
	return v
}
