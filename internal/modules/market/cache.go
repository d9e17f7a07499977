package market

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mvdops/blendboard/internal/database"
)

// CommentCache stores generated commentary keyed by the snapshot asof
// date, so repeated dashboard loads within the same market day do not
// burn model calls. A refresh request bypasses and overwrites it.
type CommentCache struct {
	db  *database.DB
	log zerolog.Logger
}

// NewCommentCache opens the cache table, creating it if needed.
func NewCommentCache(db *database.DB, log zerolog.Logger) (*CommentCache, error) {
	c := &CommentCache{
		db:  db,
		log: log.With().Str("component", "comment-cache").Logger(),
	}
	_, err := db.Conn().Exec(`
		CREATE TABLE IF NOT EXISTS comment_cache (
			asof       TEXT PRIMARY KEY,
			payload    TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment cache table: %w", err)
	}
	return c, nil
}

// Get returns the cached payload for an asof date, ok=false on miss.
func (c *CommentCache) Get(ctx context.Context, asof string) ([]byte, bool, error) {
	var payload string
	err := c.db.Conn().QueryRowContext(ctx,
		`SELECT payload FROM comment_cache WHERE asof = ?`, asof).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read comment cache: %w", err)
	}
	return []byte(payload), true, nil
}

// Put stores or replaces the payload for an asof date.
func (c *CommentCache) Put(ctx context.Context, asof string, payload []byte) error {
	_, err := c.db.Conn().ExecContext(ctx, `
		INSERT INTO comment_cache (asof, payload, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(asof) DO UPDATE SET payload = excluded.payload, created_at = excluded.created_at`,
		asof, string(payload), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write comment cache: %w", err)
	}
	return nil
}
