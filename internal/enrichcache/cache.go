package enrichcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"quill/internal/checksum"
	"quill/internal/logging"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS enrichment_cache (
    stage        TEXT NOT NULL,
    input_digest TEXT NOT NULL,
    output       TEXT NOT NULL,
    created_at   TEXT NOT NULL,
    PRIMARY KEY (stage, input_digest)
);
`

// Cache persists enrichment stage outputs keyed by the digest of their
// input. A cache opened with an empty path is a no-op: every lookup misses
// and every store succeeds silently.
type Cache struct {
	db     *sql.DB
	sb     sq.StatementBuilderType
	logger *slog.Logger
}

// Open creates or connects to the cache database at path.
func Open(path string, logger *slog.Logger) (*Cache, error) {
	log := logging.NewComponentLogger(logger, "enrichcache")
	if path == "" {
		return &Cache{logger: log}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}

	return &Cache{
		db:     db,
		sb:     sq.StatementBuilder.PlaceholderFormat(sq.Question),
		logger: log,
	}, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Get returns the cached output for a stage and input digest.
func (c *Cache) Get(ctx context.Context, stage string, key checksum.Digest) (string, bool, error) {
	if c.db == nil {
		return "", false, nil
	}
	query, args, err := c.sb.
		Select("output").
		From("enrichment_cache").
		Where(sq.Eq{"stage": stage, "input_digest": string(key)}).
		ToSql()
	if err != nil {
		return "", false, fmt.Errorf("build cache query: %w", err)
	}

	var output string
	err = c.db.QueryRowContext(ctx, query, args...).Scan(&output)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read cache entry: %w", err)
	}
	c.logger.Debug("cache hit", logging.String(logging.FieldStage, stage))
	return output, true, nil
}

// Put stores or replaces the cached output for a stage and input digest.
func (c *Cache) Put(ctx context.Context, stage string, key checksum.Digest, output string) error {
	if c.db == nil {
		return nil
	}
	query, args, err := c.sb.
		Insert("enrichment_cache").
		Columns("stage", "input_digest", "output", "created_at").
		Values(stage, string(key), output, time.Now().UTC().Format(time.RFC3339Nano)).
		Suffix("ON CONFLICT(stage, input_digest) DO UPDATE SET output = excluded.output, created_at = excluded.created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build cache insert: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Prune deletes entries older than maxAge and returns how many were removed.
func (c *Cache) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	if c.db == nil {
		return 0, nil
	}
	cutoff := time.Now().UTC().Add(-maxAge).Format(time.RFC3339Nano)
	query, args, err := c.sb.
		Delete("enrichment_cache").
		Where(sq.Lt{"created_at": cutoff}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build cache prune: %w", err)
	}
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	if removed > 0 {
		c.logger.Debug("pruned cache entries", logging.Int64("removed", removed))
	}
	return removed, nil
}

// Count returns the number of cached entries.
func (c *Cache) Count(ctx context.Context) (int64, error) {
	if c.db == nil {
		return 0, nil
	}
	var count int64
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM enrichment_cache").Scan(&count); err != nil {
		return 0, fmt.Errorf("count cache entries: %w", err)
	}
	return count, nil
}
