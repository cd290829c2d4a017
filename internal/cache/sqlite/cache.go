// Package sqlite provides a persistent cache backed by a single SQLite file.
//
// Entities are stored as JSON documents keyed by kind and id, so a process can
// restart with the state mirrored by a previous session.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"ex-revolt/pkg/revolt"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Option mutates cache configuration.
type Option func(*Cache)

// WithLogger injects the logger used for cache diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(cache *Cache) {
		if logger != nil {
			cache.logger = logger
		}
	}
}

// WithTTL makes entries older than ttl miss on read.
func WithTTL(ttl time.Duration) Option {
	return func(cache *Cache) {
		if ttl > 0 {
			cache.ttl = ttl
		}
	}
}

func withClock(clock func() time.Time) Option {
	return func(cache *Cache) {
		if clock != nil {
			cache.clock = clock
		}
	}
}

// Cache is a revolt.Cache persisted in SQLite.
type Cache struct {
	db     *sql.DB
	logger *slog.Logger
	ttl    time.Duration
	clock  func() time.Time

	channels *Store[revolt.ChannelID, revolt.Channel]
	servers  *Store[revolt.ServerID, revolt.Server]
	members  *Store[revolt.MemberID, revolt.Member]
	users    *Store[revolt.UserID, revolt.User]
	messages *Store[revolt.MessageID, revolt.Message]
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string, options ...Option) (*Cache, error) {
	if path == "" {
		return nil, fmt.Errorf("open sqlite cache: empty path")
	}
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("open sqlite cache: create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite cache: %w", err)
	}
	// One connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	cache := &Cache{
		db:     db,
		logger: slog.Default(),
		clock:  time.Now,
	}
	for _, option := range options {
		option(cache)
	}

	if err := cache.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite cache: migrate: %w", err)
	}

	cache.channels = newStore[revolt.ChannelID, revolt.Channel](cache, revolt.EntityKindChannel)
	cache.servers = newStore[revolt.ServerID, revolt.Server](cache, revolt.EntityKindServer)
	cache.members = newStore[revolt.MemberID, revolt.Member](cache, revolt.EntityKindMember)
	cache.users = newStore[revolt.UserID, revolt.User](cache, revolt.EntityKindUser)
	cache.messages = newStore[revolt.MessageID, revolt.Message](cache, revolt.EntityKindMessage)

	cache.logger.Debug("sqlite cache opened", "path", path, "ttl", cache.ttl)

	return cache, nil
}

func (c *Cache) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS entities (
		kind       TEXT NOT NULL,
		id         TEXT NOT NULL,
		body       TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (kind, id)
	);
	CREATE INDEX IF NOT EXISTS idx_entities_updated ON entities(updated_at);
	`
	_, err := c.db.ExecContext(ctx, schema)
	return err
}

// Close releases the database handle.
func (c *Cache) Close() error {
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("close sqlite cache: %w", err)
	}

	return nil
}

// Channels returns the channel partition.
func (c *Cache) Channels() revolt.Store[revolt.ChannelID, revolt.Channel] { return c.channels }

// Servers returns the server partition.
func (c *Cache) Servers() revolt.Store[revolt.ServerID, revolt.Server] { return c.servers }

// Members returns the member partition.
func (c *Cache) Members() revolt.Store[revolt.MemberID, revolt.Member] { return c.members }

// Users returns the user partition.
func (c *Cache) Users() revolt.Store[revolt.UserID, revolt.User] { return c.users }

// Messages returns the message partition.
func (c *Cache) Messages() revolt.Store[revolt.MessageID, revolt.Message] { return c.messages }

// Stats reports per-kind row counts.
func (c *Cache) Stats(ctx context.Context) (map[revolt.EntityKind]int, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM entities GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("sqlite cache stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[revolt.EntityKind]int)
	for rows.Next() {
		var (
			kind  string
			count int
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, fmt.Errorf("sqlite cache stats: scan: %w", err)
		}
		stats[revolt.EntityKind(kind)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite cache stats: %w", err)
	}

	return stats, nil
}

// Prune deletes entries older than the configured TTL and returns how many went.
func (c *Cache) Prune(ctx context.Context) (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}

	cutoff := c.now().Add(-c.ttl).UnixNano()
	result, err := c.db.ExecContext(ctx, `DELETE FROM entities WHERE updated_at <= ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sqlite cache prune: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite cache prune: %w", err)
	}
	if removed > 0 {
		c.logger.Debug("sqlite cache pruned expired entries", "removed", removed)
	}

	return removed, nil
}

func (c *Cache) now() time.Time {
	return c.clock().UTC()
}

// Store is one entity kind inside the shared entities table.
type Store[ID revolt.Key, E revolt.Entity[ID, E]] struct {
	cache *Cache
	kind  revolt.EntityKind
}

func newStore[ID revolt.Key, E revolt.Entity[ID, E]](cache *Cache, kind revolt.EntityKind) *Store[ID, E] {
	return &Store[ID, E]{cache: cache, kind: kind}
}

// Get decodes the stored entity for id.
func (s *Store[ID, E]) Get(ctx context.Context, id ID) (E, bool, error) {
	var (
		zero      E
		body      string
		updatedAt int64
	)
	err := s.cache.db.QueryRowContext(ctx,
		`SELECT body, updated_at FROM entities WHERE kind = ? AND id = ?`,
		string(s.kind), id.String(),
	).Scan(&body, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("sqlite cache get %s %s: %w", s.kind, id, err)
	}

	if s.expired(updatedAt) {
		if err := s.Remove(ctx, id); err != nil {
			return zero, false, err
		}
		return zero, false, nil
	}

	var entity E
	if err := json.Unmarshal([]byte(body), &entity); err != nil {
		return zero, false, fmt.Errorf("sqlite cache get %s %s: decode: %w", s.kind, id, err)
	}

	return entity, true, nil
}

// Commit upserts entity under its key.
func (s *Store[ID, E]) Commit(ctx context.Context, entity E) (E, error) {
	id := entity.Key()
	body, err := json.Marshal(entity)
	if err != nil {
		return entity, fmt.Errorf("sqlite cache commit %s %s: encode: %w", s.kind, id, err)
	}

	_, err = s.cache.db.ExecContext(ctx,
		`INSERT INTO entities (kind, id, body, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(kind, id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		string(s.kind), id.String(), string(body), s.cache.now().UnixNano(),
	)
	if err != nil {
		return entity, fmt.Errorf("sqlite cache commit %s %s: %w", s.kind, id, err)
	}

	return entity, nil
}

// Remove deletes id; an absent id is a no-op.
func (s *Store[ID, E]) Remove(ctx context.Context, id ID) error {
	_, err := s.cache.db.ExecContext(ctx,
		`DELETE FROM entities WHERE kind = ? AND id = ?`,
		string(s.kind), id.String(),
	)
	if err != nil {
		return fmt.Errorf("sqlite cache remove %s %s: %w", s.kind, id, err)
	}

	return nil
}

func (s *Store[ID, E]) expired(updatedAt int64) bool {
	if s.cache.ttl <= 0 {
		return false
	}

	return !s.cache.now().Before(time.Unix(0, updatedAt).Add(s.cache.ttl))
}

var _ revolt.Cache = (*Cache)(nil)
