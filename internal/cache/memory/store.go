package memory

import (
	"container/list"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ex-revolt/pkg/revolt"
)

const (
	defaultMaxEntries = 10000
	defaultTTL        = 0
)

// Option mutates cache configuration.
type Option func(*config)

type config struct {
	logger     *slog.Logger
	maxEntries int
	ttl        time.Duration
	clock      func() time.Time
}

// WithLogger injects the logger used for eviction diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithMaxEntries sets the capacity of each partition.
func WithMaxEntries(maxEntries int) Option {
	return func(cfg *config) {
		if maxEntries > 0 {
			cfg.maxEntries = maxEntries
		}
	}
}

// WithTTL sets how long an entry can be returned without being committed again.
// Zero keeps entries until evicted by capacity.
func WithTTL(ttl time.Duration) Option {
	return func(cfg *config) {
		if ttl > 0 {
			cfg.ttl = ttl
		}
	}
}

func withClock(clock func() time.Time) Option {
	return func(cfg *config) {
		if clock != nil {
			cfg.clock = clock
		}
	}
}

func newConfig(options []Option) config {
	cfg := config{
		logger:     slog.Default(),
		maxEntries: defaultMaxEntries,
		ttl:        defaultTTL,
		clock:      time.Now,
	}
	for _, option := range options {
		option(&cfg)
	}

	return cfg
}

// Store is one bounded partition keyed by entity id.
type Store[ID revolt.Key, E revolt.Entity[ID, E]] struct {
	kind revolt.EntityKind
	cfg  config

	mu      sync.Mutex
	records map[ID]*record[E]
	lru     *list.List
}

type record[E any] struct {
	entity    E
	expiresAt time.Time
	element   *list.Element
}

// NewStore creates one partition for kind.
func NewStore[ID revolt.Key, E revolt.Entity[ID, E]](kind revolt.EntityKind, options ...Option) *Store[ID, E] {
	return newStore[ID, E](kind, newConfig(options))
}

func newStore[ID revolt.Key, E revolt.Entity[ID, E]](kind revolt.EntityKind, cfg config) *Store[ID, E] {
	return &Store[ID, E]{
		kind:    kind,
		cfg:     cfg,
		records: make(map[ID]*record[E]),
		lru:     list.New(),
	}
}

// Get returns a copy of the cached entity.
func (s *Store[ID, E]) Get(ctx context.Context, id ID) (E, bool, error) {
	var zero E
	if err := ctx.Err(); err != nil {
		return zero, false, fmt.Errorf("memory cache get %s %s: %w", s.kind, id, err)
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.liveLocked(id, now)
	if !ok {
		return zero, false, nil
	}
	s.lru.MoveToFront(rec.element)

	return rec.entity.Clone(), true, nil
}

// Commit stores a copy of entity under its key, refreshing recency and expiry.
func (s *Store[ID, E]) Commit(ctx context.Context, entity E) (E, error) {
	if err := ctx.Err(); err != nil {
		return entity, fmt.Errorf("memory cache commit %s %s: %w", s.kind, entity.Key(), err)
	}

	id := entity.Key()
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.liveLocked(id, now); ok {
		rec.entity = entity.Clone()
		rec.expiresAt = s.expiryFrom(now)
		s.lru.MoveToFront(rec.element)
		return entity, nil
	}

	s.records[id] = &record[E]{
		entity:    entity.Clone(),
		expiresAt: s.expiryFrom(now),
		element:   s.lru.PushFront(id),
	}
	s.trimToCapacityLocked()

	return entity, nil
}

// Remove drops id; an absent id is a no-op.
func (s *Store[ID, E]) Remove(ctx context.Context, id ID) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("memory cache remove %s %s: %w", s.kind, id, err)
	}

	s.mu.Lock()
	s.deleteLocked(id)
	s.mu.Unlock()

	return nil
}

// Len returns the number of entries, including expired ones not yet swept.
func (s *Store[ID, E]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}

// Clear drops every entry.
func (s *Store[ID, E]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[ID]*record[E])
	s.lru.Init()
}

func (s *Store[ID, E]) liveLocked(id ID, now time.Time) (*record[E], bool) {
	rec, ok := s.records[id]
	if !ok {
		return nil, false
	}
	if !rec.expiresAt.IsZero() && !now.Before(rec.expiresAt) {
		s.deleteLocked(id)
		return nil, false
	}

	return rec, true
}

func (s *Store[ID, E]) trimToCapacityLocked() {
	for len(s.records) > s.cfg.maxEntries {
		back := s.lru.Back()
		if back == nil {
			break
		}
		oldest, ok := back.Value.(ID)
		if !ok {
			s.lru.Remove(back)
			continue
		}
		s.deleteLocked(oldest)
		s.cfg.logger.Debug("memory cache evicted entry",
			"kind", s.kind,
			"id", oldest.String(),
			"max_entries", s.cfg.maxEntries,
		)
	}
}

func (s *Store[ID, E]) deleteLocked(id ID) {
	rec, ok := s.records[id]
	if !ok {
		return
	}
	s.lru.Remove(rec.element)
	delete(s.records, id)
}

func (s *Store[ID, E]) expiryFrom(now time.Time) time.Time {
	if s.cfg.ttl <= 0 {
		return time.Time{}
	}

	return now.Add(s.cfg.ttl)
}

func (s *Store[ID, E]) now() time.Time {
	return s.cfg.clock().UTC()
}

var _ revolt.Store[revolt.ChannelID, revolt.Channel] = (*Store[revolt.ChannelID, revolt.Channel])(nil)
