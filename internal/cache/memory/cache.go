package memory

import (
	"log/slog"

	"ex-revolt/pkg/revolt"
)

// Cache is an in-process revolt.Cache with one bounded partition per kind.
type Cache struct {
	channels *Store[revolt.ChannelID, revolt.Channel]
	servers  *Store[revolt.ServerID, revolt.Server]
	members  *Store[revolt.MemberID, revolt.Member]
	users    *Store[revolt.UserID, revolt.User]
	messages *Store[revolt.MessageID, revolt.Message]
}

// New creates an empty cache; options apply to every partition.
func New(options ...Option) *Cache {
	cfg := newConfig(options)
	cfg.logger.Debug("memory cache configured",
		"max_entries", cfg.maxEntries,
		"ttl", cfg.ttl,
	)

	return &Cache{
		channels: newStore[revolt.ChannelID, revolt.Channel](revolt.EntityKindChannel, cfg),
		servers:  newStore[revolt.ServerID, revolt.Server](revolt.EntityKindServer, cfg),
		members:  newStore[revolt.MemberID, revolt.Member](revolt.EntityKindMember, cfg),
		users:    newStore[revolt.UserID, revolt.User](revolt.EntityKindUser, cfg),
		messages: newStore[revolt.MessageID, revolt.Message](revolt.EntityKindMessage, cfg),
	}
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

// Stats reports per-kind entry counts.
func (c *Cache) Stats() map[revolt.EntityKind]int {
	return map[revolt.EntityKind]int{
		revolt.EntityKindChannel: c.channels.Len(),
		revolt.EntityKindServer:  c.servers.Len(),
		revolt.EntityKindMember:  c.members.Len(),
		revolt.EntityKindUser:    c.users.Len(),
		revolt.EntityKindMessage: c.messages.Len(),
	}
}

// LogValue summarizes the cache for structured logging.
func (c *Cache) LogValue() slog.Value {
	stats := c.Stats()
	return slog.GroupValue(
		slog.Int("channels", stats[revolt.EntityKindChannel]),
		slog.Int("servers", stats[revolt.EntityKindServer]),
		slog.Int("members", stats[revolt.EntityKindMember]),
		slog.Int("users", stats[revolt.EntityKindUser]),
		slog.Int("messages", stats[revolt.EntityKindMessage]),
	)
}

var _ revolt.Cache = (*Cache)(nil)
