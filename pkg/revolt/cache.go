package revolt

import "context"

// Key is the constraint satisfied by every identifier type.
type Key interface {
	comparable
	String() string
}

// Store is one cache partition holding a single entity kind.
//
// Implementations must make each operation atomic for a single entity and must
// not perform network I/O. Absence is reported through found=false, never as an
// error.
type Store[ID comparable, E any] interface {
	// Get returns the cached entity for id.
	Get(ctx context.Context, id ID) (entity E, found bool, err error)
	// Commit inserts or overwrites entity under its own key and returns it.
	// Committing the same entity twice leaves the partition unchanged.
	Commit(ctx context.Context, entity E) (E, error)
	// Remove drops id. Removing an absent id is a no-op.
	Remove(ctx context.Context, id ID) error
}

// Cache is the local mirror of server state, partitioned by entity kind.
type Cache interface {
	Channels() Store[ChannelID, Channel]
	Servers() Store[ServerID, Server]
	Members() Store[MemberID, Member]
	Users() Store[UserID, User]
	Messages() Store[MessageID, Message]
}

// NoCache returns a Cache whose partitions never retain anything.
//
// Get always misses, Commit returns its argument, and Remove does nothing.
func NoCache() Cache {
	return noCache{}
}

type noCache struct{}

func (noCache) Channels() Store[ChannelID, Channel] { return noopStore[ChannelID, Channel]{} }
func (noCache) Servers() Store[ServerID, Server]    { return noopStore[ServerID, Server]{} }
func (noCache) Members() Store[MemberID, Member]    { return noopStore[MemberID, Member]{} }
func (noCache) Users() Store[UserID, User]          { return noopStore[UserID, User]{} }
func (noCache) Messages() Store[MessageID, Message] { return noopStore[MessageID, Message]{} }

type noopStore[ID comparable, E any] struct{}

func (noopStore[ID, E]) Get(context.Context, ID) (E, bool, error) {
	var zero E
	return zero, false, nil
}

func (noopStore[ID, E]) Commit(_ context.Context, entity E) (E, error) {
	return entity, nil
}

func (noopStore[ID, E]) Remove(context.Context, ID) error {
	return nil
}
