package revolt

import (
	"context"
	"fmt"
)

// Fetcher is the network collaborator that loads entities from the server.
type Fetcher interface {
	FetchChannel(ctx context.Context, id ChannelID) (Channel, error)
	FetchServer(ctx context.Context, id ServerID) (Server, error)
	FetchUser(ctx context.Context, id UserID) (User, error)
	FetchMember(ctx context.Context, id MemberID) (Member, error)
}

// FetchFunc loads one entity by id over the network.
type FetchFunc[ID Key, E any] func(ctx context.Context, id ID) (E, error)

// Resolve returns the entity for id, preferring store over the network.
//
// A cache hit returns without calling fetch. A miss calls fetch exactly once and
// commits the result to store before returning it, so the next call is a hit.
// Fetch failures are returned as *FetchError wrapping the original error and are
// never retried. Concurrent misses for the same id may each fetch; the last
// commit wins.
func Resolve[ID Key, E any](
	ctx context.Context,
	store Store[ID, E],
	kind EntityKind,
	fetch FetchFunc[ID, E],
	id ID,
) (E, error) {
	var zero E

	cached, found, err := store.Get(ctx, id)
	if err != nil {
		return zero, fmt.Errorf("resolve %s %s: cache get: %w", kind, id, err)
	}
	if found {
		return cached, nil
	}

	fetched, err := fetch(ctx, id)
	if err != nil {
		return zero, &FetchError{Kind: kind, ID: id.String(), Err: err}
	}

	committed, err := store.Commit(ctx, fetched)
	if err != nil {
		return zero, fmt.Errorf("resolve %s %s: cache commit: %w", kind, id, err)
	}

	return committed, nil
}

// ResolverOption mutates resolver construction.
type ResolverOption func(*Resolver)

// WithCache configures the local mirror consulted before fetching.
func WithCache(cache Cache) ResolverOption {
	return func(resolver *Resolver) {
		if cache != nil {
			resolver.cache = cache
		}
	}
}

// Resolver turns identifiers into entities through the cache-or-fetch funnel.
//
// Without WithCache every lookup goes to the network.
type Resolver struct {
	cache   Cache
	fetcher Fetcher
}

// NewResolver creates a resolver over fetcher.
func NewResolver(fetcher Fetcher, options ...ResolverOption) (*Resolver, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("new resolver: %w", ErrNilFetcher)
	}

	resolver := &Resolver{
		cache:   NoCache(),
		fetcher: fetcher,
	}
	for _, option := range options {
		option(resolver)
	}

	return resolver, nil
}

// Cache returns the cache the resolver reads and writes.
func (r *Resolver) Cache() Cache {
	return r.cache
}

// Channel resolves a channel.
func (r *Resolver) Channel(ctx context.Context, id ChannelID) (Channel, error) {
	return Resolve(ctx, r.cache.Channels(), EntityKindChannel, r.fetcher.FetchChannel, id)
}

// Server resolves a server.
func (r *Resolver) Server(ctx context.Context, id ServerID) (Server, error) {
	return Resolve(ctx, r.cache.Servers(), EntityKindServer, r.fetcher.FetchServer, id)
}

// User resolves a user.
func (r *Resolver) User(ctx context.Context, id UserID) (User, error) {
	return Resolve(ctx, r.cache.Users(), EntityKindUser, r.fetcher.FetchUser, id)
}

// Member resolves a server member.
func (r *Resolver) Member(ctx context.Context, id MemberID) (Member, error) {
	return Resolve(ctx, r.cache.Members(), EntityKindMember, r.fetcher.FetchMember, id)
}

// ChannelServer resolves the server owning channel.
//
// found is false for channels outside any server.
func (r *Resolver) ChannelServer(ctx context.Context, channel Channel) (server Server, found bool, err error) {
	serverID, ok := channel.ServerID()
	if !ok {
		return Server{}, false, nil
	}

	server, err = r.Server(ctx, serverID)
	if err != nil {
		return Server{}, false, err
	}

	return server, true, nil
}

// ChannelServerByID resolves a channel and then the server owning it.
func (r *Resolver) ChannelServerByID(ctx context.Context, id ChannelID) (Server, bool, error) {
	channel, err := r.Channel(ctx, id)
	if err != nil {
		return Server{}, false, err
	}

	return r.ChannelServer(ctx, channel)
}

// MessageChannel resolves the channel message was sent in.
func (r *Resolver) MessageChannel(ctx context.Context, message Message) (Channel, error) {
	return r.Channel(ctx, message.Channel)
}

// MessageAuthor resolves the user who sent message.
func (r *Resolver) MessageAuthor(ctx context.Context, message Message) (User, error) {
	return r.User(ctx, message.Author)
}

// MessageServerID resolves which server message was sent in, if any.
func (r *Resolver) MessageServerID(ctx context.Context, message Message) (ServerID, bool, error) {
	channel, err := r.MessageChannel(ctx, message)
	if err != nil {
		return "", false, err
	}

	serverID, ok := channel.ServerID()
	return serverID, ok, nil
}

// MessageServer resolves the server message was sent in, if any.
func (r *Resolver) MessageServer(ctx context.Context, message Message) (Server, bool, error) {
	channel, err := r.MessageChannel(ctx, message)
	if err != nil {
		return Server{}, false, err
	}

	return r.ChannelServer(ctx, channel)
}

// MessageMember resolves the author's membership in the message's server.
//
// found is false for messages outside any server.
func (r *Resolver) MessageMember(ctx context.Context, message Message) (Member, bool, error) {
	serverID, ok, err := r.MessageServerID(ctx, message)
	if err != nil || !ok {
		return Member{}, false, err
	}

	member, err := r.Member(ctx, MemberID{Server: serverID, User: message.Author})
	if err != nil {
		return Member{}, false, err
	}

	return member, true, nil
}
