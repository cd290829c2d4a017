package revolt

import (
	"context"
	"fmt"
	"slices"
)

// ApplyEvent mirrors one inbound event into cache.
//
// Events embedding a full entity replace the cached copy, update events patch
// then clear the cached copy, and delete events remove it. An update for an
// entity with no cached snapshot returns *OrphanPatchError and leaves the cache
// untouched. Events without cache effect are accepted as no-ops.
func ApplyEvent(ctx context.Context, cache Cache, event InboundEvent) error {
	if cache == nil {
		cache = NoCache()
	}
	if event == nil {
		return fmt.Errorf("apply event: %w", ErrNilEvent)
	}

	var err error
	switch typed := event.(type) {
	case ErrorEvent, AuthenticatedEvent, PongEvent,
		ChannelStartTypingEvent, ChannelStopTypingEvent, ChannelAckEvent:
	case ReadyEvent:
		err = applyReady(ctx, cache, typed)
	case MessageEvent:
		err = applyMessage(ctx, cache, typed.Message)
	case MessageUpdateEvent:
		err = patchStored(ctx, cache.Messages(), EntityKindMessage, typed.ID, typed.Data, []MessageField(nil))
	case MessageDeleteEvent:
		err = cache.Messages().Remove(ctx, typed.ID)
	case ChannelCreateEvent:
		_, err = cache.Channels().Commit(ctx, typed.Channel.Clone())
	case ChannelUpdateEvent:
		err = patchStored(ctx, cache.Channels(), EntityKindChannel, typed.ID, typed.Data, []ChannelField(typed.Clear))
	case ChannelDeleteEvent:
		err = cache.Channels().Remove(ctx, typed.ID)
	case ChannelGroupJoinEvent:
		err = updateStored(ctx, cache.Channels(), typed.ID, func(channel Channel) Channel {
			if !channel.HasRecipient(typed.User) {
				channel.Recipients = append(channel.Recipients, typed.User)
			}
			return channel
		})
	case ChannelGroupLeaveEvent:
		err = updateStored(ctx, cache.Channels(), typed.ID, func(channel Channel) Channel {
			channel.Recipients = slices.DeleteFunc(channel.Recipients, func(user UserID) bool {
				return user == typed.User
			})
			return channel
		})
	case ServerUpdateEvent:
		err = patchStored(ctx, cache.Servers(), EntityKindServer, typed.ID, typed.Data, []ServerField(typed.Clear))
	case ServerDeleteEvent:
		err = applyServerDelete(ctx, cache, typed.ID)
	case ServerMemberUpdateEvent:
		err = patchStored(ctx, cache.Members(), EntityKindMember, typed.ID, typed.Data, []MemberField(typed.Clear))
	case ServerMemberJoinEvent:
		err = applyMemberJoin(ctx, cache, MemberID{Server: typed.ID, User: typed.User})
	case ServerMemberLeaveEvent:
		err = cache.Members().Remove(ctx, MemberID{Server: typed.ID, User: typed.User})
	case ServerRoleUpdateEvent:
		err = applyRoleUpdate(ctx, cache, typed)
	case ServerRoleDeleteEvent:
		err = updateStored(ctx, cache.Servers(), typed.ID, func(server Server) Server {
			delete(server.Roles, typed.RoleID)
			return server
		})
	case UserUpdateEvent:
		err = patchStored(ctx, cache.Users(), EntityKindUser, typed.ID, typed.Data, []UserField(typed.Clear))
	case UserRelationshipEvent:
		err = updateStored(ctx, cache.Users(), typed.User, func(user User) User {
			user.Relationship = valuePtr(typed.Status)
			return user
		})
	default:
		return fmt.Errorf("apply event %s: %w", event.Type(), ErrUnknownEventType)
	}
	if err != nil {
		return fmt.Errorf("apply event %s: %w", event.Type(), err)
	}

	return nil
}

func applyReady(ctx context.Context, cache Cache, ready ReadyEvent) error {
	for _, user := range ready.Users {
		if _, err := cache.Users().Commit(ctx, user.Clone()); err != nil {
			return fmt.Errorf("commit user %s: %w", user.ID, err)
		}
	}
	for _, server := range ready.Servers {
		if _, err := cache.Servers().Commit(ctx, server.Clone()); err != nil {
			return fmt.Errorf("commit server %s: %w", server.ID, err)
		}
	}
	for _, channel := range ready.Channels {
		if _, err := cache.Channels().Commit(ctx, channel.Clone()); err != nil {
			return fmt.Errorf("commit channel %s: %w", channel.ID, err)
		}
	}
	for _, member := range ready.Members {
		if _, err := cache.Members().Commit(ctx, member.Clone()); err != nil {
			return fmt.Errorf("commit member %s: %w", member.ID, err)
		}
	}

	return nil
}

// applyMemberJoin keeps an already cached member as is.
func applyMemberJoin(ctx context.Context, cache Cache, id MemberID) error {
	_, found, err := cache.Members().Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get %v: %w", id, err)
	}
	if found {
		return nil
	}
	if _, err := cache.Members().Commit(ctx, Member{ID: id}); err != nil {
		return fmt.Errorf("commit member %s: %w", id, err)
	}

	return nil
}

func applyMessage(ctx context.Context, cache Cache, message Message) error {
	if _, err := cache.Messages().Commit(ctx, message.Clone()); err != nil {
		return fmt.Errorf("commit message %s: %w", message.ID, err)
	}

	return updateStored(ctx, cache.Channels(), message.Channel, func(channel Channel) Channel {
		channel.LastMessageID = message.ID
		return channel
	})
}

func applyServerDelete(ctx context.Context, cache Cache, id ServerID) error {
	server, found, err := cache.Servers().Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get server %s: %w", id, err)
	}
	if found {
		for _, channel := range server.Channels {
			if err := cache.Channels().Remove(ctx, channel); err != nil {
				return fmt.Errorf("remove channel %s: %w", channel, err)
			}
		}
	}

	return cache.Servers().Remove(ctx, id)
}

// applyRoleUpdate patches a role inside its cached server. A role the server
// does not know yet is created from the patch alone.
func applyRoleUpdate(ctx context.Context, cache Cache, event ServerRoleUpdateEvent) error {
	server, found, err := cache.Servers().Get(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("get server %s: %w", event.ID, err)
	}
	if !found {
		return &OrphanPatchError{Kind: EntityKindServer, ID: event.ID.String()}
	}

	server = server.Clone()
	role := server.Roles[event.RoleID]
	if server.Roles == nil {
		server.Roles = make(map[RoleID]Role, 1)
	}
	server.Roles[event.RoleID] = ApplyPatch(role, event.Data, []RoleField(event.Clear))

	if _, err := cache.Servers().Commit(ctx, server); err != nil {
		return fmt.Errorf("commit server %s: %w", event.ID, err)
	}

	return nil
}

// patchStored loads the cached base entity, applies patch then clears, and
// commits the result. Nothing is written when the base is missing.
func patchStored[ID Key, E Patchable[E, P, F], P any, F FieldTag](
	ctx context.Context,
	store Store[ID, E],
	kind EntityKind,
	id ID,
	patch P,
	clears []F,
) error {
	existing, found, err := store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get %s %s: %w", kind, id, err)
	}
	if !found {
		return &OrphanPatchError{Kind: kind, ID: id.String()}
	}
	if _, err := store.Commit(ctx, ApplyPatch(existing, patch, clears)); err != nil {
		return fmt.Errorf("commit %s %s: %w", kind, id, err)
	}

	return nil
}

// updateStored rewrites a cached entity with mutate; an uncached id is left alone.
func updateStored[ID comparable, E interface{ Clone() E }](
	ctx context.Context,
	store Store[ID, E],
	id ID,
	mutate func(E) E,
) error {
	existing, found, err := store.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get %v: %w", id, err)
	}
	if !found {
		return nil
	}
	if _, err := store.Commit(ctx, mutate(existing.Clone())); err != nil {
		return fmt.Errorf("commit %v: %w", id, err)
	}

	return nil
}
