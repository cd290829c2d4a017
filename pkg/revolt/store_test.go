package revolt

import (
	"context"
	"sync"
)

type mapStore[ID comparable, E Entity[ID, E]] struct {
	mu      sync.Mutex
	entries map[ID]E
	gets    int
	commits int
	removes int
}

func newMapStore[ID comparable, E Entity[ID, E]]() *mapStore[ID, E] {
	return &mapStore[ID, E]{entries: make(map[ID]E)}
}

func (s *mapStore[ID, E]) Get(_ context.Context, id ID) (E, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gets++
	entity, ok := s.entries[id]
	if !ok {
		var zero E
		return zero, false, nil
	}

	return entity.Clone(), true, nil
}

func (s *mapStore[ID, E]) Commit(_ context.Context, entity E) (E, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commits++
	s.entries[entity.Key()] = entity.Clone()

	return entity, nil
}

func (s *mapStore[ID, E]) Remove(_ context.Context, id ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removes++
	delete(s.entries, id)

	return nil
}

func (s *mapStore[ID, E]) seed(entities ...E) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, entity := range entities {
		s.entries[entity.Key()] = entity.Clone()
	}
}

func (s *mapStore[ID, E]) lookup(id ID) (E, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entity, ok := s.entries[id]
	return entity, ok
}

func (s *mapStore[ID, E]) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

type testCache struct {
	channels *mapStore[ChannelID, Channel]
	servers  *mapStore[ServerID, Server]
	members  *mapStore[MemberID, Member]
	users    *mapStore[UserID, User]
	messages *mapStore[MessageID, Message]
}

func newTestCache() *testCache {
	return &testCache{
		channels: newMapStore[ChannelID, Channel](),
		servers:  newMapStore[ServerID, Server](),
		members:  newMapStore[MemberID, Member](),
		users:    newMapStore[UserID, User](),
		messages: newMapStore[MessageID, Message](),
	}
}

func (c *testCache) Channels() Store[ChannelID, Channel] { return c.channels }
func (c *testCache) Servers() Store[ServerID, Server]    { return c.servers }
func (c *testCache) Members() Store[MemberID, Member]    { return c.members }
func (c *testCache) Users() Store[UserID, User]          { return c.users }
func (c *testCache) Messages() Store[MessageID, Message] { return c.messages }
