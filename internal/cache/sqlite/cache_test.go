package sqlite

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"ex-revolt/pkg/revolt"
)

func openTestCache(t *testing.T, options ...Option) (*Cache, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	cache, err := Open(context.Background(), path, options...)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		_ = cache.Close()
	})

	return cache, path
}

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache, _ := openTestCache(t)

	topic := "release notes"
	colour := "#00ff00"
	server := revolt.Server{
		ID:          "s1",
		Owner:       "u1",
		Name:        "hub",
		Description: &topic,
		Channels:    []revolt.ChannelID{"c1", "c2"},
		Roles: map[revolt.RoleID]revolt.Role{
			"r1": {Name: "mods", Permissions: revolt.Permissions{1, 2}, Colour: &colour, Rank: 2},
		},
		DefaultPermissions: revolt.Permissions{3, 4},
	}
	if _, err := cache.Servers().Commit(ctx, server); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	got, found, err := cache.Servers().Get(ctx, "s1")
	if err != nil || !found {
		t.Fatalf("Get found=%v err=%v, want hit", found, err)
	}
	if !reflect.DeepEqual(got, server) {
		t.Fatalf("server = %+v, want %+v", got, server)
	}

	member := revolt.Member{ID: revolt.MemberID{Server: "s1", User: "u1"}, Roles: []revolt.RoleID{"r1"}}
	if _, err := cache.Members().Commit(ctx, member); err != nil {
		t.Fatalf("Commit member failed: %v", err)
	}
	gotMember, found, err := cache.Members().Get(ctx, member.ID)
	if err != nil || !found {
		t.Fatalf("Get member found=%v err=%v, want hit", found, err)
	}
	if !reflect.DeepEqual(gotMember, member) {
		t.Fatalf("member = %+v, want %+v", gotMember, member)
	}
}

func TestStoreCommitOverwritesAndRemove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache, _ := openTestCache(t)

	for _, name := range []string{"general", "general", "lounge"} {
		channel := revolt.Channel{ID: "c1", ChannelType: revolt.ChannelTypeText, Server: "s1", Name: name}
		if _, err := cache.Channels().Commit(ctx, channel); err != nil {
			t.Fatalf("Commit %s failed: %v", name, err)
		}
	}

	stats, err := cache.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[revolt.EntityKindChannel] != 1 {
		t.Fatalf("channel rows = %d, want 1", stats[revolt.EntityKindChannel])
	}
	got, _, err := cache.Channels().Get(ctx, "c1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "lounge" {
		t.Fatalf("name = %q, want lounge", got.Name)
	}

	if err := cache.Channels().Remove(ctx, "c1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := cache.Channels().Remove(ctx, "c1"); err != nil {
		t.Fatalf("Remove absent failed: %v", err)
	}
	if _, found, err := cache.Channels().Get(ctx, "c1"); err != nil || found {
		t.Fatalf("Get after remove found=%v err=%v, want miss", found, err)
	}
}

func TestKindsDoNotCollide(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache, _ := openTestCache(t)

	if _, err := cache.Users().Commit(ctx, revolt.User{ID: "same", Username: "alice"}); err != nil {
		t.Fatalf("Commit user failed: %v", err)
	}
	if _, err := cache.Channels().Commit(ctx, revolt.Channel{ID: "same", ChannelType: revolt.ChannelTypeSavedMessages}); err != nil {
		t.Fatalf("Commit channel failed: %v", err)
	}

	user, found, err := cache.Users().Get(ctx, "same")
	if err != nil || !found || user.Username != "alice" {
		t.Fatalf("user = %+v found=%v err=%v, want alice", user, found, err)
	}
	if _, found, _ := cache.Servers().Get(ctx, "same"); found {
		t.Fatal("server partition unexpectedly hit")
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	first, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := first.Users().Commit(ctx, revolt.User{ID: "u1", Username: "alice"}); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()

	user, found, err := second.Users().Get(ctx, "u1")
	if err != nil || !found || user.Username != "alice" {
		t.Fatalf("user = %+v found=%v err=%v, want persisted alice", user, found, err)
	}
}

func TestStoreTTL(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Unix(1000, 0).UTC()
	cache, _ := openTestCache(t, WithTTL(time.Minute), withClock(func() time.Time { return now }))

	for _, id := range []revolt.MessageID{"m1", "m2"} {
		if _, err := cache.Messages().Commit(ctx, revolt.Message{ID: id, Channel: "c1", Author: "u1"}); err != nil {
			t.Fatalf("Commit %s failed: %v", id, err)
		}
	}

	now = now.Add(2 * time.Minute)
	if _, found, err := cache.Messages().Get(ctx, "m1"); err != nil || found {
		t.Fatalf("Get found=%v err=%v, want expired miss", found, err)
	}

	removed, err := cache.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("pruned = %d, want 1 remaining expired row", removed)
	}
}

func TestCacheServesApplyEvent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cache, _ := openTestCache(t)

	if _, err := cache.Channels().Commit(ctx, revolt.Channel{ID: "c1", ChannelType: revolt.ChannelTypeText, Server: "s1"}); err != nil {
		t.Fatalf("seed channel failed: %v", err)
	}
	name := "announcements"
	update := revolt.ChannelUpdateEvent{ID: "c1", Data: revolt.PartialChannel{Name: &name}}
	if err := revolt.ApplyEvent(ctx, cache, update); err != nil {
		t.Fatalf("ApplyEvent failed: %v", err)
	}

	channel, _, err := cache.Channels().Get(ctx, "c1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if channel.Name != name {
		t.Fatalf("name = %q, want %q", channel.Name, name)
	}
}
