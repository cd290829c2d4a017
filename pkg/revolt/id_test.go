package revolt

import (
	"crypto/rand"
	"slices"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestCreatedAt(t *testing.T) {
	t.Parallel()

	when := time.UnixMilli(1700000000123).UTC()
	id := MessageID(ulid.MustNew(ulid.Timestamp(when), rand.Reader).String())

	got, err := id.CreatedAt()
	if err != nil {
		t.Fatalf("CreatedAt failed: %v", err)
	}
	if !got.Equal(when) {
		t.Fatalf("CreatedAt = %v, want %v", got, when)
	}

	if _, err := ChannelID("not-a-ulid").CreatedAt(); err == nil {
		t.Fatal("expected error for malformed id")
	}
}

func TestMemberIDOrdering(t *testing.T) {
	t.Parallel()

	ids := []MemberID{
		{Server: "s2", User: "u1"},
		{Server: "s1", User: "u2"},
		{Server: "s1", User: "u1"},
	}
	slices.SortFunc(ids, MemberID.Compare)

	want := []string{"s1:u1", "s1:u2", "s2:u1"}
	for index, id := range ids {
		if id.String() != want[index] {
			t.Fatalf("ids[%d] = %s, want %s", index, id, want[index])
		}
	}
	if !(MemberID{}).IsZero() || ids[0].IsZero() {
		t.Fatal("IsZero mismatch")
	}
}
