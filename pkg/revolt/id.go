package revolt

import (
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// ChannelID identifies a channel.
type ChannelID string

// ServerID identifies a server.
type ServerID string

// MessageID identifies a message.
type MessageID string

// UserID identifies a user.
type UserID string

// RoleID identifies a role inside one server.
type RoleID string

// AttachmentID identifies an uploaded file.
type AttachmentID string

// String returns the raw identifier.
func (id ChannelID) String() string { return string(id) }

// String returns the raw identifier.
func (id ServerID) String() string { return string(id) }

// String returns the raw identifier.
func (id MessageID) String() string { return string(id) }

// String returns the raw identifier.
func (id UserID) String() string { return string(id) }

// String returns the raw identifier.
func (id RoleID) String() string { return string(id) }

// String returns the raw identifier.
func (id AttachmentID) String() string { return string(id) }

// CreatedAt decodes the creation time embedded in a ULID-shaped identifier.
func (id ChannelID) CreatedAt() (time.Time, error) { return ulidTime(string(id)) }

// CreatedAt decodes the creation time embedded in a ULID-shaped identifier.
func (id ServerID) CreatedAt() (time.Time, error) { return ulidTime(string(id)) }

// CreatedAt decodes the creation time embedded in a ULID-shaped identifier.
func (id MessageID) CreatedAt() (time.Time, error) { return ulidTime(string(id)) }

// CreatedAt decodes the creation time embedded in a ULID-shaped identifier.
func (id UserID) CreatedAt() (time.Time, error) { return ulidTime(string(id)) }

func ulidTime(raw string) (time.Time, error) {
	parsed, err := ulid.ParseStrict(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse ulid %q: %w", raw, err)
	}

	return ulid.Time(parsed.Time()).UTC(), nil
}

// MemberID identifies one user's membership in one server.
type MemberID struct {
	Server ServerID `json:"server"`
	User   UserID   `json:"user"`
}

// String renders the member key as server:user.
func (id MemberID) String() string {
	return string(id.Server) + ":" + string(id.User)
}

// Compare orders member ids by server, then user.
func (id MemberID) Compare(other MemberID) int {
	if c := strings.Compare(string(id.Server), string(other.Server)); c != 0 {
		return c
	}

	return strings.Compare(string(id.User), string(other.User))
}

// IsZero reports whether neither component is set.
func (id MemberID) IsZero() bool {
	return id.Server == "" && id.User == ""
}
