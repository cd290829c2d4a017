package revolt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// EntityKind names one cache partition.
type EntityKind string

const (
	// EntityKindChannel is the channel partition.
	EntityKindChannel EntityKind = "channel"
	// EntityKindServer is the server partition.
	EntityKindServer EntityKind = "server"
	// EntityKindMember is the member partition.
	EntityKindMember EntityKind = "member"
	// EntityKindRole is the role entry inside a server.
	EntityKindRole EntityKind = "role"
	// EntityKindUser is the user partition.
	EntityKindUser EntityKind = "user"
	// EntityKindMessage is the message partition.
	EntityKindMessage EntityKind = "message"
)

// ChannelField names a nullable channel field that can be cleared.
type ChannelField string

const (
	// ChannelFieldDescription clears Channel.Description.
	ChannelFieldDescription ChannelField = "Description"
	// ChannelFieldIcon clears Channel.Icon.
	ChannelFieldIcon ChannelField = "Icon"
	// ChannelFieldDefaultPermissions clears Channel.DefaultPermissions.
	ChannelFieldDefaultPermissions ChannelField = "DefaultPermissions"
)

// Valid reports whether f is a known channel field.
func (f ChannelField) Valid() bool {
	switch f {
	case ChannelFieldDescription, ChannelFieldIcon, ChannelFieldDefaultPermissions:
		return true
	default:
		return false
	}
}

// ServerField names a nullable server field that can be cleared.
type ServerField string

const (
	// ServerFieldDescription clears Server.Description.
	ServerFieldDescription ServerField = "Description"
	// ServerFieldIcon clears Server.Icon.
	ServerFieldIcon ServerField = "Icon"
	// ServerFieldBanner clears Server.Banner.
	ServerFieldBanner ServerField = "Banner"
	// ServerFieldCategories clears Server.Categories.
	ServerFieldCategories ServerField = "Categories"
	// ServerFieldSystemMessages clears Server.SystemMessages.
	ServerFieldSystemMessages ServerField = "SystemMessages"
)

// Valid reports whether f is a known server field.
func (f ServerField) Valid() bool {
	switch f {
	case ServerFieldDescription, ServerFieldIcon, ServerFieldBanner, ServerFieldCategories, ServerFieldSystemMessages:
		return true
	default:
		return false
	}
}

// MemberField names a nullable member field that can be cleared.
type MemberField string

const (
	// MemberFieldNickname clears Member.Nickname.
	MemberFieldNickname MemberField = "Nickname"
	// MemberFieldAvatar clears Member.Avatar.
	MemberFieldAvatar MemberField = "Avatar"
	// MemberFieldRoles clears Member.Roles.
	MemberFieldRoles MemberField = "Roles"
)

// Valid reports whether f is a known member field.
func (f MemberField) Valid() bool {
	switch f {
	case MemberFieldNickname, MemberFieldAvatar, MemberFieldRoles:
		return true
	default:
		return false
	}
}

// RoleField names a nullable role field that can be cleared.
type RoleField string

const (
	// RoleFieldColour clears Role.Colour.
	RoleFieldColour RoleField = "Colour"
)

// Valid reports whether f is a known role field.
func (f RoleField) Valid() bool {
	return f == RoleFieldColour
}

// UserField names a nullable user field that can be cleared.
type UserField string

const (
	// UserFieldAvatar clears User.Avatar.
	UserFieldAvatar UserField = "Avatar"
	// UserFieldStatusText clears User.Status.Text.
	UserFieldStatusText UserField = "StatusText"
	// UserFieldProfileContent clears User.Profile.Content.
	UserFieldProfileContent UserField = "ProfileContent"
	// UserFieldProfileBackground clears User.Profile.Background.
	UserFieldProfileBackground UserField = "ProfileBackground"
)

// Valid reports whether f is a known user field.
func (f UserField) Valid() bool {
	switch f {
	case UserFieldAvatar, UserFieldStatusText, UserFieldProfileContent, UserFieldProfileBackground:
		return true
	default:
		return false
	}
}

// FieldTag is the constraint satisfied by every clearable-field enumeration.
type FieldTag interface {
	~string
	Valid() bool
}

// ClearSet lists fields to reset to their empty state.
//
// A nil set means no explicit clears. On the wire the set is accepted as null,
// a single tag string, or an array of tags.
type ClearSet[F FieldTag] []F

// Contains reports whether field is part of the set.
func (s ClearSet[F]) Contains(field F) bool {
	return slices.Contains(s, field)
}

// UnmarshalJSON decodes null, a single tag, or a tag array and rejects unknown tags.
func (s *ClearSet[F]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*s = nil
		return nil
	}

	var fields []F
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var single F
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return fmt.Errorf("decode clear field: %w", err)
		}
		fields = []F{single}
	} else if err := json.Unmarshal(trimmed, &fields); err != nil {
		return fmt.Errorf("decode clear fields: %w", err)
	}

	for _, field := range fields {
		if !field.Valid() {
			return fmt.Errorf("%w: unknown clear field %q", ErrMalformedPayload, string(field))
		}
	}
	*s = fields

	return nil
}
