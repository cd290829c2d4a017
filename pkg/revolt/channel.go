package revolt

import (
	"maps"
	"slices"
)

// ChannelType discriminates channel shapes.
type ChannelType string

const (
	// ChannelTypeSavedMessages is a user's personal notes channel.
	ChannelTypeSavedMessages ChannelType = "SavedMessages"
	// ChannelTypeDirectMessage is a one-to-one conversation.
	ChannelTypeDirectMessage ChannelType = "DirectMessage"
	// ChannelTypeGroup is a multi-user private conversation.
	ChannelTypeGroup ChannelType = "Group"
	// ChannelTypeText is a text channel inside a server.
	ChannelTypeText ChannelType = "TextChannel"
	// ChannelTypeVoice is a voice channel inside a server.
	ChannelTypeVoice ChannelType = "VoiceChannel"
)

// Channel is a conversation container.
//
// Which fields are meaningful depends on ChannelType: User for saved messages,
// Recipients for direct messages and groups, Server for server channels.
type Channel struct {
	ID                 ChannelID         `json:"_id"`
	ChannelType        ChannelType       `json:"channel_type"`
	User               UserID            `json:"user,omitempty"`
	Active             bool              `json:"active,omitempty"`
	Recipients         []UserID          `json:"recipients,omitzero"`
	Server             ServerID          `json:"server,omitempty"`
	Name               string            `json:"name,omitempty"`
	Owner              UserID            `json:"owner,omitempty"`
	Description        *string           `json:"description,omitempty"`
	Icon               *Attachment       `json:"icon,omitempty"`
	DefaultPermissions *uint64           `json:"default_permissions,omitempty"`
	RolePermissions    map[RoleID]uint64 `json:"role_permissions,omitzero"`
	LastMessageID      MessageID         `json:"last_message_id,omitempty"`
	NSFW               bool              `json:"nsfw,omitempty"`
}

// Key returns the channel id.
func (c Channel) Key() ChannelID {
	return c.ID
}

// ServerID returns the owning server for server channels.
func (c Channel) ServerID() (ServerID, bool) {
	if c.Server == "" {
		return "", false
	}

	return c.Server, true
}

// HasRecipient reports whether user is listed as a recipient.
func (c Channel) HasRecipient(user UserID) bool {
	return slices.Contains(c.Recipients, user)
}

// Clone returns a deep copy.
func (c Channel) Clone() Channel {
	cloned := c
	cloned.Recipients = slices.Clone(c.Recipients)
	cloned.Description = clonePtr(c.Description)
	cloned.Icon = clonePtr(c.Icon)
	cloned.DefaultPermissions = clonePtr(c.DefaultPermissions)
	cloned.RolePermissions = maps.Clone(c.RolePermissions)

	return cloned
}

// PartialChannel carries the channel fields set by a ChannelUpdate.
type PartialChannel struct {
	Name               *string           `json:"name,omitempty"`
	Owner              *UserID           `json:"owner,omitempty"`
	Description        *string           `json:"description,omitempty"`
	Icon               *Attachment       `json:"icon,omitempty"`
	Active             *bool             `json:"active,omitempty"`
	Recipients         []UserID          `json:"recipients,omitzero"`
	DefaultPermissions *uint64           `json:"default_permissions,omitempty"`
	RolePermissions    map[RoleID]uint64 `json:"role_permissions,omitzero"`
	LastMessageID      *MessageID        `json:"last_message_id,omitempty"`
	NSFW               *bool             `json:"nsfw,omitempty"`
}

// WithPatch returns a copy with every field present in patch overwritten.
func (c Channel) WithPatch(patch PartialChannel) Channel {
	next := c.Clone()
	if patch.Name != nil {
		next.Name = *patch.Name
	}
	if patch.Owner != nil {
		next.Owner = *patch.Owner
	}
	if patch.Description != nil {
		next.Description = clonePtr(patch.Description)
	}
	if patch.Icon != nil {
		next.Icon = clonePtr(patch.Icon)
	}
	if patch.Active != nil {
		next.Active = *patch.Active
	}
	if patch.Recipients != nil {
		next.Recipients = slices.Clone(patch.Recipients)
	}
	if patch.DefaultPermissions != nil {
		next.DefaultPermissions = clonePtr(patch.DefaultPermissions)
	}
	if patch.RolePermissions != nil {
		next.RolePermissions = maps.Clone(patch.RolePermissions)
	}
	if patch.LastMessageID != nil {
		next.LastMessageID = *patch.LastMessageID
	}
	if patch.NSFW != nil {
		next.NSFW = *patch.NSFW
	}

	return next
}

// WithCleared returns a copy with the listed fields reset.
func (c Channel) WithCleared(fields []ChannelField) Channel {
	next := c.Clone()
	for _, field := range fields {
		switch field {
		case ChannelFieldDescription:
			next.Description = nil
		case ChannelFieldIcon:
			next.Icon = nil
		case ChannelFieldDefaultPermissions:
			next.DefaultPermissions = nil
		}
	}

	return next
}
