package revolt

import "slices"

// RelationshipStatus describes how a user relates to the session user.
type RelationshipStatus string

const (
	// RelationshipNone means no relationship.
	RelationshipNone RelationshipStatus = "None"
	// RelationshipUser marks the session user itself.
	RelationshipUser RelationshipStatus = "User"
	// RelationshipFriend marks an accepted friend.
	RelationshipFriend RelationshipStatus = "Friend"
	// RelationshipOutgoing marks a pending outgoing friend request.
	RelationshipOutgoing RelationshipStatus = "Outgoing"
	// RelationshipIncoming marks a pending incoming friend request.
	RelationshipIncoming RelationshipStatus = "Incoming"
	// RelationshipBlocked marks a user blocked by the session user.
	RelationshipBlocked RelationshipStatus = "Blocked"
	// RelationshipBlockedOther marks a user who blocked the session user.
	RelationshipBlockedOther RelationshipStatus = "BlockedOther"
)

// Valid reports whether s is a known relationship status.
func (s RelationshipStatus) Valid() bool {
	switch s {
	case RelationshipNone, RelationshipUser, RelationshipFriend, RelationshipOutgoing,
		RelationshipIncoming, RelationshipBlocked, RelationshipBlockedOther:
		return true
	default:
		return false
	}
}

// Presence is a user's chosen online state.
type Presence string

const (
	// PresenceOnline is the default online state.
	PresenceOnline Presence = "Online"
	// PresenceIdle marks an away user.
	PresenceIdle Presence = "Idle"
	// PresenceBusy marks a do-not-disturb user.
	PresenceBusy Presence = "Busy"
	// PresenceInvisible hides the user's online state.
	PresenceInvisible Presence = "Invisible"
)

// User is a platform account.
type User struct {
	ID           UserID              `json:"_id"`
	Username     string              `json:"username"`
	Avatar       *Attachment         `json:"avatar,omitempty"`
	Relations    []Relationship      `json:"relations,omitzero"`
	Badges       int64               `json:"badges,omitempty"`
	Status       *UserStatus         `json:"status,omitempty"`
	Profile      *UserProfile        `json:"profile,omitempty"`
	Relationship *RelationshipStatus `json:"relationship,omitempty"`
	Online       bool                `json:"online,omitempty"`
	Flags        int64               `json:"flags,omitempty"`
	Bot          *BotInfo            `json:"bot,omitempty"`
}

// Relationship is one entry of the session user's relation list.
type Relationship struct {
	ID     UserID             `json:"_id"`
	Status RelationshipStatus `json:"status"`
}

// UserStatus is the custom status of a user.
type UserStatus struct {
	Text     *string   `json:"text,omitempty"`
	Presence *Presence `json:"presence,omitempty"`
}

// UserProfile is the long-form profile of a user.
type UserProfile struct {
	Content    *string     `json:"content,omitempty"`
	Background *Attachment `json:"background,omitempty"`
}

// BotInfo marks a user as a bot account.
type BotInfo struct {
	Owner UserID `json:"owner"`
}

// Key returns the user id.
func (u User) Key() UserID {
	return u.ID
}

// IsBot reports whether the user is a bot account.
func (u User) IsBot() bool {
	return u.Bot != nil
}

// Clone returns a deep copy.
func (u User) Clone() User {
	cloned := u
	cloned.Avatar = clonePtr(u.Avatar)
	cloned.Relations = slices.Clone(u.Relations)
	cloned.Status = cloneStatus(u.Status)
	cloned.Profile = cloneProfile(u.Profile)
	cloned.Relationship = clonePtr(u.Relationship)
	cloned.Bot = clonePtr(u.Bot)

	return cloned
}

func cloneStatus(status *UserStatus) *UserStatus {
	if status == nil {
		return nil
	}

	return &UserStatus{
		Text:     clonePtr(status.Text),
		Presence: clonePtr(status.Presence),
	}
}

func cloneProfile(profile *UserProfile) *UserProfile {
	if profile == nil {
		return nil
	}

	return &UserProfile{
		Content:    clonePtr(profile.Content),
		Background: clonePtr(profile.Background),
	}
}

// PartialUser carries the user fields set by a UserUpdate.
//
// Status and Profile replace the whole nested object when present.
type PartialUser struct {
	Username     *string             `json:"username,omitempty"`
	Avatar       *Attachment         `json:"avatar,omitempty"`
	Badges       *int64              `json:"badges,omitempty"`
	Status       *UserStatus         `json:"status,omitempty"`
	Profile      *UserProfile        `json:"profile,omitempty"`
	Relationship *RelationshipStatus `json:"relationship,omitempty"`
	Online       *bool               `json:"online,omitempty"`
	Flags        *int64              `json:"flags,omitempty"`
}

// WithPatch returns a copy with every field present in patch overwritten.
func (u User) WithPatch(patch PartialUser) User {
	next := u.Clone()
	if patch.Username != nil {
		next.Username = *patch.Username
	}
	if patch.Avatar != nil {
		next.Avatar = clonePtr(patch.Avatar)
	}
	if patch.Badges != nil {
		next.Badges = *patch.Badges
	}
	if patch.Status != nil {
		next.Status = cloneStatus(patch.Status)
	}
	if patch.Profile != nil {
		next.Profile = cloneProfile(patch.Profile)
	}
	if patch.Relationship != nil {
		next.Relationship = clonePtr(patch.Relationship)
	}
	if patch.Online != nil {
		next.Online = *patch.Online
	}
	if patch.Flags != nil {
		next.Flags = *patch.Flags
	}

	return next
}

// WithCleared returns a copy with the listed fields reset.
//
// Nested fields are cleared in place; the enclosing object is kept.
func (u User) WithCleared(fields []UserField) User {
	next := u.Clone()
	for _, field := range fields {
		switch field {
		case UserFieldAvatar:
			next.Avatar = nil
		case UserFieldStatusText:
			if next.Status != nil {
				next.Status.Text = nil
			}
		case UserFieldProfileContent:
			if next.Profile != nil {
				next.Profile.Content = nil
			}
		case UserFieldProfileBackground:
			if next.Profile != nil {
				next.Profile.Background = nil
			}
		}
	}

	return next
}
