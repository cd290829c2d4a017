package revolt

import "slices"

// Server is a community owning channels, roles, and members.
type Server struct {
	ID                 ServerID               `json:"_id"`
	Owner              UserID                 `json:"owner"`
	Name               string                 `json:"name"`
	Description        *string                `json:"description,omitempty"`
	Channels           []ChannelID            `json:"channels"`
	Categories         []Category             `json:"categories,omitzero"`
	SystemMessages     *SystemMessageChannels `json:"system_messages,omitempty"`
	Roles              map[RoleID]Role        `json:"roles,omitzero"`
	DefaultPermissions Permissions            `json:"default_permissions"`
	Icon               *Attachment            `json:"icon,omitempty"`
	Banner             *Attachment            `json:"banner,omitempty"`
	NSFW               bool                   `json:"nsfw,omitempty"`
}

// Category groups server channels under a title.
type Category struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Channels []ChannelID `json:"channels"`
}

// SystemMessageChannels routes automatic server notices.
type SystemMessageChannels struct {
	UserJoined ChannelID `json:"user_joined,omitempty"`
	UserLeft   ChannelID `json:"user_left,omitempty"`
	UserKicked ChannelID `json:"user_kicked,omitempty"`
	UserBanned ChannelID `json:"user_banned,omitempty"`
}

// Key returns the server id.
func (s Server) Key() ServerID {
	return s.ID
}

// Role returns one role by id.
func (s Server) Role(id RoleID) (Role, bool) {
	role, ok := s.Roles[id]
	return role, ok
}

// Clone returns a deep copy.
func (s Server) Clone() Server {
	cloned := s
	cloned.Description = clonePtr(s.Description)
	cloned.Channels = slices.Clone(s.Channels)
	cloned.Categories = cloneCategories(s.Categories)
	cloned.SystemMessages = clonePtr(s.SystemMessages)
	cloned.Icon = clonePtr(s.Icon)
	cloned.Banner = clonePtr(s.Banner)
	if s.Roles != nil {
		cloned.Roles = make(map[RoleID]Role, len(s.Roles))
		for id, role := range s.Roles {
			cloned.Roles[id] = role.Clone()
		}
	}

	return cloned
}

func cloneCategories(categories []Category) []Category {
	if categories == nil {
		return nil
	}
	cloned := make([]Category, len(categories))
	for index, category := range categories {
		cloned[index] = Category{
			ID:       category.ID,
			Title:    category.Title,
			Channels: slices.Clone(category.Channels),
		}
	}

	return cloned
}

// PartialServer carries the server fields set by a ServerUpdate.
type PartialServer struct {
	Owner              *UserID                `json:"owner,omitempty"`
	Name               *string                `json:"name,omitempty"`
	Description        *string                `json:"description,omitempty"`
	Channels           []ChannelID            `json:"channels,omitzero"`
	Categories         []Category             `json:"categories,omitzero"`
	SystemMessages     *SystemMessageChannels `json:"system_messages,omitempty"`
	DefaultPermissions *Permissions           `json:"default_permissions,omitempty"`
	Icon               *Attachment            `json:"icon,omitempty"`
	Banner             *Attachment            `json:"banner,omitempty"`
	NSFW               *bool                  `json:"nsfw,omitempty"`
}

// WithPatch returns a copy with every field present in patch overwritten.
func (s Server) WithPatch(patch PartialServer) Server {
	next := s.Clone()
	if patch.Owner != nil {
		next.Owner = *patch.Owner
	}
	if patch.Name != nil {
		next.Name = *patch.Name
	}
	if patch.Description != nil {
		next.Description = clonePtr(patch.Description)
	}
	if patch.Channels != nil {
		next.Channels = slices.Clone(patch.Channels)
	}
	if patch.Categories != nil {
		next.Categories = cloneCategories(patch.Categories)
	}
	if patch.SystemMessages != nil {
		next.SystemMessages = clonePtr(patch.SystemMessages)
	}
	if patch.DefaultPermissions != nil {
		next.DefaultPermissions = *patch.DefaultPermissions
	}
	if patch.Icon != nil {
		next.Icon = clonePtr(patch.Icon)
	}
	if patch.Banner != nil {
		next.Banner = clonePtr(patch.Banner)
	}
	if patch.NSFW != nil {
		next.NSFW = *patch.NSFW
	}

	return next
}

// WithCleared returns a copy with the listed fields reset.
func (s Server) WithCleared(fields []ServerField) Server {
	next := s.Clone()
	for _, field := range fields {
		switch field {
		case ServerFieldDescription:
			next.Description = nil
		case ServerFieldIcon:
			next.Icon = nil
		case ServerFieldBanner:
			next.Banner = nil
		case ServerFieldCategories:
			next.Categories = nil
		case ServerFieldSystemMessages:
			next.SystemMessages = nil
		}
	}

	return next
}

// Role is a named permission set inside a server.
type Role struct {
	Name        string      `json:"name"`
	Permissions Permissions `json:"permissions"`
	Colour      *string     `json:"colour,omitempty"`
	Hoist       bool        `json:"hoist,omitempty"`
	Rank        int64       `json:"rank,omitempty"`
}

// Clone returns a deep copy.
func (r Role) Clone() Role {
	cloned := r
	cloned.Colour = clonePtr(r.Colour)

	return cloned
}

// PartialRole carries the role fields set by a ServerRoleUpdate.
type PartialRole struct {
	Name        *string      `json:"name,omitempty"`
	Permissions *Permissions `json:"permissions,omitempty"`
	Colour      *string      `json:"colour,omitempty"`
	Hoist       *bool        `json:"hoist,omitempty"`
	Rank        *int64       `json:"rank,omitempty"`
}

// WithPatch returns a copy with every field present in patch overwritten.
func (r Role) WithPatch(patch PartialRole) Role {
	next := r.Clone()
	if patch.Name != nil {
		next.Name = *patch.Name
	}
	if patch.Permissions != nil {
		next.Permissions = *patch.Permissions
	}
	if patch.Colour != nil {
		next.Colour = clonePtr(patch.Colour)
	}
	if patch.Hoist != nil {
		next.Hoist = *patch.Hoist
	}
	if patch.Rank != nil {
		next.Rank = *patch.Rank
	}

	return next
}

// WithCleared returns a copy with the listed fields reset.
func (r Role) WithCleared(fields []RoleField) Role {
	next := r.Clone()
	for _, field := range fields {
		if field == RoleFieldColour {
			next.Colour = nil
		}
	}

	return next
}

// Member is one user's presence in one server.
type Member struct {
	ID       MemberID    `json:"_id"`
	Nickname *string     `json:"nickname,omitempty"`
	Avatar   *Attachment `json:"avatar,omitempty"`
	Roles    []RoleID    `json:"roles,omitzero"`
}

// Key returns the member id.
func (m Member) Key() MemberID {
	return m.ID
}

// DisplayName returns the nickname when set.
func (m Member) DisplayName() (string, bool) {
	if m.Nickname == nil {
		return "", false
	}

	return *m.Nickname, true
}

// Clone returns a deep copy.
func (m Member) Clone() Member {
	cloned := m
	cloned.Nickname = clonePtr(m.Nickname)
	cloned.Avatar = clonePtr(m.Avatar)
	cloned.Roles = slices.Clone(m.Roles)

	return cloned
}

// PartialMember carries the member fields set by a ServerMemberUpdate.
type PartialMember struct {
	Nickname *string     `json:"nickname,omitempty"`
	Avatar   *Attachment `json:"avatar,omitempty"`
	Roles    []RoleID    `json:"roles,omitzero"`
}

// WithPatch returns a copy with every field present in patch overwritten.
func (m Member) WithPatch(patch PartialMember) Member {
	next := m.Clone()
	if patch.Nickname != nil {
		next.Nickname = clonePtr(patch.Nickname)
	}
	if patch.Avatar != nil {
		next.Avatar = clonePtr(patch.Avatar)
	}
	if patch.Roles != nil {
		next.Roles = slices.Clone(patch.Roles)
	}

	return next
}

// WithCleared returns a copy with the listed fields reset.
func (m Member) WithCleared(fields []MemberField) Member {
	next := m.Clone()
	for _, field := range fields {
		switch field {
		case MemberFieldNickname:
			next.Nickname = nil
		case MemberFieldAvatar:
			next.Avatar = nil
		case MemberFieldRoles:
			next.Roles = nil
		}
	}

	return next
}
