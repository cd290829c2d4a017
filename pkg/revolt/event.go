package revolt

// EventType is the wire discriminator carried in the "type" key.
type EventType string

const (
	// EventTypeAuthenticate is shared by the session and bot authentication shapes.
	EventTypeAuthenticate EventType = "Authenticate"
	// EventTypeBeginTyping announces the client started typing.
	EventTypeBeginTyping EventType = "BeginTyping"
	// EventTypeEndTyping announces the client stopped typing.
	EventTypeEndTyping EventType = "EndTyping"
	// EventTypePing is the client keepalive.
	EventTypePing EventType = "Ping"

	// EventTypeError reports a server-side failure.
	EventTypeError EventType = "Error"
	// EventTypeAuthenticated confirms authentication.
	EventTypeAuthenticated EventType = "Authenticated"
	// EventTypePong answers a Ping.
	EventTypePong EventType = "Pong"
	// EventTypeReady carries the initial state snapshot.
	EventTypeReady EventType = "Ready"
	// EventTypeMessage carries a new message.
	EventTypeMessage EventType = "Message"
	// EventTypeMessageUpdate patches a message.
	EventTypeMessageUpdate EventType = "MessageUpdate"
	// EventTypeMessageDelete deletes a message.
	EventTypeMessageDelete EventType = "MessageDelete"
	// EventTypeChannelCreate carries a new channel.
	EventTypeChannelCreate EventType = "ChannelCreate"
	// EventTypeChannelUpdate patches a channel.
	EventTypeChannelUpdate EventType = "ChannelUpdate"
	// EventTypeChannelDelete deletes a channel.
	EventTypeChannelDelete EventType = "ChannelDelete"
	// EventTypeChannelGroupJoin adds a group recipient.
	EventTypeChannelGroupJoin EventType = "ChannelGroupJoin"
	// EventTypeChannelGroupLeave removes a group recipient.
	EventTypeChannelGroupLeave EventType = "ChannelGroupLeave"
	// EventTypeChannelStartTyping reports a user typing.
	EventTypeChannelStartTyping EventType = "ChannelStartTyping"
	// EventTypeChannelStopTyping reports a user stopped typing.
	EventTypeChannelStopTyping EventType = "ChannelStopTyping"
	// EventTypeChannelAck reports a read marker.
	EventTypeChannelAck EventType = "ChannelAck"
	// EventTypeServerUpdate patches a server.
	EventTypeServerUpdate EventType = "ServerUpdate"
	// EventTypeServerDelete deletes a server.
	EventTypeServerDelete EventType = "ServerDelete"
	// EventTypeServerMemberUpdate patches a member.
	EventTypeServerMemberUpdate EventType = "ServerMemberUpdate"
	// EventTypeServerMemberJoin adds a member.
	EventTypeServerMemberJoin EventType = "ServerMemberJoin"
	// EventTypeServerMemberLeave removes a member.
	EventTypeServerMemberLeave EventType = "ServerMemberLeave"
	// EventTypeServerRoleUpdate patches or creates a role.
	EventTypeServerRoleUpdate EventType = "ServerRoleUpdate"
	// EventTypeServerRoleDelete deletes a role.
	EventTypeServerRoleDelete EventType = "ServerRoleDelete"
	// EventTypeUserUpdate patches a user.
	EventTypeUserUpdate EventType = "UserUpdate"
	// EventTypeUserRelationship changes a relationship.
	EventTypeUserRelationship EventType = "UserRelationship"
)

// OutboundEvent is any message the client sends to the server.
//
// The set is closed: only types in this package implement it.
type OutboundEvent interface {
	Type() EventType
	outbound()
}

// AuthEvent is an outbound event that authenticates the connection.
type AuthEvent interface {
	OutboundEvent
	auth()
}

// Authenticate authenticates a user session.
type Authenticate struct {
	UserID       UserID `json:"user_id"`
	SessionToken string `json:"session_token"`
}

// AuthenticateBot authenticates a bot token.
type AuthenticateBot struct {
	Token string `json:"token"`
}

// BeginTyping announces typing in channel.
type BeginTyping struct {
	Channel ChannelID `json:"channel"`
}

// EndTyping announces typing ended in channel.
type EndTyping struct {
	Channel ChannelID `json:"channel"`
}

// Ping is the keepalive; Time is echoed back in the matching Pong.
type Ping struct {
	Time uint32 `json:"time"`
	// Data is a fixed one-element array some servers require alongside Time.
	Data [1]uint8 `json:"data"`
}

func (Authenticate) Type() EventType    { return EventTypeAuthenticate }
func (AuthenticateBot) Type() EventType { return EventTypeAuthenticate }
func (BeginTyping) Type() EventType     { return EventTypeBeginTyping }
func (EndTyping) Type() EventType       { return EventTypeEndTyping }
func (Ping) Type() EventType            { return EventTypePing }

func (Authenticate) outbound()    {}
func (AuthenticateBot) outbound() {}
func (BeginTyping) outbound()     {}
func (EndTyping) outbound()       {}
func (Ping) outbound()            {}

func (Authenticate) auth()    {}
func (AuthenticateBot) auth() {}

// InboundEvent is any message the server sends to the client.
//
// The set is closed: only types in this package implement it, so a type switch
// with a default branch covers every variant.
type InboundEvent interface {
	Type() EventType
	inbound()
}

// ErrorEvent reports a server-side failure such as an invalid session.
type ErrorEvent struct {
	Message string `json:"error"`
}

// AuthenticatedEvent confirms the connection is authenticated.
type AuthenticatedEvent struct{}

// PongEvent answers a Ping with the same Time.
type PongEvent struct {
	Time uint32 `json:"time"`
}

// ReadyEvent is the state snapshot delivered once after authentication.
type ReadyEvent struct {
	Users    []User    `json:"users"`
	Servers  []Server  `json:"servers"`
	Channels []Channel `json:"channels"`
	Members  []Member  `json:"members"`
}

// MessageEvent carries a complete new message inline.
type MessageEvent struct {
	Message
}

// MessageUpdateEvent patches a message.
type MessageUpdateEvent struct {
	ID      MessageID      `json:"id"`
	Channel ChannelID      `json:"channel"`
	Data    PartialMessage `json:"data"`
}

// MessageDeleteEvent deletes a message.
type MessageDeleteEvent struct {
	ID      MessageID `json:"id"`
	Channel ChannelID `json:"channel"`
}

// ChannelCreateEvent carries a complete new channel inline.
type ChannelCreateEvent struct {
	Channel
}

// ChannelUpdateEvent patches and clears channel fields.
type ChannelUpdateEvent struct {
	ID    ChannelID              `json:"id"`
	Data  PartialChannel         `json:"data"`
	Clear ClearSet[ChannelField] `json:"clear,omitzero"`
}

// ChannelDeleteEvent deletes a channel.
type ChannelDeleteEvent struct {
	ID ChannelID `json:"id"`
}

// ChannelGroupJoinEvent adds user to a group channel.
type ChannelGroupJoinEvent struct {
	ID   ChannelID `json:"id"`
	User UserID    `json:"user"`
}

// ChannelGroupLeaveEvent removes user from a group channel.
type ChannelGroupLeaveEvent struct {
	ID   ChannelID `json:"id"`
	User UserID    `json:"user"`
}

// ChannelStartTypingEvent reports user typing in a channel.
type ChannelStartTypingEvent struct {
	ID   ChannelID `json:"id"`
	User UserID    `json:"user"`
}

// ChannelStopTypingEvent reports user stopped typing in a channel.
type ChannelStopTypingEvent struct {
	ID   ChannelID `json:"id"`
	User UserID    `json:"user"`
}

// ChannelAckEvent reports user read a channel up to MessageID.
type ChannelAckEvent struct {
	ID        ChannelID `json:"id"`
	User      UserID    `json:"user"`
	MessageID MessageID `json:"message_id"`
}

// ServerUpdateEvent patches and clears server fields.
type ServerUpdateEvent struct {
	ID    ServerID              `json:"id"`
	Data  PartialServer         `json:"data"`
	Clear ClearSet[ServerField] `json:"clear,omitzero"`
}

// ServerDeleteEvent deletes a server.
type ServerDeleteEvent struct {
	ID ServerID `json:"id"`
}

// ServerMemberUpdateEvent patches and clears member fields.
type ServerMemberUpdateEvent struct {
	ID    MemberID              `json:"id"`
	Data  PartialMember         `json:"data"`
	Clear ClearSet[MemberField] `json:"clear,omitzero"`
}

// ServerMemberJoinEvent adds user to server.
type ServerMemberJoinEvent struct {
	ID   ServerID `json:"id"`
	User UserID   `json:"user"`
}

// ServerMemberLeaveEvent removes user from server.
type ServerMemberLeaveEvent struct {
	ID   ServerID `json:"id"`
	User UserID   `json:"user"`
}

// ServerRoleUpdateEvent patches, clears, or creates a role.
type ServerRoleUpdateEvent struct {
	ID     ServerID            `json:"id"`
	RoleID RoleID              `json:"role_id"`
	Data   PartialRole         `json:"data"`
	Clear  ClearSet[RoleField] `json:"clear,omitzero"`
}

// ServerRoleDeleteEvent deletes a role.
type ServerRoleDeleteEvent struct {
	ID     ServerID `json:"id"`
	RoleID RoleID   `json:"role_id"`
}

// UserUpdateEvent patches and clears user fields.
type UserUpdateEvent struct {
	ID    UserID              `json:"id"`
	Data  PartialUser         `json:"data"`
	Clear ClearSet[UserField] `json:"clear,omitzero"`
}

// UserRelationshipEvent changes how User relates to the session user ID.
type UserRelationshipEvent struct {
	ID     UserID             `json:"id"`
	User   UserID             `json:"user"`
	Status RelationshipStatus `json:"status"`
}

func (ErrorEvent) Type() EventType              { return EventTypeError }
func (AuthenticatedEvent) Type() EventType      { return EventTypeAuthenticated }
func (PongEvent) Type() EventType               { return EventTypePong }
func (ReadyEvent) Type() EventType              { return EventTypeReady }
func (MessageEvent) Type() EventType            { return EventTypeMessage }
func (MessageUpdateEvent) Type() EventType      { return EventTypeMessageUpdate }
func (MessageDeleteEvent) Type() EventType      { return EventTypeMessageDelete }
func (ChannelCreateEvent) Type() EventType      { return EventTypeChannelCreate }
func (ChannelUpdateEvent) Type() EventType      { return EventTypeChannelUpdate }
func (ChannelDeleteEvent) Type() EventType      { return EventTypeChannelDelete }
func (ChannelGroupJoinEvent) Type() EventType   { return EventTypeChannelGroupJoin }
func (ChannelGroupLeaveEvent) Type() EventType  { return EventTypeChannelGroupLeave }
func (ChannelStartTypingEvent) Type() EventType { return EventTypeChannelStartTyping }
func (ChannelStopTypingEvent) Type() EventType  { return EventTypeChannelStopTyping }
func (ChannelAckEvent) Type() EventType         { return EventTypeChannelAck }
func (ServerUpdateEvent) Type() EventType       { return EventTypeServerUpdate }
func (ServerDeleteEvent) Type() EventType       { return EventTypeServerDelete }
func (ServerMemberUpdateEvent) Type() EventType { return EventTypeServerMemberUpdate }
func (ServerMemberJoinEvent) Type() EventType   { return EventTypeServerMemberJoin }
func (ServerMemberLeaveEvent) Type() EventType  { return EventTypeServerMemberLeave }
func (ServerRoleUpdateEvent) Type() EventType   { return EventTypeServerRoleUpdate }
func (ServerRoleDeleteEvent) Type() EventType   { return EventTypeServerRoleDelete }
func (UserUpdateEvent) Type() EventType         { return EventTypeUserUpdate }
func (UserRelationshipEvent) Type() EventType   { return EventTypeUserRelationship }

func (ErrorEvent) inbound()              {}
func (AuthenticatedEvent) inbound()      {}
func (PongEvent) inbound()               {}
func (ReadyEvent) inbound()              {}
func (MessageEvent) inbound()            {}
func (MessageUpdateEvent) inbound()      {}
func (MessageDeleteEvent) inbound()      {}
func (ChannelCreateEvent) inbound()      {}
func (ChannelUpdateEvent) inbound()      {}
func (ChannelDeleteEvent) inbound()      {}
func (ChannelGroupJoinEvent) inbound()   {}
func (ChannelGroupLeaveEvent) inbound()  {}
func (ChannelStartTypingEvent) inbound() {}
func (ChannelStopTypingEvent) inbound()  {}
func (ChannelAckEvent) inbound()         {}
func (ServerUpdateEvent) inbound()       {}
func (ServerDeleteEvent) inbound()       {}
func (ServerMemberUpdateEvent) inbound() {}
func (ServerMemberJoinEvent) inbound()   {}
func (ServerMemberLeaveEvent) inbound()  {}
func (ServerRoleUpdateEvent) inbound()   {}
func (ServerRoleDeleteEvent) inbound()   {}
func (UserUpdateEvent) inbound()         {}
func (UserRelationshipEvent) inbound()   {}
