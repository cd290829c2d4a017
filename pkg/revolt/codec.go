package revolt

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const discriminatorKey = "type"

type inboundVariant struct {
	required []string
	// lists must be present but may be null, which decodes as a nil slice.
	lists    []string
	decode   func(data []byte) (InboundEvent, error)
}

var inboundVariants = map[EventType]inboundVariant{
	EventTypeError:              {required: []string{"error"}, decode: decodeAs[ErrorEvent]},
	EventTypeAuthenticated:      {decode: decodeAs[AuthenticatedEvent]},
	EventTypePong:               {required: []string{"time"}, decode: decodeAs[PongEvent]},
	EventTypeReady:              {lists: []string{"users", "servers", "channels", "members"}, decode: decodeAs[ReadyEvent]},
	EventTypeMessage:            {required: []string{"_id", "channel", "author"}, decode: decodeAs[MessageEvent]},
	EventTypeMessageUpdate:      {required: []string{"id", "channel", "data"}, decode: decodeAs[MessageUpdateEvent]},
	EventTypeMessageDelete:      {required: []string{"id", "channel"}, decode: decodeAs[MessageDeleteEvent]},
	EventTypeChannelCreate:      {required: []string{"_id", "channel_type"}, decode: decodeAs[ChannelCreateEvent]},
	EventTypeChannelUpdate:      {required: []string{"id", "data"}, decode: decodeAs[ChannelUpdateEvent]},
	EventTypeChannelDelete:      {required: []string{"id"}, decode: decodeAs[ChannelDeleteEvent]},
	EventTypeChannelGroupJoin:   {required: []string{"id", "user"}, decode: decodeAs[ChannelGroupJoinEvent]},
	EventTypeChannelGroupLeave:  {required: []string{"id", "user"}, decode: decodeAs[ChannelGroupLeaveEvent]},
	EventTypeChannelStartTyping: {required: []string{"id", "user"}, decode: decodeAs[ChannelStartTypingEvent]},
	EventTypeChannelStopTyping:  {required: []string{"id", "user"}, decode: decodeAs[ChannelStopTypingEvent]},
	EventTypeChannelAck:         {required: []string{"id", "user", "message_id"}, decode: decodeAs[ChannelAckEvent]},
	EventTypeServerUpdate:       {required: []string{"id", "data"}, decode: decodeAs[ServerUpdateEvent]},
	EventTypeServerDelete:       {required: []string{"id"}, decode: decodeAs[ServerDeleteEvent]},
	EventTypeServerMemberUpdate: {required: []string{"id", "data"}, decode: decodeAs[ServerMemberUpdateEvent]},
	EventTypeServerMemberJoin:   {required: []string{"id", "user"}, decode: decodeAs[ServerMemberJoinEvent]},
	EventTypeServerMemberLeave:  {required: []string{"id", "user"}, decode: decodeAs[ServerMemberLeaveEvent]},
	EventTypeServerRoleUpdate:   {required: []string{"id", "role_id", "data"}, decode: decodeAs[ServerRoleUpdateEvent]},
	EventTypeServerRoleDelete:   {required: []string{"id", "role_id"}, decode: decodeAs[ServerRoleDeleteEvent]},
	EventTypeUserUpdate:         {required: []string{"id", "data"}, decode: decodeAs[UserUpdateEvent]},
	EventTypeUserRelationship:   {required: []string{"id", "user", "status"}, decode: decodeAs[UserRelationshipEvent]},
}

// DecodeInbound decodes one server-to-client wire message.
//
// Every failure is a *ProtocolDecodeError carrying the raw discriminator.
// Unknown keys are ignored.
func DecodeInbound(data []byte) (InboundEvent, error) {
	fields, rawType, err := splitEnvelope(data)
	if err != nil {
		return nil, err
	}

	variant, ok := inboundVariants[EventType(rawType)]
	if !ok {
		return nil, &ProtocolDecodeError{Type: rawType, Err: ErrUnknownEventType}
	}
	if err := requireFields(fields, variant.required); err != nil {
		return nil, &ProtocolDecodeError{Type: rawType, Err: err}
	}
	if err := requirePresent(fields, variant.lists); err != nil {
		return nil, &ProtocolDecodeError{Type: rawType, Err: err}
	}

	event, err := variant.decode(data)
	if err != nil {
		return nil, &ProtocolDecodeError{Type: rawType, Err: fmt.Errorf("%w: %v", ErrMalformedPayload, err)}
	}
	if checked, ok := event.(interface{ validate() error }); ok {
		if err := checked.validate(); err != nil {
			return nil, &ProtocolDecodeError{Type: rawType, Err: err}
		}
	}

	return event, nil
}

// EncodeInbound encodes a server-to-client event with its discriminator.
func EncodeInbound(event InboundEvent) ([]byte, error) {
	if event == nil {
		return nil, fmt.Errorf("encode inbound: %w", ErrNilEvent)
	}

	return encodeTagged(event.Type(), event)
}

// DecodeOutbound decodes one client-to-server wire message.
//
// An Authenticate message carrying "token" decodes as AuthenticateBot; otherwise
// it must carry the session shape.
func DecodeOutbound(data []byte) (OutboundEvent, error) {
	fields, rawType, err := splitEnvelope(data)
	if err != nil {
		return nil, err
	}

	var (
		event    OutboundEvent
		required []string
	)
	switch EventType(rawType) {
	case EventTypeAuthenticate:
		if _, bot := fields["token"]; bot {
			event, required = &AuthenticateBot{}, []string{"token"}
		} else {
			event, required = &Authenticate{}, []string{"user_id", "session_token"}
		}
	case EventTypeBeginTyping:
		event, required = &BeginTyping{}, []string{"channel"}
	case EventTypeEndTyping:
		event, required = &EndTyping{}, []string{"channel"}
	case EventTypePing:
		event, required = &Ping{}, []string{"time"}
	default:
		return nil, &ProtocolDecodeError{Type: rawType, Err: ErrUnknownEventType}
	}

	if err := requireFields(fields, required); err != nil {
		return nil, &ProtocolDecodeError{Type: rawType, Err: err}
	}
	if err := json.Unmarshal(data, event); err != nil {
		return nil, &ProtocolDecodeError{Type: rawType, Err: fmt.Errorf("%w: %v", ErrMalformedPayload, err)}
	}

	switch typed := event.(type) {
	case *AuthenticateBot:
		return *typed, nil
	case *Authenticate:
		return *typed, nil
	case *BeginTyping:
		return *typed, nil
	case *EndTyping:
		return *typed, nil
	case *Ping:
		return *typed, nil
	default:
		return nil, &ProtocolDecodeError{Type: rawType, Err: ErrUnknownEventType}
	}
}

// EncodeOutbound encodes a client-to-server event with its discriminator.
func EncodeOutbound(event OutboundEvent) ([]byte, error) {
	if event == nil {
		return nil, fmt.Errorf("encode outbound: %w", ErrNilEvent)
	}

	return encodeTagged(event.Type(), event)
}

func decodeAs[T InboundEvent](data []byte) (InboundEvent, error) {
	var event T
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}

	return event, nil
}

func splitEnvelope(data []byte) (map[string]json.RawMessage, string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, "", &ProtocolDecodeError{Err: fmt.Errorf("%w: %v", ErrMalformedPayload, err)}
	}
	if fields == nil {
		return nil, "", &ProtocolDecodeError{Err: fmt.Errorf("%w: not an object", ErrMalformedPayload)}
	}

	rawTag, ok := fields[discriminatorKey]
	if !ok {
		return nil, "", &ProtocolDecodeError{Err: fmt.Errorf("%w: %s", ErrMissingField, discriminatorKey)}
	}
	var rawType string
	if err := json.Unmarshal(rawTag, &rawType); err != nil {
		return nil, "", &ProtocolDecodeError{
			Type: string(rawTag),
			Err:  fmt.Errorf("%w: discriminator is not a string", ErrMalformedPayload),
		}
	}

	return fields, rawType, nil
}

func requireFields(fields map[string]json.RawMessage, required []string) error {
	for _, key := range required {
		raw, ok := fields[key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return fmt.Errorf("%w: %s", ErrMissingField, key)
		}
	}

	return nil
}

func requirePresent(fields map[string]json.RawMessage, keys []string) error {
	for _, key := range keys {
		if _, ok := fields[key]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingField, key)
		}
	}

	return nil
}

func encodeTagged(eventType EventType, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", eventType, err)
	}
	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("encode %s: payload is not an object", eventType)
	}
	tag, err := json.Marshal(string(eventType))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", eventType, err)
	}

	var buf bytes.Buffer
	buf.Grow(len(body) + len(tag) + 10)
	buf.WriteString(`{"` + discriminatorKey + `":`)
	buf.Write(tag)
	if len(body) > 2 {
		buf.WriteByte(',')
	}
	buf.Write(body[1:])

	return buf.Bytes(), nil
}

func (e ChannelCreateEvent) validate() error {
	switch e.ChannelType {
	case ChannelTypeSavedMessages, ChannelTypeDirectMessage, ChannelTypeGroup, ChannelTypeText, ChannelTypeVoice:
		return nil
	default:
		return fmt.Errorf("%w: unknown channel_type %q", ErrMalformedPayload, e.ChannelType)
	}
}

func (e ServerMemberUpdateEvent) validate() error {
	if e.ID.Server == "" || e.ID.User == "" {
		return fmt.Errorf("%w: member id requires server and user", ErrMissingField)
	}

	return nil
}

func (e UserRelationshipEvent) validate() error {
	if !e.Status.Valid() {
		return fmt.Errorf("%w: unknown relationship status %q", ErrMalformedPayload, e.Status)
	}

	return nil
}
