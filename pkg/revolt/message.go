package revolt

import (
	"encoding/json"
	"slices"
)

// Message is one message posted to a channel.
type Message struct {
	ID          MessageID         `json:"_id"`
	Nonce       string            `json:"nonce,omitempty"`
	Channel     ChannelID         `json:"channel"`
	Author      UserID            `json:"author"`
	Content     string            `json:"content,omitempty"`
	System      *SystemMessage    `json:"system,omitempty"`
	Attachments []Attachment      `json:"attachments,omitzero"`
	Edited      *Date             `json:"edited,omitempty"`
	Embeds      []json.RawMessage `json:"embeds,omitzero"`
	Mentions    []UserID          `json:"mentions,omitzero"`
	Replies     []MessageID       `json:"replies,omitzero"`
}

// SystemMessage is the automatic notice carried by system-authored messages.
type SystemMessage struct {
	Type    string `json:"type"`
	ID      UserID `json:"id,omitempty"`
	By      UserID `json:"by,omitempty"`
	Name    string `json:"name,omitempty"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Content string `json:"content,omitempty"`
}

// ReplyData references a message being replied to.
type ReplyData struct {
	ID      MessageID `json:"id"`
	Mention bool      `json:"mention"`
}

// Key returns the message id.
func (m Message) Key() MessageID {
	return m.ID
}

// MentionsUser reports whether user is mentioned.
func (m Message) MentionsUser(user UserID) bool {
	return slices.Contains(m.Mentions, user)
}

// Clone returns a deep copy.
func (m Message) Clone() Message {
	cloned := m
	cloned.System = clonePtr(m.System)
	cloned.Attachments = slices.Clone(m.Attachments)
	cloned.Edited = clonePtr(m.Edited)
	cloned.Embeds = cloneRawMessages(m.Embeds)
	cloned.Mentions = slices.Clone(m.Mentions)
	cloned.Replies = slices.Clone(m.Replies)

	return cloned
}

func cloneRawMessages(raw []json.RawMessage) []json.RawMessage {
	if raw == nil {
		return nil
	}
	cloned := make([]json.RawMessage, len(raw))
	for index, item := range raw {
		cloned[index] = slices.Clone(item)
	}

	return cloned
}

// PartialMessage carries the message fields set by a MessageUpdate.
type PartialMessage struct {
	Content *string           `json:"content,omitempty"`
	Edited  *Date             `json:"edited,omitempty"`
	Embeds  []json.RawMessage `json:"embeds,omitzero"`
}

// WithPatch returns a copy with every field present in patch overwritten.
func (m Message) WithPatch(patch PartialMessage) Message {
	next := m.Clone()
	if patch.Content != nil {
		next.Content = *patch.Content
	}
	if patch.Edited != nil {
		next.Edited = clonePtr(patch.Edited)
	}
	if patch.Embeds != nil {
		next.Embeds = cloneRawMessages(patch.Embeds)
	}

	return next
}

// MessageField is the empty clear-field set of messages; no message field is clearable.
type MessageField string

// Valid reports false for every value.
func (MessageField) Valid() bool {
	return false
}

// WithCleared returns a copy; messages carry no clearable fields.
func (m Message) WithCleared([]MessageField) Message {
	return m.Clone()
}
