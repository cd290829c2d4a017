package revolt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Attachment describes an uploaded file referenced by entities.
type Attachment struct {
	ID          AttachmentID       `json:"_id"`
	Tag         string             `json:"tag"`
	Size        int64              `json:"size"`
	Filename    string             `json:"filename"`
	Metadata    AttachmentMetadata `json:"metadata"`
	ContentType string             `json:"content_type"`
}

// AttachmentMetadata carries the media classification of an attachment.
type AttachmentMetadata struct {
	Type   string `json:"type"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Date is a wire timestamp.
//
// It decodes RFC 3339 strings and the legacy {"$date": "..."} object form and
// always encodes as an RFC 3339 string.
type Date struct {
	time.Time
}

// MarshalJSON encodes the timestamp as RFC 3339 with nanoseconds.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON accepts both timestamp encodings.
func (d *Date) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)

	var raw string
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var legacy struct {
			Date string `json:"$date"`
		}
		if err := json.Unmarshal(trimmed, &legacy); err != nil {
			return fmt.Errorf("decode legacy date: %w", err)
		}
		raw = legacy.Date
	} else if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("decode date: %w", err)
	}

	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return fmt.Errorf("%w: date %q: %v", ErrMalformedPayload, raw, err)
	}
	d.Time = parsed.UTC()

	return nil
}

// Permissions is the [server, channel] permission bitfield pair.
type Permissions [2]uint64

func clonePtr[T any](value *T) *T {
	if value == nil {
		return nil
	}
	copied := *value

	return &copied
}

func valuePtr[T any](value T) *T {
	return &value
}
