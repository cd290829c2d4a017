package revolt

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownEventType indicates a wire discriminator outside the protocol.
	ErrUnknownEventType = errors.New("revolt: unknown event type")
	// ErrMalformedPayload indicates a payload that does not match its variant's shape.
	ErrMalformedPayload = errors.New("revolt: malformed payload")
	// ErrMissingField indicates a required payload key was absent or null.
	ErrMissingField = errors.New("revolt: missing required field")
	// ErrNilEvent indicates a nil event was passed to an encoder or applier.
	ErrNilEvent = errors.New("revolt: nil event")
	// ErrNilFetcher indicates a resolver was constructed without a fetch collaborator.
	ErrNilFetcher = errors.New("revolt: nil fetcher")
)

// ProtocolDecodeError reports a wire message that could not be decoded.
//
// Type carries the raw discriminator as received, which may be empty when the
// message had none.
type ProtocolDecodeError struct {
	Type string
	Err  error
}

// Error returns a readable decode failure.
func (e *ProtocolDecodeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Type == "" {
		return fmt.Sprintf("revolt: decode event: %v", e.Err)
	}

	return fmt.Sprintf("revolt: decode event %q: %v", e.Type, e.Err)
}

// Unwrap exposes the structural cause.
func (e *ProtocolDecodeError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

// OrphanPatchError reports an update event for an entity with no cached base snapshot.
type OrphanPatchError struct {
	Kind EntityKind
	ID   string
}

// Error returns a readable orphan description.
func (e *OrphanPatchError) Error() string {
	if e == nil {
		return "<nil>"
	}

	return fmt.Sprintf("revolt: patch for uncached %s %s", e.Kind, e.ID)
}

// FetchError wraps a failure from the network fetch collaborator.
//
// The cause is kept verbatim and reachable through errors.Is and errors.As.
type FetchError struct {
	Kind EntityKind
	ID   string
	Err  error
}

// Error returns a readable fetch failure.
func (e *FetchError) Error() string {
	if e == nil {
		return "<nil>"
	}

	return fmt.Sprintf("revolt: fetch %s %s: %v", e.Kind, e.ID, e.Err)
}

// Unwrap exposes the collaborator error.
func (e *FetchError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}
