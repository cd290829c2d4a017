// Package memory provides a bounded in-process cache with one LRU partition per
// entity kind, optional TTL expiry, and clone-on-read isolation.
package memory
