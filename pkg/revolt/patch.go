package revolt

// Entity is the constraint satisfied by every cacheable entity kind.
type Entity[ID comparable, E any] interface {
	// Key returns the identifier the entity is cached under.
	Key() ID
	// Clone returns a deep copy that shares no mutable state with the receiver.
	Clone() E
}

// Patchable is the constraint satisfied by entities that accept partial updates.
type Patchable[E any, P any, F FieldTag] interface {
	// WithPatch returns a copy with every field present in the patch overwritten.
	WithPatch(patch P) E
	// WithCleared returns a copy with the listed fields reset to their empty state.
	WithCleared(fields []F) E
}

// ApplyPatch applies patch onto existing, then resets every field in clears.
//
// Clears run after the patch, so a field both set and cleared ends up cleared.
// Fields named by neither are left unchanged. existing is never mutated.
func ApplyPatch[E Patchable[E, P, F], P any, F FieldTag](existing E, patch P, clears []F) E {
	patched := existing.WithPatch(patch)
	if len(clears) == 0 {
		return patched
	}

	return patched.WithCleared(clears)
}
