// Package safe runs callbacks with panics turned into errors.
package safe

import (
	"fmt"
	"runtime/debug"
)

// PanicError is returned by Call when fn panics.
type PanicError struct {
	Scope string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s: panic recovered: %v", e.Scope, e.Value)
}

// Call runs fn and prefixes its error, or a recovered panic, with scope.
func Call(scope string, fn func() error) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = &PanicError{Scope: scope, Value: recovered, Stack: debug.Stack()}
		}
	}()

	if err := fn(); err != nil {
		return fmt.Errorf("%s: %w", scope, err)
	}

	return nil
}
