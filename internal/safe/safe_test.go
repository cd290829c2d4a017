package safe

import (
	"errors"
	"testing"
)

func TestCall(t *testing.T) {
	errFull := errors.New("sink full")
	tests := []struct {
		name      string
		fn        func() error
		wantErr   string
		wantPanic bool
	}{
		{
			name: "success",
			fn:   func() error { return nil },
		},
		{
			name:    "error is scoped",
			fn:      func() error { return errFull },
			wantErr: "audit: sink full",
		},
		{
			name:      "panic becomes error",
			fn:        func() error { panic("boom") },
			wantErr:   "audit: panic recovered: boom",
			wantPanic: true,
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			err := Call("audit", testCase.fn)
			if testCase.wantErr == "" {
				if err != nil {
					t.Fatalf("Call error = %v, want nil", err)
				}
				return
			}
			if err == nil || err.Error() != testCase.wantErr {
				t.Fatalf("Call error = %v, want %q", err, testCase.wantErr)
			}

			var panicErr *PanicError
			if got := errors.As(err, &panicErr); got != testCase.wantPanic {
				t.Fatalf("errors.As(*PanicError) = %v, want %v", got, testCase.wantPanic)
			}
			if testCase.wantPanic && len(panicErr.Stack) == 0 {
				t.Fatal("panic stack is empty")
			}
			if !testCase.wantPanic && !errors.Is(err, errFull) {
				t.Fatalf("Call error = %v, want wrapping %v", err, errFull)
			}
		})
	}
}
