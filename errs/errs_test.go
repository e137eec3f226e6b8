package errs

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestKindOfWrapped(t *testing.T) {
	base := E(PortUnavailable, "bind", errors.New("address already in use"))
	wrapped := errors.Wrap(base, "start session")

	if got := KindOf(wrapped); got != PortUnavailable {
		t.Fatalf("KindOf = %v, want %v", got, PortUnavailable)
	}
	if !Is(wrapped, PortUnavailable) {
		t.Error("Is(wrapped, PortUnavailable) = false")
	}
	if Is(nil, PortUnavailable) {
		t.Error("Is(nil, ...) = true")
	}
	if KindOf(errors.New("plain")) != Other {
		t.Error("plain error should be Other")
	}
}

func TestCauseStopsAtClassifiedError(t *testing.T) {
	base := Errorf(DecodeError, "decode packet", "truncated type tag")
	cause := errors.Cause(errors.Wrap(base, "outer"))

	e, ok := cause.(*Error)
	if !ok {
		t.Fatalf("Cause = %T, want *Error", cause)
	}
	if e.Kind != DecodeError {
		t.Errorf("Kind = %v, want %v", e.Kind, DecodeError)
	}
	if errors.Unwrap(e) == nil {
		t.Error("Unwrap should still reach the underlying error")
	}
}

func TestErrorMessage(t *testing.T) {
	err := Errorf(MalformedArgument, "/ch1n60", "argument %q is not numeric", "abc")
	msg := err.Error()
	for _, want := range []string{"/ch1n60", "malformed argument", `"abc"`} {
		if !strings.Contains(msg, want) {
			t.Errorf("%q missing %q", msg, want)
		}
	}
}

func TestRecoverable(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{DecodeError, true},
		{MalformedArgument, true},
		{MalformedAddress, true},
		{TransportError, true},
		{DeviceError, false},
		{PortUnavailable, false},
		{DeviceOpenError, false},
		{InvalidConfig, false},
	}
	for _, tt := range tests {
		if got := tt.kind.Recoverable(); got != tt.want {
			t.Errorf("%v.Recoverable() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}
