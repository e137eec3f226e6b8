package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failure by how the bridge reacts to it.
type Kind int

const (
	Other Kind = iota
	InvalidConfig
	PortUnavailable
	DeviceOpenError
	DecodeError
	MalformedArgument
	MalformedAddress
	TransportError
	DeviceError
	SessionActive
)

func (k Kind) String() string {
	switch k {
	case InvalidConfig:
		return "invalid config"
	case PortUnavailable:
		return "port unavailable"
	case DeviceOpenError:
		return "device open error"
	case DecodeError:
		return "decode error"
	case MalformedArgument:
		return "malformed argument"
	case MalformedAddress:
		return "malformed address"
	case TransportError:
		return "transport error"
	case DeviceError:
		return "device error"
	case SessionActive:
		return "session active"
	default:
		return "error"
	}
}

// Recoverable reports whether the kind only costs the current message.
// Loops log these and keep going.
func (k Kind) Recoverable() bool {
	switch k {
	case DecodeError, MalformedArgument, MalformedAddress, TransportError:
		return true
	}
	return false
}

// Error carries a Kind and the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a classified error. err may be nil.
func E(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds a classified error from a format string.
func Errorf(kind Kind, op string, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: errors.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost classified error in the chain,
// or Other.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
