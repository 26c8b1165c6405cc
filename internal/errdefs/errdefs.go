// Package errdefs defines the error taxonomy shared by registrar clients, AWS
// managers and the provisioning pipeline.
//
// Every remote failure is classified into a Kind regardless of which backend
// raised it, so callers inspect errors with KindOf or the Is* helpers instead of
// branching on provider identity.
package errdefs

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies an error.
type Kind int

// Error kinds.
const (
	KindUnknown Kind = iota
	KindNetwork
	KindServer
	KindRateLimit
	KindAuth
	KindNotFound
	KindUnavailable
	KindValidation
	KindInsufficientFunds
	KindUnsupported
	KindTimeout
	KindTerminalState
)

var kindNames = map[Kind]string{
	KindUnknown:           "unknown",
	KindNetwork:           "network",
	KindServer:            "server",
	KindRateLimit:         "rate-limit",
	KindAuth:              "auth",
	KindNotFound:          "not-found",
	KindUnavailable:       "unavailable",
	KindValidation:        "validation",
	KindInsufficientFunds: "insufficient-funds",
	KindUnsupported:       "unsupported",
	KindTimeout:           "timeout",
	KindTerminalState:     "terminal-state",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Transient reports whether errors of this kind are worth retrying.
func (k Kind) Transient() bool {
	switch k {
	case KindNetwork, KindServer, KindRateLimit:
		return true
	default:
		return false
	}
}

// Error is a classified error.
type Error struct {
	Kind       Kind
	Op         string
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.String() + " error"
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error with a message.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the outermost classified error in err's chain.
// Unclassified context and network errors are mapped on the fly.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindUnknown
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	return KindUnknown
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	return KindOf(err).Transient()
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool { return KindOf(err) == KindAuth }

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsUnavailable reports whether err is a conflict / domain-unavailable failure.
func IsUnavailable(err error) bool { return KindOf(err) == KindUnavailable }

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsTimeout reports whether err is a polling deadline failure.
func IsTimeout(err error) bool { return KindOf(err) == KindTimeout }

// IsTerminalState reports whether a remote resource reached a failure state.
func IsTerminalState(err error) bool { return KindOf(err) == KindTerminalState }

// IsUnsupported reports whether the backend lacks the requested capability.
func IsUnsupported(err error) bool { return KindOf(err) == KindUnsupported }

// FromHTTPStatus maps a registrar HTTP status code to a kind.
func FromHTTPStatus(status int) Kind {
	switch {
	case status == http.StatusBadRequest:
		return KindValidation
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusPaymentRequired:
		return KindInsufficientFunds
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict, status == http.StatusUnprocessableEntity:
		return KindUnavailable
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// HTTPError builds a classified error for a non-2xx registrar response.
func HTTPError(op string, status int, message string) *Error {
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{
		Kind:       FromHTTPStatus(status),
		Op:         op,
		Message:    fmt.Sprintf("HTTP %d: %s", status, message),
		StatusCode: status,
	}
}
