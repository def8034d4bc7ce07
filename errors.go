package wsclient

import "errors"

// ErrorKind classifies the taxonomy of errors a Handle can surface.
type ErrorKind int

const (
	// ErrMissedParameter indicates pre-connect validation failed: a
	// required URL component or the mandatory OnDisconnected callback
	// is missing.
	ErrMissedParameter ErrorKind = iota
	// ErrConnect indicates the TCP connect (or DNS resolution) failed.
	ErrConnect
	// ErrTLSNotSupported is reserved; this module accepts only plaintext
	// TCP.
	ErrTLSNotSupported
	// ErrReadWriteSocket indicates a socket I/O failure while open or
	// closing.
	ErrReadWriteSocket
	// ErrParseHandshake indicates the HTTP/1.1 upgrade response was
	// malformed, carried the wrong status, or failed header validation.
	ErrParseHandshake
	// ErrProtocolError indicates a frame violated RFC 6455 framing rules.
	ErrProtocolError
)

func (k ErrorKind) String() string {
	switch k {
	case ErrMissedParameter:
		return "missed_parameter"
	case ErrConnect:
		return "connect"
	case ErrTLSNotSupported:
		return "tls_not_supported"
	case ErrReadWriteSocket:
		return "read_write_socket"
	case ErrParseHandshake:
		return "parse_handshake"
	case ErrProtocolError:
		return "protocol_error"
	default:
		return "unknown"
	}
}

// Error is the library's error type: a kind, a human description, an
// optional HTTP status (set only for ErrParseHandshake when the status
// line was well-formed), and an optionally wrapped underlying error.
type Error struct {
	Kind       ErrorKind
	Message    string
	HTTPStatus int // 0 when not applicable
	Err        error
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

// Unwrap exposes the wrapped error, if any, to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports kind-equality against another *Error, mirroring the
// Code-equality convention used elsewhere in the corpus for this same
// concern; otherwise it defers to the wrapped error.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return errors.Is(e.Err, target)
}
