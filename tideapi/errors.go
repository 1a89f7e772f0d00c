package tideapi

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	KindAmbiguousStation ErrorKind = iota + 1
	KindMalformedResponse
	KindNoData
	KindFallbackExceeded
	KindInsufficientData
)

func (k ErrorKind) String() string {
	switch k {
	case KindAmbiguousStation:
		return "ambiguous station"
	case KindMalformedResponse:
		return "malformed response"
	case KindNoData:
		return "no data"
	case KindFallbackExceeded:
		return "fallback distance exceeded"
	case KindInsufficientData:
		return "insufficient data"
	default:
		return "unknown"
	}
}

// Error is the single domain error of the tide API. Transport failures are
// never reported as Error.
type Error struct {
	Kind    ErrorKind
	Message string
	Info    string // diagnostic text provided by upstream, if any
	Err     error
}

var (
	ErrAmbiguousStation  = &Error{Kind: KindAmbiguousStation}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}
	ErrNoData            = &Error{Kind: KindNoData}
	ErrFallbackExceeded  = &Error{Kind: KindFallbackExceeded}
	ErrInsufficientData  = &Error{Kind: KindInsufficientData}

	ErrMissingLocation  = errors.New("query needs either a location or a station")
	ErrProviderNotReady = errors.New("provider is not ready")
	ErrResourceNotFound = errors.New("resource not found")
	ErrNoContent        = errors.New("no content available")
)

func newError(kind ErrorKind, message, info string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Info: info, Err: cause}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Info != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Info)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any Error of the same kind, so errors.Is(err, ErrNoData) works
// regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// IsDomainError reports whether err carries an Error anywhere in its chain.
func IsDomainError(err error) bool {
	var tideErr *Error
	return errors.As(err, &tideErr)
}
