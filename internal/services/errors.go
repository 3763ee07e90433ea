package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a service failure.
type ErrorKind int

const (
	// KindInvalidInput means caller supplied data failed a precondition.
	KindInvalidInput ErrorKind = iota + 1
	// KindNotFound means the referenced user or location does not exist.
	KindNotFound
	// KindConfiguration means the server is missing required configuration.
	KindConfiguration
	// KindUpstream means a third-party service failed or returned an unexpected shape.
	KindUpstream
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindConfiguration:
		return "configuration"
	case KindUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by every service operation.
type Error struct {
	Kind    ErrorKind
	Message string

	// StatusCode and Body describe the upstream response for KindUpstream
	// failures that came from an HTTP error. Zero and empty otherwise.
	StatusCode int
	Body       string

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind, true
	}
	return 0, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	got, ok := KindOf(err)
	return ok && got == kind
}

func invalidInput(message string) error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

func notFound(message string, cause error) error {
	return &Error{Kind: KindNotFound, Message: message, Err: cause}
}
