package arxivfeed

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrTransport      = errors.New("transport failure")
	ErrParsing        = errors.New("feed not decodable")
)

// InvalidRequestError reports a category/parameter combination that cannot be
// turned into a request. It is returned before any request is sent.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return "invalid request: " + e.Reason
}

func (e *InvalidRequestError) Is(target error) bool {
	return target == ErrInvalidRequest
}

func invalidRequest(format string, args ...any) error {
	return &InvalidRequestError{Reason: fmt.Sprintf(format, args...)}
}

// TransportError reports a non-2xx status or a network-level failure.
// StatusCode is zero when no response was received.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: http %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// ParsingError reports a response body that could not be decoded at all.
// A feed with zero entries is not an error.
type ParsingError struct {
	Err error
}

func (e *ParsingError) Error() string {
	return "parse feed: " + e.Err.Error()
}

func (e *ParsingError) Unwrap() error {
	return e.Err
}

func (e *ParsingError) Is(target error) bool {
	return target == ErrParsing
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsInvalidRequest reports whether err was caused by a bad request.
func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}

// IsParsing reports whether err is a decoding failure.
func IsParsing(err error) bool {
	return errors.Is(err, ErrParsing)
}
