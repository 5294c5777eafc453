package embedding

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind separates failures a caller may want to retry (rate limits)
// from those it normally should not (auth, malformed responses).
type ErrorKind int

const (
	KindTransport ErrorKind = iota
	KindAuth
	KindRateLimit
	KindBadResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate-limit"
	case KindBadResponse:
		return "bad-response"
	default:
		return "transport"
	}
}

var (
	errEmptyInput  = errors.New("input text is empty")
	errNoEmbedding = errors.New("backend returned no embedding")
)

// Error is the typed failure for embedding calls.
type Error struct {
	Kind  ErrorKind
	Model string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("embedding (%s, model %s): %v", e.Kind, e.Model, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the failure is worth retrying by a caller that
// chooses to. The client itself never retries.
func (e *Error) Retryable() bool { return e.Kind == KindRateLimit }

// classify maps a transport-layer error onto an ErrorKind. The underlying
// client only exposes the HTTP status inside the message, so this sniffs it.
func classify(err error) ErrorKind {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") ||
		strings.Contains(strings.ToLower(msg), "unauthorized") ||
		strings.Contains(strings.ToLower(msg), "api key"):
		return KindAuth
	case strings.Contains(msg, "429") || strings.Contains(strings.ToLower(msg), "rate limit"):
		return KindRateLimit
	case strings.Contains(strings.ToLower(msg), "unmarshal") || strings.Contains(strings.ToLower(msg), "decode"):
		return KindBadResponse
	default:
		return KindTransport
	}
}
