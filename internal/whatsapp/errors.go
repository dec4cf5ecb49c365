package whatsapp

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidRecipient  = errors.New("invalid WhatsApp number")
	ErrRateLimited       = errors.New("rate limit detected")
	ErrElementNotFound   = errors.New("WhatsApp UI element not found")
	ErrUploadFailed      = errors.New("media upload failed")
	ErrAmbiguousDelivery = errors.New("send status unclear - no delivery confirmation found")
	ErrSessionExpired    = errors.New("session expired - QR scan required")
	ErrInjectionFailed   = errors.New("could not enter message text")
	ErrChatLoad          = errors.New("timeout waiting for chat to load")
)

// ElementNotFoundError lists every strategy tried for a target.
type ElementNotFoundError struct {
	Target string
	Tried  []string
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("failed to find %s - tried %d methods: %s",
		e.Target, len(e.Tried), strings.Join(e.Tried, ", "))
}

func (e *ElementNotFoundError) Is(target error) bool { return target == ErrElementNotFound }

// RateLimitError carries the phrase that matched.
type RateLimitError struct {
	Phrase string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("RATE LIMIT DETECTED: %s", e.Phrase)
}

func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }

// Status tags a send outcome.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailed
	StatusAmbiguous
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	case StatusAmbiguous:
		return "ambiguous"
	}
	return "unknown"
}

// Result is the outcome of one send. Err is set for failed and ambiguous
// results and always matches one of the sentinel errors above.
type Result struct {
	Status Status
	Method string // injection method that entered the text, if any
	Err    error
}

func (r Result) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

func success(method string) Result { return Result{Status: StatusSuccess, Method: method} }

func failure(err error) Result { return Result{Status: StatusFailed, Err: err} }

func ambiguous() Result { return Result{Status: StatusAmbiguous, Err: ErrAmbiguousDelivery} }
