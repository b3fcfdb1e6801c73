package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeRateLimited = "rate_limited"
	ErrCodeStore       = "store_failure"
)

// ErrConnectionGone is the stale-recipient condition: the push-delivery
// capability reports the target connection no longer exists. Delivery
// implementations wrap this sentinel so the dispatcher can evict.
var ErrConnectionGone = errors.New("connection gone")

// Error wraps a code and human-readable message.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func validationError(msg string) *Error {
	return &Error{Code: ErrCodeBadRequest, Message: msg}
}
