package core

// Status is the outcome of handling a single transport event. Values mirror
// HTTP status codes so transports can pass them through directly.
type Status int

const (
	StatusAccepted      Status = 200
	StatusBadRequest    Status = 400
	StatusRateLimited   Status = 429
	StatusInternalError Status = 500
)

// Text returns a short human-readable description for rejection statuses.
func (s Status) Text() string {
	switch s {
	case StatusAccepted:
		return "accepted"
	case StatusBadRequest:
		return "bad request"
	case StatusRateLimited:
		return "too many messages, slow down"
	default:
		return "internal error"
	}
}
