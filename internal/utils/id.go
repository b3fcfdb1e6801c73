package utils

import "github.com/google/uuid"

// NewConnectionID returns an opaque identifier for a freshly accepted
// connection. The rest of the system never inspects its structure.
func NewConnectionID() string {
	return uuid.NewString()
}
