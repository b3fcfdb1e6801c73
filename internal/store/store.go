package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by FindGroupFor when the connection has no
// membership record.
var ErrNotFound = errors.New("membership not found")

// Membership is a single (group, connection) row. The pair is the primary
// key; there are no other attributes.
type Membership struct {
	Group      string
	Connection string
}

// MembershipStore persists the group -> connections mapping.
//
// Invariant: a connection belongs to at most one group at a time. The store
// does not enforce this beyond the primary key shape; the connect/disconnect
// flow maintains it, and FindGroupFor relies on it (it returns a single
// record even if the table were ever to hold more).
//
// Implementations do not retry failed operations; callers surface failures
// as handler-level errors.
type MembershipStore interface {
	// Join records the pair. Idempotent: re-joining the same pair is not an
	// error and leaves a single record.
	Join(ctx context.Context, group, connection string) error

	// Remove deletes the pair. Idempotent: removing an absent pair is not an
	// error.
	Remove(ctx context.Context, group, connection string) error

	// MembersOf returns all connection identifiers recorded under group, in
	// unspecified order. Unknown groups yield an empty slice.
	MembersOf(ctx context.Context, group string) ([]string, error)

	// FindGroupFor scans the table for the connection's record. Returns
	// ErrNotFound when the connection is not a member of any group.
	FindGroupFor(ctx context.Context, connection string) (*Membership, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying resources.
	Close() error
}
