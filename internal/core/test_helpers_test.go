package core

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/groupcast-server/internal/store"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

// fakeStore is an in-memory store.MembershipStore that counts calls and can
// fail on demand.
type fakeStore struct {
	mu         sync.Mutex
	rows       map[string]string // connection -> group
	failJoin   error
	failQuery  error
	failRemove error

	joinCalls   int
	removeCalls int
	queryCalls  int
	findCalls   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]string)}
}

func (f *fakeStore) Join(_ context.Context, group, connection string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joinCalls++
	if f.failJoin != nil {
		return f.failJoin
	}
	f.rows[connection] = group
	return nil
}

func (f *fakeStore) Remove(_ context.Context, group, connection string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeCalls++
	if f.failRemove != nil {
		return f.failRemove
	}
	if f.rows[connection] == group {
		delete(f.rows, connection)
	}
	return nil
}

func (f *fakeStore) MembersOf(_ context.Context, group string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryCalls++
	if f.failQuery != nil {
		return nil, f.failQuery
	}
	members := make([]string, 0)
	for conn, g := range f.rows {
		if g == group {
			members = append(members, conn)
		}
	}
	return members, nil
}

func (f *fakeStore) FindGroupFor(_ context.Context, connection string) (*store.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findCalls++
	group, ok := f.rows[connection]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &store.Membership{Group: group, Connection: connection}, nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }
func (f *fakeStore) Close() error               { return nil }

func (f *fakeStore) groupOf(connection string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.rows[connection]
	return g, ok
}

func (f *fakeStore) storeCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.joinCalls + f.removeCalls + f.queryCalls + f.findCalls
}

// fakePusher records deliveries and fails scripted connections.
type fakePusher struct {
	mu        sync.Mutex
	pushes    map[string][][]byte
	errs      map[string]error
	attempted int
}

func newFakePusher() *fakePusher {
	return &fakePusher{
		pushes: make(map[string][][]byte),
		errs:   make(map[string]error),
	}
}

func (f *fakePusher) failWith(connection string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[connection] = err
}

func (f *fakePusher) Push(_ context.Context, connection string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempted++
	if err, ok := f.errs[connection]; ok {
		return err
	}
	f.pushes[connection] = append(f.pushes[connection], data)
	return nil
}

func (f *fakePusher) received(connection string) [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pushes[connection]
}

func (f *fakePusher) attempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempted
}

// allowAll is a ratelimit.Limiter that never throttles.
type allowAll struct{}

func (allowAll) Allow(context.Context, string, time.Time) bool { return true }
