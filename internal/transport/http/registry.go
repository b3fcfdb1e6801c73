package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/coder/websocket"

	"github.com/vovakirdan/groupcast-server/internal/core"
)

// Registry tracks live sockets by connection identifier and implements
// core.Pusher against them. A push to an identifier with no live socket, or
// to a socket that has since closed, reports core.ErrConnectionGone so the
// dispatcher can evict the membership record.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*liveConn
}

// liveConn serializes writes: the broadcast fanout pushes to the same
// socket from multiple goroutines.
type liveConn struct {
	mu   sync.Mutex
	sock *websocket.Conn
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*liveConn)}
}

func (r *Registry) add(id string, sock *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &liveConn{sock: sock}
}

func (r *Registry) drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
}

// Len reports the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Push implements core.Pusher.
func (r *Registry) Push(ctx context.Context, connection string, data []byte) error {
	r.mu.RLock()
	lc, ok := r.conns[connection]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("push to %s: %w", connection, core.ErrConnectionGone)
	}

	lc.mu.Lock()
	err := lc.sock.Write(ctx, websocket.MessageText, data)
	lc.mu.Unlock()
	if err == nil {
		return nil
	}

	if errors.Is(err, net.ErrClosed) || websocket.CloseStatus(err) != -1 {
		return fmt.Errorf("push to %s: %w", connection, core.ErrConnectionGone)
	}
	return fmt.Errorf("push to %s: %w", connection, err)
}
