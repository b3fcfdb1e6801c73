package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryAllowsFirstSend(t *testing.T) {
	m := NewMemory(time.Second)

	if !m.Allow(context.Background(), "conn-1", time.Now()) {
		t.Fatal("first send from an unseen connection must be allowed")
	}
}

func TestMemoryBlocksInsideWindow(t *testing.T) {
	m := NewMemory(time.Second)
	base := time.Now()

	if !m.Allow(context.Background(), "c", base) {
		t.Fatal("first send must be allowed")
	}

	for _, delta := range []time.Duration{0, time.Millisecond, 500 * time.Millisecond, 999 * time.Millisecond} {
		if m.Allow(context.Background(), "c", base.Add(delta)) {
			t.Fatalf("send at +%v must be blocked", delta)
		}
	}

	if !m.Allow(context.Background(), "c", base.Add(time.Second)) {
		t.Fatal("send at exactly the window boundary must be allowed")
	}
}

func TestMemoryRejectionDoesNotSlideWindow(t *testing.T) {
	m := NewMemory(time.Second)
	base := time.Now()

	m.Allow(context.Background(), "c", base)

	// Hammering during the window must not push the window forward: the
	// attempt one second after the original accept still passes.
	for _, delta := range []time.Duration{200, 400, 600, 800} {
		m.Allow(context.Background(), "c", base.Add(delta*time.Millisecond))
	}
	if !m.Allow(context.Background(), "c", base.Add(time.Second)) {
		t.Fatal("rejections advanced the window")
	}
}

func TestMemoryConnectionsAreIndependent(t *testing.T) {
	m := NewMemory(time.Second)
	now := time.Now()

	if !m.Allow(context.Background(), "a", now) {
		t.Fatal("first send from a must be allowed")
	}
	if !m.Allow(context.Background(), "b", now) {
		t.Fatal("a's window must not throttle b")
	}
}

func TestMemoryConcurrentDistinctConnections(t *testing.T) {
	m := NewMemory(time.Second)
	now := time.Now()

	var wg sync.WaitGroup
	results := make([]bool, 50)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = m.Allow(context.Background(), fmt.Sprintf("conn-%d", i), now)
		}(i)
	}
	wg.Wait()

	for i, ok := range results {
		if !ok {
			t.Fatalf("connection %d was throttled on its first send", i)
		}
	}
}

func TestMemorySameConnectionConcurrentSends(t *testing.T) {
	m := NewMemory(time.Second)
	now := time.Now()

	var wg sync.WaitGroup
	allowed := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- m.Allow(context.Background(), "same", now)
		}()
	}
	wg.Wait()
	close(allowed)

	n := 0
	for ok := range allowed {
		if ok {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("expected exactly one of the concurrent sends to pass, got %d", n)
	}
}
