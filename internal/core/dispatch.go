package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/groupcast-server/internal/store"
)

// Pusher delivers a serialized payload to a single connection out-of-band.
// A gone target is reported by wrapping ErrConnectionGone; any other error
// is a generic delivery failure.
type Pusher interface {
	Push(ctx context.Context, connection string, data []byte) error
}

// DispatchReport summarizes one broadcast. Attempted always equals the group
// size at read time; the other counters partition the per-recipient outcomes.
type DispatchReport struct {
	Attempted     int
	Delivered     int
	Evicted       int
	Failed        int
	EvictFailures int
}

// Dispatcher fans a payload out to every member of a group and reconciles
// membership when a delivery reveals a dead connection.
type Dispatcher struct {
	store store.MembershipStore
	push  Pusher
	log   *zerolog.Logger
}

// NewDispatcher builds a dispatcher over the given store and push capability.
func NewDispatcher(st store.MembershipStore, push Pusher, logger *zerolog.Logger) *Dispatcher {
	return &Dispatcher{store: st, push: push, log: logger}
}

// Broadcast delivers payload to every current member of group concurrently
// and returns once all attempts have finished. An empty group is a vacuous
// success. A recipient whose connection is gone gets its membership record
// evicted (best-effort); any other per-recipient failure is recorded and
// absorbed. Only the initial membership read can fail the broadcast.
//
// Deliveries run on a context detached from ctx's cancellation: once the
// fanout starts it runs to completion even if the sender goes away.
func (d *Dispatcher) Broadcast(ctx context.Context, group string, payload *Payload) (DispatchReport, error) {
	var report DispatchReport

	members, err := d.store.MembersOf(ctx, group)
	if err != nil {
		return report, fmt.Errorf("read members of %q: %w", group, err)
	}
	if len(members) == 0 {
		return report, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return report, fmt.Errorf("marshal payload: %w", err)
	}

	report.Attempted = len(members)
	pushCtx := context.WithoutCancel(ctx)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, conn := range members {
		wg.Add(1)
		go func(conn string) {
			defer wg.Done()
			outcome := d.deliver(pushCtx, group, conn, data)
			mu.Lock()
			switch outcome {
			case deliveredOK:
				report.Delivered++
			case deliveredEvicted:
				report.Evicted++
			case deliveredEvictFailed:
				report.Evicted++
				report.EvictFailures++
			case deliveredFailed:
				report.Failed++
			}
			mu.Unlock()
		}(conn)
	}
	wg.Wait()

	d.log.Debug().
		Str("group", group).
		Int("attempted", report.Attempted).
		Int("delivered", report.Delivered).
		Int("evicted", report.Evicted).
		Int("failed", report.Failed).
		Msg("broadcast complete")

	return report, nil
}

type deliveryOutcome int

const (
	deliveredOK deliveryOutcome = iota
	deliveredEvicted
	deliveredEvictFailed
	deliveredFailed
)

func (d *Dispatcher) deliver(ctx context.Context, group, conn string, data []byte) deliveryOutcome {
	err := d.push.Push(ctx, conn, data)
	if err == nil {
		return deliveredOK
	}

	if errors.Is(err, ErrConnectionGone) {
		// Stale recipient: drop its membership record so the table heals
		// itself. Eviction failure must not affect the broadcast outcome.
		if evictErr := d.store.Remove(ctx, group, conn); evictErr != nil {
			d.log.Warn().Err(evictErr).
				Str("group", group).
				Str("connection", conn).
				Msg("failed to evict stale membership")
			return deliveredEvictFailed
		}
		d.log.Info().
			Str("group", group).
			Str("connection", conn).
			Msg("evicted stale connection")
		return deliveredEvicted
	}

	d.log.Warn().Err(err).
		Str("group", group).
		Str("connection", conn).
		Msg("delivery failed")
	return deliveredFailed
}
