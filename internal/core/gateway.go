package core

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/groupcast-server/internal/ratelimit"
	"github.com/vovakirdan/groupcast-server/internal/store"
)

// Gateway handles the three transport events: connect, inbound message,
// disconnect. It returns a Status per event; the transport maps that onto
// whatever acknowledgment its protocol uses.
type Gateway struct {
	store    store.MembershipStore
	limiter  ratelimit.Limiter
	dispatch *Dispatcher
	log      *zerolog.Logger
	now      func() time.Time
}

// NewGateway wires the gateway over its collaborators.
func NewGateway(st store.MembershipStore, limiter ratelimit.Limiter, push Pusher, logger *zerolog.Logger) *Gateway {
	return &Gateway{
		store:    st,
		limiter:  limiter,
		dispatch: NewDispatcher(st, push, logger),
		log:      logger,
		now:      time.Now,
	}
}

// Connect registers the connection under group, or DefaultGroup when the
// client supplied none. Fails only if the durable write fails.
func (g *Gateway) Connect(ctx context.Context, connection, group string) Status {
	if group == "" {
		group = DefaultGroup
	}

	if err := g.store.Join(ctx, group, connection); err != nil {
		g.log.Error().Err(err).Str("connection", connection).Str("group", group).Msg("join failed")
		return StatusInternalError
	}

	g.log.Info().Str("connection", connection).Str("group", group).Msg("connection joined")
	return StatusAccepted
}

// Disconnect removes the connection from whichever group it belongs to,
// found by reverse lookup. A connection with no record is a silent no-op.
// Cleans at most one record: a connection is in at most one group.
func (g *Gateway) Disconnect(ctx context.Context, connection string) Status {
	m, err := g.store.FindGroupFor(ctx, connection)
	if errors.Is(err, store.ErrNotFound) {
		return StatusAccepted
	}
	if err != nil {
		g.log.Error().Err(err).Str("connection", connection).Msg("reverse lookup failed")
		return StatusInternalError
	}

	if err := g.store.Remove(ctx, m.Group, m.Connection); err != nil {
		g.log.Error().Err(err).Str("connection", connection).Str("group", m.Group).Msg("remove failed")
		return StatusInternalError
	}

	g.log.Info().Str("connection", connection).Str("group", m.Group).Msg("connection left")
	return StatusAccepted
}

// Message handles an inbound message from connection: validate, rate-limit,
// stamp, broadcast. Per-recipient failures inside the broadcast never fail
// the sender's request; once the fanout has been attempted the outcome is
// accepted.
func (g *Gateway) Message(ctx context.Context, connection string, raw []byte) Status {
	if len(raw) == 0 {
		return StatusBadRequest
	}

	msg, verr := ParseMessage(raw)
	if verr != nil {
		g.log.Debug().Str("connection", connection).Str("reason", verr.Message).Msg("message rejected")
		return StatusBadRequest
	}

	if !g.limiter.Allow(ctx, connection, g.now()) {
		g.log.Debug().Str("connection", connection).Msg("sender throttled")
		return StatusRateLimited
	}

	payload := NewPayload(msg.Sender, msg.Body, g.now())

	if _, err := g.dispatch.Broadcast(ctx, msg.Group, payload); err != nil {
		g.log.Error().Err(err).Str("group", msg.Group).Msg("broadcast failed")
		return StatusInternalError
	}

	return StatusAccepted
}
