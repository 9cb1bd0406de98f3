package search

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// outcomes of a search session
const (
	OutcomeStopped   = "stopped"
	OutcomeExhausted = "exhausted"
	OutcomeVanished  = "vanished" // ride left SEARCHING_FOR_RIDER without Stop
	OutcomeShutdown  = "shutdown"
)

// session is the single owner of one ride's search state
type session struct {
	rideID   uuid.UUID
	attempts *atomic.Int32
	reason   *atomic.String

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func newSession(parent context.Context, rideID uuid.UUID) *session {
	ctx, cancel := context.WithCancel(parent)
	return &session{
		rideID:   rideID,
		attempts: atomic.NewInt32(0),
		reason:   atomic.NewString(""),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// stop is idempotent, the first reason wins
func (s *session) stop(reason string) {
	s.reason.CompareAndSwap("", reason)
	s.cancel()
}
