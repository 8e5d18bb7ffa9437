package db

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type State string

const (
	StateUnknown      State = "unknown"
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Supervisor watches a Pinger and logs transitions. Reconnection itself is
// left to the pool; onConnect runs every time the store becomes reachable.
type Supervisor struct {
	pinger    Pinger
	log       *slog.Logger
	interval  time.Duration
	onConnect func(ctx context.Context) error

	mu    sync.RWMutex
	state State
}

func NewSupervisor(p Pinger, log *slog.Logger, interval time.Duration, onConnect func(ctx context.Context) error) *Supervisor {
	if interval <= 0 {
		interval = 5 * time.Second
	}

	return &Supervisor{
		pinger:    p,
		log:       log,
		interval:  interval,
		onConnect: onConnect,
		state:     StateUnknown,
	}
}

func (s *Supervisor) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Check pings once and records the resulting state.
func (s *Supervisor) Check(ctx context.Context) State {
	err := s.pinger.Ping(ctx)

	s.mu.Lock()
	prev := s.state

	if err != nil {
		s.state = StateDisconnected
		s.mu.Unlock()

		switch prev {
		case StateConnected:
			s.log.Warn("db disconnected", "err", err)
		case StateUnknown:
			s.log.Error("db connection error", "err", err)
		default:
			s.log.Debug("db still unreachable", "err", err)
		}
		return StateDisconnected
	}

	s.state = StateConnected
	s.mu.Unlock()

	if prev != StateConnected {
		s.log.Info("db connected")

		if s.onConnect != nil {
			if hookErr := s.onConnect(ctx); hookErr != nil {
				s.log.Error("db on-connect hook failed", "err", hookErr)
			}
		}
	}

	return StateConnected
}

func (s *Supervisor) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkCtx, cancel := context.WithTimeout(ctx, s.interval)
			s.Check(checkCtx)
			cancel()
		}
	}
}
