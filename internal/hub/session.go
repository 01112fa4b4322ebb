package hub

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrQueueFull reports that a session's outbox is at capacity and the
	// event was dropped rather than blocking the sender.
	ErrQueueFull = errors.New("session outbox full")

	// ErrDrainTimeout reports that no event arrived within the wait window.
	ErrDrainTimeout = errors.New("drain timed out")
)

// Session is the server-side state for one connected display client.
// Identity and connection metadata are immutable for the session's
// lifetime; the alias is updated only through Hub.SetAlias and the
// heartbeat only through Hub.UpdateHeartbeat.
type Session struct {
	id          string
	userAgent   string
	ipAddress   string
	connectedAt string

	mu            sync.RWMutex
	alias         string
	lastHeartbeat string

	outbox chan *Event
}

func newSession(id, userAgent, ipAddress string, capacity int) *Session {
	now := Timestamp()
	return &Session{
		id:            id,
		userAgent:     userAgent,
		ipAddress:     ipAddress,
		connectedAt:   now,
		lastHeartbeat: now,
		outbox:        make(chan *Event, capacity),
	}
}

// ID returns the client identity this session belongs to.
func (s *Session) ID() string { return s.id }

// Alias returns the current display alias, empty when unset.
func (s *Session) Alias() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alias
}

func (s *Session) setAlias(alias string) {
	s.mu.Lock()
	s.alias = alias
	s.mu.Unlock()
}

// LastHeartbeat returns the timestamp of the most recent heartbeat tick.
func (s *Session) LastHeartbeat() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastHeartbeat
}

func (s *Session) touchHeartbeat() {
	s.mu.Lock()
	s.lastHeartbeat = Timestamp()
	s.mu.Unlock()
}

// Enqueue appends an event to the session's outbox without blocking.
func (s *Session) Enqueue(event *Event) error {
	select {
	case s.outbox <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Events exposes the outbox for the single consuming stream loop.
func (s *Session) Events() <-chan *Event {
	return s.outbox
}

// Drain blocks until an event is queued, the timeout elapses
// (ErrDrainTimeout) or the context is cancelled.
func (s *Session) Drain(ctx context.Context, timeout time.Duration) (*Event, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case event := <-s.outbox:
		return event, nil
	case <-timer.C:
		return nil, ErrDrainTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Pending returns the number of queued, undelivered events.
func (s *Session) Pending() int {
	return len(s.outbox)
}

// Snapshot is the immutable API projection of a session.
type Snapshot struct {
	ClientID      string `json:"clientId"`
	Alias         string `json:"alias"`
	ConnectedAt   string `json:"connectedAt"`
	LastHeartbeat string `json:"lastHeartbeat"`
	UserAgent     string `json:"userAgent"`
	IPAddress     string `json:"ipAddress"`
	IsOnline      bool   `json:"isOnline"`
}

// Snapshot captures the session state for API responses.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ClientID:      s.id,
		Alias:         s.alias,
		ConnectedAt:   s.connectedAt,
		LastHeartbeat: s.lastHeartbeat,
		UserAgent:     s.userAgent,
		IPAddress:     s.ipAddress,
		IsOnline:      true,
	}
}
