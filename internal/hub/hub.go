package hub

import (
	"sync"

	"viewsync/internal/logging"
)

// AliasStore persists the identity -> alias mapping independently of live
// connection state.
type AliasStore interface {
	Load() (map[string]string, error)
	Save(aliases map[string]string) error
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger overrides the hub's component logger.
func WithLogger(logger logging.Logger) Option {
	return func(h *Hub) { h.logger = logging.OrNop(logger) }
}

// WithOutboxCapacity sets the per-session outbox bound.
func WithOutboxCapacity(capacity int) Option {
	return func(h *Hub) {
		if capacity > 0 {
			h.capacity = capacity
		}
	}
}

// Hub owns the set of live sessions, the persisted aliases and the global
// version counter. All operations are safe for concurrent use; a single
// coarse lock guards sessions, aliases and version.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	aliases  map[string]string
	version  int64

	capacity int
	store    AliasStore
	logger   logging.Logger

	done      chan struct{}
	closeOnce sync.Once

	metrics hubMetrics
}

const defaultOutboxCapacity = 256

// New creates a Hub and restores the alias mapping from the store. A nil
// store keeps aliases in memory only.
func New(store AliasStore, opts ...Option) *Hub {
	h := &Hub{
		sessions: make(map[string]*Session),
		aliases:  make(map[string]string),
		capacity: defaultOutboxCapacity,
		store:    store,
		logger:   logging.NewComponentLogger("Hub"),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	if store != nil {
		aliases, err := store.Load()
		if err != nil {
			h.logger.Warn("Failed to load aliases: %v", err)
		} else if len(aliases) > 0 {
			h.aliases = aliases
			h.logger.Info("Restored %d client aliases", len(aliases))
		}
	}
	return h
}

// Register creates a session for the identity, restoring any persisted
// alias. Re-registering an identity overwrites the prior session; its
// stream loop is expected to notice the disconnect on its own.
func (h *Hub) Register(id, userAgent, ipAddress string) *Session {
	session := newSession(id, userAgent, ipAddress, h.capacity)

	h.mu.Lock()
	if alias, ok := h.aliases[id]; ok {
		session.setAlias(alias)
	}
	h.sessions[id] = session
	total := len(h.sessions)
	h.mu.Unlock()

	h.metrics.connected()
	h.logger.Info("Client registered: %s (total: %d)", id, total)
	return session
}

// Unregister removes the session for the identity. Unknown identities are
// a no-op.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	_, ok := h.sessions[id]
	if ok {
		delete(h.sessions, id)
	}
	remaining := len(h.sessions)
	h.mu.Unlock()

	if ok {
		h.metrics.disconnected()
		h.logger.Info("Client unregistered: %s (remaining: %d)", id, remaining)
	}
}

// SetAlias updates the alias for the identity, live session or not, and
// persists the mapping. Persistence is best-effort: a failed write is
// logged and the in-memory state stays updated.
func (h *Hub) SetAlias(id, alias string) {
	h.mu.Lock()
	h.aliases[id] = alias
	if session, ok := h.sessions[id]; ok {
		session.setAlias(alias)
	}
	snapshot := make(map[string]string, len(h.aliases))
	for k, v := range h.aliases {
		snapshot[k] = v
	}
	h.mu.Unlock()

	// The durable write runs outside the critical section to keep lock
	// hold time bounded.
	if h.store != nil {
		if err := h.store.Save(snapshot); err != nil {
			h.logger.Warn("Failed to persist aliases: %v", err)
		}
	}
}

// GetClient returns the live session for the identity, if any.
func (h *Hub) GetClient(id string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	session, ok := h.sessions[id]
	return session, ok
}

// ListClients returns a snapshot of every connected session.
func (h *Hub) ListClients() []Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	list := make([]Snapshot, 0, len(h.sessions))
	for _, session := range h.sessions {
		list = append(list, session.Snapshot())
	}
	return list
}

// Count returns the number of connected sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Version returns the current global version counter.
func (h *Hub) Version() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.version
}

// Broadcast increments the version once and enqueues the stamped event on
// every connected session except exclude (empty string excludes nobody).
// Per-recipient queue overflows are logged and skipped; they never abort
// delivery to the remaining sessions.
func (h *Hub) Broadcast(eventType string, data map[string]any, exclude string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.version++
	event := &Event{
		Type:      eventType,
		Data:      data,
		Timestamp: Timestamp(),
		Version:   h.version,
	}

	delivered := 0
	for id, session := range h.sessions {
		if exclude != "" && id == exclude {
			continue
		}
		if err := session.Enqueue(event); err != nil {
			h.metrics.dropped()
			h.logger.Warn("Broadcast to %s failed: %v", id, err)
			continue
		}
		delivered++
	}
	h.metrics.sent(delivered)
	h.logger.Debug("Broadcast %s v%d to %d clients", eventType, event.Version, delivered)
}

// SendToClient enqueues one stamped event for the identified session and
// reports whether the client was connected. The version increments only
// when the target exists; a miss leaves the counter untouched.
func (h *Hub) SendToClient(id, eventType string, data map[string]any) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	session, ok := h.sessions[id]
	if !ok {
		return false
	}

	h.version++
	event := &Event{
		Type:      eventType,
		Data:      data,
		Timestamp: Timestamp(),
		Version:   h.version,
	}
	if err := session.Enqueue(event); err != nil {
		h.metrics.dropped()
		h.logger.Warn("Send to %s failed: %v", id, err)
		return true
	}
	h.metrics.sent(1)
	return true
}

// UpdateHeartbeat refreshes the session's lastHeartbeat; unknown
// identities are a no-op.
func (h *Hub) UpdateHeartbeat(id string) {
	h.mu.RLock()
	session, ok := h.sessions[id]
	h.mu.RUnlock()
	if ok {
		session.touchHeartbeat()
	}
}

// Done is closed when the hub shuts down; stream loops observe it as the
// process-wide shutdown signal.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Close signals all stream loops to terminate. Safe to call repeatedly.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.logger.Info("Hub shutting down")
	})
}
