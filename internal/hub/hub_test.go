package hub

import (
	"testing"

	"viewsync/internal/logging"
)

func newTestHub(opts ...Option) *Hub {
	opts = append([]Option{WithLogger(logging.Nop())}, opts...)
	return New(nil, opts...)
}

func TestHub_RegisterUnregisterCount(t *testing.T) {
	h := newTestHub()

	h.Register("c1", "", "")
	h.Register("c2", "", "")
	if got := h.Count(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	// Re-registering the same identity must not grow the count.
	h.Register("c1", "ua", "127.0.0.1")
	if got := h.Count(); got != 2 {
		t.Fatalf("expected 2 clients after re-register, got %d", got)
	}

	h.Unregister("c1")
	if got := h.Count(); got != 1 {
		t.Fatalf("expected 1 client after unregister, got %d", got)
	}

	// Unregistering an unknown identity is a no-op.
	h.Unregister("ghost")
	if got := h.Count(); got != 1 {
		t.Fatalf("expected 1 client after no-op unregister, got %d", got)
	}
}

func TestHub_BroadcastDeliversToAllConnected(t *testing.T) {
	h := newTestHub()

	s1 := h.Register("c1", "", "")
	s2 := h.Register("c2", "", "")

	h.Broadcast("theme", map[string]any{"name": "dark"}, "")

	for _, s := range []*Session{s1, s2} {
		select {
		case ev := <-s.Events():
			if ev.Type != "theme" {
				t.Errorf("client %s got event type %q, want theme", s.ID(), ev.Type)
			}
			if ev.Version != 1 {
				t.Errorf("client %s got version %d, want 1", s.ID(), ev.Version)
			}
		default:
			t.Errorf("client %s received no event", s.ID())
		}
	}

	// A client that connects after the broadcast sees nothing.
	s3 := h.Register("c3", "", "")
	if got := s3.Pending(); got != 0 {
		t.Errorf("late client has %d queued events, want 0", got)
	}
}

func TestHub_BroadcastExcludesIdentity(t *testing.T) {
	h := newTestHub()

	origin := h.Register("origin", "", "")
	other := h.Register("other", "", "")

	h.Broadcast("building", map[string]any{"id": "b1"}, "origin")

	if got := origin.Pending(); got != 0 {
		t.Errorf("excluded client has %d queued events, want 0", got)
	}
	if got := other.Pending(); got != 1 {
		t.Errorf("other client has %d queued events, want 1", got)
	}
}

func TestHub_BroadcastVersionStrictlyIncreases(t *testing.T) {
	h := newTestHub()
	s := h.Register("c1", "", "")

	h.Broadcast("floor", nil, "")
	h.Broadcast("floor", nil, "")
	h.Broadcast("floor", nil, "")

	var last int64
	for i := 0; i < 3; i++ {
		ev := <-s.Events()
		if ev.Version <= last {
			t.Fatalf("version not strictly increasing: %d after %d", ev.Version, last)
		}
		last = ev.Version
	}
	if h.Version() != 3 {
		t.Fatalf("hub version = %d, want 3", h.Version())
	}
}

func TestHub_SendToClient(t *testing.T) {
	h := newTestHub()
	s := h.Register("c1", "", "")

	if h.SendToClient("absent", "command", nil) {
		t.Error("send to disconnected identity should return false")
	}
	if got := h.Version(); got != 0 {
		t.Errorf("version changed on missed send: %d", got)
	}

	if !h.SendToClient("c1", "command", map[string]any{"command": "force_sync"}) {
		t.Fatal("send to connected identity should return true")
	}
	if got := h.Version(); got != 1 {
		t.Errorf("version = %d after targeted send, want 1", got)
	}
	if got := s.Pending(); got != 1 {
		t.Errorf("target outbox has %d events, want 1", got)
	}
	ev := <-s.Events()
	if ev.Version != 1 || ev.Type != "command" {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestHub_BroadcastIncrementsEvenWithNoRecipients(t *testing.T) {
	h := newTestHub()
	h.Broadcast("theme", nil, "")
	if got := h.Version(); got != 1 {
		t.Fatalf("version = %d after empty broadcast, want 1", got)
	}
}

func TestHub_QueueFullDropsWithoutAborting(t *testing.T) {
	h := newTestHub(WithOutboxCapacity(1))

	full := h.Register("full", "", "")
	healthy := h.Register("healthy", "", "")

	h.Broadcast("media", nil, "")
	// The second broadcast overflows "full" but must still reach "healthy".
	h.Broadcast("media", nil, "")

	if got := full.Pending(); got != 1 {
		t.Errorf("full client has %d events, want 1", got)
	}
	if got := healthy.Pending(); got != 2 {
		t.Errorf("healthy client has %d events, want 2", got)
	}
	if got := h.Version(); got != 2 {
		t.Errorf("version = %d, want 2 (drops never roll back)", got)
	}
	if m := h.Metrics(); m.DroppedEvents != 1 {
		t.Errorf("dropped counter = %d, want 1", m.DroppedEvents)
	}
}

func TestHub_SetAliasUpdatesLiveSession(t *testing.T) {
	h := newTestHub()
	s := h.Register("c1", "", "")

	h.SetAlias("c1", "Lobby")
	if got := s.Alias(); got != "Lobby" {
		t.Errorf("live alias = %q, want Lobby", got)
	}

	// Alias for a disconnected identity is kept and restored on register.
	h.SetAlias("c2", "Annex")
	s2 := h.Register("c2", "", "")
	if got := s2.Alias(); got != "Annex" {
		t.Errorf("restored alias = %q, want Annex", got)
	}
}

func TestHub_UpdateHeartbeat(t *testing.T) {
	h := newTestHub()
	s := h.Register("c1", "", "")
	before := s.LastHeartbeat()

	h.UpdateHeartbeat("c1")
	if s.LastHeartbeat() < before {
		t.Errorf("heartbeat went backwards: %s -> %s", before, s.LastHeartbeat())
	}

	// Unknown identity must not panic.
	h.UpdateHeartbeat("ghost")
}

func TestHub_ListClientsSnapshots(t *testing.T) {
	h := newTestHub()
	h.Register("c1", "agent/1.0", "10.0.0.5")
	h.SetAlias("c1", "Lobby")

	list := h.ListClients()
	if len(list) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(list))
	}
	snap := list[0]
	if snap.ClientID != "c1" || snap.Alias != "Lobby" || snap.UserAgent != "agent/1.0" || !snap.IsOnline {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestHub_CloseSignalsDone(t *testing.T) {
	h := newTestHub()
	select {
	case <-h.Done():
		t.Fatal("done closed before Close")
	default:
	}

	h.Close()
	h.Close() // idempotent

	select {
	case <-h.Done():
	default:
		t.Fatal("done not closed after Close")
	}
}
