package app

import (
	"context"
	"errors"
	"testing"

	"viewsync/internal/hub"
	"viewsync/internal/logging"
)

func newTestHub() *hub.Hub {
	return hub.New(nil, hub.WithLogger(logging.Nop()))
}

func TestSyncService_Version(t *testing.T) {
	h := newTestHub()
	svc := NewSyncService(h)

	h.Register("c1", "", "")
	h.Broadcast("theme", nil, "")

	info := svc.Version()
	if info.Version != 1 {
		t.Errorf("version = %d, want 1", info.Version)
	}
	if info.ConnectedClients != 1 {
		t.Errorf("connectedClients = %d, want 1", info.ConnectedClients)
	}
	if info.LastUpdate == "" {
		t.Error("lastUpdate should be stamped")
	}
}

func TestSyncService_Status(t *testing.T) {
	h := newTestHub()
	svc := NewSyncService(h)

	_, err := svc.Status("ghost")
	if !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound, got %v", err)
	}

	h.Register("c1", "", "")
	status, err := svc.Status("c1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.IsConnected || status.ClientID != "c1" {
		t.Errorf("unexpected status %+v", status)
	}

	global := svc.GlobalStatusReport()
	if len(global.ConnectedClients) != 1 {
		t.Errorf("global status lists %d clients, want 1", len(global.ConnectedClients))
	}
}

func TestSyncService_ForceSync(t *testing.T) {
	h := newTestHub()
	svc := NewSyncService(h)

	if err := svc.ForceSync("ghost"); !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("expected ErrClientNotFound, got %v", err)
	}
	if h.Version() != 0 {
		t.Errorf("version changed on missed force-sync: %d", h.Version())
	}

	session := h.Register("c1", "", "")
	if err := svc.ForceSync("c1"); err != nil {
		t.Fatalf("force sync: %v", err)
	}

	ev := <-session.Events()
	if ev.Type != "command" {
		t.Errorf("event type = %q, want command", ev.Type)
	}
	if cmd, _ := ev.Data["command"].(string); cmd != "force_sync" {
		t.Errorf("command = %q, want force_sync", cmd)
	}
}

func TestSyncService_BroadcastSync(t *testing.T) {
	h := newTestHub()
	svc := NewSyncService(h)

	s1 := h.Register("c1", "", "")
	s2 := h.Register("c2", "", "")

	svc.BroadcastSync()

	for _, s := range []*hub.Session{s1, s2} {
		ev := <-s.Events()
		if target, _ := ev.Data["targetClientId"].(string); target != "all" {
			t.Errorf("targetClientId = %q, want all", target)
		}
	}
}

func TestHealthChecker(t *testing.T) {
	checker := NewHealthChecker()
	if !checker.Healthy(context.Background()) {
		t.Error("empty checker should be healthy")
	}

	checker.RegisterProbe(func(ctx context.Context) ComponentHealth {
		return ComponentHealth{Name: "hub", Status: HealthStatusReady}
	})
	checker.RegisterProbe(func(ctx context.Context) ComponentHealth {
		return ComponentHealth{Name: "store", Status: HealthStatusDegraded, Message: "disk full"}
	})

	results := checker.CheckAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if checker.Healthy(context.Background()) {
		t.Error("degraded component should fail the aggregate")
	}
}
