package hub

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSession_EnqueueBound(t *testing.T) {
	s := newSession("c1", "", "", 2)

	if err := s.Enqueue(&Event{Type: "a"}); err != nil {
		t.Fatalf("enqueue 1: %v", err)
	}
	if err := s.Enqueue(&Event{Type: "b"}); err != nil {
		t.Fatalf("enqueue 2: %v", err)
	}
	if err := s.Enqueue(&Event{Type: "c"}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestSession_DrainFIFO(t *testing.T) {
	s := newSession("c1", "", "", 8)
	for _, typ := range []string{"first", "second", "third"} {
		if err := s.Enqueue(&Event{Type: typ}); err != nil {
			t.Fatalf("enqueue %s: %v", typ, err)
		}
	}

	for _, want := range []string{"first", "second", "third"} {
		ev, err := s.Drain(context.Background(), time.Second)
		if err != nil {
			t.Fatalf("drain: %v", err)
		}
		if ev.Type != want {
			t.Errorf("drained %q, want %q", ev.Type, want)
		}
	}
}

func TestSession_DrainTimeout(t *testing.T) {
	s := newSession("c1", "", "", 1)

	start := time.Now()
	_, err := s.Drain(context.Background(), 20*time.Millisecond)
	if !errors.Is(err, ErrDrainTimeout) {
		t.Fatalf("expected ErrDrainTimeout, got %v", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("drain returned before the timeout elapsed")
	}
}

func TestSession_DrainCancel(t *testing.T) {
	s := newSession("c1", "", "", 1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := s.Drain(ctx, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSession_DrainWakesOnEnqueue(t *testing.T) {
	s := newSession("c1", "", "", 1)

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = s.Enqueue(&Event{Type: "late"})
	}()

	ev, err := s.Drain(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if ev.Type != "late" {
		t.Errorf("drained %q, want late", ev.Type)
	}
}
