package hub

import "sync"

// hubMetrics tracks delivery counters for the status surface.
type hubMetrics struct {
	mu sync.Mutex

	totalEventsSent   int64
	droppedEvents     int64
	totalConnections  int64
	activeConnections int64
}

func (m *hubMetrics) sent(n int) {
	m.mu.Lock()
	m.totalEventsSent += int64(n)
	m.mu.Unlock()
}

func (m *hubMetrics) dropped() {
	m.mu.Lock()
	m.droppedEvents++
	m.mu.Unlock()
}

func (m *hubMetrics) connected() {
	m.mu.Lock()
	m.totalConnections++
	m.activeConnections++
	m.mu.Unlock()
}

func (m *hubMetrics) disconnected() {
	m.mu.Lock()
	m.activeConnections--
	m.mu.Unlock()
}

// Metrics is the exported counter snapshot.
type Metrics struct {
	TotalEventsSent   int64 `json:"total_events_sent"`
	DroppedEvents     int64 `json:"dropped_events"`
	TotalConnections  int64 `json:"total_connections"`
	ActiveConnections int64 `json:"active_connections"`
}

// Metrics returns current delivery counters.
func (h *Hub) Metrics() Metrics {
	h.metrics.mu.Lock()
	defer h.metrics.mu.Unlock()
	return Metrics{
		TotalEventsSent:   h.metrics.totalEventsSent,
		DroppedEvents:     h.metrics.droppedEvents,
		TotalConnections:  h.metrics.totalConnections,
		ActiveConnections: h.metrics.activeConnections,
	}
}
