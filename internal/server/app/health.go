package app

import (
	"context"
	"sync"
)

// HealthStatus classifies a component probe result.
type HealthStatus string

const (
	HealthStatusReady    HealthStatus = "ready"
	HealthStatusDegraded HealthStatus = "degraded"
)

// ComponentHealth is one probe result.
type ComponentHealth struct {
	Name    string         `json:"name"`
	Status  HealthStatus   `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthProbe checks one component.
type HealthProbe func(ctx context.Context) ComponentHealth

// HealthChecker aggregates component probes for the health endpoint.
type HealthChecker struct {
	mu     sync.RWMutex
	probes []HealthProbe
}

// NewHealthChecker creates an empty health checker.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{}
}

// RegisterProbe adds a component probe.
func (h *HealthChecker) RegisterProbe(probe HealthProbe) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.probes = append(h.probes, probe)
}

// CheckAll runs every probe and returns the results.
func (h *HealthChecker) CheckAll(ctx context.Context) []ComponentHealth {
	h.mu.RLock()
	defer h.mu.RUnlock()
	results := make([]ComponentHealth, 0, len(h.probes))
	for _, probe := range h.probes {
		results = append(results, probe(ctx))
	}
	return results
}

// Healthy reports whether every component is ready.
func (h *HealthChecker) Healthy(ctx context.Context) bool {
	for _, result := range h.CheckAll(ctx) {
		if result.Status != HealthStatusReady {
			return false
		}
	}
	return true
}
