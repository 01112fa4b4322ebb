package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"viewsync/internal/hub"
	"viewsync/internal/logging"
	"viewsync/internal/observability"
)

// SSEHandler serves the long-lived event stream each display client keeps
// open. One goroutine per connection pumps the session outbox to the
// socket, interleaving heartbeat frames on idle.
type SSEHandler struct {
	hub       *hub.Hub
	metrics   *observability.Metrics
	logger    logging.Logger
	heartbeat time.Duration
}

// NewSSEHandler creates the stream handler.
func NewSSEHandler(h *hub.Hub, metrics *observability.Metrics, heartbeat time.Duration) *SSEHandler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &SSEHandler{
		hub:       h,
		metrics:   metrics,
		logger:    logging.NewComponentLogger("SSEHandler"),
		heartbeat: heartbeat,
	}
}

// HandleStream implements GET /api/v1/sse/events?clientId=...
func (h *SSEHandler) HandleStream(c *gin.Context) {
	clientID := c.Query("clientId")
	if clientID == "" {
		respondError(c, http.StatusBadRequest, "clientId required")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // disable nginx buffering
	c.Writer.WriteHeader(http.StatusOK)

	session := h.hub.Register(clientID, c.Request.UserAgent(), c.ClientIP())
	ctx := c.Request.Context()
	h.metrics.StreamOpened(ctx)
	// Unregister must run exactly once, whatever path exits the loop.
	defer func() {
		h.hub.Unregister(clientID)
		h.metrics.StreamClosed(ctx)
		h.logger.Info("Stream closed for client %s", clientID)
	}()

	h.logger.Info("Stream opened for client %s", clientID)

	if err := h.writeFrame(c, "connection", map[string]any{
		"status":        "connected",
		"clientId":      clientID,
		"alias":         session.Alias(),
		"serverTime":    hub.Timestamp(),
		"serverVersion": h.hub.Version(),
	}); err != nil {
		h.logger.Warn("Failed to send connection event to %s: %v", clientID, err)
		return
	}

	// Fold the hub shutdown signal into the loop context so Drain wakes
	// on peer disconnect and process shutdown alike.
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-h.hub.Done():
			cancel()
		case <-loopCtx.Done():
		}
	}()

	for {
		// Each Drain call opens a fresh idle window, so any frame
		// restarts the heartbeat interval.
		event, err := session.Drain(loopCtx, h.heartbeat)
		switch {
		case err == nil:
			if err := h.writeFrame(c, event.Type, event); err != nil {
				h.logger.Warn("Failed to send event to %s: %v", clientID, err)
				return
			}
			h.metrics.EventForwarded(ctx, event.Type)

		case errors.Is(err, hub.ErrDrainTimeout):
			h.hub.UpdateHeartbeat(clientID)
			if err := h.writeFrame(c, "heartbeat", map[string]any{
				"clientId":      clientID,
				"timestamp":     hub.Timestamp(),
				"serverVersion": h.hub.Version(),
			}); err != nil {
				h.logger.Warn("Failed to send heartbeat to %s: %v", clientID, err)
				return
			}
			h.metrics.HeartbeatSent(ctx)

		default:
			// Peer disconnect or process shutdown.
			return
		}
	}
}

// writeFrame serializes one named SSE frame: "event: <type>\ndata: <json>\n\n".
func (h *SSEHandler) writeFrame(c *gin.Context, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("serialize %s frame: %w", name, err)
	}
	if _, err := fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}
