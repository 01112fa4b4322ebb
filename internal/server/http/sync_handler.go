package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"viewsync/internal/server/app"
)

// SyncHandler exposes the version clock and sync status polls.
type SyncHandler struct {
	sync *app.SyncService
}

// NewSyncHandler creates the sync handler.
func NewSyncHandler(sync *app.SyncService) *SyncHandler {
	return &SyncHandler{sync: sync}
}

// Version implements GET /api/v1/sync/version.
func (h *SyncHandler) Version(c *gin.Context) {
	respondData(c, h.sync.Version())
}

// Status implements GET /api/v1/sync/status. With ?clientId= it reports one
// client; without, the fleet-wide view.
func (h *SyncHandler) Status(c *gin.Context) {
	clientID := c.Query("clientId")
	if clientID == "" {
		respondData(c, h.sync.GlobalStatusReport())
		return
	}

	status, err := h.sync.Status(clientID)
	if err != nil {
		if errors.Is(err, app.ErrClientNotFound) {
			respondError(c, http.StatusNotFound, "client not found")
			return
		}
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respondData(c, status)
}
