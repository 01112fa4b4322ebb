package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"viewsync/internal/hub"
	"viewsync/internal/logging"
	"viewsync/internal/server/app"
)

// ClientsHandler is the admin console surface over the registry: listing
// connected displays, renaming them and pushing commands.
type ClientsHandler struct {
	hub    *hub.Hub
	sync   *app.SyncService
	logger logging.Logger
}

// NewClientsHandler creates the clients admin handler.
func NewClientsHandler(h *hub.Hub, sync *app.SyncService) *ClientsHandler {
	return &ClientsHandler{
		hub:    h,
		sync:   sync,
		logger: logging.NewComponentLogger("ClientsHandler"),
	}
}

// List implements GET /api/v1/clients.
func (h *ClientsHandler) List(c *gin.Context) {
	respondData(c, gin.H{
		"clients":    h.hub.ListClients(),
		"totalCount": h.hub.Count(),
	})
}

// Get implements GET /api/v1/clients/:clientId.
func (h *ClientsHandler) Get(c *gin.Context) {
	clientID := c.Param("clientId")
	session, ok := h.hub.GetClient(clientID)
	if !ok {
		respondError(c, http.StatusNotFound, "client not found")
		return
	}
	respondData(c, session.Snapshot())
}

type aliasRequest struct {
	Alias string `json:"alias" binding:"required"`
}

// UpdateAlias implements PATCH /api/v1/clients/:clientId/alias. The alias is
// persisted whether or not the client is currently connected; a connected
// client is additionally told about its new name.
func (h *ClientsHandler) UpdateAlias(c *gin.Context) {
	clientID := c.Param("clientId")
	var req aliasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "alias required")
		return
	}

	h.hub.SetAlias(clientID, req.Alias)
	h.logger.Info("Alias for %s set to %q", clientID, req.Alias)

	h.hub.SendToClient(clientID, "connection", map[string]any{
		"status":   "alias_updated",
		"clientId": clientID,
		"alias":    req.Alias,
	})

	respondMessage(c, "alias updated", gin.H{
		"clientId": clientID,
		"alias":    req.Alias,
	})
}

type commandRequest struct {
	Command string         `json:"command" binding:"required"`
	Params  map[string]any `json:"params"`
}

// SendCommand implements POST /api/v1/clients/:clientId/command.
func (h *ClientsHandler) SendCommand(c *gin.Context) {
	clientID := c.Param("clientId")
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "command required")
		return
	}

	commandID := uuid.NewString()
	delivered := h.hub.SendToClient(clientID, "command", map[string]any{
		"commandId":      commandID,
		"command":        req.Command,
		"targetClientId": clientID,
		"params":         req.Params,
	})
	if !delivered {
		respondError(c, http.StatusNotFound, "client not connected")
		return
	}

	h.logger.Info("Command %s (%s) sent to %s", req.Command, commandID, clientID)
	respondMessage(c, "command sent", gin.H{
		"commandId": commandID,
		"clientId":  clientID,
		"command":   req.Command,
	})
}

// ForceSync implements POST /api/v1/clients/:clientId/force-sync.
func (h *ClientsHandler) ForceSync(c *gin.Context) {
	clientID := c.Param("clientId")
	if err := h.sync.ForceSync(clientID); err != nil {
		if errors.Is(err, app.ErrClientNotFound) {
			respondError(c, http.StatusNotFound, "client not connected")
			return
		}
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respondMessage(c, "force sync issued", gin.H{"clientId": clientID})
}

// BroadcastSync implements POST /api/v1/clients/broadcast-sync.
func (h *ClientsHandler) BroadcastSync(c *gin.Context) {
	h.sync.BroadcastSync()
	respondMessage(c, "broadcast sync issued", gin.H{
		"connectedClients": h.hub.Count(),
	})
}

// ResetCache implements POST /api/v1/clients/:clientId/reset-cache.
func (h *ClientsHandler) ResetCache(c *gin.Context) {
	clientID := c.Param("clientId")
	delivered := h.hub.SendToClient(clientID, "command", map[string]any{
		"command":        "reset_cache",
		"targetClientId": clientID,
	})
	if !delivered {
		respondError(c, http.StatusNotFound, "client not connected")
		return
	}
	respondMessage(c, "cache reset issued", gin.H{"clientId": clientID})
}

// ResetAllCaches implements POST /api/v1/clients/reset-all-cache.
func (h *ClientsHandler) ResetAllCaches(c *gin.Context) {
	h.hub.Broadcast("command", map[string]any{
		"command":        "reset_cache",
		"targetClientId": "all",
	}, "")
	respondMessage(c, "cache reset broadcast", gin.H{
		"connectedClients": h.hub.Count(),
	})
}
