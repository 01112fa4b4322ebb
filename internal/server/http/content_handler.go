package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"viewsync/internal/content"
	"viewsync/internal/hub"
	"viewsync/internal/logging"
)

// maxUploadBytes bounds media uploads.
const maxUploadBytes = 20 << 20

// ContentHandler serves the building/floor/theme/media documents. Every
// mutation broadcasts a change event so connected displays refresh.
type ContentHandler struct {
	store  *content.Store
	media  *content.MediaLibrary
	hub    *hub.Hub
	logger logging.Logger
}

// NewContentHandler creates the content handler.
func NewContentHandler(store *content.Store, media *content.MediaLibrary, h *hub.Hub) *ContentHandler {
	return &ContentHandler{
		store:  store,
		media:  media,
		hub:    h,
		logger: logging.NewComponentLogger("ContentHandler"),
	}
}

func (h *ContentHandler) broadcast(eventType, action, id string) {
	h.hub.Broadcast(eventType, map[string]any{
		"action": action,
		"id":     id,
	}, "")
}

// ListBuildings implements GET /api/v1/buildings.
func (h *ContentHandler) ListBuildings(c *gin.Context) {
	respondData(c, gin.H{"buildings": h.store.ListBuildings()})
}

// GetBuilding implements GET /api/v1/buildings/:buildingId.
func (h *ContentHandler) GetBuilding(c *gin.Context) {
	doc, err := h.store.GetBuilding(c.Param("buildingId"))
	if err != nil {
		respondError(c, http.StatusNotFound, "building not found")
		return
	}
	respondData(c, doc)
}

// CreateBuilding implements POST /api/v1/buildings. The server assigns the
// identifier when the payload carries none.
func (h *ContentHandler) CreateBuilding(c *gin.Context) {
	var doc content.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		respondError(c, http.StatusBadRequest, "invalid building payload")
		return
	}
	id, _ := doc["id"].(string)
	if id == "" {
		id = uuid.NewString()
	}
	if err := h.store.SaveBuilding(id, doc); err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	h.broadcast("building", "created", id)
	h.logger.Info("Building %s created", id)
	respondMessage(c, "building created", doc)
}

// UpdateBuilding implements PUT /api/v1/buildings/:buildingId.
func (h *ContentHandler) UpdateBuilding(c *gin.Context) {
	id := c.Param("buildingId")
	var doc content.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		respondError(c, http.StatusBadRequest, "invalid building payload")
		return
	}
	if err := h.store.SaveBuilding(id, doc); err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	h.broadcast("building", "updated", id)
	respondMessage(c, "building updated", doc)
}

// DeleteBuilding implements DELETE /api/v1/buildings/:buildingId.
func (h *ContentHandler) DeleteBuilding(c *gin.Context) {
	id := c.Param("buildingId")
	if err := h.store.DeleteBuilding(id); err != nil {
		if errors.Is(err, content.ErrNotFound) {
			respondError(c, http.StatusNotFound, "building not found")
			return
		}
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	h.broadcast("building", "deleted", id)
	h.logger.Info("Building %s deleted", id)
	respondMessage(c, "building deleted", gin.H{"id": id})
}

func floorParam(c *gin.Context) (int, bool) {
	floor, err := strconv.Atoi(c.Param("floor"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid floor number")
		return 0, false
	}
	return floor, true
}

// ListFloors implements GET /api/v1/buildings/:buildingId/floors.
func (h *ContentHandler) ListFloors(c *gin.Context) {
	respondData(c, gin.H{"floors": h.store.ListFloors(c.Param("buildingId"))})
}

// GetFloor implements GET /api/v1/buildings/:buildingId/floors/:floor.
func (h *ContentHandler) GetFloor(c *gin.Context) {
	floor, ok := floorParam(c)
	if !ok {
		return
	}
	doc, err := h.store.GetFloor(c.Param("buildingId"), floor)
	if err != nil {
		respondError(c, http.StatusNotFound, "floor not found")
		return
	}
	respondData(c, doc)
}

// SaveFloor implements PUT /api/v1/buildings/:buildingId/floors/:floor.
func (h *ContentHandler) SaveFloor(c *gin.Context) {
	buildingID := c.Param("buildingId")
	floor, ok := floorParam(c)
	if !ok {
		return
	}
	var doc content.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		respondError(c, http.StatusBadRequest, "invalid floor payload")
		return
	}
	if err := h.store.SaveFloor(buildingID, floor, doc); err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	h.broadcast("floor", "updated", buildingID)
	respondMessage(c, "floor saved", doc)
}

// DeleteFloor implements DELETE /api/v1/buildings/:buildingId/floors/:floor.
func (h *ContentHandler) DeleteFloor(c *gin.Context) {
	buildingID := c.Param("buildingId")
	floor, ok := floorParam(c)
	if !ok {
		return
	}
	if err := h.store.DeleteFloor(buildingID, floor); err != nil {
		if errors.Is(err, content.ErrNotFound) {
			respondError(c, http.StatusNotFound, "floor not found")
			return
		}
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	h.broadcast("floor", "deleted", buildingID)
	respondMessage(c, "floor deleted", gin.H{"buildingId": buildingID, "floor": floor})
}

// UploadFloorImage implements POST /api/v1/buildings/:buildingId/floors/:floor/image
// (multipart field "file"). The stored path lands on the floor document and
// every display is told to re-render the plan.
func (h *ContentHandler) UploadFloorImage(c *gin.Context) {
	buildingID := c.Param("buildingId")
	floor, ok := floorParam(c)
	if !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "file required")
		return
	}
	if file.Size > maxUploadBytes {
		respondError(c, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	path, err := h.store.SaveFloorImage(buildingID, floor, file.Filename, data)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			respondError(c, http.StatusNotFound, "building not found")
			return
		}
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	h.hub.Broadcast("floor_image", map[string]any{
		"action": "update",
		"payload": map[string]any{
			"buildingId":  buildingID,
			"floorNumber": floor,
			"imagePath":   path,
		},
	}, "")
	h.logger.Info("Floor image for %s/%d uploaded (%d bytes)", buildingID, floor, len(data))
	respondMessage(c, "floor image uploaded", gin.H{
		"filename": file.Filename,
		"path":     path,
	})
}

// ServeFloorImage implements GET /api/v1/buildings/:buildingId/floors/:floor/image.
func (h *ContentHandler) ServeFloorImage(c *gin.Context) {
	buildingID := c.Param("buildingId")
	floor, ok := floorParam(c)
	if !ok {
		return
	}
	data, contentType, err := h.store.ReadFloorImage(buildingID, floor)
	if err != nil {
		respondError(c, http.StatusNotFound, "floor image not found")
		return
	}
	c.Data(http.StatusOK, contentType, data)
}

// GetThemes implements GET /api/v1/themes.
func (h *ContentHandler) GetThemes(c *gin.Context) {
	respondData(c, h.store.LoadThemes())
}

// SaveThemes implements PUT /api/v1/themes.
func (h *ContentHandler) SaveThemes(c *gin.Context) {
	var doc content.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		respondError(c, http.StatusBadRequest, "invalid theme payload")
		return
	}
	if err := h.store.SaveThemes(doc); err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	h.broadcast("theme", "updated", "themes")
	respondMessage(c, "themes saved", doc)
}

func mediaKindParam(c *gin.Context) (content.MediaKind, bool) {
	kind := c.Param("kind")
	if !content.ValidMediaKind(kind) {
		respondError(c, http.StatusBadRequest, "unknown media kind")
		return "", false
	}
	return content.MediaKind(kind), true
}

// mediaEventType maps a media kind to its change event.
func mediaEventType(kind content.MediaKind) string {
	if kind == content.MediaPR {
		return "pr_image"
	}
	return "dashboard_image"
}

// ListMedia implements GET /api/v1/media/:kind.
func (h *ContentHandler) ListMedia(c *gin.Context) {
	kind, ok := mediaKindParam(c)
	if !ok {
		return
	}
	images, err := h.media.List(kind)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respondData(c, gin.H{"images": images})
}

// ServeMedia implements GET /api/v1/media/:kind/:filename, streaming the raw
// file bytes.
func (h *ContentHandler) ServeMedia(c *gin.Context) {
	kind, ok := mediaKindParam(c)
	if !ok {
		return
	}
	data, contentType, err := h.media.Read(kind, c.Param("filename"))
	if err != nil {
		respondError(c, http.StatusNotFound, "media not found")
		return
	}
	c.Data(http.StatusOK, contentType, data)
}

// UploadMedia implements POST /api/v1/media/:kind (multipart field "file").
func (h *ContentHandler) UploadMedia(c *gin.Context) {
	kind, ok := mediaKindParam(c)
	if !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "file required")
		return
	}
	if file.Size > maxUploadBytes {
		respondError(c, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.media.Store(kind, file.Filename, data); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	h.broadcast(mediaEventType(kind), "uploaded", file.Filename)
	h.logger.Info("Media %s/%s uploaded (%d bytes)", kind, file.Filename, len(data))
	respondMessage(c, "media uploaded", gin.H{"filename": file.Filename})
}

// DeleteMedia implements DELETE /api/v1/media/:kind/:filename.
func (h *ContentHandler) DeleteMedia(c *gin.Context) {
	kind, ok := mediaKindParam(c)
	if !ok {
		return
	}
	filename := c.Param("filename")
	if err := h.media.Remove(kind, filename); err != nil {
		respondError(c, http.StatusNotFound, "media not found")
		return
	}
	h.broadcast(mediaEventType(kind), "deleted", filename)
	respondMessage(c, "media deleted", gin.H{"filename": filename})
}

type mediaOrderRequest struct {
	Images []content.Document `json:"images" binding:"required"`
}

// SaveMediaOrder implements PUT /api/v1/media/:kind/order.
func (h *ContentHandler) SaveMediaOrder(c *gin.Context) {
	kind, ok := mediaKindParam(c)
	if !ok {
		return
	}
	var req mediaOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "images required")
		return
	}
	if err := h.media.SaveOrder(kind, req.Images); err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	h.broadcast(mediaEventType(kind), "reordered", string(kind))
	respondMessage(c, "media order saved", gin.H{"count": len(req.Images)})
}
