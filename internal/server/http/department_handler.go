package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"viewsync/internal/department"
	"viewsync/internal/hub"
	"viewsync/internal/logging"
)

// DepartmentHandler serves the staff directory. Mutations broadcast a
// department change event so displays refresh their directory panel.
type DepartmentHandler struct {
	store  *department.Store
	hub    *hub.Hub
	logger logging.Logger
}

// NewDepartmentHandler creates the department handler.
func NewDepartmentHandler(store *department.Store, h *hub.Hub) *DepartmentHandler {
	return &DepartmentHandler{
		store:  store,
		hub:    h,
		logger: logging.NewComponentLogger("DepartmentHandler"),
	}
}

func (h *DepartmentHandler) broadcast(action string, id int64) {
	h.hub.Broadcast("department", map[string]any{
		"action": action,
		"id":     id,
	}, "")
}

func departmentIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("departmentId"), 10, 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid department id")
		return 0, false
	}
	return id, true
}

// List implements GET /api/v1/department. A search query filters across
// every directory column.
func (h *DepartmentHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		departments []department.Department
		err         error
	)
	if search := c.Query("search"); search != "" {
		departments, err = h.store.Search(ctx, search)
	} else {
		departments, err = h.store.List(ctx)
	}
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respondData(c, gin.H{"departments": departments})
}

// Get implements GET /api/v1/department/:departmentId.
func (h *DepartmentHandler) Get(c *gin.Context) {
	id, ok := departmentIDParam(c)
	if !ok {
		return
	}
	dep, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, department.ErrNotFound) {
			respondError(c, http.StatusNotFound, "department not found")
			return
		}
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	respondData(c, dep)
}

// Create implements POST /api/v1/department.
func (h *DepartmentHandler) Create(c *gin.Context) {
	var dep department.Department
	if err := c.ShouldBindJSON(&dep); err != nil {
		respondError(c, http.StatusBadRequest, "invalid department payload")
		return
	}
	created, err := h.store.Create(c.Request.Context(), dep)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	h.broadcast("created", created.ID)
	h.logger.Info("Department %d created", created.ID)
	respondMessage(c, "department created", created)
}

// Update implements PATCH /api/v1/department/:departmentId with a partial
// payload; absent fields keep their stored value.
func (h *DepartmentHandler) Update(c *gin.Context) {
	id, ok := departmentIDParam(c)
	if !ok {
		return
	}
	var fields department.Fields
	if err := c.ShouldBindJSON(&fields); err != nil {
		respondError(c, http.StatusBadRequest, "invalid department payload")
		return
	}
	updated, err := h.store.Update(c.Request.Context(), id, fields)
	if err != nil {
		if errors.Is(err, department.ErrNotFound) {
			respondError(c, http.StatusNotFound, "department not found")
			return
		}
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	h.broadcast("updated", id)
	respondMessage(c, "department updated", updated)
}

// Delete implements DELETE /api/v1/department/:departmentId.
func (h *DepartmentHandler) Delete(c *gin.Context) {
	id, ok := departmentIDParam(c)
	if !ok {
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, department.ErrNotFound) {
			respondError(c, http.StatusNotFound, "department not found")
			return
		}
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	h.broadcast("deleted", id)
	h.logger.Info("Department %d deleted", id)
	respondMessage(c, "department deleted", gin.H{"id": id})
}
