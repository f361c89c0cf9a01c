package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/kaushalvasoya/homeco-real-estate/internal/services"
	"github.com/kaushalvasoya/homeco-real-estate/internal/tasks"
)

// IAsynqClient is the subset of asynq.Client used by the handlers.
type IAsynqClient interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ContactHandler handles the public contact form and its moderation routes.
type ContactHandler struct {
	store      services.IContactStore
	taskClient IAsynqClient
}

// NewContactHandler creates a new ContactHandler. taskClient may be nil when
// no background worker is configured; notifications are then skipped.
func NewContactHandler(store services.IContactStore, taskClient IAsynqClient) *ContactHandler {
	return &ContactHandler{store: store, taskClient: taskClient}
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Create handles POST /api/contact.
func (h *ContactHandler) Create(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "msg": "Invalid request body"})
		return
	}

	record, err := h.store.Create(c.Request.Context(), req.Name, req.Email, req.Message)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "msg": err.Error()})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "msg": "Server error"})
		}
		return
	}

	// Notification is best effort; a broker outage must not fail the form.
	if h.taskClient != nil {
		task, err := tasks.NewContactNotifyTask(*record)
		if err == nil {
			_, err = h.taskClient.Enqueue(task)
		}
		if err != nil {
			log.Printf("WARN: failed to enqueue contact notification for %s: %v", record.ID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "msg": "Message saved", "record": record})
}

// List handles GET /api/contact with an optional onlyUnread filter.
func (h *ContactHandler) List(c *gin.Context) {
	onlyUnread := c.Query("onlyUnread") == "true"

	records, err := h.store.List(c.Request.Context(), onlyUnread)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "msg": "Server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "items": records})
}

type setReadRequest struct {
	Read *bool `json:"read"`
}

// SetRead handles PATCH /api/contact/:id/read.
func (h *ContactHandler) SetRead(c *gin.Context) {
	var req setReadRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Read == nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "msg": "read must be a boolean"})
		return
	}

	record, err := h.store.SetRead(c.Request.Context(), c.Param("id"), *req.Read)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "msg": "Message not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "msg": "Server error"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "record": record})
}

// Delete handles DELETE /api/contact/:id.
func (h *ContactHandler) Delete(c *gin.Context) {
	record, err := h.store.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "msg": "Message not found"})
		} else {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "msg": "Server error"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "record": record})
}
