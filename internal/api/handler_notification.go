package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"notifyhub/internal/dispatch"
	"notifyhub/internal/history"
	"notifyhub/internal/model"
)

// Dispatcher is the core the HTTP layer hands parsed requests to.
type Dispatcher interface {
	Dispatch(ctx context.Context, req model.NotificationRequest) (dispatch.Result, error)
}

type NotificationHandler struct {
	dispatcher Dispatcher
	history    *history.Store
}

func NewNotificationHandler(dispatcher Dispatcher, history *history.Store) *NotificationHandler {
	return &NotificationHandler{
		dispatcher: dispatcher,
		history:    history,
	}
}

// Create handles POST /notifications.
func (h *NotificationHandler) Create(c *gin.Context) {
	var req model.NotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.dispatcher.Dispatch(c.Request.Context(), req)
	switch {
	case errors.Is(err, model.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields or unknown channel"})
		return
	case errors.Is(err, dispatch.ErrUnknownUser):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dispatch failed"})
		return
	}

	if !res.Accepted {
		// Broker was down and the direct fallback failed too.
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":  "delivery failed",
			"reason": res.Reason,
		})
		return
	}

	c.JSON(http.StatusAccepted, res)
}

// ListForUser handles GET /users/:id/notifications.
func (h *NotificationHandler) ListForUser(c *gin.Context) {
	c.JSON(http.StatusOK, h.history.List(c.Param("id")))
}
