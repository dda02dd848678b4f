package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"clientx/internal/services"
)

type NotificationHandler struct {
	service *services.NotificationService
}

func NewNotificationHandler(service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// @Summary      List notifications
// @Description  Returns the caller's notifications, newest first.
// @Tags         Notifications
// @Produce      json
// @Success      200  {array}  models.Notification
// @Router       /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	actor := getActor(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.service.ListForUser(c.Request.Context(), actor.ID, limit, offset)
	if err != nil {
		log.Printf("[notif][list][err] user=%d: %v", actor.ID, err)
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// POST /notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	actor := getActor(c)
	n, err := h.service.MarkAllRead(c.Request.Context(), actor.ID)
	if err != nil {
		log.Printf("[notif][read-all][err] user=%d: %v", actor.ID, err)
		respondServiceError(c, err)
		return
	}
	log.Printf("[notif][read-all][ok] user=%d marked=%d", actor.ID, n)
	c.JSON(http.StatusOK, gin.H{"marked": n})
}

// GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	actor := getActor(c)
	n, err := h.service.UnreadCount(c.Request.Context(), actor.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}
