package handler

import (
	"net/http"

	"github.com/MaryRatiary/back-rise/internal/service"

	"github.com/gin-gonic/gin"
)

type NotificationHandler interface {
	GetNotifications(c *gin.Context)
	MarkNotificationRead(c *gin.Context)
	Fanout(c *gin.Context)
}

type notificationHandler struct {
	service service.NotificationService
}

func NewNotificationHandler(service service.NotificationService) NotificationHandler {
	return &notificationHandler{
		service: service,
	}
}

func (h *notificationHandler) GetNotifications(c *gin.Context) {
	notifications, err := h.service.ListNotifications(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		respondServiceErr(c, err)
		return
	}

	respond(c, http.StatusOK, notifications, "Notifications récupérées")
}

func (h *notificationHandler) MarkNotificationRead(c *gin.Context) {
	if err := h.service.MarkNotificationRead(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceErr(c, err)
		return
	}

	respond(c, http.StatusOK, nil, "Notification marquée comme lue")
}

type fanoutRequest struct {
	Type          string   `json:"type" binding:"required"`
	OwnerID       string   `json:"ownerId"`
	TaggedUserIDs []string `json:"taggedUserIds"`
	PostID        *string  `json:"postId"`
	CommentID     *string  `json:"commentId"`
}

// Fanout is called by the content service after a comment, reaction or
// reply is persisted. The acting user comes from the caller's token,
// never from the payload.
func (h *notificationHandler) Fanout(c *gin.Context) {
	var req fanoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, nil, "Requête invalide")
		return
	}

	count, err := h.service.Fanout(c.Request.Context(), service.FanoutTrigger{
		Type:          req.Type,
		ActorID:       CurrentUserID(c),
		OwnerID:       req.OwnerID,
		TaggedUserIDs: req.TaggedUserIDs,
		PostID:        req.PostID,
		CommentID:     req.CommentID,
	})
	if err != nil {
		respondServiceErr(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"notified": count}, "Notifications envoyées")
}
