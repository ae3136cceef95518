package handler

import (
	"net/http"

	"github.com/MaryRatiary/back-rise/internal/service"

	"github.com/gin-gonic/gin"
)

type MessageHandler interface {
	GetConversations(c *gin.Context)
	GetConversationMessages(c *gin.Context)
	SendMessage(c *gin.Context)
	StartConversation(c *gin.Context)
	ToggleReaction(c *gin.Context)
	DeleteMessage(c *gin.Context)
	MarkConversationRead(c *gin.Context)
	IssueCallToken(c *gin.Context)
	SearchUsers(c *gin.Context)
}

type messageHandler struct {
	service service.MessagingService
}

func NewMessageHandler(service service.MessagingService) MessageHandler {
	return &messageHandler{
		service: service,
	}
}

func (h *messageHandler) GetConversations(c *gin.Context) {
	views, err := h.service.ListConversations(c.Request.Context(), CurrentUserID(c))
	if err != nil {
		respondServiceErr(c, err)
		return
	}

	respond(c, http.StatusOK, views, "Conversations récupérées")
}

func (h *messageHandler) GetConversationMessages(c *gin.Context) {
	conversationID := c.Param("conversationId")

	msgs, err := h.service.GetMessages(c.Request.Context(), conversationID, CurrentUserID(c))
	if err != nil {
		respondServiceErr(c, err)
		return
	}

	respond(c, http.StatusOK, msgs, "Messages récupérés")
}

type sendMessageRequest struct {
	ConversationID string  `json:"conversationId" binding:"required"`
	Content        string  `json:"content" binding:"required"`
	ReplyToID      *string `json:"replyToId"`
}

func (h *messageHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, nil, "Requête invalide")
		return
	}

	view, err := h.service.SendMessage(c.Request.Context(), CurrentUserID(c), req.ConversationID, req.Content, req.ReplyToID)
	if err != nil {
		respondServiceErr(c, err)
		return
	}

	respond(c, http.StatusCreated, view, "Message envoyé")
}

type startConversationRequest struct {
	RecipientID string `json:"recipientId" binding:"required"`
}

func (h *messageHandler) StartConversation(c *gin.Context) {
	var req startConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, nil, "Requête invalide")
		return
	}

	view, err := h.service.StartOrGetConversation(c.Request.Context(), CurrentUserID(c), req.RecipientID)
	if err != nil {
		respondServiceErr(c, err)
		return
	}

	respond(c, http.StatusOK, view, "Conversation prête")
}

type reactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

func (h *messageHandler) ToggleReaction(c *gin.Context) {
	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, nil, "Requête invalide")
		return
	}

	added, _, err := h.service.ToggleReaction(c.Request.Context(), c.Param("messageId"), CurrentUserID(c), req.Emoji)
	if err != nil {
		respondServiceErr(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"added": added}, "Réaction mise à jour")
}

func (h *messageHandler) DeleteMessage(c *gin.Context) {
	_, err := h.service.DeleteMessage(c.Request.Context(), c.Param("messageId"), CurrentUserID(c))
	if err != nil {
		respondServiceErr(c, err)
		return
	}

	respond(c, http.StatusOK, nil, "Message supprimé")
}

func (h *messageHandler) MarkConversationRead(c *gin.Context) {
	err := h.service.MarkConversationRead(c.Request.Context(), c.Param("conversationId"), CurrentUserID(c))
	if err != nil {
		respondServiceErr(c, err)
		return
	}

	respond(c, http.StatusOK, nil, "Conversation marquée comme lue")
}

func (h *messageHandler) IssueCallToken(c *gin.Context) {
	token, err := h.service.IssueCallToken(c.Request.Context(), c.Param("conversationId"), CurrentUserID(c))
	if err != nil {
		respondServiceErr(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"token": token}, "Jeton d'appel émis")
}

func (h *messageHandler) SearchUsers(c *gin.Context) {
	query := c.Query("query")

	views, err := h.service.SearchUsers(c.Request.Context(), query, CurrentUserID(c))
	if err != nil {
		respondServiceErr(c, err)
		return
	}

	respond(c, http.StatusOK, views, "Utilisateurs trouvés")
}
