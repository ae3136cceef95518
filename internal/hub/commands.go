package hub

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/MaryRatiary/back-rise/internal/event"
	"github.com/MaryRatiary/back-rise/internal/service"

	"go.uber.org/zap"
)

// Messenger is the slice of the messaging service the gateway invokes
// for inbound commands.
type Messenger interface {
	SendMessage(ctx context.Context, senderID, conversationID, content string, replyToID *string) (*service.MessageView, error)
	ToggleReaction(ctx context.Context, messageID, userID, emoji string) (added bool, conversationID string, err error)
	DeleteMessage(ctx context.Context, messageID, requesterID string) (conversationID string, err error)
}

// CommandHandler translates inbound websocket commands into messaging
// service calls and pushes the results back out. A failing command
// never terminates the connection: the caller gets an error event and
// everything else is left untouched.
type CommandHandler struct {
	hub      *Hub
	messages Messenger
	logger   *zap.Logger
}

func NewCommandHandler(messages Messenger, logger *zap.Logger) *CommandHandler {
	return &CommandHandler{
		messages: messages,
		logger:   logger,
	}
}

// SetHub sets the hub reference. Must be called after the Hub is
// created.
func (ch *CommandHandler) SetHub(hub *Hub) {
	ch.hub = hub
}

// Handle dispatches one inbound command.
func (ch *CommandHandler) Handle(ev event.WsEvent, c *Client) {
	switch ev.Event {
	case event.EventJoin:
		ch.handleJoin(ev, c)
	case event.EventLeave:
		ch.handleLeave(ev, c)
	case event.EventSendMessage:
		ch.handleSendMessage(ev, c)
	case event.EventReact:
		ch.handleReact(ev, c)
	case event.EventDeleteMessage:
		ch.handleDeleteMessage(ev, c)
	case event.EventTypingStart:
		ch.handleTyping(ev, c, event.EventUserTyping)
	case event.EventTypingStop:
		ch.handleTyping(ev, c, event.EventUserStoppedTyping)
	case event.EventListOnline:
		ch.handleListOnline(c)
	case event.EventCheckOnline:
		ch.handleCheckOnline(ev, c)
	default:
		ch.logger.Warn("unknown command", zap.String("event", ev.Event))
		ch.sendError(c, "unknown_command", "Commande inconnue: "+ev.Event)
	}
}

func (ch *CommandHandler) handleJoin(ev event.WsEvent, c *Client) {
	var payload event.JoinPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.ConversationID == "" {
		ch.sendError(c, "invalid_payload", "conversationId est requis")
		return
	}

	ch.hub.joinRoom(c, RoomTag(payload.ConversationID))
}

func (ch *CommandHandler) handleLeave(ev event.WsEvent, c *Client) {
	var payload event.JoinPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.ConversationID == "" {
		ch.sendError(c, "invalid_payload", "conversationId est requis")
		return
	}

	ch.hub.leaveRoom(c, RoomTag(payload.ConversationID))
}

// handleSendMessage persists the message, answers the caller with
// isMine=true, then fans the same projection (isMine=false) out to the
// rest of the room. Fan-out failures never reach the caller.
func (ch *CommandHandler) handleSendMessage(ev event.WsEvent, c *Client) {
	var payload event.SendMessagePayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		ch.sendError(c, "invalid_payload", "Message illisible")
		return
	}

	ctx, cancel := ch.hub.requestContext()
	defer cancel()

	view, err := ch.messages.SendMessage(ctx, c.userID, payload.ConversationID, payload.Content, payload.ReplyToID)
	if err != nil {
		ch.replyError(c, err, "Échec de l'envoi du message")
		return
	}

	c.SafeSend(event.NewEvent(event.EventMessageReceived, view), sendTimeout)

	others := *view
	others.IsMine = false
	ch.hub.publishToRoom(event.NewEvent(event.EventMessageReceived, &others), RoomTag(payload.ConversationID), c)
}

func (ch *CommandHandler) handleReact(ev event.WsEvent, c *Client) {
	var payload event.ReactPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		ch.sendError(c, "invalid_payload", "Réaction illisible")
		return
	}

	ctx, cancel := ch.hub.requestContext()
	defer cancel()

	added, conversationID, err := ch.messages.ToggleReaction(ctx, payload.MessageID, c.userID, payload.Emoji)
	if err != nil {
		ch.replyError(c, err, "Échec de la réaction")
		return
	}

	// Room-scoped on purpose, same as send; see DESIGN.md.
	out := event.NewEvent(event.EventReactionToggled, event.ReactionToggledPayload{
		MessageID: payload.MessageID,
		Emoji:     payload.Emoji,
		UserID:    c.userID,
		Added:     added,
	})
	c.SafeSend(out, sendTimeout)
	ch.hub.publishToRoom(out, RoomTag(conversationID), c)
}

func (ch *CommandHandler) handleDeleteMessage(ev event.WsEvent, c *Client) {
	var payload event.DeleteMessagePayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		ch.sendError(c, "invalid_payload", "Identifiant de message illisible")
		return
	}

	ctx, cancel := ch.hub.requestContext()
	defer cancel()

	conversationID, err := ch.messages.DeleteMessage(ctx, payload.MessageID, c.userID)
	if err != nil {
		ch.replyError(c, err, "Échec de la suppression du message")
		return
	}

	out := event.NewEvent(event.EventMessageDeleted, event.MessageDeletedPayload{MessageID: payload.MessageID})
	c.SafeSend(out, sendTimeout)
	ch.hub.publishToRoom(out, RoomTag(conversationID), c)
}

// handleTyping relays ephemeral typing indicators to the room; nothing
// is persisted.
func (ch *CommandHandler) handleTyping(ev event.WsEvent, c *Client, outEvent string) {
	var payload event.TypingPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.ConversationID == "" {
		ch.sendError(c, "invalid_payload", "conversationId est requis")
		return
	}

	name := payload.UserName
	if name == "" {
		name = c.userName
	}

	ch.hub.publishToRoom(
		event.NewEvent(outEvent, event.TypingEventPayload{UserName: name}),
		RoomTag(payload.ConversationID),
		c,
	)
}

func (ch *CommandHandler) handleListOnline(c *Client) {
	c.SafeSend(event.NewEvent(event.EventOnlineUsers, event.OnlineUsersPayload{
		Users: ch.hub.presence.OnlineUsers(),
	}), sendTimeout)
}

func (ch *CommandHandler) handleCheckOnline(ev event.WsEvent, c *Client) {
	var payload event.CheckOnlinePayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil || payload.UserID == "" {
		ch.sendError(c, "invalid_payload", "userId est requis")
		return
	}

	c.SafeSend(event.NewEvent(event.EventUserStatus, event.UserStatusPayload{
		UserID:   payload.UserID,
		IsOnline: ch.hub.presence.IsOnline(payload.UserID),
	}), sendTimeout)
}

// replyError maps a service failure onto an error event for the caller
// only.
func (ch *CommandHandler) replyError(c *Client, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		ch.sendError(c, "unauthorized", "Opération non autorisée")
	case errors.Is(err, service.ErrNotFound):
		ch.sendError(c, "not_found", "Cible introuvable")
	case errors.Is(err, service.ErrValidation):
		ch.sendError(c, "validation", "Requête invalide")
	default:
		ch.logger.Error("command failed", zap.Error(err))
		ch.sendError(c, "internal", fallback)
	}
}

func (ch *CommandHandler) sendError(c *Client, code, message string) {
	c.SafeSend(event.NewEvent(event.EventError, event.ErrorPayload{
		Code:    code,
		Message: message,
	}), sendTimeout)
}
