package event

import "encoding/json"

// Client -> server commands.
const (
	EventJoin          = "join"
	EventLeave         = "leave"
	EventSendMessage   = "send_message"
	EventReact         = "react"
	EventDeleteMessage = "delete_message"
	EventTypingStart   = "typing_start"
	EventTypingStop    = "typing_stop"
	EventListOnline    = "list_online"
	EventCheckOnline   = "check_online"
)

// Server -> client events.
const (
	EventMessageReceived   = "message_received"
	EventReactionToggled   = "reaction_toggled"
	EventMessageDeleted    = "message_deleted"
	EventUserTyping        = "user_typing"
	EventUserStoppedTyping = "user_stopped_typing"
	EventUserOnline        = "user_online"
	EventUserOffline       = "user_offline"
	EventOnlineUsers       = "online_users"
	EventUserStatus        = "user_status"
	EventError             = "error"
)

// WsEvent is the envelope for every frame in both directions. Payload
// stays raw until the handler knows which shape to decode.
type WsEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEvent marshals a payload into an envelope. Marshalling failures
// are programming errors on server-built payloads; the envelope is
// returned with an empty payload in that case.
func NewEvent(name string, payload any) WsEvent {
	raw, err := json.Marshal(payload)
	if err != nil {
		return WsEvent{Event: name}
	}
	return WsEvent{Event: name, Payload: raw}
}

// Command payloads.

type JoinPayload struct {
	ConversationID string `json:"conversationId"`
}

type SendMessagePayload struct {
	ConversationID string  `json:"conversationId"`
	Content        string  `json:"content"`
	ReplyToID      *string `json:"replyToId,omitempty"`
}

type ReactPayload struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
}

type DeleteMessagePayload struct {
	MessageID string `json:"messageId"`
}

type TypingPayload struct {
	ConversationID string `json:"conversationId"`
	UserName       string `json:"userName"`
}

type CheckOnlinePayload struct {
	UserID string `json:"userId"`
}

// Server event payloads.

type ReactionToggledPayload struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
	UserID    string `json:"userId"`
	Added     bool   `json:"added"`
}

type MessageDeletedPayload struct {
	MessageID string `json:"messageId"`
}

type TypingEventPayload struct {
	UserName string `json:"userName"`
}

type PresencePayload struct {
	UserID string `json:"userId"`
}

type OnlineUsersPayload struct {
	Users []string `json:"users"`
}

type UserStatusPayload struct {
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
