package service

import "time"

// Sentinels shown to clients. The product ships in French, matching the
// rest of the Rise frontend copy.
const (
	noMessagePreview   = "Pas de message"
	unavailableMessage = "Message indisponible"
	unknownUserName    = "Utilisateur inconnu"
)

// ConversationView is one row of a user's conversation list. Message
// history is intentionally absent; clients fetch it per conversation.
type ConversationView struct {
	ID                    string    `json:"id"`
	Sender                string    `json:"sender"`
	SenderProfileImageURL string    `json:"senderProfileImageUrl"`
	LastMessage           string    `json:"lastMessage"`
	Time                  time.Time `json:"time"`
	Unread                int64     `json:"unread"`
}

// ReplyView is the resolved preview of a reply-to reference. When the
// referenced message has been deleted the view degrades to an
// unavailable placeholder instead of dangling.
type ReplyView struct {
	ID          string `json:"id,omitempty"`
	Sender      string `json:"sender"`
	Content     string `json:"content"`
	Unavailable bool   `json:"unavailable,omitempty"`
}

// ReactionView groups the reactions of one emoji on one message.
type ReactionView struct {
	Emoji string   `json:"emoji"`
	Count int      `json:"count"`
	Users []string `json:"users"`
}

// MessageView is the projection returned by message reads and sends.
// IsMine is always relative to the requesting user.
type MessageView struct {
	ID                    string         `json:"id"`
	ConversationID        string         `json:"conversationId"`
	SenderID              string         `json:"senderId"`
	SenderName            string         `json:"senderName"`
	SenderProfileImageURL string         `json:"senderProfileImageUrl"`
	Content               string         `json:"content"`
	SentAt                time.Time      `json:"sentAt"`
	IsRead                bool           `json:"isRead"`
	IsMine                bool           `json:"isMine"`
	ReplyTo               *ReplyView     `json:"replyTo,omitempty"`
	Reactions             []ReactionView `json:"reactions"`
}

// SearchUserView is one hit of the start-conversation user search.
type SearchUserView struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}
