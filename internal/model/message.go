package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is a single chat message inside a conversation. ReplyToID is
// a weak reference: it survives the deletion of its target and is
// resolved at read time.
type Message struct {
	ID             primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	ConversationID primitive.ObjectID  `json:"conversationId" bson:"conversation_id"`
	SenderID       string              `json:"senderId" bson:"sender_id"`
	Content        string              `json:"content" bson:"content"`
	SentAt         time.Time           `json:"sentAt" bson:"sent_at"`
	IsRead         bool                `json:"isRead" bson:"is_read"`
	ReplyToID      *primitive.ObjectID `json:"replyToId,omitempty" bson:"reply_to_id,omitempty"`
}

// Reaction is one emoji reaction by one user on one message. The
// unique index on (message_id, user_id, emoji) is the toggle key.
type Reaction struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	MessageID primitive.ObjectID `json:"messageId" bson:"message_id"`
	UserID    string             `json:"userId" bson:"user_id"`
	Emoji     string             `json:"emoji" bson:"emoji"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}
