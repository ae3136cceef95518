package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification trigger categories.
const (
	NotificationComment  = "comment"
	NotificationReaction = "reaction"
	NotificationMention  = "mention"
	NotificationReply    = "reply"
)

// Notification is one persisted fanout record for one recipient.
// Created in batches by the notification service, mutated only to flip
// the read flag.
type Notification struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RecipientID       string             `json:"recipientId" bson:"recipient_id"`
	TriggeredByUserID string             `json:"triggeredByUserId" bson:"triggered_by_user_id"`
	Type              string             `json:"type" bson:"type"`
	PostID            *string            `json:"postId,omitempty" bson:"post_id,omitempty"`
	CommentID         *string            `json:"commentId,omitempty" bson:"comment_id,omitempty"`
	Message           string             `json:"message" bson:"message"`
	IsRead            bool               `json:"isRead" bson:"is_read"`
	CreatedAt         time.Time          `json:"createdAt" bson:"created_at"`
}
