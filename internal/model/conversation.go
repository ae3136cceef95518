package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation is a direct-message thread between exactly two users.
// The pair is stored in canonical order (UserAID < UserBID) so that a
// unique index on (user_a_id, user_b_id) enforces at most one
// conversation per unordered pair.
type Conversation struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserAID       string             `json:"userAId" bson:"user_a_id"`
	UserBID       string             `json:"userBId" bson:"user_b_id"`
	CreatedAt     time.Time          `json:"createdAt" bson:"created_at"`
	LastMessageAt time.Time          `json:"lastMessageAt" bson:"last_message_at"`
}

// CanonicalPair orders two user ids so (A,B) and (B,A) address the same
// conversation document.
func CanonicalPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID string) bool {
	return c.UserAID == userID || c.UserBID == userID
}

// Counterpart returns the other participant relative to userID.
func (c *Conversation) Counterpart(userID string) string {
	if c.UserAID == userID {
		return c.UserBID
	}
	return c.UserAID
}
