package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles as stored by the user-management service. The messaging
// core only reads them; it never creates or mutates users.
const (
	RoleAdmin     = "Admin"
	RoleProfessor = "Professor"
	RoleStudent   = "Student"
)

// User is a read-only projection of the users collection owned by the
// user-management service.
type User struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	FirstName       string             `json:"firstName" bson:"first_name"`
	LastName        string             `json:"lastName" bson:"last_name"`
	Email           string             `json:"email" bson:"email"`
	Role            string             `json:"role" bson:"role"`
	ProfileImageURL string             `json:"profileImageUrl" bson:"profile_image_url"`
	CreatedAt       time.Time          `json:"createdAt" bson:"created_at"`
}

// FullName returns the display name used in message and notification
// projections.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// IsAdmin reports whether the user carries the Admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
