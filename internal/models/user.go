package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles and account statuses.
const (
	RoleAdmin  = "admin"
	RoleDriver = "driver"

	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username  string             `bson:"username" json:"username" validate:"required,min=3,max=50"`
	Email     string             `bson:"email" json:"email" validate:"required,email"`
	Password  string             `bson:"password" json:"-"`
	Role      string             `bson:"role" json:"role" validate:"required,oneof=admin driver"`
	Status    string             `bson:"status" json:"status"`
	LastLogin *time.Time         `bson:"last_login,omitempty" json:"lastLogin,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

// AuthUser is the sanitized user representation returned by the auth API.
type AuthUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}
