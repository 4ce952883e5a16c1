package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user in the system
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Not serialized
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Identity is the public view of a user, also carried in session tokens
type Identity struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	IsAdmin  bool      `json:"isAdmin"`
}

// Identity returns the public view of u
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Password string `json:"password" validate:"required,min=8,max=128,password"`
}

type LoginResponse struct {
	Token string   `json:"token"`
	User  Identity `json:"user"`
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,username"`
	Password string `json:"password" validate:"required,min=8,max=128,password"`
	IsAdmin  bool   `json:"isAdmin"`
}
