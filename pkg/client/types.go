package client

import "time"

// User is the public identity of an account
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

type Project struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	TotalHours float64   `json:"totalHours"`
	CreatedAt  time.Time `json:"createdAt"`
}

// WorkLog is a work log as listed, joined with user and project names
type WorkLog struct {
	ID          string  `json:"id"`
	UserID      string  `json:"userId"`
	Username    string  `json:"username,omitempty"`
	ProjectID   string  `json:"projectId"`
	ProjectName string  `json:"projectName,omitempty"`
	Hours       float64 `json:"hours"`
	WorkDate    string  `json:"workDate"`
	Notes       *string `json:"notes"`
}

// NewWorkLog is the body of a create request. An empty UserID means the
// logged-in user.
type NewWorkLog struct {
	UserID    string  `json:"userId"`
	ProjectID string  `json:"projectId"`
	WorkDate  string  `json:"workDate"`
	Hours     float64 `json:"hours"`
	Notes     *string `json:"notes,omitempty"`
}

// NewUser is the body of a user creation request
type NewUser struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Filter narrows work log listings and exports. Empty fields are ignored.
type Filter struct {
	From      string
	To        string
	ProjectID string
	UserID    string
}
