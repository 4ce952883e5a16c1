package models

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire and storage format of work dates
const DateLayout = "2006-01-02"

// WorkLog is a record of hours worked by a user on a project on a given date
type WorkLog struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	ProjectID uuid.UUID `json:"projectId"`
	WorkDate  string    `json:"workDate"`
	Hours     float64   `json:"hours"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WorkLogEntry is a work log joined with its user and project for display
type WorkLogEntry struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"userId"`
	Username    string    `json:"username"`
	ProjectID   uuid.UUID `json:"projectId"`
	ProjectName string    `json:"projectName"`
	Hours       float64   `json:"hours"`
	WorkDate    string    `json:"workDate"`
	Notes       *string   `json:"notes"`
}

type CreateWorkLogRequest struct {
	UserID    string   `json:"userId" validate:"required,uuid"`
	ProjectID string   `json:"projectId" validate:"required,uuid"`
	WorkDate  string   `json:"workDate" validate:"required,datetime=2006-01-02"`
	Hours     *float64 `json:"hours" validate:"required,gte=0.25,lte=24,hundredths"`
	Notes     *string  `json:"notes" validate:"omitempty,max=500"`
}

// WorkLogFilter narrows work log listings. Zero values mean no restriction.
type WorkLogFilter struct {
	From      *time.Time
	To        *time.Time
	ProjectID *uuid.UUID
	UserID    *uuid.UUID
}

type DeletedRef struct {
	ID uuid.UUID `json:"id"`
}

// HoursSummary is the hours one user logged on one project in a period
type HoursSummary struct {
	Username    string
	ProjectName string
	Hours       float64
}
