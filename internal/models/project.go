package models

import (
	"time"

	"github.com/google/uuid"
)

// Project is a unit of work hours are logged against
type Project struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	TotalHours float64   `json:"totalHours"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ProjectRef is returned when a project is created
type ProjectRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type CreateProjectRequest struct {
	Name string `json:"name" validate:"required,min=2,max=120"`
}
