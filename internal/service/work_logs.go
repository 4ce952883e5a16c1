package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Dan9191/worklog-service/internal/customerrors"
	"github.com/Dan9191/worklog-service/internal/models"
	"github.com/Dan9191/worklog-service/internal/repository"
)

// ListWorkLogs returns work logs matching filter, ordered by work date
func (s *Service) ListWorkLogs(ctx context.Context, filter models.WorkLogFilter) ([]models.WorkLogEntry, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, customerrors.NewValidation(map[string][]string{"to": {"must not be before from"}})
	}
	return s.repo.ListWorkLogs(ctx, filter)
}

// CreateWorkLog records hours for req.UserID. Non-admin actors may only log
// their own hours.
func (s *Service) CreateWorkLog(ctx context.Context, actor models.Identity, req models.CreateWorkLogRequest) (*models.WorkLog, error) {
	if err := models.Validate(&req); err != nil {
		return nil, err
	}
	userID := uuid.MustParse(req.UserID)
	projectID := uuid.MustParse(req.ProjectID)

	if !actor.IsAdmin && userID != actor.ID {
		return nil, customerrors.ErrForbidden
	}

	userExists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	projectExists, err := s.repo.ProjectExists(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !userExists || !projectExists {
		return nil, customerrors.ErrInvalidUserOrProject
	}

	wl := &models.WorkLog{
		UserID:    userID,
		ProjectID: projectID,
		WorkDate:  req.WorkDate,
		Hours:     *req.Hours,
		Notes:     req.Notes,
	}
	if err := s.repo.CreateWorkLog(ctx, wl); err != nil {
		return nil, err
	}

	s.log.Infof("Work log created: %s (%.2fh on %s by %s)", wl.ID, wl.Hours, wl.WorkDate, actor.Username)
	return wl, nil
}

// DeleteWorkLog removes a work log by id
func (s *Service) DeleteWorkLog(ctx context.Context, rawID string) (*models.DeletedRef, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, customerrors.ErrInvalidID
	}

	if err := s.repo.DeleteWorkLog(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, customerrors.ErrWorkLogNotFound
		}
		return nil, err
	}

	s.log.Infof("Work log deleted: %s", id)
	return &models.DeletedRef{ID: id}, nil
}

// SummarizeHours sums hours per user and project for work dates in
// [from, to]
func (s *Service) SummarizeHours(ctx context.Context, from, to time.Time) ([]models.HoursSummary, error) {
	return s.repo.SummarizeHours(ctx, from, to)
}
