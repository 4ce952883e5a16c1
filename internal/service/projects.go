package service

import (
	"context"
	"strings"

	"github.com/Dan9191/worklog-service/internal/customerrors"
	"github.com/Dan9191/worklog-service/internal/models"
)

// ListProjects returns all projects
func (s *Service) ListProjects(ctx context.Context) ([]models.Project, error) {
	return s.repo.ListProjects(ctx)
}

// CreateProject creates a project with a unique name
func (s *Service) CreateProject(ctx context.Context, req models.CreateProjectRequest) (*models.ProjectRef, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := models.Validate(&req); err != nil {
		return nil, err
	}

	exists, err := s.repo.ProjectNameExists(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, customerrors.ErrProjectAlreadyExists
	}

	project, err := s.repo.CreateProject(ctx, req.Name)
	if err != nil {
		return nil, err
	}

	s.log.Infof("Project created: %s (%s)", project.Name, project.ID)
	return &models.ProjectRef{ID: project.ID, Name: project.Name}, nil
}

// ReconcileProjectTotals recomputes cached project totals from work logs
func (s *Service) ReconcileProjectTotals(ctx context.Context) (int64, error) {
	n, err := s.repo.ReconcileProjectTotals(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Warnf("Reconciled total hours of %d projects", n)
	}
	return n, nil
}
