package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Dan9191/worklog-service/internal/customerrors"
	"github.com/Dan9191/worklog-service/internal/models"
)

// CreateProject inserts a project. A duplicate name surfaces as
// ErrProjectAlreadyExists.
func (r *Repository) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	project := &models.Project{}
	query := `
		INSERT INTO projects (project_name)
		VALUES ($1)
		RETURNING id, project_name, total_hours, created_at`
	err := r.db.QueryRowContext(ctx, query, name).
		Scan(&project.ID, &project.Name, &project.TotalHours, &project.CreatedAt)
	if hasCode(err, uniqueViolation) {
		return nil, customerrors.ErrProjectAlreadyExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

// ProjectNameExists reports whether a project called name exists
func (r *Repository) ProjectNameExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM projects WHERE project_name = $1)`
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check project name: %w", err)
	}
	return exists, nil
}

// ProjectExists reports whether a project with id exists
func (r *Repository) ProjectExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM projects WHERE id = $1)`
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check project: %w", err)
	}
	return exists, nil
}

// ListProjects returns all projects ordered by name
func (r *Repository) ListProjects(ctx context.Context) ([]models.Project, error) {
	query := `
		SELECT id, project_name, total_hours, created_at
		FROM projects
		ORDER BY project_name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.TotalHours, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// ReconcileProjectTotals recomputes every cached total from work_logs and
// returns the number of projects whose total changed.
func (r *Repository) ReconcileProjectTotals(ctx context.Context) (int64, error) {
	query := `
		UPDATE projects p
		SET total_hours = t.total
		FROM (
			SELECT p2.id, COALESCE(SUM(w.hours), 0) AS total
			FROM projects p2
			LEFT JOIN work_logs w ON w.project_id = p2.id
			GROUP BY p2.id
		) t
		WHERE p.id = t.id AND p.total_hours <> t.total`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile project totals: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile project totals: %w", err)
	}
	return n, nil
}
