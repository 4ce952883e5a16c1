package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Dan9191/worklog-service/internal/customerrors"
	"github.com/Dan9191/worklog-service/internal/models"
)

// CreateWorkLog inserts wl and adds its hours to the project total in one
// transaction. A user or project removed after the caller's existence
// check surfaces as ErrInvalidUserOrProject.
func (r *Repository) CreateWorkLog(ctx context.Context, wl *models.WorkLog) error {
	hours := fmt.Sprintf("%.2f", wl.Hours)
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO work_logs (user_id, project_id, hours, work_date, notes)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at, updated_at`
		if err := tx.QueryRowContext(ctx, query, wl.UserID, wl.ProjectID, hours, wl.WorkDate, wl.Notes).
			Scan(&wl.ID, &wl.CreatedAt, &wl.UpdatedAt); err != nil {
			return err
		}

		update := `UPDATE projects SET total_hours = total_hours + $1 WHERE id = $2`
		_, err := tx.ExecContext(ctx, update, hours, wl.ProjectID)
		return err
	})
	if hasCode(err, foreignKeyViolation) {
		return customerrors.ErrInvalidUserOrProject
	}
	if err != nil {
		return fmt.Errorf("failed to create work log: %w", err)
	}
	return nil
}

// DeleteWorkLog removes the work log with id and subtracts its hours from
// the project total in one transaction. Returns ErrNotFound when no row
// matches.
func (r *Repository) DeleteWorkLog(ctx context.Context, id uuid.UUID) error {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var projectID uuid.UUID
		var hours string
		query := `DELETE FROM work_logs WHERE id = $1 RETURNING project_id, hours`
		if err := tx.QueryRowContext(ctx, query, id).Scan(&projectID, &hours); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		update := `UPDATE projects SET total_hours = GREATEST(total_hours - $1, 0) WHERE id = $2`
		_, err := tx.ExecContext(ctx, update, hours, projectID)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete work log: %w", err)
	}
	return nil
}

// ListWorkLogs returns work logs joined with usernames and project names,
// ordered by work date.
func (r *Repository) ListWorkLogs(ctx context.Context, filter models.WorkLogFilter) ([]models.WorkLogEntry, error) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.From != nil {
		add("w.work_date >= $%d", filter.From.Format(models.DateLayout))
	}
	if filter.To != nil {
		add("w.work_date <= $%d", filter.To.Format(models.DateLayout))
	}
	if filter.ProjectID != nil {
		add("w.project_id = $%d", *filter.ProjectID)
	}
	if filter.UserID != nil {
		add("w.user_id = $%d", *filter.UserID)
	}

	query := `
		SELECT w.id, w.user_id, u.username, w.project_id, p.project_name, w.hours, w.work_date, w.notes
		FROM work_logs w
		INNER JOIN users u ON u.id = w.user_id
		INNER JOIN projects p ON p.id = w.project_id`
	if len(conds) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conds, " AND ")
	}
	query += "\n\t\tORDER BY w.work_date, w.created_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list work logs: %w", err)
	}
	defer rows.Close()

	entries := []models.WorkLogEntry{}
	for rows.Next() {
		var e models.WorkLogEntry
		var workDate time.Time
		var notes sql.NullString
		if err := rows.Scan(&e.ID, &e.UserID, &e.Username, &e.ProjectID, &e.ProjectName, &e.Hours, &workDate, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan work log: %w", err)
		}
		e.WorkDate = workDate.Format(models.DateLayout)
		if notes.Valid {
			e.Notes = &notes.String
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list work logs: %w", err)
	}
	return entries, nil
}

// SummarizeHours sums hours per user and project for work dates in
// [from, to].
func (r *Repository) SummarizeHours(ctx context.Context, from, to time.Time) ([]models.HoursSummary, error) {
	query := `
		SELECT u.username, p.project_name, SUM(w.hours)
		FROM work_logs w
		INNER JOIN users u ON u.id = w.user_id
		INNER JOIN projects p ON p.id = w.project_id
		WHERE w.work_date >= $1 AND w.work_date <= $2
		GROUP BY u.username, p.project_name
		ORDER BY u.username, p.project_name`
	rows, err := r.db.QueryContext(ctx, query, from.Format(models.DateLayout), to.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to summarize hours: %w", err)
	}
	defer rows.Close()

	var out []models.HoursSummary
	for rows.Next() {
		var s models.HoursSummary
		if err := rows.Scan(&s.Username, &s.ProjectName, &s.Hours); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to summarize hours: %w", err)
	}
	return out, nil
}
