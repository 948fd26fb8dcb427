package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/elinsky/execution-service/internal/apperr"
	"github.com/elinsky/execution-service/internal/models"
)

const timeEntryColumns = `id, user_id, project_slug, description,
	start_time, end_time, duration_minutes, created_at, updated_at`

func scanTimeEntry(row interface{ Scan(...any) error }) (*models.TimeEntry, error) {
	var e models.TimeEntry
	var endTime sql.NullTime
	var duration sql.NullInt64
	err := row.Scan(
		&e.ID, &e.UserID, &e.ProjectSlug, &e.Description,
		&e.StartTime, &endTime, &duration, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.StartTime = e.StartTime.UTC()
	e.EndTime = timeOrNil(endTime)
	if duration.Valid {
		d := int(duration.Int64)
		e.DurationMinutes = &d
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return &e, nil
}

// RunningTimer returns the user's open timer, or ErrNotFound when no timer
// is running.
func (s *Store) RunningTimer(ctx context.Context, userID string) (*models.TimeEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+timeEntryColumns+` FROM time_entries WHERE user_id = ? AND end_time IS NULL`,
		userID)
	e, err := scanTimeEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: running timer: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: running timer: %w", err)
	}
	return e, nil
}

// StartTimer opens a timer on a project. At most one timer runs per user.
func (s *Store) StartTimer(ctx context.Context, userID, projectSlug, description string) (*models.TimeEntry, error) {
	if err := s.requireProject(ctx, userID, projectSlug); err != nil {
		return nil, err
	}
	running, err := s.exists(ctx,
		`SELECT 1 FROM time_entries WHERE user_id = ? AND end_time IS NULL`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: check running timer: %w", err)
	}
	if running {
		return nil, fmt.Errorf("store: a timer is already running: %w", apperr.ErrConflict)
	}

	now := utcNow()
	e := &models.TimeEntry{
		ID:          newID(),
		UserID:      userID,
		ProjectSlug: projectSlug,
		Description: description,
		StartTime:   now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO time_entries (id, user_id, project_slug, description,
			start_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.ProjectSlug, e.Description, e.StartTime, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("store: insert time entry: %w", err)
	}
	return e, nil
}

// StopTimer closes the user's running timer and records its duration in
// whole minutes.
func (s *Store) StopTimer(ctx context.Context, userID string) (*models.TimeEntry, error) {
	e, err := s.RunningTimer(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := utcNow()
	minutes := int(now.Sub(e.StartTime).Minutes())
	_, err = s.db.ExecContext(ctx,
		`UPDATE time_entries SET end_time = ?, duration_minutes = ?, updated_at = ? WHERE id = ?`,
		now, minutes, now, e.ID)
	if err != nil {
		return nil, fmt.Errorf("store: stop timer: %w", err)
	}
	e.EndTime = &now
	e.DurationMinutes = &minutes
	e.UpdatedAt = now
	return e, nil
}

// CreateTimeEntry logs a completed entry after the fact. When the duration
// is omitted it is derived from the start and end times.
func (s *Store) CreateTimeEntry(ctx context.Context, userID string, in models.TimeEntryCreate) (*models.TimeEntry, error) {
	if err := s.requireProject(ctx, userID, in.ProjectSlug); err != nil {
		return nil, err
	}
	if in.StartTime.IsZero() {
		return nil, fmt.Errorf("store: create time entry: start time is required: %w", apperr.ErrInvalid)
	}
	if in.EndTime != nil && in.EndTime.Before(in.StartTime) {
		return nil, fmt.Errorf("store: create time entry: end before start: %w", apperr.ErrInvalid)
	}

	duration := in.DurationMinutes
	if duration == nil && in.EndTime != nil {
		d := int(in.EndTime.Sub(in.StartTime).Minutes())
		duration = &d
	}

	now := utcNow()
	e := &models.TimeEntry{
		ID:              newID(),
		UserID:          userID,
		ProjectSlug:     in.ProjectSlug,
		Description:     in.Description,
		StartTime:       in.StartTime.UTC(),
		EndTime:         in.EndTime,
		DurationMinutes: duration,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	endTime := nullTime(e.EndTime)
	var dur sql.NullInt64
	if e.DurationMinutes != nil {
		dur = sql.NullInt64{Int64: int64(*e.DurationMinutes), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO time_entries (id, user_id, project_slug, description,
			start_time, end_time, duration_minutes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.ProjectSlug, e.Description, e.StartTime, endTime, dur, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("store: insert time entry: %w", err)
	}
	return e, nil
}

// TimeEntryFilter narrows ListTimeEntries.
type TimeEntryFilter struct {
	ProjectSlug string
}

// ListTimeEntries returns the user's entries, newest first.
func (s *Store) ListTimeEntries(ctx context.Context, userID string, f TimeEntryFilter) ([]models.TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + ` FROM time_entries WHERE user_id = ?`
	args := []any{userID}
	if f.ProjectSlug != "" {
		query += ` AND project_slug = ?`
		args = append(args, f.ProjectSlug)
	}
	query += ` ORDER BY start_time DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list time entries: %w", err)
	}
	defer rows.Close()

	var out []models.TimeEntry
	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan time entry: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// GetTimeEntry returns the entry with the given ID.
func (s *Store) GetTimeEntry(ctx context.Context, userID, id string) (*models.TimeEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+timeEntryColumns+` FROM time_entries WHERE id = ? AND user_id = ?`,
		id, userID)
	e, err := scanTimeEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: time entry %q: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get time entry: %w", err)
	}
	return e, nil
}

// UpdateTimeEntry applies a partial update to an entry.
func (s *Store) UpdateTimeEntry(ctx context.Context, userID, id string, upd models.TimeEntryUpdate) (*models.TimeEntry, error) {
	sets := []string{"updated_at = ?"}
	args := []any{utcNow()}
	if upd.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.EndTime != nil {
		sets = append(sets, "end_time = ?")
		args = append(args, upd.EndTime.UTC())
	}
	if upd.DurationMinutes != nil {
		sets = append(sets, "duration_minutes = ?")
		args = append(args, *upd.DurationMinutes)
	}
	args = append(args, id, userID)

	res, err := s.db.ExecContext(ctx,
		`UPDATE time_entries SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("store: update time entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("store: time entry %q: %w", id, apperr.ErrNotFound)
	}
	return s.GetTimeEntry(ctx, userID, id)
}

// DeleteTimeEntry removes an entry. Entries are hard-deleted; they never
// appear in the vault so there is nothing to reconcile.
func (s *Store) DeleteTimeEntry(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM time_entries WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("store: delete time entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: time entry %q: %w", id, apperr.ErrNotFound)
	}
	return nil
}
