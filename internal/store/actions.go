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

const actionColumns = `id, user_id, text, context, project_slug, state,
	action_date, due, defer_until, completed, deleted, created_at, updated_at`

func scanAction(row interface{ Scan(...any) error }) (*models.Action, error) {
	var a models.Action
	var projectSlug sql.NullString
	var actionDate, due, deferUntil, completed sql.NullTime
	err := row.Scan(
		&a.ID, &a.UserID, &a.Text, &a.Context, &projectSlug, &a.State,
		&actionDate, &due, &deferUntil, &completed, &a.Deleted, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.ProjectSlug = projectSlug.String
	if actionDate.Valid {
		a.ActionDate = models.NewDate(actionDate.Time)
	}
	a.Due = dateOrNil(due)
	a.Defer = dateOrNil(deferUntil)
	a.Completed = dateOrNil(completed)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}

// requireProject verifies that a live project with the slug exists.
func (s *Store) requireProject(ctx context.Context, userID, projectSlug string) error {
	ok, err := s.exists(ctx,
		`SELECT 1 FROM projects WHERE user_id = ? AND slug = ? AND deleted = 0`,
		userID, projectSlug)
	if err != nil {
		return fmt.Errorf("store: check project %q: %w", projectSlug, err)
	}
	if !ok {
		return fmt.Errorf("store: project %q: %w", projectSlug, apperr.ErrNotFound)
	}
	return nil
}

// CreateAction creates a next action. When a project slug is given the
// project must exist.
func (s *Store) CreateAction(ctx context.Context, userID string, in models.ActionCreate) (*models.Action, error) {
	if in.Text == "" {
		return nil, fmt.Errorf("store: create action: text is required: %w", apperr.ErrInvalid)
	}
	if in.ProjectSlug != "" {
		if err := s.requireProject(ctx, userID, in.ProjectSlug); err != nil {
			return nil, err
		}
	}

	now := utcNow()
	a := &models.Action{
		ID:          newID(),
		UserID:      userID,
		Text:        in.Text,
		Context:     in.Context,
		ProjectSlug: in.ProjectSlug,
		State:       models.ActionStateNext,
		ActionDate:  models.Today(),
		Due:         in.Due,
		Defer:       in.Defer,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var projectSlug sql.NullString
	if a.ProjectSlug != "" {
		projectSlug = sql.NullString{String: a.ProjectSlug, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO actions (id, user_id, text, context, project_slug, state,
			action_date, due, defer_until, deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		a.ID, a.UserID, a.Text, a.Context, projectSlug, string(a.State),
		a.ActionDate.Time, nullDate(a.Due), nullDate(a.Defer), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("store: insert action: %w", err)
	}
	return a, nil
}

// ActionFilter narrows ListActions.
type ActionFilter struct {
	Context     string
	ProjectSlug string
	State       string
}

// ListActions returns the user's live actions, optionally filtered.
func (s *Store) ListActions(ctx context.Context, userID string, f ActionFilter) ([]models.Action, error) {
	query := `SELECT ` + actionColumns + ` FROM actions WHERE user_id = ? AND deleted = 0`
	args := []any{userID}
	if f.Context != "" {
		query += ` AND context = ?`
		args = append(args, f.Context)
	}
	if f.ProjectSlug != "" {
		query += ` AND project_slug = ?`
		args = append(args, f.ProjectSlug)
	}
	if f.State != "" {
		query += ` AND state = ?`
		args = append(args, f.State)
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list actions: %w", err)
	}
	defer rows.Close()

	var out []models.Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan action: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// GetAction returns the live action with the given ID.
func (s *Store) GetAction(ctx context.Context, userID, id string) (*models.Action, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+actionColumns+` FROM actions WHERE id = ? AND user_id = ? AND deleted = 0`,
		id, userID)
	a, err := scanAction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: action %q: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get action: %w", err)
	}
	return a, nil
}

// UpdateAction applies a partial update to the live action with the given ID.
func (s *Store) UpdateAction(ctx context.Context, userID, id string, upd models.ActionUpdate) (*models.Action, error) {
	if upd.State != nil && !upd.State.Valid() {
		return nil, fmt.Errorf("store: update action: bad state %q: %w", *upd.State, apperr.ErrInvalid)
	}
	if upd.ProjectSlug != nil && *upd.ProjectSlug != "" {
		if err := s.requireProject(ctx, userID, *upd.ProjectSlug); err != nil {
			return nil, err
		}
	}

	sets := []string{"updated_at = ?"}
	args := []any{utcNow()}
	if upd.Text != nil {
		sets = append(sets, "text = ?")
		args = append(args, *upd.Text)
	}
	if upd.Context != nil {
		sets = append(sets, "context = ?")
		args = append(args, *upd.Context)
	}
	if upd.ProjectSlug != nil {
		sets = append(sets, "project_slug = ?")
		args = append(args, *upd.ProjectSlug)
	}
	if upd.State != nil {
		sets = append(sets, "state = ?")
		args = append(args, string(*upd.State))
	}
	if upd.Due != nil {
		sets = append(sets, "due = ?")
		args = append(args, upd.Due.Time)
	}
	if upd.Defer != nil {
		sets = append(sets, "defer_until = ?")
		args = append(args, upd.Defer.Time)
	}
	args = append(args, id, userID)

	res, err := s.db.ExecContext(ctx,
		`UPDATE actions SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ? AND deleted = 0`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("store: update action: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("store: action %q: %w", id, apperr.ErrNotFound)
	}
	return s.GetAction(ctx, userID, id)
}

// CompleteAction marks the action completed as of today.
func (s *Store) CompleteAction(ctx context.Context, userID, id string) (*models.Action, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE actions SET state = ?, completed = ?, updated_at = ?
		 WHERE id = ? AND user_id = ? AND deleted = 0`,
		string(models.ActionStateCompleted), models.Today().Time, utcNow(), id, userID)
	if err != nil {
		return nil, fmt.Errorf("store: complete action: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("store: action %q: %w", id, apperr.ErrNotFound)
	}
	return s.GetAction(ctx, userID, id)
}

// DeleteAction soft-deletes the live action with the given ID.
func (s *Store) DeleteAction(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE actions SET deleted = 1, updated_at = ? WHERE id = ? AND user_id = ? AND deleted = 0`,
		utcNow(), id, userID)
	if err != nil {
		return fmt.Errorf("store: delete action: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: action %q: %w", id, apperr.ErrNotFound)
	}
	return nil
}
