package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/elinsky/execution-service/internal/apperr"
	"github.com/elinsky/execution-service/internal/models"
	"github.com/elinsky/execution-service/internal/slug"
)

const goalColumns = `id, user_id, slug, title, area, folder, content,
	created, last_reviewed, deleted, created_at, updated_at`

// goalSlugs adapts the goals table to slug.Checker.
type goalSlugs struct{ s *Store }

func (g goalSlugs) SlugExists(ctx context.Context, userID, sl, excludeID string) (bool, error) {
	query := `SELECT 1 FROM goals WHERE user_id = ? AND slug = ? AND deleted = 0`
	args := []any{userID, sl}
	if excludeID != "" {
		query += ` AND id != ?`
		args = append(args, excludeID)
	}
	return g.s.exists(ctx, query, args...)
}

func scanGoal(row interface{ Scan(...any) error }) (*models.Goal, error) {
	var g models.Goal
	var created, lastReviewed sql.NullTime
	err := row.Scan(
		&g.ID, &g.UserID, &g.Slug, &g.Title, &g.Area, &g.Folder, &g.Content,
		&created, &lastReviewed, &g.Deleted, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if created.Valid {
		g.Created = models.NewDate(created.Time)
	}
	g.LastReviewed = dateOrNil(lastReviewed)
	g.CreatedAt = g.CreatedAt.UTC()
	g.UpdatedAt = g.UpdatedAt.UTC()
	return &g, nil
}

// CreateGoal creates a goal, generating a unique slug from the title.
func (s *Store) CreateGoal(ctx context.Context, userID string, in models.GoalCreate) (*models.Goal, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("store: create goal: title is required: %w", apperr.ErrInvalid)
	}
	folder := in.Folder
	if folder == "" {
		folder = models.GoalFolderActive
	}
	if !folder.Valid() {
		return nil, fmt.Errorf("store: create goal: bad folder %q: %w", folder, apperr.ErrInvalid)
	}

	base := in.Slug
	if base == "" {
		base = slug.Slugify(in.Title)
	}
	if base == "" {
		return nil, fmt.Errorf("store: create goal: title %q yields empty slug: %w", in.Title, apperr.ErrInvalid)
	}
	sl, err := slug.Unique(ctx, goalSlugs{s}, userID, base, "")
	if err != nil {
		return nil, fmt.Errorf("store: create goal: %w", err)
	}

	now := writeTime(in.UpdatedAt)
	g := &models.Goal{
		ID:        newID(),
		UserID:    userID,
		Slug:      sl,
		Title:     in.Title,
		Area:      in.Area,
		Folder:    folder,
		Content:   in.Content,
		Created:   models.Today(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, slug, title, area, folder, content,
			created, deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		g.ID, g.UserID, g.Slug, g.Title, g.Area, string(g.Folder), g.Content,
		g.Created.Time, g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("store: insert goal: %w", err)
	}
	return g, nil
}

// GoalFilter narrows ListGoals.
type GoalFilter struct {
	Folder string
	Area   string
}

// ListGoals returns the user's live goals, optionally filtered.
func (s *Store) ListGoals(ctx context.Context, userID string, f GoalFilter) ([]models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = ? AND deleted = 0`
	args := []any{userID}
	if f.Folder != "" {
		query += ` AND folder = ?`
		args = append(args, f.Folder)
	}
	if f.Area != "" {
		query += ` AND area = ?`
		args = append(args, f.Area)
	}
	query += ` ORDER BY slug`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list goals: %w", err)
	}
	defer rows.Close()

	var out []models.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan goal: %w", err)
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

// GetGoalBySlug returns the live goal with the given slug.
func (s *Store) GetGoalBySlug(ctx context.Context, userID, sl string) (*models.Goal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ? AND slug = ? AND deleted = 0`,
		userID, sl)
	g, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: goal %q: %w", sl, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get goal: %w", err)
	}
	return g, nil
}

// UpdateGoal applies a partial update to the live goal with the given slug.
func (s *Store) UpdateGoal(ctx context.Context, userID, sl string, upd models.GoalUpdate) (*models.Goal, error) {
	if upd.Folder != nil && !upd.Folder.Valid() {
		return nil, fmt.Errorf("store: update goal: bad folder %q: %w", *upd.Folder, apperr.ErrInvalid)
	}

	sets := []string{"updated_at = ?"}
	args := []any{writeTime(upd.UpdatedAt)}
	if upd.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Area != nil {
		sets = append(sets, "area = ?")
		args = append(args, *upd.Area)
	}
	if upd.Folder != nil {
		sets = append(sets, "folder = ?")
		args = append(args, string(*upd.Folder))
	}
	if upd.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *upd.Content)
	}
	args = append(args, userID, sl)

	res, err := s.db.ExecContext(ctx,
		`UPDATE goals SET `+strings.Join(sets, ", ")+` WHERE user_id = ? AND slug = ? AND deleted = 0`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("store: update goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("store: goal %q: %w", sl, apperr.ErrNotFound)
	}
	return s.GetGoalBySlug(ctx, userID, sl)
}

// DeleteGoal soft-deletes the live goal with the given slug.
func (s *Store) DeleteGoal(ctx context.Context, userID, sl string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE goals SET deleted = 1, updated_at = ? WHERE user_id = ? AND slug = ? AND deleted = 0`,
		utcNow(), userID, sl)
	if err != nil {
		return fmt.Errorf("store: delete goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: goal %q: %w", sl, apperr.ErrNotFound)
	}
	return nil
}
