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

const projectColumns = `id, user_id, slug, title, area, folder, type, content,
	created, started, last_reviewed, due, completed, descoped,
	deleted, created_at, updated_at`

// projectSlugs adapts the projects table to slug.Checker.
type projectSlugs struct{ s *Store }

func (p projectSlugs) SlugExists(ctx context.Context, userID, sl, excludeID string) (bool, error) {
	query := `SELECT 1 FROM projects WHERE user_id = ? AND slug = ? AND deleted = 0`
	args := []any{userID, sl}
	if excludeID != "" {
		query += ` AND id != ?`
		args = append(args, excludeID)
	}
	return p.s.exists(ctx, query, args...)
}

func scanProject(row interface{ Scan(...any) error }) (*models.Project, error) {
	var p models.Project
	var started, lastReviewed, due, completed, descoped sql.NullTime
	var created sql.NullTime
	err := row.Scan(
		&p.ID, &p.UserID, &p.Slug, &p.Title, &p.Area, &p.Folder, &p.Type, &p.Content,
		&created, &started, &lastReviewed, &due, &completed, &descoped,
		&p.Deleted, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if created.Valid {
		p.Created = models.NewDate(created.Time)
	}
	p.Started = dateOrNil(started)
	p.LastReviewed = dateOrNil(lastReviewed)
	p.Due = dateOrNil(due)
	p.Completed = dateOrNil(completed)
	p.Descoped = dateOrNil(descoped)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

// CreateProject creates a project, generating a unique slug from the title.
func (s *Store) CreateProject(ctx context.Context, userID string, in models.ProjectCreate) (*models.Project, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("store: create project: title is required: %w", apperr.ErrInvalid)
	}
	folder := in.Folder
	if folder == "" {
		folder = models.ProjectFolderActive
	}
	if !folder.Valid() {
		return nil, fmt.Errorf("store: create project: bad folder %q: %w", folder, apperr.ErrInvalid)
	}
	typ := in.Type
	if typ == "" {
		typ = models.ProjectTypeStandard
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("store: create project: bad type %q: %w", typ, apperr.ErrInvalid)
	}

	base := in.Slug
	if base == "" {
		base = slug.Slugify(in.Title)
	}
	if base == "" {
		return nil, fmt.Errorf("store: create project: title %q yields empty slug: %w", in.Title, apperr.ErrInvalid)
	}
	sl, err := slug.Unique(ctx, projectSlugs{s}, userID, base, "")
	if err != nil {
		return nil, fmt.Errorf("store: create project: %w", err)
	}

	now := writeTime(in.UpdatedAt)
	created := models.Today()
	p := &models.Project{
		ID:        newID(),
		UserID:    userID,
		Slug:      sl,
		Title:     in.Title,
		Area:      in.Area,
		Folder:    folder,
		Type:      typ,
		Content:   in.Content,
		Created:   created,
		Due:       in.Due,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO projects (id, user_id, slug, title, area, folder, type, content,
			created, due, deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		p.ID, p.UserID, p.Slug, p.Title, p.Area, string(p.Folder), string(p.Type), p.Content,
		p.Created.Time, nullDate(p.Due), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("store: insert project: %w", err)
	}
	return p, nil
}

// ProjectFilter narrows ListProjects.
type ProjectFilter struct {
	Folder string
	Area   string
}

// ListProjects returns the user's live projects, optionally filtered.
func (s *Store) ListProjects(ctx context.Context, userID string, f ProjectFilter) ([]models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE user_id = ? AND deleted = 0`
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
		return nil, fmt.Errorf("store: list projects: %w", err)
	}
	defer rows.Close()

	var out []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan project: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// GetProjectBySlug returns the live project with the given slug.
func (s *Store) GetProjectBySlug(ctx context.Context, userID, sl string) (*models.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE user_id = ? AND slug = ? AND deleted = 0`,
		userID, sl)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: project %q: %w", sl, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get project: %w", err)
	}
	return p, nil
}

// UpdateProject applies a partial update to the live project with the given
// slug. The slug itself never changes.
func (s *Store) UpdateProject(ctx context.Context, userID, sl string, upd models.ProjectUpdate) (*models.Project, error) {
	if upd.Folder != nil && !upd.Folder.Valid() {
		return nil, fmt.Errorf("store: update project: bad folder %q: %w", *upd.Folder, apperr.ErrInvalid)
	}
	if upd.Type != nil && !upd.Type.Valid() {
		return nil, fmt.Errorf("store: update project: bad type %q: %w", *upd.Type, apperr.ErrInvalid)
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
	if upd.Type != nil {
		sets = append(sets, "type = ?")
		args = append(args, string(*upd.Type))
	}
	if upd.Due != nil {
		sets = append(sets, "due = ?")
		args = append(args, upd.Due.Time)
	}
	if upd.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *upd.Content)
	}
	args = append(args, userID, sl)

	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET `+strings.Join(sets, ", ")+` WHERE user_id = ? AND slug = ? AND deleted = 0`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("store: update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("store: project %q: %w", sl, apperr.ErrNotFound)
	}
	return s.GetProjectBySlug(ctx, userID, sl)
}

// DeleteProject soft-deletes the live project with the given slug.
func (s *Store) DeleteProject(ctx context.Context, userID, sl string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET deleted = 1, updated_at = ? WHERE user_id = ? AND slug = ? AND deleted = 0`,
		utcNow(), userID, sl)
	if err != nil {
		return fmt.Errorf("store: delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: project %q: %w", sl, apperr.ErrNotFound)
	}
	return nil
}
