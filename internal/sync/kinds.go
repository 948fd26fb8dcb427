package sync

import (
	"context"
	"strings"
	"time"

	"github.com/elinsky/execution-service/internal/frontmatter"
	"github.com/elinsky/execution-service/internal/models"
	"github.com/elinsky/execution-service/internal/store"
)

// Folder names under each kind's directory that the engine reconciles.
// Projects also have completed/ and descoped/ folders on disk, but those are
// historical archives and are left alone. Note a live record filed in an
// archive folder is exported again on every run: its file lands in a folder
// the scan never reads, so the record is never marked seen.
var activeFolders = []string{"active", "incubator"}

// projectKind reconciles the 10k-projects tree against project records.
type projectKind struct {
	store *store.Store
}

func (projectKind) name() string      { return "projects" }
func (projectKind) dir() string       { return "10k-projects" }
func (projectKind) folders() []string { return activeFolders }

func (k projectKind) load(ctx context.Context, userID string) (map[string]entry, error) {
	projects, err := k.store.ListProjects(ctx, userID, store.ProjectFilter{})
	if err != nil {
		return nil, err
	}
	out := make(map[string]entry, len(projects))
	for i := range projects {
		p := projects[i]
		out[p.Slug] = entry{
			slug:      p.Slug,
			folder:    string(p.Folder),
			updatedAt: p.UpdatedAt,
			render: func() []byte {
				return frontmatter.Render(projectDoc(&p), p.Content)
			},
		}
	}
	return out, nil
}

// push updates only the mutable file-owned fields. Empty title or area in
// the frontmatter leaves the record's value unchanged rather than blanking
// it. Folder, type, and lifecycle dates stay record-owned.
func (k projectKind) push(ctx context.Context, userID, slug string, doc frontmatter.Doc, body string, mtime time.Time) error {
	upd := models.ProjectUpdate{
		Content:   &body,
		UpdatedAt: &mtime,
	}
	if doc.Title != "" {
		upd.Title = &doc.Title
	}
	if doc.Area != "" {
		upd.Area = &doc.Area
	}
	_, err := k.store.UpdateProject(ctx, userID, slug, upd)
	return err
}

func (k projectKind) create(ctx context.Context, userID, folder, slug string, doc frontmatter.Doc, body string, mtime time.Time) error {
	in := models.ProjectCreate{
		Title:     doc.Title,
		Area:      doc.Area,
		Folder:    models.ProjectFolder(folder),
		Due:       doc.Due,
		Content:   body,
		Slug:      slug,
		UpdatedAt: &mtime,
	}
	if in.Title == "" {
		in.Title = titleFromSlug(slug)
	}
	if in.Area == "" {
		in.Area = "Uncategorized"
	}
	if doc.Type != "" {
		in.Type = models.ProjectType(doc.Type)
	}
	_, err := k.store.CreateProject(ctx, userID, in)
	return err
}

// projectDoc builds the canonical frontmatter for a project record.
func projectDoc(p *models.Project) frontmatter.Doc {
	created := p.Created
	return frontmatter.Doc{
		Title:        p.Title,
		Area:         p.Area,
		Type:         string(p.Type),
		Slug:         p.Slug,
		Created:      &created,
		Started:      p.Started,
		LastReviewed: p.LastReviewed,
		Due:          p.Due,
		Completed:    p.Completed,
		Descoped:     p.Descoped,
	}
}

// goalKind reconciles the 30k-goals tree against goal records.
type goalKind struct {
	store *store.Store
}

func (goalKind) name() string      { return "goals" }
func (goalKind) dir() string       { return "30k-goals" }
func (goalKind) folders() []string { return activeFolders }

func (k goalKind) load(ctx context.Context, userID string) (map[string]entry, error) {
	goals, err := k.store.ListGoals(ctx, userID, store.GoalFilter{})
	if err != nil {
		return nil, err
	}
	out := make(map[string]entry, len(goals))
	for i := range goals {
		g := goals[i]
		out[g.Slug] = entry{
			slug:      g.Slug,
			folder:    string(g.Folder),
			updatedAt: g.UpdatedAt,
			render: func() []byte {
				return frontmatter.Render(goalDoc(&g), g.Content)
			},
		}
	}
	return out, nil
}

func (k goalKind) push(ctx context.Context, userID, slug string, doc frontmatter.Doc, body string, mtime time.Time) error {
	upd := models.GoalUpdate{
		Content:   &body,
		UpdatedAt: &mtime,
	}
	if doc.Title != "" {
		upd.Title = &doc.Title
	}
	if doc.Area != "" {
		upd.Area = &doc.Area
	}
	_, err := k.store.UpdateGoal(ctx, userID, slug, upd)
	return err
}

func (k goalKind) create(ctx context.Context, userID, folder, slug string, doc frontmatter.Doc, body string, mtime time.Time) error {
	in := models.GoalCreate{
		Title:     doc.Title,
		Area:      doc.Area,
		Folder:    models.GoalFolder(folder),
		Content:   body,
		Slug:      slug,
		UpdatedAt: &mtime,
	}
	if in.Title == "" {
		in.Title = titleFromSlug(slug)
	}
	if in.Area == "" {
		in.Area = "Uncategorized"
	}
	_, err := k.store.CreateGoal(ctx, userID, in)
	return err
}

// goalDoc builds the canonical frontmatter for a goal record.
func goalDoc(g *models.Goal) frontmatter.Doc {
	created := g.Created
	return frontmatter.Doc{
		Title:        g.Title,
		Area:         g.Area,
		Slug:         g.Slug,
		Created:      &created,
		LastReviewed: g.LastReviewed,
	}
}

// titleFromSlug derives a display title when a file declares none:
// "learn-rust" becomes "Learn Rust".
func titleFromSlug(slug string) string {
	words := strings.Split(slug, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
