package sync

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/elinsky/execution-service/internal/models"
	"github.com/elinsky/execution-service/internal/storage"
	"github.com/elinsky/execution-service/internal/store"
)

type fixture struct {
	engine *Engine
	store  *store.Store
	root   string
	userID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	fs, err := storage.NewFS(root)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	u, err := st.CreateUser(context.Background(), models.UserCreate{
		Email:    "sync@example.com",
		Password: "long-enough-password",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &fixture{
		engine: New(st, fs, log),
		store:  st,
		root:   root,
		userID: u.ID,
	}
}

// writeFile drops a markdown file under root and pins its mtime.
func (f *fixture) writeFile(t *testing.T, rel, content string, mtime time.Time) {
	t.Helper()
	p := filepath.Join(f.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(p, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) readFile(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func (f *fixture) run(t *testing.T, opts Options) *Report {
	t.Helper()
	report, err := f.engine.Run(context.Background(), f.userID, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return report
}

func checkReport(t *testing.T, got *Report, want Report) {
	t.Helper()
	if *got != want {
		t.Errorf("report = %+v, want %+v", *got, want)
	}
}

func TestRun_EmptyTreeEmptyStore(t *testing.T) {
	f := newFixture(t)
	checkReport(t, f.run(t, Options{}), Report{})
}

func TestRun_CreatesRecordsFromFiles(t *testing.T) {
	f := newFixture(t)
	old := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f.writeFile(t, "10k-projects/active/learn-rust.md",
		"---\narea: Growth\ntitle: Learn Rust\n---\nRead the book.\n", old)
	f.writeFile(t, "30k-goals/incubator/run-marathon.md",
		"---\ntitle: Run a Marathon\n---\n", old)

	checkReport(t, f.run(t, Options{}), Report{CreatedInDB: 2})

	p, err := f.store.GetProjectBySlug(context.Background(), f.userID, "learn-rust")
	if err != nil {
		t.Fatalf("GetProjectBySlug: %v", err)
	}
	if p.Title != "Learn Rust" || p.Area != "Growth" {
		t.Errorf("project = %+v", p)
	}
	if p.Content != "Read the book.\n" {
		t.Errorf("content = %q", p.Content)
	}
	if !p.UpdatedAt.Equal(old) {
		t.Errorf("updated_at = %v, want the file mtime %v", p.UpdatedAt, old)
	}
	g, err := f.store.GetGoalBySlug(context.Background(), f.userID, "run-marathon")
	if err != nil {
		t.Fatalf("GetGoalBySlug: %v", err)
	}
	if g.Folder != models.GoalFolderIncubator {
		t.Errorf("goal folder = %q, want incubator", g.Folder)
	}
}

func TestRun_SecondRunSkips(t *testing.T) {
	f := newFixture(t)
	old := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f.writeFile(t, "10k-projects/active/learn-rust.md",
		"---\ntitle: Learn Rust\n---\nbody\n", old)

	f.run(t, Options{})
	checkReport(t, f.run(t, Options{}), Report{Skipped: 1})
}

func TestRun_FileNewerPushes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.store.CreateProject(ctx, f.userID, models.ProjectCreate{Title: "Learn Rust", Area: "Growth"})
	if err != nil {
		t.Fatal(err)
	}

	future := time.Now().Add(time.Hour).Truncate(time.Second)
	f.writeFile(t, "10k-projects/active/learn-rust.md",
		"---\narea: Deep Growth\ntitle: Learn Rust Properly\n---\nNew plan.\n", future)

	checkReport(t, f.run(t, Options{}), Report{FileToDB: 1})

	got, err := f.store.GetProjectBySlug(ctx, f.userID, p.Slug)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Learn Rust Properly" || got.Area != "Deep Growth" {
		t.Errorf("record not updated: %+v", got)
	}
	if got.Content != "New plan.\n" {
		t.Errorf("content = %q", got.Content)
	}
	if !got.UpdatedAt.Equal(future) {
		t.Errorf("updated_at = %v, want %v", got.UpdatedAt, future)
	}

	checkReport(t, f.run(t, Options{}), Report{Skipped: 1})
}

func TestRun_RecordNewerPulls(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.store.CreateProject(ctx, f.userID, models.ProjectCreate{
		Title:   "Learn Rust",
		Area:    "Growth",
		Content: "The record body.\n",
	})
	if err != nil {
		t.Fatal(err)
	}

	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	rel := "10k-projects/active/learn-rust.md"
	f.writeFile(t, rel, "---\ntitle: Stale Title\n---\nstale body\n", past)

	checkReport(t, f.run(t, Options{}), Report{DBToFile: 1})

	got := f.readFile(t, rel)
	if got == "---\ntitle: Stale Title\n---\nstale body\n" {
		t.Fatal("file not rewritten")
	}
	doc, body := parseForTest(t, got)
	if doc["title"] != "Learn Rust" || doc["slug"] != p.Slug {
		t.Errorf("frontmatter = %v", doc)
	}
	if body != "The record body.\n" {
		t.Errorf("body = %q", body)
	}

	// The mtime was equalized with updated_at, so nothing moves again.
	checkReport(t, f.run(t, Options{}), Report{Skipped: 1})
}

func TestRun_OrphanRecordExported(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.CreateProject(ctx, f.userID, models.ProjectCreate{
		Title:  "Hidden Project",
		Folder: models.ProjectFolderIncubator,
	})
	if err != nil {
		t.Fatal(err)
	}

	checkReport(t, f.run(t, Options{}), Report{CreatedAsFile: 1})

	rel := "10k-projects/incubator/hidden-project.md"
	doc, _ := parseForTest(t, f.readFile(t, rel))
	if doc["title"] != "Hidden Project" {
		t.Errorf("frontmatter = %v", doc)
	}
	checkReport(t, f.run(t, Options{}), Report{Skipped: 1})
}

func TestRun_DeletedRecordRecreatedFromFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	old := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f.writeFile(t, "10k-projects/active/learn-rust.md",
		"---\ntitle: Learn Rust\n---\n", old)
	f.run(t, Options{})

	if err := f.store.DeleteProject(ctx, f.userID, "learn-rust"); err != nil {
		t.Fatal(err)
	}

	// The deleted record no longer participates, so the file looks new
	// again and recreates it under the same slug.
	checkReport(t, f.run(t, Options{}), Report{CreatedInDB: 1})
	p, err := f.store.GetProjectBySlug(ctx, f.userID, "learn-rust")
	if err != nil {
		t.Fatalf("GetProjectBySlug: %v", err)
	}
	if p.Slug != "learn-rust" {
		t.Errorf("slug = %q", p.Slug)
	}
}

func TestRun_DryRunMutatesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	old := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	rel := "10k-projects/active/new-from-file.md"
	f.writeFile(t, rel, "---\ntitle: New From File\n---\n", old)
	_, err := f.store.CreateProject(ctx, f.userID, models.ProjectCreate{Title: "Orphan Record"})
	if err != nil {
		t.Fatal(err)
	}

	checkReport(t, f.run(t, Options{DryRun: true}), Report{CreatedInDB: 1, CreatedAsFile: 1})

	if _, err := f.store.GetProjectBySlug(ctx, f.userID, "new-from-file"); err == nil {
		t.Error("dry run created a record")
	}
	if _, err := os.Stat(filepath.Join(f.root, "10k-projects/active/orphan-record.md")); err == nil {
		t.Error("dry run wrote a file")
	}

	// A real run afterwards does the same work for real.
	checkReport(t, f.run(t, Options{}), Report{CreatedInDB: 1, CreatedAsFile: 1})
}

func TestRun_ForcePushesRegardless(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.CreateProject(ctx, f.userID, models.ProjectCreate{
		Title:   "Learn Rust",
		Content: "record body\n",
	})
	if err != nil {
		t.Fatal(err)
	}

	// File is older than the record; without force this would be a pull.
	past := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	f.writeFile(t, "10k-projects/active/learn-rust.md",
		"---\ntitle: Learn Rust\n---\nfile body\n", past)

	checkReport(t, f.run(t, Options{Force: true}), Report{FileToDB: 1})

	got, err := f.store.GetProjectBySlug(ctx, f.userID, "learn-rust")
	if err != nil {
		t.Fatal(err)
	}
	if got.Content != "file body\n" {
		t.Errorf("content = %q, want the file body", got.Content)
	}
}

func TestRun_DuplicateSlugCounted(t *testing.T) {
	f := newFixture(t)
	old := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	// Different filenames, same declared slug.
	f.writeFile(t, "10k-projects/active/a.md",
		"---\ntitle: First\nslug: same-slug\n---\n", old)
	f.writeFile(t, "10k-projects/active/b.md",
		"---\ntitle: Second\nslug: same-slug\n---\n", old)

	report := f.run(t, Options{})
	if report.CreatedInDB != 1 || report.Errors != 1 {
		t.Errorf("report = %+v, want 1 created and 1 error", *report)
	}
}

func TestRun_FilenameSlugFallback(t *testing.T) {
	f := newFixture(t)
	old := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f.writeFile(t, "10k-projects/active/ship-the-thing.md", "no frontmatter here\n", old)

	checkReport(t, f.run(t, Options{}), Report{CreatedInDB: 1})

	p, err := f.store.GetProjectBySlug(context.Background(), f.userID, "ship-the-thing")
	if err != nil {
		t.Fatal(err)
	}
	if p.Title != "Ship The Thing" {
		t.Errorf("title = %q, want derived from the slug", p.Title)
	}
	if p.Content != "no frontmatter here\n" {
		t.Errorf("content = %q", p.Content)
	}
}

func TestRun_ArchivedRecordExportedEachRun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.store.CreateProject(ctx, f.userID, models.ProjectCreate{
		Title:  "Shipped It",
		Folder: models.ProjectFolderCompleted,
	})
	if err != nil {
		t.Fatal(err)
	}

	// The export lands in a folder the scan never reads, so the record is
	// an orphan on every run.
	checkReport(t, f.run(t, Options{}), Report{CreatedAsFile: 1})
	checkReport(t, f.run(t, Options{}), Report{CreatedAsFile: 1})

	rel := "10k-projects/completed/shipped-it.md"
	doc, _ := parseForTest(t, f.readFile(t, rel))
	if doc["title"] != "Shipped It" {
		t.Errorf("frontmatter = %v", doc)
	}
}

func TestRun_ArchiveFoldersIgnored(t *testing.T) {
	f := newFixture(t)
	old := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f.writeFile(t, "10k-projects/completed/done-long-ago.md",
		"---\ntitle: Done Long Ago\n---\n", old)

	checkReport(t, f.run(t, Options{}), Report{})
}

func TestTitleFromSlug(t *testing.T) {
	tests := []struct {
		slug string
		want string
	}{
		{"learn-rust", "Learn Rust"},
		{"x", "X"},
		{"already-one-word", "Already One Word"},
	}
	for _, tt := range tests {
		if got := titleFromSlug(tt.slug); got != tt.want {
			t.Errorf("titleFromSlug(%q) = %q, want %q", tt.slug, got, tt.want)
		}
	}
}

// parseForTest splits rendered output into a key/value map and the body,
// enough to assert on without depending on field ordering.
func parseForTest(t *testing.T, s string) (map[string]string, string) {
	t.Helper()
	rest, ok := strings.CutPrefix(s, "---\n")
	if !ok {
		t.Fatalf("no frontmatter in %q", s)
	}
	block, body, found := strings.Cut(rest, "\n---\n")
	if !found {
		t.Fatalf("unclosed frontmatter in %q", s)
	}
	doc := make(map[string]string)
	for _, line := range strings.Split(block, "\n") {
		if k, v, ok := strings.Cut(line, ": "); ok {
			doc[k] = v
		}
	}
	return doc, body
}
