package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/elinsky/execution-service/internal/apperr"
	"github.com/elinsky/execution-service/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testUser(t *testing.T, s *Store) *models.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), models.UserCreate{
		Email:    "test@example.com",
		Name:     "Test",
		Password: "long-enough-password",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	testUser(t, s)

	_, err := s.CreateUser(ctx, models.UserCreate{
		Email:    "Test@Example.com", // case-insensitive duplicate
		Password: "another-password",
	})
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestGetUserByEmail_HashStored(t *testing.T) {
	s := testStore(t)
	u := testUser(t, s)

	got, err := s.GetUserByEmail(context.Background(), "test@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("id = %q, want %q", got.ID, u.ID)
	}
	if got.HashedPassword == "long-enough-password" || got.HashedPassword == "" {
		t.Error("password stored badly")
	}
}

func TestCreateProject_SlugFromTitle(t *testing.T) {
	s := testStore(t)
	u := testUser(t, s)
	ctx := context.Background()

	p, err := s.CreateProject(ctx, u.ID, models.ProjectCreate{Title: "Learn Rust"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if p.Slug != "learn-rust" {
		t.Errorf("slug = %q, want learn-rust", p.Slug)
	}
	if p.Folder != models.ProjectFolderActive || p.Type != models.ProjectTypeStandard {
		t.Errorf("defaults not applied: %+v", p)
	}
}

func TestCreateProject_UniqueSlugSuffix(t *testing.T) {
	s := testStore(t)
	u := testUser(t, s)
	ctx := context.Background()

	if _, err := s.CreateProject(ctx, u.ID, models.ProjectCreate{Title: "Learn Rust"}); err != nil {
		t.Fatal(err)
	}
	p2, err := s.CreateProject(ctx, u.ID, models.ProjectCreate{Title: "Learn Rust"})
	if err != nil {
		t.Fatal(err)
	}
	if p2.Slug != "learn-rust-2" {
		t.Errorf("slug = %q, want learn-rust-2", p2.Slug)
	}
	p3, err := s.CreateProject(ctx, u.ID, models.ProjectCreate{Title: "Learn Rust"})
	if err != nil {
		t.Fatal(err)
	}
	if p3.Slug != "learn-rust-3" {
		t.Errorf("slug = %q, want learn-rust-3", p3.Slug)
	}
}

func TestUpdateProject_SlugStable(t *testing.T) {
	s := testStore(t)
	u := testUser(t, s)
	ctx := context.Background()

	p, _ := s.CreateProject(ctx, u.ID, models.ProjectCreate{Title: "Old Name"})
	title := "Completely New Name"
	got, err := s.UpdateProject(ctx, u.ID, p.Slug, models.ProjectUpdate{Title: &title})
	if err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}
	if got.Slug != "old-name" {
		t.Errorf("slug = %q, want unchanged old-name", got.Slug)
	}
	if got.Title != title {
		t.Errorf("title = %q", got.Title)
	}
}

func TestUpdateProject_TimestampOverride(t *testing.T) {
	s := testStore(t)
	u := testUser(t, s)
	ctx := context.Background()

	p, _ := s.CreateProject(ctx, u.ID, models.ProjectCreate{Title: "Timed"})
	want := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	content := "new body"
	got, err := s.UpdateProject(ctx, u.ID, p.Slug, models.ProjectUpdate{
		Content:   &content,
		UpdatedAt: &want,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !got.UpdatedAt.Equal(want) {
		t.Errorf("updated_at = %v, want %v", got.UpdatedAt, want)
	}
}

func TestDeleteProject_SoftAndSlugReuse(t *testing.T) {
	s := testStore(t)
	u := testUser(t, s)
	ctx := context.Background()

	p, _ := s.CreateProject(ctx, u.ID, models.ProjectCreate{Title: "Ephemeral"})
	if err := s.DeleteProject(ctx, u.ID, p.Slug); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if _, err := s.GetProjectBySlug(ctx, u.ID, p.Slug); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("get after delete: %v, want ErrNotFound", err)
	}
	list, err := s.ListProjects(ctx, u.ID, ProjectFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("list after delete = %d items, want 0", len(list))
	}

	// The slug is free again: a soft-deleted record does not block it.
	again, err := s.CreateProject(ctx, u.ID, models.ProjectCreate{Title: "Ephemeral"})
	if err != nil {
		t.Fatal(err)
	}
	if again.Slug != "ephemeral" {
		t.Errorf("slug = %q, want ephemeral", again.Slug)
	}
}

func TestListProjects_Filter(t *testing.T) {
	s := testStore(t)
	u := testUser(t, s)
	ctx := context.Background()

	_, _ = s.CreateProject(ctx, u.ID, models.ProjectCreate{Title: "A", Area: "Work"})
	_, _ = s.CreateProject(ctx, u.ID, models.ProjectCreate{Title: "B", Area: "Life", Folder: models.ProjectFolderIncubator})

	got, err := s.ListProjects(ctx, u.ID, ProjectFilter{Folder: "incubator"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Title != "B" {
		t.Errorf("filtered list = %+v", got)
	}
	got, _ = s.ListProjects(ctx, u.ID, ProjectFilter{Area: "Work"})
	if len(got) != 1 || got[0].Title != "A" {
		t.Errorf("area filter = %+v", got)
	}
}

func TestCreateAction_RequiresProject(t *testing.T) {
	s := testStore(t)
	u := testUser(t, s)
	ctx := context.Background()

	_, err := s.CreateAction(ctx, u.ID, models.ActionCreate{
		Text:        "Do the thing",
		ProjectSlug: "no-such-project",
	})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	_, _ = s.CreateProject(ctx, u.ID, models.ProjectCreate{Title: "Real Project"})
	a, err := s.CreateAction(ctx, u.ID, models.ActionCreate{
		Text:        "Do the thing",
		Context:     "@macbook",
		ProjectSlug: "real-project",
	})
	if err != nil {
		t.Fatalf("CreateAction: %v", err)
	}
	if a.State != models.ActionStateNext {
		t.Errorf("state = %q, want next", a.State)
	}
}

func TestCompleteAction(t *testing.T) {
	s := testStore(t)
	u := testUser(t, s)
	ctx := context.Background()

	a, _ := s.CreateAction(ctx, u.ID, models.ActionCreate{Text: "Finish it"})
	got, err := s.CompleteAction(ctx, u.ID, a.ID)
	if err != nil {
		t.Fatalf("CompleteAction: %v", err)
	}
	if got.State != models.ActionStateCompleted {
		t.Errorf("state = %q, want completed", got.State)
	}
	if got.Completed == nil {
		t.Error("completed date not set")
	}
}

func TestListActions_Filters(t *testing.T) {
	s := testStore(t)
	u := testUser(t, s)
	ctx := context.Background()

	_, _ = s.CreateProject(ctx, u.ID, models.ProjectCreate{Title: "P"})
	_, _ = s.CreateAction(ctx, u.ID, models.ActionCreate{Text: "a", Context: "@home"})
	_, _ = s.CreateAction(ctx, u.ID, models.ActionCreate{Text: "b", Context: "@macbook", ProjectSlug: "p"})

	got, err := s.ListActions(ctx, u.ID, ActionFilter{Context: "@macbook"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Text != "b" {
		t.Errorf("context filter = %+v", got)
	}
	got, _ = s.ListActions(ctx, u.ID, ActionFilter{ProjectSlug: "p"})
	if len(got) != 1 || got[0].Text != "b" {
		t.Errorf("project filter = %+v", got)
	}
}

func TestStartTimer_SecondConflicts(t *testing.T) {
	s := testStore(t)
	u := testUser(t, s)
	ctx := context.Background()

	_, _ = s.CreateProject(ctx, u.ID, models.ProjectCreate{Title: "Tracked"})
	if _, err := s.StartTimer(ctx, u.ID, "tracked", "deep work"); err != nil {
		t.Fatalf("StartTimer: %v", err)
	}
	_, err := s.StartTimer(ctx, u.ID, "tracked", "again")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestStartTimer_UnknownProject(t *testing.T) {
	s := testStore(t)
	u := testUser(t, s)

	_, err := s.StartTimer(context.Background(), u.ID, "ghost", "")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStopTimer(t *testing.T) {
	s := testStore(t)
	u := testUser(t, s)
	ctx := context.Background()

	_, _ = s.CreateProject(ctx, u.ID, models.ProjectCreate{Title: "Tracked"})
	started, _ := s.StartTimer(ctx, u.ID, "tracked", "")

	stopped, err := s.StopTimer(ctx, u.ID)
	if err != nil {
		t.Fatalf("StopTimer: %v", err)
	}
	if stopped.ID != started.ID {
		t.Errorf("stopped wrong entry")
	}
	if stopped.EndTime == nil || stopped.DurationMinutes == nil {
		t.Fatal("end time or duration missing")
	}
	if stopped.Running() {
		t.Error("entry still running after stop")
	}

	// Nothing left to stop.
	if _, err := s.StopTimer(ctx, u.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second stop: %v, want ErrNotFound", err)
	}
}

func TestCreateTimeEntry_DerivesDuration(t *testing.T) {
	s := testStore(t)
	u := testUser(t, s)
	ctx := context.Background()

	_, _ = s.CreateProject(ctx, u.ID, models.ProjectCreate{Title: "Tracked"})
	start := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)
	e, err := s.CreateTimeEntry(ctx, u.ID, models.TimeEntryCreate{
		ProjectSlug: "tracked",
		StartTime:   start,
		EndTime:     &end,
	})
	if err != nil {
		t.Fatalf("CreateTimeEntry: %v", err)
	}
	if e.DurationMinutes == nil || *e.DurationMinutes != 90 {
		t.Errorf("duration = %v, want 90", e.DurationMinutes)
	}
}

func TestCreateTimeEntry_EndBeforeStart(t *testing.T) {
	s := testStore(t)
	u := testUser(t, s)
	ctx := context.Background()

	_, _ = s.CreateProject(ctx, u.ID, models.ProjectCreate{Title: "Tracked"})
	start := time.Now().UTC()
	end := start.Add(-time.Hour)
	_, err := s.CreateTimeEntry(ctx, u.ID, models.TimeEntryCreate{
		ProjectSlug: "tracked",
		StartTime:   start,
		EndTime:     &end,
	})
	if !errors.Is(err, apperr.ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}
}

func TestUserScoping(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	u1 := testUser(t, s)
	u2, err := s.CreateUser(ctx, models.UserCreate{
		Email:    "other@example.com",
		Password: "another-password",
	})
	if err != nil {
		t.Fatal(err)
	}

	_, _ = s.CreateProject(ctx, u1.ID, models.ProjectCreate{Title: "Mine"})
	if _, err := s.GetProjectBySlug(ctx, u2.ID, "mine"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("cross-user read: %v, want ErrNotFound", err)
	}
	// Same slug is free for the other user.
	p, err := s.CreateProject(ctx, u2.ID, models.ProjectCreate{Title: "Mine"})
	if err != nil {
		t.Fatal(err)
	}
	if p.Slug != "mine" {
		t.Errorf("slug = %q, want mine", p.Slug)
	}
}
