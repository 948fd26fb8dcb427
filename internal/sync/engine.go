// Package sync reconciles the markdown source tree with the record store.
// Each run is a full scan per entity kind: files and live records are joined
// on slug, conflicts resolve by comparing file mtime against the record's
// updated_at, and whichever side is newer overwrites the other. Creates are
// detected on both sides. Per-item failures are counted and logged, never
// fatal; only a broken setup (missing tree root, unreachable store) aborts
// the run.
package sync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/elinsky/execution-service/internal/frontmatter"
	"github.com/elinsky/execution-service/internal/slug"
	"github.com/elinsky/execution-service/internal/storage"
	"github.com/elinsky/execution-service/internal/store"
)

// Storage is the slice of the tree provider the engine needs.
type Storage interface {
	List(dir string) ([]storage.FileMeta, error)
	Read(path string) ([]byte, error)
	Write(path string, content []byte) error
	Touch(path string, mtime time.Time) error
}

var _ Storage = (*storage.FS)(nil)

// Options control a single run.
type Options struct {
	// DryRun computes and logs every action but suppresses all writes on
	// both sides. Counts come out identical to a real run.
	DryRun bool
	// Force disables the timestamp comparison: every matched file is
	// pushed into the store regardless of which side is newer.
	Force bool
}

// entry is one live record as the engine sees it: enough to compare, plus a
// closure that renders its canonical file content on demand.
type entry struct {
	slug      string
	folder    string
	updatedAt time.Time
	render    func() []byte
}

// kind is one reconciled entity family (projects, goals).
type kind interface {
	name() string
	dir() string
	folders() []string
	load(ctx context.Context, userID string) (map[string]entry, error)
	push(ctx context.Context, userID, slug string, doc frontmatter.Doc, body string, mtime time.Time) error
	create(ctx context.Context, userID, folder, slug string, doc frontmatter.Doc, body string, mtime time.Time) error
}

// Engine runs the reconciliation.
type Engine struct {
	store *store.Store
	fs    Storage
	log   *slog.Logger
}

// New creates an engine over the given record store and tree provider.
func New(st *store.Store, fs Storage, log *slog.Logger) *Engine {
	return &Engine{store: st, fs: fs, log: log}
}

// Run reconciles every entity kind for one user and returns the run report.
// The error return covers setup failures only; per-item failures land in the
// report's error count.
func (e *Engine) Run(ctx context.Context, userID string, opts Options) (*Report, error) {
	e.log.Info("sync: run starting",
		slog.String("user_id", userID),
		slog.Bool("dry_run", opts.DryRun),
		slog.Bool("force", opts.Force))

	report := &Report{}
	kinds := []kind{
		projectKind{store: e.store},
		goalKind{store: e.store},
	}
	for _, k := range kinds {
		if err := e.syncKind(ctx, k, userID, opts, report); err != nil {
			return report, fmt.Errorf("sync: %s: %w", k.name(), err)
		}
	}

	e.log.Info("sync: run finished",
		slog.Int("file_to_db", report.FileToDB),
		slog.Int("db_to_file", report.DBToFile),
		slog.Int("created_in_db", report.CreatedInDB),
		slog.Int("created_as_file", report.CreatedAsFile),
		slog.Int("skipped", report.Skipped),
		slog.Int("errors", report.Errors),
	)
	return report, nil
}

func (e *Engine) syncKind(ctx context.Context, k kind, userID string, opts Options, report *Report) error {
	records, err := k.load(ctx, userID)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(records))
	for _, folder := range k.folders() {
		dir := path.Join(k.dir(), folder)
		files, err := e.fs.List(dir)
		if errors.Is(err, fs.ErrNotExist) {
			// An absent folder is an empty folder.
			continue
		}
		if err != nil {
			e.log.Warn("sync: listing folder failed", slog.String("dir", dir), slog.String("error", err.Error()))
			report.Record(ActionError)
			continue
		}
		for _, fm := range files {
			e.syncFile(ctx, k, userID, folder, fm, records, seen, opts, report)
		}
	}

	// Records never matched by a file get exported.
	orphans := make([]string, 0, len(records))
	for sl := range records {
		if !seen[sl] {
			orphans = append(orphans, sl)
		}
	}
	sort.Strings(orphans)
	for _, sl := range orphans {
		e.createAsFile(k, records[sl], opts, report)
	}
	return nil
}

// syncFile reconciles a single file against the record map. The decision is
// computed first and logged, then applied unless the run is a dry run.
func (e *Engine) syncFile(
	ctx context.Context,
	k kind,
	userID, folder string,
	fm storage.FileMeta,
	records map[string]entry,
	seen map[string]bool,
	opts Options,
	report *Report,
) {
	data, err := e.fs.Read(fm.Path)
	if err != nil {
		e.log.Warn("sync: reading file failed", slog.String("path", fm.Path), slog.String("error", err.Error()))
		report.Record(ActionError)
		return
	}
	doc, body := frontmatter.Parse(data)

	sl := doc.Slug
	if sl == "" {
		sl = slug.Slugify(fileStem(fm.Path))
	}
	if sl == "" {
		e.log.Warn("sync: file yields no slug", slog.String("path", fm.Path))
		report.Record(ActionError)
		return
	}
	if seen[sl] {
		// Two files in one scan resolved to the same slug. The first one
		// won; reconciling the second would clobber it.
		e.log.Warn("sync: duplicate slug in scan", slog.String("path", fm.Path), slog.String("slug", sl))
		report.Record(ActionError)
		return
	}
	seen[sl] = true

	rec, matched := records[sl]
	if !matched {
		e.log.Info("sync: creating record from file", slog.String("kind", k.name()), slog.String("path", fm.Path), slog.String("slug", sl))
		if !opts.DryRun {
			if err := k.create(ctx, userID, folder, sl, doc, body, fm.ModTime); err != nil {
				e.log.Warn("sync: create failed", slog.String("path", fm.Path), slog.String("slug", sl), slog.String("error", err.Error()))
				report.Record(ActionError)
				return
			}
		}
		report.Record(ActionCreatedInDB)
		return
	}

	switch {
	case opts.Force || fm.ModTime.After(rec.updatedAt):
		e.log.Info("sync: pushing file to store", slog.String("kind", k.name()), slog.String("path", fm.Path), slog.String("slug", sl))
		if !opts.DryRun {
			if err := k.push(ctx, userID, sl, doc, body, fm.ModTime); err != nil {
				e.log.Warn("sync: push failed", slog.String("path", fm.Path), slog.String("slug", sl), slog.String("error", err.Error()))
				report.Record(ActionError)
				return
			}
		}
		report.Record(ActionFileToDB)

	case fm.ModTime.Before(rec.updatedAt):
		e.log.Info("sync: pulling record to file", slog.String("kind", k.name()), slog.String("path", fm.Path), slog.String("slug", sl))
		if !opts.DryRun {
			if err := e.writeEntry(fm.Path, rec); err != nil {
				e.log.Warn("sync: pull failed", slog.String("path", fm.Path), slog.String("slug", sl), slog.String("error", err.Error()))
				report.Record(ActionError)
				return
			}
		}
		report.Record(ActionDBToFile)

	default:
		report.Record(ActionSkipped)
	}
}

// createAsFile exports an unmatched record into its folder.
func (e *Engine) createAsFile(k kind, rec entry, opts Options, report *Report) {
	p := path.Join(k.dir(), rec.folder, rec.slug+".md")
	e.log.Info("sync: creating file from record", slog.String("kind", k.name()), slog.String("path", p), slog.String("slug", rec.slug))
	if !opts.DryRun {
		if err := e.writeEntry(p, rec); err != nil {
			e.log.Warn("sync: export failed", slog.String("path", p), slog.String("slug", rec.slug), slog.String("error", err.Error()))
			report.Record(ActionError)
			return
		}
	}
	report.Record(ActionCreatedAsFile)
}

// writeEntry renders a record to disk and equalizes the file's mtime with
// the record's updated_at, so the next run sees the pair as in sync.
func (e *Engine) writeEntry(path string, rec entry) error {
	if err := e.fs.Write(path, rec.render()); err != nil {
		return err
	}
	return e.fs.Touch(path, rec.updatedAt)
}

// fileStem returns the file name without directory or .md extension.
func fileStem(p string) string {
	return strings.TrimSuffix(path.Base(p), ".md")
}
