package sync

import (
	"fmt"
	"strings"
)

// Action is one reconciliation outcome for a single file or record.
type Action string

const (
	// ActionFileToDB pushed file content into the record.
	ActionFileToDB Action = "file_to_db"
	// ActionDBToFile regenerated the file from the record.
	ActionDBToFile Action = "db_to_file"
	// ActionCreatedInDB created a record from an unmatched file.
	ActionCreatedInDB Action = "created_in_db"
	// ActionCreatedAsFile wrote a file for an unmatched record.
	ActionCreatedAsFile Action = "created_as_file"
	// ActionSkipped left both sides untouched (timestamps equal).
	ActionSkipped Action = "skipped"
	// ActionError marks a per-item failure; the run continues.
	ActionError Action = "error"
)

// Report accumulates counts over one reconciliation run.
type Report struct {
	FileToDB      int
	DBToFile      int
	CreatedInDB   int
	CreatedAsFile int
	Skipped       int
	Errors        int
}

// Record tallies one action.
func (r *Report) Record(a Action) {
	switch a {
	case ActionFileToDB:
		r.FileToDB++
	case ActionDBToFile:
		r.DBToFile++
	case ActionCreatedInDB:
		r.CreatedInDB++
	case ActionCreatedAsFile:
		r.CreatedAsFile++
	case ActionSkipped:
		r.Skipped++
	case ActionError:
		r.Errors++
	}
}

// Changed reports whether the run mutated anything on either side.
func (r *Report) Changed() bool {
	return r.FileToDB+r.DBToFile+r.CreatedInDB+r.CreatedAsFile > 0
}

// Summary formats the run's counts for standard output.
func (r *Report) Summary() string {
	var b strings.Builder
	b.WriteString("=== Sync Summary ===\n")
	fmt.Fprintf(&b, "Files -> DB:      %d\n", r.FileToDB)
	fmt.Fprintf(&b, "DB -> Files:      %d\n", r.DBToFile)
	fmt.Fprintf(&b, "Created in DB:    %d\n", r.CreatedInDB)
	fmt.Fprintf(&b, "Created as files: %d\n", r.CreatedAsFile)
	fmt.Fprintf(&b, "Skipped:          %d\n", r.Skipped)
	fmt.Fprintf(&b, "Errors:           %d\n", r.Errors)
	return b.String()
}
