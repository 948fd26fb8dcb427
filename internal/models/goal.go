package models

import "time"

// GoalFolder locates a goal within the source tree.
type GoalFolder string

const (
	GoalFolderActive    GoalFolder = "active"
	GoalFolderIncubator GoalFolder = "incubator"
)

// Valid reports whether f is a known goal folder.
func (f GoalFolder) Valid() bool {
	return f == GoalFolderActive || f == GoalFolderIncubator
}

// Goal is a 30k-level goal record.
type Goal struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Slug         string     `json:"slug"`
	Title        string     `json:"title"`
	Area         string     `json:"area"`
	Folder       GoalFolder `json:"folder"`
	Content      string     `json:"content"`
	Created      Date       `json:"created"`
	LastReviewed *Date      `json:"last_reviewed,omitempty"`
	Deleted      bool       `json:"deleted"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// GoalCreate carries the fields accepted when creating a goal.
type GoalCreate struct {
	Title   string
	Area    string
	Folder  GoalFolder
	Content string

	// Slug, when set, is used as the slug base instead of the title.
	Slug string

	// UpdatedAt, when set, overrides the write timestamp (sync engine).
	UpdatedAt *time.Time
}

// GoalUpdate carries optional fields for a partial update.
type GoalUpdate struct {
	Title   *string
	Area    *string
	Folder  *GoalFolder
	Content *string

	// UpdatedAt, when set, overrides the write timestamp (sync engine).
	UpdatedAt *time.Time
}
