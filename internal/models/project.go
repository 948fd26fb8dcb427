// Package models defines the domain types for the execution service.
package models

import "time"

// ProjectFolder locates a project within the source tree.
type ProjectFolder string

const (
	ProjectFolderActive    ProjectFolder = "active"
	ProjectFolderIncubator ProjectFolder = "incubator"
	ProjectFolderCompleted ProjectFolder = "completed"
	ProjectFolderDescoped  ProjectFolder = "descoped"
)

// ProjectFolders lists every valid project folder.
var ProjectFolders = []ProjectFolder{
	ProjectFolderActive, ProjectFolderIncubator, ProjectFolderCompleted, ProjectFolderDescoped,
}

// Valid reports whether f is a known folder.
func (f ProjectFolder) Valid() bool {
	for _, v := range ProjectFolders {
		if f == v {
			return true
		}
	}
	return false
}

// ProjectType classifies a project.
type ProjectType string

const (
	ProjectTypeStandard     ProjectType = "standard"
	ProjectTypeCoordination ProjectType = "coordination"
	ProjectTypeHabit        ProjectType = "habit"
	ProjectTypeGoal         ProjectType = "goal"
)

// Valid reports whether t is a known project type.
func (t ProjectType) Valid() bool {
	switch t {
	case ProjectTypeStandard, ProjectTypeCoordination, ProjectTypeHabit, ProjectTypeGoal:
		return true
	}
	return false
}

// Project is a 10k-level project record.
type Project struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	Slug         string        `json:"slug"`
	Title        string        `json:"title"`
	Area         string        `json:"area"`
	Folder       ProjectFolder `json:"folder"`
	Type         ProjectType   `json:"type"`
	Content      string        `json:"content"`
	Created      Date          `json:"created"`
	Started      *Date         `json:"started,omitempty"`
	LastReviewed *Date         `json:"last_reviewed,omitempty"`
	Due          *Date         `json:"due,omitempty"`
	Completed    *Date         `json:"completed,omitempty"`
	Descoped     *Date         `json:"descoped,omitempty"`
	Deleted      bool          `json:"deleted"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// ProjectCreate carries the fields accepted when creating a project.
type ProjectCreate struct {
	Title   string
	Area    string
	Folder  ProjectFolder
	Type    ProjectType
	Due     *Date
	Content string

	// Slug, when set, is used as the slug base instead of the title. The
	// sync engine sets it so a file-originated record keeps the slug the
	// file already declares.
	Slug string

	// UpdatedAt, when set, overrides the write timestamp. The sync engine
	// uses it so a file-originated record carries the file's mtime.
	UpdatedAt *time.Time
}

// ProjectUpdate carries optional fields for a partial update. Nil means
// "leave unchanged". The slug is never regenerated by an update.
type ProjectUpdate struct {
	Title   *string
	Area    *string
	Folder  *ProjectFolder
	Type    *ProjectType
	Due     *Date
	Content *string

	// UpdatedAt, when set, overrides the write timestamp (sync engine).
	UpdatedAt *time.Time
}
