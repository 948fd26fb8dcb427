package models

import "time"

// TimeEntry records time spent on a project. A running timer is an entry
// with no end time; at most one may run per user.
type TimeEntry struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	ProjectSlug     string     `json:"project_slug"`
	Description     string     `json:"description"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Running reports whether the entry is an open timer.
func (e *TimeEntry) Running() bool {
	return e.EndTime == nil
}

// TimeEntryCreate carries the fields accepted when logging a manual entry.
type TimeEntryCreate struct {
	ProjectSlug     string
	Description     string
	StartTime       time.Time
	EndTime         *time.Time
	DurationMinutes *int
}

// TimeEntryUpdate carries optional fields for a partial update.
type TimeEntryUpdate struct {
	Description     *string
	EndTime         *time.Time
	DurationMinutes *int
}
