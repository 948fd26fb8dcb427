package models

import "time"

// ActionState tracks an action through the todo.txt-style workflow.
type ActionState string

const (
	ActionStateNext       ActionState = "next"
	ActionStateWaiting    ActionState = "waiting"
	ActionStateDeferred   ActionState = "deferred"
	ActionStateIncubating ActionState = "incubating"
	ActionStateCompleted  ActionState = "completed"
)

// Valid reports whether s is a known action state.
func (s ActionState) Valid() bool {
	switch s {
	case ActionStateNext, ActionStateWaiting, ActionStateDeferred,
		ActionStateIncubating, ActionStateCompleted:
		return true
	}
	return false
}

// Action is a single next action, optionally attached to a project.
type Action struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Text        string      `json:"text"`
	Context     string      `json:"context"` // e.g. @macbook, @home, @phone
	ProjectSlug string      `json:"project_slug,omitempty"`
	State       ActionState `json:"state"`
	ActionDate  Date        `json:"action_date"`
	Due         *Date       `json:"due,omitempty"`
	Defer       *Date       `json:"defer,omitempty"`
	Completed   *Date       `json:"completed,omitempty"`
	Deleted     bool        `json:"deleted"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// ActionCreate carries the fields accepted when creating an action.
type ActionCreate struct {
	Text        string
	Context     string
	ProjectSlug string
	Due         *Date
	Defer       *Date
}

// ActionUpdate carries optional fields for a partial update.
type ActionUpdate struct {
	Text        *string
	Context     *string
	ProjectSlug *string
	State       *ActionState
	Due         *Date
	Defer       *Date
}
