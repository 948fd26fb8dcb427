package api

import (
	"encoding/json"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/elinsky/execution-service/internal/models"
)

// timeLayout is the wire format for absolute timestamps.
const timeLayout = time.RFC3339

// decode reads, parses, and validates a JSON request body. On failure it
// writes the 400 response itself and returns false.
func decode(w http.ResponseWriter, r *http.Request, v interface{ Validate() error }) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	if err := v.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return false
	}
	return true
}

// parseDate converts an optional "YYYY-MM-DD" string to a date pointer.
// Validation has already checked the format; a bad string comes back nil.
func parseDate(s string) *models.Date {
	if s == "" {
		return nil
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return nil
	}
	return &d
}

// parseTime converts an optional RFC 3339 string to a UTC time pointer.
func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 128)),
	)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// tokenResponse is returned by login.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

var projectFolderRule = validation.In("active", "incubator", "completed", "descoped")
var projectTypeRule = validation.In("standard", "coordination", "habit", "goal")
var goalFolderRule = validation.In("active", "incubator")
var actionStateRule = validation.In("next", "waiting", "deferred", "incubating", "completed")
var dateRule = validation.Date(models.DateLayout)

type createProjectRequest struct {
	Title   string `json:"title"`
	Area    string `json:"area"`
	Folder  string `json:"folder"`
	Type    string `json:"type"`
	Due     string `json:"due"`
	Content string `json:"content"`
}

func (r createProjectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Folder, projectFolderRule),
		validation.Field(&r.Type, projectTypeRule),
		validation.Field(&r.Due, dateRule),
	)
}

type updateProjectRequest struct {
	Title   *string `json:"title"`
	Area    *string `json:"area"`
	Folder  *string `json:"folder"`
	Type    *string `json:"type"`
	Due     *string `json:"due"`
	Content *string `json:"content"`
}

func (r updateProjectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Folder, projectFolderRule),
		validation.Field(&r.Type, projectTypeRule),
		validation.Field(&r.Due, dateRule),
	)
}

type createGoalRequest struct {
	Title   string `json:"title"`
	Area    string `json:"area"`
	Folder  string `json:"folder"`
	Content string `json:"content"`
}

func (r createGoalRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required),
		validation.Field(&r.Folder, goalFolderRule),
	)
}

type updateGoalRequest struct {
	Title   *string `json:"title"`
	Area    *string `json:"area"`
	Folder  *string `json:"folder"`
	Content *string `json:"content"`
}

func (r updateGoalRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Folder, goalFolderRule),
	)
}

type createActionRequest struct {
	Text        string `json:"text"`
	Context     string `json:"context"`
	ProjectSlug string `json:"project_slug"`
	Due         string `json:"due"`
	Defer       string `json:"defer"`
}

func (r createActionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Text, validation.Required),
		validation.Field(&r.Due, dateRule),
		validation.Field(&r.Defer, dateRule),
	)
}

type updateActionRequest struct {
	Text        *string `json:"text"`
	Context     *string `json:"context"`
	ProjectSlug *string `json:"project_slug"`
	State       *string `json:"state"`
	Due         *string `json:"due"`
	Defer       *string `json:"defer"`
}

func (r updateActionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.State, actionStateRule),
		validation.Field(&r.Due, dateRule),
		validation.Field(&r.Defer, dateRule),
	)
}

type startTimerRequest struct {
	ProjectSlug string `json:"project_slug"`
	Description string `json:"description"`
}

func (r startTimerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProjectSlug, validation.Required),
	)
}

type createTimeEntryRequest struct {
	ProjectSlug     string `json:"project_slug"`
	Description     string `json:"description"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes *int   `json:"duration_minutes"`
}

func (r createTimeEntryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProjectSlug, validation.Required),
		validation.Field(&r.StartTime, validation.Required, validation.Date(timeLayout)),
		validation.Field(&r.EndTime, validation.Date(timeLayout)),
		validation.Field(&r.DurationMinutes, validation.Min(0)),
	)
}

type updateTimeEntryRequest struct {
	Description     *string `json:"description"`
	EndTime         *string `json:"end_time"`
	DurationMinutes *int    `json:"duration_minutes"`
}

func (r updateTimeEntryRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.EndTime, validation.Date(timeLayout)),
		validation.Field(&r.DurationMinutes, validation.Min(0)),
	)
}
