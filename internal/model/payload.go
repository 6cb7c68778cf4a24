package model

import (
	"encoding/json"
	"time"
)

// Optional is a payload field that tells "absent" apart from an explicit
// value. For pointer types an explicit JSON null decodes to Set with a nil Value.
type Optional[T any] struct {
	Set   bool
	Value T
}

// Some returns a set Optional holding v
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// UnmarshalJSON marks the field as present
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	return json.Unmarshal(b, &o.Value)
}

// Or returns the value when set, otherwise fallback
func (o Optional[T]) Or(fallback T) T {
	if o.Set {
		return o.Value
	}
	return fallback
}

// CreateTask is the validated payload for creating a task
type CreateTask struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      Status     `json:"status,omitempty"`
	Priority    Priority   `json:"priority,omitempty"`
	ProjectID   *string    `json:"projectId,omitempty"`
	ParentID    *string    `json:"parentId,omitempty"`
	TagIDs      []string   `json:"tagIds,omitempty"`
	Order       *int       `json:"order,omitempty"`
	DueAt       *time.Time `json:"dueAt,omitempty"`
	RemindAt    *time.Time `json:"remindAt,omitempty"`
	URL         *string    `json:"url,omitempty"`
}

// UpdateTask is a partial task update; only Set fields are written
type UpdateTask struct {
	Title       Optional[string]     `json:"title"`
	Description Optional[string]     `json:"description"`
	Status      Optional[Status]     `json:"status"`
	Priority    Optional[Priority]   `json:"priority"`
	ProjectID   Optional[*string]    `json:"projectId"`
	ParentID    Optional[*string]    `json:"parentId"`
	TagIDs      Optional[[]string]   `json:"tagIds"`
	Order       Optional[int]        `json:"order"`
	DueAt       Optional[*time.Time] `json:"dueAt"`
	RemindAt    Optional[*time.Time] `json:"remindAt"`
	CompletedAt Optional[*time.Time] `json:"completedAt"`
	ArchivedAt  Optional[*time.Time] `json:"archivedAt"`
	DeletedAt   Optional[*time.Time] `json:"deletedAt"`
	URL         Optional[*string]    `json:"url"`
}

// MoveTask relocates a task. An absent field keeps the current value; an
// explicit null detaches the task from its project or parent.
type MoveTask struct {
	ProjectID Optional[*string] `json:"projectId"`
	ParentID  Optional[*string] `json:"parentId"`
	Order     Optional[int]     `json:"order"`
}

// TaskFilter narrows a task listing. For ProjectID and ParentID a pointer to
// "" selects tasks where the field is null.
type TaskFilter struct {
	ProjectID    *string
	ParentID     *string
	Status       Status
	Priority     Priority
	Archived     *bool
	Deleted      *bool
	TagIDsAny    []string
	DueAfter     *time.Time
	DueBefore    *time.Time
	StartAfterID string
	Limit        int
}

// CreateProject is the validated payload for creating a project
type CreateProject struct {
	Name  string  `json:"name"`
	Color *string `json:"color,omitempty"`
	Order *int    `json:"order,omitempty"`
}

// UpdateProject is a partial project update
type UpdateProject struct {
	Name  Optional[string]  `json:"name"`
	Color Optional[*string] `json:"color"`
	Order Optional[int]     `json:"order"`
}

// CreateTag is the validated payload for creating a tag
type CreateTag struct {
	Name  string  `json:"name"`
	Color *string `json:"color,omitempty"`
	Order *int    `json:"order,omitempty"`
}

// UpdateTag is a partial tag update
type UpdateTag struct {
	Name  Optional[string]  `json:"name"`
	Color Optional[*string] `json:"color"`
	Order Optional[int]     `json:"order"`
}

// CreateUser is the payload for registering the caller's user document
type CreateUser struct {
	Email string  `json:"email"`
	Name  *string `json:"name,omitempty"`
	Image *string `json:"image,omitempty"`
}

// UpdateUser is a partial user update
type UpdateUser struct {
	Email Optional[string]  `json:"email"`
	Name  Optional[*string] `json:"name"`
	Image Optional[*string] `json:"image"`
}
