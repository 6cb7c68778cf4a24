package model

import (
	"time"
)

// Status represents the current state of a task
type Status string

const (
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
	StatusBlocked    Status = "BLOCKED"
)

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone, StatusBlocked:
		return true
	}
	return false
}

// Priority represents task priority level
type Priority string

const (
	PriorityNone   Priority = "NONE"
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Valid reports whether p is one of the known priorities
func (p Priority) Valid() bool {
	switch p {
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Task represents a todo item stored under users/{uid}/tasks/{id}
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	ProjectID   *string    `json:"projectId"`
	ParentID    *string    `json:"parentId"` // For subtasks
	TagIDs      []string   `json:"tagIds"`
	Order       int        `json:"order"`
	DueAt       *time.Time `json:"dueAt"`
	RemindAt    *time.Time `json:"remindAt"`
	CompletedAt *time.Time `json:"completedAt"`
	ArchivedAt  *time.Time `json:"archivedAt"`
	DeletedAt   *time.Time `json:"deletedAt"`
	URL         *string    `json:"url"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// IsOpen returns true if the task is not done, not archived and not deleted.
// A nil task is never open.
func (t *Task) IsOpen() bool {
	if t == nil {
		return false
	}
	return t.Status != StatusDone && t.ArchivedAt == nil && t.DeletedAt == nil
}

// Counted returns true if the task contributes to its project's taskCount and
// its tags' usageCount.
func (t *Task) Counted() bool {
	return t != nil && t.DeletedAt == nil
}

// Project returns the project id or "" when the task is unattached
func (t *Task) Project() string {
	if t == nil || t.ProjectID == nil {
		return ""
	}
	return *t.ProjectID
}

// Parent returns the parent task id or "" for top-level tasks
func (t *Task) Parent() string {
	if t == nil || t.ParentID == nil {
		return ""
	}
	return *t.ParentID
}

// IsOverdue returns true if the task is past its due date
func (t *Task) IsOverdue() bool {
	if t.DueAt == nil || !t.IsOpen() {
		return false
	}
	return time.Now().After(*t.DueAt)
}
