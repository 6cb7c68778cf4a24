package model

import (
	"time"
)

// Project represents a task list. TaskCount and OpenCount are maintained
// incrementally as tasks change, never recomputed on read.
type Project struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Color     *string    `json:"color"`
	Order     int        `json:"order"`
	TaskCount int        `json:"taskCount"`
	OpenCount int        `json:"openCount"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CompletedCount returns the number of counted tasks that are not open
func (p *Project) CompletedCount() int {
	if n := p.TaskCount - p.OpenCount; n > 0 {
		return n
	}
	return 0
}
