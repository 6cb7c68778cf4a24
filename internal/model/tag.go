package model

import (
	"time"
)

// Tag represents a label like "home" or "urgent" that tasks reference by id
type Tag struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Color      *string    `json:"color"`
	Order      int        `json:"order"`
	UsageCount int        `json:"usageCount"`
	DeletedAt  *time.Time `json:"deletedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}
