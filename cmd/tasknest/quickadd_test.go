package main

import (
	"testing"
	"time"

	"github.com/dori/tasknest/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday
var quickNow = time.Date(2026, 6, 3, 10, 0, 0, 0, time.UTC)

func endOfDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 23, 59, 59, 0, time.UTC)
}

func TestParseQuickAdd(t *testing.T) {
	q := parseQuickAdd("Review PR @work @urgent #backend !high due:tomorrow", quickNow)

	assert.Equal(t, "Review PR", q.Title)
	assert.Equal(t, model.PriorityHigh, q.Priority)
	assert.Equal(t, []string{"work", "urgent"}, q.Tags)
	assert.Equal(t, "backend", q.Project)
	require.NotNil(t, q.DueAt)
	assert.Equal(t, endOfDay(2026, 6, 4), *q.DueAt)
}

func TestParseQuickAddKeepsUnknownTokens(t *testing.T) {
	q := parseQuickAdd("Say hi! !loud due:someday @", quickNow)

	assert.Equal(t, "Say hi! !loud due:someday @", q.Title)
	assert.Equal(t, model.PriorityMedium, q.Priority)
	assert.Nil(t, q.DueAt)
	assert.Empty(t, q.Tags)
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in   string
		want model.Priority
		ok   bool
	}{
		{"u", model.PriorityUrgent, true},
		{"med", model.PriorityMedium, true},
		{"none", model.PriorityNone, true},
		{"HIGH", model.PriorityHigh, true},
		{"loud", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parsePriority(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseNaturalDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"today", endOfDay(2026, 6, 3)},
		{"tom", endOfDay(2026, 6, 4)},
		{"friday", endOfDay(2026, 6, 5)},
		{"wed", endOfDay(2026, 6, 10)},
		{"mon", endOfDay(2026, 6, 8)},
		{"nextweek", endOfDay(2026, 6, 10)},
		{"2026-07-01", endOfDay(2026, 7, 1)},
		{"2026-07-01T08:00:00Z", time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parseNaturalDate(tt.in, quickNow)
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %s", got)
		})
	}

	assert.Nil(t, parseNaturalDate("someday", quickNow))
}
