package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskIsOpen(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		task *Task
		want bool
	}{
		{"nil task", nil, false},
		{"todo", &Task{Status: StatusTodo}, true},
		{"in progress", &Task{Status: StatusInProgress}, true},
		{"blocked", &Task{Status: StatusBlocked}, true},
		{"done", &Task{Status: StatusDone}, false},
		{"archived", &Task{Status: StatusTodo, ArchivedAt: &now}, false},
		{"deleted", &Task{Status: StatusTodo, DeletedAt: &now}, false},
		{"done and archived", &Task{Status: StatusDone, ArchivedAt: &now}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.task.IsOpen())
		})
	}
}

func TestTaskCounted(t *testing.T) {
	now := time.Now()
	var nilTask *Task

	assert.False(t, nilTask.Counted())
	assert.True(t, (&Task{Status: StatusDone}).Counted())
	assert.True(t, (&Task{ArchivedAt: &now}).Counted())
	assert.False(t, (&Task{DeletedAt: &now}).Counted())
}

func TestOptionalDistinguishesNullFromAbsent(t *testing.T) {
	var move MoveTask
	require.NoError(t, json.Unmarshal([]byte(`{"parentId": null, "order": 3}`), &move))

	assert.False(t, move.ProjectID.Set)
	assert.True(t, move.ParentID.Set)
	assert.Nil(t, move.ParentID.Value)
	assert.Equal(t, 3, move.Order.Or(0))

	var upd UpdateTask
	require.NoError(t, json.Unmarshal([]byte(`{"projectId": "p1", "tagIds": []}`), &upd))
	require.True(t, upd.ProjectID.Set)
	assert.Equal(t, "p1", *upd.ProjectID.Value)
	assert.True(t, upd.TagIDs.Set)
	assert.Empty(t, upd.TagIDs.Value)
	assert.False(t, upd.Status.Set)
}

func TestStatusAndPriorityValid(t *testing.T) {
	assert.True(t, StatusBlocked.Valid())
	assert.False(t, Status("pending").Valid())
	assert.True(t, PriorityNone.Valid())
	assert.False(t, Priority("low").Valid())
}
