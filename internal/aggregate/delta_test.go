package aggregate

import (
	"testing"
	"time"

	"github.com/dori/tasknest/internal/model"
	"github.com/stretchr/testify/assert"
)

func strp(s string) *string { return &s }

func task(project string, status model.Status, tags ...string) *model.Task {
	t := &model.Task{Status: status, TagIDs: tags}
	if project != "" {
		t.ProjectID = strp(project)
	}
	return t
}

func with(t *model.Task, fn func(*model.Task)) *model.Task {
	c := *t
	c.TagIDs = append([]string(nil), t.TagIDs...)
	fn(&c)
	return &c
}

func TestBetween(t *testing.T) {
	now := time.Now()
	open := task("A", model.StatusTodo, "x", "y")
	done := with(open, func(t *model.Task) { t.Status = model.StatusDone })
	archived := with(open, func(t *model.Task) { t.ArchivedAt = &now })
	deleted := with(open, func(t *model.Task) { t.DeletedAt = &now })
	deletedDone := with(done, func(t *model.Task) { t.DeletedAt = &now })

	tests := []struct {
		name     string
		before   *model.Task
		after    *model.Task
		projects map[string]ProjectDelta
		tags     map[string]int
	}{
		{
			name:     "create open",
			after:    open,
			projects: map[string]ProjectDelta{"A": {Tasks: 1, Open: 1}},
			tags:     map[string]int{"x": 1, "y": 1},
		},
		{
			name:     "create done",
			after:    done,
			projects: map[string]ProjectDelta{"A": {Tasks: 1}},
			tags:     map[string]int{"x": 1, "y": 1},
		},
		{
			name:     "create without project",
			after:    task("", model.StatusTodo, "x"),
			projects: map[string]ProjectDelta{},
			tags:     map[string]int{"x": 1},
		},
		{
			name:     "complete",
			before:   open,
			after:    done,
			projects: map[string]ProjectDelta{"A": {Open: -1}},
			tags:     map[string]int{},
		},
		{
			name:     "complete again is a no-op",
			before:   done,
			after:    done,
			projects: map[string]ProjectDelta{},
			tags:     map[string]int{},
		},
		{
			name:     "archive",
			before:   open,
			after:    archived,
			projects: map[string]ProjectDelta{"A": {Open: -1}},
			tags:     map[string]int{},
		},
		{
			name:     "archive of completed task",
			before:   done,
			after:    with(done, func(t *model.Task) { t.ArchivedAt = &now }),
			projects: map[string]ProjectDelta{},
			tags:     map[string]int{},
		},
		{
			name:     "move open",
			before:   open,
			after:    with(open, func(t *model.Task) { t.ProjectID = strp("B") }),
			projects: map[string]ProjectDelta{"A": {Tasks: -1, Open: -1}, "B": {Tasks: 1, Open: 1}},
			tags:     map[string]int{},
		},
		{
			name:     "move closed",
			before:   done,
			after:    with(done, func(t *model.Task) { t.ProjectID = strp("B") }),
			projects: map[string]ProjectDelta{"A": {Tasks: -1}, "B": {Tasks: 1}},
			tags:     map[string]int{},
		},
		{
			name:     "detach from project",
			before:   open,
			after:    with(open, func(t *model.Task) { t.ProjectID = nil }),
			projects: map[string]ProjectDelta{"A": {Tasks: -1, Open: -1}},
			tags:     map[string]int{},
		},
		{
			name:     "tag set change",
			before:   open,
			after:    with(open, func(t *model.Task) { t.TagIDs = []string{"y", "z"} }),
			projects: map[string]ProjectDelta{},
			tags:     map[string]int{"x": -1, "z": 1},
		},
		{
			name:     "soft delete",
			before:   open,
			after:    deleted,
			projects: map[string]ProjectDelta{"A": {Tasks: -1, Open: -1}},
			tags:     map[string]int{"x": -1, "y": -1},
		},
		{
			name:     "soft delete again is a no-op",
			before:   deleted,
			after:    deleted,
			projects: map[string]ProjectDelta{},
			tags:     map[string]int{},
		},
		{
			name:     "hard delete",
			before:   done,
			projects: map[string]ProjectDelta{"A": {Tasks: -1}},
			tags:     map[string]int{"x": -1, "y": -1},
		},
		{
			name:     "hard delete of soft deleted task",
			before:   deleted,
			projects: map[string]ProjectDelta{},
			tags:     map[string]int{},
		},
		{
			name:     "restore completed",
			before:   deletedDone,
			after:    done,
			projects: map[string]ProjectDelta{"A": {Tasks: 1}},
			tags:     map[string]int{"x": 1, "y": 1},
		},
		{
			name:     "duplicate tag ids count once",
			after:    task("", model.StatusTodo, "x", "x"),
			projects: map[string]ProjectDelta{},
			tags:     map[string]int{"x": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Between(tt.before, tt.after)

			gotProjects := map[string]ProjectDelta{}
			for _, id := range d.projectIDs() {
				gotProjects[id] = d.Projects[id]
			}
			gotTags := map[string]int{}
			for _, id := range d.tagIDs() {
				gotTags[id] = d.Tags[id]
			}

			assert.Equal(t, tt.projects, gotProjects)
			assert.Equal(t, tt.tags, gotTags)
			assert.Equal(t, len(tt.projects) == 0 && len(tt.tags) == 0, d.Empty())
		})
	}
}

func TestDeltaAccumulatesAndDrops(t *testing.T) {
	d := NewDelta()
	d.Add(task("A", model.StatusTodo, "x"), nil)
	d.Add(task("A", model.StatusDone, "x", "y"), nil)
	d.Add(task("B", model.StatusTodo), nil)

	assert.Equal(t, ProjectDelta{Tasks: -2, Open: -1}, d.Projects["A"])
	assert.Equal(t, -2, d.Tags["x"])

	d.DropProject("A")
	d.DropTag("x")
	assert.Equal(t, []string{"B"}, d.projectIDs())
	assert.Equal(t, []string{"y"}, d.tagIDs())
}
