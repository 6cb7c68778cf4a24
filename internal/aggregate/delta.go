// Package aggregate maintains the denormalized counters on projects and tags:
// project.taskCount, project.openCount and tag.usageCount.
package aggregate

import (
	"sort"

	"github.com/dori/tasknest/internal/model"
)

// Counter field names
const (
	FieldTaskCount  = "taskCount"
	FieldOpenCount  = "openCount"
	FieldUsageCount = "usageCount"
)

// ProjectDelta is the change to one project's counters
type ProjectDelta struct {
	Tasks int
	Open  int
}

// Delta accumulates counter changes for any number of task transitions.
// Opposite changes to the same document cancel out.
type Delta struct {
	Projects map[string]ProjectDelta
	Tags     map[string]int
}

// NewDelta returns an empty Delta
func NewDelta() *Delta {
	return &Delta{
		Projects: map[string]ProjectDelta{},
		Tags:     map[string]int{},
	}
}

// Between returns the delta that moves counters from reflecting before to
// reflecting after. A nil before is a creation, a nil after a hard delete.
func Between(before, after *model.Task) *Delta {
	d := NewDelta()
	d.Add(before, after)
	return d
}

// Add folds the transition before -> after into d
func (d *Delta) Add(before, after *model.Task) {
	d.contribute(before, -1)
	d.contribute(after, +1)
}

func (d *Delta) contribute(t *model.Task, sign int) {
	if !t.Counted() {
		return
	}
	if p := t.Project(); p != "" {
		pd := d.Projects[p]
		pd.Tasks += sign
		if t.IsOpen() {
			pd.Open += sign
		}
		d.Projects[p] = pd
	}
	seen := make(map[string]bool, len(t.TagIDs))
	for _, tag := range t.TagIDs {
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		d.Tags[tag] += sign
	}
}

// DropProject discards changes aimed at project id, e.g. one being deleted
func (d *Delta) DropProject(id string) {
	delete(d.Projects, id)
}

// DropTag discards changes aimed at tag id
func (d *Delta) DropTag(id string) {
	delete(d.Tags, id)
}

// Empty reports whether applying d would write nothing
func (d *Delta) Empty() bool {
	return len(d.projectIDs()) == 0 && len(d.tagIDs()) == 0
}

// projectIDs returns the projects with a non-zero change, sorted
func (d *Delta) projectIDs() []string {
	var out []string
	for id, pd := range d.Projects {
		if pd.Tasks != 0 || pd.Open != 0 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// tagIDs returns the tags with a non-zero change, sorted
func (d *Delta) tagIDs() []string {
	var out []string
	for id, n := range d.Tags {
		if n != 0 {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
