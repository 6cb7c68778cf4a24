package service

import (
	"context"
	"fmt"

	"github.com/dori/tasknest/internal/docstore"
	"github.com/dori/tasknest/internal/model"
)

// Tasks is the task lifecycle service. Every operation that changes project
// membership, openness, deletion or tags applies the matching counter delta
// after its own write.
type Tasks struct {
	*deps
}

func (s *Tasks) load(ctx context.Context, uid, id string) (*model.Task, error) {
	return load[model.Task](ctx, s.store, docstore.TaskDoc(uid, id))
}

// write merges fields into current, re-reads it and applies the counter delta.
// The result is nil when the task disappeared in between.
func (s *Tasks) write(ctx context.Context, uid string, current *model.Task, fields docstore.Fields) (*model.Task, error) {
	ok, err := updateExisting(ctx, s.store, docstore.TaskDoc(uid, current.ID), fields)
	if err != nil || !ok {
		return nil, err
	}

	updated, err := s.load(ctx, uid, current.ID)
	if err != nil || updated == nil {
		return nil, err
	}

	if err := s.counters.Track(ctx, uid, current, updated); err != nil {
		return updated, err
	}
	return updated, nil
}

// List returns tasks matching f ordered by order then createdAt
func (s *Tasks) List(ctx context.Context, uid string, f model.TaskFilter) ([]*model.Task, error) {
	var where []docstore.Filter
	if f.ProjectID != nil {
		where = append(where, docstore.Where("projectId", docstore.OpEq, nullIfEmpty(*f.ProjectID)))
	}
	if f.ParentID != nil {
		where = append(where, docstore.Where("parentId", docstore.OpEq, nullIfEmpty(*f.ParentID)))
	}
	if f.Status != "" {
		where = append(where, docstore.Where("status", docstore.OpEq, string(f.Status)))
	}
	if f.Priority != "" {
		where = append(where, docstore.Where("priority", docstore.OpEq, string(f.Priority)))
	}
	if f.Archived != nil {
		where = append(where, presence("archivedAt", *f.Archived))
	}
	if f.Deleted != nil {
		where = append(where, presence(docstore.FieldDeletedAt, *f.Deleted))
	}
	if len(f.TagIDsAny) > 0 {
		tags := f.TagIDsAny[:min(len(f.TagIDsAny), MaxTagFilter)]
		where = append(where, docstore.Where("tagIds", docstore.OpArrayContainsAny, tags))
	}
	if f.DueAfter != nil {
		where = append(where, docstore.Where("dueAt", docstore.OpGte, *f.DueAfter))
	}
	if f.DueBefore != nil {
		where = append(where, docstore.Where("dueAt", docstore.OpLte, *f.DueBefore))
	}

	q := docstore.Query{
		Where:   where,
		OrderBy: byOrder,
		Limit:   clampLimit(f.Limit, s.listLimit),
	}

	if f.StartAfterID != "" {
		cursor, err := s.store.Get(ctx, docstore.TaskDoc(uid, f.StartAfterID))
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		if cursor != nil {
			q = q.After(cursor)
		}
	}

	docs, err := s.store.Find(ctx, docstore.TasksCol(uid), q)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return loadAll[model.Task](docs)
}

func nullIfEmpty(id string) any {
	if id == "" {
		return nil
	}
	return id
}

func presence(field string, set bool) docstore.Filter {
	if set {
		return docstore.Where(field, docstore.OpNe, nil)
	}
	return docstore.Where(field, docstore.OpEq, nil)
}

// Get returns the task or nil
func (s *Tasks) Get(ctx context.Context, uid, id string) (*model.Task, error) {
	return s.load(ctx, uid, id)
}

// Create stores a new task and counts it toward its project and tags
func (s *Tasks) Create(ctx context.Context, uid string, in model.CreateTask) (*model.Task, error) {
	if in.ParentID != nil && *in.ParentID == "" {
		in.ParentID = nil
	}
	if in.ProjectID != nil && *in.ProjectID == "" {
		in.ProjectID = nil
	}

	fields := docstore.Fields{
		"title":       in.Title,
		"description": "",
		"status":      string(model.StatusTodo),
		"priority":    string(model.PriorityMedium),
		"projectId":   in.ProjectID,
		"parentId":    in.ParentID,
		"tagIds":      uniqueTags(in.TagIDs),
		"order":       0,
		"dueAt":       in.DueAt,
		"remindAt":    in.RemindAt,
		"completedAt": nil,
		"archivedAt":  nil,
		"deletedAt":   nil,
		"url":         in.URL,
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Status != "" {
		fields["status"] = string(in.Status)
	}
	if in.Priority != "" {
		fields["priority"] = string(in.Priority)
	}
	if in.Order != nil {
		fields["order"] = *in.Order
	}

	id, err := s.store.Create(ctx, docstore.TasksCol(uid), fields)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	created, err := s.load(ctx, uid, id)
	if err != nil || created == nil {
		return nil, err
	}
	if err := s.counters.Track(ctx, uid, nil, created); err != nil {
		return created, fmt.Errorf("create task: %w", err)
	}

	s.logger.Debug("task created", "uid", uid, "task", id)
	return created, nil
}

// Update applies the set fields of in. Setting status to DONE stamps
// completedAt when it is unset; leaving DONE clears it. An explicit
// completedAt in the payload wins.
func (s *Tasks) Update(ctx context.Context, uid, id string, in model.UpdateTask) (*model.Task, error) {
	current, err := s.load(ctx, uid, id)
	if err != nil || current == nil {
		return nil, err
	}

	fields := docstore.Fields{}
	setOpt(fields, "title", in.Title)
	setOpt(fields, "description", in.Description)
	setOpt(fields, "order", in.Order)
	setOpt(fields, "dueAt", in.DueAt)
	setOpt(fields, "remindAt", in.RemindAt)
	setOpt(fields, "completedAt", in.CompletedAt)
	setOpt(fields, "archivedAt", in.ArchivedAt)
	setOpt(fields, docstore.FieldDeletedAt, in.DeletedAt)
	setOpt(fields, "url", in.URL)
	if in.Status.Set {
		fields["status"] = string(in.Status.Value)
	}
	if in.Priority.Set {
		fields["priority"] = string(in.Priority.Value)
	}
	if in.ProjectID.Set {
		fields["projectId"] = nullIfEmptyPtr(in.ProjectID.Value)
	}
	if in.ParentID.Set {
		parent := nullIfEmptyPtr(in.ParentID.Value)
		if parent == id {
			return nil, fmt.Errorf("update task %s: %w", id, ErrParentCycle)
		}
		fields["parentId"] = parent
	}
	if in.TagIDs.Set {
		fields["tagIds"] = uniqueTags(in.TagIDs.Value)
	}

	if in.Status.Set && !in.CompletedAt.Set {
		switch {
		case in.Status.Value == model.StatusDone && current.CompletedAt == nil:
			fields["completedAt"] = s.now()
		case in.Status.Value != model.StatusDone && current.Status == model.StatusDone:
			fields["completedAt"] = nil
		}
	}

	updated, err := s.write(ctx, uid, current, fields)
	if err != nil {
		return updated, fmt.Errorf("update task %s: %w", id, err)
	}
	return updated, nil
}

// Reorder sets the sibling order
func (s *Tasks) Reorder(ctx context.Context, uid, id string, order int) (*model.Task, error) {
	ok, err := updateExisting(ctx, s.store, docstore.TaskDoc(uid, id), docstore.Fields{"order": order})
	if err != nil {
		return nil, fmt.Errorf("reorder task %s: %w", id, err)
	}
	if !ok {
		return nil, nil
	}
	return s.load(ctx, uid, id)
}

// Move reassigns project, parent and order. Absent fields keep their value.
// An explicit null parent detaches the task; a null project keeps the current
// one, use Update to clear it.
func (s *Tasks) Move(ctx context.Context, uid, id string, in model.MoveTask) (*model.Task, error) {
	current, err := s.load(ctx, uid, id)
	if err != nil || current == nil {
		return nil, err
	}

	project, parent := current.ProjectID, current.ParentID
	if in.ProjectID.Set && in.ProjectID.Value != nil {
		project = in.ProjectID.Value
	}
	if in.ParentID.Set {
		parent = in.ParentID.Value
	}

	fields := docstore.Fields{
		"projectId": nullIfEmptyPtr(project),
		"parentId":  nullIfEmptyPtr(parent),
		"order":     in.Order.Or(current.Order),
	}
	if fields["parentId"] == id {
		return nil, fmt.Errorf("move task %s: %w", id, ErrParentCycle)
	}

	updated, err := s.write(ctx, uid, current, fields)
	if err != nil {
		return updated, fmt.Errorf("move task %s: %w", id, err)
	}
	return updated, nil
}

// Complete marks the task DONE. A task already DONE with completedAt set is
// returned unchanged.
func (s *Tasks) Complete(ctx context.Context, uid, id string) (*model.Task, error) {
	current, err := s.load(ctx, uid, id)
	if err != nil || current == nil {
		return nil, err
	}
	if current.Status == model.StatusDone && current.CompletedAt != nil {
		return current, nil
	}

	updated, err := s.write(ctx, uid, current, docstore.Fields{
		"status":      string(model.StatusDone),
		"completedAt": s.now(),
	})
	if err != nil {
		return updated, fmt.Errorf("complete task %s: %w", id, err)
	}
	return updated, nil
}

// Uncomplete moves the task back to TODO and clears completedAt
func (s *Tasks) Uncomplete(ctx context.Context, uid, id string) (*model.Task, error) {
	current, err := s.load(ctx, uid, id)
	if err != nil || current == nil {
		return nil, err
	}
	if current.Status == model.StatusTodo && current.CompletedAt == nil {
		return current, nil
	}

	updated, err := s.write(ctx, uid, current, docstore.Fields{
		"status":      string(model.StatusTodo),
		"completedAt": nil,
	})
	if err != nil {
		return updated, fmt.Errorf("uncomplete task %s: %w", id, err)
	}
	return updated, nil
}

// Archive sets archivedAt unless it is already set
func (s *Tasks) Archive(ctx context.Context, uid, id string) (*model.Task, error) {
	current, err := s.load(ctx, uid, id)
	if err != nil || current == nil {
		return nil, err
	}
	if current.ArchivedAt != nil {
		return current, nil
	}

	updated, err := s.write(ctx, uid, current, docstore.Fields{"archivedAt": s.now()})
	if err != nil {
		return updated, fmt.Errorf("archive task %s: %w", id, err)
	}
	return updated, nil
}

// Unarchive clears archivedAt
func (s *Tasks) Unarchive(ctx context.Context, uid, id string) (*model.Task, error) {
	current, err := s.load(ctx, uid, id)
	if err != nil || current == nil {
		return nil, err
	}
	if current.ArchivedAt == nil {
		return current, nil
	}

	updated, err := s.write(ctx, uid, current, docstore.Fields{"archivedAt": nil})
	if err != nil {
		return updated, fmt.Errorf("unarchive task %s: %w", id, err)
	}
	return updated, nil
}

// Restore clears deletedAt on the task and counts it again. Descendants
// deleted with it stay deleted.
func (s *Tasks) Restore(ctx context.Context, uid, id string) (*model.Task, error) {
	current, err := s.load(ctx, uid, id)
	if err != nil || current == nil {
		return nil, err
	}
	if current.DeletedAt == nil {
		return current, nil
	}

	updated, err := s.write(ctx, uid, current, docstore.Fields{docstore.FieldDeletedAt: nil})
	if err != nil {
		return updated, fmt.Errorf("restore task %s: %w", id, err)
	}
	return updated, nil
}

// Remove deletes the task and its subtree. Soft removal of an already
// deleted task changes nothing.
func (s *Tasks) Remove(ctx context.Context, uid, id string, soft bool) error {
	n, err := s.cascade.DeleteTaskTree(ctx, uid, id, soft)
	if err != nil {
		return err
	}
	s.logger.Debug("task removed", "uid", uid, "task", id, "soft", soft, "tasks", n)
	return nil
}

// Purge hard-deletes every soft-deleted task and returns how many went
func (s *Tasks) Purge(ctx context.Context, uid string) (int, error) {
	return s.cascade.PurgeTasks(ctx, uid)
}

// AddTags adds tagIDs to the task, keeping ones it already carries
func (s *Tasks) AddTags(ctx context.Context, uid, id string, tagIDs ...string) (*model.Task, error) {
	return s.retag(ctx, uid, id, docstore.ArrayUnion(uniqueTags(tagIDs)...))
}

// RemoveTags drops tagIDs from the task
func (s *Tasks) RemoveTags(ctx context.Context, uid, id string, tagIDs ...string) (*model.Task, error) {
	if len(tagIDs) == 0 {
		return s.load(ctx, uid, id)
	}
	return s.retag(ctx, uid, id, docstore.ArrayRemove(tagIDs...))
}

func (s *Tasks) retag(ctx context.Context, uid, id string, change any) (*model.Task, error) {
	current, err := s.load(ctx, uid, id)
	if err != nil || current == nil {
		return nil, err
	}

	updated, err := s.write(ctx, uid, current, docstore.Fields{"tagIds": change})
	if err != nil {
		return updated, fmt.Errorf("tag task %s: %w", id, err)
	}
	return updated, nil
}

func setOpt[T any](fields docstore.Fields, name string, o model.Optional[T]) {
	if o.Set {
		fields[name] = o.Value
	}
}

func nullIfEmptyPtr(id *string) any {
	if id == nil || *id == "" {
		return nil
	}
	return *id
}

func uniqueTags(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
