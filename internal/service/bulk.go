package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dori/tasknest/internal/model"
)

// Bulk operation names
const (
	OpCreate     = "create"
	OpUpdate     = "update"
	OpDelete     = "delete"
	OpSoftDelete = "softDelete"
	OpRestore    = "restore"
	OpMove       = "move"
	OpReorder    = "reorder"
	OpArchive    = "archive"
	OpUnarchive  = "unarchive"
	OpComplete   = "complete"
	OpUncomplete = "uncomplete"
)

// Action is one bulk operation. The set of implementations is closed.
type Action interface {
	Op() string
	action()
}

// CreateAction creates a task
type CreateAction struct{ Data model.CreateTask }

// UpdateAction applies a partial update
type UpdateAction struct {
	ID   string
	Data model.UpdateTask
}

// DeleteAction hard-deletes a task and its subtree
type DeleteAction struct{ ID string }

// SoftDeleteAction marks a task and its subtree deleted
type SoftDeleteAction struct{ ID string }

type RestoreAction struct{ ID string }

type MoveAction struct {
	ID   string
	Move model.MoveTask
}

type ReorderAction struct {
	ID    string
	Order int
}

type ArchiveAction struct{ ID string }

type UnarchiveAction struct{ ID string }

type CompleteAction struct{ ID string }

type UncompleteAction struct{ ID string }

func (CreateAction) Op() string     { return OpCreate }
func (UpdateAction) Op() string     { return OpUpdate }
func (DeleteAction) Op() string     { return OpDelete }
func (SoftDeleteAction) Op() string { return OpSoftDelete }
func (RestoreAction) Op() string    { return OpRestore }
func (MoveAction) Op() string       { return OpMove }
func (ReorderAction) Op() string    { return OpReorder }
func (ArchiveAction) Op() string    { return OpArchive }
func (UnarchiveAction) Op() string  { return OpUnarchive }
func (CompleteAction) Op() string   { return OpComplete }
func (UncompleteAction) Op() string { return OpUncomplete }

func (CreateAction) action()     {}
func (UpdateAction) action()     {}
func (DeleteAction) action()     {}
func (SoftDeleteAction) action() {}
func (RestoreAction) action()    {}
func (MoveAction) action()       {}
func (ReorderAction) action()    {}
func (ArchiveAction) action()    {}
func (UnarchiveAction) action()  {}
func (CompleteAction) action()   {}
func (UncompleteAction) action() {}

// Result is the outcome of one action: the resulting task, nil when the
// task was missing, or an acknowledgement for deletions.
type Result struct {
	Op   string
	ID   string
	Task *model.Task
}

// Void reports whether the operation returns an acknowledgement instead of a task
func (r Result) Void() bool {
	return r.Op == OpDelete || r.Op == OpSoftDelete
}

// MarshalJSON renders the task, or {"id":..,"ok":true} for deletions
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Void() {
		return json.Marshal(struct {
			ID string `json:"id"`
			OK bool   `json:"ok"`
		}{r.ID, true})
	}
	return json.Marshal(r.Task)
}

// BulkError reports the action that stopped a bulk run
type BulkError struct {
	Index int
	Op    string
	Err   error
}

func (e *BulkError) Error() string {
	return fmt.Sprintf("bulk action %d (%s): %v", e.Index, e.Op, e.Err)
}

func (e *BulkError) Unwrap() error {
	return e.Err
}

// Bulk runs actions one at a time in order. The first failure stops the run;
// the results of the actions before it are returned with a *BulkError and
// are not rolled back.
func (s *Tasks) Bulk(ctx context.Context, uid string, actions []Action) ([]Result, error) {
	results := make([]Result, 0, len(actions))
	for i, a := range actions {
		if err := ctx.Err(); err != nil {
			return results, &BulkError{Index: i, Op: a.Op(), Err: err}
		}

		res, err := s.run(ctx, uid, a)
		if err != nil {
			s.logger.Warn("bulk aborted", "uid", uid, "index", i, "op", a.Op(), "err", err)
			return results, &BulkError{Index: i, Op: a.Op(), Err: err}
		}
		results = append(results, res)
	}

	s.logger.Debug("bulk done", "uid", uid, "actions", len(actions))
	return results, nil
}

func (s *Tasks) run(ctx context.Context, uid string, a Action) (Result, error) {
	var (
		t   *model.Task
		id  string
		err error
	)

	switch a := a.(type) {
	case CreateAction:
		t, err = s.Create(ctx, uid, a.Data)
		if t != nil {
			id = t.ID
		}
	case UpdateAction:
		id = a.ID
		t, err = s.Update(ctx, uid, a.ID, a.Data)
	case DeleteAction:
		id = a.ID
		err = s.Remove(ctx, uid, a.ID, false)
	case SoftDeleteAction:
		id = a.ID
		err = s.Remove(ctx, uid, a.ID, true)
	case RestoreAction:
		id = a.ID
		t, err = s.Restore(ctx, uid, a.ID)
	case MoveAction:
		id = a.ID
		t, err = s.Move(ctx, uid, a.ID, a.Move)
	case ReorderAction:
		id = a.ID
		t, err = s.Reorder(ctx, uid, a.ID, a.Order)
	case ArchiveAction:
		id = a.ID
		t, err = s.Archive(ctx, uid, a.ID)
	case UnarchiveAction:
		id = a.ID
		t, err = s.Unarchive(ctx, uid, a.ID)
	case CompleteAction:
		id = a.ID
		t, err = s.Complete(ctx, uid, a.ID)
	case UncompleteAction:
		id = a.ID
		t, err = s.Uncomplete(ctx, uid, a.ID)
	default:
		return Result{}, fmt.Errorf("unknown bulk action %T", a)
	}

	return Result{Op: a.Op(), ID: id, Task: t}, err
}
