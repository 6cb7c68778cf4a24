// Package cascade propagates deletion from users, projects, tasks and tags to
// everything that belongs to or references them. Cascades run as sequences of
// bounded batches; a batch that has committed stays committed if a later one
// fails or the context is cancelled.
package cascade

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dori/tasknest/internal/aggregate"
	"github.com/dori/tasknest/internal/docstore"
	"github.com/dori/tasknest/internal/model"
)

// Progress reports one committed step of a cascade
type Progress struct {
	Op         string // "user", "project", "task", "tag"
	Collection string
	Done       int // documents written so far in Collection
}

// Engine runs cascading deletes against a store
type Engine struct {
	store     docstore.Store
	counters  *aggregate.Service
	logger    *log.Logger
	batchSize int
	now       func() time.Time
	progress  func(Progress)
}

// Option configures an Engine
type Option func(*Engine)

// WithBatchSize sets the page and batch size, capped at docstore.MaxBatchWrites
func WithBatchSize(n int) Option {
	return func(e *Engine) {
		if n > 0 && n <= docstore.MaxBatchWrites {
			e.batchSize = n
		}
	}
}

// WithLogger sets the engine logger
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithClock overrides the clock used for deletedAt
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithProgress registers a callback invoked after every committed batch
func WithProgress(fn func(Progress)) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}

// New creates a cascade engine. counters receives the deltas for every
// counted task a cascade removes.
func New(store docstore.Store, counters *aggregate.Service, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		counters:  counters,
		logger:    log.New(io.Discard),
		batchSize: docstore.MaxBatchWrites,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) report(op, collection string, done int) {
	if e.progress != nil {
		e.progress(Progress{Op: op, Collection: collection, Done: done})
	}
}

func decodeTask(doc *docstore.Document) (*model.Task, error) {
	var t model.Task
	if err := doc.DataTo(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// deleted returns a copy of t marked deleted at ts
func deleted(t *model.Task, ts time.Time) *model.Task {
	c := *t
	c.DeletedAt = &ts
	return &c
}

// sweep runs one paged cascade over col. write queues the batch operation
// for a document and records its counter change in delta; after each commit
// prepare may trim delta, which is then applied.
func (e *Engine) sweep(ctx context.Context, uid, op, col string, where []docstore.Filter,
	write func(b *docstore.Batch, d *docstore.Document, delta *aggregate.Delta) error,
	prepare func(delta *aggregate.Delta)) (int, error) {
	var delta *aggregate.Delta

	return docstore.Sweep(ctx, e.store, col, where, e.batchSize,
		func(b *docstore.Batch, docs []*docstore.Document) error {
			delta = aggregate.NewDelta()
			for _, d := range docs {
				if err := write(b, d, delta); err != nil {
					return err
				}
			}
			return nil
		},
		func(done int) error {
			if prepare != nil {
				prepare(delta)
			}
			if !delta.Empty() {
				if err := e.counters.Apply(ctx, uid, delta); err != nil {
					return err
				}
			}
			e.report(op, col, done)
			e.logger.Debug("cascade page committed", "op", op, "collection", col, "done", done)
			return nil
		})
}

// DeleteUser removes or marks every project, tag and task of uid, then the
// user document. Soft mode leaves already-deleted documents untouched.
// Counters are not adjusted since every counted document goes too.
func (e *Engine) DeleteUser(ctx context.Context, uid string, soft bool) error {
	now := e.now()

	live := []docstore.Filter{docstore.Where(docstore.FieldDeletedAt, docstore.OpEq, nil)}
	for _, col := range docstore.UserCollections(uid) {
		var err error
		if soft {
			_, err = e.sweep(ctx, uid, "user", col, live,
				func(b *docstore.Batch, d *docstore.Document, _ *aggregate.Delta) error {
					return b.Update(d.Path, docstore.Fields{docstore.FieldDeletedAt: now})
				}, nil)
		} else {
			_, err = docstore.DeleteCollection(ctx, e.store, col, e.batchSize, func(done int) error {
				e.report("user", col, done)
				return nil
			})
		}
		if err != nil {
			return fmt.Errorf("delete user %s: %w", uid, err)
		}
	}

	var err error
	if soft {
		err = e.store.Update(ctx, docstore.UserDoc(uid), docstore.Fields{docstore.FieldDeletedAt: now}, docstore.MustExist())
		if err != nil && !isNotFound(err) {
			return fmt.Errorf("delete user %s: %w", uid, err)
		}
	} else if err = e.store.Delete(ctx, docstore.UserDoc(uid)); err != nil {
		return fmt.Errorf("delete user %s: %w", uid, err)
	}

	e.logger.Info("user deleted", "uid", uid, "soft", soft)
	return nil
}

// DeleteProject removes or marks every task of the project, then the project.
// Tag usage of the removed tasks is decremented page by page, and so are the
// project's own counters when it is only marked deleted.
func (e *Engine) DeleteProject(ctx context.Context, uid, projectID string, soft bool) error {
	where := []docstore.Filter{docstore.Where("projectId", docstore.OpEq, projectID)}
	if soft {
		where = append(where, docstore.Where(docstore.FieldDeletedAt, docstore.OpEq, nil))
	}
	now := e.now()

	// A soft-deleted project document stays, so its counters follow its tasks
	var prepare func(*aggregate.Delta)
	if !soft {
		prepare = func(delta *aggregate.Delta) { delta.DropProject(projectID) }
	}

	done, err := e.sweep(ctx, uid, "project", docstore.TasksCol(uid), where,
		func(b *docstore.Batch, d *docstore.Document, delta *aggregate.Delta) error {
			t, err := decodeTask(d)
			if err != nil {
				return err
			}
			if soft {
				delta.Add(t, deleted(t, now))
				return b.Update(d.Path, docstore.Fields{docstore.FieldDeletedAt: now})
			}
			delta.Add(t, nil)
			return b.Delete(d.Path)
		},
		prepare)
	if err != nil {
		return fmt.Errorf("delete project %s: %w", projectID, err)
	}

	path := docstore.ProjectDoc(uid, projectID)
	if soft {
		err := e.store.Update(ctx, path, docstore.Fields{docstore.FieldDeletedAt: now}, docstore.MustExist())
		if err != nil && !isNotFound(err) {
			return fmt.Errorf("delete project %s: %w", projectID, err)
		}
	} else if err := e.store.Delete(ctx, path); err != nil {
		return fmt.Errorf("delete project %s: %w", projectID, err)
	}

	e.logger.Info("project deleted", "uid", uid, "project", projectID, "soft", soft, "tasks", done)
	return nil
}

// DeleteTag removes the tag. With removeOnly every referencing task keeps
// existing and loses the tag id; otherwise referencing tasks are hard-deleted
// and the counters of their projects and other tags are decremented.
// Subtasks of deleted tasks are not cascaded.
func (e *Engine) DeleteTag(ctx context.Context, uid, tagID string, removeOnly bool) (int, error) {
	where := []docstore.Filter{docstore.Where("tagIds", docstore.OpArrayContains, tagID)}

	done, err := e.sweep(ctx, uid, "tag", docstore.TasksCol(uid), where,
		func(b *docstore.Batch, d *docstore.Document, delta *aggregate.Delta) error {
			if removeOnly {
				return b.Update(d.Path, docstore.Fields{"tagIds": docstore.ArrayRemove(tagID)})
			}
			t, err := decodeTask(d)
			if err != nil {
				return err
			}
			delta.Add(t, nil)
			return b.Delete(d.Path)
		},
		func(delta *aggregate.Delta) { delta.DropTag(tagID) })
	if err != nil {
		return done, fmt.Errorf("delete tag %s: %w", tagID, err)
	}

	if err := e.store.Delete(ctx, docstore.TagDoc(uid, tagID)); err != nil {
		return done, fmt.Errorf("delete tag %s: %w", tagID, err)
	}

	e.logger.Info("tag deleted", "uid", uid, "tag", tagID, "removeOnly", removeOnly, "tasks", done)
	return done, nil
}

// PurgeTasks hard-deletes every task of uid already marked deleted. Such
// tasks are not counted, so no counters change. Live subtasks of a purged
// task keep their parentId.
func (e *Engine) PurgeTasks(ctx context.Context, uid string) (int, error) {
	col := docstore.TasksCol(uid)
	where := []docstore.Filter{docstore.Where(docstore.FieldDeletedAt, docstore.OpNe, nil)}

	done, err := docstore.DeleteByQuery(ctx, e.store, col, where, e.batchSize, func(done int) error {
		e.report("purge", col, done)
		return nil
	})
	if err != nil {
		return done, fmt.Errorf("purge tasks: %w", err)
	}

	e.logger.Info("tasks purged", "uid", uid, "tasks", done)
	return done, nil
}
