package cascade

import (
	"context"
	"errors"
	"fmt"

	"github.com/dori/tasknest/internal/aggregate"
	"github.com/dori/tasknest/internal/docstore"
	"github.com/dori/tasknest/internal/model"
)

func isNotFound(err error) bool {
	return errors.Is(err, docstore.ErrNotFound)
}

// CollectTree returns the task rootID and all of its descendants in
// breadth-first order, following parentId back-references. Every id is
// visited once, so malformed parent links that form a cycle still terminate.
// It returns nil if the root does not exist.
func (e *Engine) CollectTree(ctx context.Context, uid, rootID string) ([]*model.Task, error) {
	rootDoc, err := e.store.Get(ctx, docstore.TaskDoc(uid, rootID))
	if err != nil {
		return nil, err
	}
	if rootDoc == nil {
		return nil, nil
	}
	root, err := decodeTask(rootDoc)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{rootID: true}
	nodes := []*model.Task{root}
	queue := []string{rootID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		where := []docstore.Filter{docstore.Where("parentId", docstore.OpEq, current)}
		pager := docstore.NewPager(e.store, docstore.TasksCol(uid), where, e.batchSize)
		for {
			docs, err := pager.Next(ctx)
			if err != nil {
				return nil, err
			}
			if len(docs) == 0 {
				break
			}
			for _, d := range docs {
				if visited[d.ID] {
					e.logger.Warn("parent link cycle", "uid", uid, "task", d.ID, "parent", current)
					continue
				}
				visited[d.ID] = true
				child, err := decodeTask(d)
				if err != nil {
					return nil, err
				}
				nodes = append(nodes, child)
				queue = append(queue, d.ID)
			}
		}
	}

	return nodes, nil
}

// DeleteTaskTree deletes the task rootID and its whole subtree. Soft mode
// marks deletedAt and leaves already-deleted tasks untouched; hard mode
// removes every document. Counters are adjusted for every task that was
// still counted, one batch at a time. It returns the number of tasks written.
func (e *Engine) DeleteTaskTree(ctx context.Context, uid, rootID string, soft bool) (int, error) {
	nodes, err := e.CollectTree(ctx, uid, rootID)
	if err != nil {
		return 0, fmt.Errorf("delete task %s: %w", rootID, err)
	}

	if soft {
		live := nodes[:0]
		for _, t := range nodes {
			if t.Counted() {
				live = append(live, t)
			}
		}
		nodes = live
	}

	now := e.now()
	col := docstore.TasksCol(uid)
	done := 0
	for start := 0; start < len(nodes); start += e.batchSize {
		chunk := nodes[start:min(start+e.batchSize, len(nodes))]

		delta := aggregate.NewDelta()
		paths := make([]string, len(chunk))
		for i, t := range chunk {
			paths[i] = docstore.TaskDoc(uid, t.ID)
			if soft {
				delta.Add(t, deleted(t, now))
			} else {
				delta.Add(t, nil)
			}
		}

		// chunk fits in one batch, so each call commits exactly once
		var err error
		if soft {
			err = docstore.BulkSoftDelete(ctx, e.store, paths, now, e.batchSize)
		} else {
			err = docstore.BulkDelete(ctx, e.store, paths, e.batchSize)
		}
		if err != nil {
			return done, fmt.Errorf("delete task %s: %w", rootID, err)
		}

		if err := e.counters.Apply(ctx, uid, delta); err != nil {
			return done, fmt.Errorf("delete task %s: %w", rootID, err)
		}

		done += len(chunk)
		e.report("task", col, done)
	}

	e.logger.Debug("task tree deleted", "uid", uid, "task", rootID, "soft", soft, "tasks", done)
	return done, nil
}
