package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dori/tasknest/internal/docstore"
	"github.com/dori/tasknest/internal/model"
)

var byRemindAt = []docstore.Order{{Field: "remindAt", Dir: docstore.Asc}}

// DueReminders returns open tasks whose remindAt is at or before now, oldest
// reminder first.
func (s *Tasks) DueReminders(ctx context.Context, uid string, now time.Time) ([]*model.Task, error) {
	docs, err := s.store.Find(ctx, docstore.TasksCol(uid), docstore.Query{
		Where: []docstore.Filter{
			docstore.Where("remindAt", docstore.OpLte, now),
			docstore.Where(docstore.FieldDeletedAt, docstore.OpEq, nil),
			docstore.Where("archivedAt", docstore.OpEq, nil),
			docstore.Where("status", docstore.OpNe, string(model.StatusDone)),
		},
		OrderBy: byRemindAt,
		Limit:   MaxListLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("due reminders: %w", err)
	}
	return loadAll[model.Task](docs)
}

// FireReminders calls send for every due reminder and clears remindAt after
// a successful send, so each reminder fires once. It stops at the first
// send error; reminders already sent stay cleared.
func (s *Tasks) FireReminders(ctx context.Context, uid string, send func(context.Context, *model.Task) error) ([]*model.Task, error) {
	due, err := s.DueReminders(ctx, uid, s.now())
	if err != nil {
		return nil, err
	}

	fired := make([]*model.Task, 0, len(due))
	for _, t := range due {
		if err := send(ctx, t); err != nil {
			return fired, fmt.Errorf("reminder for task %s: %w", t.ID, err)
		}
		if _, err := updateExisting(ctx, s.store, docstore.TaskDoc(uid, t.ID), docstore.Fields{"remindAt": nil}); err != nil {
			return fired, fmt.Errorf("clear reminder %s: %w", t.ID, err)
		}
		fired = append(fired, t)
	}

	if len(fired) > 0 {
		s.logger.Info("reminders fired", "uid", uid, "count", len(fired))
	}
	return fired, nil
}
