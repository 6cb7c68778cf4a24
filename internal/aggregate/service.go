package aggregate

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/dori/tasknest/internal/docstore"
	"github.com/dori/tasknest/internal/model"
)

// Service applies counter deltas through the store's atomic increment.
// Counters are never read back and rewritten. Changes to different documents
// are independent writes, so a failure part way leaves earlier ones applied.
type Service struct {
	store  docstore.Store
	logger *log.Logger
}

// New creates an aggregate service
func New(store docstore.Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Service{store: store, logger: logger}
}

// Track applies the counter changes implied by one task transition
func (s *Service) Track(ctx context.Context, uid string, before, after *model.Task) error {
	return s.Apply(ctx, uid, Between(before, after))
}

// Apply writes d for user uid. Each project gets one update carrying both
// counters; tag increments are batched. Projects or tags that no longer exist
// are skipped rather than recreated.
func (s *Service) Apply(ctx context.Context, uid string, d *Delta) error {
	for _, id := range d.projectIDs() {
		pd := d.Projects[id]
		fields := docstore.Fields{}
		if pd.Tasks != 0 {
			fields[FieldTaskCount] = docstore.Increment(int64(pd.Tasks))
		}
		if pd.Open != 0 {
			fields[FieldOpenCount] = docstore.Increment(int64(pd.Open))
		}

		err := s.store.Update(ctx, docstore.ProjectDoc(uid, id), fields, docstore.MustExist())
		if errors.Is(err, docstore.ErrNotFound) {
			s.logger.Debug("skipping counters for missing project", "uid", uid, "project", id)
			continue
		}
		if err != nil {
			return fmt.Errorf("adjust project %s: %w", id, err)
		}
		s.logger.Debug("adjusted project counters", "uid", uid, "project", id, "tasks", pd.Tasks, "open", pd.Open)
	}

	tags := d.tagIDs()
	for start := 0; start < len(tags); start += docstore.MaxBatchWrites {
		chunk := tags[start:min(start+docstore.MaxBatchWrites, len(tags))]
		err := s.store.RunBatch(ctx, func(b *docstore.Batch) error {
			for _, id := range chunk {
				fields := docstore.Fields{FieldUsageCount: docstore.Increment(int64(d.Tags[id]))}
				if err := b.Update(docstore.TagDoc(uid, id), fields, docstore.MustExist()); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("adjust tag usage: %w", err)
		}
	}
	if len(tags) > 0 {
		s.logger.Debug("adjusted tag usage", "uid", uid, "tags", len(tags))
	}

	return nil
}
