// Package reconcile recounts project and tag counters from the tasks that
// reference them and optionally repairs the stored values. It is the repair
// path for drift left by interrupted or concurrent counter updates.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dori/tasknest/internal/aggregate"
	"github.com/dori/tasknest/internal/docstore"
	"github.com/dori/tasknest/internal/model"
	"github.com/gofrs/flock"
)

// ErrLocked is returned when another recount holds the lock file
var ErrLocked = errors.New("another recount is already running")

// Kinds of counted documents
const (
	KindProject = "project"
	KindTag     = "tag"
)

// Drift is one counter whose stored value differs from the recount
type Drift struct {
	Kind   string
	ID     string
	Name   string
	Field  string
	Stored int
	Actual int
}

// Report summarizes one recount
type Report struct {
	UID      string
	Projects int
	Tags     int
	Drifts   []Drift
	Repaired bool
	Elapsed  time.Duration
}

// Clean reports whether every counter matched
func (r *Report) Clean() bool {
	return len(r.Drifts) == 0
}

// Reconciler recounts counters for one user at a time
type Reconciler struct {
	store    docstore.Store
	logger   *log.Logger
	lockPath string
}

// Option configures a Reconciler
type Option func(*Reconciler)

// WithLogger sets the logger
func WithLogger(logger *log.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// WithLockFile makes Recount hold an exclusive lock on path while it runs
func WithLockFile(path string) Option {
	return func(r *Reconciler) {
		r.lockPath = path
	}
}

// New creates a Reconciler
func New(store docstore.Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:  store,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var live = docstore.Where(docstore.FieldDeletedAt, docstore.OpEq, nil)

// Recount compares every stored counter of uid with a count of the tasks it
// summarizes. With repair, drifting counters are overwritten with the
// recounted value.
func (r *Reconciler) Recount(ctx context.Context, uid string, repair bool) (*Report, error) {
	if r.lockPath != "" {
		lock := flock.New(r.lockPath)
		locked, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if !locked {
			return nil, ErrLocked
		}
		defer lock.Unlock()
	}

	start := time.Now()
	report := &Report{UID: uid}
	tasks := docstore.TasksCol(uid)

	projects, err := r.store.Find(ctx, docstore.ProjectsCol(uid), docstore.Query{
		Where:  []docstore.Filter{live},
		Select: []string{"name", aggregate.FieldTaskCount, aggregate.FieldOpenCount},
	})
	if err != nil {
		return nil, fmt.Errorf("recount projects: %w", err)
	}
	report.Projects = len(projects)

	for _, p := range projects {
		inProject := docstore.Where("projectId", docstore.OpEq, p.ID)
		total, err := r.store.Count(ctx, tasks, inProject, live)
		if err != nil {
			return nil, fmt.Errorf("recount project %s: %w", p.ID, err)
		}
		open, err := r.store.Count(ctx, tasks, inProject, live,
			docstore.Where("status", docstore.OpNe, string(model.StatusDone)),
			docstore.Where("archivedAt", docstore.OpEq, nil))
		if err != nil {
			return nil, fmt.Errorf("recount project %s: %w", p.ID, err)
		}

		report.check(KindProject, p, aggregate.FieldTaskCount, total)
		report.check(KindProject, p, aggregate.FieldOpenCount, open)
	}

	tags, err := r.store.Find(ctx, docstore.TagsCol(uid), docstore.Query{
		Where:  []docstore.Filter{live},
		Select: []string{"name", aggregate.FieldUsageCount},
	})
	if err != nil {
		return nil, fmt.Errorf("recount tags: %w", err)
	}
	report.Tags = len(tags)

	for _, t := range tags {
		n, err := r.store.Count(ctx, tasks, docstore.Where("tagIds", docstore.OpArrayContains, t.ID), live)
		if err != nil {
			return nil, fmt.Errorf("recount tag %s: %w", t.ID, err)
		}
		report.check(KindTag, t, aggregate.FieldUsageCount, n)
	}

	for _, d := range report.Drifts {
		r.logger.Warn("counter drift", "uid", uid, "kind", d.Kind, "id", d.ID, "field", d.Field, "stored", d.Stored, "actual", d.Actual)
	}

	if repair && len(report.Drifts) > 0 {
		if err := r.repair(ctx, uid, report.Drifts); err != nil {
			return report, err
		}
		report.Repaired = true
	}

	report.Elapsed = time.Since(start)
	r.logger.Info("recount finished", "uid", uid, "projects", report.Projects, "tags", report.Tags,
		"drifts", len(report.Drifts), "repaired", report.Repaired, "elapsed", report.Elapsed)
	return report, nil
}

func (rep *Report) check(kind string, doc *docstore.Document, field string, actual int) {
	stored := 0
	if n, ok := doc.Fields[field].(float64); ok {
		stored = int(n)
	}
	if stored == actual {
		return
	}
	name, _ := doc.Fields["name"].(string)
	rep.Drifts = append(rep.Drifts, Drift{
		Kind:   kind,
		ID:     doc.ID,
		Name:   name,
		Field:  field,
		Stored: stored,
		Actual: actual,
	})
}

// repair overwrites drifting counters with the recount in batches. Writes
// target existing documents only.
func (r *Reconciler) repair(ctx context.Context, uid string, drifts []Drift) error {
	for start := 0; start < len(drifts); start += docstore.MaxBatchWrites {
		chunk := drifts[start:min(start+docstore.MaxBatchWrites, len(drifts))]
		err := r.store.RunBatch(ctx, func(b *docstore.Batch) error {
			for _, d := range chunk {
				path := docstore.TagDoc(uid, d.ID)
				if d.Kind == KindProject {
					path = docstore.ProjectDoc(uid, d.ID)
				}
				if err := b.Update(path, docstore.Fields{d.Field: d.Actual}, docstore.MustExist()); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("repair counters: %w", err)
		}
	}
	return nil
}
