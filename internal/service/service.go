// Package service holds the task, project, tag and user operations callers
// invoke with an authenticated user id and a validated payload. Operations
// on a missing entity return a nil entity and no error.
package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dori/tasknest/internal/aggregate"
	"github.com/dori/tasknest/internal/cascade"
	"github.com/dori/tasknest/internal/docstore"
)

// Listing limits
const (
	DefaultListLimit = 50
	MaxListLimit     = 100
	MaxTagFilter     = 10
)

// ErrParentCycle is returned when a task would become its own parent
var ErrParentCycle = errors.New("task cannot be its own parent")

// Service groups the per-entity services over one store
type Service struct {
	Tasks    *Tasks
	Projects *Projects
	Tags     *Tags
	Users    *Users
}

type deps struct {
	store     docstore.Store
	counters  *aggregate.Service
	cascade   *cascade.Engine
	logger    *log.Logger
	now       func() time.Time
	listLimit int
}

// Option configures a Service
type Option func(*deps)

// WithLogger sets the logger
func WithLogger(logger *log.Logger) Option {
	return func(d *deps) {
		d.logger = logger
	}
}

// WithClock overrides the clock used for completedAt, archivedAt and deletedAt
func WithClock(now func() time.Time) Option {
	return func(d *deps) {
		d.now = now
	}
}

// WithListLimit sets the task listing page size used when a filter has none
func WithListLimit(n int) Option {
	return func(d *deps) {
		d.listLimit = clampLimit(n, DefaultListLimit)
	}
}

// New wires the services. The store, counter service and cascade engine are
// shared and must all target the same store.
func New(store docstore.Store, counters *aggregate.Service, engine *cascade.Engine, opts ...Option) *Service {
	d := &deps{
		store:     store,
		counters:  counters,
		cascade:   engine,
		logger:    log.New(io.Discard),
		now:       time.Now,
		listLimit: DefaultListLimit,
	}
	for _, opt := range opts {
		opt(d)
	}

	return &Service{
		Tasks:    &Tasks{d},
		Projects: &Projects{d},
		Tags:     &Tags{d},
		Users:    &Users{d},
	}
}

func clampLimit(n, fallback int) int {
	if n == 0 {
		n = fallback
	}
	return max(1, min(n, MaxListLimit))
}

// load reads path into a new T, returning nil when the document is missing
func load[T any](ctx context.Context, s docstore.Store, path string) (*T, error) {
	doc, err := s.Get(ctx, path)
	if err != nil || doc == nil {
		return nil, err
	}
	var v T
	if err := doc.DataTo(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

func loadAll[T any](docs []*docstore.Document) ([]*T, error) {
	out := make([]*T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := doc.DataTo(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, nil
}

// updateExisting merges fields into path and reports whether the document existed
func updateExisting(ctx context.Context, s docstore.Store, path string, fields docstore.Fields) (bool, error) {
	err := s.Update(ctx, path, fields, docstore.MustExist())
	if errors.Is(err, docstore.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// byOrder lists a collection by order then creation time
var byOrder = []docstore.Order{
	{Field: "order", Dir: docstore.Asc},
	{Field: docstore.FieldCreatedAt, Dir: docstore.Asc},
}
