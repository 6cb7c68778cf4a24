package service

import (
	"context"
	"fmt"

	"github.com/dori/tasknest/internal/aggregate"
	"github.com/dori/tasknest/internal/docstore"
	"github.com/dori/tasknest/internal/model"
)

// Projects is the project service. Counters are owned by the task service and
// are never written here except at creation.
type Projects struct {
	*deps
}

// List returns every project ordered by order then createdAt
func (s *Projects) List(ctx context.Context, uid string) ([]*model.Project, error) {
	docs, err := s.store.Find(ctx, docstore.ProjectsCol(uid), docstore.Query{OrderBy: byOrder})
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return loadAll[model.Project](docs)
}

// Get returns the project or nil
func (s *Projects) Get(ctx context.Context, uid, id string) (*model.Project, error) {
	return load[model.Project](ctx, s.store, docstore.ProjectDoc(uid, id))
}

// Create stores a project with zero counters
func (s *Projects) Create(ctx context.Context, uid string, in model.CreateProject) (*model.Project, error) {
	order := 0
	if in.Order != nil {
		order = *in.Order
	}
	id, err := s.store.Create(ctx, docstore.ProjectsCol(uid), docstore.Fields{
		"name":                   in.Name,
		"color":                  in.Color,
		"order":                  order,
		aggregate.FieldTaskCount: 0,
		aggregate.FieldOpenCount: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return s.Get(ctx, uid, id)
}

// Update applies name, color and order
func (s *Projects) Update(ctx context.Context, uid, id string, in model.UpdateProject) (*model.Project, error) {
	fields := docstore.Fields{}
	setOpt(fields, "name", in.Name)
	setOpt(fields, "color", in.Color)
	setOpt(fields, "order", in.Order)

	ok, err := updateExisting(ctx, s.store, docstore.ProjectDoc(uid, id), fields)
	if err != nil {
		return nil, fmt.Errorf("update project %s: %w", id, err)
	}
	if !ok {
		return nil, nil
	}
	return s.Get(ctx, uid, id)
}

// Reorder sets the project order
func (s *Projects) Reorder(ctx context.Context, uid, id string, order int) (*model.Project, error) {
	return s.Update(ctx, uid, id, model.UpdateProject{Order: model.Some(order)})
}

// Remove deletes the project and every task in it
func (s *Projects) Remove(ctx context.Context, uid, id string, soft bool) error {
	return s.cascade.DeleteProject(ctx, uid, id, soft)
}
