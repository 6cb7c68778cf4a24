package service

import (
	"context"
	"fmt"

	"github.com/dori/tasknest/internal/aggregate"
	"github.com/dori/tasknest/internal/docstore"
	"github.com/dori/tasknest/internal/model"
)

// Tags is the tag service
type Tags struct {
	*deps
}

func (s *Tags) List(ctx context.Context, uid string) ([]*model.Tag, error) {
	docs, err := s.store.Find(ctx, docstore.TagsCol(uid), docstore.Query{OrderBy: byOrder})
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return loadAll[model.Tag](docs)
}

func (s *Tags) Get(ctx context.Context, uid, id string) (*model.Tag, error) {
	return load[model.Tag](ctx, s.store, docstore.TagDoc(uid, id))
}

func (s *Tags) Create(ctx context.Context, uid string, in model.CreateTag) (*model.Tag, error) {
	order := 0
	if in.Order != nil {
		order = *in.Order
	}
	id, err := s.store.Create(ctx, docstore.TagsCol(uid), docstore.Fields{
		"name":                    in.Name,
		"color":                   in.Color,
		"order":                   order,
		aggregate.FieldUsageCount: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return s.Get(ctx, uid, id)
}

func (s *Tags) Update(ctx context.Context, uid, id string, in model.UpdateTag) (*model.Tag, error) {
	fields := docstore.Fields{}
	setOpt(fields, "name", in.Name)
	setOpt(fields, "color", in.Color)
	setOpt(fields, "order", in.Order)

	ok, err := updateExisting(ctx, s.store, docstore.TagDoc(uid, id), fields)
	if err != nil {
		return nil, fmt.Errorf("update tag %s: %w", id, err)
	}
	if !ok {
		return nil, nil
	}
	return s.Get(ctx, uid, id)
}

func (s *Tags) Reorder(ctx context.Context, uid, id string, order int) (*model.Tag, error) {
	return s.Update(ctx, uid, id, model.UpdateTag{Order: model.Some(order)})
}

// Remove deletes the tag. With removeOnly the referencing tasks are kept and
// lose the tag; otherwise they are deleted too.
func (s *Tags) Remove(ctx context.Context, uid, id string, removeOnly bool) error {
	_, err := s.cascade.DeleteTag(ctx, uid, id, removeOnly)
	return err
}
