package service

import (
	"context"
	"fmt"

	"github.com/dori/tasknest/internal/docstore"
	"github.com/dori/tasknest/internal/model"
)

// Users manages the caller's own user document
type Users struct {
	*deps
}

// Get returns the user or nil
func (s *Users) Get(ctx context.Context, uid string) (*model.User, error) {
	return load[model.User](ctx, s.store, docstore.UserDoc(uid))
}

// Create writes the user document, replacing any previous one
func (s *Users) Create(ctx context.Context, uid string, in model.CreateUser) (*model.User, error) {
	err := s.store.Set(ctx, docstore.UserDoc(uid), docstore.Fields{
		"email":                in.Email,
		"name":                 in.Name,
		"image":                in.Image,
		docstore.FieldDeletedAt: nil,
	}, false)
	if err != nil {
		return nil, fmt.Errorf("create user %s: %w", uid, err)
	}
	return s.Get(ctx, uid)
}

// Update applies email, name and image
func (s *Users) Update(ctx context.Context, uid string, in model.UpdateUser) (*model.User, error) {
	fields := docstore.Fields{}
	setOpt(fields, "email", in.Email)
	setOpt(fields, "name", in.Name)
	setOpt(fields, "image", in.Image)

	ok, err := updateExisting(ctx, s.store, docstore.UserDoc(uid), fields)
	if err != nil {
		return nil, fmt.Errorf("update user %s: %w", uid, err)
	}
	if !ok {
		return nil, nil
	}
	return s.Get(ctx, uid)
}

// Delete removes or marks everything the user owns, then the user document
func (s *Users) Delete(ctx context.Context, uid string, soft bool) error {
	return s.cascade.DeleteUser(ctx, uid, soft)
}
