// Package docstore is a path-addressed hierarchical document store: typed
// CRUD, filtered and paginated queries, server-side field transforms and
// bounded write batches. Paths alternate collection and document segments,
// e.g. users/{uid}/tasks/{id}.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by writes that require an existing document.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrBatchFull is returned when a batch exceeds MaxBatchWrites.
	ErrBatchFull = errors.New("docstore: batch exceeds maximum writes")
	// ErrInvalidPath is returned for malformed document or collection paths.
	ErrInvalidPath = errors.New("docstore: invalid path")
	// ErrInvalidField is returned for field names that cannot be addressed.
	ErrInvalidField = errors.New("docstore: invalid field name")
	// ErrUnsupportedValue is returned when a value cannot be stored or compared.
	ErrUnsupportedValue = errors.New("docstore: unsupported value")
)

// Store is the document store used by every core component. Implementations
// must apply each single-document write atomically, including transforms
// such as Increment.
type Store interface {
	// Get returns the document at path, or nil if it does not exist.
	Get(ctx context.Context, path string) (*Document, error)
	// Create stores fields under a new auto-generated id in collection.
	Create(ctx context.Context, collection string, fields Fields) (string, error)
	// Set writes fields at path. With merge the fields are merged into an
	// existing document, otherwise the document is replaced.
	Set(ctx context.Context, path string, fields Fields, merge bool) error
	// Update merges fields into the document and stamps updatedAt.
	Update(ctx context.Context, path string, fields Fields, opts ...WriteOption) error
	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, path string) error
	// Find runs q against the direct children of collection.
	Find(ctx context.Context, collection string, q Query) ([]*Document, error)
	// Count returns the number of documents in collection matching where.
	Count(ctx context.Context, collection string, where ...Filter) (int, error)
	// RunBatch collects writes in fn and commits them as one unit. Nothing is
	// written if fn returns an error.
	RunBatch(ctx context.Context, fn func(b *Batch) error) error
}

// Fields holds top-level document fields. Values are JSON-compatible scalars,
// string slices, time.Time, or one of the transforms in this package.
type Fields map[string]any

// Document is a stored document snapshot
type Document struct {
	ID     string
	Path   string
	Fields Fields
}

// Value returns a field value, or nil when absent
func (d *Document) Value(field string) any {
	if field == DocumentID {
		return d.ID
	}
	return d.Fields[field]
}

// DataTo decodes the document into v using json struct tags. The document id
// is exposed as the "id" field.
func (d *Document) DataTo(v any) error {
	m := make(map[string]any, len(d.Fields)+1)
	for k, val := range d.Fields {
		m[k] = val
	}
	m["id"] = d.ID

	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", d.Path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode document %s: %w", d.Path, err)
	}
	return nil
}

// WriteOption configures a single Update
type WriteOption func(*writeOptions)

type writeOptions struct {
	mustExist bool
}

// MustExist makes Update leave missing documents untouched instead of
// creating them. Store.Update reports ErrNotFound; batched updates skip.
func MustExist() WriteOption {
	return func(o *writeOptions) {
		o.mustExist = true
	}
}

func applyWriteOptions(opts []WriteOption) writeOptions {
	var o writeOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
