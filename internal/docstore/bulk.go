package docstore

import (
	"context"
	"time"
)

// Write is one path/fields pair for BulkUpdate
type Write struct {
	Path   string
	Fields Fields
}

// chunkSize clamps n to 1..MaxBatchWrites, defaulting to MaxBatchWrites.
func chunkSize(n int) int {
	if n <= 0 || n > MaxBatchWrites {
		return MaxBatchWrites
	}
	return n
}

// BulkDelete deletes paths in sequential batches of at most chunk writes.
// Batches committed before a failure stay committed.
func BulkDelete(ctx context.Context, s Store, paths []string, chunk int) error {
	chunk = chunkSize(chunk)
	for i := 0; i < len(paths); i += chunk {
		slice := paths[i:min(i+chunk, len(paths))]
		err := s.RunBatch(ctx, func(b *Batch) error {
			for _, p := range slice {
				if err := b.Delete(p); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// BulkSoftDelete marks deletedAt on paths in sequential batches.
func BulkSoftDelete(ctx context.Context, s Store, paths []string, at time.Time, chunk int) error {
	writes := make([]Write, len(paths))
	for i, p := range paths {
		writes[i] = Write{Path: p, Fields: Fields{FieldDeletedAt: at}}
	}
	return BulkUpdate(ctx, s, writes, chunk)
}

// BulkUpdate merge-updates each path in sequential batches.
func BulkUpdate(ctx context.Context, s Store, writes []Write, chunk int) error {
	chunk = chunkSize(chunk)
	for i := 0; i < len(writes); i += chunk {
		slice := writes[i:min(i+chunk, len(writes))]
		err := s.RunBatch(ctx, func(b *Batch) error {
			for _, w := range slice {
				if err := b.Update(w.Path, w.Fields); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Pager walks the documents of a collection matching a filter in document id
// order, one page at a time. Writes made between pages, including ones that
// make earlier documents stop matching, do not cause skips or repeats.
type Pager struct {
	store      Store
	collection string
	q          Query
	done       bool
}

// NewPager returns a Pager reading at most pageSize documents per page
func NewPager(s Store, collection string, where []Filter, pageSize int) *Pager {
	return &Pager{
		store:      s,
		collection: collection,
		q:          Query{Where: where, Limit: chunkSize(pageSize)},
	}
}

// Next returns the next page, or an empty page once exhausted
func (p *Pager) Next(ctx context.Context) ([]*Document, error) {
	if p.done {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs, err := p.store.Find(ctx, p.collection, p.q)
	if err != nil {
		return nil, err
	}
	if len(docs) < p.q.Limit {
		p.done = true
	}
	if len(docs) > 0 {
		p.q = p.q.After(docs[len(docs)-1])
	}
	return docs, nil
}

// Sweep pages through every document in collection matching where and calls
// fn once per page with a fresh batch that is committed before the next page
// is read. committed, if non-nil, runs after each commit with the running
// total. It returns the number of documents visited.
func Sweep(ctx context.Context, s Store, collection string, where []Filter, pageSize int,
	fn func(b *Batch, docs []*Document) error, committed func(visited int) error) (int, error) {
	pager := NewPager(s, collection, where, pageSize)

	visited := 0
	for {
		docs, err := pager.Next(ctx)
		if err != nil {
			return visited, err
		}
		if len(docs) == 0 {
			return visited, nil
		}

		err = s.RunBatch(ctx, func(b *Batch) error {
			return fn(b, docs)
		})
		if err != nil {
			return visited, err
		}
		visited += len(docs)

		if committed != nil {
			if err := committed(visited); err != nil {
				return visited, err
			}
		}
	}
}

func deleteDocs(b *Batch, docs []*Document) error {
	for _, d := range docs {
		if err := b.Delete(d.Path); err != nil {
			return err
		}
	}
	return nil
}

// DeleteCollection hard-deletes every document in collection. committed, if
// non-nil, runs after each batch as in Sweep.
func DeleteCollection(ctx context.Context, s Store, collection string, chunk int, committed func(visited int) error) (int, error) {
	return Sweep(ctx, s, collection, nil, chunk, deleteDocs, committed)
}

// DeleteByQuery hard-deletes every document in collection matching where.
func DeleteByQuery(ctx context.Context, s Store, collection string, where []Filter, chunk int, committed func(visited int) error) (int, error) {
	return Sweep(ctx, s, collection, where, chunk, deleteDocs, committed)
}
