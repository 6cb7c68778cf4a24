package docstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore records batch sizes
type countingStore struct {
	Store
	batches []int
}

func (c *countingStore) RunBatch(ctx context.Context, fn func(b *Batch) error) error {
	var size int
	err := c.Store.RunBatch(ctx, func(b *Batch) error {
		err := fn(b)
		size = b.Len()
		return err
	})
	c.batches = append(c.batches, size)
	return err
}

func paths(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = TaskDoc("u1", fmt.Sprintf("t%04d", i))
	}
	return out
}

func TestBulkDeleteChunks(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	all := paths(1200)

	writes := make([]Write, len(all))
	for i, p := range all {
		writes[i] = Write{Path: p, Fields: Fields{"title": "x"}}
	}
	require.NoError(t, BulkUpdate(ctx, s, writes, 0))

	cs := &countingStore{Store: s}
	require.NoError(t, BulkDelete(ctx, cs, all, 0))
	assert.Equal(t, []int{500, 500, 200}, cs.batches)

	n, err := s.Count(ctx, TasksCol("u1"))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBulkSoftDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	all := paths(3)
	for _, p := range all {
		require.NoError(t, s.Set(ctx, p, Fields{"deletedAt": nil}, false))
	}

	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, BulkSoftDelete(ctx, s, all, at, 2))

	n, err := s.Count(ctx, TasksCol("u1"), Where(FieldDeletedAt, OpEq, at))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSweepVisitsEveryDocumentOnce(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	all := paths(23)
	writes := make([]Write, len(all))
	for i, p := range all {
		writes[i] = Write{Path: p, Fields: Fields{"tagIds": []string{"x"}}}
	}
	require.NoError(t, BulkUpdate(ctx, s, writes, 0))

	// Removing the matched tag while paging must not skip or repeat documents
	seen := map[string]int{}
	var pages []int
	n, err := Sweep(ctx, s, TasksCol("u1"), []Filter{Where("tagIds", OpArrayContains, "x")}, 5,
		func(b *Batch, docs []*Document) error {
			for _, d := range docs {
				seen[d.ID]++
				if err := b.Update(d.Path, Fields{"tagIds": ArrayRemove("x")}); err != nil {
					return err
				}
			}
			return nil
		},
		func(visited int) error {
			pages = append(pages, visited)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, 23, n)
	assert.Equal(t, []int{5, 10, 15, 20, 23}, pages)
	assert.Len(t, seen, 23)

	left, err := s.Count(ctx, TasksCol("u1"), Where("tagIds", OpArrayContains, "x"))
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestDeleteCollectionAndByQuery(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedTasks(t, s, 10)

	var pages []int
	n, err := DeleteByQuery(ctx, s, TasksCol("u1"), []Filter{Where("projectId", OpEq, "p1")}, 3, func(visited int) error {
		pages = append(pages, visited)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []int{3, 5}, pages)

	n, err = DeleteCollection(ctx, s, TasksCol("u1"), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	left, err := s.Count(ctx, TasksCol("u1"))
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestSweepHonoursCancellation(t *testing.T) {
	s := openTestStore(t)
	seedTasks(t, s, 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := DeleteCollection(ctx, s, TasksCol("u1"), 0, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
