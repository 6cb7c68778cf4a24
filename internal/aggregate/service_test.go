package aggregate

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dori/tasknest/internal/docstore"
	"github.com/dori/tasknest/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *docstore.SQLite {
	t.Helper()
	s, err := docstore.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func counters(t *testing.T, s docstore.Store, path string, fields ...string) []int {
	t.Helper()
	doc, err := s.Get(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, doc, path)
	out := make([]int, len(fields))
	for i, f := range fields {
		n, _ := doc.Fields[f].(float64)
		out[i] = int(n)
	}
	return out
}

func TestApplyWritesCounters(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, docstore.ProjectDoc("u1", "A"), docstore.Fields{FieldTaskCount: 0, FieldOpenCount: 0}, false))
	require.NoError(t, s.Set(ctx, docstore.ProjectDoc("u1", "B"), docstore.Fields{FieldTaskCount: 0, FieldOpenCount: 0}, false))
	require.NoError(t, s.Set(ctx, docstore.TagDoc("u1", "x"), docstore.Fields{FieldUsageCount: 0}, false))

	svc := New(s, nil)
	open := task("A", model.StatusTodo, "x")
	require.NoError(t, svc.Track(ctx, "u1", nil, open))
	assert.Equal(t, []int{1, 1}, counters(t, s, docstore.ProjectDoc("u1", "A"), FieldTaskCount, FieldOpenCount))
	assert.Equal(t, []int{1}, counters(t, s, docstore.TagDoc("u1", "x"), FieldUsageCount))

	moved := with(open, func(t *model.Task) { t.ProjectID = strp("B") })
	require.NoError(t, svc.Track(ctx, "u1", open, moved))
	assert.Equal(t, []int{0, 0}, counters(t, s, docstore.ProjectDoc("u1", "A"), FieldTaskCount, FieldOpenCount))
	assert.Equal(t, []int{1, 1}, counters(t, s, docstore.ProjectDoc("u1", "B"), FieldTaskCount, FieldOpenCount))
}

func TestApplySkipsMissingDocuments(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	svc := New(s, nil)
	require.NoError(t, svc.Track(ctx, "u1", nil, task("ghost", model.StatusTodo, "nope")))

	doc, err := s.Get(ctx, docstore.ProjectDoc("u1", "ghost"))
	require.NoError(t, err)
	assert.Nil(t, doc)
	doc, err = s.Get(ctx, docstore.TagDoc("u1", "nope"))
	require.NoError(t, err)
	assert.Nil(t, doc)
}
