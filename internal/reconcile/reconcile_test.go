package reconcile

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dori/tasknest/internal/aggregate"
	"github.com/dori/tasknest/internal/docstore"
	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) *docstore.SQLite {
	t.Helper()
	s, err := docstore.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	set := func(path string, fields docstore.Fields) {
		require.NoError(t, s.Set(ctx, path, fields, false))
	}
	set(docstore.ProjectDoc("u1", "P"), docstore.Fields{"name": "Work", aggregate.FieldTaskCount: 5, aggregate.FieldOpenCount: 0})
	set(docstore.ProjectDoc("u1", "Q"), docstore.Fields{"name": "Home", aggregate.FieldTaskCount: 1, aggregate.FieldOpenCount: 1})
	set(docstore.TagDoc("u1", "x"), docstore.Fields{"name": "urgent", aggregate.FieldUsageCount: 0})
	set(docstore.TaskDoc("u1", "t1"), docstore.Fields{"status": "TODO", "projectId": "P", "tagIds": []string{"x"}})
	set(docstore.TaskDoc("u1", "t2"), docstore.Fields{"status": "DONE", "projectId": "P", "tagIds": []string{"x"}})
	set(docstore.TaskDoc("u1", "t3"), docstore.Fields{"status": "TODO", "projectId": "P", "tagIds": []string{"x"}, "deletedAt": "2026-01-01T00:00:00.000000000Z"})
	set(docstore.TaskDoc("u1", "t4"), docstore.Fields{"status": "TODO", "projectId": "Q", "tagIds": []string{}, "archivedAt": nil})
	return s
}

func TestRecountFindsDrift(t *testing.T) {
	s := seed(t)

	report, err := New(s).Recount(context.Background(), "u1", false)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Projects)
	assert.Equal(t, 1, report.Tags)
	assert.False(t, report.Repaired)
	assert.ElementsMatch(t, []Drift{
		{Kind: KindProject, ID: "P", Name: "Work", Field: aggregate.FieldTaskCount, Stored: 5, Actual: 2},
		{Kind: KindProject, ID: "P", Name: "Work", Field: aggregate.FieldOpenCount, Stored: 0, Actual: 1},
		{Kind: KindTag, ID: "x", Name: "urgent", Field: aggregate.FieldUsageCount, Stored: 0, Actual: 2},
	}, report.Drifts)

	doc, err := s.Get(context.Background(), docstore.ProjectDoc("u1", "P"))
	require.NoError(t, err)
	assert.Equal(t, float64(5), doc.Fields[aggregate.FieldTaskCount])
}

func TestRecountRepairs(t *testing.T) {
	s := seed(t)
	r := New(s)

	report, err := r.Recount(context.Background(), "u1", true)
	require.NoError(t, err)
	assert.True(t, report.Repaired)
	assert.Len(t, report.Drifts, 3)

	again, err := r.Recount(context.Background(), "u1", true)
	require.NoError(t, err)
	assert.True(t, again.Clean())
	assert.False(t, again.Repaired)
}

func TestRecountHonoursLock(t *testing.T) {
	s := seed(t)
	lockPath := filepath.Join(t.TempDir(), "recount.lock")

	held := flock.New(lockPath)
	ok, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, ok)

	_, err = New(s, WithLockFile(lockPath)).Recount(context.Background(), "u1", false)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, held.Unlock())
	_, err = New(s, WithLockFile(lockPath)).Recount(context.Background(), "u1", false)
	assert.NoError(t, err)
}
