package docstore

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetMissingReturnsNil(t *testing.T) {
	s := openTestStore(t)

	doc, err := s.Get(context.Background(), TaskDoc("u1", "nope"))
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestInvalidPaths(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "users/u1/tasks")
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = s.Find(ctx, "users/u1", Query{})
	assert.ErrorIs(t, err, ErrInvalidPath)

	err = s.Set(ctx, "users//tasks/x", Fields{"a": 1}, true)
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestCreateStampsTimestamps(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	id, err := s.Create(ctx, ProjectsCol("u1"), Fields{"name": "Work", "taskCount": 0})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := s.Get(ctx, ProjectDoc("u1", id))
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, id, doc.ID)
	assert.Equal(t, "Work", doc.Fields["name"])
	assert.Equal(t, FormatTime(now), doc.Fields[FieldCreatedAt])
	assert.Equal(t, FormatTime(now), doc.Fields[FieldUpdatedAt])

	var out struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		TaskCount int       `json:"taskCount"`
		CreatedAt time.Time `json:"createdAt"`
	}
	require.NoError(t, doc.DataTo(&out))
	assert.Equal(t, id, out.ID)
	assert.Equal(t, 0, out.TaskCount)
	assert.True(t, out.CreatedAt.Equal(now))
}

func TestSetMergeAndReplace(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	path := TagDoc("u1", "t1")

	require.NoError(t, s.Set(ctx, path, Fields{"name": "home", "order": 2}, false))
	require.NoError(t, s.Set(ctx, path, Fields{"color": "#fff"}, true))

	doc, err := s.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "home", doc.Fields["name"])
	assert.Equal(t, "#fff", doc.Fields["color"])

	require.NoError(t, s.Set(ctx, path, Fields{"name": "work"}, false))
	doc, err = s.Get(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "work", doc.Fields["name"])
	assert.NotContains(t, doc.Fields, "color")
}

func TestIncrementIsServerSide(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	path := ProjectDoc("u1", "p1")
	require.NoError(t, s.Set(ctx, path, Fields{"name": "Work", "taskCount": 0}, false))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Update(ctx, path, Fields{"taskCount": Increment(1), "openCount": Increment(1)}))
		}()
	}
	wg.Wait()

	require.NoError(t, s.Update(ctx, path, Fields{"openCount": Increment(-5)}))

	doc, err := s.Get(ctx, path)
	require.NoError(t, err)
	assert.EqualValues(t, 20, doc.Fields["taskCount"])
	assert.EqualValues(t, 15, doc.Fields["openCount"])
}

func TestUpdateMustExist(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	path := ProjectDoc("u1", "ghost")

	err := s.Update(ctx, path, Fields{"taskCount": Increment(1)}, MustExist())
	assert.ErrorIs(t, err, ErrNotFound)

	doc, err := s.Get(ctx, path)
	require.NoError(t, err)
	assert.Nil(t, doc, "must-exist update created a document")

	require.NoError(t, s.Update(ctx, path, Fields{"taskCount": Increment(1)}))
	doc, err = s.Get(ctx, path)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.EqualValues(t, 1, doc.Fields["taskCount"])
}

func TestArrayTransforms(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	path := TaskDoc("u1", "t1")
	require.NoError(t, s.Set(ctx, path, Fields{"tagIds": []string{"a", "b", "c"}}, false))

	require.NoError(t, s.Update(ctx, path, Fields{"tagIds": ArrayRemove("b")}))
	doc, err := s.Get(ctx, path)
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{"a", "c"}, doc.Fields["tagIds"])

	require.NoError(t, s.Update(ctx, path, Fields{"tagIds": ArrayUnion("c", "d")}))
	doc, err = s.Get(ctx, path)
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{"a", "c", "d"}, doc.Fields["tagIds"])

	require.NoError(t, s.Update(ctx, path, Fields{"tagIds": ArrayRemove("a", "c", "d")}))
	doc, err = s.Get(ctx, path)
	require.NoError(t, err)
	assert.Empty(t, doc.Fields["tagIds"])
}

func seedTasks(t *testing.T, s *SQLite, n int) {
	t.Helper()
	ctx := context.Background()
	err := s.RunBatch(ctx, func(b *Batch) error {
		for i := 0; i < n; i++ {
			var project any
			if i%2 == 0 {
				project = "p1"
			}
			tags := []string{}
			if i%3 == 0 {
				tags = append(tags, "red")
			}
			if i%4 == 0 {
				tags = append(tags, "blue")
			}
			due := time.Date(2026, 1, 1+i, 0, 0, 0, 0, time.UTC)
			err := b.Set(TaskDoc("u1", fmt.Sprintf("t%02d", i)), Fields{
				"title":     fmt.Sprintf("task %d", i),
				"order":     i % 5,
				"projectId": project,
				"done":      i%2 == 1,
				"tagIds":    tags,
				"dueAt":     due,
			}, false)
			if err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func ids(docs []*Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func TestFindFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedTasks(t, s, 12)
	col := TasksCol("u1")

	tests := []struct {
		name  string
		where []Filter
		want  int
	}{
		{"eq string", []Filter{Where("projectId", OpEq, "p1")}, 6},
		{"eq null", []Filter{Where("projectId", OpEq, nil)}, 6},
		{"ne null", []Filter{Where("projectId", OpNe, nil)}, 6},
		{"bool", []Filter{Where("done", OpEq, true)}, 6},
		{"array contains", []Filter{Where("tagIds", OpArrayContains, "red")}, 4},
		{"array contains any", []Filter{Where("tagIds", OpArrayContainsAny, []string{"red", "blue"})}, 6},
		{"array contains any empty", []Filter{Where("tagIds", OpArrayContainsAny, []string{})}, 0},
		{"in", []Filter{Where("order", OpIn, []any{0, 1})}, 6},
		{"range", []Filter{
			Where("dueAt", OpGte, time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)),
			Where("dueAt", OpLte, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)),
		}, 3},
		{"document id", []Filter{Where(DocumentID, OpEq, "t03")}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := s.Find(ctx, col, Query{Where: tt.where})
			require.NoError(t, err)
			assert.Len(t, docs, tt.want)

			n, err := s.Count(ctx, col, tt.where...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestFindOrderingAndCursor(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedTasks(t, s, 12)
	col := TasksCol("u1")

	q := Query{OrderBy: []Order{{Field: "order"}}, Limit: 5}

	var all []string
	for {
		page, err := s.Find(ctx, col, q)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		all = append(all, ids(page)...)
		q = q.After(page[len(page)-1])
	}

	full, err := s.Find(ctx, col, Query{OrderBy: []Order{{Field: "order"}}})
	require.NoError(t, err)
	assert.Equal(t, ids(full), all)
	assert.Len(t, all, 12)
	assert.Equal(t, []string{"t00", "t05", "t10"}, all[:3])

	desc, err := s.Find(ctx, col, Query{OrderBy: []Order{{Field: "order", Dir: Desc}}, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"t04", "t09"}, ids(desc))
}

func TestFindCursorOverNulls(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seedTasks(t, s, 6)
	col := TasksCol("u1")

	q := Query{OrderBy: []Order{{Field: "projectId"}}, Limit: 2}
	var all []string
	for {
		page, err := s.Find(ctx, col, q)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		all = append(all, ids(page)...)
		q = q.After(page[len(page)-1])
	}
	assert.Equal(t, []string{"t01", "t03", "t05", "t00", "t02", "t04"}, all)
}

func TestFindSelect(t *testing.T) {
	s := openTestStore(t)
	seedTasks(t, s, 2)

	docs, err := s.Find(context.Background(), TasksCol("u1"), Query{Select: []string{"title"}})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, Fields{"title": "task 0"}, docs[0].Fields)
}

func TestFindIsScopedToCollection(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, TaskDoc("u1", "a"), Fields{"title": "mine"}, false))
	require.NoError(t, s.Set(ctx, TaskDoc("u2", "b"), Fields{"title": "theirs"}, false))

	docs, err := s.Find(ctx, TasksCol("u1"), Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(docs))
}

func TestBatchLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.RunBatch(ctx, func(b *Batch) error {
		for i := 0; i <= MaxBatchWrites; i++ {
			if err := b.Set(TaskDoc("u1", fmt.Sprintf("t%d", i)), Fields{"n": i}, false); err != nil {
				return err
			}
		}
		return nil
	})
	assert.ErrorIs(t, err, ErrBatchFull)

	n, err := s.Count(ctx, TasksCol("u1"))
	require.NoError(t, err)
	assert.Zero(t, n, "a rejected batch must not write anything")
}

func TestBatchSkipsMissingMustExist(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, TagDoc("u1", "a"), Fields{"usageCount": 1}, false))

	err := s.RunBatch(ctx, func(b *Batch) error {
		if err := b.Update(TagDoc("u1", "a"), Fields{"usageCount": Increment(1)}, MustExist()); err != nil {
			return err
		}
		return b.Update(TagDoc("u1", "gone"), Fields{"usageCount": Increment(1)}, MustExist())
	})
	require.NoError(t, err)

	doc, err := s.Get(ctx, TagDoc("u1", "a"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, doc.Fields["usageCount"])

	doc, err = s.Get(ctx, TagDoc("u1", "gone"))
	require.NoError(t, err)
	assert.Nil(t, doc)
}

// TestNestedReadsNoDeadlock guards against holding the single SQLite
// connection while iterating rows: Find must release it before returning so
// callers can issue reads per result.
func TestNestedReadsNoDeadlock(t *testing.T) {
	s := openTestStore(t)
	seedTasks(t, s, 10)

	done := make(chan error, 1)
	go func() {
		ctx := context.Background()
		docs, err := s.Find(ctx, TasksCol("u1"), Query{})
		if err != nil {
			done <- err
			return
		}
		for _, d := range docs {
			if _, err := s.Get(ctx, d.Path); err != nil {
				done <- err
				return
			}
			if _, err := s.Count(ctx, TasksCol("u1"), Where("projectId", OpEq, d.ID)); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Test timed out - possible deadlock detected")
	}
}
