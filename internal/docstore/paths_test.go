package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaths(t *testing.T) {
	assert.Equal(t, "users/u1", UserDoc("u1"))
	assert.Equal(t, "users/u1/projects/p1", ProjectDoc("u1", "p1"))
	assert.Equal(t, "users/u1/tags/t1", TagDoc("u1", "t1"))
	assert.Equal(t, "users/u1/tasks/k1", TaskDoc("u1", "k1"))
	assert.Equal(t, []string{"users/u1/projects", "users/u1/tags", "users/u1/tasks"}, UserCollections("u1"))

	col, id, err := SplitPath(TaskDoc("u1", "k1"))
	require.NoError(t, err)
	assert.Equal(t, "users/u1/tasks", col)
	assert.Equal(t, "k1", id)

	col, id, err = SplitPath(UserDoc("u1"))
	require.NoError(t, err)
	assert.Equal(t, "users", col)
	assert.Equal(t, "u1", id)

	_, _, err = SplitPath("users/u1/tasks")
	assert.ErrorIs(t, err, ErrInvalidPath)
	_, _, err = SplitPath("users/u1/tasks/")
	assert.ErrorIs(t, err, ErrInvalidPath)
}
