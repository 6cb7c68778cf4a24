package app

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/dori/tasknest/internal/cascade"
	"github.com/dori/tasknest/internal/config"
	"github.com/dori/tasknest/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWiresServices(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.BatchSize = 2
	cfg.LogLevel = "debug"

	var logs bytes.Buffer
	var progress []cascade.Progress
	a, err := New(cfg, Options{
		LogOutput: &logs,
		Progress:  func(p cascade.Progress) { progress = append(progress, p) },
	})
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, filepath.Join(cfg.DataDir, config.DefaultDBName), a.Config.DBPath)

	ctx := context.Background()
	p, err := a.Service.Projects.Create(ctx, "u1", model.CreateProject{Name: "Work"})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := a.Service.Tasks.Create(ctx, "u1", model.CreateTask{Title: "t", ProjectID: &p.ID})
		require.NoError(t, err)
	}

	require.NoError(t, a.Service.Projects.Remove(ctx, "u1", p.ID, false))
	require.Len(t, progress, 2)
	assert.Equal(t, 3, progress[1].Done)
	assert.Contains(t, logs.String(), "project deleted")

	report, err := a.Reconciler.Recount(ctx, "u1", false)
	require.NoError(t, err)
	assert.True(t, report.Clean())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.BatchSize = 1000

	_, err := New(cfg, Options{})
	assert.Error(t, err)
}
