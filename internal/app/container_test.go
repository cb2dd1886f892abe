package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/kubeask/internal/infrastructure/history"
)

func TestBuildContainer(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	container, err := BuildContainer(context.Background(), Options{ConfigPath: filepath.Join(home, "config.yaml")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	assert.Equal(t, filepath.Join(home, "config.yaml"), container.Config.Path())
	assert.IsType(t, &history.SQLiteStore{}, container.HistoryStore)
	assert.NotNil(t, container.ChatService.Kube)

	cfg, err := container.Config.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".kubeask", "history.db"), cfg.History.Path)

	report, err := container.DoctorService.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, report.Checks)
}
