package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kiryu-dev/scoreboard-sync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scoreboard.db")
	repo, err := New(ctx, path)
	require.NoError(t, err)

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	first := domain.Scoreboard{GameTitle: "first", GameInning: 1}
	second := domain.Scoreboard{GameTitle: "second", GameInning: 2, FirstBase: true}
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	got, err = repo.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second, *got)
	require.NoError(t, repo.Close())

	reopened, err := New(ctx, path)
	require.NoError(t, err)
	defer func() {
		_ = reopened.Close()
	}()
	got, err = reopened.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, second, *got, "state survives reopening")
}
