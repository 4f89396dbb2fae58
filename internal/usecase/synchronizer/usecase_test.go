package synchronizer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kiryu-dev/scoreboard-sync/internal/domain"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type repoStub struct {
	mu      sync.Mutex
	saved   []domain.Scoreboard
	loaded  *domain.Scoreboard
	loadErr error
	saveErr error
	block   chan struct{}
}

func (r *repoStub) Load(context.Context) (*domain.Scoreboard, error) {
	return r.loaded, r.loadErr
}

func (r *repoStub) Save(_ context.Context, board domain.Scoreboard) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, board)
	return nil
}

func (r *repoStub) boards() []domain.Scoreboard {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Scoreboard(nil), r.saved...)
}

func TestRestore(t *testing.T) {
	board := &domain.Scoreboard{GameTitle: "restored"}
	u := New(&repoStub{loaded: board}, 0, zaptest.NewLogger(t))
	got, err := u.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, board, got)

	u = New(&repoStub{}, 0, zaptest.NewLogger(t))
	got, err = u.Restore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)

	boom := errors.New("disk on fire")
	u = New(&repoStub{loadErr: boom}, 0, zaptest.NewLogger(t))
	_, err = u.Restore(context.Background())
	assert.True(t, errors.Is(err, boom))
}

func TestRunSavesEnqueuedBoards(t *testing.T) {
	repo := &repoStub{}
	u := New(repo, time.Second, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = u.Run(ctx)
	}()

	u.Enqueue(domain.Scoreboard{GameInning: 1})
	require.Eventually(t, func() bool {
		return len(repo.boards()) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, domain.PersistenceStats{Saved: 1}, u.Stats())
}

// TestEnqueueKeepsLatest verifies Enqueue never blocks and the newest record replaces a pending one.
func TestEnqueueKeepsLatest(t *testing.T) {
	repo := &repoStub{}
	u := New(repo, time.Second, zaptest.NewLogger(t))
	for i := 1; i <= 10; i++ {
		u.Enqueue(domain.Scoreboard{GameInning: i})
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, u.Run(ctx))
	assert.Equal(t, []domain.Scoreboard{{GameInning: 10}}, repo.boards())
}

func TestSaveWhileBusyIsCoalesced(t *testing.T) {
	repo := &repoStub{block: make(chan struct{})}
	u := New(repo, time.Second, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = u.Run(ctx)
	}()

	u.Enqueue(domain.Scoreboard{GameInning: 1})
	require.Eventually(t, func() bool {
		return len(u.ch) == 0
	}, time.Second, time.Millisecond)
	u.Enqueue(domain.Scoreboard{GameInning: 2})
	u.Enqueue(domain.Scoreboard{GameInning: 3})
	close(repo.block)

	require.Eventually(t, func() bool {
		return len(repo.boards()) == 2
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []domain.Scoreboard{{GameInning: 1}, {GameInning: 3}}, repo.boards())
}

func TestSaveFailureIsCounted(t *testing.T) {
	repo := &repoStub{saveErr: errors.New("read-only file system")}
	u := New(repo, time.Second, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = u.Run(ctx)
	}()

	u.Enqueue(domain.Scoreboard{})
	require.Eventually(t, func() bool {
		return u.Stats().Failed == 1
	}, time.Second, 5*time.Millisecond)
}
