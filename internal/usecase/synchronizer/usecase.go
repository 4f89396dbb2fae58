package synchronizer

import (
	"context"
	"time"

	"github.com/kiryu-dev/scoreboard-sync/internal/domain"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const defaultSaveTimeout = 5 * time.Second

// useCase writes accepted scoreboards to the repository off the request path. Only the newest
// pending record is kept: a save that is still running when several updates arrive is followed by
// a single save of the latest one.
type useCase struct {
	repo        domain.StateRepository
	ch          chan domain.Scoreboard
	saveTimeout time.Duration
	saved       *atomic.Uint64
	failed      *atomic.Uint64
	logger      *zap.Logger
}

func New(repo domain.StateRepository, saveTimeout time.Duration, logger *zap.Logger) *useCase {
	if saveTimeout <= 0 {
		saveTimeout = defaultSaveTimeout
	}
	return &useCase{
		repo:        repo,
		ch:          make(chan domain.Scoreboard, 1),
		saveTimeout: saveTimeout,
		saved:       atomic.NewUint64(0),
		failed:      atomic.NewUint64(0),
		logger:      logger,
	}
}

// Restore loads the persisted scoreboard. Failing here means the stored state cannot be trusted.
func (u *useCase) Restore(ctx context.Context) (*domain.Scoreboard, error) {
	board, err := u.repo.Load(ctx)
	if err != nil {
		return nil, errors.WithMessage(err, "load persisted state")
	}
	if board == nil {
		u.logger.Info("no saved game state found")
		return nil, nil
	}
	u.logger.Info("game state loaded", zap.String("title", board.GameTitle))
	return board, nil
}

func (u *useCase) Enqueue(board domain.Scoreboard) {
	for {
		select {
		case u.ch <- board:
			return
		default:
		}
		select {
		case stale := <-u.ch:
			u.logger.Debug("replacing pending save", zap.Int("inning", stale.GameInning))
		default:
		}
	}
}

func (u *useCase) Run(ctx context.Context) error {
	for {
		select {
		case board := <-u.ch:
			u.save(ctx, board)
		case <-ctx.Done():
			u.flush()
			return nil
		}
	}
}

func (u *useCase) flush() {
	select {
	case board := <-u.ch:
		u.logger.Info("flushing pending game state")
		u.save(context.Background(), board)
	default:
	}
}

// save is bounded by its own timeout only, so a save already picked up is not cut short by
// shutdown.
func (u *useCase) save(ctx context.Context, board domain.Scoreboard) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.saveTimeout)
	defer cancel()
	if err := u.repo.Save(ctx, board); err != nil {
		u.failed.Inc()
		u.logger.Warn("failed to save game state", zap.Error(err))
		return
	}
	u.saved.Inc()
	u.logger.Debug("game state saved")
}

func (u *useCase) Stats() domain.PersistenceStats {
	return domain.PersistenceStats{
		Saved:  u.saved.Load(),
		Failed: u.failed.Load(),
	}
}
