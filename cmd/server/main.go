package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/kiryu-dev/scoreboard-sync/internal/adapters/file"
	"github.com/kiryu-dev/scoreboard-sync/internal/adapters/redis"
	"github.com/kiryu-dev/scoreboard-sync/internal/adapters/sqlite"
	"github.com/kiryu-dev/scoreboard-sync/internal/adapters/webapi"
	"github.com/kiryu-dev/scoreboard-sync/internal/config"
	"github.com/kiryu-dev/scoreboard-sync/internal/domain"
	"github.com/kiryu-dev/scoreboard-sync/internal/store"
	"github.com/kiryu-dev/scoreboard-sync/internal/transport/ws"
	"github.com/kiryu-dev/scoreboard-sync/internal/usecase/broadcast"
	"github.com/kiryu-dev/scoreboard-sync/internal/usecase/coordinator"
	"github.com/kiryu-dev/scoreboard-sync/internal/usecase/hub"
	"github.com/kiryu-dev/scoreboard-sync/internal/usecase/synchronizer"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var errShutdown = errors.New("shutdown requested")

func main() {
	cfgPath := flag.String("config", config.DefaultPath, "path to config")
	flag.Parse()
	cfg, err := config.New(*cfgPath)
	if err != nil {
		panic(err)
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	if err := run(cfg, logger); err != nil {
		logger.Fatal(err.Error())
	}
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	if cfg.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, closer, err := newRepository(ctx, cfg.Persistence)
	if err != nil {
		return errors.WithMessage(err, "create state repository")
	}
	defer func() {
		if err := closer.Close(); err != nil {
			logger.Warn("failed to close state repository", zap.Error(err))
		}
	}()
	logger.Info("state repository ready", zap.String("backend", cfg.Persistence.Backend))

	var (
		sync  = synchronizer.New(repo, cfg.Persistence.SaveTimeout, logger)
		st    = store.New()
		coord = coordinator.New(st, broadcast.New(st.Registry, logger), sync, logger,
			coordinator.WithGracePeriod(cfg.Coordinator.GracePeriod))
		server = ws.New(cfg.Server, cfg.Coordinator.OutboundQueueSize, hub.New(coord, logger), coord, sync, logger)
	)
	board, err := sync.Restore(ctx)
	if err != nil {
		return err
	}
	if board != nil {
		st.Record.Set(*board)
	}

	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	errGroup, ctx := errgroup.WithContext(ctx)
	errGroup.Go(func() error {
		select {
		case s := <-sigChan:
			logger.Info("captured signal", zap.String("signal", s.String()))
			return errShutdown
		case <-ctx.Done():
			return nil
		}
	})
	errGroup.Go(func() error {
		return sync.Run(ctx)
	})
	errGroup.Go(func() error {
		return server.ListenAndServe(ctx)
	})
	if err := errGroup.Wait(); err != nil && !errors.Is(err, errShutdown) {
		return err
	}
	logger.Info("server stopped")
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error {
	return nil
}

func newRepository(ctx context.Context, cfg config.PersistenceConfig) (domain.StateRepository, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		repo, err := sqlite.New(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo, nil
	case config.BackendRedis:
		repo, err := redis.New(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
		})
		if err != nil {
			return nil, nil, err
		}
		return repo, repo, nil
	case config.BackendWebAPI:
		return webapi.New(cfg.WebAPI.URL, cfg.WebAPI.Timeout), nopCloser{}, nil
	case config.BackendFile:
		return file.New(cfg.File.Path), nopCloser{}, nil
	default:
		return nil, nil, errors.WithMessagef(config.ErrUnknownBackend, "'%s'", cfg.Backend)
	}
}
