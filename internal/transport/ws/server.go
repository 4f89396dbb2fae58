package ws

import (
	"context"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/kiryu-dev/scoreboard-sync/internal/config"
	"github.com/kiryu-dev/scoreboard-sync/internal/domain"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type server struct {
	srv         *http.Server
	router      *mux.Router
	cfg         config.ServerConfig
	queueSize   int
	hub         domain.HubUseCase
	coordinator domain.CoordinatorUseCase
	stats       domain.StatsProvider
	upgrader    websocket.Upgrader
	ctx         context.Context
	cancel      context.CancelFunc
	logger      *zap.Logger
}

func New(
	cfg config.ServerConfig,
	queueSize int,
	hub domain.HubUseCase,
	coordinator domain.CoordinatorUseCase,
	stats domain.StatsProvider,
	logger *zap.Logger,
) *server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &server{
		router:      mux.NewRouter(),
		cfg:         cfg,
		queueSize:   queueSize,
		hub:         hub,
		coordinator: coordinator,
		stats:       stats,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
	s.initRoutes()
	s.srv = &http.Server{Addr: cfg.Addr, Handler: s.router}
	return s
}

func (s *server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until ctx is done or the listener fails, then shuts the server down.
func (s *server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		s.logger.Info("starting listening address: " + s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	select {
	case err := <-errCh:
		s.cancel()
		if err != nil {
			return errors.WithMessage(err, "listen and serve")
		}
		return nil
	case <-ctx.Done():
	}
	return s.Shutdown()
}

// Shutdown stops accepting requests and tells every open websocket to close.
func (s *server) Shutdown() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		return errors.WithMessage(err, "shutdown http server")
	}
	return nil
}

func (s *server) initRoutes() {
	s.router.HandleFunc(s.cfg.WSPath, s.serveWs)
	s.router.HandleFunc("/health", s.healthCheck).Methods(http.MethodGet)
	s.router.HandleFunc("/init_data.json", s.initData).Methods(http.MethodGet)
	if info, err := os.Stat(s.cfg.PublicDir); err == nil && info.IsDir() {
		s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.cfg.PublicDir)))
	} else {
		s.logger.Warn("static files are not served", zap.String("public_dir", s.cfg.PublicDir))
	}
}
