package ws

import (
	"net/http"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/kiryu-dev/scoreboard-sync/internal/domain"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func (s *server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error(err.Error())
		return
	}
	s.logger.Info("new connection", zap.String("remote_addr", r.RemoteAddr))
	client := newClient(conn, s.queueSize)
	client.keepAlive()
	errGroup, ctx := errgroup.WithContext(s.ctx)
	errGroup.Go(func() error {
		defer client.Close()
		return s.hub.Handle(ctx, client)
	})
	errGroup.Go(func() error {
		return client.writePump(ctx)
	})
	if err := errGroup.Wait(); err != nil {
		s.logger.Warn("connection closed with error", zap.Error(err))
	}
}

func (s *server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	resp := domain.NewHealthCheckResponse(s.coordinator.Status(), s.stats.Stats())
	w.Header().Set("Content-Type", "application/json")
	if err := jsoniter.NewEncoder(w).Encode(resp); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		s.logger.Warn(err.Error())
	}
}

func (s *server) initData(w http.ResponseWriter, _ *http.Request) {
	data, err := os.ReadFile(s.cfg.InitDataPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		http.Error(w, "init data not found", http.StatusNotFound)
		return
	case err != nil:
		s.logger.Error("failed to read init data", zap.Error(err))
		http.Error(w, "failed to read init data", http.StatusInternalServerError)
		return
	}
	if !jsoniter.Valid(data) {
		s.logger.Error("init data is not valid json", zap.String("path", s.cfg.InitDataPath))
		http.Error(w, "init data is not valid json", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}
