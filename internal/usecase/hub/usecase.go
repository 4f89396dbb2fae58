package hub

import (
	"context"

	"github.com/kiryu-dev/scoreboard-sync/internal/domain"
	"github.com/kiryu-dev/scoreboard-sync/internal/protocol"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type useCase struct {
	coordinator domain.CoordinatorUseCase
	logger      *zap.Logger
}

func New(coordinator domain.CoordinatorUseCase, logger *zap.Logger) *useCase {
	return &useCase{
		coordinator: coordinator,
		logger:      logger,
	}
}

// Handle runs the inbound side of one connection until the client goes away. Messages are processed
// in arrival order; bad payloads are logged and skipped.
func (u *useCase) Handle(ctx context.Context, client domain.Client) error {
	id := u.coordinator.NextID()
	logger := u.logger.With(zap.Uint64("client_id", uint64(id)))
	logger.Info("new connection")
	defer u.coordinator.Disconnect(id)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		data, err := client.ReadMessage()
		switch {
		case errors.Is(err, domain.ErrConnectionClosed):
			return nil
		case err != nil:
			return errors.WithMessage(err, "read message")
		}
		msg, err := protocol.Decode(data)
		if err != nil {
			logger.Warn("failed to decode message", zap.Error(err), zap.ByteString("payload", data))
			continue
		}
		u.dispatch(logger, id, client, msg)
	}
}

func (u *useCase) dispatch(logger *zap.Logger, id domain.ConnectionID, client domain.Client, msg domain.Message) {
	switch m := msg.(type) {
	case domain.Handshake:
		var token string
		if m.MasterToken != nil {
			token = *m.MasterToken
		}
		if _, err := u.coordinator.Handshake(id, m.ClientKind, token, client); err != nil {
			logger.Warn("handshake rejected", zap.Error(err))
		}
	case domain.GameStateUpdate:
		err := u.coordinator.SubmitRecord(id, m.BoardData)
		switch {
		case errors.Is(err, domain.ErrUnauthorizedWrite):
			logger.Warn("attempted to update game state but is not master")
		case err != nil:
			logger.Error("failed to update game state", zap.Error(err))
		default:
			logger.Info("game state updated")
		}
	case domain.ReleaseMaster:
		u.coordinator.Release(id)
	default:
		logger.Warn("unexpected message type", zap.String("type", string(msg.MessageType())))
	}
}
