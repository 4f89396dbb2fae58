package broadcast

import (
	"github.com/kiryu-dev/scoreboard-sync/internal/domain"
	"github.com/kiryu-dev/scoreboard-sync/internal/protocol"
	"github.com/kiryu-dev/scoreboard-sync/internal/store"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type useCase struct {
	registry *store.Registry
	logger   *zap.Logger
}

func New(registry *store.Registry, logger *zap.Logger) *useCase {
	return &useCase{
		registry: registry,
		logger:   logger,
	}
}

// Broadcast encodes msg once and enqueues it on every registered connection. A failing connection
// is only logged; its own disconnect path removes it from the registry.
func (u *useCase) Broadcast(msg domain.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return errors.WithMessage(err, "encode broadcast message")
	}
	var sent, failed int
	u.registry.ForEach(func(conn domain.Connection) {
		if err := conn.Outbound.Send(data); err != nil {
			failed++
			u.logger.Warn("failed to enqueue broadcast",
				zap.Uint64("client_id", uint64(conn.ID)),
				zap.String("role", string(conn.Role)),
				zap.Error(err))
			return
		}
		sent++
	})
	u.logger.Debug("broadcast message",
		zap.String("type", string(msg.MessageType())),
		zap.Int("sent", sent),
		zap.Int("failed", failed))
	return nil
}

func (u *useCase) SendTo(id domain.ConnectionID, msg domain.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return errors.WithMessage(err, "encode direct message")
	}
	if err := u.registry.Send(id, data); err != nil {
		return errors.WithMessagef(err, "send '%s' to client %d", msg.MessageType(), id)
	}
	return nil
}
