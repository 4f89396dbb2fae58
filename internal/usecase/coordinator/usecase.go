package coordinator

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiryu-dev/scoreboard-sync/internal/domain"
	"github.com/kiryu-dev/scoreboard-sync/internal/store"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const DefaultGracePeriod = 5 * time.Second

// useCase owns the master seat. Every seat decision runs under mu so that checking the seat and
// claiming it happen as one step; record commits take the read side so they never interleave with
// a role change.
type useCase struct {
	store      *store.Store
	dispatcher domain.Dispatcher
	saver      domain.Saver
	grace      time.Duration
	now        func() time.Time
	newToken   func() string
	afterFunc  func(d time.Duration, f func())
	mu         *sync.RWMutex
	logger     *zap.Logger
}

type Option func(u *useCase)

func WithGracePeriod(d time.Duration) Option {
	return func(u *useCase) {
		u.grace = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(u *useCase) {
		u.now = now
	}
}

func WithTokenGenerator(fn func() string) Option {
	return func(u *useCase) {
		u.newToken = fn
	}
}

// WithScheduler replaces time.AfterFunc for the deferred grace expiry check.
func WithScheduler(fn func(d time.Duration, f func())) Option {
	return func(u *useCase) {
		u.afterFunc = fn
	}
}

func New(st *store.Store, dispatcher domain.Dispatcher, saver domain.Saver, logger *zap.Logger,
	opts ...Option) *useCase {
	u := &useCase{
		store:      st,
		dispatcher: dispatcher,
		saver:      saver,
		grace:      DefaultGracePeriod,
		now:        time.Now,
		newToken:   uuid.NewString,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
		mu:     &sync.RWMutex{},
		logger: logger,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *useCase) NextID() domain.ConnectionID {
	return u.store.Registry.NextID()
}

// Handshake registers the connection, decides its role and queues the role assignment followed by
// the current scoreboard, all before any other seat change can reach the connection.
func (u *useCase) Handshake(id domain.ConnectionID, kind domain.ClientKind, token string,
	out domain.Outbound) (domain.RoleAssignment, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.store.Registry.Role(id); ok {
		return domain.RoleAssignment{}, errors.WithMessagef(domain.ErrAlreadyJoined, "client %d", id)
	}
	now := u.now()
	u.expireGraceLocked(now)

	role := domain.Viewer
	if kind.CanControl() {
		role = u.claimSeatLocked(id, token, now)
	}
	u.store.Registry.Register(domain.Connection{
		ID:          id,
		Role:        role,
		Kind:        kind,
		ConnectedAt: now,
		Outbound:    out,
	})

	seat := u.store.Seat.State()
	var masterToken string
	if role == domain.Master {
		masterToken = seat.Token
	}
	assignment := domain.NewRoleAssignment(id, role, seat.MasterID, masterToken)
	if err := u.dispatcher.SendTo(id, assignment); err != nil {
		u.logger.Warn("failed to send role assignment", zap.Uint64("client_id", uint64(id)), zap.Error(err))
	}
	u.store.Record.Read(func(board domain.Scoreboard, ok bool) {
		if !ok {
			return
		}
		if err := u.dispatcher.SendTo(id, domain.NewGameState(board)); err != nil {
			u.logger.Warn("failed to send current state", zap.Uint64("client_id", uint64(id)), zap.Error(err))
		}
	})
	u.logger.Info("client assigned role",
		zap.Uint64("client_id", uint64(id)),
		zap.String("kind", string(kind)),
		zap.String("role", string(role)))
	return assignment, nil
}

func (u *useCase) claimSeatLocked(id domain.ConnectionID, token string, now time.Time) domain.Role {
	seat := u.store.Seat.State()
	switch {
	case seat.MasterID != nil:
		return domain.Slave
	case seat.Grace != nil:
		if !u.store.Seat.TryConsumeGrace(token, now) {
			return domain.Slave
		}
		u.store.Seat.Hold(id, token)
		u.logger.Info("restored master within grace period", zap.Uint64("client_id", uint64(id)))
		return domain.Master
	default:
		u.store.Seat.Hold(id, u.newToken())
		return domain.Master
	}
}

// Release gives up the seat voluntarily. The releasing client becomes a slave and sits out the
// promotion that follows. It reports false when id was not the master.
func (u *useCase) Release(id domain.ConnectionID) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.store.Seat.IsMaster(id) {
		u.logger.Warn("release requested by a client that is not master", zap.Uint64("client_id", uint64(id)))
		return false
	}
	u.logger.Info("client releasing master authority", zap.Uint64("client_id", uint64(id)))
	u.store.Seat.Vacate()
	if err := u.store.Registry.SetRole(id, domain.Slave); err != nil {
		u.logger.Warn("failed to demote releasing client", zap.Error(err))
	}
	opts := []domain.RoleChangedOption{domain.ClearToken()}
	if successor, ok := u.promoteLocked(id); ok {
		opts = append(opts, domain.WithMasterClient(successor))
	}
	if err := u.dispatcher.SendTo(id, domain.NewRoleChanged(id, domain.Slave, opts...)); err != nil {
		u.logger.Warn("failed to notify releasing client", zap.Uint64("client_id", uint64(id)), zap.Error(err))
	}
	return true
}

// Disconnect removes the connection. A departing master leaves a grace period behind and a single
// deferred check that promotes a successor if nobody redeems the token in time.
func (u *useCase) Disconnect(id domain.ConnectionID) {
	u.mu.Lock()
	defer u.mu.Unlock()
	conn, ok := u.store.Registry.Unregister(id)
	if !ok {
		return
	}
	u.logger.Info("client disconnected", zap.Uint64("client_id", uint64(id)), zap.String("role", string(conn.Role)))
	if !u.store.Seat.IsMaster(id) {
		return
	}
	grace := domain.GracePeriod{
		Token:     u.store.Seat.State().Token,
		ExpiresAt: u.now().Add(u.grace),
	}
	u.store.Seat.InstallGrace(grace.Token, grace.ExpiresAt)
	u.logger.Info("master disconnected, grace period started",
		zap.Uint64("client_id", uint64(id)),
		zap.Time("expires_at", grace.ExpiresAt))
	u.afterFunc(u.grace, func() {
		u.expireGrace(grace)
	})
}

// expireGrace is the deferred check. It does nothing unless the very grace period it was
// scheduled for is still installed.
func (u *useCase) expireGrace(grace domain.GracePeriod) {
	u.mu.Lock()
	defer u.mu.Unlock()
	current := u.store.Seat.State().Grace
	if current == nil || current.Token != grace.Token || !current.ExpiresAt.Equal(grace.ExpiresAt) {
		u.logger.Debug("grace period already settled")
		return
	}
	u.logger.Info("grace period expired, promoting next slave")
	u.store.Seat.ClearGrace()
	u.promoteLocked()
}

func (u *useCase) expireGraceLocked(now time.Time) {
	grace := u.store.Seat.State().Grace
	if grace == nil || now.Before(grace.ExpiresAt) {
		return
	}
	u.logger.Info("grace period expired before its check ran, promoting next slave")
	u.store.Seat.ClearGrace()
	u.promoteLocked()
}

// promoteLocked hands the vacant seat to the longest connected slave. A failed notification is
// only logged: the promoted client's own disconnect will start a new grace period.
func (u *useCase) promoteLocked(exclude ...domain.ConnectionID) (domain.ConnectionID, bool) {
	id, ok := u.store.Registry.OldestSlave(exclude...)
	if !ok {
		u.logger.Info("no slaves available for promotion")
		return 0, false
	}
	token := u.newToken()
	if err := u.store.Registry.SetRole(id, domain.Master); err != nil {
		u.logger.Warn("failed to promote slave", zap.Error(err))
		return 0, false
	}
	u.store.Seat.Hold(id, token)
	u.logger.Info("promoted slave to master", zap.Uint64("client_id", uint64(id)))
	msg := domain.NewRoleChanged(id, domain.Master, domain.WithMasterClient(id), domain.WithMasterToken(token))
	if err := u.dispatcher.SendTo(id, msg); err != nil {
		u.logger.Warn("failed to notify promoted client", zap.Uint64("client_id", uint64(id)), zap.Error(err))
	}
	return id, true
}

// SubmitRecord commits board and broadcasts it when id holds the seat.
func (u *useCase) SubmitRecord(id domain.ConnectionID, board domain.Scoreboard) error {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if !u.store.Seat.IsMaster(id) {
		return errors.WithMessagef(domain.ErrUnauthorizedWrite, "client %d", id)
	}
	u.store.Record.Commit(board, func(board domain.Scoreboard) {
		if err := u.dispatcher.Broadcast(domain.NewGameState(board)); err != nil {
			u.logger.Error("failed to broadcast state", zap.Error(err))
		}
	})
	u.saver.Enqueue(board)
	return nil
}

func (u *useCase) Status() domain.Status {
	u.mu.RLock()
	defer u.mu.RUnlock()
	_, hasRecord := u.store.Record.Current()
	return domain.Status{
		Seat:        u.store.Seat.State(),
		Clients:     u.store.Registry.Counts(),
		Connections: u.store.Registry.Snapshot(),
		HasRecord:   hasRecord,
	}
}
