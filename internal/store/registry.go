// Package store holds the shared mutable state of the server: the connection registry, the master
// seat and the current scoreboard. Each structure guards itself; decisions spanning several of them
// are serialized by the coordinator.
package store

import (
	"sort"
	"sync"

	"github.com/kiryu-dev/scoreboard-sync/internal/domain"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

var ErrUnknownConnection = errors.New("unknown connection")

type Registry struct {
	counter *atomic.Uint64
	conns   map[domain.ConnectionID]*domain.Connection
	mu      *sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		counter: atomic.NewUint64(0),
		conns:   make(map[domain.ConnectionID]*domain.Connection),
		mu:      &sync.RWMutex{},
	}
}

// NextID hands out a fresh connection id. Ids start at 1 and are never reused.
func (r *Registry) NextID() domain.ConnectionID {
	return domain.ConnectionID(r.counter.Inc())
}

// Register stores conn and reports false if the id is already present.
func (r *Registry) Register(conn domain.Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[conn.ID]; ok {
		return false
	}
	r.conns[conn.ID] = &conn
	return true
}

func (r *Registry) Unregister(id domain.ConnectionID) (domain.Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[id]
	if !ok {
		return domain.Connection{}, false
	}
	delete(r.conns, id)
	return *conn, true
}

func (r *Registry) Role(id domain.ConnectionID) (domain.Role, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[id]
	if !ok {
		return "", false
	}
	return conn.Role, true
}

func (r *Registry) SetRole(id domain.ConnectionID, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[id]
	if !ok {
		return errors.WithMessagef(ErrUnknownConnection, "id %d", id)
	}
	conn.Role = role
	return nil
}

// OldestSlave returns the operation slave that connected first, skipping the excluded ids.
func (r *Registry) OldestSlave(exclude ...domain.ConnectionID) (domain.ConnectionID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var oldest *domain.Connection
	for _, conn := range r.conns {
		if conn.Role != domain.Slave || !conn.Kind.CanControl() || contains(exclude, conn.ID) {
			continue
		}
		if oldest == nil || isOlder(conn, oldest) {
			oldest = conn
		}
	}
	if oldest == nil {
		return 0, false
	}
	return oldest.ID, true
}

func isOlder(lhs, rhs *domain.Connection) bool {
	if lhs.ConnectedAt.Equal(rhs.ConnectedAt) {
		return lhs.ID < rhs.ID
	}
	return lhs.ConnectedAt.Before(rhs.ConnectedAt)
}

func contains(ids []domain.ConnectionID, id domain.ConnectionID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Send enqueues data on a single connection's outbound sink.
func (r *Registry) Send(id domain.ConnectionID, data []byte) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[id]
	if !ok {
		return errors.WithMessagef(ErrUnknownConnection, "id %d", id)
	}
	return conn.Outbound.Send(data)
}

// ForEach visits every registered connection under the read lock. fn must not block.
func (r *Registry) ForEach(fn func(conn domain.Connection)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, conn := range r.conns {
		fn(*conn)
	}
}

// Snapshot copies all connections ordered by id.
func (r *Registry) Snapshot() []domain.Connection {
	r.mu.RLock()
	out := make([]domain.Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		out = append(out, *conn)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *Registry) Counts() map[domain.Role]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := map[domain.Role]int{
		domain.Master: 0,
		domain.Slave:  0,
		domain.Viewer: 0,
	}
	for _, conn := range r.conns {
		counts[conn.Role]++
	}
	return counts
}
