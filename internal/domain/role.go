package domain

import (
	"time"
)

type ConnectionID uint64

type Role string

const (
	Master = Role("master")
	Slave  = Role("slave")
	Viewer = Role("viewer")
)

type ClientKind string

// OperationClient is the only kind allowed to hold or wait for the master seat.
const OperationClient = ClientKind("operation")

func (k ClientKind) CanControl() bool {
	return k == OperationClient
}

// Connection is the registry's view of a handshaken client.
type Connection struct {
	ID          ConnectionID
	Role        Role
	Kind        ClientKind
	ConnectedAt time.Time
	Outbound    Outbound
}

// Outbound accepts serialized messages for a single connection without blocking.
type Outbound interface {
	Send(data []byte) error
}
