package domain

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrUnauthorizedWrite = errors.New("client is not the master")
	ErrAlreadyJoined     = errors.New("client has already completed the handshake")
)

type HubUseCase interface {
	Handle(ctx context.Context, client Client) error
}

type SeatStatus string

const (
	SeatVacant    = SeatStatus("vacant")
	SeatHeld      = SeatStatus("held")
	SeatGraceWait = SeatStatus("grace_wait")
)

type GracePeriod struct {
	Token     string
	ExpiresAt time.Time
}

// SeatState is a point-in-time copy of the master seat.
type SeatState struct {
	MasterID *ConnectionID
	Token    string
	Grace    *GracePeriod
}

func (s SeatState) Status() SeatStatus {
	switch {
	case s.MasterID != nil:
		return SeatHeld
	case s.Grace != nil:
		return SeatGraceWait
	default:
		return SeatVacant
	}
}

type CoordinatorUseCase interface {
	NextID() ConnectionID
	Handshake(id ConnectionID, kind ClientKind, token string, out Outbound) (RoleAssignment, error)
	Release(id ConnectionID) bool
	Disconnect(id ConnectionID)
	SubmitRecord(id ConnectionID, board Scoreboard) error
	Status() Status
}

// Status summarizes the coordinator for health reporting.
type Status struct {
	Seat        SeatState
	Clients     map[Role]int
	Connections []Connection
	HasRecord   bool
}

type Dispatcher interface {
	Broadcast(msg Message) error
	SendTo(id ConnectionID, msg Message) error
}

type ConnectionInfo struct {
	ID          ConnectionID `json:"clientId"`
	Role        Role         `json:"role"`
	Kind        ClientKind   `json:"clientType"`
	ConnectedAt time.Time    `json:"connectedAt"`
}

type HealthCheckResponse struct {
	MasterClientID *ConnectionID    `json:"masterClientId"`
	Seat           SeatStatus       `json:"seat"`
	GraceExpiresAt *time.Time       `json:"graceExpiresAt"`
	Clients        map[Role]int     `json:"clients"`
	Connections    []ConnectionInfo `json:"connections"`
	HasRecord      bool             `json:"hasRecord"`
	Persistence    PersistenceStats `json:"persistence"`
}

func NewHealthCheckResponse(status Status, persistence PersistenceStats) HealthCheckResponse {
	resp := HealthCheckResponse{
		MasterClientID: status.Seat.MasterID,
		Seat:           status.Seat.Status(),
		Clients:        status.Clients,
		Connections:    make([]ConnectionInfo, 0, len(status.Connections)),
		HasRecord:      status.HasRecord,
		Persistence:    persistence,
	}
	for _, conn := range status.Connections {
		resp.Connections = append(resp.Connections, ConnectionInfo{
			ID:          conn.ID,
			Role:        conn.Role,
			Kind:        conn.Kind,
			ConnectedAt: conn.ConnectedAt,
		})
	}
	if status.Seat.Grace != nil {
		expiresAt := status.Seat.Grace.ExpiresAt
		resp.GraceExpiresAt = &expiresAt
	}
	return resp
}
