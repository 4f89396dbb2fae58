package domain

import (
	"github.com/pkg/errors"
)

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrOutboundFull     = errors.New("outbound queue is full")
)

type MessageType string

const (
	HandshakeType       = MessageType("handshake")
	RoleAssignmentType  = MessageType("role_assignment")
	RoleChangedType     = MessageType("role_changed")
	GameStateUpdateType = MessageType("game_state_update")
	GameStateType       = MessageType("game_state")
	ReleaseMasterType   = MessageType("release_master")
)

// Message is one variant of the wire protocol, discriminated by its "type" field.
type Message interface {
	MessageType() MessageType
}

type Handshake struct {
	Type        MessageType `json:"type"`
	ClientKind  ClientKind  `json:"clientType"`
	MasterToken *string     `json:"masterToken"`
}

type RoleAssignment struct {
	Type           MessageType   `json:"type"`
	Role           Role          `json:"role"`
	ClientID       ConnectionID  `json:"clientId"`
	MasterClientID *ConnectionID `json:"masterClientId"`
	MasterToken    *string       `json:"masterToken"`
}

type RoleChanged struct {
	Type           MessageType   `json:"type"`
	NewRole        Role          `json:"newRole"`
	ClientID       ConnectionID  `json:"clientId"`
	MasterClientID *ConnectionID `json:"masterClientId"`
	MasterToken    *string       `json:"masterToken"`
	ClearToken     *bool         `json:"clearToken"`
}

type GameStateUpdate struct {
	Type      MessageType `json:"type"`
	BoardData Scoreboard  `json:"boardData"`
}

type GameState struct {
	Type      MessageType `json:"type"`
	BoardData Scoreboard  `json:"boardData"`
}

type ReleaseMaster struct {
	Type MessageType `json:"type"`
}

func (Handshake) MessageType() MessageType       { return HandshakeType }
func (RoleAssignment) MessageType() MessageType  { return RoleAssignmentType }
func (RoleChanged) MessageType() MessageType     { return RoleChangedType }
func (GameStateUpdate) MessageType() MessageType { return GameStateUpdateType }
func (GameState) MessageType() MessageType       { return GameStateType }
func (ReleaseMaster) MessageType() MessageType   { return ReleaseMasterType }

func NewHandshake(kind ClientKind, token string) Handshake {
	msg := Handshake{Type: HandshakeType, ClientKind: kind}
	if token != "" {
		msg.MasterToken = &token
	}
	return msg
}

func NewRoleAssignment(id ConnectionID, role Role, master *ConnectionID, token string) RoleAssignment {
	msg := RoleAssignment{
		Type:           RoleAssignmentType,
		Role:           role,
		ClientID:       id,
		MasterClientID: master,
	}
	if token != "" {
		msg.MasterToken = &token
	}
	return msg
}

type RoleChangedOption func(m *RoleChanged)

func WithMasterToken(token string) RoleChangedOption {
	return func(m *RoleChanged) {
		m.MasterToken = &token
	}
}

func WithMasterClient(id ConnectionID) RoleChangedOption {
	return func(m *RoleChanged) {
		m.MasterClientID = &id
	}
}

func ClearToken() RoleChangedOption {
	return func(m *RoleChanged) {
		v := true
		m.ClearToken = &v
	}
}

func NewRoleChanged(id ConnectionID, role Role, opts ...RoleChangedOption) RoleChanged {
	msg := RoleChanged{
		Type:     RoleChangedType,
		NewRole:  role,
		ClientID: id,
	}
	for _, opt := range opts {
		opt(&msg)
	}
	return msg
}

func NewGameStateUpdate(board Scoreboard) GameStateUpdate {
	return GameStateUpdate{Type: GameStateUpdateType, BoardData: board}
}

func NewGameState(board Scoreboard) GameState {
	return GameState{Type: GameStateType, BoardData: board}
}

func NewReleaseMaster() ReleaseMaster {
	return ReleaseMaster{Type: ReleaseMasterType}
}

// Client is a transport connection as seen by the hub.
type Client interface {
	Outbound
	ReadMessage() ([]byte, error)
}
