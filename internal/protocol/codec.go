// Package protocol converts wire messages to and from their JSON text form. Every message is a
// flat object carrying a "type" discriminator next to its fields.
package protocol

import (
	"bytes"
	"reflect"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/kiryu-dev/scoreboard-sync/internal/domain"
	"github.com/kiryu-dev/scoreboard-sync/pkg/utils"
	"github.com/pkg/errors"
)

var (
	ErrMalformedMessage   = errors.New("malformed message")
	ErrUnknownMessageType = errors.New("unknown message type")
)

type envelope struct {
	Type domain.MessageType `json:"type"`
}

type fields map[string]jsoniter.RawMessage

// boardFields lists every scoreboard key; an inbound record must carry all of them.
var boardFields = jsonFields(reflect.TypeOf(domain.Scoreboard{}))

func jsonFields(t reflect.Type) []string {
	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			names = append(names, name)
		}
	}
	return names
}

// Encode serializes msg, stamping the type discriminator regardless of what the caller set.
func Encode(msg domain.Message) ([]byte, error) {
	var v any
	switch m := msg.(type) {
	case domain.Handshake:
		m.Type = domain.HandshakeType
		v = m
	case domain.RoleAssignment:
		m.Type = domain.RoleAssignmentType
		v = m
	case domain.RoleChanged:
		m.Type = domain.RoleChangedType
		v = m
	case domain.GameStateUpdate:
		m.Type = domain.GameStateUpdateType
		v = m
	case domain.GameState:
		m.Type = domain.GameStateType
		v = m
	case domain.ReleaseMaster:
		m.Type = domain.ReleaseMasterType
		v = m
	default:
		return nil, errors.WithMessagef(ErrUnknownMessageType, "%T", msg)
	}
	data, err := utils.MarshalJson(v)
	if err != nil {
		return nil, errors.WithMessagef(err, "encode '%s' message", msg.MessageType())
	}
	return data, nil
}

func Decode(data []byte) (domain.Message, error) {
	env, err := utils.UnmarshalJson[envelope](data)
	if err != nil {
		return nil, errors.WithMessage(ErrMalformedMessage, err.Error())
	}
	switch env.Type {
	case domain.HandshakeType:
		return decodeAs[domain.Handshake](data, requireFields("clientType"))
	case domain.RoleAssignmentType:
		return decodeAs[domain.RoleAssignment](data)
	case domain.RoleChangedType:
		return decodeAs[domain.RoleChanged](data)
	case domain.GameStateUpdateType:
		return decodeAs[domain.GameStateUpdate](data, requireBoard)
	case domain.GameStateType:
		return decodeAs[domain.GameState](data, requireBoard)
	case domain.ReleaseMasterType:
		return domain.NewReleaseMaster(), nil
	case "":
		return nil, errors.WithMessage(ErrMalformedMessage, "missing 'type' field")
	default:
		return nil, errors.WithMessagef(ErrUnknownMessageType, "'%s'", env.Type)
	}
}

func decodeAs[T domain.Message](data []byte, checks ...func(data []byte) error) (domain.Message, error) {
	for _, check := range checks {
		if err := check(data); err != nil {
			return nil, err
		}
	}
	msg, err := utils.UnmarshalJson[T](data)
	if err != nil {
		return nil, errors.WithMessage(ErrMalformedMessage, err.Error())
	}
	return msg, nil
}

func requireFields(keys ...string) func(data []byte) error {
	return func(data []byte) error {
		obj, err := utils.UnmarshalJson[fields](data)
		if err != nil {
			return errors.WithMessage(ErrMalformedMessage, err.Error())
		}
		return obj.require(keys...)
	}
}

// requireBoard rejects a record that is missing, null or partial.
func requireBoard(data []byte) error {
	obj, err := utils.UnmarshalJson[fields](data)
	if err != nil {
		return errors.WithMessage(ErrMalformedMessage, err.Error())
	}
	if err := obj.require("boardData"); err != nil {
		return err
	}
	board, err := utils.UnmarshalJson[fields](obj["boardData"])
	if err != nil {
		return errors.WithMessage(ErrMalformedMessage, "'boardData' is not an object")
	}
	return errors.WithMessage(board.require(boardFields...), "boardData")
}

func (f fields) require(keys ...string) error {
	for _, key := range keys {
		v, ok := f[key]
		v = bytes.TrimSpace(v)
		if !ok || len(v) == 0 || bytes.Equal(v, []byte("null")) {
			return errors.WithMessagef(ErrMalformedMessage, "missing '%s' field", key)
		}
	}
	return nil
}
