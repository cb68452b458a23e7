package rpc

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/people-detector/internal/domain/detector"
)

// Struct field names.
const (
	fieldAction     = "action"
	fieldSource     = "source"
	fieldHostname   = "hostname"
	fieldUsername   = "username"
	fieldState      = "state"
	fieldLastAction = "last_action"
	fieldTimestamp  = "timestamp"
)

var (
	// ErrMissingField is returned when a required field is absent.
	ErrMissingField = errors.New("missing field")
	// ErrNilMessage is returned when decoding a nil message.
	ErrNilMessage = errors.New("message is nil")
)

// EncodeApplyRequest builds an ApplyAction request.
func EncodeApplyRequest(source *detector.Source, action detector.Action) (*structpb.Struct, error) {
	if !action.IsValid() {
		return nil, fmt.Errorf("%w: %d", detector.ErrUnknownAction, int(action))
	}

	fields := map[string]any{
		fieldAction: action.String(),
	}

	if source != nil {
		fields[fieldSource] = encodeSource(source)
	}

	return structpb.NewStruct(fields)
}

// DecodeApplyRequest extracts the source and action of an ApplyAction request.
// The source is nil when the request carries none.
func DecodeApplyRequest(msg *structpb.Struct) (*detector.Source, detector.Action, error) {
	if msg == nil {
		return nil, detector.ActionNone, ErrNilMessage
	}

	value, ok := msg.GetFields()[fieldAction]
	if !ok {
		return nil, detector.ActionNone, fmt.Errorf("%w: %s", ErrMissingField, fieldAction)
	}

	action, err := detector.ParseAction(value.GetStringValue())
	if err != nil {
		return nil, detector.ActionNone, err
	}

	return decodeSource(msg), action, nil
}

// EncodeStateRequest builds a GetState request.
func EncodeStateRequest(source *detector.Source) (*structpb.Struct, error) {
	fields := make(map[string]any, 1)
	if source != nil {
		fields[fieldSource] = encodeSource(source)
	}

	return structpb.NewStruct(fields)
}

// DecodeStateRequest extracts the requesting source of a GetState request.
func DecodeStateRequest(msg *structpb.Struct) *detector.Source {
	return decodeSource(msg)
}

// EncodeSnapshot converts a snapshot into its Struct form.
func EncodeSnapshot(snapshot *detector.Snapshot) (*structpb.Struct, error) {
	if snapshot == nil {
		return nil, ErrNilMessage
	}

	if !snapshot.State.IsValid() {
		return nil, fmt.Errorf("%w: %d", detector.ErrUnknownState, int(snapshot.State))
	}

	if !snapshot.LastAction.IsValid() {
		return nil, fmt.Errorf("%w: %d", detector.ErrUnknownAction, int(snapshot.LastAction))
	}

	fields := map[string]any{
		fieldState:      snapshot.State.String(),
		fieldLastAction: snapshot.LastAction.String(),
	}

	if !snapshot.Timestamp.IsZero() {
		fields[fieldTimestamp] = snapshot.Timestamp.UTC().Format(time.RFC3339Nano)
	}

	if snapshot.Source != nil {
		fields[fieldSource] = encodeSource(snapshot.Source)
	}

	return structpb.NewStruct(fields)
}

// DecodeSnapshot converts the Struct form back into a snapshot.
func DecodeSnapshot(msg *structpb.Struct) (*detector.Snapshot, error) {
	if msg == nil {
		return nil, ErrNilMessage
	}

	fields := msg.GetFields()

	stateValue, ok := fields[fieldState]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, fieldState)
	}

	state, err := detector.ParseState(stateValue.GetStringValue())
	if err != nil {
		return nil, err
	}

	lastAction := detector.ActionNone
	if v, ok := fields[fieldLastAction]; ok {
		if lastAction, err = detector.ParseAction(v.GetStringValue()); err != nil {
			return nil, err
		}
	}

	var timestamp time.Time
	if v, ok := fields[fieldTimestamp]; ok {
		if timestamp, err = time.Parse(time.RFC3339Nano, v.GetStringValue()); err != nil {
			return nil, fmt.Errorf("parse %s: %w", fieldTimestamp, err)
		}
	}

	return &detector.Snapshot{
		Timestamp:  timestamp,
		Source:     decodeSource(msg),
		State:      state,
		LastAction: lastAction,
	}, nil
}

// encodeSource converts a source into a nested Struct map.
func encodeSource(source *detector.Source) map[string]any {
	return map[string]any{
		fieldHostname: source.Hostname,
		fieldUsername: source.Username,
	}
}

// decodeSource reads the nested source of msg, nil when absent.
func decodeSource(msg *structpb.Struct) *detector.Source {
	value, ok := msg.GetFields()[fieldSource]
	if !ok {
		return nil
	}

	nested := value.GetStructValue()
	if nested == nil {
		return nil
	}

	return &detector.Source{
		Hostname: nested.GetFields()[fieldHostname].GetStringValue(),
		Username: nested.GetFields()[fieldUsername].GetStringValue(),
	}
}
