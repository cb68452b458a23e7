package rpc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/people-detector/internal/domain/detector"
)

// TestApplyRequest_Roundtrip ensures action labels and source survive encoding.
func TestApplyRequest_Roundtrip(t *testing.T) {
	t.Parallel()

	source := &detector.Source{
		Hostname: "hall-sensor",
		Username: "detector",
	}

	msg, err := EncodeApplyRequest(source, detector.ActionEndTime)
	require.NoError(t, err)
	require.Equal(t, "End Time", msg.GetFields()["action"].GetStringValue())

	gotSource, gotAction, err := DecodeApplyRequest(msg)
	require.NoError(t, err)
	require.Equal(t, detector.ActionEndTime, gotAction)
	require.Equal(t, source, gotSource)

	_, err = EncodeApplyRequest(source, detector.Action(detector.NotUsed))
	require.ErrorIs(t, err, detector.ErrUnknownAction)
}

// TestDecodeApplyRequest_Invalid checks nil, missing and unknown actions.
func TestDecodeApplyRequest_Invalid(t *testing.T) {
	t.Parallel()

	_, _, err := DecodeApplyRequest(nil)
	require.ErrorIs(t, err, ErrNilMessage)

	empty, err := structpb.NewStruct(map[string]any{})
	require.NoError(t, err)

	_, _, err = DecodeApplyRequest(empty)
	require.ErrorIs(t, err, ErrMissingField)

	bogus, err := structpb.NewStruct(map[string]any{"action": "Arm"})
	require.NoError(t, err)

	_, _, err = DecodeApplyRequest(bogus)
	require.ErrorIs(t, err, detector.ErrUnknownAction)

	// Source is optional at the codec level.
	noSource, err := structpb.NewStruct(map[string]any{"action": "Trigger"})
	require.NoError(t, err)

	source, action, err := DecodeApplyRequest(noSource)
	require.NoError(t, err)
	require.Nil(t, source)
	require.Equal(t, detector.ActionTrigger, action)
}

// TestSnapshot_Roundtrip ensures a snapshot is recovered from its Struct form.
func TestSnapshot_Roundtrip(t *testing.T) {
	t.Parallel()

	want := &detector.Snapshot{
		Timestamp: time.Date(2026, 1, 6, 10, 30, 0, 123, time.UTC),
		Source: &detector.Source{
			Hostname: "hall-sensor",
			Username: "detector",
		},
		State:      detector.StateRearm,
		LastAction: detector.ActionEndTime,
	}

	msg, err := EncodeSnapshot(want)
	require.NoError(t, err)
	require.Equal(t, "ReArm", msg.GetFields()["state"].GetStringValue())

	got, err := DecodeSnapshot(msg)
	require.NoError(t, err)
	require.Equal(t, want, got)

	// Zero timestamp and timer source are omitted.
	msg, err = EncodeSnapshot(&detector.Snapshot{State: detector.StateReady})
	require.NoError(t, err)
	require.NotContains(t, msg.GetFields(), "timestamp")
	require.NotContains(t, msg.GetFields(), "source")

	got, err = DecodeSnapshot(msg)
	require.NoError(t, err)
	require.True(t, got.Timestamp.IsZero())
	require.Nil(t, got.Source)
}

// TestSnapshot_Invalid checks encoding and decoding failures.
func TestSnapshot_Invalid(t *testing.T) {
	t.Parallel()

	_, err := EncodeSnapshot(nil)
	require.ErrorIs(t, err, ErrNilMessage)

	_, err = EncodeSnapshot(&detector.Snapshot{State: detector.State(detector.NotUsed)})
	require.ErrorIs(t, err, detector.ErrUnknownState)

	msg, err := structpb.NewStruct(map[string]any{"last_action": "Reset"})
	require.NoError(t, err)

	_, err = DecodeSnapshot(msg)
	require.ErrorIs(t, err, ErrMissingField)

	msg, err = structpb.NewStruct(map[string]any{"state": "Ready", "timestamp": "yesterday"})
	require.NoError(t, err)

	_, err = DecodeSnapshot(msg)
	require.Error(t, err)
}

// TestStateRequest_Roundtrip ensures the requesting source is optional.
func TestStateRequest_Roundtrip(t *testing.T) {
	t.Parallel()

	msg, err := EncodeStateRequest(nil)
	require.NoError(t, err)
	require.Nil(t, DecodeStateRequest(msg))

	source := &detector.Source{Hostname: "desk", Username: "guard"}

	msg, err = EncodeStateRequest(source)
	require.NoError(t, err)
	require.Equal(t, source, DecodeStateRequest(msg))
}
