package detector

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestActionLabels verifies every action maps to its fixed label and labels are unique.
func TestActionLabels(t *testing.T) {
	t.Parallel()

	want := map[Action]string{
		ActionNone:    "None",
		ActionTrigger: "Trigger",
		ActionEndTime: "End Time",
		ActionReset:   "Reset",
	}

	seen := make(map[string]Action)

	for _, a := range Actions() {
		require.Equal(t, want[a], a.String())

		_, dup := seen[a.String()]
		require.False(t, dup, "duplicate label %q", a.String())

		seen[a.String()] = a
	}

	require.Len(t, seen, len(want))
	require.Equal(t, "Unknown", Action(42).String())
}

// TestActionOrdinals ensures ordinal order is stable and matches Actions.
func TestActionOrdinals(t *testing.T) {
	t.Parallel()

	for i, a := range Actions() {
		require.Equal(t, i, int(a))
		require.True(t, a.IsValid())
	}

	require.False(t, Action(NotUsed).IsValid())
	require.False(t, Action(len(Actions())).IsValid())
}

// TestParseAction_Roundtrip checks label lookup and its inverse recover the original value.
func TestParseAction_Roundtrip(t *testing.T) {
	t.Parallel()

	for _, a := range Actions() {
		got, err := ParseAction(a.String())
		require.NoError(t, err)
		require.Equal(t, a, got)
	}

	for _, s := range []string{"end_time", "END-TIME", " endtime ", "End Time"} {
		got, err := ParseAction(s)
		require.NoError(t, err)
		require.Equal(t, ActionEndTime, got)
	}

	_, err := ParseAction("fire")
	require.ErrorIs(t, err, ErrUnknownAction)
}

// TestActionText verifies text marshaling uses labels and rejects values outside the set.
func TestActionText(t *testing.T) {
	t.Parallel()

	text, err := ActionEndTime.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "End Time", string(text))

	var a Action

	require.NoError(t, a.UnmarshalText([]byte("reset")))
	require.Equal(t, ActionReset, a)

	require.Error(t, a.UnmarshalText([]byte("bogus")))
	require.Equal(t, ActionReset, a)

	_, err = Action(NotUsed).MarshalText()
	require.ErrorIs(t, err, ErrUnknownAction)
}
