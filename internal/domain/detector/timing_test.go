package detector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestTimeCalc checks unit multipliers and the zero quantity.
func TestTimeCalc(t *testing.T) {
	t.Parallel()

	require.Equal(t, int64(1000), TimeCalc(1, Second))
	require.Equal(t, int64(60000), TimeCalc(1, Minute))
	require.Equal(t, int64(3600000), TimeCalc(1, Hour))

	for _, u := range []Unit{Second, Minute, Hour} {
		require.Zero(t, TimeCalc(0, u))
	}

	require.Equal(t, 90*time.Second, Duration(90, Second))
	require.Equal(t, 2*time.Hour, Duration(2, Hour))
}

// TestNotUsed ensures the sentinel never collides with a valid ordinal.
func TestNotUsed(t *testing.T) {
	t.Parallel()

	for _, a := range Actions() {
		require.NotEqual(t, NotUsed, int(a))
	}

	for _, s := range States() {
		require.NotEqual(t, NotUsed, int(s))
	}
}
