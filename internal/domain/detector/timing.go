package detector

import "time"

// NotUsed marks an absent value, such as an unset action or an unwired pin.
// It never equals a valid Action or State ordinal.
const NotUsed = -1

// Unit is a time multiplier on a millisecond base.
type Unit int64

const (
	// Second is one second in milliseconds.
	Second Unit = 1000
	// Minute is one minute in milliseconds.
	Minute = 60 * Second
	// Hour is one hour in milliseconds.
	Hour = 60 * Minute
)

// TimeCalc converts quantity units into milliseconds.
func TimeCalc(quantity int64, unit Unit) int64 {
	return quantity * int64(unit)
}

// Duration converts quantity units into a time.Duration.
func Duration(quantity int64, unit Unit) time.Duration {
	return time.Duration(TimeCalc(quantity, unit)) * time.Millisecond
}
