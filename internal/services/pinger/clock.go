package pinger

import "time"

type Clock interface {
	Now() time.Time
}

// SystemClock reports UTC time truncated to microseconds, the precision
// timestamps keep in storage, so durations read back are exact.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }
