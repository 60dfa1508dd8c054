package service

import "time"

// Clock returns the current instant. Services call it once per operation.
type Clock func() time.Time

// SystemClock is the wall clock in UTC at millisecond resolution, the
// resolution every stored timestamp is kept at.
func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
