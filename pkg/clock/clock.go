// Package clock abstracts wall-clock time so scoring is reproducible in tests.
package clock

import "time"

// Clock supplies the current instant
type Clock interface {
	Now() time.Time
}

// System reads the local wall clock
type System struct{}

// Now returns time.Now()
func (System) Now() time.Time {
	return time.Now()
}

// Fixed always returns the same instant
type Fixed time.Time

// Now returns the fixed instant
func (f Fixed) Now() time.Time {
	return time.Time(f)
}

// At builds a Fixed clock for the given local date and hour
func At(year int, month time.Month, day, hour int) Fixed {
	return Fixed(time.Date(year, month, day, hour, 0, 0, 0, time.Local))
}
