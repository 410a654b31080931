// Package clock abstracts wall time so date-dependent code can be tested.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// System returns the process wall clock.
func System() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now() }
