package safety

import "time"

// Clock abstracts wall-clock time so rate-window tests can roll time forward
// deterministically instead of sleeping.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
