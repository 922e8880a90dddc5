package sampler

import "time"

// Clock supplies the monotonic time source and short blocking waits.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock uses the runtime clock.
type SystemClock struct{}

var _ Clock = SystemClock{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }
