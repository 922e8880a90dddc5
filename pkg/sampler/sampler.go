// Package sampler polls power-gated voltage-divider sensors and normalizes
// their readings to fractions of ADC full scale. It builds for both the
// regular Go toolchain and TinyGo; board specific pins are plugged in through
// the AnalogIn, PowerPin and Clock interfaces.
package sampler

import "time"

const (
	// DefaultSettle is the wait after energizing a divider before the first read.
	DefaultSettle = 100 * time.Microsecond
	// DefaultWindow is the per-channel sampling window used by the acquisition loop.
	DefaultWindow = 3 * time.Millisecond
)

// AnalogIn is a sense input returning raw readings in [0, ADCMax].
type AnalogIn interface {
	Configure()
	Get() uint16
}

// PowerPin switches a divider between driven-high and high-impedance input.
type PowerPin interface {
	Drive()
	Release()
}

// Channel pairs a sense input with the pin that powers its divider.
type Channel struct {
	Sense AnalogIn
	Power PowerPin
}

// Calibration describes the divider hardware. Only Resolution takes part in
// normalization; RRef and VRef document the expected reference resistor and
// reference voltage.
type Calibration struct {
	Resolution uint8   // ADC resolution in bits
	RRef       uint32  // Reference resistor (ohm)
	VRef       float32 // Reference voltage (V)
}

// DefaultCalibration returns the constants of the reference sensor board.
func DefaultCalibration() Calibration {
	return Calibration{
		Resolution: 12,
		RRef:       606000,
		VRef:       3.268,
	}
}

// ADCMax returns the full-scale raw value for the configured resolution.
func (c Calibration) ADCMax() uint16 {
	return uint16(uint32(1)<<c.Resolution - 1)
}

// Option customizes a Sampler.
type Option func(*Sampler)

// WithSettle overrides the settle delay.
func WithSettle(d time.Duration) Option {
	return func(s *Sampler) {
		s.settle = d
	}
}

// Sampler reads channels one at a time. It is not safe for concurrent use.
type Sampler struct {
	channels []Channel
	cal      Calibration
	clock    Clock
	settle   time.Duration
	scale    float32
}

// New creates a sampler over a fixed, ordered channel set.
func New(channels []Channel, cal Calibration, clock Clock, opts ...Option) *Sampler {
	if clock == nil {
		clock = SystemClock{}
	}
	s := &Sampler{
		channels: channels,
		cal:      cal,
		clock:    clock,
		settle:   DefaultSettle,
		scale:    1.0 / float32(cal.ADCMax()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configure puts every sense pin in input mode and every power pin in its
// non-driving state.
func (s *Sampler) Configure() {
	for _, ch := range s.channels {
		ch.Sense.Configure()
		ch.Power.Release()
	}
}

// Len returns the number of channels.
func (s *Sampler) Len() int {
	return len(s.channels)
}

// Calibration returns the calibration the sampler was built with.
func (s *Sampler) Calibration() Calibration {
	return s.cal
}

// Sample energizes channel id, averages its raw readings over window and
// returns the average as a fraction of ADC full scale. At least one reading is
// always taken. Sample panics if id is out of range.
func (s *Sampler) Sample(id int, window time.Duration) float32 {
	ch := s.channels[id]
	start := s.clock.Now()

	ch.Power.Drive()
	s.clock.Sleep(s.settle)

	var (
		sum uint64
		cnt uint32
	)
	for {
		sum += uint64(ch.Sense.Get())
		cnt++
		if s.clock.Now().Sub(start) >= window {
			break
		}
	}

	ch.Power.Release()

	return float32(sum) / float32(cnt) * s.scale
}
