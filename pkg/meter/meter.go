package meter

import (
	"sync"
	"time"

	"github.com/itohio/spacer/pkg/config"
	"github.com/itohio/spacer/pkg/sample"
)

var _ PressMeter = (*Meter)(nil)

// Press represents a detected press on one channel.
type Press struct {
	ID      uint64
	Channel int
	Start   time.Time // First sample above threshold
	End     time.Time // Last sample above threshold (updated while held)
	Peak    float64   // Highest level seen during the press
	Active  bool      // Still held
}

// Duration returns how long the press has lasted.
func (p Press) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

// PressMeter processes samples, maintains a time window and detects presses.
type PressMeter interface {
	ProcessSamples(input <-chan sample.Sample)
	Samples() []sample.Sample                                 // Current window, oldest first
	Presses() []Press                                         // Presses overlapping the window
	OnUpdate(func(samples []sample.Sample, presses []Press)) // Register callback for updates
}

// tracker follows the press state of a single channel.
type tracker struct {
	holding bool
	press   Press
	index   int // position in Meter.presses, -1 until the press is confirmed
}

// Meter implements PressMeter.
// Samples are kept in a FIFO ordered first to last and trimmed by timestamp.
// A channel is pressed while its level exceeds the threshold; a press is
// reported once it has lasted at least the minimum press duration.
type Meter struct {
	cfg *config.Config

	samples  []sample.Sample
	presses  []Press
	trackers []tracker
	nextID   uint64

	mu sync.RWMutex

	callbacks []func(samples []sample.Sample, presses []Press)
	cbMu      sync.RWMutex

	windowDuration   time.Duration
	threshold        float64
	minPressDuration time.Duration

	// Set when the input channel closes, prevents further callbacks
	shutdown bool
}

// New creates a new Meter.
func New(cfg *config.Config) *Meter {
	return &Meter{
		cfg:              cfg,
		samples:          make([]sample.Sample, 0),
		presses:          make([]Press, 0),
		windowDuration:   time.Duration(cfg.Measurement.WindowSeconds * float64(time.Second)),
		threshold:        cfg.Measurement.PressThreshold,
		minPressDuration: time.Duration(cfg.Measurement.MinPressDuration * float64(time.Second)),
	}
}

// ProcessSamples consumes samples until input closes, then stops notifying callbacks.
func (m *Meter) ProcessSamples(input <-chan sample.Sample) {
	for s := range input {
		m.processSample(s)
	}
	m.mu.Lock()
	m.shutdown = true
	m.mu.Unlock()
}

// processSample appends a sample, trims the window and updates presses.
func (m *Meter) processSample(s sample.Sample) {
	m.mu.Lock()

	m.samples = append(m.samples, s)
	m.trim(s.Timestamp.Add(-m.windowDuration))
	m.updatePresses(s)

	shouldNotify := !m.shutdown
	m.mu.Unlock()

	if shouldNotify {
		m.notifyCallbacks()
	}
}

// trim removes samples older than cutoff and presses that ended before it.
func (m *Meter) trim(cutoff time.Time) {
	cutoffIndex := 0
	for i, s := range m.samples {
		if s.Timestamp.After(cutoff) {
			cutoffIndex = i
			break
		}
	}
	if cutoffIndex > 0 {
		m.samples = m.samples[cutoffIndex:]
	}

	kept := m.presses[:0]
	for _, p := range m.presses {
		if p.Active || p.End.After(cutoff) {
			kept = append(kept, p)
		}
	}
	m.presses = kept

	// Re-resolve tracker positions after removal
	for i := range m.trackers {
		t := &m.trackers[i]
		if t.index < 0 {
			continue
		}
		t.index = -1
		for j := range m.presses {
			if m.presses[j].ID == t.press.ID {
				t.index = j
				break
			}
		}
	}
}

// updatePresses advances every channel tracker with the latest sample.
func (m *Meter) updatePresses(s sample.Sample) {
	for len(m.trackers) < len(s.Levels) {
		m.trackers = append(m.trackers, tracker{index: -1})
	}

	for ch, level := range s.Levels {
		t := &m.trackers[ch]

		if level > m.threshold {
			if !t.holding {
				m.nextID++
				t.holding = true
				t.index = -1
				t.press = Press{
					ID:      m.nextID,
					Channel: ch,
					Start:   s.Timestamp,
					End:     s.Timestamp,
					Peak:    level,
					Active:  true,
				}
			} else {
				t.press.End = s.Timestamp
				if level > t.press.Peak {
					t.press.Peak = level
				}
			}

			if t.index < 0 && t.press.Duration() >= m.minPressDuration {
				m.presses = append(m.presses, t.press)
				t.index = len(m.presses) - 1
			} else if t.index >= 0 {
				m.presses[t.index] = t.press
			}
			continue
		}

		// Released: presses that never reached the minimum duration are dropped
		if t.holding {
			if t.index >= 0 {
				m.presses[t.index].Active = false
			}
			t.holding = false
			t.index = -1
		}
	}
}

// Samples returns a copy of the current samples buffer.
func (m *Meter) Samples() []sample.Sample {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]sample.Sample, len(m.samples))
	copy(result, m.samples)
	return result
}

// Presses returns a copy of the current presses list.
func (m *Meter) Presses() []Press {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Press, len(m.presses))
	copy(result, m.presses)
	return result
}

// Pressed reports which channels are currently held past the minimum duration.
func (m *Meter) Pressed() []bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]bool, len(m.trackers))
	for i, t := range m.trackers {
		result[i] = t.holding && t.index >= 0
	}
	return result
}

// OnUpdate registers a callback invoked after every processed sample.
// The callback should copy data quickly and return as fast as possible.
func (m *Meter) OnUpdate(callback func(samples []sample.Sample, presses []Press)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// notifyCallbacks invokes all registered callbacks with copies of current data.
func (m *Meter) notifyCallbacks() {
	samples := m.Samples()
	presses := m.Presses()

	m.cbMu.RLock()
	callbacks := make([]func(samples []sample.Sample, presses []Press), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(samples, presses)
		}
	}
}
