package stream

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/chewxy/math32"
	"github.com/itohio/spacer/pkg/config"
	"github.com/itohio/spacer/pkg/sampler"
)

// Mock simulates a sensor board for testing and development. It runs the
// real acquisition loop over simulated voltage dividers and parses the
// produced text stream exactly like Serial does.
type Mock struct {
	cfg      *config.MockConfig
	channels int

	frames    chan Frame
	mu        sync.RWMutex
	cancel    context.CancelFunc
	connected bool
	started   bool // frames has been handed to a reader, which closes it
	pipe      *io.PipeReader
	done      chan struct{}
}

// NewMock creates a new mocked device instance from a copy of cfg.
func NewMock(cfg *config.MockConfig, channels int) *Mock {
	def := config.Default().Mock
	if cfg == nil {
		cfg = &def
	}
	// Settings may be edited while the board runs
	fixed := *cfg
	if fixed.PressPeriod <= 0 {
		fixed.PressPeriod = def.PressPeriod
	}
	if fixed.PressDuration <= 0 {
		fixed.PressDuration = def.PressDuration
	}
	if fixed.CyclePeriod <= 0 {
		fixed.CyclePeriod = def.CyclePeriod
	}
	cfg = &fixed
	if channels == 0 {
		channels = DefaultChannels
	}

	return &Mock{
		cfg:      cfg,
		channels: channels,
		frames:   make(chan Frame, DefaultBufferSize),
	}
}

// Connect starts the simulated acquisition loop.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return ErrAlreadyConnected
	}

	board := newSimBoard(m.cfg, m.channels, time.Now())
	cal := sampler.DefaultCalibration()
	s := sampler.New(board.Channels(cal.ADCMax()), cal, sampler.SystemClock{})
	s.Configure()
	loop := sampler.NewLoop(s, sampler.DefaultWindow)

	if m.started {
		m.frames = make(chan Frame, DefaultBufferSize)
	}
	ctx, cancel := context.WithCancel(context.Background())
	pr, pw := io.Pipe()
	m.cancel = cancel
	m.pipe = pr
	m.done = make(chan struct{})
	m.connected = true
	m.started = true

	go m.generate(ctx, loop, pw, m.done)
	go readFrames(ctx, pr, m.channels, m.frames)

	return nil
}

// Close stops the mocked device.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	m.pipe.Close()
	<-m.done
	m.connected = false

	return nil
}

// Frames returns the channel for reading frames of the current connection.
func (m *Mock) Frames() <-chan Frame {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.frames
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// generate runs acquisition cycles into w until the device is closed.
func (m *Mock) generate(ctx context.Context, loop *sampler.Loop, w *io.PipeWriter, done chan<- struct{}) {
	defer close(done)
	defer w.Close()

	ticker := time.NewTicker(m.cfg.CyclePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := loop.Step(w); err != nil {
				if ctx.Err() == nil {
					log.Printf("Mock stream closed: %v", err)
				}
				return
			}
		}
	}
}

// simBoard models a row of spacer-fabric sensors. Each channel is pressed
// periodically, channels are phase shifted so presses do not overlap.
type simBoard struct {
	cfg      *config.MockConfig
	channels int
	start    time.Time
}

func newSimBoard(cfg *config.MockConfig, channels int, start time.Time) *simBoard {
	return &simBoard{cfg: cfg, channels: channels, start: start}
}

// Channels builds sampler channels wired to the simulated dividers.
func (b *simBoard) Channels(adcMax uint16) []sampler.Channel {
	out := make([]sampler.Channel, b.channels)
	for i := range out {
		power := &simPower{}
		out[i] = sampler.Channel{
			Sense: &simSense{board: b, power: power, channel: i, adcMax: adcMax},
			Power: power,
		}
	}
	return out
}

// level returns the noiseless divider output of a channel at elapsed, as a
// fraction of full scale.
func (b *simBoard) level(channel int, elapsed time.Duration) float32 {
	rest := float32(b.cfg.RestLevel)
	press := float32(b.cfg.PressLevel)

	period := b.cfg.PressPeriod
	phase := period * time.Duration(channel) / time.Duration(b.channels)
	t := (elapsed + period - phase) % period
	if t >= b.cfg.PressDuration {
		return rest
	}

	x := float32(t) / float32(b.cfg.PressDuration)
	return rest + (press-rest)*math32.Sin(math32.Pi*x)
}

// noise returns deterministic pseudo noise in [-NoiseLevel, NoiseLevel].
func (b *simBoard) noise(channel int, elapsed time.Duration) float32 {
	t := float32(elapsed.Microseconds()) + float32(channel)*977
	return (math32.Sin(t*0.013) + math32.Cos(t*0.0071)) * 0.5 * float32(b.cfg.NoiseLevel)
}

type simPower struct {
	driven bool
}

func (p *simPower) Drive()   { p.driven = true }
func (p *simPower) Release() { p.driven = false }

// simSense reads zero while its divider is unpowered.
type simSense struct {
	board   *simBoard
	power   *simPower
	channel int
	adcMax  uint16
}

func (s *simSense) Configure() {}

func (s *simSense) Get() uint16 {
	if !s.power.driven {
		return 0
	}
	elapsed := time.Since(s.board.start)
	v := s.board.level(s.channel, elapsed) + s.board.noise(s.channel, elapsed)
	// clipped like a real converter
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	return uint16(v*float32(s.adcMax) + 0.5)
}
