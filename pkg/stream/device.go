package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the baud rate the sensor firmware streams at.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the frames channel buffer.
	DefaultBufferSize = 100
	// DefaultChannels is the channel count of the reference sensor board.
	DefaultChannels = 4
)

// ErrAlreadyConnected is returned by Connect on an open device.
var ErrAlreadyConnected = errors.New("already connected")

// Frame is one acquisition cycle: normalized readings in channel order.
type Frame struct {
	Timestamp time.Time
	Values    []float64 // Fraction of ADC full scale, [0, 1]
}

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial represents a connection to the sensor board.
type Serial struct {
	port     string
	baudRate int
	channels int
	bufSize  int

	conn      serial.Port
	frames    chan Frame
	mu        sync.RWMutex
	cancel    context.CancelFunc
	connected bool
	started   bool // frames has been handed to a reader, which closes it
}

// New creates a new Serial device for the given port. Zero values select defaults.
func New(port string, baudRate int, channels int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if channels == 0 {
		channels = DefaultChannels
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	return &Serial{
		port:     port,
		baudRate: baudRate,
		channels: channels,
		bufSize:  bufSize,
		frames:   make(chan Frame, bufSize),
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// Connect opens the serial port and starts reading frames.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return ErrAlreadyConnected
	}

	port, err := serial.Open(d.port, &serial.Mode{
		BaudRate: d.baudRate,
	})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	// Every connection gets its own frames channel
	if d.started {
		d.frames = make(chan Frame, d.bufSize)
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.conn = port
	d.connected = true
	d.started = true

	go readFrames(ctx, port, d.channels, d.frames)

	return nil
}

// Close closes the connection and stops reading frames.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false

	return nil
}

// Frames returns the channel frames are delivered on. It is closed once the
// device is closed or the port stops delivering data; a new Connect opens a
// new channel, so call Frames after Connect.
func (d *Serial) Frames() <-chan Frame {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.frames
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readFrames scans lines from r, parses them and delivers frames to out
// until ctx is done or r is exhausted. out is closed on return.
func readFrames(ctx context.Context, r io.Reader, channels int, out chan<- Frame) {
	defer close(out)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readFrames: %v", r)
		}
	}()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		frame, err := ParseLine(line, channels)
		if err != nil {
			log.Printf("Failed to parse line '%s': %v", line, err)
			continue
		}

		select {
		case out <- frame:
		case <-ctx.Done():
			return
		default:
			log.Printf("Frames channel full, dropping frame")
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		log.Printf("Error reading from serial port: %v", err)
	}
}

// ParseLine parses one line of the sensor stream into a Frame timestamped now.
// Format: whitespace separated decimal values, one per channel.
// Example: 0.500122 0.000000 0.731868 1.000000
// A channels value of 0 accepts any non-empty count.
func ParseLine(line string, channels int) (Frame, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Frame{}, fmt.Errorf("empty line")
	}
	if channels > 0 && len(fields) != channels {
		return Frame{}, fmt.Errorf("invalid line format: expected %d values, got %d", channels, len(fields))
	}

	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Frame{}, fmt.Errorf("invalid value for channel %d: %w", i, err)
		}
		if math.IsNaN(v) || v < 0 || v > 1 {
			return Frame{}, fmt.Errorf("value out of range for channel %d: %f", i, v)
		}
		values[i] = v
	}

	return Frame{
		Timestamp: time.Now(),
		Values:    values,
	}, nil
}
