// Package periphhw runs the sampler on Linux single board computers: divider
// power comes from GPIOs and readings from an ADS1115 on the I2C bus.
package periphhw

import (
	"errors"
	"fmt"

	"github.com/itohio/spacer/pkg/config"
	"github.com/itohio/spacer/pkg/sampler"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// ErrNoChannels is returned when the configuration names no channels.
var ErrNoChannels = errors.New("no channels configured")

// Board holds the opened bus and the channels built on it.
type Board struct {
	bus      i2c.BusCloser
	channels []sampler.Channel
}

// Open initialises periph, opens the configured I2C bus and builds one
// sampler channel per configured sensor.
func Open(cfg *config.Config) (*Board, error) {
	if len(cfg.Channels) == 0 {
		return nil, ErrNoChannels
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	bus, err := i2creg.Open(cfg.Periph.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("open i2c: %w", err)
	}

	b, err := NewBoard(bus, cfg, sampler.SystemClock{}, gpioreg.ByName)
	if err != nil {
		bus.Close()
		return nil, err
	}
	return b, nil
}

// NewBoard builds channels on an already opened bus, resolving power pins
// with byName.
func NewBoard(bus i2c.BusCloser, cfg *config.Config, clock sampler.Clock, byName func(string) gpio.PinIO) (*Board, error) {
	addr := cfg.Periph.I2CAddress
	if addr == 0 {
		addr = DefaultAddress
	}
	dev := &i2c.Dev{Addr: addr, Bus: bus}
	bits := Calibration(cfg).Resolution

	channels := make([]sampler.Channel, 0, len(cfg.Channels))
	for i, ch := range cfg.Channels {
		sense, err := NewADS1115(dev, ch.Sense, cfg.Periph.DataRate, bits, clock)
		if err != nil {
			return nil, fmt.Errorf("channel %d (%s): %w", i, ch.Name, err)
		}
		pin := byName(ch.Power)
		if pin == nil {
			return nil, fmt.Errorf("channel %d (%s): unknown GPIO %q", i, ch.Name, ch.Power)
		}
		channels = append(channels, sampler.Channel{
			Sense: sense,
			Power: NewGPIOPower(pin),
		})
	}

	return &Board{bus: bus, channels: channels}, nil
}

// Channels returns the sampler channels in configuration order.
func (b *Board) Channels() []sampler.Channel {
	return b.channels
}

// Calibration returns the sampler calibration for scaled ADS1115 readings.
// The configured ADC resolution is capped at MaxResolution.
func Calibration(cfg *config.Config) sampler.Calibration {
	cal := sampler.DefaultCalibration()
	if bits := cfg.Divider.ADCBits; bits > 0 {
		cal.Resolution = min(bits, MaxResolution)
	}
	if cfg.Divider.RRef > 0 {
		cal.RRef = uint32(cfg.Divider.RRef)
	}
	if cfg.Divider.VRef > 0 {
		cal.VRef = float32(cfg.Divider.VRef)
	}
	return cal
}

// Close releases every divider and closes the bus.
func (b *Board) Close() error {
	for _, ch := range b.channels {
		ch.Power.Release()
	}
	return b.bus.Close()
}
