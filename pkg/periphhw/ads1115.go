package periphhw

import (
	"fmt"
	"log"
	"time"

	"github.com/itohio/spacer/pkg/sampler"
	"periph.io/x/conn/v3/i2c"
)

const (
	pointerConv   = 0x00
	pointerConfig = 0x01

	// DefaultAddress is the ADS1115 address with ADDR tied to GND.
	DefaultAddress = 0x48
	// DefaultDataRate is the fastest ADS1115 conversion rate.
	DefaultDataRate = 860
	// MaxResolution is the bit depth of positive single-ended results.
	MaxResolution = 15
)

// ADS1115 reads one single-ended ADS1115 input as a sampler.AnalogIn.
// Conversions are started in single-shot mode; results are scaled from the
// positive 15-bit range down to the requested resolution.
type ADS1115 struct {
	dev     *i2c.Dev
	channel int
	rate    int
	clock   sampler.Clock
	shift   uint8
	msb     byte
	lsb     byte
}

// NewADS1115 returns an input for channel (0..3) of the converter behind dev
// producing readings of bits resolution (1..15).
func NewADS1115(dev *i2c.Dev, channel int, rate int, bits uint8, clock sampler.Clock) (*ADS1115, error) {
	if bits == 0 || bits > MaxResolution {
		return nil, fmt.Errorf("unsupported resolution %d bits", bits)
	}
	if clock == nil {
		clock = sampler.SystemClock{}
	}
	if rate == 0 {
		rate = DefaultDataRate
	}
	msb, lsb, err := configForChannel(channel, rate)
	if err != nil {
		return nil, err
	}
	return &ADS1115{
		dev:     dev,
		channel: channel,
		rate:    rate,
		clock:   clock,
		shift:   MaxResolution - bits,
		msb:     msb,
		lsb:     lsb,
	}, nil
}

// Configure is a no-op; the converter is configured on every conversion.
func (a *ADS1115) Configure() {}

// Get performs a single conversion. Bus errors are logged and read as 0.
func (a *ADS1115) Get() uint16 {
	if err := a.dev.Tx([]byte{pointerConfig, a.msb, a.lsb}, nil); err != nil {
		log.Printf("ADS1115 channel %d: write config: %v", a.channel, err)
		return 0
	}

	a.clock.Sleep(conversionTime(a.rate))

	buf := make([]byte, 2)
	if err := a.dev.Tx([]byte{pointerConv}, buf); err != nil {
		log.Printf("ADS1115 channel %d: read conversion: %v", a.channel, err)
		return 0
	}
	raw := int16(buf[0])<<8 | int16(buf[1])
	if raw < 0 {
		return 0
	}
	return uint16(raw) >> a.shift
}

// conversionTime is one conversion period plus a small margin.
func conversionTime(rate int) time.Duration {
	return time.Second/time.Duration(rate) + 100*time.Microsecond
}

// configForChannel builds the config register for a single-shot, single-ended
// conversion at ±4.096 V full scale with the comparator disabled.
func configForChannel(channel int, rate int) (byte, byte, error) {
	if channel < 0 || channel > 3 {
		return 0, 0, fmt.Errorf("invalid channel %d", channel)
	}
	// AINx vs GND: mux 100..111
	mux := byte(0x4 + channel)
	pga := byte(0x1)

	var dr byte
	switch rate {
	case 8:
		dr = 0x0
	case 16:
		dr = 0x1
	case 32:
		dr = 0x2
	case 64:
		dr = 0x3
	case 128:
		dr = 0x4
	case 250:
		dr = 0x5
	case 475:
		dr = 0x6
	case 860:
		dr = 0x7
	default:
		return 0, 0, fmt.Errorf("unsupported data rate %d", rate)
	}

	var config uint16 = 0x8000 // start single conversion
	config |= uint16(mux) << 12
	config |= uint16(pga) << 9
	config |= 1 << 8 // single-shot mode
	config |= uint16(dr) << 5
	config |= 0x3 // comparator disabled
	return byte(config >> 8), byte(config & 0xFF), nil
}
