//go:build tinygo

package main

import (
	"machine"
	"time"

	"github.com/itohio/spacer/pkg/sampler"
	"tinygo.org/x/drivers/delay"
)

// senseADC reads a sense pin. TinyGo scales ADC readings to 16 bits, shift
// brings them back to the configured resolution.
type senseADC struct {
	adc   machine.ADC
	shift uint8
}

var _ sampler.AnalogIn = (*senseADC)(nil)

func newSenseADC(pin machine.Pin) *senseADC {
	return &senseADC{
		adc:   machine.ADC{Pin: pin},
		shift: 16 - ADC_RESOLUTION,
	}
}

func (s *senseADC) Configure() {
	s.adc.Pin.Configure(machine.PinConfig{Mode: machine.PinInput})
	s.adc.Configure(machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	})
}

func (s *senseADC) Get() uint16 {
	return s.adc.Get() >> s.shift
}

// powerPin energizes a divider by switching between output-high and input.
type powerPin machine.Pin

var _ sampler.PowerPin = powerPin(0)

func (p powerPin) Drive() {
	pin := machine.Pin(p)
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pin.High()
}

func (p powerPin) Release() {
	machine.Pin(p).Configure(machine.PinConfig{Mode: machine.PinInput})
}

// boardClock busy-waits short delays instead of yielding to the scheduler.
type boardClock struct{}

var _ sampler.Clock = boardClock{}

func (boardClock) Now() time.Time { return time.Now() }

func (boardClock) Sleep(d time.Duration) { delay.Sleep(d) }
