package periphhw

import (
	"log"

	"periph.io/x/conn/v3/gpio"
)

// GPIOPower drives a divider from a GPIO. Releasing the pin turns it into a
// floating input so the divider draws no current between readings.
type GPIOPower struct {
	pin    gpio.PinIO
	driven bool
}

// NewGPIOPower wraps pin.
func NewGPIOPower(pin gpio.PinIO) *GPIOPower {
	return &GPIOPower{pin: pin}
}

// Drive sets the pin to output high.
func (p *GPIOPower) Drive() {
	if err := p.pin.Out(gpio.High); err != nil {
		log.Printf("GPIO %s: drive: %v", p.pin.Name(), err)
		return
	}
	p.driven = true
}

// Release puts the pin in high impedance.
func (p *GPIOPower) Release() {
	if err := p.pin.In(gpio.Float, gpio.NoEdge); err != nil {
		log.Printf("GPIO %s: release: %v", p.pin.Name(), err)
		return
	}
	p.driven = false
}

// Driven reports whether the divider is powered.
func (p *GPIOPower) Driven() bool {
	return p.driven
}
