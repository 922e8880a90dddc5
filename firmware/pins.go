//go:build tinygo

package main

import (
	"machine"
	"time"
)

const (
	// Sampling configuration
	SAMPLE_WINDOW = 3 * time.Millisecond   // Per-channel averaging window
	SETTLE_DELAY  = 100 * time.Microsecond // Divider settle time after power-up

	// ADC configuration
	ADC_RESOLUTION   = 12   // ADC resolution in bits (12-bit = 0-4095)
	ADC_REFERENCE_MV = 3268 // Reference voltage in millivolts

	// Voltage divider reference resistor (ohm) and reference voltage (V).
	// Not used by the sampling path.
	R_REF = 606000
	V_REF = 3.268

	// Serial configuration
	// "0.000000 0.000000 0.000000 0.000000\n" is 36 bytes per cycle, one cycle
	// every ~12 ms: ~3,000 bytes/sec, well below 11,520 bytes/sec at 115200.
	UART_BAUD_RATE = 115200
)

// Sense pins, read as analog inputs.
var SENSE_PINS = [...]machine.Pin{
	machine.A0, machine.A1, machine.A2, machine.A3,
}

// Power pins, driven high only while their channel is sampled.
var POWER_PINS = [...]machine.Pin{
	machine.A6, machine.A7, machine.A8, machine.A9,
}
