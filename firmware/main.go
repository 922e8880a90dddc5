//go:build tinygo

//go:generate tinygo flash -target=teensy40

package main

import (
	"machine"

	"github.com/itohio/spacer/pkg/sampler"
)

func main() {
	serial := machine.Serial
	if err := serial.Configure(machine.UARTConfig{BaudRate: UART_BAUD_RATE}); err != nil {
		println("serial:", err.Error())
	}

	machine.InitADC()

	channels := make([]sampler.Channel, len(SENSE_PINS))
	for i := range SENSE_PINS {
		channels[i] = sampler.Channel{
			Sense: newSenseADC(SENSE_PINS[i]),
			Power: powerPin(POWER_PINS[i]),
		}
	}

	cal := sampler.Calibration{
		Resolution: ADC_RESOLUTION,
		RRef:       R_REF,
		VRef:       V_REF,
	}

	s := sampler.New(channels, cal, boardClock{}, sampler.WithSettle(SETTLE_DELAY))
	s.Configure()

	sampler.NewLoop(s, SAMPLE_WINDOW).Run(serial)
}
