// Command spacerd runs the spacer-fabric acquisition loop on a Linux board.
// Dividers are powered from GPIOs and read through an ADS1115; the text
// stream goes to stdout or to a serial port, in the same format the
// microcontroller firmware produces.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/spacer/pkg/config"
	"github.com/itohio/spacer/pkg/periphhw"
	"github.com/itohio/spacer/pkg/sampler"
	"go.bug.st/serial"
)

func main() {
	var (
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		outFlag    = flag.String("o", "", "Serial port to stream to (default stdout)")
		baudFlag   = flag.Int("baud", 0, "Baud rate of the output port (overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *baudFlag > 0 {
		cfg.Serial.BaudRate = *baudFlag
	}

	board, err := periphhw.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open board: %v", err)
	}
	defer board.Close()

	var out io.Writer = os.Stdout
	if *outFlag != "" {
		port, err := serial.Open(*outFlag, &serial.Mode{BaudRate: cfg.Serial.BaudRate})
		if err != nil {
			log.Fatalf("Failed to open serial port %s: %v", *outFlag, err)
		}
		defer port.Close()
		out = port
	}

	s := sampler.New(board.Channels(), periphhw.Calibration(cfg), sampler.SystemClock{}, sampler.WithSettle(cfg.Acquisition.Settle))
	s.Configure()
	loop := sampler.NewLoop(s, cfg.Acquisition.Window)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cal := s.Calibration()
	log.Printf("Sampling %d channels at %d bits (full scale %d)", s.Len(), cal.Resolution, cal.ADCMax())
	for ctx.Err() == nil {
		if err := loop.Step(out); err != nil {
			log.Printf("Write failed: %v", err)
			return
		}
	}
	log.Println("Stopped")
}
