// Command spacer-bridge reads the sensor stream from a board (or the
// simulated board) and publishes levels to the console and/or MQTT.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/spacer/pkg/config"
	"github.com/itohio/spacer/pkg/output"
	"github.com/itohio/spacer/pkg/output/console"
	"github.com/itohio/spacer/pkg/output/mqtt"
	"github.com/itohio/spacer/pkg/sample"
	"github.com/itohio/spacer/pkg/stream"
)

func main() {
	var (
		portFlag     = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag   = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag     = flag.Bool("mock", false, "Use simulated sensor board instead of serial port")
		consoleFlag  = flag.Bool("console", true, "Print samples to stdout")
		mqttFlag     = flag.Bool("mqtt", false, "Publish samples to the configured MQTT broker")
		intervalFlag = flag.Duration("interval", -1, "Publish interval (0 = every sample, overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *intervalFlag >= 0 {
		cfg.MQTT.Interval = *intervalFlag
	}

	var outputs []output.Output
	if *consoleFlag {
		outputs = append(outputs, console.NewConsole(os.Stdout, cfg.ChannelNames()))
	}
	if *mqttFlag {
		m, err := mqtt.NewMQTT(cfg.MQTT, cfg.ChannelNames())
		if err != nil {
			log.Fatalf("Failed to connect to MQTT broker: %v", err)
		}
		outputs = append(outputs, m)
	}
	if len(outputs) == 0 {
		log.Fatal("No outputs enabled")
	}
	defer func() {
		for _, o := range outputs {
			o.Close()
		}
	}()

	channels := len(cfg.Channels)
	var device stream.Device
	if *mockFlag {
		device = stream.NewMock(&cfg.Mock, channels)
	} else {
		device = stream.New(cfg.Serial.Port, cfg.Serial.BaudRate, channels, stream.DefaultBufferSize)
	}
	if err := device.Connect(); err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}

	var samples <-chan sample.Sample
	if cfg.Measurement.AverageSamples > 0 {
		samples = sample.NewAveragingConverter(cfg, cfg.Measurement.AverageSamples, stream.DefaultBufferSize)(device.Frames())
	} else {
		samples = sample.NewConverter(cfg, stream.DefaultBufferSize)(device.Frames())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		device.Close()
	}()

	// Runs until the device is closed and the converter drains
	publish(samples, outputs, cfg.MQTT.Interval)
	log.Println("Stopped")
}
