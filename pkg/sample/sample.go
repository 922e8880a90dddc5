package sample

import (
	"log"
	"time"

	"github.com/itohio/spacer/pkg/config"
	"github.com/itohio/spacer/pkg/stream"
)

// Sample represents a processed frame.
type Sample struct {
	Timestamp time.Time
	Values    []float64 // Normalized readings, fraction of full scale
	Levels    []float64 // Tared readings: (value - offset) * gain
}

// Converter is a function type that converts a Frame channel to a Sample channel.
type Converter func(in <-chan stream.Frame) <-chan Sample

// NewConverter creates a converter function that transforms Frames to Samples.
func NewConverter(cfg *config.Config, bufSize int) Converter {
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan stream.Frame) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			for frame := range in {
				select {
				case out <- convertFrame(frame, cfg.Channels):
				case <-time.After(time.Second):
					log.Printf("Converter output channel full, dropping sample")
				}
			}
		}()

		return out
	}
}

// convertFrame applies per-channel tare to a frame. Channels without
// configuration pass through unchanged.
func convertFrame(frame stream.Frame, channels []config.ChannelConfig) Sample {
	values := make([]float64, len(frame.Values))
	copy(values, frame.Values)

	levels := make([]float64, len(values))
	for i, v := range values {
		levels[i] = level(v, i, channels)
	}

	return Sample{
		Timestamp: frame.Timestamp,
		Values:    values,
		Levels:    levels,
	}
}

func level(v float64, channel int, channels []config.ChannelConfig) float64 {
	if channel >= len(channels) {
		return v
	}
	ch := channels[channel]
	gain := ch.Gain
	if gain == 0 {
		gain = 1
	}
	return (v - ch.Offset) * gain
}
