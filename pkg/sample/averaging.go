package sample

import (
	"log"
	"time"

	"github.com/itohio/spacer/pkg/config"
	"github.com/itohio/spacer/pkg/stream"
)

// NewAveragingConverter creates a converter that emits, for every incoming
// frame, the moving average of the last windowSize frames.
func NewAveragingConverter(cfg *config.Config, windowSize int, bufSize int) Converter {
	if windowSize <= 0 {
		windowSize = 1 // No averaging if invalid
	}
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan stream.Frame) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			buffer := make([]stream.Frame, 0, windowSize+1)
			for frame := range in {
				buffer = append(buffer, frame)
				if len(buffer) > windowSize {
					buffer = buffer[1:] // Remove oldest
				}

				select {
				case out <- convertFrame(averageFrames(buffer), cfg.Channels):
				case <-time.After(time.Second):
					log.Printf("Averaging converter output channel full, dropping sample")
				}
			}
		}()

		return out
	}
}

// averageFrames averages frames channel by channel. Uses the most recent
// frame's timestamp and channel count.
func averageFrames(frames []stream.Frame) stream.Frame {
	if len(frames) == 0 {
		return stream.Frame{}
	}

	last := frames[len(frames)-1]
	sums := make([]float64, len(last.Values))
	counts := make([]int, len(last.Values))

	for _, f := range frames {
		for i, v := range f.Values {
			if i < len(sums) {
				sums[i] += v
				counts[i]++
			}
		}
	}

	for i := range sums {
		sums[i] /= float64(counts[i])
	}

	return stream.Frame{
		Timestamp: last.Timestamp,
		Values:    sums,
	}
}
