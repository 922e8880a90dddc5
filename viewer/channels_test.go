package main

import (
	"testing"
	"time"

	"github.com/itohio/spacer/pkg/config"
	"github.com/itohio/spacer/pkg/meter"
	"github.com/itohio/spacer/pkg/sample"
	"github.com/stretchr/testify/assert"
)

func TestTareOffsets(t *testing.T) {
	channels := []config.ChannelConfig{
		{Name: "s0", Offset: 0.5, Gain: 1},
		{Name: "s1", Gain: 2},
		{Name: "s2", Offset: 0.3, Gain: 1},
	}
	samples := []sample.Sample{
		{Values: []float64{0.1, 0.2}},
		{Values: []float64{0.3, 0.4}},
	}

	tareOffsets(channels, samples)

	assert.InDelta(t, 0.2, channels[0].Offset, 1e-9)
	assert.InDelta(t, 0.3, channels[1].Offset, 1e-9)
	assert.Equal(t, 0.3, channels[2].Offset, "channel without readings keeps its offset")
	assert.Equal(t, 2.0, channels[1].Gain)
}

func TestSetPressed_FollowsMeter(t *testing.T) {
	cfg := config.Default()
	cfg.Measurement.WindowSeconds = 1
	cfg.Measurement.PressThreshold = 0.5
	cfg.Measurement.MinPressDuration = 0.05

	m := meter.New(cfg)
	input := make(chan sample.Sample, 5)
	now := time.Now()
	for i := range 5 {
		l := []float64{0.1, 0.9, 0.1}
		input <- sample.Sample{Timestamp: now.Add(time.Duration(i) * 20 * time.Millisecond), Values: l, Levels: l}
	}
	close(input)
	m.ProcessSamples(input)

	state := &appState{pressed: make([]bool, 3)}
	setPressed(state, m.Pressed())
	assert.Equal(t, []bool{false, true, false}, state.pressed)

	// shorter state from a meter that has not seen every channel yet
	setPressed(state, []bool{true})
	assert.Equal(t, []bool{true, true, false}, state.pressed)
}
