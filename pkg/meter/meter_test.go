package meter

import (
	"sync"
	"testing"
	"time"

	"github.com/itohio/spacer/pkg/config"
	"github.com/itohio/spacer/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Measurement.WindowSeconds = 1
	cfg.Measurement.PressThreshold = 0.5
	cfg.Measurement.MinPressDuration = 0.05
	return cfg
}

func levels(ts time.Time, l ...float64) sample.Sample {
	return sample.Sample{Timestamp: ts, Values: l, Levels: l}
}

func TestNew(t *testing.T) {
	m := New(testConfig())

	assert.NotNil(t, m)
	assert.Empty(t, m.Samples())
	assert.Empty(t, m.Presses())
	assert.Equal(t, time.Second, m.windowDuration)
	assert.Equal(t, 50*time.Millisecond, m.minPressDuration)
}

func TestProcessSample_Basic(t *testing.T) {
	m := New(testConfig())

	s := levels(time.Now(), 0.1, 0.2)
	m.processSample(s)

	samples := m.Samples()
	require.Len(t, samples, 1)
	assert.Equal(t, s, samples[0])
	assert.Empty(t, m.Presses())
}

func TestProcessSample_WindowTrim(t *testing.T) {
	m := New(testConfig())

	now := time.Now()
	for i := range 30 {
		m.processSample(levels(now.Add(time.Duration(i)*100*time.Millisecond), 0.1))
	}

	samples := m.Samples()
	// 1 s window at 100 ms spacing
	assert.LessOrEqual(t, len(samples), 11)
	last := samples[len(samples)-1].Timestamp
	assert.Equal(t, now.Add(2900*time.Millisecond), last)
	assert.True(t, samples[0].Timestamp.After(last.Add(-time.Second)) || samples[0].Timestamp.Equal(last.Add(-time.Second)))
}

func TestPress_Detected(t *testing.T) {
	m := New(testConfig())

	now := time.Now()
	seq := []float64{0.1, 0.6, 0.8, 0.7, 0.9, 0.2, 0.1}
	for i, l := range seq {
		m.processSample(levels(now.Add(time.Duration(i)*20*time.Millisecond), 0.0, l))
	}

	presses := m.Presses()
	require.Len(t, presses, 1)
	p := presses[0]
	assert.Equal(t, 1, p.Channel)
	assert.Equal(t, now.Add(20*time.Millisecond), p.Start)
	assert.Equal(t, now.Add(80*time.Millisecond), p.End)
	assert.Equal(t, 60*time.Millisecond, p.Duration())
	assert.Equal(t, 0.9, p.Peak)
	assert.False(t, p.Active)
}

func TestPress_ActiveWhileHeld(t *testing.T) {
	m := New(testConfig())

	now := time.Now()
	for i := range 5 {
		m.processSample(levels(now.Add(time.Duration(i)*20*time.Millisecond), 0.7))
	}

	presses := m.Presses()
	require.Len(t, presses, 1)
	assert.True(t, presses[0].Active)
	assert.Equal(t, []bool{true}, m.Pressed())
}

func TestPress_TooShortIgnored(t *testing.T) {
	m := New(testConfig())

	now := time.Now()
	seq := []float64{0.1, 0.9, 0.9, 0.1} // held for 20 ms
	for i, l := range seq {
		m.processSample(levels(now.Add(time.Duration(i)*20*time.Millisecond), l))
	}

	assert.Empty(t, m.Presses())
	assert.Equal(t, []bool{false}, m.Pressed())
}

func TestPress_IndependentChannels(t *testing.T) {
	m := New(testConfig())

	now := time.Now()
	rows := [][]float64{
		{0.9, 0.1, 0.1, 0.1},
		{0.9, 0.1, 0.9, 0.1},
		{0.9, 0.1, 0.9, 0.1},
		{0.9, 0.1, 0.9, 0.1},
		{0.1, 0.1, 0.9, 0.1},
		{0.1, 0.1, 0.1, 0.1},
	}
	for i, r := range rows {
		m.processSample(levels(now.Add(time.Duration(i)*30*time.Millisecond), r...))
	}

	presses := m.Presses()
	require.Len(t, presses, 2)
	channels := map[int]Press{}
	for _, p := range presses {
		channels[p.Channel] = p
	}
	assert.Equal(t, 90*time.Millisecond, channels[0].Duration())
	assert.Equal(t, 90*time.Millisecond, channels[2].Duration())
	assert.NotEqual(t, channels[0].ID, channels[2].ID)
}

func TestPress_TrimmedOutOfWindow(t *testing.T) {
	m := New(testConfig())

	now := time.Now()
	for i := range 5 {
		m.processSample(levels(now.Add(time.Duration(i)*20*time.Millisecond), 0.9))
	}
	m.processSample(levels(now.Add(100*time.Millisecond), 0.1))
	require.Len(t, m.Presses(), 1)

	// second press on the same channel, then the first falls out of the window
	for i := range 5 {
		m.processSample(levels(now.Add(900*time.Millisecond+time.Duration(i)*20*time.Millisecond), 0.9))
	}
	require.Len(t, m.Presses(), 2)

	m.processSample(levels(now.Add(1500*time.Millisecond), 0.9))
	presses := m.Presses()
	require.Len(t, presses, 1)
	assert.True(t, presses[0].Active)
	assert.Equal(t, now.Add(1500*time.Millisecond), presses[0].End)
}

func TestOnUpdate(t *testing.T) {
	m := New(testConfig())

	var mu sync.Mutex
	calls := 0
	var lastPresses []Press
	m.OnUpdate(func(samples []sample.Sample, presses []Press) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		lastPresses = presses
	})

	now := time.Now()
	for i := range 4 {
		m.processSample(levels(now.Add(time.Duration(i)*30*time.Millisecond), 0.9))
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 4, calls)
	require.Len(t, lastPresses, 1)
}

func TestProcessSamples_GracefulShutdown(t *testing.T) {
	m := New(testConfig())

	calls := 0
	m.OnUpdate(func(samples []sample.Sample, presses []Press) {
		calls++
	})

	input := make(chan sample.Sample, 3)
	now := time.Now()
	for i := range 3 {
		input <- levels(now.Add(time.Duration(i)*time.Millisecond), 0.1)
	}
	close(input)

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.ProcessSamples(input)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ProcessSamples did not return after input closed")
	}
	assert.Equal(t, 3, calls)

	// No callbacks after shutdown
	m.processSample(levels(now.Add(time.Second), 0.1))
	assert.Equal(t, 3, calls)
	assert.Len(t, m.Samples(), 4, "samples are still recorded")
}
