package stream

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/itohio/spacer/pkg/sampler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		channels int
		want     []float64
		wantErr  bool
	}{
		{
			name:     "valid line - four channels",
			line:     "0.500122 0.000000 0.731868 1.000000",
			channels: 4,
			want:     []float64{0.500122, 0, 0.731868, 1},
		},
		{
			name:     "valid line - trailing space",
			line:     "0.1 0.2 0.3 0.4 ",
			channels: 4,
			want:     []float64{0.1, 0.2, 0.3, 0.4},
		},
		{
			name:     "valid line - any channel count",
			line:     "0.25 0.75",
			channels: 0,
			want:     []float64{0.25, 0.75},
		},
		{
			name:     "invalid - too few values",
			line:     "0.1 0.2 0.3",
			channels: 4,
			wantErr:  true,
		},
		{
			name:     "invalid - too many values",
			line:     "0.1 0.2 0.3 0.4 0.5",
			channels: 4,
			wantErr:  true,
		},
		{
			name:     "invalid - non-numeric value",
			line:     "0.1 abc 0.3 0.4",
			channels: 4,
			wantErr:  true,
		},
		{
			name:     "invalid - value above full scale",
			line:     "0.1 1.2 0.3 0.4",
			channels: 4,
			wantErr:  true,
		},
		{
			name:     "invalid - negative value",
			line:     "-0.1 0.2 0.3 0.4",
			channels: 4,
			wantErr:  true,
		},
		{
			name:     "invalid - NaN",
			line:     "NaN 0.2 0.3 0.4",
			channels: 4,
			wantErr:  true,
		},
		{
			name:     "invalid - empty",
			line:     "   ",
			channels: 0,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.line, tt.channels)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Values)
			assert.False(t, got.Timestamp.IsZero())
		})
	}
}

func TestReadFrames(t *testing.T) {
	input := "0.1 0.2 0.3 0.4\n" +
		"garbage\n" +
		"\n" +
		"0.5 0.6 0.7 0.8 \n"

	out := make(chan Frame, 10)
	readFrames(context.Background(), strings.NewReader(input), 4, out)

	var frames []Frame
	for f := range out {
		frames = append(frames, f)
	}

	require.Len(t, frames, 2)
	assert.Equal(t, []float64{0.1, 0.2, 0.3, 0.4}, frames[0].Values)
	assert.Equal(t, []float64{0.5, 0.6, 0.7, 0.8}, frames[1].Values)
}

func TestReadFrames_DropsWhenFull(t *testing.T) {
	var input strings.Builder
	for range 5 {
		input.WriteString("0.1 0.2 0.3 0.4\n")
	}

	out := make(chan Frame, 2)
	readFrames(context.Background(), strings.NewReader(input.String()), 4, out)

	count := 0
	for range out {
		count++
	}
	assert.Equal(t, 2, count)
}

func TestReadFrames_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan Frame, 10)
	readFrames(ctx, strings.NewReader("0.1 0.2 0.3 0.4\n"), 4, out)

	_, ok := <-out
	assert.False(t, ok, "Frames channel should be closed")
}

// TestReadFrames_FirmwareStream feeds the output of the acquisition loop
// straight into the host reader.
func TestReadFrames_FirmwareStream(t *testing.T) {
	board := newSimBoard(&testMockConfig, 4, time.Now())
	cal := sampler.DefaultCalibration()
	s := sampler.New(board.Channels(cal.ADCMax()), cal, sampler.SystemClock{}, sampler.WithSettle(0))
	s.Configure()
	loop := sampler.NewLoop(s, 200*time.Microsecond)

	var buf bytes.Buffer
	for range 3 {
		require.NoError(t, loop.Step(&buf))
	}

	out := make(chan Frame, 10)
	readFrames(context.Background(), &buf, 4, out)

	count := 0
	for f := range out {
		count++
		require.Len(t, f.Values, 4)
		for _, v := range f.Values {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
	assert.Equal(t, 3, count)
}

func TestNew(t *testing.T) {
	dev := New("/dev/ttyACM0", 115200, 4, 100)
	assert.NotNil(t, dev)
	assert.Equal(t, "/dev/ttyACM0", dev.port)
	assert.Equal(t, 115200, dev.baudRate)
	assert.Equal(t, 4, dev.channels)
	assert.Equal(t, 100, dev.bufSize)
	assert.NotNil(t, dev.frames)
	assert.False(t, dev.IsConnected())
}

func TestNew_Defaults(t *testing.T) {
	dev := New("/dev/ttyACM0", 0, 0, 0)
	assert.NotNil(t, dev)
	assert.Equal(t, DefaultBaudRate, dev.baudRate)
	assert.Equal(t, DefaultChannels, dev.channels)
	assert.Equal(t, DefaultBufferSize, dev.bufSize)
}

func TestSerial_CloseWithoutConnect(t *testing.T) {
	dev := New("/dev/ttyACM0", 0, 0, 0)
	assert.NoError(t, dev.Close())
	assert.False(t, dev.IsConnected())
}

// Each connection delivers on its own channel, closed once by its reader.
func TestReadFrames_ChannelPerConnection(t *testing.T) {
	first := make(chan Frame, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	readFrames(ctx, strings.NewReader("0.1 0.2 0.3 0.4\n"), 4, first)
	_, ok := <-first
	require.False(t, ok)

	second := make(chan Frame, 10)
	readFrames(context.Background(), strings.NewReader("0.5 0.6 0.7 0.8\n"), 4, second)
	f, ok := <-second
	require.True(t, ok)
	assert.Equal(t, []float64{0.5, 0.6, 0.7, 0.8}, f.Values)
}

func TestSerial_FailedConnectKeepsFrames(t *testing.T) {
	dev := New("/dev/spacer-does-not-exist", 0, 0, 0)
	frames := dev.Frames()

	assert.Error(t, dev.Connect())
	assert.False(t, dev.IsConnected())
	assert.Equal(t, frames, dev.Frames())
	assert.NoError(t, dev.Close())
}
