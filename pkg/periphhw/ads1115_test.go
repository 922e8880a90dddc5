package periphhw

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestConfigForChannel(t *testing.T) {
	tests := []struct {
		name     string
		channel  int
		rate     int
		msb, lsb byte
		wantErr  bool
	}{
		{"channel 0 at 128", 0, 128, 0xC3, 0x83, false},
		{"channel 1 at 128", 1, 128, 0xD3, 0x83, false},
		{"channel 0 at 8", 0, 8, 0xC3, 0x03, false},
		{"channel 3 at 860", 3, 860, 0xF3, 0xE3, false},
		{"invalid channel", 9, 128, 0, 0, true},
		{"invalid rate", 0, 100, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msb, lsb, err := configForChannel(tt.channel, tt.rate)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.msb, msb)
			assert.Equal(t, tt.lsb, lsb)
		})
	}
}

func TestADS1115_Get(t *testing.T) {
	tests := []struct {
		name string
		read []byte
		want uint16
	}{
		{"half scale", []byte{0x40, 0x00}, 2048},
		{"full scale", []byte{0x7F, 0xFF}, 4095},
		{"zero", []byte{0x00, 0x00}, 0},
		{"negative clamps to zero", []byte{0xFF, 0xF0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &i2ctest.Playback{
				Ops: []i2ctest.IO{
					{Addr: DefaultAddress, W: []byte{pointerConfig, 0xC3, 0xE3}},
					{Addr: DefaultAddress, W: []byte{pointerConv}, R: tt.read},
				},
			}
			a, err := NewADS1115(&i2c.Dev{Addr: DefaultAddress, Bus: bus}, 0, 0, 12, &stepClock{})
			require.NoError(t, err)

			assert.Equal(t, tt.want, a.Get())
			assert.NoError(t, bus.Close())
		})
	}
}

func TestADS1115_BusError(t *testing.T) {
	bus := &i2ctest.Playback{DontPanic: true}
	a, err := NewADS1115(&i2c.Dev{Addr: DefaultAddress, Bus: bus}, 2, 860, 12, &stepClock{})
	require.NoError(t, err)

	assert.Equal(t, uint16(0), a.Get())
}

func TestADS1115_Resolution(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: DefaultAddress, W: []byte{pointerConfig, 0xC3, 0xE3}},
			{Addr: DefaultAddress, W: []byte{pointerConv}, R: []byte{0x7F, 0xFF}},
		},
	}
	a, err := NewADS1115(&i2c.Dev{Addr: DefaultAddress, Bus: bus}, 0, 860, MaxResolution, &stepClock{})
	require.NoError(t, err)
	assert.Equal(t, uint16(32767), a.Get())

	_, err = NewADS1115(&i2c.Dev{Addr: DefaultAddress, Bus: bus}, 0, 860, 16, &stepClock{})
	assert.Error(t, err)
	_, err = NewADS1115(&i2c.Dev{Addr: DefaultAddress, Bus: bus}, 0, 860, 0, &stepClock{})
	assert.Error(t, err)
}

func TestConversionTime(t *testing.T) {
	assert.Equal(t, 125*time.Millisecond+100*time.Microsecond, conversionTime(8))
	assert.Greater(t, conversionTime(8), conversionTime(860))
}
