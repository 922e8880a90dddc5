package console

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/itohio/spacer/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsolePublish(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, []string{"heel", "toe"})

	ts := time.Date(2025, 9, 19, 14, 41, 54, 0, time.UTC)
	s := sample.Sample{Timestamp: ts, Values: []float64{0.5, 0.25, 1}, Levels: []float64{0.5, 0.25, 1}}
	require.NoError(t, c.Publish(s))

	assert.Equal(t, "2025-09-19T14:41:54Z heel=0.500000 toe=0.250000 ch2=1.000000\n", buf.String())
	assert.NoError(t, c.Close())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestConsolePublish_WriteError(t *testing.T) {
	c := NewConsole(failingWriter{}, nil)
	err := c.Publish(sample.Sample{Timestamp: time.Now(), Levels: []float64{0.1}})
	assert.Error(t, err)
}
