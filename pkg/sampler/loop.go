package sampler

import (
	"io"
	"strconv"
	"time"
)

// Loop samples every channel in index order and emits one text line per cycle.
//
// Line format: "<v0> <v1> ... <vN-1>\n", each value printed with six
// decimals (e.g. "0.500122 0.000000 0.731868 1.000000\n").
type Loop struct {
	sampler *Sampler
	window  time.Duration

	values []float32
	line   []byte
}

// NewLoop creates an acquisition loop sampling each channel for window.
func NewLoop(s *Sampler, window time.Duration) *Loop {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Loop{
		sampler: s,
		window:  window,
		values:  make([]float32, s.Len()),
		line:    make([]byte, 0, s.Len()*9+1),
	}
}

// Cycle samples all channels once. The returned slice is reused by the next call.
func (l *Loop) Cycle() []float32 {
	for i := range l.values {
		l.values[i] = l.sampler.Sample(i, l.window)
	}
	return l.values
}

// Step runs one cycle and writes its line to w.
func (l *Loop) Step(w io.Writer) error {
	l.line = AppendLine(l.line[:0], l.Cycle())
	_, err := w.Write(l.line)
	return err
}

// Run repeats Step forever. Write errors are dropped; the next cycle writes
// again.
func (l *Loop) Run(w io.Writer) {
	for {
		_ = l.Step(w)
	}
}

// AppendLine appends the text rendering of values to dst.
func AppendLine(dst []byte, values []float32) []byte {
	for i, v := range values {
		if i > 0 {
			dst = append(dst, ' ')
		}
		dst = strconv.AppendFloat(dst, float64(v), 'f', 6, 32)
	}
	return append(dst, '\n')
}
