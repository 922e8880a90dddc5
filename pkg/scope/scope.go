package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/spacer/pkg/config"
	"github.com/itohio/spacer/pkg/meter"
	"github.com/itohio/spacer/pkg/sample"
)

// traceColors is cycled through by channel index.
var traceColors = []color.RGBA{
	{R: 255, G: 165, B: 0, A: 255},   // Orange
	{R: 100, G: 200, B: 255, A: 255}, // Light blue
	{R: 120, G: 220, B: 120, A: 255}, // Green
	{R: 230, G: 100, B: 230, A: 255}, // Magenta
	{R: 240, G: 230, B: 90, A: 255},  // Yellow
	{R: 255, G: 110, B: 110, A: 255}, // Red
}

func traceColor(channel int) color.RGBA {
	return traceColors[channel%len(traceColors)]
}

// ScopeWidget is a custom Fyne widget that draws one trace per sensor channel
// and marks detected presses.
type ScopeWidget struct {
	widget.BaseWidget

	cfg *config.Config

	// Data (protected by mu)
	mu      sync.RWMutex
	samples []sample.Sample
	presses []meter.Press

	// Display buffer (reused for downsampling)
	displaySamples []sample.Sample

	// Auto-scaling
	yMin, yMax float64
	xMin, xMax time.Time

	maxDisplayPoints int
}

// New creates a new ScopeWidget instance.
func New(cfg *config.Config) *ScopeWidget {
	s := &ScopeWidget{
		cfg:              cfg,
		samples:          make([]sample.Sample, 0),
		presses:          make([]meter.Press, 0),
		displaySamples:   make([]sample.Sample, 0, 1000),
		maxDisplayPoints: 1000,
	}
	s.ExtendBaseWidget(s)
	s.Refresh()
	return s
}

// UpdateData updates the widget with new measurement data.
// This should be called from the meter callback using fyne.Do().
func (s *ScopeWidget) UpdateData(samples []sample.Sample, presses []meter.Press) {
	s.mu.Lock()

	s.displaySamples = sample.Downsample(s.displaySamples, samples, s.maxDisplayPoints)
	s.samples = samples
	s.presses = presses

	window := time.Duration(s.cfg.Measurement.WindowSeconds * float64(time.Second))
	s.yMin, s.yMax, s.xMin, s.xMax = autoScale(s.displaySamples, s.cfg.Measurement.PressThreshold, window)

	s.mu.Unlock()

	// Refresh outside the lock, the renderer takes a read lock
	s.Refresh()
}

// autoScale returns the plot range for samples. The Y range always covers
// [0, 1] and the press threshold, widened by a 10% margin when levels leave it.
func autoScale(samples []sample.Sample, threshold float64, window time.Duration) (yMin, yMax float64, xMin, xMax time.Time) {
	if len(samples) == 0 {
		now := time.Now()
		return 0, 1, now, now.Add(window)
	}

	yMin, yMax = 0, 1
	grown := false
	for _, s := range samples {
		for _, l := range s.Levels {
			if l < yMin {
				yMin, grown = l, true
			}
			if l > yMax {
				yMax, grown = l, true
			}
		}
	}
	if threshold > yMax {
		yMax, grown = threshold, true
	}
	if grown {
		margin := (yMax - yMin) * 0.1
		yMin -= margin
		yMax += margin
	}

	xMin = samples[0].Timestamp
	xMax = samples[len(samples)-1].Timestamp
	if xMax.Sub(xMin) < window {
		xMax = xMin.Add(window)
	}
	return yMin, yMax, xMin, xMax
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	grid := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255})
	return &scopeRenderer{
		scope:   s,
		grid:    grid,
		objects: []fyne.CanvasObject{grid},
	}
}
