package scope

import (
	"image/color"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/itohio/spacer/pkg/meter"
	"github.com/itohio/spacer/pkg/sample"
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	grid *canvas.Rectangle

	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// plotArea maps data coordinates onto the widget.
type plotArea struct {
	x, y, width, height float32
	yMin, yMax          float64
	xMin, xMax          time.Time
}

func (p plotArea) posX(t time.Time) float32 {
	span := p.xMax.Sub(p.xMin).Seconds()
	if span <= 0 {
		return p.x
	}
	return p.x + float32(t.Sub(p.xMin).Seconds()/span)*p.width
}

func (p plotArea) posY(v float64) float32 {
	span := p.yMax - p.yMin
	if span <= 0 {
		return p.y + p.height
	}
	return p.y + p.height - float32((v-p.yMin)/span)*p.height
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.grid.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh rebuilds the canvas objects from the latest data.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	samples := r.scope.displaySamples
	presses := r.scope.presses
	area := plotArea{
		yMin: r.scope.yMin,
		yMax: r.scope.yMax,
		xMin: r.scope.xMin,
		xMax: r.scope.xMax,
	}
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = []fyne.CanvasObject{r.grid}

	const (
		marginLeft   = 60
		marginRight  = 20
		marginTop    = 20
		marginBottom = 40
	)
	area.x = marginLeft
	area.y = marginTop
	area.width = size.Width - marginLeft - marginRight
	area.height = size.Height - marginTop - marginBottom

	r.drawGrid(area)
	r.drawPresses(area, presses)
	r.drawThreshold(area, r.scope.cfg.Measurement.PressThreshold)
	r.drawTraces(area, samples)
	r.drawLegend(area)
}

// drawGrid draws the oscilloscope-style grid.
func (r *scopeRenderer) drawGrid(p plotArea) {
	gridColor := color.RGBA{R: 40, G: 40, B: 40, A: 255}
	textColor := color.RGBA{R: 150, G: 150, B: 150, A: 255}

	const numHLines = 8
	for i := range numHLines + 1 {
		y := p.y + float32(i)*p.height/numHLines
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(p.x, y)
		line.Position2 = fyne.NewPos(p.x+p.width, y)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		value := p.yMax - float64(i)*(p.yMax-p.yMin)/numHLines
		text := canvas.NewText(formatLevel(value), textColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(p.x-5, y-6))
		r.objects = append(r.objects, text)
	}

	const numVLines = 10
	span := p.xMax.Sub(p.xMin)
	for i := range numVLines + 1 {
		x := p.x + float32(i)*p.width/numVLines
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(x, p.y)
		line.Position2 = fyne.NewPos(x, p.y+p.height)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)

		text := canvas.NewText(formatTime(span*time.Duration(i)/numVLines), textColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, p.y+p.height+5))
		r.objects = append(r.objects, text)
	}
}

// drawThreshold draws the press threshold as a dashed horizontal line.
func (r *scopeRenderer) drawThreshold(p plotArea, threshold float64) {
	y := p.posY(threshold)
	const dash = 6
	for x := p.x; x < p.x+p.width; x += 2 * dash {
		line := canvas.NewLine(color.RGBA{R: 200, G: 60, B: 60, A: 255})
		line.Position1 = fyne.NewPos(x, y)
		line.Position2 = fyne.NewPos(min(x+dash, p.x+p.width), y)
		line.StrokeWidth = 1
		r.objects = append(r.objects, line)
	}
}

// drawTraces draws one connected line per channel.
func (r *scopeRenderer) drawTraces(p plotArea, samples []sample.Sample) {
	if len(samples) < 2 {
		return
	}

	channels := len(samples[len(samples)-1].Levels)
	for ch := range channels {
		c := traceColor(ch)
		var prev fyne.Position
		havePrev := false
		for _, s := range samples {
			if ch >= len(s.Levels) {
				havePrev = false
				continue
			}
			pos := fyne.NewPos(p.posX(s.Timestamp), p.posY(s.Levels[ch]))
			if havePrev {
				line := canvas.NewLine(c)
				line.Position1 = prev
				line.Position2 = pos
				line.StrokeWidth = 1.5
				r.objects = append(r.objects, line)
			}
			prev, havePrev = pos, true
		}
	}
}

// drawPresses shades the span of every press in its channel color and
// labels it with the press duration.
func (r *scopeRenderer) drawPresses(p plotArea, presses []meter.Press) {
	for _, press := range presses {
		c := traceColor(press.Channel)

		xStart := max(p.posX(press.Start), p.x)
		xEnd := min(p.posX(press.End), p.x+p.width)
		if xEnd < xStart {
			continue
		}

		shade := canvas.NewRectangle(color.RGBA{R: c.R, G: c.G, B: c.B, A: 40})
		shade.Move(fyne.NewPos(xStart, p.y))
		shade.Resize(fyne.NewSize(max(xEnd-xStart, 1), p.height))
		r.objects = append(r.objects, shade)

		text := canvas.NewText(formatDuration(press.Duration()), c)
		text.TextSize = 11
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos((xStart+xEnd)/2-20, p.posY(press.Peak)-16))
		r.objects = append(r.objects, text)
	}
}

// drawLegend names each channel in its trace color.
func (r *scopeRenderer) drawLegend(p plotArea) {
	names := r.scope.cfg.ChannelNames()
	for i, name := range names {
		text := canvas.NewText(name, traceColor(i))
		text.TextSize = 11
		text.Move(fyne.NewPos(p.x+10+float32(i)*50, p.y+5))
		r.objects = append(r.objects, text)
	}
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {}

func formatLevel(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatTime(d time.Duration) string {
	if d < time.Second {
		return strconv.FormatFloat(d.Seconds(), 'f', 2, 64) + "s"
	}
	return strconv.FormatFloat(d.Seconds(), 'f', 1, 64) + "s"
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return strconv.FormatInt(d.Milliseconds(), 10) + " ms"
	}
	return strconv.FormatFloat(d.Seconds(), 'f', 2, 64) + " s"
}
