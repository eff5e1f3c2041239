// Package widgets provides custom Fyne widgets for wavepulse.
package widgets

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/tejashwikalptaru/wavepulse/internal/adapter/render"
)

// Visualizer shows the frames a session draws into a RasterCanvas.
//
// The raster generator runs on the UI thread and sizes the canvas to the
// widget, so the compositor always draws at the displayed resolution.
type Visualizer struct {
	widget.BaseWidget

	target *render.RasterCanvas
	raster *canvas.Raster

	onTap          func()
	onSecondaryTap func(*fyne.PointEvent)
}

// NewVisualizer creates a visualizer widget over target.
func NewVisualizer(target *render.RasterCanvas) *Visualizer {
	v := &Visualizer{target: target}
	v.raster = canvas.NewRaster(v.draw)
	v.ExtendBaseWidget(v)
	return v
}

// CreateRenderer implements fyne.Widget.
func (v *Visualizer) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.raster)
}

// MinSize keeps room for the core and a few ripples.
func (v *Visualizer) MinSize() fyne.Size {
	return fyne.NewSize(160, 160)
}

// SetOnTapped sets the handler of a primary tap.
func (v *Visualizer) SetOnTapped(fn func()) {
	v.onTap = fn
}

// SetOnTappedSecondary sets the handler of a right click.
func (v *Visualizer) SetOnTappedSecondary(fn func(*fyne.PointEvent)) {
	v.onSecondaryTap = fn
}

// Tapped implements fyne.Tappable.
func (v *Visualizer) Tapped(*fyne.PointEvent) {
	if v.onTap != nil {
		v.onTap()
	}
}

// TappedSecondary implements fyne.SecondaryTappable.
func (v *Visualizer) TappedSecondary(pe *fyne.PointEvent) {
	if v.onSecondaryTap != nil {
		v.onSecondaryTap(pe)
	}
}

// MouseIn implements desktop.Hoverable.
func (v *Visualizer) MouseIn(*desktop.MouseEvent) {}

// MouseMoved implements desktop.Hoverable.
func (v *Visualizer) MouseMoved(*desktop.MouseEvent) {}

// MouseOut implements desktop.Hoverable.
func (v *Visualizer) MouseOut() {}

// FrameDrawn schedules a repaint. Safe to call from any goroutine.
func (v *Visualizer) FrameDrawn() {
	fyne.Do(v.raster.Refresh)
}

// draw is the raster generator.
func (v *Visualizer) draw(w, h int) image.Image {
	if v.target.Resize(w, h) {
		// A resized canvas stays blank until the next frame
		return image.NewRGBA(image.Rect(0, 0, w, h))
	}
	return v.target.Snapshot()
}

var (
	_ fyne.Tappable          = (*Visualizer)(nil)
	_ fyne.SecondaryTappable = (*Visualizer)(nil)
	_ desktop.Hoverable      = (*Visualizer)(nil)
)
