package render

import (
	"image/color"
	"sync"

	"github.com/tejashwikalptaru/wavepulse/internal/ports"
)

var _ ports.Canvas = (*Recorder)(nil)

// Op names a recorded draw call.
type Op string

// Recorded operations.
const (
	OpClear        Op = "clear"
	OpFade         Op = "fade"
	OpFillCircle   Op = "fill_circle"
	OpStrokeCircle Op = "stroke_circle"
	OpRadialGlow   Op = "radial_glow"
	OpFillEllipse  Op = "fill_ellipse"
)

// Call is one recorded draw call.
type Call struct {
	Op     Op
	X, Y   float64
	R1, R2 float64 // radius, or inner/outer radius, or rx/ry
	Width  float64
	Color  color.RGBA
}

// Recorder is a Canvas that records draw calls instead of drawing.
// Set PanicOn to make a given operation panic, to exercise fault handling.
type Recorder struct {
	mu      sync.Mutex
	width   int
	height  int
	calls   []Call
	PanicOn Op
}

// NewRecorder creates a recorder reporting the given size.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{width: width, height: height}
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Count returns the number of recorded calls of one kind.
func (r *Recorder) Count(op Op) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Reset drops the recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

// Size implements ports.Canvas.
func (r *Recorder) Size() (width, height int) {
	return r.width, r.height
}

// Clear implements ports.Canvas.
func (r *Recorder) Clear(col color.RGBA) {
	r.record(Call{Op: OpClear, Color: col})
}

// Fade implements ports.Canvas.
func (r *Recorder) Fade(col color.RGBA) {
	r.record(Call{Op: OpFade, Color: col})
}

// FillCircle implements ports.Canvas.
func (r *Recorder) FillCircle(cx, cy, radius float64, col color.RGBA) {
	r.record(Call{Op: OpFillCircle, X: cx, Y: cy, R1: radius, Color: col})
}

// StrokeCircle implements ports.Canvas.
func (r *Recorder) StrokeCircle(cx, cy, radius, width float64, col color.RGBA) {
	r.record(Call{Op: OpStrokeCircle, X: cx, Y: cy, R1: radius, Width: width, Color: col})
}

// RadialGlow implements ports.Canvas.
func (r *Recorder) RadialGlow(cx, cy, inner, outer float64, col color.RGBA) {
	r.record(Call{Op: OpRadialGlow, X: cx, Y: cy, R1: inner, R2: outer, Color: col})
}

// FillEllipse implements ports.Canvas.
func (r *Recorder) FillEllipse(cx, cy, rx, ry float64, col color.RGBA) {
	r.record(Call{Op: OpFillEllipse, X: cx, Y: cy, R1: rx, R2: ry, Color: col})
}

func (r *Recorder) record(c Call) {
	if r.PanicOn != "" && r.PanicOn == c.Op {
		panic("recorder: injected fault on " + string(c.Op))
	}
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
}
