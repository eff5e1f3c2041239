package ports

import (
	"image/color"
)

// Canvas is the 2D render target of the compositor.
//
// Coordinates are in pixels with the origin at the top-left corner.
// Colors carry their own alpha; implementations blend over existing content.
type Canvas interface {
	// Size returns the drawable width and height.
	Size() (width, height int)

	// Clear replaces every pixel with col.
	Clear(col color.RGBA)

	// Fade blends col over the whole surface, leaving motion trails.
	Fade(col color.RGBA)

	// FillCircle draws a filled disc.
	FillCircle(cx, cy, radius float64, col color.RGBA)

	// StrokeCircle draws a circle outline of the given line width.
	StrokeCircle(cx, cy, radius, width float64, col color.RGBA)

	// RadialGlow draws a disc whose alpha falls off linearly from inner to outer radius.
	RadialGlow(cx, cy, inner, outer float64, col color.RGBA)

	// FillEllipse draws a filled axis-aligned ellipse.
	FillEllipse(cx, cy, rx, ry float64, col color.RGBA)
}
