// Package display defines the drawing surface the render engine targets
// and an in-memory framebuffer implementation of it. Rasterizing text into
// pixels is left to the concrete display driver; the framebuffer records
// text operations with their geometry instead.
package display

// Align selects the anchor point for printed text.
type Align int

const (
	AlignTopLeft Align = iota
	AlignTopRight
	AlignCenter
)

// Surface is a pixel display with aligned text output and a clip rectangle.
type Surface interface {
	Width() int
	Height() int
	DrawPixel(x, y int, c Color)
	// Print draws text anchored at (x, y) according to align.
	Print(x, y int, c Color, align Align, text string)
	// Measure returns the rendered width and height of text.
	Measure(text string) (w, h int)
	// StartClipping restricts subsequent drawing to the given rectangle.
	StartClipping(x0, y0, x1, y1 int)
	EndClipping()
}
