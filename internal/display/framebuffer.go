package display

// Fixed-advance glyph metrics for layout math. The concrete display driver
// owns the real font; these match a 3x5 matrix font with 1px spacing.
const (
	glyphWidth  = 4
	glyphHeight = 8
)

// TextOp is one recorded Print call, including the clip rectangle that was
// active when it was issued.
type TextOp struct {
	X, Y    int
	Color   Color
	Align   Align
	Text    string
	Clipped bool
	ClipX0, ClipY0, ClipX1, ClipY1 int
}

type clipRect struct {
	x0, y0, x1, y1 int
}

// Framebuffer is an in-memory Surface. Pixels are stored per coordinate and
// honor the clip rectangle; text is recorded as operations rather than
// rasterized. It is not safe for concurrent use; all drawing happens on the
// device loop.
type Framebuffer struct {
	width  int
	height int

	pixels map[[2]int]Color
	texts  []TextOp
	clip   *clipRect
}

// NewFramebuffer creates an empty framebuffer of the given dimensions.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		width:  width,
		height: height,
		pixels: make(map[[2]int]Color),
	}
}

func (f *Framebuffer) Width() int  { return f.width }
func (f *Framebuffer) Height() int { return f.height }

func (f *Framebuffer) DrawPixel(x, y int, c Color) {
	if x < 0 || y < 0 || x >= f.width || y >= f.height {
		return
	}
	if f.clip != nil {
		if x < f.clip.x0 || x >= f.clip.x1 || y < f.clip.y0 || y >= f.clip.y1 {
			return
		}
	}
	f.pixels[[2]int{x, y}] = c
}

func (f *Framebuffer) Print(x, y int, c Color, align Align, text string) {
	op := TextOp{X: x, Y: y, Color: c, Align: align, Text: text}
	if f.clip != nil {
		op.Clipped = true
		op.ClipX0, op.ClipY0 = f.clip.x0, f.clip.y0
		op.ClipX1, op.ClipY1 = f.clip.x1, f.clip.y1
	}
	f.texts = append(f.texts, op)
}

func (f *Framebuffer) Measure(text string) (w, h int) {
	return len(text) * glyphWidth, glyphHeight
}

func (f *Framebuffer) StartClipping(x0, y0, x1, y1 int) {
	f.clip = &clipRect{x0: x0, y0: y0, x1: x1, y1: y1}
}

func (f *Framebuffer) EndClipping() {
	f.clip = nil
}

// Clear resets pixels and recorded text for the next frame.
func (f *Framebuffer) Clear() {
	f.pixels = make(map[[2]int]Color)
	f.texts = f.texts[:0]
	f.clip = nil
}

// Texts returns the recorded Print operations since the last Clear.
func (f *Framebuffer) Texts() []TextOp {
	out := make([]TextOp, len(f.texts))
	copy(out, f.texts)
	return out
}

// PixelAt reports the color drawn at (x, y), if any.
func (f *Framebuffer) PixelAt(x, y int) (Color, bool) {
	c, ok := f.pixels[[2]int{x, y}]
	return c, ok
}
