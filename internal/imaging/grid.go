package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// PixelGrid is a decoded raster held as row-major, non-premultiplied RGBA
// samples, four bytes per pixel.
//
// A PixelGrid is immutable by convention: every stage in this package
// allocates a new grid rather than writing into its input, so a grid may be
// shared read-only between goroutines.
type PixelGrid struct {
	// Width is the grid width in pixels.
	Width int

	// Height is the grid height in pixels.
	Height int

	// Pix holds the samples, len(Pix) == 4*Width*Height.
	// The sample for (x, y) starts at Pix[4*(y*Width+x)].
	Pix []uint8
}

// NewPixelGrid allocates a zeroed (transparent black) grid.
func NewPixelGrid(width, height int) *PixelGrid {
	return &PixelGrid{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, 4*width*height),
	}
}

// PixelGridFromImage copies any image.Image into a PixelGrid.
//
// The copy goes through imaging.Clone, which normalizes every source color
// model (paletted, YCbCr, 16-bit, premultiplied) to 8-bit NRGBA anchored at
// the origin.
func PixelGridFromImage(img image.Image) *PixelGrid {
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	return &PixelGrid{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pix:    nrgba.Pix,
	}
}

// NRGBA returns a view of the grid as an *image.NRGBA for encoding.
// The returned image shares the grid's backing array and must not be modified.
func (g *PixelGrid) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    g.Pix,
		Stride: 4 * g.Width,
		Rect:   image.Rect(0, 0, g.Width, g.Height),
	}
}

// At returns the sample at (x, y). Coordinates must be inside the grid.
func (g *PixelGrid) At(x, y int) color.NRGBA {
	i := 4 * (y*g.Width + x)
	s := g.Pix[i : i+4 : i+4]
	return color.NRGBA{R: s[0], G: s[1], B: s[2], A: s[3]}
}

// Len returns the number of pixels in the grid.
func (g *PixelGrid) Len() int {
	return g.Width * g.Height
}

// LumaGrid is a single-channel brightness grid, one float per pixel in
// [0, 255], row-major.
type LumaGrid struct {
	Width  int
	Height int
	Values []float64
}

// NewLumaGrid allocates a zero-valued luma grid.
func NewLumaGrid(width, height int) *LumaGrid {
	return &LumaGrid{
		Width:  width,
		Height: height,
		Values: make([]float64, width*height),
	}
}

// At returns the luma value at (x, y).
func (l *LumaGrid) At(x, y int) float64 {
	return l.Values[y*l.Width+x]
}

// GradientGrid holds the Sobel gradient magnitude per pixel, row-major.
// Magnitudes are >= 0 and not clamped; the theoretical maximum for 8-bit
// input is 255*4*sqrt(2).
type GradientGrid struct {
	Width     int
	Height    int
	Magnitude []float64
}

// NewGradientGrid allocates a gradient grid with every magnitude at 0.
func NewGradientGrid(width, height int) *GradientGrid {
	return &GradientGrid{
		Width:     width,
		Height:    height,
		Magnitude: make([]float64, width*height),
	}
}

// At returns the gradient magnitude at (x, y).
func (g *GradientGrid) At(x, y int) float64 {
	return g.Magnitude[y*g.Width+x]
}

// clampByte converts a channel value to a byte, clamping to [0, 255] and
// rounding half to even.
func clampByte(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.RoundToEven(v))
}

// clampFloat constrains v to [lo, hi]. NaN maps to lo.
func clampFloat(v, lo, hi float64) float64 {
	if v < lo || math.IsNaN(v) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
