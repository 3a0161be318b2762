package imaging

import (
	"math"

	"github.com/anthonynsimon/bild/parallel"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// thermogramStops are the anchor colors of the false-color gradient, from
// darkest to brightest luma: blue, cyan, green, yellow, red. Changing them
// changes every rendered thermogram, so they are fixed.
var thermogramStops = [...]colorful.Color{
	{R: 0, G: 0, B: 1},
	{R: 0, G: 1, B: 1},
	{R: 0, G: 1, B: 0},
	{R: 1, G: 1, B: 0},
	{R: 1, G: 0, B: 0},
}

// ThermogramStops returns a copy of the gradient anchor colors as 8-bit RGB.
func ThermogramStops() []RGBColor {
	stops := make([]RGBColor, len(thermogramStops))
	for i, c := range thermogramStops {
		r, g, b := c.RGB255()
		stops[i] = RGBColor{R: r, G: g, B: b}
	}
	return stops
}

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// ThermogramColor maps a single luma value onto the stop gradient.
//
// With N stops, t = luma/255 * (N-1), and the color is the linear blend of
// stop floor(t) and stop ceil(t) by frac = t - floor(t). At luma 0 and 255
// floor and ceil coincide and the exact end stop is returned.
//
// Luma is clamped to [0, 255] first, so a value that overshoots by a
// rounding error still selects a valid pair of stops.
func ThermogramColor(luma float64) RGBColor {
	t := clampFloat(luma, 0, 255) / 255 * float64(len(thermogramStops)-1)
	lower := math.Floor(t)
	upper := math.Ceil(t)
	c := thermogramStops[int(lower)].BlendRgb(thermogramStops[int(upper)], t-lower)
	return RGBColor{
		R: clampByte(c.R * 255),
		G: clampByte(c.G * 255),
		B: clampByte(c.B * 255),
	}
}

// Colorize renders a luma grid as a false-color thermogram with alpha 255.
//
// This is a brightness visualization only; it has nothing to do with
// thermal sensing.
func Colorize(luma *LumaGrid) *PixelGrid {
	out := NewPixelGrid(luma.Width, luma.Height)
	w := luma.Width

	parallel.Line(luma.Height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				c := ThermogramColor(luma.Values[y*w+x])
				i := 4 * (y*w + x)
				out.Pix[i] = c.R
				out.Pix[i+1] = c.G
				out.Pix[i+2] = c.B
				out.Pix[i+3] = 255
			}
		}
	})

	return out
}
