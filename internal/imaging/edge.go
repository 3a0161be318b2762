package imaging

import (
	"fmt"
	"math"
	"strings"

	"github.com/anthonynsimon/bild/parallel"
)

// Sobel kernels for the horizontal (X) and vertical (Y) intensity gradient.
var (
	sobelX = [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY = [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

// Gradient computes the Sobel gradient magnitude of a luma grid.
//
// # Algorithm
//
// For every interior pixel (1 <= x < width-1, 1 <= y < height-1) the two
// 3x3 kernels are applied to the pixel's neighborhood:
//
//	gx = sum(luma[y+ky][x+kx] * Gx[ky+1][kx+1])
//	gy = sum(luma[y+ky][x+kx] * Gy[ky+1][kx+1])
//	magnitude = sqrt(gx² + gy²)
//
// # Border Policy
//
// The outermost 1-pixel ring is left at magnitude 0. The kernel is never
// evaluated out of bounds: there is no zero padding, wrap-around or edge
// replication. Grids narrower or shorter than 3 pixels therefore have no
// interior and come back all zero.
//
// Rows are processed in parallel; each worker writes only its own rows.
func Gradient(luma *LumaGrid) *GradientGrid {
	w, h := luma.Width, luma.Height
	out := NewGradientGrid(w, h)
	if w < 3 || h < 3 {
		return out
	}

	v := luma.Values
	// Interior rows 1..h-2, offset so that parallel.Line's [0, h-2) maps onto them.
	parallel.Line(h-2, func(start, end int) {
		for y := start + 1; y < end+1; y++ {
			for x := 1; x < w-1; x++ {
				var gx, gy float64
				for ky := -1; ky <= 1; ky++ {
					row := (y + ky) * w
					for kx := -1; kx <= 1; kx++ {
						p := v[row+x+kx]
						gx += p * sobelX[ky+1][kx+1]
						gy += p * sobelY[ky+1][kx+1]
					}
				}
				out.Magnitude[y*w+x] = math.Sqrt(gx*gx + gy*gy)
			}
		}
	})

	return out
}

// EdgeStyle selects how a gradient grid is rendered as an image.
type EdgeStyle int

const (
	// EdgeStyleDark renders a black background with bright edges.
	EdgeStyleDark EdgeStyle = iota

	// EdgeStyleLight inverts the map: white background, dark edges.
	EdgeStyleLight
)

// DefaultEdgeStyle is the black-background, bright-edge variant.
const DefaultEdgeStyle = EdgeStyleDark

func (s EdgeStyle) String() string {
	switch s {
	case EdgeStyleDark:
		return "dark"
	case EdgeStyleLight:
		return "light"
	default:
		return fmt.Sprintf("EdgeStyle(%d)", int(s))
	}
}

// ParseEdgeStyle maps "dark" or "light" (case-insensitive) to an EdgeStyle.
// An empty name yields DefaultEdgeStyle. "inverted" is accepted as an alias
// for "light".
func ParseEdgeStyle(name string) (EdgeStyle, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return DefaultEdgeStyle, nil
	case "dark":
		return EdgeStyleDark, nil
	case "light", "inverted":
		return EdgeStyleLight, nil
	default:
		return DefaultEdgeStyle, fmt.Errorf("unknown edge style %q (want dark or light)", name)
	}
}

// RenderEdges turns a gradient grid into a grayscale edge map.
//
// Each magnitude is clamped to [0, 255] and written identically into R, G
// and B with alpha 255. With EdgeStyleLight the gray value is inverted, so
// the zero border renders white.
func RenderEdges(grad *GradientGrid, style EdgeStyle) *PixelGrid {
	out := NewPixelGrid(grad.Width, grad.Height)
	w := grad.Width

	parallel.Line(grad.Height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < w; x++ {
				v := clampByte(grad.Magnitude[y*w+x])
				if style == EdgeStyleLight {
					v = 255 - v
				}
				i := 4 * (y*w + x)
				out.Pix[i] = v
				out.Pix[i+1] = v
				out.Pix[i+2] = v
				out.Pix[i+3] = 255
			}
		}
	})

	return out
}
