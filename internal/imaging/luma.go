package imaging

import (
	"github.com/anthonynsimon/bild/parallel"
)

// ITU-R BT.601 luma weights. They sum to 1, so luma stays within [0, 255]
// for 8-bit input.
const (
	LumaWeightR = 0.299
	LumaWeightG = 0.587
	LumaWeightB = 0.114
)

// Luma returns the BT.601 luma of an 8-bit RGB sample.
func Luma(r, g, b uint8) float64 {
	return LumaWeightR*float64(r) + LumaWeightG*float64(g) + LumaWeightB*float64(b)
}

// ToLuma reduces an RGBA grid to a single-channel luma grid. Alpha is
// ignored.
func ToLuma(grid *PixelGrid) *LumaGrid {
	out := NewLumaGrid(grid.Width, grid.Height)
	w := grid.Width

	parallel.Line(grid.Height, func(start, end int) {
		for y := start; y < end; y++ {
			row := grid.Pix[4*y*w : 4*(y+1)*w]
			dst := out.Values[y*w : (y+1)*w]
			for x := range dst {
				s := row[4*x : 4*x+3 : 4*x+3]
				dst[x] = Luma(s[0], s[1], s[2])
			}
		}
	})

	return out
}
