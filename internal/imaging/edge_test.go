package imaging

import (
	"math"
	"testing"
)

// lumaFromRows builds a LumaGrid from row-major values.
func lumaFromRows(rows [][]float64) *LumaGrid {
	l := NewLumaGrid(len(rows[0]), len(rows))
	for y, row := range rows {
		copy(l.Values[y*l.Width:], row)
	}
	return l
}

func TestGradient_KnownValues(t *testing.T) {
	tests := []struct {
		name string
		rows [][]float64
		x, y int
		want float64
	}{
		{
			name: "horizontal ramp",
			rows: [][]float64{
				{0, 10, 20, 30},
				{0, 10, 20, 30},
				{0, 10, 20, 30},
			},
			x: 1, y: 1, want: 80,
		},
		{
			name: "horizontal ramp second column",
			rows: [][]float64{
				{0, 10, 20, 30},
				{0, 10, 20, 30},
				{0, 10, 20, 30},
			},
			x: 2, y: 1, want: 80,
		},
		{
			name: "vertical step",
			rows: [][]float64{
				{0, 0, 0},
				{0, 0, 0},
				{9, 9, 9},
			},
			x: 1, y: 1, want: 36,
		},
		{
			name: "single bright corner",
			rows: [][]float64{
				{0, 0, 0},
				{0, 0, 0},
				{0, 0, 8},
			},
			x: 1, y: 1, want: 8 * math.Sqrt2,
		},
		{
			name: "center pixel has no weight",
			rows: [][]float64{
				{0, 0, 0},
				{0, 255, 0},
				{0, 0, 0},
			},
			x: 1, y: 1, want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grad := Gradient(lumaFromRows(tt.rows))
			if got := grad.At(tt.x, tt.y); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("magnitude at (%d,%d): got %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestGradient_BorderIsZero(t *testing.T) {
	l := NewLumaGrid(7, 5)
	for i := range l.Values {
		l.Values[i] = float64((i * 37) % 256)
	}

	grad := Gradient(l)
	if grad.Width != 7 || grad.Height != 5 {
		t.Fatalf("dimensions: got %dx%d, want 7x5", grad.Width, grad.Height)
	}

	interiorEdges := 0
	for y := 0; y < grad.Height; y++ {
		for x := 0; x < grad.Width; x++ {
			m := grad.At(x, y)
			border := x == 0 || y == 0 || x == grad.Width-1 || y == grad.Height-1
			if border && m != 0 {
				t.Errorf("border pixel (%d,%d) = %v, want 0", x, y, m)
			}
			if !border && m > 0 {
				interiorEdges++
			}
			if m < 0 {
				t.Errorf("negative magnitude at (%d,%d)", x, y)
			}
		}
	}
	if interiorEdges == 0 {
		t.Error("expected some interior edges in a noisy grid")
	}
}

func TestGradient_TooSmall(t *testing.T) {
	sizes := [][2]int{{1, 1}, {2, 2}, {2, 5}, {5, 2}, {1, 10}}

	for _, s := range sizes {
		l := NewLumaGrid(s[0], s[1])
		for i := range l.Values {
			l.Values[i] = float64(i * 40)
		}
		grad := Gradient(l)
		if grad.Width != s[0] || grad.Height != s[1] {
			t.Errorf("%dx%d: got %dx%d", s[0], s[1], grad.Width, grad.Height)
		}
		for i, m := range grad.Magnitude {
			if m != 0 {
				t.Errorf("%dx%d: magnitude[%d] = %v, want 0", s[0], s[1], i, m)
			}
		}
	}
}

func TestGradient_Uniform(t *testing.T) {
	luma := ToLuma(solidGrid(6, 6, rgba(128, 128, 128)))
	for i, m := range Gradient(luma).Magnitude {
		if m > 1e-9 {
			t.Fatalf("magnitude[%d] = %v, want 0 for a uniform image", i, m)
		}
	}
}

func TestGradient_Deterministic(t *testing.T) {
	l := NewLumaGrid(64, 48)
	for i := range l.Values {
		l.Values[i] = float64((i*i + 7*i) % 256)
	}

	a, b := Gradient(l), Gradient(l)
	for i := range a.Magnitude {
		if a.Magnitude[i] != b.Magnitude[i] {
			t.Fatalf("magnitude[%d] differs between runs: %v vs %v", i, a.Magnitude[i], b.Magnitude[i])
		}
	}
}

func TestRenderEdges(t *testing.T) {
	grad := &GradientGrid{
		Width:     5,
		Height:    1,
		Magnitude: []float64{0, 80, 80.5, 81.5, 1020},
	}

	tests := []struct {
		style EdgeStyle
		want  []uint8
	}{
		{EdgeStyleDark, []uint8{0, 80, 80, 82, 255}},
		{EdgeStyleLight, []uint8{255, 175, 175, 173, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.style.String(), func(t *testing.T) {
			out := RenderEdges(grad, tt.style)
			for x, want := range tt.want {
				c := out.At(x, 0)
				if c.R != want || c.G != want || c.B != want {
					t.Errorf("pixel %d: got %v, want gray %d", x, c, want)
				}
				if c.A != 255 {
					t.Errorf("pixel %d: alpha %d, want 255", x, c.A)
				}
			}
		})
	}
}

func TestParseEdgeStyle(t *testing.T) {
	tests := []struct {
		name    string
		want    EdgeStyle
		wantErr bool
	}{
		{"", EdgeStyleDark, false},
		{"dark", EdgeStyleDark, false},
		{"Light", EdgeStyleLight, false},
		{"inverted", EdgeStyleLight, false},
		{"neon", EdgeStyleDark, true},
	}

	for _, tt := range tests {
		got, err := ParseEdgeStyle(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseEdgeStyle(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseEdgeStyle(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
