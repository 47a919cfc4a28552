package ascii

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func flatFrame(w, h int, r, g, b byte) []byte {
	buf := make([]byte, w*h*3)
	for i := 0; i < len(buf); i += 3 {
		buf[i], buf[i+1], buf[i+2] = r, g, b
	}
	return buf
}

func gridString(grid [][]StyledGlyph) string {
	out := ""
	for _, row := range grid {
		for _, cell := range row {
			out += string(cell.Ch)
		}
	}
	return out
}

func TestConvertWhiteAndBlackFlatFrames(t *testing.T) {
	c := NewConverter(Dense, 2, 1)

	white := c.Convert(flatFrame(2, 1, 255, 255, 255), 2, 1)
	require.Equal(t, "..", gridString(white), "flat white should map next to the lightest glyph")

	black := c.Convert(flatFrame(2, 1, 0, 0, 0), 2, 1)
	require.Equal(t, "@@", gridString(black), "flat black should map to the densest glyph")
}

func TestConvertGridDimensions(t *testing.T) {
	frame := flatFrame(8, 6, 128, 128, 128)
	for _, tc := range []struct{ w, h int }{
		{1, 1}, {2, 1}, {5, 3}, {80, 24}, {3, 7},
	} {
		c := NewConverter(Dense, tc.w, tc.h)
		grid := c.Convert(frame, 8, 6)
		require.Len(t, grid, tc.h)
		for _, row := range grid {
			require.Len(t, row, tc.w)
		}
	}
}

func TestConvertScaledDimensionsClampToOne(t *testing.T) {
	c := NewConverter(Dense, 4, 4)
	c.SetScale(0.1)
	w, h := c.TargetSize()
	require.Equal(t, 1, w)
	require.Equal(t, 1, h)

	grid := c.Convert(flatFrame(8, 6, 10, 20, 30), 8, 6)
	require.Len(t, grid, 1)
	require.Len(t, grid[0], 1)
}

func TestConvertMalformedFrame(t *testing.T) {
	c := NewConverter(Dense, 4, 2)

	short := flatFrame(2, 2, 1, 2, 3)
	short = short[:len(short)-1] // one byte short of w*h*3
	grid := c.Convert(short, 2, 2)
	require.Len(t, grid, 1)
	require.Len(t, grid[0], 1)
	require.Equal(t, 'E', grid[0][0].Ch)

	require.Equal(t, 'E', c.Convert(nil, 2, 2)[0][0].Ch)
	require.Equal(t, 'E', c.Convert([]byte{1, 2, 3}, 0, 0)[0][0].Ch)
}

func TestGlyphIndexMonotonicInLuminance(t *testing.T) {
	glyphs := Dense.Glyphs()
	prevIdx := 0
	prevLum := -1
	for v := 0; v < 256; v++ {
		lum := luminance(uint8(v), uint8(v), uint8(v))
		idx := glyphIndex(uint8(v), uint8(v), uint8(v), len(glyphs))
		require.GreaterOrEqual(t, lum, prevLum, "luminance must not decrease with brightness")
		require.GreaterOrEqual(t, idx, prevIdx, "a brighter pixel must never map to a denser glyph")
		require.Less(t, idx, len(glyphs))
		prevIdx, prevLum = idx, lum
	}
}

func TestConvertIsPure(t *testing.T) {
	c := NewConverter(Simple, 6, 3)
	c.ToggleColor()
	frame := make([]byte, 8*4*3)
	for i := range frame {
		frame[i] = byte(i * 7)
	}
	first := c.Convert(frame, 8, 4)
	second := c.Convert(frame, 8, 4)
	require.Equal(t, first, second)
}

func TestColorModeOnlyChangesStyle(t *testing.T) {
	frame := flatFrame(4, 4, 200, 40, 90)

	mono := NewConverter(Dense, 4, 4)
	colored := NewConverter(Dense, 4, 4)
	colored.ToggleColor()

	monoGrid := mono.Convert(frame, 4, 4)
	colorGrid := colored.Convert(frame, 4, 4)

	for y := range monoGrid {
		for x := range monoGrid[y] {
			require.Equal(t, monoGrid[y][x].Ch, colorGrid[y][x].Ch)
			require.False(t, monoGrid[y][x].Colored)
			require.True(t, colorGrid[y][x].Colored)
			require.Equal(t, uint8(200), colorGrid[y][x].R)
			require.Equal(t, uint8(40), colorGrid[y][x].G)
			require.Equal(t, uint8(90), colorGrid[y][x].B)
		}
	}
}

func TestScaleClamping(t *testing.T) {
	c := NewConverter(Dense, 10, 10)

	c.SetScale(5.0)
	require.Equal(t, 2.0, c.Scale())

	c.SetScale(0.01)
	require.Equal(t, 0.1, c.Scale())

	c.SetScale(2.0)
	c.IncreaseScale()
	require.Equal(t, 2.0, c.Scale())

	c.SetScale(0.1)
	c.DecreaseScale()
	require.Equal(t, 0.1, c.Scale())
}

func TestSampleAreaClampsAtEdges(t *testing.T) {
	// 1x1 frame: every 2x2 sample collapses onto the only pixel
	frame := []byte{10, 20, 30}
	r, g, b := sampleArea(frame, 1, 1, 0, 0)
	require.Equal(t, uint8(10), r)
	require.Equal(t, uint8(20), g)
	require.Equal(t, uint8(30), b)
}
