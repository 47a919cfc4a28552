package ascii

// StyledGlyph is one output cell: a character plus an optional foreground
// color. Colored reports whether R, G and B are meaningful.
type StyledGlyph struct {
	Ch      rune
	R, G, B uint8
	Colored bool
}

const (
	minScale  = 0.1
	maxScale  = 2.0
	scaleStep = 0.1
)

// errorCell is the single sentinel cell returned for malformed frame buffers.
var errorCell = StyledGlyph{Ch: 'E'}

// Converter maps raw RGB24 frames to styled glyph grids. It is mutated only
// by its owner (the dispatch loop) and read on every conversion; Convert
// itself never writes converter state.
type Converter struct {
	palette      Palette
	width        int
	height       int
	colorEnabled bool
	scale        float64
}

// NewConverter creates a converter targeting a width×height cell area with
// the given palette, color disabled and scale 1.0.
func NewConverter(palette Palette, width, height int) *Converter {
	return &Converter{
		palette: palette,
		width:   width,
		height:  height,
		scale:   1.0,
	}
}

// Resize updates the target display area in character cells.
func (c *Converter) Resize(width, height int) {
	c.width = width
	c.height = height
}

// Size returns the unscaled target area in cells.
func (c *Converter) Size() (width, height int) {
	return c.width, c.height
}

// Palette returns the selected glyph palette.
func (c *Converter) Palette() Palette { return c.palette }

// SetPalette selects a glyph palette for subsequent conversions.
func (c *Converter) SetPalette(p Palette) { c.palette = p }

// NextPalette advances to the next palette on the ring.
func (c *Converter) NextPalette() { c.palette = c.palette.Next() }

// PreviousPalette steps back to the previous palette on the ring.
func (c *Converter) PreviousPalette() { c.palette = c.palette.Previous() }

// ColorEnabled reports whether cells carry a foreground color.
func (c *Converter) ColorEnabled() bool { return c.colorEnabled }

// ToggleColor flips color mode. The glyph mapping is unaffected.
func (c *Converter) ToggleColor() { c.colorEnabled = !c.colorEnabled }

// Scale returns the current scale factor.
func (c *Converter) Scale() float64 { return c.scale }

// SetScale sets the scale factor, clamped to [0.1, 2.0].
func (c *Converter) SetScale(f float64) {
	if f < minScale {
		f = minScale
	}
	if f > maxScale {
		f = maxScale
	}
	c.scale = f
}

// IncreaseScale grows the scale factor by one step.
func (c *Converter) IncreaseScale() { c.SetScale(c.scale + scaleStep) }

// DecreaseScale shrinks the scale factor by one step.
func (c *Converter) DecreaseScale() { c.SetScale(c.scale - scaleStep) }

// TargetSize returns the scaled output dimensions, floored and clamped to a
// minimum of one cell in both axes.
func (c *Converter) TargetSize() (width, height int) {
	width = int(float64(c.width) * c.scale)
	height = int(float64(c.height) * c.scale)
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return width, height
}

// Convert maps an RGB24 buffer (width*height*3 bytes, row-major) to a glyph
// grid of TargetSize. A buffer whose length does not match the stated
// dimensions yields a single sentinel error cell; out-of-bounds indexing
// never happens. The result is a pure function of the inputs and the
// converter's current config.
func (c *Converter) Convert(frame []byte, frameWidth, frameHeight int) [][]StyledGlyph {
	if frameWidth <= 0 || frameHeight <= 0 || len(frame) != frameWidth*frameHeight*3 {
		return [][]StyledGlyph{{errorCell}}
	}

	targetW, targetH := c.TargetSize()
	glyphs := c.palette.Glyphs()
	xScale := float64(frameWidth) / float64(targetW)
	yScale := float64(frameHeight) / float64(targetH)

	grid := make([][]StyledGlyph, targetH)
	for y := 0; y < targetH; y++ {
		row := make([]StyledGlyph, targetW)
		srcY := int(float64(y) * yScale)
		for x := 0; x < targetW; x++ {
			srcX := int(float64(x) * xScale)
			r, g, b := sampleArea(frame, frameWidth, frameHeight, srcX, srcY)
			idx := glyphIndex(r, g, b, len(glyphs))
			cell := StyledGlyph{Ch: glyphs[idx]}
			if c.colorEnabled {
				cell.R, cell.G, cell.B = r, g, b
				cell.Colored = true
			}
			row[x] = cell
		}
		grid[y] = row
	}
	return grid
}

// sampleArea averages a 2x2 block anchored at (srcX, srcY), clamping the
// sample coordinates to the frame bounds.
func sampleArea(frame []byte, frameWidth, frameHeight, srcX, srcY int) (r, g, b uint8) {
	var rSum, gSum, bSum uint32
	for dy := 0; dy < 2; dy++ {
		sy := srcY + dy
		if sy >= frameHeight {
			sy = frameHeight - 1
		}
		for dx := 0; dx < 2; dx++ {
			sx := srcX + dx
			if sx >= frameWidth {
				sx = frameWidth - 1
			}
			idx := (sy*frameWidth + sx) * 3
			rSum += uint32(frame[idx])
			gSum += uint32(frame[idx+1])
			bSum += uint32(frame[idx+2])
		}
	}
	return uint8(rSum / 4), uint8(gSum / 4), uint8(bSum / 4)
}

// luminance computes perceptual brightness with fixed-point weights
// (~0.30R + 0.59G + 0.11B). The weights sum to 255, so the result stays in
// [0, 254] and pure white never reaches the final palette slot exactly.
func luminance(r, g, b uint8) int {
	return int((76*uint32(r) + 150*uint32(g) + 29*uint32(b)) >> 8)
}

// glyphIndex maps a pixel to a palette slot: darker pixels map to earlier
// (denser) glyphs. Monotonic in luminance.
func glyphIndex(r, g, b uint8, paletteLen int) int {
	idx := luminance(r, g, b) * (paletteLen - 1) / 255
	if idx < 0 {
		idx = 0
	}
	if idx >= paletteLen {
		idx = paletteLen - 1
	}
	return idx
}
