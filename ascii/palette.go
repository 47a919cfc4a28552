package ascii

import "strings"

// Palette selects one of the built-in glyph sets. Glyphs are ordered from
// darkest (index 0) to lightest, and the palettes form a ring: Next and
// Previous wrap around.
type Palette int

const (
	Dense Palette = iota
	Simple
	Blocks
	Minimal

	paletteCount
)

var paletteGlyphs = [paletteCount][]rune{
	Dense:   {'@', '#', 'S', '%', '?', '*', '+', ';', ':', ',', '.', ' '},
	Simple:  {'@', '#', '*', '+', '-', '.', ' '},
	Blocks:  {'█', '▉', '▊', '▋', '▌', '▍', '▎', '▏', ' '},
	Minimal: {'█', '▓', '▒', '░', ' '},
}

var paletteNames = [paletteCount]string{
	Dense:   "Dense",
	Simple:  "Simple",
	Blocks:  "Blocks",
	Minimal: "Minimal",
}

// Glyphs returns the palette's characters, darkest first. The result is never
// empty; unknown values fall back to the Dense set.
func (p Palette) Glyphs() []rune {
	if p < 0 || p >= paletteCount {
		p = Dense
	}
	return paletteGlyphs[p]
}

// Name returns the human-readable palette name.
func (p Palette) Name() string {
	if p < 0 || p >= paletteCount {
		p = Dense
	}
	return paletteNames[p]
}

// PaletteByName resolves a case-insensitive palette name.
func PaletteByName(name string) (Palette, bool) {
	for p := Palette(0); p < paletteCount; p++ {
		if strings.EqualFold(name, paletteNames[p]) {
			return p, true
		}
	}
	return Dense, false
}

// Next returns the following palette on the ring.
func (p Palette) Next() Palette {
	return (p + 1) % paletteCount
}

// Previous returns the preceding palette on the ring.
func (p Palette) Previous() Palette {
	return (p + paletteCount - 1) % paletteCount
}

// Glyph maps a glyph index to a character, clamping into range.
func (p Palette) Glyph(i int) rune {
	glyphs := p.Glyphs()
	if i < 0 {
		i = 0
	}
	if i >= len(glyphs) {
		i = len(glyphs) - 1
	}
	return glyphs[i]
}
