package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"asciicam/app"
	"asciicam/ascii"
)

func TestWriteGridDedupsColorSequences(t *testing.T) {
	red := ascii.StyledGlyph{Ch: '@', R: 255, Colored: true}
	blue := ascii.StyledGlyph{Ch: '#', B: 255, Colored: true}
	grid := [][]ascii.StyledGlyph{{red, red, red, blue}}

	var out strings.Builder
	writeGrid(&out, grid, 20, 10)
	s := out.String()

	require.Equal(t, 1, strings.Count(s, "\x1b[38;2;255;0;0m"), "one sequence per color run")
	require.Equal(t, 1, strings.Count(s, "\x1b[38;2;0;0;255m"))
	require.Contains(t, s, "@@@")
	require.Contains(t, s, "\x1b[0m\x1b[K")
}

func TestWriteGridResetsAfterColoredRun(t *testing.T) {
	red := ascii.StyledGlyph{Ch: '@', R: 255, Colored: true}
	plain := ascii.StyledGlyph{Ch: '.'}
	grid := [][]ascii.StyledGlyph{{red, plain}}

	var out strings.Builder
	writeGrid(&out, grid, 20, 10)

	require.Contains(t, out.String(), "\x1b[39m.", "uncolored cell must drop the foreground")
}

func TestWriteGridEmptyCanvas(t *testing.T) {
	grid := [][]ascii.StyledGlyph{{{Ch: '@'}}}

	var out strings.Builder
	writeGrid(&out, grid, 2, 2)
	require.Empty(t, out.String())
}

func TestWriteStatusLineTruncatesToWidth(t *testing.T) {
	ov := app.Overlay{
		Active:      true,
		DeviceName:  "An Extremely Long Camera Device Name",
		PaletteName: "Dense",
		Scale:       1.0,
	}

	var out strings.Builder
	writeStatusLine(&out, 20, 24, ov, "30 FPS")
	s := out.String()

	require.Contains(t, s, "[live]")
	body := strings.TrimSuffix(strings.TrimPrefix(s, "\x1b[24;1H\x1b[2K"), "\x1b[0m")
	require.LessOrEqual(t, len([]rune(body)), 20)
}

func TestTruncateRunes(t *testing.T) {
	require.Equal(t, "abc", truncateRunes("abc", 5))
	require.Equal(t, "ab", truncateRunes("abc", 2))
	require.Equal(t, "", truncateRunes("abc", 0))
	require.Equal(t, "hél", truncateRunes("héllo", 3))
}
