package ui

import (
	"fmt"
	"strings"

	"asciicam/app"
	"asciicam/ascii"
)

func writeFramePrefix(out *strings.Builder, fullClear bool) {
	if fullClear {
		out.WriteString("\x1b[2J\x1b[H")
	} else {
		out.WriteString("\x1b[H")
	}
}

// writeGrid draws the glyph grid centered in the canvas area. Foreground
// color sequences are emitted only when the color actually changes along a
// row, keeping the per-frame payload small.
func writeGrid(out *strings.Builder, grid [][]ascii.StyledGlyph, cols, rows int) {
	canvasCols := cols - 2*viewBorder
	canvasRows := rows - 2*viewBorder - statusRows
	if canvasCols <= 0 || canvasRows <= 0 || len(grid) == 0 {
		return
	}

	gridRows := len(grid)
	gridCols := len(grid[0])
	startRow := viewBorder + 1 + max(0, (canvasRows-gridRows)/2)
	startCol := viewBorder + 1 + max(0, (canvasCols-gridCols)/2)

	for r := 0; r < gridRows && r < canvasRows; r++ {
		fmt.Fprintf(out, "\x1b[%d;%dH", startRow+r, startCol)
		var lastFg [3]uint8
		colored := false
		for c := 0; c < len(grid[r]) && c < canvasCols; c++ {
			cell := grid[r][c]
			if cell.Colored {
				fg := [3]uint8{cell.R, cell.G, cell.B}
				if !colored || fg != lastFg {
					fmt.Fprintf(out, "\x1b[38;2;%d;%d;%dm", fg[0], fg[1], fg[2])
					lastFg = fg
					colored = true
				}
			} else if colored {
				out.WriteString("\x1b[39m")
				colored = false
			}
			out.WriteRune(cell.Ch)
		}
		out.WriteString("\x1b[0m\x1b[K")
	}
}

// writeStatusLine draws the bottom line: capture state, device, palette,
// scale, color mode, fps and the last status text.
func writeStatusLine(out *strings.Builder, cols, rows int, ov app.Overlay, fps string) {
	state := "stopped"
	if ov.Active {
		state = "live"
	}
	color := "mono"
	if ov.Colored {
		color = "color"
	}
	left := fmt.Sprintf(" [%s] %s · %s · %.1fx · %s", state, ov.DeviceName, ov.PaletteName, ov.Scale, color)
	if fps != "" {
		left += " · " + fps
	}
	if ov.Status != "" {
		left += " · " + ov.Status
	}
	line := truncateRunes(left, cols)
	fmt.Fprintf(out, "\x1b[%d;1H\x1b[2K%s\x1b[0m", rows, line)
}

var helpLines = []string{
	"SPACE  start/stop camera",
	"n / p  next/previous camera",
	"] / [  next/previous palette",
	"c      toggle color",
	"+ / -  scale up/down",
	"r      repaint screen",
	"?      toggle this help",
	"q      quit",
}

func writeHelpOverlay(out *strings.Builder, cols, rows int) {
	writeCenteredLines(out, cols, rows, helpLines)
}

func writeCenteredLines(out *strings.Builder, cols, rows int, lines []string) {
	canvasCols := cols - 2*viewBorder
	canvasRows := rows - 2*viewBorder - statusRows
	if canvasCols <= 0 || canvasRows <= 0 {
		return
	}
	startRow := viewBorder + 1 + max(0, (canvasRows-len(lines))/2)
	for i, line := range lines {
		row := startRow + i
		if row > viewBorder+canvasRows {
			break
		}
		line = truncateRunes(line, canvasCols)
		width := len([]rune(line))
		startCol := viewBorder + 1 + max(0, (canvasCols-width)/2)
		fmt.Fprintf(out, "\x1b[%d;%dH\x1b[2K%s", row, startCol, line)
	}
	out.WriteString("\x1b[0m")
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
