// Package ui implements the collaborators around the dispatch loop: the ANSI
// render surface, the keyboard decoder and the terminal-size watcher.
package ui

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"asciicam/app"
	"asciicam/ascii"
	"asciicam/device"
)

const (
	viewBorder = 1
	statusRows = 1
)

// View renders glyph grids and status screens to the terminal through the
// device frame channel. It implements app.Surface.
type View struct {
	frames    chan *device.TerminalFrame
	terminal  *device.Terminal
	stop      context.CancelFunc
	fullClear atomic.Bool
	fps       fpsCounter
}

// NewView starts the terminal output device and returns the surface bound to
// it. Stop closes the device and restores the screen.
func NewView(ctx context.Context) (*View, error) {
	ctx, cancel := context.WithCancel(ctx)
	v := &View{
		frames: make(chan *device.TerminalFrame, 2),
		stop:   cancel,
	}
	terminal, err := device.StartTerminal(v.frames, ctx.Done(), nil)
	if err != nil {
		cancel()
		return nil, err
	}
	v.terminal = terminal
	v.fullClear.Store(true)
	return v, nil
}

// Stop shuts the terminal device down and waits for the screen restore.
func (v *View) Stop() {
	v.stop()
	if v.terminal != nil {
		<-v.terminal.Done()
	}
}

// FrameArea maps terminal geometry to the cell area left for the glyph grid
// after the border and the status line.
func (v *View) FrameArea(cols, rows int) (width, height int) {
	width = cols - 2*viewBorder
	height = rows - 2*viewBorder - statusRows
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return width, height
}

// ClearScreen forces a full repaint on the next draw.
func (v *View) ClearScreen() {
	v.fullClear.Store(true)
}

// RenderFrame draws a glyph grid with the overlay state around it.
func (v *View) RenderFrame(grid [][]ascii.StyledGlyph, ov app.Overlay) {
	cols, rows, err := device.GetTermSize()
	if err != nil || cols < 4 || rows < 3 {
		return
	}
	v.fps.recordFrame(time.Now())

	var out strings.Builder
	writeFramePrefix(&out, v.fullClear.Swap(false))
	writeGrid(&out, grid, cols, rows)
	writeStatusLine(&out, cols, rows, ov, v.fps.label())
	if ov.ShowHelp {
		writeHelpOverlay(&out, cols, rows)
	}
	v.enqueue(&device.TerminalFrame{Data: out.String()})
}

// RenderStatus draws the fallback screen shown while no frame is cached.
func (v *View) RenderStatus(ov app.Overlay) {
	cols, rows, err := device.GetTermSize()
	if err != nil || cols < 4 || rows < 3 {
		return
	}

	var out strings.Builder
	writeFramePrefix(&out, true)
	v.fullClear.Store(false)
	writeCenteredLines(&out, cols, rows, statusScreenLines(ov))
	writeStatusLine(&out, cols, rows, ov, "")
	if ov.ShowHelp {
		writeHelpOverlay(&out, cols, rows)
	}
	v.enqueue(&device.TerminalFrame{Data: out.String()})
}

// enqueue hands a payload to the terminal device, dropping the oldest pending
// one when the consumer lags.
func (v *View) enqueue(tf *device.TerminalFrame) {
	select {
	case v.frames <- tf:
	default:
		select {
		case <-v.frames:
		default:
		}
		select {
		case v.frames <- tf:
		default:
		}
	}
}

func statusScreenLines(ov app.Overlay) []string {
	lines := []string{}
	if ov.Status != "" {
		lines = append(lines, strings.Split(ov.Status, "\n")...)
	}
	if !ov.Active {
		lines = append(lines, "", "SPACE start/stop · ? help · q quit")
	}
	return lines
}

type fpsCounter struct {
	lastTick time.Time
	frames   int
	display  string
}

func (fc *fpsCounter) recordFrame(now time.Time) {
	if fc.lastTick.IsZero() {
		fc.lastTick = now
	}
	fc.frames++
	elapsed := now.Sub(fc.lastTick)
	if elapsed >= time.Second {
		fps := int(float64(fc.frames) / elapsed.Seconds())
		if fps < 0 {
			fps = 0
		}
		fc.display = fmt.Sprintf("%d FPS", fps)
		fc.frames = 0
		fc.lastTick = now
	}
}

func (fc *fpsCounter) label() string {
	return fc.display
}
