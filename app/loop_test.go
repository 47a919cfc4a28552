package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"asciicam/ascii"
	"asciicam/device"
)

type fakeSurface struct {
	frameDraws  int
	statusDraws int
	clears      int
	lastGrid    [][]ascii.StyledGlyph
	lastOverlay Overlay
}

func (s *fakeSurface) FrameArea(cols, rows int) (int, int) {
	return cols - 2, rows - 2
}

func (s *fakeSurface) RenderFrame(grid [][]ascii.StyledGlyph, ov Overlay) {
	s.frameDraws++
	s.lastGrid = grid
	s.lastOverlay = ov
}

func (s *fakeSurface) RenderStatus(ov Overlay) {
	s.statusDraws++
	s.lastOverlay = ov
}

func (s *fakeSurface) ClearScreen() {
	s.clears++
}

type loopStream struct {
	open bool
}

func (s *loopStream) SetResolution(w, h int) error { return nil }
func (s *loopStream) OpenStream() error            { s.open = true; return nil }
func (s *loopStream) CloseStream() error           { s.open = false; return nil }
func (s *loopStream) ReadFrame() (device.Frame, error) {
	return device.Frame{Width: 2, Height: 1, Data: make([]byte, 6)}, nil
}
func (s *loopStream) Close() error { return nil }

type loopDriver struct {
	infos []device.Info
}

func (d *loopDriver) Enumerate() ([]device.Info, error) { return d.infos, nil }
func (d *loopDriver) Open(index, w, h int) (device.Stream, error) {
	return &loopStream{}, nil
}

func newTestLoop(devices []device.Info) (*Loop, *fakeSurface) {
	cam := device.NewCamera(&loopDriver{infos: devices})
	conv := ascii.NewConverter(ascii.Dense, 2, 1)
	surface := &fakeSurface{}
	loop := NewLoop(cam, conv, surface, Options{
		Width:   640,
		Height:  480,
		Devices: devices,
	})
	return loop, surface
}

func whiteFrame() FrameMsg {
	return FrameMsg{Data: []byte{255, 255, 255, 255, 255, 255}, Width: 2, Height: 1}
}

// cycle feeds one wakeup message through the loop the way Run does: the
// first message plus everything already buffered.
func cycle(l *Loop, first Msg) {
	l.runCycle(first)
}

func TestCycleCoalescesFramesToNewest(t *testing.T) {
	loop, _ := newTestLoop(nil)

	// N stale frames, the newest one carries a distinct pattern
	for i := 0; i < 4; i++ {
		loop.Post(whiteFrame())
	}
	newest := FrameMsg{Data: []byte{0, 0, 0, 0, 0, 0}, Width: 2, Height: 1}
	loop.Post(newest)

	first := <-loop.msgs
	cycle(loop, first)

	require.EqualValues(t, 1, loop.framesHandled, "exactly one frame per cycle")
	require.EqualValues(t, 4, loop.framesDropped)
	require.Equal(t, '@', loop.grid[0][0].Ch, "the newest (black) frame must win")
}

func TestCycleProcessesAllNonFrameMessagesFirst(t *testing.T) {
	loop, _ := newTestLoop(nil)

	// M=5 palette steps on a 4-palette ring land one past the start
	for i := 0; i < 3; i++ {
		loop.Post(whiteFrame())
	}
	for i := 0; i < 5; i++ {
		loop.Post(NextPaletteMsg{})
	}

	first := <-loop.msgs
	cycle(loop, first)

	require.Equal(t, ascii.Simple, loop.conv.Palette(), "all five palette steps must apply")
	require.EqualValues(t, 1, loop.framesHandled)
	require.EqualValues(t, 2, loop.framesDropped)
}

func TestFollowUpsLandInNextCycle(t *testing.T) {
	loop, _ := newTestLoop(nil)

	cycle(loop, NextPaletteMsg{})
	require.NotContains(t, loop.status, "Palette", "status update is queued, not inline")

	cycle(loop, TickMsg{})
	require.Equal(t, "Palette: Simple", loop.status)
}

func TestToggleCaptureStartsAndStops(t *testing.T) {
	devices := []device.Info{{Index: 0, Name: "Test Cam"}}
	loop, _ := newTestLoop(devices)

	cycle(loop, ToggleCaptureMsg{})
	require.Equal(t, device.StateActive, loop.cam.State())
	cycle(loop, TickMsg{})
	require.Equal(t, "Camera started", loop.status)

	cycle(loop, ToggleCaptureMsg{})
	require.Equal(t, device.StateIdle, loop.cam.State())
	cycle(loop, TickMsg{})
	require.Equal(t, "Camera stopped", loop.status)
}

func TestResizeUpdatesConverterAndRepaints(t *testing.T) {
	loop, surface := newTestLoop(nil)

	cycle(loop, ResizeMsg{Cols: 82, Rows: 26})
	w, h := loop.conv.Size()
	require.Equal(t, 80, w)
	require.Equal(t, 24, h)
	require.Equal(t, 1, surface.clears)
	require.Equal(t, 1, surface.statusDraws, "no cached frame yet, status screen expected")
}

func TestRenderDrawsCachedFrame(t *testing.T) {
	loop, surface := newTestLoop(nil)

	cycle(loop, whiteFrame())
	cycle(loop, RenderMsg{})
	require.Equal(t, 1, surface.frameDraws)
	require.Equal(t, "..", gridTopRow(surface.lastGrid))
}

func TestCaptureErrorBecomesStatus(t *testing.T) {
	loop, surface := newTestLoop(nil)

	cycle(loop, CaptureErrorMsg{Err: fmt.Errorf("tests: device unplugged")})
	cycle(loop, RenderMsg{})
	require.Contains(t, loop.status, "camera error")
	require.Contains(t, surface.lastOverlay.Status, "device unplugged")
}

func TestDeviceSwitchWrapsAround(t *testing.T) {
	devices := []device.Info{{Index: 0, Name: "A"}, {Index: 2, Name: "B"}}
	loop, _ := newTestLoop(devices)

	cycle(loop, NextDeviceMsg{})
	require.Equal(t, 2, loop.currentDeviceIndex())

	cycle(loop, NextDeviceMsg{})
	require.Equal(t, 0, loop.currentDeviceIndex(), "ring must wrap")

	cycle(loop, PrevDeviceMsg{})
	require.Equal(t, 2, loop.currentDeviceIndex())
}

func TestDeviceSwitchWithoutDevices(t *testing.T) {
	loop, _ := newTestLoop(nil)

	cycle(loop, NextDeviceMsg{})
	cycle(loop, TickMsg{})
	require.Equal(t, "No cameras found", loop.status)
}

func TestRunStopsOnQuit(t *testing.T) {
	loop, _ := newTestLoop(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- loop.Run(ctx)
	}()
	loop.Post(QuitMsg{})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop on QuitMsg")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	loop, _ := newTestLoop(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- loop.Run(ctx)
	}()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop on context cancel")
	}
}

func gridTopRow(grid [][]ascii.StyledGlyph) string {
	if len(grid) == 0 {
		return ""
	}
	out := ""
	for _, cell := range grid[0] {
		out += string(cell.Ch)
	}
	return out
}
