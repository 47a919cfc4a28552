// Package app owns the dispatch loop: the single consumer of every message
// produced by the capture engine, the input decoder and the scheduler, and
// the only place user-visible state changes.
package app

// Msg is the union of events crossing into the dispatch loop. Each message is
// produced once and consumed exactly once by the loop.
type Msg interface{}

// TickMsg is the periodic scheduling signal. A tick additionally triggers one
// opportunistic capture when the camera is active.
type TickMsg struct{}

// RenderMsg asks for one draw of the current state.
type RenderMsg struct{}

// ResizeMsg reports a new terminal geometry in character cells.
type ResizeMsg struct {
	Cols, Rows int
}

// QuitMsg ends the dispatch loop.
type QuitMsg struct{}

// ClearScreenMsg forces a full repaint on the next draw.
type ClearScreenMsg struct{}

// ToggleCaptureMsg starts the camera when stopped and stops it when running,
// initializing the engine lazily on first use.
type ToggleCaptureMsg struct{}

// CaptureStartedMsg is the follow-up emitted after a successful start so the
// status line updates on the next cycle.
type CaptureStartedMsg struct{}

// CaptureStoppedMsg is the follow-up emitted after a successful stop.
type CaptureStoppedMsg struct{}

// NextPaletteMsg advances the glyph palette ring.
type NextPaletteMsg struct{}

// PrevPaletteMsg steps the glyph palette ring backwards.
type PrevPaletteMsg struct{}

// ToggleColorMsg flips colored output.
type ToggleColorMsg struct{}

// ScaleUpMsg grows the conversion scale factor by one step.
type ScaleUpMsg struct{}

// ScaleDownMsg shrinks the conversion scale factor by one step.
type ScaleDownMsg struct{}

// NextDeviceMsg switches capture to the next enumerated camera.
type NextDeviceMsg struct{}

// PrevDeviceMsg switches capture to the previous enumerated camera.
type PrevDeviceMsg struct{}

// ToggleHelpMsg shows or hides the keybinding overlay.
type ToggleHelpMsg struct{}

// StatusMsg updates the user-visible status line.
type StatusMsg struct {
	Text string
}

// FrameMsg is one captured frame in canonical RGB24 layout. Under load only
// the newest buffered FrameMsg of a cycle is processed.
type FrameMsg struct {
	Data   []byte
	Width  int
	Height int
}

// CaptureErrorMsg reports a device or decode failure from the capture side.
type CaptureErrorMsg struct {
	Err error
}
