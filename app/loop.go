package app

import (
	"context"
	"fmt"
	"time"

	"asciicam/ascii"
	"asciicam/device"
	"asciicam/logs"
)

// Overlay is the non-frame state a surface may draw around the glyph grid.
type Overlay struct {
	Status      string
	PaletteName string
	Colored     bool
	Scale       float64
	Active      bool
	DeviceName  string
	ShowHelp    bool
}

// Surface is the external render target. It guarantees nothing about timing
// beyond drawing what it is given when told to.
type Surface interface {
	// FrameArea maps a terminal geometry to the cell area available for the
	// glyph grid.
	FrameArea(cols, rows int) (width, height int)
	RenderFrame(grid [][]ascii.StyledGlyph, ov Overlay)
	RenderStatus(ov Overlay)
	ClearScreen()
}

// Options configures a dispatch loop.
type Options struct {
	DeviceIndex int
	Width       int
	Height      int
	TickEvery   time.Duration
	RenderEvery time.Duration
	Devices     []device.Info
}

const msgBuffer = 256

// Loop is the single-threaded dispatch loop. It owns the conversion config,
// the capture-engine control surface and all UI-visible state; everything
// reaches it as messages over one many-producer channel.
type Loop struct {
	msgs    chan Msg
	cam     *device.Camera
	conv    *ascii.Converter
	surface Surface
	opts    Options

	devices []device.Info
	devPos  int

	grid     [][]ascii.StyledGlyph
	status   string
	showHelp bool
	quit     bool

	// follow-ups appended by message handlers, processed next cycle
	pending []Msg

	framesHandled uint64
	framesDropped uint64
}

// NewLoop wires a dispatch loop to its collaborators. The camera engine stays
// uninitialized until the first capture command.
func NewLoop(cam *device.Camera, conv *ascii.Converter, surface Surface, opts Options) *Loop {
	if opts.TickEvery <= 0 {
		opts.TickEvery = 250 * time.Millisecond
	}
	if opts.RenderEvery <= 0 {
		opts.RenderEvery = 33 * time.Millisecond
	}
	l := &Loop{
		msgs:    make(chan Msg, msgBuffer),
		cam:     cam,
		conv:    conv,
		surface: surface,
		opts:    opts,
		devices: opts.Devices,
		status:  "Press SPACE to start camera",
	}
	for i, info := range l.devices {
		if info.Index == opts.DeviceIndex {
			l.devPos = i
			break
		}
	}
	return l
}

// Post delivers a message to the loop. When the buffer is full the oldest
// buffered message is dropped so producers never block; frame freshness wins
// over completeness.
func (l *Loop) Post(m Msg) {
	select {
	case l.msgs <- m:
	default:
		select {
		case <-l.msgs:
		default:
		}
		select {
		case l.msgs <- m:
		default:
		}
	}
}

// Frame implements device.Sink.
func (l *Loop) Frame(data []byte, width, height int) {
	l.Post(FrameMsg{Data: data, Width: width, Height: height})
}

// CaptureError implements device.Sink.
func (l *Loop) CaptureError(err error) {
	l.Post(CaptureErrorMsg{Err: err})
}

// Run drives the loop until a QuitMsg arrives or ctx is canceled. Tick and
// render-due signals are posted into the same channel as every other message,
// so one cycle per wakeup sees a consistent batch.
func (l *Loop) Run(ctx context.Context) error {
	go l.postEvery(ctx, l.opts.TickEvery, func() Msg { return TickMsg{} })
	go l.postEvery(ctx, l.opts.RenderEvery, func() Msg { return RenderMsg{} })

	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-l.msgs:
			l.runCycle(m)
			if l.quit {
				return nil
			}
		}
	}
}

func (l *Loop) postEvery(ctx context.Context, every time.Duration, mk func() Msg) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Post(mk())
		}
	}
}

// runCycle processes one batch: the wakeup message, everything else already
// buffered, and the follow-ups queued by the previous cycle. Non-frame
// messages are handled first in arrival order; of the buffered frames only
// the newest is converted, the rest are discarded.
func (l *Loop) runCycle(first Msg) {
	batch := l.pending
	l.pending = nil
	batch = append(batch, first)
	batch = append(batch, l.drain()...)

	var frames []Msg
	for _, m := range batch {
		if _, ok := m.(FrameMsg); ok {
			frames = append(frames, m)
			continue
		}
		l.process(m)
	}
	if n := len(frames); n > 0 {
		if n > 1 {
			l.framesDropped += uint64(n - 1)
			logs.LogV("[loop] coalesced %d stale frames", n-1)
		}
		l.process(frames[n-1])
	}
}

// drain empties the channel without blocking.
func (l *Loop) drain() []Msg {
	var out []Msg
	for {
		select {
		case m := <-l.msgs:
			out = append(out, m)
		default:
			return out
		}
	}
}

// enqueue defers a follow-up message to the next cycle.
func (l *Loop) enqueue(m Msg) {
	l.pending = append(l.pending, m)
}

func (l *Loop) process(m Msg) {
	switch msg := m.(type) {
	case TickMsg:
		if l.cam.Active() {
			// skip when the clocked worker already holds the engine
			if err := l.cam.TryCaptureFrame(); err != nil {
				logs.LogV("[loop] tick capture: %v", err)
			}
		}

	case RenderMsg:
		l.render(false)

	case ResizeMsg:
		w, h := l.surface.FrameArea(msg.Cols, msg.Rows)
		l.conv.Resize(w, h)
		l.render(true)

	case QuitMsg:
		l.quit = true

	case ClearScreenMsg:
		l.render(true)

	case ToggleCaptureMsg:
		l.toggleCapture()

	case CaptureStartedMsg:
		l.status = "Camera started"

	case CaptureStoppedMsg:
		l.status = "Camera stopped"

	case NextPaletteMsg:
		l.conv.NextPalette()
		l.enqueue(StatusMsg{Text: "Palette: " + l.conv.Palette().Name()})

	case PrevPaletteMsg:
		l.conv.PreviousPalette()
		l.enqueue(StatusMsg{Text: "Palette: " + l.conv.Palette().Name()})

	case ToggleColorMsg:
		l.conv.ToggleColor()
		if l.conv.ColorEnabled() {
			l.enqueue(StatusMsg{Text: "Color: on"})
		} else {
			l.enqueue(StatusMsg{Text: "Color: off"})
		}

	case ScaleUpMsg:
		l.conv.IncreaseScale()
		l.enqueue(StatusMsg{Text: fmt.Sprintf("Scale: %.1f", l.conv.Scale())})

	case ScaleDownMsg:
		l.conv.DecreaseScale()
		l.enqueue(StatusMsg{Text: fmt.Sprintf("Scale: %.1f", l.conv.Scale())})

	case NextDeviceMsg:
		l.switchDevice(1)

	case PrevDeviceMsg:
		l.switchDevice(-1)

	case ToggleHelpMsg:
		l.showHelp = !l.showHelp
		l.render(false)

	case StatusMsg:
		l.status = msg.Text

	case FrameMsg:
		l.grid = l.conv.Convert(msg.Data, msg.Width, msg.Height)
		l.framesHandled++

	case CaptureErrorMsg:
		l.status = "camera error: " + msg.Err.Error()
		logs.LogV("[loop] %s", l.status)
	}
}

// toggleCapture routes a start/stop request to the engine synchronously and
// turns the outcome into a status update; nothing is swallowed silently.
func (l *Loop) toggleCapture() {
	switch l.cam.State() {
	case device.StateUninitialized, device.StateError:
		if err := l.cam.Initialize(l.currentDeviceIndex(), l.opts.Width, l.opts.Height, l); err != nil {
			l.enqueue(StatusMsg{Text: "camera error: " + err.Error()})
			return
		}
	}
	if l.cam.Active() {
		if err := l.cam.Stop(); err != nil {
			l.enqueue(StatusMsg{Text: "camera error: " + err.Error()})
			return
		}
		l.grid = nil
		l.enqueue(CaptureStoppedMsg{})
		return
	}
	if err := l.cam.Start(); err != nil {
		l.enqueue(StatusMsg{Text: "camera error: " + err.Error()})
		return
	}
	l.enqueue(CaptureStartedMsg{})
}

// switchDevice re-initializes the engine on the neighbouring entry of the
// filtered device list, restoring the streaming state it found.
func (l *Loop) switchDevice(step int) {
	if len(l.devices) == 0 {
		l.enqueue(StatusMsg{Text: "No cameras found"})
		return
	}
	wasActive := l.cam.Active()
	l.devPos = (l.devPos + step + len(l.devices)) % len(l.devices)
	target := l.devices[l.devPos]
	if err := l.cam.Initialize(target.Index, l.opts.Width, l.opts.Height, l); err != nil {
		l.enqueue(StatusMsg{Text: "camera error: " + err.Error()})
		return
	}
	l.grid = nil
	if wasActive {
		if err := l.cam.Start(); err != nil {
			l.enqueue(StatusMsg{Text: "camera error: " + err.Error()})
			return
		}
	}
	l.enqueue(StatusMsg{Text: fmt.Sprintf("Camera %d: %s", target.Index, target.Name)})
}

func (l *Loop) currentDeviceIndex() int {
	if l.devPos >= 0 && l.devPos < len(l.devices) {
		return l.devices[l.devPos].Index
	}
	return l.opts.DeviceIndex
}

func (l *Loop) render(fullClear bool) {
	if fullClear {
		l.surface.ClearScreen()
	}
	ov := Overlay{
		Status:      l.status,
		PaletteName: l.conv.Palette().Name(),
		Colored:     l.conv.ColorEnabled(),
		Scale:       l.conv.Scale(),
		Active:      l.cam.Active(),
		DeviceName:  l.currentDeviceName(),
		ShowHelp:    l.showHelp,
	}
	if l.grid == nil {
		l.surface.RenderStatus(ov)
		return
	}
	l.surface.RenderFrame(l.grid, ov)
}

func (l *Loop) currentDeviceName() string {
	if l.devPos >= 0 && l.devPos < len(l.devices) {
		return l.devices[l.devPos].Name
	}
	return ""
}
