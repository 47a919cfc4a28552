package device

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"asciicam/logs"
)

// CaptureState is the camera engine's lifecycle state.
type CaptureState int

const (
	StateUninitialized CaptureState = iota
	StateIdle
	StateActive
	StateError
)

func (s CaptureState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Sink receives capture results. Both methods must not block for long; the
// dispatch loop implements them by posting messages to its own channel.
type Sink interface {
	Frame(data []byte, width, height int)
	CaptureError(err error)
}

// captureMinInterval caps capture throughput independent of device speed,
// which bounds how much frame coalescing the dispatch loop has to do.
const captureMinInterval = 33 * time.Millisecond

// closeRetryLimit bounds the asymmetric stop policy: after this many
// consecutive close failures the engine force-drops the handle instead of
// staying Active forever.
const closeRetryLimit = 3

// Camera owns a single device handle and the policy for how often it is
// sampled. All methods are safe for concurrent use; the mutex also serializes
// device reads so a tick-originated capture can skip instead of queueing
// behind the clocked worker.
type Camera struct {
	mu         sync.Mutex
	driver     Driver
	stream     Stream
	state      CaptureState
	lastErr    string
	sink       Sink
	limiter    *rate.Limiter
	closeFails int
}

// NewCamera creates an uninitialized camera engine on the given driver.
func NewCamera(driver Driver) *Camera {
	return &Camera{
		driver:  driver,
		state:   StateUninitialized,
		limiter: rate.NewLimiter(rate.Every(captureMinInterval), 1),
	}
}

// Initialize opens the device at index, applies the requested resolution
// best-effort and stores the outbound sink. Streaming does not start. A prior
// handle, if any, is released first so the engine can hop between devices.
func (c *Camera) Initialize(index, width, height int, sink Sink) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()

	stream, err := c.driver.Open(index, width, height)
	if err != nil {
		c.state = StateError
		c.lastErr = err.Error()
		return fmt.Errorf("%w: %v", ErrDeviceOpen, err)
	}
	if err := stream.SetResolution(width, height); err != nil {
		logs.LogV("[cam] resolution %dx%d not applied: %v", width, height, err)
	}
	c.stream = stream
	c.sink = sink
	c.state = StateIdle
	c.lastErr = ""
	logs.LogV("[cam] initialized device %d (requested %dx%d)", index, width, height)
	return nil
}

// Start opens the underlying stream. Idempotent: an Active engine reports
// success without touching the device. On stream-open failure the state is
// left unchanged and the error surfaced.
func (c *Camera) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream == nil {
		return ErrNotInitialized
	}
	if c.state == StateActive {
		return nil
	}
	if err := c.stream.OpenStream(); err != nil {
		return fmt.Errorf("%w: %v", ErrStream, err)
	}
	c.state = StateActive
	c.closeFails = 0
	logs.LogV("[cam] capture started")
	return nil
}

// Stop closes the underlying stream. Not Active is a no-op. The engine moves
// to Idle only when the close succeeds; on failure it stays Active so the
// caller can retry, except that after closeRetryLimit consecutive failures
// the handle is considered wedged and dropped to Idle anyway.
func (c *Camera) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateActive {
		return nil
	}
	if err := c.stream.CloseStream(); err != nil {
		c.closeFails++
		if c.closeFails >= closeRetryLimit {
			log.Printf("[cam] stream close failed %d times, forcing idle: %v", c.closeFails, err)
			c.state = StateIdle
			c.closeFails = 0
			return nil
		}
		log.Printf("[cam] stream close failed, still active: %v", err)
		return fmt.Errorf("%w: %v", ErrStream, err)
	}
	c.state = StateIdle
	c.closeFails = 0
	logs.LogV("[cam] capture stopped")
	return nil
}

// Active reports whether the engine is streaming.
func (c *Camera) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateActive
}

// State returns the current lifecycle state.
func (c *Camera) State() CaptureState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the message recorded with the Error state.
func (c *Camera) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// CaptureFrame pulls one frame from the device and pushes it to the sink,
// honoring the minimum inter-frame interval. Not Active is a no-op. Device
// and decode failures are pushed to the sink as error messages and returned;
// the engine stays Active, keeping the retry decision with the caller.
func (c *Camera) CaptureFrame() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.captureLocked()
}

// TryCaptureFrame is CaptureFrame, except it returns immediately when another
// capture already holds the engine. Used by the dispatch tick so opportunistic
// captures never pile up behind the clocked worker.
func (c *Camera) TryCaptureFrame() error {
	if !c.mu.TryLock() {
		return nil
	}
	defer c.mu.Unlock()
	return c.captureLocked()
}

func (c *Camera) captureLocked() error {
	if c.state != StateActive {
		return nil
	}
	if !c.limiter.Allow() {
		return nil
	}
	frame, err := c.stream.ReadFrame()
	if err != nil {
		werr := fmt.Errorf("%w: %v", ErrStream, err)
		if c.sink != nil {
			c.sink.CaptureError(werr)
		}
		return werr
	}
	if len(frame.Data) != frame.Width*frame.Height*3 {
		werr := fmt.Errorf("%w: %dx%d frame has %d bytes", ErrDecode, frame.Width, frame.Height, len(frame.Data))
		if c.sink != nil {
			c.sink.CaptureError(werr)
		}
		return werr
	}
	if c.sink != nil {
		c.sink.Frame(frame.Data, frame.Width, frame.Height)
	}
	return nil
}

// Cleanup releases the stream and the sink and resets to Uninitialized.
// Idempotent; main defers it so the device is never left claimed by a dead
// process.
func (c *Camera) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupLocked()
}

func (c *Camera) cleanupLocked() {
	if c.stream != nil {
		if c.state == StateActive {
			if err := c.stream.CloseStream(); err != nil {
				log.Printf("[cam] close during cleanup: %v", err)
			}
		}
		if err := c.stream.Close(); err != nil {
			log.Printf("[cam] release during cleanup: %v", err)
		}
		c.stream = nil
	}
	c.sink = nil
	c.state = StateUninitialized
	c.lastErr = ""
	c.closeFails = 0
}

// ListDevices enumerates available devices, drops duplicates by display name
// and filters out virtual/loopback entries by name heuristic. Surviving
// entries keep their original enumeration index.
func ListDevices(d Driver) ([]Info, error) {
	raw, err := d.Enumerate()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]Info, 0, len(raw))
	for _, info := range raw {
		name := strings.TrimSpace(info.Name)
		lower := strings.ToLower(name)
		if _, dup := seen[name]; dup {
			continue
		}
		if strings.Contains(lower, "virtual") || strings.Contains(lower, "dummy") {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, Info{Index: info.Index, Name: name})
	}
	return out, nil
}
