package device

import "errors"

// Error kinds surfaced by the camera engine. Callers match them with
// errors.Is; the wrapped message carries the driver detail.
var (
	// ErrDeviceOpen means the device could not be opened at all. Fatal to
	// the start attempt, not to the process.
	ErrDeviceOpen = errors.New("device open failed")
	// ErrStream means an open/close/read failure on an already-opened device.
	ErrStream = errors.New("stream error")
	// ErrDecode means a captured frame payload did not match the canonical
	// RGB24 layout. The frame is dropped, capture continues.
	ErrDecode = errors.New("frame decode failed")
	// ErrNotInitialized means an operation was attempted before Initialize
	// succeeded.
	ErrNotInitialized = errors.New("camera not initialized")
)

// Info identifies one enumerated capture device. Index is the original
// enumeration position and stays stable across filtering.
type Info struct {
	Index int
	Name  string
}

// Driver is the boundary to the physical camera layer. Implementations open
// devices and enumerate what is attached; everything above treats resolution
// negotiation as advisory.
type Driver interface {
	Enumerate() ([]Info, error)
	Open(index, reqWidth, reqHeight int) (Stream, error)
}

// Stream is an opened device handle. ReadFrame blocks inside the driver
// until a frame is available or the stream fails.
type Stream interface {
	// SetResolution requests a capture resolution; a refusal is best-effort
	// information, never fatal.
	SetResolution(width, height int) error
	OpenStream() error
	CloseStream() error
	ReadFrame() (Frame, error)
	Close() error
}
