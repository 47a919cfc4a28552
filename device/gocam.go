package device

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	gocam "github.com/svanichkin/gocam"

	"asciicam/logs"
)

// Frame is the raw RGB24 frame type produced by the camera backend.
type Frame = gocam.Frame

// readFrameTimeout bounds how long a single ReadFrame waits for the backend
// before reporting a stream error.
const readFrameTimeout = 2 * time.Second

const sysVideoClassDir = "/sys/class/video4linux"

// GocamDriver is the default camera driver, backed by gocam. gocam always
// negotiates the system default camera and its own pixel format, so index
// selection and resolution requests are advisory here; both are logged when
// they cannot be honored.
type GocamDriver struct{}

// NewGocamDriver returns the gocam-backed driver.
func NewGocamDriver() *GocamDriver {
	return &GocamDriver{}
}

// Enumerate lists attached capture devices. On Linux the V4L2 sysfs class
// provides device names in node order; elsewhere a single default entry is
// reported so the rest of the pipeline has something to address.
func (d *GocamDriver) Enumerate() ([]Info, error) {
	entries, err := os.ReadDir(sysVideoClassDir)
	if err != nil {
		return []Info{{Index: 0, Name: "Default Camera"}}, nil
	}
	nodes := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "video") {
			nodes = append(nodes, e.Name())
		}
	}
	sort.Strings(nodes)
	infos := make([]Info, 0, len(nodes))
	for i, node := range nodes {
		name := node
		if raw, err := os.ReadFile(filepath.Join(sysVideoClassDir, node, "name")); err == nil {
			if trimmed := strings.TrimSpace(string(raw)); trimmed != "" {
				name = trimmed
			}
		}
		infos = append(infos, Info{Index: i, Name: name})
	}
	if len(infos) == 0 {
		return []Info{{Index: 0, Name: "Default Camera"}}, nil
	}
	return infos, nil
}

// Open validates the requested index against the enumeration and returns an
// unstarted stream handle. The actual device is claimed by OpenStream, since
// gocam couples opening and streaming.
func (d *GocamDriver) Open(index, reqWidth, reqHeight int) (Stream, error) {
	infos, err := d.Enumerate()
	if err != nil {
		return nil, err
	}
	found := false
	for _, info := range infos {
		if info.Index == index {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("no capture device at index %d", index)
	}
	if index != 0 {
		logs.LogV("[cam] gocam opens the system default camera; index %d is advisory", index)
	}
	return &gocamStream{index: index}, nil
}

type gocamStream struct {
	index  int
	cancel context.CancelFunc
	frames <-chan gocam.Frame
}

func (s *gocamStream) SetResolution(width, height int) error {
	// gocam negotiates the capture format internally.
	return fmt.Errorf("resolution %dx%d not negotiable with gocam backend", width, height)
}

func (s *gocamStream) OpenStream() error {
	if s.frames != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	frames, err := gocam.StartStream(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("camera start: %w", err)
	}
	s.cancel = cancel
	s.frames = frames
	return nil
}

func (s *gocamStream) CloseStream() error {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.frames = nil
	return nil
}

func (s *gocamStream) ReadFrame() (Frame, error) {
	if s.frames == nil {
		return Frame{}, fmt.Errorf("stream not open")
	}
	timer := time.NewTimer(readFrameTimeout)
	defer timer.Stop()
	select {
	case f, ok := <-s.frames:
		if !ok {
			s.frames = nil
			return Frame{}, fmt.Errorf("camera stream closed")
		}
		return f, nil
	case <-timer.C:
		return Frame{}, fmt.Errorf("no frame within %s", readFrameTimeout)
	}
}

func (s *gocamStream) Close() error {
	return s.CloseStream()
}
