package device

import (
	"context"
	"time"

	"asciicam/logs"
)

// idleBackoff keeps the worker from spinning while the camera is not Active
// or after a failed capture.
const idleBackoff = 100 * time.Millisecond

// RunCaptureLoop drives the camera on an independent clock until ctx is
// canceled. The engine's own rate limiter gates actual device reads, so the
// interval here only has to be at least as fine as the limiter threshold.
// Capture errors are logged and the loop keeps going; a single bad frame
// never terminates capture.
func RunCaptureLoop(ctx context.Context, cam *Camera, interval time.Duration) {
	if interval <= 0 {
		interval = captureMinInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	backoff := func() {
		select {
		case <-ctx.Done():
		case <-time.After(idleBackoff):
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !cam.Active() {
				backoff()
				continue
			}
			if err := cam.CaptureFrame(); err != nil {
				logs.LogV("[cam] capture: %v", err)
				backoff()
			}
		}
	}
}
