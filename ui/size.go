package ui

import (
	"context"
	"time"

	"asciicam/app"
	"asciicam/device"
)

// sizePollInterval is how often the watcher compares the terminal geometry;
// there is no portable resize signal, so this polls.
const sizePollInterval = 50 * time.Millisecond

// StartSizeWatcher posts an initial ResizeMsg and another one whenever the
// terminal geometry changes, until ctx is canceled. Identical sizes are
// coalesced at the source.
func StartSizeWatcher(ctx context.Context, post func(app.Msg)) {
	if ctx == nil {
		ctx = context.Background()
	}

	var lastCols, lastRows int
	if cols, rows, err := device.GetTermSize(); err == nil && cols > 0 && rows > 0 {
		lastCols, lastRows = cols, rows
		post(app.ResizeMsg{Cols: cols, Rows: rows})
	}

	go func() {
		ticker := time.NewTicker(sizePollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cols, rows, err := device.GetTermSize()
				if err != nil || cols <= 0 || rows <= 0 {
					continue
				}
				if cols != lastCols || rows != lastRows {
					lastCols, lastRows = cols, rows
					post(app.ResizeMsg{Cols: cols, Rows: rows})
				}
			}
		}
	}()
}
