package device

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// TerminalFrame carries a fully prepared ANSI payload that the terminal
// driver should print verbatim.
type TerminalFrame struct {
	Data string
}

// Terminal represents a running terminal output device.
type Terminal struct {
	done chan struct{}
}

// StartTerminal launches a goroutine that consumes frames from frameIn and
// renders them until stopCh is closed or the frame channel closes.
func StartTerminal(frameIn <-chan *TerminalFrame, stopCh <-chan struct{}, onStop func()) (*Terminal, error) {
	if frameIn == nil {
		return nil, fmt.Errorf("frame channel is nil")
	}
	if stopCh == nil {
		return nil, fmt.Errorf("stop channel is nil")
	}

	t := &Terminal{done: make(chan struct{})}

	go func() {
		defer close(t.done)
		enterAltScreen()
		defer exitAltScreen()

		for {
			select {
			case <-stopCh:
				if onStop != nil {
					onStop()
				}
				return
			case frame, ok := <-frameIn:
				if !ok {
					if onStop != nil {
						onStop()
					}
					return
				}
				if frame == nil || frame.Data == "" {
					continue
				}
				BeginSyncOutput()
				fmt.Print(frame.Data)
				EndSyncOutput()
			}
		}
	}()

	return t, nil
}

// Done returns a channel that closes when the terminal driver stops.
func (t *Terminal) Done() <-chan struct{} {
	if t == nil {
		return nil
	}
	return t.done
}

// BeginSyncOutput enables synchronized output mode (OSC 2026) on terminals that support it.
func BeginSyncOutput() {
	if supportsSyncOutput {
		fmt.Print("\x1b[?2026h")
	}
}

// EndSyncOutput disables synchronized output mode.
func EndSyncOutput() {
	if supportsSyncOutput {
		fmt.Print("\x1b[?2026l")
	}
}

func enterAltScreen() {
	seq := "\x1b[?1049h\x1b[?25l\x1b[?7l\x1b[3J\x1b[H"
	if supportsSyncOutput {
		seq += "\x1b[?2026h"
	}
	fmt.Print(seq)
}

func exitAltScreen() {
	seq := ""
	if supportsSyncOutput {
		seq += "\x1b[?2026l"
	}
	seq += "\x1b[?7h\x1b[?25h\x1b[?1049l"
	fmt.Print(seq)
}

// GetTermSize queries the current terminal size in character cells using stdout.
func GetTermSize() (cols, rows int, err error) {
	cols, rows, err = term.GetSize(int(os.Stdout.Fd()))
	return
}

// IsTerminal reports whether both stdin and stdout are attached to a TTY.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
