package ui

import (
	"bufio"
	"context"
	"os"
	"sync"

	"golang.org/x/term"

	"asciicam/app"
	"asciicam/logs"
)

var keyReaderOnce sync.Once

// StartKeyReader puts stdin into raw mode and decodes keystrokes into
// dispatch messages until ctx is canceled. The core never parses raw input
// itself; this is the whole input boundary.
func StartKeyReader(ctx context.Context, post func(app.Msg)) {
	if ctx == nil {
		ctx = context.Background()
	}
	keyReaderOnce.Do(func() {
		stdinFD := int(os.Stdin.Fd())
		if !term.IsTerminal(stdinFD) {
			logs.LogV("[keys] reader disabled: stdin is not a TTY")
			return
		}
		oldState, err := term.MakeRaw(stdinFD)
		if err != nil {
			logs.LogV("[keys] reader disabled: %v", err)
			return
		}
		go func() {
			<-ctx.Done()
			_ = term.Restore(stdinFD, oldState)
		}()
		go keyEventLoop(post)
	})
}

func keyEventLoop(post func(app.Msg)) {
	reader := bufio.NewReader(os.Stdin)
	for {
		b, err := reader.ReadByte()
		if err != nil {
			return
		}
		if m := messageForKey(b); m != nil {
			post(m)
			if _, quit := m.(app.QuitMsg); quit {
				return
			}
		}
	}
}

func messageForKey(b byte) app.Msg {
	switch b {
	case 'q', 'Q', 0x03: // Ctrl-C
		return app.QuitMsg{}
	case ' ':
		return app.ToggleCaptureMsg{}
	case 'c', 'C':
		return app.ToggleColorMsg{}
	case ']':
		return app.NextPaletteMsg{}
	case '[':
		return app.PrevPaletteMsg{}
	case '+', '=':
		return app.ScaleUpMsg{}
	case '-', '_':
		return app.ScaleDownMsg{}
	case 'n', 'N':
		return app.NextDeviceMsg{}
	case 'p', 'P':
		return app.PrevDeviceMsg{}
	case '?', 'h', 'H':
		return app.ToggleHelpMsg{}
	case 'r', 'R':
		return app.ClearScreenMsg{}
	default:
		return nil
	}
}
