package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"asciicam/app"
	"asciicam/ascii"
	"asciicam/conf"
	"asciicam/device"
	"asciicam/ui"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "[asciicam] %v\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	opts, err := conf.ParseCLI()
	if err != nil {
		return err
	}
	if opts.ShowVersion {
		fmt.Printf("asciicam %s\n", appVersion())
		return nil
	}

	driver := device.NewGocamDriver()

	if opts.ListDevices {
		return printDeviceList(driver)
	}

	logWriter, closeLog, logPath, logErr := initLogSink(opts.ConfigPath)
	if closeLog != nil {
		defer closeLog()
	}
	if logErr == nil {
		fmt.Fprintf(os.Stderr, "[asciicam] logs: %s\n", logPath)
		log.SetOutput(logWriter)
	} else {
		fmt.Fprintf(os.Stderr, "[asciicam] log file disabled (%v)\n", logErr)
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if !device.IsTerminal() {
		return fmt.Errorf("stdin/stdout must be a terminal")
	}

	appCtx, appCancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer appCancel()

	devices, err := device.ListDevices(driver)
	if err != nil {
		log.Printf("[main] device enumeration: %v", err)
	}

	palette, ok := ascii.PaletteByName(opts.Palette)
	if !ok {
		return fmt.Errorf("unknown palette %q", opts.Palette)
	}
	conv := ascii.NewConverter(palette, 80, 24)
	conv.SetScale(opts.Scale)
	if opts.Color {
		conv.ToggleColor()
	}

	cam := device.NewCamera(driver)
	defer cam.Cleanup()

	view, err := ui.NewView(appCtx)
	if err != nil {
		return err
	}
	defer view.Stop()

	loop := app.NewLoop(cam, conv, view, app.Options{
		DeviceIndex: opts.DeviceIndex,
		Width:       opts.Width,
		Height:      opts.Height,
		TickEvery:   rateToInterval(opts.TickRate),
		RenderEvery: rateToInterval(opts.FrameRate),
		Devices:     devices,
	})

	if len(devices) > 0 {
		names := make([]string, 0, len(devices))
		for _, d := range devices {
			names = append(names, fmt.Sprintf("%d: %s", d.Index, d.Name))
		}
		loop.Post(app.StatusMsg{Text: fmt.Sprintf("Found %d camera(s): %s. Press SPACE to start.",
			len(devices), strings.Join(names, ", "))})
	} else {
		loop.Post(app.StatusMsg{Text: "No cameras found"})
	}

	ui.StartKeyReader(appCtx, loop.Post)
	ui.StartSizeWatcher(appCtx, loop.Post)
	go device.RunCaptureLoop(appCtx, cam, rateToInterval(opts.FrameRate))

	if err := loop.Run(appCtx); err != nil {
		return err
	}
	log.Println("shutting down")
	return nil
}

func rateToInterval(perSecond float64) time.Duration {
	if perSecond <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / perSecond)
}

func printDeviceList(driver device.Driver) error {
	devices, err := device.ListDevices(driver)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("no cameras found")
		return nil
	}
	for _, d := range devices {
		fmt.Printf("%d: %s\n", d.Index, d.Name)
	}
	return nil
}

func initLogSink(configPath string) (io.Writer, func() error, string, error) {
	dir := filepath.Dir(configPath)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, "", err
	}
	logPath := filepath.Join(dir, "asciicam.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, logPath, err
	}
	closeFn := func() error {
		return f.Close()
	}
	return f, closeFn, logPath, nil
}

func appVersion() string {
	v := strings.TrimSpace(version)
	if v == "" {
		v = "dev"
	}
	if bi, ok := debug.ReadBuildInfo(); ok && v == "dev" {
		if ver := strings.TrimSpace(bi.Main.Version); ver != "" && ver != "(devel)" {
			return ver
		}
	}
	return v
}
