package conf

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Verbose gates logs.LogV output. Set once by ParseCLI.
var Verbose bool

// AppOptions is the resolved launch configuration: config file defaults
// overlaid with command-line flags. It is read once at startup.
type AppOptions struct {
	ConfigPath  string
	DeviceIndex int
	Width       int
	Height      int
	// TickRate and FrameRate are events per second.
	TickRate  float64
	FrameRate float64
	Palette   string
	Color     bool
	Scale     float64

	ListDevices bool
	ShowVersion bool
	Verbose     bool
}

// fileConfig mirrors the JSON config file; pointer fields distinguish "absent"
// from zero values.
type fileConfig struct {
	DeviceIndex *int     `json:"device_index,omitempty"`
	Width       *int     `json:"width,omitempty"`
	Height      *int     `json:"height,omitempty"`
	TickRate    *float64 `json:"tick_rate,omitempty"`
	FrameRate   *float64 `json:"frame_rate,omitempty"`
	Palette     *string  `json:"palette,omitempty"`
	Color       *bool    `json:"color,omitempty"`
	Scale       *float64 `json:"scale,omitempty"`
}

// ParseCLI builds AppOptions from defaults, the JSON config file and the
// command line, in that order of precedence.
func ParseCLI() (*AppOptions, error) {
	opts := &AppOptions{
		DeviceIndex: 0,
		Width:       640,
		Height:      480,
		TickRate:    4,
		FrameRate:   30,
		Palette:     "dense",
		Scale:       1.0,
	}

	args := os.Args[1:]

	// first pass: only the config path, so the file can seed the defaults
	// before the remaining flags override them
	cfgArg := ""
	for i := 0; i < len(args); i++ {
		key, val, hasVal := splitFlagToken(args[i])
		if key != "config" && key != "c" {
			continue
		}
		if !hasVal {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("flag -%s requires a value", key)
			}
			val = args[i+1]
		}
		cfgArg = val
	}

	resolved, err := resolveConfigPath(cfgArg)
	if err != nil {
		return nil, fmt.Errorf("config path error: %w", err)
	}
	opts.ConfigPath = resolved
	if err := applyConfigFile(resolved, opts); err != nil {
		return nil, err
	}

	// second pass: every other flag
	for i := 0; i < len(args); i++ {
		token := args[i]
		if !strings.HasPrefix(token, "-") {
			return nil, fmt.Errorf("unexpected positional argument %q", token)
		}
		key, val, hasVal := splitFlagToken(token)
		if flagRequiresValue(key) && !hasVal {
			i++
			if i >= len(args) {
				return nil, fmt.Errorf("flag -%s requires a value", key)
			}
			val = args[i]
		}
		if err := applyFlag(key, val, opts); err != nil {
			return nil, err
		}
	}

	if opts.Scale < 0.1 || opts.Scale > 2.0 {
		return nil, fmt.Errorf("scale %.2f out of range [0.1, 2.0]", opts.Scale)
	}
	if opts.TickRate <= 0 || opts.FrameRate <= 0 {
		return nil, fmt.Errorf("tick and frame rates must be positive")
	}

	Verbose = opts.Verbose
	return opts, nil
}

func applyFlag(key, val string, opts *AppOptions) error {
	switch key {
	case "config", "c":
		// consumed by the first pass
		return nil
	case "device", "d":
		n, err := strconv.Atoi(val)
		if err != nil || n < 0 {
			return fmt.Errorf("bad device index %q", val)
		}
		opts.DeviceIndex = n
	case "resolution", "r":
		w, h, err := parseResolution(val)
		if err != nil {
			return err
		}
		opts.Width, opts.Height = w, h
	case "tick":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("bad tick rate %q", val)
		}
		opts.TickRate = f
	case "fps":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("bad frame rate %q", val)
		}
		opts.FrameRate = f
	case "palette":
		opts.Palette = strings.ToLower(strings.TrimSpace(val))
	case "scale":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("bad scale %q", val)
		}
		opts.Scale = f
	case "color":
		opts.Color = true
	case "list", "l":
		opts.ListDevices = true
	case "verbose", "v":
		opts.Verbose = true
	case "version":
		opts.ShowVersion = true
	default:
		return fmt.Errorf("unknown flag -%s", key)
	}
	return nil
}

func flagRequiresValue(key string) bool {
	switch key {
	case "config", "c", "device", "d", "resolution", "r", "tick", "fps", "palette", "scale":
		return true
	}
	return false
}

// splitFlagToken splits "-key=value" into its parts; hasVal reports whether
// an inline value was present.
func splitFlagToken(token string) (key, val string, hasVal bool) {
	key = strings.TrimLeft(token, "-")
	if eq := strings.IndexByte(key, '='); eq >= 0 {
		return strings.ToLower(key[:eq]), key[eq+1:], true
	}
	return strings.ToLower(key), "", false
}

// parseResolution parses "WxH", e.g. "640x480".
func parseResolution(raw string) (int, int, error) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(raw)), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("bad resolution %q, want WxH", raw)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil || w <= 0 {
		return 0, 0, fmt.Errorf("bad resolution width %q", parts[0])
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil || h <= 0 {
		return 0, 0, fmt.Errorf("bad resolution height %q", parts[1])
	}
	return w, h, nil
}

// applyConfigFile overlays values from the JSON config onto opts. A missing
// file is not an error; a malformed one is.
func applyConfigFile(path string, opts *AppOptions) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := json.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if fc.DeviceIndex != nil {
		opts.DeviceIndex = *fc.DeviceIndex
	}
	if fc.Width != nil {
		opts.Width = *fc.Width
	}
	if fc.Height != nil {
		opts.Height = *fc.Height
	}
	if fc.TickRate != nil {
		opts.TickRate = *fc.TickRate
	}
	if fc.FrameRate != nil {
		opts.FrameRate = *fc.FrameRate
	}
	if fc.Palette != nil {
		opts.Palette = strings.ToLower(strings.TrimSpace(*fc.Palette))
	}
	if fc.Color != nil {
		opts.Color = *fc.Color
	}
	if fc.Scale != nil {
		opts.Scale = *fc.Scale
	}
	return nil
}

// resolveConfigPath normalizes the config file path, expanding "~", converting
// it to an absolute path, and ensuring the parent directory exists. When cfg
// is empty, it defaults to $XDG_CONFIG_HOME/asciicam/config.json or
// ~/.config/asciicam/config.json. A bare filename without an extension is
// treated as a profile name inside the default config directory.
func resolveConfigPath(cfg string) (string, error) {
	raw := strings.TrimSpace(cfg)

	switch {
	case raw == "":
		if dir, err := defaultConfigDir(); err == nil {
			raw = filepath.Join(dir, "config.json")
		} else {
			raw = "config.json"
		}
	case filepath.Base(raw) == raw && filepath.Ext(raw) == "":
		if dir, err := defaultConfigDir(); err == nil {
			raw = filepath.Join(dir, raw+".json")
		} else {
			raw = raw + ".json"
		}
	}

	if strings.HasPrefix(raw, "~/") {
		if h, err := os.UserHomeDir(); err == nil {
			raw = filepath.Join(h, raw[2:])
		}
	}
	if abs, err := filepath.Abs(raw); err == nil {
		raw = abs
	}
	if err := os.MkdirAll(filepath.Dir(raw), 0o755); err != nil {
		return "", err
	}
	return raw, nil
}

func defaultConfigDir() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "asciicam"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "asciicam"), nil
}
