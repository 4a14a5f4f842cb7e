// Package settings resolves and reads the device settings file holding the startup
// brightness and volume.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvVar = "SETTINGS_FILE"

	SDCardPath = "/mnt/SDCARD/system.json"
	SystemPath = "/appconfigs/system.json"

	// FlashSignature appears in the kernel log on units that keep settings on the SD card.
	FlashSignature = "[FSP] Flash is detected (0x1100, 0x68, 0x40, 0x18) ver1.1"
)

// Settings holds the two values applied once at startup. Missing values are zero.
type Settings struct {
	Brightness int
	Vol        int
}

// Probe returns the kernel log.
type Probe func(ctx context.Context) ([]byte, error)

// Dmesg runs dmesg and returns its output.
func Dmesg(ctx context.Context) ([]byte, error) {
	return exec.CommandContext(ctx, "dmesg").Output()
}

type Option func(*Loader)

func WithProbe(p Probe) Option { return func(l *Loader) { l.probe = p } }

// WithEnvFiles replaces the dotenv files consulted when SETTINGS_FILE is not set in
// the process environment.
func WithEnvFiles(files ...string) Option { return func(l *Loader) { l.envFiles = files } }

func WithLogger(logger *log.Logger) Option { return func(l *Loader) { l.log = logger } }

// Loader finds the settings file and reads it. It never fails; problems are logged and
// the affected values stay zero.
type Loader struct {
	probe    Probe
	envFiles []string
	log      *log.Logger
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		probe:    Dmesg,
		envFiles: []string{".env"},
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = log.New(io.Discard, "", 0)
	}
	return l
}

// Path returns the settings file to read: SETTINGS_FILE from the environment or a
// dotenv file, else the location selected by the kernel log probe.
func (l *Loader) Path(ctx context.Context) string {
	if p := os.Getenv(EnvVar); p != "" {
		return p
	}
	if p := l.fromEnvFiles(); p != "" {
		return p
	}
	out, err := l.probe(ctx)
	if err != nil {
		l.log.Printf("[SETTINGS] probe failed, using %s: %v", SystemPath, err)
		return SystemPath
	}
	if strings.Contains(string(out), FlashSignature) {
		return SDCardPath
	}
	return SystemPath
}

func (l *Loader) fromEnvFiles() string {
	if len(l.envFiles) == 0 {
		return ""
	}
	env, err := godotenv.Read(l.envFiles...)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			l.log.Printf("[SETTINGS] ignoring env file: %v", err)
		}
		return ""
	}
	return env[EnvVar]
}

// Load resolves the path and reads it.
func (l *Loader) Load(ctx context.Context) Settings {
	path := l.Path(ctx)
	data, err := os.ReadFile(path)
	if err != nil {
		l.log.Printf("[SETTINGS] %v", err)
		return Settings{}
	}
	s, err := Parse(data)
	if err != nil {
		l.log.Printf("[SETTINGS] %s: %v", path, err)
	}
	return s
}

// Parse reads brightness and vol from a JSON object. Each field is taken on its own, so
// a malformed value zeroes only that field; the error reports what was skipped.
func Parse(data []byte) (Settings, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	var s Settings
	var errs []error
	if raw, ok := fields["brightness"]; ok {
		v, err := number(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("brightness: %w", err))
		}
		s.Brightness = v
	}
	if raw, ok := fields["vol"]; ok {
		v, err := number(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("vol: %w", err))
		}
		s.Vol = v
	}
	return s, errors.Join(errs...)
}

// number truncates a JSON number toward zero.
func number(raw json.RawMessage) (int, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return int(f), nil
}
