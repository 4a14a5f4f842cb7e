package settings

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func staticProbe(out string, err error) Probe {
	return func(context.Context) ([]byte, error) { return []byte(out), err }
}

func TestPathResolution(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "app.env")
	if err := os.WriteFile(envFile, []byte("SETTINGS_FILE=/from/dotenv.json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing.env")
	kernelLog := "boot\n" + FlashSignature + "\n"

	tests := []struct {
		name    string
		env     string
		files   []string
		probe   Probe
		want    string
		wantLog string
	}{
		{name: "environment wins", env: "/custom.json", files: []string{envFile}, probe: staticProbe(FlashSignature, nil), want: "/custom.json"},
		{name: "dotenv", files: []string{envFile}, probe: staticProbe(FlashSignature, nil), want: "/from/dotenv.json"},
		{name: "flash detected", files: []string{missing}, probe: staticProbe(kernelLog, nil), want: SDCardPath},
		{name: "no signature", files: []string{missing}, probe: staticProbe("[    0.000] Booting Linux\n", nil), want: SystemPath},
		{name: "probe failure", probe: staticProbe("", errors.New("no dmesg")), want: SystemPath, wantLog: "probe failed"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(EnvVar, tc.env)
			var buf bytes.Buffer
			l := NewLoader(WithProbe(tc.probe), WithEnvFiles(tc.files...), WithLogger(log.New(&buf, "", 0)))
			if got := l.Path(context.Background()); got != tc.want {
				t.Fatalf("path = %q, want %q", got, tc.want)
			}
			if tc.wantLog != "" && !strings.Contains(buf.String(), tc.wantLog) {
				t.Fatalf("log %q missing %q", buf.String(), tc.wantLog)
			}
			if tc.wantLog == "" && buf.Len() != 0 {
				t.Fatalf("unexpected log output %q", buf.String())
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    Settings
		wantErr bool
	}{
		{name: "both fields", data: `{"brightness": 7, "vol": 20, "theme": "dark"}`, want: Settings{Brightness: 7, Vol: 20}},
		{name: "fractional truncates", data: `{"brightness": 5.9, "vol": 3.2}`, want: Settings{Brightness: 5, Vol: 3}},
		{name: "missing fields", data: `{}`, want: Settings{}},
		{name: "malformed vol", data: `{"brightness": 4, "vol": "loud"}`, want: Settings{Brightness: 4}, wantErr: true},
		{name: "not json", data: `brightness=4`, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse([]byte(tc.data))
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestLoadReadsResolvedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system.json")
	if err := os.WriteFile(path, []byte(`{"brightness": 8, "vol": 15}`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvVar, path)
	l := NewLoader(WithEnvFiles(), WithProbe(staticProbe("", errors.New("unused"))))
	if got := l.Load(context.Background()); got != (Settings{Brightness: 8, Vol: 15}) {
		t.Fatalf("got %+v", got)
	}
}

func TestLoadMissingFileYieldsZero(t *testing.T) {
	t.Setenv(EnvVar, filepath.Join(t.TempDir(), "nope.json"))
	var buf bytes.Buffer
	l := NewLoader(WithEnvFiles(), WithLogger(log.New(&buf, "", 0)))
	if got := l.Load(context.Background()); got != (Settings{}) {
		t.Fatalf("got %+v", got)
	}
	if !strings.Contains(buf.String(), "[SETTINGS]") {
		t.Fatalf("expected a settings warning, got %q", buf.String())
	}
}
