package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewUsesDefaultsWithoutFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cfg, err := New(dir, "")
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if cfg.Headphone != "Sennheiser_HDA200" || cfg.StartLevel != 40 || cfg.Audio.Backend != "malgo" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.DBPath != filepath.Join(dir, ".audiometer", "audiometer.db") {
		t.Fatalf("unexpected db path %q", cfg.DBPath)
	}
}

func TestNewOverlaysYAML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	raw := "headphone: RadioEar_DD45\nseed: 7\naudio:\n  backend: simulated\nresponse:\n  backend: serial\n  serial_port: /dev/ttyUSB0\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := New(dir, "")
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if cfg.Headphone != "RadioEar_DD45" || cfg.Seed != 7 || cfg.Audio.Backend != "simulated" || cfg.Response.SerialPort != "/dev/ttyUSB0" {
		t.Fatalf("overlay not applied: %+v", cfg)
	}
	if cfg.Audio.SampleRate != 44100 || cfg.Response.BaudRate != 9600 {
		t.Fatalf("defaults lost under overlay: %+v", cfg)
	}
}

func TestNewReadsScreeningLevels(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	raw := "screening_level: 25\nscreening_levels:\n  4000: 30\n  8000: 35\n"
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := New(dir, "")
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if cfg.ScreeningLevel != 25 || cfg.ScreeningLevels[4000] != 30 || cfg.ScreeningLevels[8000] != 35 || len(cfg.ScreeningLevels) != 2 {
		t.Fatalf("unexpected screening levels: %d %v", cfg.ScreeningLevel, cfg.ScreeningLevels)
	}
}

func TestNewRejectsInvalidValues(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"backend":     "audio:\n  backend: alsa\n",
		"serial port": "response:\n  backend: serial\n",
		"levels":      "min_level: 50\nmax_level: 40\n",
		"log level":   "log_level: loud\n",
		"screen freq": "screening_levels:\n  750: 20\n",
		"screen dB":   "screening_levels:\n  1000: 200\n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			path := filepath.Join(dir, "custom.yaml")
			if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := New(dir, path)
			if err == nil || !strings.Contains(err.Error(), "invalid config") {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestNewExplicitMissingFile(t *testing.T) {
	t.Parallel()
	if _, err := New(t.TempDir(), "/does/not/exist.yaml"); err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
	if _, err := New(" ", ""); err == nil {
		t.Fatalf("expected error for empty data dir")
	}
}

func TestArchiveIsConfigured(t *testing.T) {
	t.Parallel()
	if (ArchiveConfig{Bucket: "b"}).IsConfigured() {
		t.Fatalf("bucket alone is not enough")
	}
	if !(ArchiveConfig{Bucket: "b", AccessKeyID: "k", SecretAccessKey: "s"}).IsConfigured() {
		t.Fatalf("expected configured archive")
	}
}
