package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const FileName = "audiometer.yaml"

type AudioConfig struct {
	Backend    string `yaml:"backend" validate:"oneof=malgo simulated"`
	SampleRate int    `yaml:"sample_rate" validate:"gte=8000,lte=192000"`
	Device     string `yaml:"device" validate:"max=256"`
}

type ResponseConfig struct {
	Backend    string `yaml:"backend" validate:"oneof=keyboard serial simulated"`
	SerialPort string `yaml:"serial_port" validate:"required_if=Backend serial,max=256"`
	BaudRate   int    `yaml:"baud_rate" validate:"omitempty,gte=300,lte=921600"`
}

type SimulationConfig struct {
	ThresholdDB float64 `yaml:"threshold_db" validate:"gte=-10,lte=120"`
}

type ArchiveConfig struct {
	Bucket          string `yaml:"bucket" validate:"max=255"`
	Prefix          string `yaml:"prefix" validate:"max=512"`
	Endpoint        string `yaml:"endpoint" validate:"omitempty,url"`
	Region          string `yaml:"region" validate:"max=64"`
	AccessKeyID     string `yaml:"access_key_id" validate:"max=256"`
	SecretAccessKey string `yaml:"secret_access_key" validate:"max=256"`
}

// IsConfigured reports whether records should be archived to S3.
func (a ArchiveConfig) IsConfigured() bool {
	return a.Bucket != "" && a.AccessKeyID != "" && a.SecretAccessKey != ""
}

type Config struct {
	DataDir string `yaml:"-"`
	DBPath  string `yaml:"-"`

	Headphone        string  `yaml:"headphone" validate:"required,max=128"`
	UseCalibration   bool    `yaml:"use_calibration"`
	SignalDurationMS int     `yaml:"signal_duration_ms" validate:"gte=100,lte=10000"`
	StartLevel       float64 `yaml:"start_level" validate:"gte=-10,lte=120"`
	MinLevel         float64 `yaml:"min_level" validate:"gte=-20,lte=120"`
	MaxLevel         float64 `yaml:"max_level" validate:"gtfield=MinLevel,lte=130"`
	SkipLevel        int     `yaml:"skip_level" validate:"gte=-10,lte=120"`
	ScreeningLevel   int     `yaml:"screening_level" validate:"gte=-10,lte=120"`
	Seed             uint64  `yaml:"seed"`
	TestMode         bool    `yaml:"test_mode"`
	LogLevel         string  `yaml:"log_level" validate:"oneof=trace debug info warn error"`
	LogJSON          bool    `yaml:"log_json"`

	// ScreeningLevels overrides ScreeningLevel per frequency in Hz.
	ScreeningLevels map[int]int `yaml:"screening_levels" validate:"dive,keys,oneof=125 250 500 1000 2000 4000 8000,endkeys,gte=-10,lte=120"`

	Audio      AudioConfig      `yaml:"audio"`
	Response   ResponseConfig   `yaml:"response"`
	Simulation SimulationConfig `yaml:"simulation"`
	Archive    ArchiveConfig    `yaml:"archive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func Default(dataDir string) Config {
	return Config{
		DataDir:          dataDir,
		DBPath:           filepath.Join(dataDir, ".audiometer", "audiometer.db"),
		Headphone:        "Sennheiser_HDA200",
		UseCalibration:   true,
		SignalDurationMS: 1000,
		StartLevel:       40,
		MinLevel:         -10,
		MaxLevel:         100,
		SkipLevel:        20,
		ScreeningLevel:   20,
		LogLevel:         "info",
		Audio:            AudioConfig{Backend: "malgo", SampleRate: 44100},
		Response:         ResponseConfig{Backend: "keyboard", BaudRate: 9600},
		Simulation:       SimulationConfig{ThresholdDB: 25},
	}
}

// New loads dataDir/audiometer.yaml (or configPath when set) over the
// defaults. A missing default file is not an error.
func New(dataDir, configPath string) (Config, error) {
	if strings.TrimSpace(dataDir) == "" {
		return Config{}, fmt.Errorf("data directory is required")
	}
	cfg := Default(dataDir)

	path := configPath
	explicit := path != ""
	if !explicit {
		path = filepath.Join(dataDir, FileName)
	}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
