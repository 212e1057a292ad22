package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	hclog "github.com/hashicorp/go-hclog"

	audiograminadapter "audiometer/internal/modules/audiogram/adapter/in"
	audiogramoutadapter "audiometer/internal/modules/audiogram/adapter/out"
	audiogram "audiometer/internal/modules/audiogram/domain"
	audiogramout "audiometer/internal/modules/audiogram/port/out"
	audiogramservice "audiometer/internal/modules/audiogram/service"
	audiogramusecase "audiometer/internal/modules/audiogram/usecase"
	calibrationinadapter "audiometer/internal/modules/calibration/adapter/in"
	calibrationoutadapter "audiometer/internal/modules/calibration/adapter/out"
	calibrationin "audiometer/internal/modules/calibration/port/in"
	calibrationservice "audiometer/internal/modules/calibration/service"
	calibrationusecase "audiometer/internal/modules/calibration/usecase"
	procedureinadapter "audiometer/internal/modules/procedure/adapter/in"
	procedureoutadapter "audiometer/internal/modules/procedure/adapter/out"
	proceduredomain "audiometer/internal/modules/procedure/domain"
	procedureusecase "audiometer/internal/modules/procedure/usecase"
	sessioninadapter "audiometer/internal/modules/session/adapter/in"
	sessionoutadapter "audiometer/internal/modules/session/adapter/out"
	sessionin "audiometer/internal/modules/session/port/in"
	sessionservice "audiometer/internal/modules/session/service"
	sessionusecase "audiometer/internal/modules/session/usecase"
	stimulusinadapter "audiometer/internal/modules/stimulus/adapter/in"
	stimulusoutadapter "audiometer/internal/modules/stimulus/adapter/out"
	stimulusout "audiometer/internal/modules/stimulus/port/out"
	stimulusservice "audiometer/internal/modules/stimulus/service"
	stimulususecase "audiometer/internal/modules/stimulus/usecase"
	"audiometer/internal/platform/clock"
	"audiometer/internal/platform/config"
	"audiometer/internal/platform/id"
	"audiometer/internal/platform/logging"
	uiapp "audiometer/internal/ui/app"
)

type App struct {
	Config config.Config
	Logger hclog.Logger

	RecordCLI      audiograminadapter.CLIHandler
	CalibrationCLI calibrationinadapter.CLIHandler
	SessionCLI     sessioninadapter.CLIHandler
	StimulusCLI    stimulusinadapter.CLIHandler
	ProcedureCLI   procedureinadapter.CLIHandler

	// Keys is set when responses come from the keyboard.
	Keys *stimulusoutadapter.KeySensor

	closers []io.Closer
}

// New wires the application. Without devices the audio output and the
// response sensor are backed by the simulated listener, which is enough for
// commands that never present a tone.
func New(cfg config.Config, devices bool) (*App, error) {
	if !devices {
		cfg.Audio.Backend = "simulated"
		cfg.Response.Backend = "simulated"
	}
	return NewWithLogger(cfg, logging.New(cfg.LogLevel, cfg.LogJSON, os.Stderr))
}

func NewWithLogger(cfg config.Config, logger hclog.Logger) (*App, error) {
	logger = logging.OrNull(logger)
	clk := clock.SystemClock{}
	app := &App{Config: cfg, Logger: logger}

	recordIndex, err := audiogramoutadapter.NewSQLiteRecordIndex(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("new record index: %w", err)
	}
	var archiver audiogramout.Archiver
	if cfg.Archive.IsConfigured() {
		archiver = audiogramoutadapter.NewS3Archiver(audiogramoutadapter.S3Options{
			Bucket:          cfg.Archive.Bucket,
			Prefix:          cfg.Archive.Prefix,
			Endpoint:        cfg.Archive.Endpoint,
			Region:          cfg.Archive.Region,
			AccessKeyID:     cfg.Archive.AccessKeyID,
			SecretAccessKey: cfg.Archive.SecretAccessKey,
		})
	}
	recordUC := audiogramusecase.NewInteractor(audiogramservice.NewRecordService(
		clk,
		audiogramoutadapter.NewCSVRecordStore(),
		recordIndex,
		archiver,
		audiogramoutadapter.NewFileSettingsStore(cfg.DataDir),
		filepath.Join(cfg.DataDir, "records"),
		logger,
	))

	sessionUC := sessionusecase.NewInteractor(
		sessionservice.NewSessionService(clk, id.UUID{}, sessionoutadapter.NewNoteSessionStore()),
		recordUC,
		sessionoutadapter.NewFileActiveSessionStore(cfg.DataDir),
	)

	// The simulated listener converts its threshold through the calibration
	// of the active session, so calibrationUC is bound after construction.
	var calibrationUC calibrationin.Usecase
	audio, sensor, err := app.newDevices(cfg, logger, func(levelHL float64, frequency int, ear audiogram.Ear) (float64, error) {
		return driveLevel(sessionUC, calibrationUC, cfg, levelHL, frequency, ear)
	})
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	profileStore, err := calibrationoutadapter.NewSQLiteProfileStore(cfg.DBPath)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("new calibration store: %w", err)
	}
	calibrationUC = calibrationusecase.NewInteractor(
		calibrationservice.NewCalibration(audio, profileStore, logger),
		calibrationoutadapter.NewCSVReferenceSource(filepath.Join(cfg.DataDir, ".audiometer", "retspl.csv")),
		profileStore,
	)

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	presenter := stimulusservice.NewPresenter(audio, sensor, clk, rand.New(rand.NewPCG(seed, 0)), logger)
	stimulusUC := stimulususecase.NewInteractor(presenter)

	procedureUC := procedureusecase.NewInteractor(
		procedureoutadapter.NewSessionAdapter(sessionUC),
		procedureoutadapter.NewCalibrationAdapter(calibrationUC),
		procedureoutadapter.NewRecordAdapter(recordUC),
		procedureoutadapter.NewStimulusAdapter(stimulusUC),
		procedureSettings(cfg),
		cfg.TestMode,
		logger.Named("procedure"),
	)

	app.RecordCLI = audiograminadapter.NewCLIHandler(recordUC)
	app.CalibrationCLI = calibrationinadapter.NewCLIHandler(calibrationUC)
	app.SessionCLI = sessioninadapter.NewCLIHandler(sessionUC)
	app.StimulusCLI = stimulusinadapter.NewCLIHandler(stimulusUC)
	app.ProcedureCLI = procedureinadapter.NewCLIHandler(procedureUC)
	return app, nil
}

func (a *App) newDevices(cfg config.Config, logger hclog.Logger, drive stimulusoutadapter.DriveLevelFunc) (stimulusout.AudioOutput, stimulusout.ResponseSensor, error) {
	var listener *stimulusoutadapter.SimulatedListener
	if cfg.Audio.Backend == "simulated" || cfg.Response.Backend == "simulated" {
		listener = stimulusoutadapter.NewSimulatedListener(cfg.Simulation.ThresholdDB, drive, logger)
	}

	var audio stimulusout.AudioOutput
	switch cfg.Audio.Backend {
	case "simulated":
		audio = listener.Output()
	default:
		out, err := stimulusoutadapter.NewMalgoOutput(cfg.Audio.SampleRate, cfg.Audio.Device, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open audio output: %w", err)
		}
		a.closers = append(a.closers, out)
		audio = out
	}

	var sensor stimulusout.ResponseSensor
	switch cfg.Response.Backend {
	case "simulated":
		sensor = listener.Sensor()
	case "serial":
		port, err := stimulusoutadapter.NewSerialSensor(cfg.Response.SerialPort, cfg.Response.BaudRate, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open response button: %w", err)
		}
		a.closers = append(a.closers, port)
		sensor = port
	default:
		a.Keys = stimulusoutadapter.NewKeySensor()
		sensor = a.Keys
	}
	return audio, sensor, nil
}

func driveLevel(sessions sessionin.Usecase, calibration calibrationin.Usecase, cfg config.Config, levelHL float64, frequency int, ear audiogram.Ear) (float64, error) {
	ctx := context.Background()
	headphone, useCal := cfg.Headphone, cfg.UseCalibration
	if active, err := sessions.GetActive(ctx); err == nil {
		headphone, useCal = active.Headphone, active.UseCalibration
	}
	converter, err := calibration.LoadConverter(ctx, headphone, useCal)
	if err != nil {
		return 0, err
	}
	return converter.ToDriveLevel(levelHL, frequency, ear, useCal)
}

func procedureSettings(cfg config.Config) proceduredomain.Settings {
	screening := make(map[int]int, len(audiogram.Frequencies))
	for _, f := range audiogram.Frequencies {
		screening[f] = cfg.ScreeningLevel
		if level, ok := cfg.ScreeningLevels[f]; ok {
			screening[f] = level
		}
	}
	return proceduredomain.Settings{
		StartLevel:      int(cfg.StartLevel),
		MinLevel:        int(cfg.MinLevel),
		MaxLevel:        int(cfg.MaxLevel),
		SkipLevel:       cfg.SkipLevel,
		ScreeningLevels: screening,
		SignalDuration:  time.Duration(cfg.SignalDurationMS) * time.Millisecond,
		UseCalibration:  cfg.UseCalibration,
	}
}

// Close releases audio and serial devices.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// RunTUI drives one procedure run inside the terminal UI.
func RunTUI(app *App, kind string, binaural bool) (uiapp.Result, error) {
	var responder uiapp.Responder
	if app.Keys != nil {
		responder = app.Keys
	}
	model := uiapp.NewModel(app.ProcedureCLI, responder, kind, binaural, app.Config.TestMode)
	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return uiapp.Result{}, err
	}
	return final.(uiapp.Model).Result(), nil
}
