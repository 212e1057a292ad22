package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"audiometer/internal/bootstrap"
	proceduredto "audiometer/internal/modules/procedure/dto"
	sessiondto "audiometer/internal/modules/session/dto"
	"audiometer/internal/platform/config"
)

const progressInterval = 50 * time.Millisecond

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	dataDir    string
	configPath string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "audiometer",
		Short:         "Pure-tone audiometry in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.dataDir, "data", ".", "data directory")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (defaults to <data>/audiometer.yaml)")

	root.AddCommand(newSessionCmd(flags))
	root.AddCommand(newRunCmd(flags))
	root.AddCommand(newCalibrateCmd(flags))
	root.AddCommand(newCalibrationCmd(flags))
	root.AddCommand(newRecordCmd(flags))
	root.AddCommand(newSettingsCmd(flags))
	root.AddCommand(newHeadphonesCmd(flags))
	root.AddCommand(newToneCmd(flags))
	return root
}

func loadApp(flags *rootFlags, devices bool) (*bootstrap.App, error) {
	cfg, err := config.New(flags.dataDir, flags.configPath)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg, devices)
}

func newSessionCmd(flags *rootFlags) *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Test session lifecycle"}

	var subjectID, headphone string
	var attrs []string
	var noCalibration bool
	start := &cobra.Command{
		Use:   "start --subject <id>",
		Short: "Start a session for a subject",
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := parseAttributes(attrs)
			if err != nil {
				return err
			}
			app, err := loadApp(flags, false)
			if err != nil {
				return err
			}
			defer app.Close()
			if headphone == "" {
				headphone = app.Config.Headphone
			}
			useCal := app.Config.UseCalibration && !noCalibration
			out, err := app.SessionCLI.Start(cmd.Context(), subjectID, parsed, headphone, useCal)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session started: %s subject=%q headphone=%s calibration=%t at=%s\n", out.SessionID, out.SubjectID, headphone, useCal, out.StartedAt.Format(time.RFC3339))
			return nil
		},
	}
	start.Flags().StringVar(&subjectID, "subject", "", "subject id (empty for anonymous)")
	start.Flags().StringArrayVar(&attrs, "attr", nil, "subject attribute key=value (repeatable)")
	start.Flags().StringVar(&headphone, "headphone", "", "headphone model (defaults to config)")
	start.Flags().BoolVar(&noCalibration, "no-calibration", false, "ignore the stored calibration profile")

	var sessionID, outcome string
	end := &cobra.Command{
		Use:   "end --outcome <text>",
		Short: "End the active session and write its note",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags, false)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.SessionCLI.End(cmd.Context(), sessionID, outcome)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session ended: %s subject=%q duration=%dmin note=%s\n", out.SessionID, out.SubjectID, out.DurationMin, out.Path)
			return nil
		},
	}
	end.Flags().StringVar(&sessionID, "session-id", "", "optional session id (defaults to active session)")
	end.Flags().StringVar(&outcome, "outcome", "", "session outcome")

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the active session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags, false)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.SessionCLI.GetActive(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "session: %s\nsubject: %q\nheadphone: %s\ncalibration: %t\nstarted: %s\n", out.SessionID, out.SubjectID, out.Headphone, out.UseCalibration, out.StartedAt.Format(time.RFC3339))
			for _, a := range out.Attributes {
				_, _ = fmt.Fprintf(w, "%s: %s\n", a.Key, a.Value)
			}
			return nil
		},
	}

	session.AddCommand(start, end, show)
	return session
}

func parseAttributes(raw []string) ([]sessiondto.Attribute, error) {
	out := make([]sessiondto.Attribute, 0, len(raw))
	for _, item := range raw {
		k, v, ok := strings.Cut(item, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("attribute %q: expected key=value", item)
		}
		out = append(out, sessiondto.Attribute{Key: strings.TrimSpace(k), Value: strings.TrimSpace(v)})
	}
	return out, nil
}

func newRunCmd(flags *rootFlags) *cobra.Command {
	var binaural, tui bool
	run := &cobra.Command{
		Use:       "run <familiarization|threshold|screening>",
		Short:     "Run a test procedure for the active session",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"familiarization", "threshold", "screening"},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(flags, true)
			if err != nil {
				return err
			}
			defer app.Close()

			if tui {
				result, err := bootstrap.RunTUI(app, args[0], binaural)
				if err != nil {
					return err
				}
				if result.Aborted {
					return fmt.Errorf("procedure aborted")
				}
				if result.Err != nil {
					return result.Err
				}
				return printRun(cmd.OutOrStdout(), result.Output)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if app.Keys != nil {
				go forwardEnter(ctx, cmd.InOrStdin(), app.Keys.Press)
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "press enter whenever you hear a tone")
			}
			out, err := runWithProgress(ctx, app, args[0], binaural, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return printRun(cmd.OutOrStdout(), out)
		},
	}
	run.Flags().BoolVar(&binaural, "binaural", false, "test both ears at once")
	run.Flags().BoolVar(&tui, "tui", false, "show the terminal UI")
	return run
}

func runWithProgress(ctx context.Context, app *bootstrap.App, kind string, binaural bool, progressOut io.Writer) (proceduredto.RunOutput, error) {
	type result struct {
		out proceduredto.RunOutput
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := app.ProcedureCLI.Run(ctx, kind, binaural)
		done <- result{out: out, err: err}
	}()

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()
	last := -1
	for {
		select {
		case r := <-done:
			_, _ = fmt.Fprintln(progressOut)
			return r.out, r.err
		case <-ticker.C:
			pct := int(app.ProcedureCLI.Progress().Value * 100)
			if pct != last {
				last = pct
				_, _ = fmt.Fprintf(progressOut, "\r%s %3d%%", kind, pct)
			}
		}
	}
}

// forwardEnter turns each line read from in into a listener response until
// ctx is done or in is exhausted. A blocked Read on in cannot be interrupted,
// so the reading goroutine itself exits at the next line or at EOF.
func forwardEnter(ctx context.Context, in io.Reader, press func() bool) {
	lines := make(chan struct{})
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-lines:
			if !ok {
				return
			}
			press()
		}
	}
}

func printRun(w io.Writer, out proceduredto.RunOutput) error {
	state := "failed"
	switch {
	case out.Skipped:
		state = "skipped"
	case out.Success:
		state = "passed"
	}
	_, _ = fmt.Fprintf(w, "%s %s subject=%q\n", out.Kind, state, out.SubjectID)
	if out.Path != "" {
		_, _ = fmt.Fprintf(w, "record: %s\n", out.Path)
	}
	if len(out.FailedEars) > 0 {
		_, _ = fmt.Fprintf(w, "failed ears: %s\n", strings.Join(out.FailedEars, ", "))
	}
	if out.Reason != "" {
		_, _ = fmt.Fprintf(w, "reason: %s\n", out.Reason)
	}
	printGrid(w, out.Frequencies, out.Left, out.Right)
	if !out.Success {
		return fmt.Errorf("%s did not pass", out.Kind)
	}
	return nil
}

func printGrid(w io.Writer, frequencies []int, left, right []string) {
	_, _ = fmt.Fprint(w, "ear")
	for _, f := range frequencies {
		_, _ = fmt.Fprintf(w, "\t%d", f)
	}
	_, _ = fmt.Fprintln(w)
	for _, row := range []struct {
		label string
		cells []string
	}{{"left", left}, {"right", right}} {
		_, _ = fmt.Fprint(w, row.label)
		for _, c := range row.cells {
			_, _ = fmt.Fprintf(w, "\t%s", c)
		}
		_, _ = fmt.Fprintln(w)
	}
}

func newCalibrateCmd(flags *rootFlags) *cobra.Command {
	var headphone string
	var startLevel float64
	calibrate := &cobra.Command{
		Use:   "calibrate",
		Short: "Measure headphone output with a sound level meter",
		Long: "Plays a continuous tone per frequency and ear. Enter the level shown on the meter,\n" +
			"'r' to replay, 'n' to move on without measuring or 's' to stop.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags, true)
			if err != nil {
				return err
			}
			defer app.Close()
			if headphone == "" {
				headphone = app.Config.Headphone
			}
			return calibrate(cmd.Context(), app, headphone, startLevel, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	calibrate.Flags().StringVar(&headphone, "headphone", "", "headphone model (defaults to config)")
	calibrate.Flags().Float64Var(&startLevel, "level", 60, "presentation level in dB HL")
	return calibrate
}

func calibrate(ctx context.Context, app *bootstrap.App, headphone string, level float64, in io.Reader, w io.Writer) error {
	step, err := app.CalibrationCLI.Begin(ctx, headphone, level)
	if err != nil {
		return err
	}
	scanner := bufio.NewScanner(in)
	for {
		_, _ = fmt.Fprintf(w, "[%d/%d] %d Hz %s ear, expected %.1f dB SPL > ", step.Position, step.Total, step.Frequency, step.Ear, step.ExpectedSPL)
		if !scanner.Scan() {
			_ = app.CalibrationCLI.Stop(ctx)
			return fmt.Errorf("calibration interrupted")
		}
		switch input := strings.TrimSpace(scanner.Text()); strings.ToLower(input) {
		case "s":
			if err := app.CalibrationCLI.Stop(ctx); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(w, "calibration stopped, nothing saved")
			return nil
		case "r":
			if step, err = app.CalibrationCLI.Repeat(ctx); err != nil {
				return err
			}
		case "", "n":
			if step, err = app.CalibrationCLI.Advance(ctx); err != nil {
				return err
			}
		default:
			m, err := app.CalibrationCLI.Measure(ctx, input)
			if err != nil {
				_, _ = fmt.Fprintf(w, "%v, try again\n", err)
				continue
			}
			_, _ = fmt.Fprintf(w, "offset %+.1f dB\n", m.Offset)
			if step, err = app.CalibrationCLI.Advance(ctx); err != nil {
				return err
			}
		}
		if step.Exhausted {
			break
		}
	}

	profile, err := app.CalibrationCLI.Finalize(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "calibration saved: %d offsets\n", len(profile.Offsets))
	return nil
}

func newCalibrationCmd(flags *rootFlags) *cobra.Command {
	calibration := &cobra.Command{Use: "calibration", Short: "Calibration profile"}
	calibration.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the stored calibration offsets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags, false)
			if err != nil {
				return err
			}
			defer app.Close()
			profile, err := app.CalibrationCLI.Profile(cmd.Context())
			if err != nil {
				return err
			}
			if len(profile.Offsets) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no calibration stored")
				return nil
			}
			for _, o := range profile.Offsets {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%+.1f\n", o.Ear, o.Frequency, o.Offset)
			}
			return nil
		},
	})
	return calibration
}

func newRecordCmd(flags *rootFlags) *cobra.Command {
	record := &cobra.Command{Use: "record", Short: "Audiogram records"}

	record.AddCommand(&cobra.Command{
		Use:   "show <subject-id>",
		Short: "Show the audiogram of a subject",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subjectID := ""
			if len(args) == 1 {
				subjectID = args[0]
			}
			app, err := loadApp(flags, false)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.RecordCLI.ShowRecord(cmd.Context(), subjectID)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "subject: %q\n", out.SubjectID)
			for _, a := range out.Attributes {
				_, _ = fmt.Fprintf(w, "%s: %s\n", a.Key, a.Value)
			}
			if !out.UpdatedAt.IsZero() {
				_, _ = fmt.Fprintf(w, "updated: %s\n", out.UpdatedAt.Format(time.RFC3339))
			}
			printGrid(w, out.Frequencies, out.Left, out.Right)
			return nil
		},
	})

	record.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags, false)
			if err != nil {
				return err
			}
			defer app.Close()
			records, err := app.RecordCLI.ListRecords(cmd.Context())
			if err != nil {
				return err
			}
			if len(records) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no records")
				return nil
			}
			for _, r := range records {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%q\t%d measured\t%d NH\t%s\t%s\n", r.SubjectID, r.Measured, r.NotHeard, r.UpdatedAt.Format(time.RFC3339), r.Path)
			}
			return nil
		},
	})
	return record
}

func newSettingsCmd(flags *rootFlags) *cobra.Command {
	settings := &cobra.Command{Use: "settings", Short: "Persistent user settings"}

	settings.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags, false)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.RecordCLI.Settings(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "save_path: %s\ntheme: %s\n", out.SavePath, out.Theme)
			return nil
		},
	})

	var savePath, theme string
	set := &cobra.Command{
		Use:   "set",
		Short: "Update settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags, false)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.RecordCLI.UpdateSettings(cmd.Context(), savePath, theme)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "save_path: %s\ntheme: %s\n", out.SavePath, out.Theme)
			return nil
		},
	}
	set.Flags().StringVar(&savePath, "save-path", "", "directory for subject records")
	set.Flags().StringVar(&theme, "theme", "", "preferred theme name")
	settings.AddCommand(set)
	return settings
}

func newHeadphonesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "headphones",
		Short: "List headphone models with reference levels",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags, false)
			if err != nil {
				return err
			}
			defer app.Close()
			models, err := app.CalibrationCLI.Headphones(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range models {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}
}

func newToneCmd(flags *rootFlags) *cobra.Command {
	var frequency int
	var amplitude float64
	var duration time.Duration
	var ear string
	tone := &cobra.Command{
		Use:   "tone",
		Short: "Present one tone and report whether a response came",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(flags, true)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if app.Keys != nil {
				go forwardEnter(ctx, cmd.InOrStdin(), app.Keys.Press)
			}
			heard, err := app.StimulusCLI.Present(ctx, frequency, 0, amplitude, duration, ear)
			if errors.Is(err, context.Canceled) {
				return fmt.Errorf("tone interrupted")
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "heard=%t\n", heard)
			return nil
		},
	}
	tone.Flags().IntVar(&frequency, "frequency", 1000, "frequency in Hz")
	tone.Flags().Float64Var(&amplitude, "amplitude", 0.05, "linear amplitude (0..1)")
	tone.Flags().DurationVar(&duration, "duration", time.Second, "tone duration")
	tone.Flags().StringVar(&ear, "ear", "left", "left|right|both")
	return tone
}
