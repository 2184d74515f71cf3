package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ColonelBlimp/cwtrainer/internal/config"
	"github.com/ColonelBlimp/cwtrainer/internal/driver"
	"github.com/ColonelBlimp/cwtrainer/internal/store"
	"github.com/ColonelBlimp/cwtrainer/internal/trainer"
	"github.com/ColonelBlimp/cwtrainer/internal/tui"
)

var (
	trainSelection selectionFlags
	trainUser      string
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Open the interactive trainer",
	Long: `Open the full-screen trainer. ctrl+s starts and stops playback, tab cycles
modes and the arrow keys change speed and tone. With --user, finished runs
are saved to that account.`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().StringVarP(&trainUser, "user", "u", "", "record results for this account")
	trainCmd.Flags().StringP("mode", "m", "normal", "initial mode: normal, words, challenge, weak_spots, speed_test, time_attack")
	trainCmd.Flags().Bool("training", true, "wait for and score answers")
	viper.BindPFlag("mode", trainCmd.Flags().Lookup("mode"))
	viper.BindPFlag("training", trainCmd.Flags().Lookup("training"))
	trainSelection.register(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	logger, closeLog, err := setupLogging(settings, true)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(settings, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var (
		st       *store.Store
		user     store.User
		recorder *trackingRecorder
	)
	if trainUser != "" {
		st, err = store.Open(settings.Database())
		if err != nil {
			return err
		}
		defer st.Close()
		password, err := readPassword(cmd, "Password for "+trainUser+": ", false)
		if err != nil {
			return err
		}
		user, err = st.Authenticate(ctx, trainUser, password)
		if err != nil {
			return err
		}
		recorder = &trackingRecorder{inner: st.Recorder(user.ID)}
	}

	opts, err := a.sessionOptions()
	if err != nil {
		return err
	}
	session, err := trainer.New(opts)
	if err != nil {
		return err
	}

	sender := &programSender{}
	drvOpts := driver.Options{
		Logger:  logger,
		OnPanic: a.cleanup,
		OnFinish: func(ach trainer.Achievement, ok bool) {
			saved := recorder != nil && recorder.takeSaved()
			if ok && settings.Notify {
				notifyFinished(ach, logger)
			}
			sender.Send(tui.FinishedMsg{Achievement: ach, OK: ok, Saved: saved})
		},
	}
	if recorder != nil {
		drvOpts.Recorder = recorder
	}
	drv, err := driver.New(session, a.renderer, a.surface(ctx, tui.Surface(sender)), drvOpts)
	if err != nil {
		return err
	}
	defer drv.Stop()

	tuiOpts := tui.Options{
		Selection: trainSelection.resolve(a.alphabet, settings.Selection, logger),
		Debug:     settings.Debug,
		Context:   ctx,
	}
	if st != nil {
		tuiOpts.User = user.Username
		tuiOpts.Best = bestLine(ctx, st, user.ID, logger)
	}

	program := tea.NewProgram(tui.New(session, drv, tuiOpts), tea.WithAltScreen(), tea.WithContext(ctx))
	sender.set(program)

	config.Watch(func(s *config.Settings) {
		if err := session.SetFrequency(s.ToneFrequency); err != nil {
			logger.Warn("config reload", "key", "tone_frequency", "err", err)
		}
		if err := session.SetSpeed(s.Speed); err != nil && !errors.Is(err, trainer.ErrSpeedLocked) {
			logger.Warn("config reload", "key", "speed", "err", err)
		}
		sender.Send(tui.RefreshMsg{})
	}, func(err error) {
		logger.Warn("config reload rejected", "err", err)
	})

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// programSender forwards messages once the program exists. Messages sent
// before that are dropped; the first frame is drawn from the session anyway.
type programSender struct {
	mu sync.Mutex
	p  *tea.Program
}

func (s *programSender) set(p *tea.Program) {
	s.mu.Lock()
	s.p = p
	s.mu.Unlock()
}

func (s *programSender) Send(msg tea.Msg) {
	s.mu.Lock()
	p := s.p
	s.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// trackingRecorder remembers whether the last run was stored so the UI
// can say so.
type trackingRecorder struct {
	inner driver.Recorder
	saved bool
}

func (r *trackingRecorder) Record(ctx context.Context, a trainer.Achievement) error {
	err := r.inner.Record(ctx, a)
	r.saved = err == nil
	return err
}

// takeSaved runs on the driver goroutine right after Record.
func (r *trackingRecorder) takeSaved() bool {
	saved := r.saved
	r.saved = false
	return saved
}

func bestLine(ctx context.Context, st *store.Store, userID int64, logger *slog.Logger) func(trainer.Mode) string {
	return func(mode trainer.Mode) string {
		rec, ok, err := st.BestResult(ctx, userID, mode)
		if err != nil {
			logger.Warn("best result lookup", "mode", mode, "err", err)
			return ""
		}
		if !ok {
			return "no results yet"
		}
		return describeRecord(rec)
	}
}

func describeRecord(rec store.Record) string {
	switch rec.Mode {
	case trainer.ModeSpeedTest:
		return fmt.Sprintf("%.1f WPM, %.1f%% in %s", rec.WPM, rec.Accuracy, rec.Elapsed.Round(100*time.Millisecond))
	case trainer.ModeTimeAttack:
		return fmt.Sprintf("score %d, %.1f%%, %.1f WPM", rec.Score, rec.Accuracy, rec.WPM)
	default:
		return fmt.Sprintf("score %d, %.1f%%", rec.Score, rec.Accuracy)
	}
}

// notifyFinished raises a desktop notification for the timed tests.
func notifyFinished(a trainer.Achievement, logger *slog.Logger) {
	if a.Mode != trainer.ModeSpeedTest && a.Mode != trainer.ModeTimeAttack {
		return
	}
	msg := fmt.Sprintf("Score %d, %.1f WPM, %.1f%% accuracy", a.Score, a.WPM, a.Accuracy)
	if err := beeep.Notify("CW Trainer: "+a.Mode.Title()+" finished", msg, ""); err != nil {
		logger.Warn("desktop notification", "err", err)
	}
}
