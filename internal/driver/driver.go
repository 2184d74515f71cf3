// internal/driver/driver.go
// Package driver runs the playback loop: it asks the session for the next
// unit, renders it, hands the asset to a surface and waits for the answer.
package driver

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ColonelBlimp/cwtrainer/internal/cw"
	"github.com/ColonelBlimp/cwtrainer/internal/recovery"
	"github.com/ColonelBlimp/cwtrainer/internal/synth"
	"github.com/ColonelBlimp/cwtrainer/internal/trainer"
)

const (
	// InitialPreRoll is the wait after surfacing one of the first symbols of a run
	InitialPreRoll = 300 * time.Millisecond
	// PreRoll is the wait after surfacing any later symbol
	PreRoll = 150 * time.Millisecond
	// InitialSymbols is how many symbols get the longer pre-roll
	InitialSymbols = 3
	// CharacterPause is added after a symbol when answers are not checked
	CharacterPause = 250 * time.Millisecond
	// LetterPause is added between the letters of a word
	LetterPause = 100 * time.Millisecond
	// TickInterval is how often the time attack countdown is refreshed
	TickInterval = 100 * time.Millisecond
)

var (
	// ErrAlreadyRunning indicates Start was called while the worker is active
	ErrAlreadyRunning = errors.New("driver already running")
	// ErrNilSession indicates the driver was built without a session
	ErrNilSession = errors.New("driver requires a session")
	// ErrNilRenderer indicates the driver was built without a renderer
	ErrNilRenderer = errors.New("driver requires a renderer")
)

// Renderer turns a symbol into a playable asset.
type Renderer interface {
	Render(symbol string, speed, frequency float64) (*synth.Asset, error)
}

// Surface presents assets and refreshes whatever shows the session state.
// Present must not block for the length of the audio.
type Surface interface {
	Present(asset *synth.Asset) error
	Update()
}

// Recorder persists the achievement of a finished run.
type Recorder interface {
	Record(ctx context.Context, a trainer.Achievement) error
}

// Options holds the optional collaborators of a Driver.
type Options struct {
	Recorder Recorder
	// OnFinish is called once per run after the achievement was recorded.
	// ok is false when the run produced no achievement.
	OnFinish func(a trainer.Achievement, ok bool)
	// OnPanic runs before the process exits on a worker panic
	OnPanic      func()
	Logger       *slog.Logger
	TickInterval time.Duration
	// Sleep waits for d or until ctx is done; tests replace it
	Sleep func(ctx context.Context, d time.Duration) error
}

// Driver owns the playback worker for one session.
type Driver struct {
	session  *trainer.Session
	renderer Renderer
	surface  Surface
	opts     Options
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New validates the collaborators and returns an idle Driver.
// A nil surface discards assets.
func New(session *trainer.Session, renderer Renderer, surface Surface, opts Options) (*Driver, error) {
	if session == nil {
		return nil, ErrNilSession
	}
	if renderer == nil {
		return nil, ErrNilRenderer
	}
	if surface == nil {
		surface = Discard
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = TickInterval
	}
	if opts.Sleep == nil {
		opts.Sleep = Sleep
	}
	return &Driver{
		session:  session,
		renderer: renderer,
		surface:  surface,
		opts:     opts,
		logger:   opts.Logger.With("component", "driver"),
	}, nil
}

// Start runs the loop on a worker goroutine. The session must already be started.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done != nil {
		select {
		case <-d.done:
		default:
			return ErrAlreadyRunning
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	d.cancel = cancel
	d.done = done

	go func() {
		defer recovery.HandlePanicFunc(d.opts.OnPanic)
		defer close(done)
		defer cancel()
		d.Run(ctx)
	}()
	return nil
}

// Stop stops the session and waits for the worker to exit.
func (d *Driver) Stop() {
	d.session.Stop()
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Done is closed when the current worker exits. It is nil before Start.
func (d *Driver) Done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}

// Run plays units until the session stops or ctx is cancelled. It stops
// the session on exit and reports the run's achievement.
func (d *Driver) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
		d.finish(ctx)
	}()

	training := d.session.Training()
	if training && d.session.Mode() == trainer.ModeTimeAttack {
		wg.Add(1)
		go func() {
			defer recovery.HandlePanicFunc(d.opts.OnPanic)
			defer wg.Done()
			d.tick(ctx)
		}()
	}

	d.logger.Debug("playback started", "mode", d.session.Mode(), "training", training)
	played := 0
	for {
		if ctx.Err() != nil {
			d.session.Stop()
			return
		}
		if d.session.CheckCompletion() {
			return
		}
		unit := d.session.Next()
		if unit.Empty() {
			return
		}
		d.surface.Update()

		var err error
		if unit.IsWord() {
			err = d.playWord(ctx, unit.Word)
		} else {
			played++
			err = d.playSymbol(ctx, unit.Symbol, training, played)
		}
		if err != nil {
			d.session.Stop()
			return
		}
		d.surface.Update()
	}
}

func (d *Driver) playSymbol(ctx context.Context, symbol string, training bool, played int) error {
	asset, err := d.render(symbol)
	if err != nil {
		d.logger.Warn("skipping symbol", "symbol", symbol, "err", err)
		d.session.Skip()
		return d.opts.Sleep(ctx, cw.FallbackDuration)
	}

	if training && !d.session.Arm() {
		return nil
	}
	d.present(asset)

	preRoll := PreRoll
	if played <= InitialSymbols {
		preRoll = InitialPreRoll
	}
	if err := d.opts.Sleep(ctx, preRoll); err != nil {
		return err
	}

	if training {
		return d.wait(ctx)
	}
	return d.opts.Sleep(ctx, asset.Duration+CharacterPause)
}

func (d *Driver) playWord(ctx context.Context, word string) error {
	letters := []rune(word)
	for i, r := range letters {
		if !d.session.Running() {
			return nil
		}
		asset, err := d.render(string(r))
		if err != nil {
			d.logger.Warn("skipping letter", "word", word, "letter", string(r), "err", err)
			continue
		}
		d.present(asset)
		if i < len(letters)-1 {
			if err := d.opts.Sleep(ctx, asset.Duration+LetterPause); err != nil {
				return err
			}
		}
	}

	if !d.session.Arm() {
		return nil
	}
	d.surface.Update()
	return d.wait(ctx)
}

func (d *Driver) render(symbol string) (*synth.Asset, error) {
	return d.renderer.Render(symbol, d.session.Speed(), float64(d.session.Frequency()))
}

func (d *Driver) present(asset *synth.Asset) {
	if err := d.surface.Present(asset); err != nil {
		d.logger.Warn("present asset", "symbol", asset.Symbol, "err", err)
	}
}

// wait blocks until the pending unit is answered or the session stops.
func (d *Driver) wait(ctx context.Context) error {
	select {
	case <-d.session.Answered():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Driver) tick(ctx context.Context) {
	ticker := time.NewTicker(d.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			active := d.session.Tick()
			d.surface.Update()
			if !active {
				d.logger.Debug("time attack finished")
				return
			}
		}
	}
}

func (d *Driver) finish(ctx context.Context) {
	a, ok := d.session.Achievement()
	if ok && d.opts.Recorder != nil {
		if err := d.opts.Recorder.Record(context.WithoutCancel(ctx), a); err != nil {
			d.logger.Error("record achievement", "run", a.RunID, "err", err)
		}
	}
	if ok {
		d.logger.Info("run finished", "mode", a.Mode, "score", a.Score,
			"accuracy", a.Accuracy, "wpm", a.WPM, "elapsed", a.Elapsed)
	}
	if d.opts.OnFinish != nil {
		d.opts.OnFinish(a, ok)
	}
	d.surface.Update()
}

// Sleep waits for dur or until ctx is done.
func Sleep(ctx context.Context, dur time.Duration) error {
	if dur <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
