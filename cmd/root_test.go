package cmd

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/ColonelBlimp/cwtrainer/internal/config"
	"github.com/ColonelBlimp/cwtrainer/internal/cw"
	"github.com/ColonelBlimp/cwtrainer/internal/logging"
	"github.com/ColonelBlimp/cwtrainer/internal/store"
	"github.com/ColonelBlimp/cwtrainer/internal/synth"
	"github.com/ColonelBlimp/cwtrainer/internal/trainer"
)

const testConfig = `asset_mode: inline
output: none
`

func resetViperForTest() {
	viper.Reset()
}

// setupConfig points HOME at a temp dir holding content as the user config
// and keeps the results database inside it.
func setupConfig(t *testing.T, content string) string {
	t.Helper()
	resetViperForTest()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("CWTRAINER_DB_PATH", filepath.Join(tmpDir, "results.db"))
	configDir := filepath.Join(tmpDir, ".config", config.AppName)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return tmpDir
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCmd_HasExpectedFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	tests := []struct {
		name      string
		shorthand string
	}{
		{"device", "d"},
		{"frequency", "f"},
		{"speed", "s"},
		{"debug", "D"},
		{"audio", ""},
		{"db", ""},
		{"alphabet", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := flags.Lookup(tt.name)
			if flag == nil {
				t.Errorf("flag %q not found", tt.name)
				return
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("flag %q shorthand = %q, want %q", tt.name, flag.Shorthand, tt.shorthand)
			}
			if flag.Usage == "" {
				t.Errorf("flag %q has no description", tt.name)
			}
		})
	}
}

func TestRootCmd_FlagDefaults(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	tests := []struct {
		name         string
		defaultValue string
	}{
		{"device", "-1"},
		{"frequency", "800"},
		{"speed", "1"},
		{"debug", "false"},
		{"audio", "malgo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := flags.Lookup(tt.name)
			if flag == nil {
				t.Fatalf("flag %q not found", tt.name)
			}
			if flag.DefValue != tt.defaultValue {
				t.Errorf("flag %q default = %q, want %q", tt.name, flag.DefValue, tt.defaultValue)
			}
		})
	}
}

func TestRootCmd_Properties(t *testing.T) {
	if rootCmd.Use != "cwtrainer" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "cwtrainer")
	}
	if rootCmd.Short == "" {
		t.Error("rootCmd.Short is empty")
	}
	if rootCmd.Long == "" {
		t.Error("rootCmd.Long is empty")
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	want := []string{"alphabet", "devices", "play", "render", "selftest", "stats", "train", "user"}
	var got []string
	for _, c := range rootCmd.Commands() {
		got = append(got, c.Name())
	}
	for _, name := range want {
		if !slices.Contains(got, name) {
			t.Errorf("subcommand %q not registered (have %v)", name, got)
		}
	}
}

func TestRootCmd_HelpOutput(t *testing.T) {
	resetViperForTest()

	out, err := execute(t, "", "--help")
	if err != nil {
		t.Fatalf("Execute() with --help error = %v", err)
	}
	for _, want := range []string{"cwtrainer", "--device", "train", "selftest"} {
		if !strings.Contains(out, want) {
			t.Errorf("help output should contain %q", want)
		}
	}
}

func TestInitConfig(t *testing.T) {
	setupConfig(t, "speed: 1.5\ntone_frequency: 650\n")

	// Should not panic
	initConfig()

	if viper.GetFloat64("speed") != 1.5 {
		t.Errorf("viper.GetFloat64(speed) = %v, want 1.5", viper.GetFloat64("speed"))
	}
	if viper.GetInt("tone_frequency") != 650 {
		t.Errorf("viper.GetInt(tone_frequency) = %d, want 650", viper.GetInt("tone_frequency"))
	}
}

func TestRender_WritesWAV(t *testing.T) {
	dir := setupConfig(t, testConfig)
	path := filepath.Join(dir, "a.wav")

	out, err := execute(t, "", "render", "а", "-o", path)
	if err != nil {
		t.Fatalf("render error = %v", err)
	}
	if !strings.Contains(out, "wrote "+path) {
		t.Errorf("output = %q", out)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open rendered file: %v", err)
	}
	defer f.Close()
	pcm, rate, err := synth.DecodeWAV(f)
	if err != nil {
		t.Fatalf("DecodeWAV() error = %v", err)
	}
	if rate != synth.DefaultSampleRate {
		t.Errorf("sample rate = %d, want %d", rate, synth.DefaultSampleRate)
	}
	// А is dit dah: 1 + 1 + 3 units of 80ms.
	if want := 5 * int(cw.BaseDit.Seconds()*float64(rate)); len(pcm) < want*9/10 {
		t.Errorf("samples = %d, want about %d", len(pcm), want)
	}
}

func TestRender_UnknownSymbol(t *testing.T) {
	setupConfig(t, testConfig)
	renderOutput = filepath.Join(t.TempDir(), "x.wav")

	_, err := execute(t, "", "render", "Q")
	if !errors.Is(err, synth.ErrUnknownSymbol) {
		t.Errorf("render(Q) error = %v, want %v", err, synth.ErrUnknownSymbol)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	setupConfig(t, testConfig+"tone_frequency: 5000\n")

	_, err := execute(t, "", "render", "а", "-o", filepath.Join(t.TempDir(), "a.wav"))
	if err == nil {
		t.Fatal("expected error for invalid config, got nil")
	}
	if !strings.Contains(err.Error(), "config") {
		t.Errorf("expected config error, got: %v", err)
	}
}

func TestSelftest_Passes(t *testing.T) {
	setupConfig(t, testConfig)

	out, err := execute(t, "", "selftest")
	if err != nil {
		t.Fatalf("selftest error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "0 / 40") {
		t.Errorf("selftest footer missing from output:\n%s", out)
	}
}

func TestUserCommands(t *testing.T) {
	setupConfig(t, testConfig)

	out, err := execute(t, "secret\n", "user", "add", "alice")
	if err != nil {
		t.Fatalf("user add error = %v", err)
	}
	if !strings.Contains(out, "created user alice") {
		t.Errorf("user add output = %q", out)
	}

	if _, err := execute(t, "other\n", "user", "add", "alice"); !errors.Is(err, store.ErrUserExists) {
		t.Errorf("duplicate user add error = %v, want %v", err, store.ErrUserExists)
	}
	if _, err := execute(t, "\n", "user", "add", "bob"); !errors.Is(err, store.ErrEmptyPassword) {
		t.Errorf("empty password error = %v, want %v", err, store.ErrEmptyPassword)
	}

	if _, err := execute(t, "", "user", "rename", "alice", "alicia"); err != nil {
		t.Fatalf("user rename error = %v", err)
	}
	out, err = execute(t, "", "user", "list")
	if err != nil {
		t.Fatalf("user list error = %v", err)
	}
	if !strings.Contains(out, "alicia") || strings.Contains(out, "alice ") {
		t.Errorf("user list output = %q", out)
	}

	out, err = execute(t, "", "stats", "--user", "alicia")
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}
	if !strings.Contains(out, "no results yet") {
		t.Errorf("stats output = %q", out)
	}

	if _, err := execute(t, "", "user", "delete", "alicia"); err != nil {
		t.Fatalf("user delete error = %v", err)
	}
	if _, err := execute(t, "", "stats", "--user", "alicia"); !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("stats for deleted user error = %v, want %v", err, store.ErrUserNotFound)
	}
}

func TestStats_ShowsBestAndHistory(t *testing.T) {
	dir := setupConfig(t, testConfig)

	st, err := store.Open(filepath.Join(dir, "results.db"))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}
	u, err := st.CreateUser(context.Background(), "carol", "pw")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	rec := st.Recorder(u.ID)
	for i, wpm := range []float64{14.5, 18.25} {
		a := trainer.Achievement{
			RunID:            "run-" + string(rune('a'+i)),
			Mode:             trainer.ModeSpeedTest,
			WPM:              wpm,
			Accuracy:         95,
			Elapsed:          40 * time.Second,
			SymbolsCompleted: 20,
			Correct:          20,
			Incorrect:        1,
			CreatedAt:        time.Date(2026, 3, 1+i, 10, 0, 0, 0, time.UTC),
		}
		if err := rec.Record(context.Background(), a); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}
	st.Close()
	t.Cleanup(func() { statsMode = "" })

	out, err := execute(t, "", "stats", "--user", "carol", "--mode", "speed-test")
	if err != nil {
		t.Fatalf("stats error = %v", err)
	}
	for _, want := range []string{"Results for carol", "BEST", "HISTORY", "18.2", "14.5", "Speed Test"} {
		if !strings.Contains(strings.ToUpper(out), strings.ToUpper(want)) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}
}

func TestAlphabetCmd(t *testing.T) {
	setupConfig(t, testConfig)

	out, err := execute(t, "", "alphabet")
	if err != nil {
		t.Fatalf("alphabet error = %v", err)
	}
	for _, want := range []string{"Letters", "Digits", "Ж", "...-"} {
		if !strings.Contains(out, want) {
			t.Errorf("alphabet output missing %q", want)
		}
	}
}

func TestSelectionFlags_Resolve(t *testing.T) {
	alphabet := cw.Default()
	logger := logging.New(&bytes.Buffer{}, false)

	tests := []struct {
		name       string
		flags      selectionFlags
		configured string
		want       []string
	}{
		{"configured", selectionFlags{}, "ба", []string{"Б", "А"}},
		{"flag wins", selectionFlags{symbols: "В"}, "ба", []string{"В"}},
		{"unknown dropped", selectionFlags{symbols: "аQа"}, "", []string{"А"}},
		{"digits", selectionFlags{digits: true}, "ба", alphabet.Digits()},
		{"symbols and digits", selectionFlags{symbols: "1Г", digits: true}, "", append([]string{"1", "Г"}, slices.DeleteFunc(alphabet.Digits(), func(s string) bool { return s == "1" })...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.flags.resolve(alphabet, tt.configured, logger)
			if !slices.Equal(got, tt.want) {
				t.Errorf("resolve() = %v, want %v", got, tt.want)
			}
		})
	}

	all := (&selectionFlags{}).resolve(alphabet, "", logger)
	if len(all) != alphabet.Len() {
		t.Errorf("empty selection resolved to %d symbols, want %d", len(all), alphabet.Len())
	}
	letters := (&selectionFlags{letters: true}).resolve(alphabet, "", logger)
	if !slices.Equal(letters, alphabet.Letters()) {
		t.Errorf("letters = %v", letters)
	}
}

func TestPrintSurface_Limit(t *testing.T) {
	var buf bytes.Buffer
	cancelled := false
	p := &printSurface{w: &buf, alphabet: cw.Default(), limit: 2, done: func() { cancelled = true }}

	for _, sym := range []string{"А", "Б"} {
		if err := p.Present(&synth.Asset{Symbol: sym}); err != nil {
			t.Fatalf("Present() error = %v", err)
		}
	}
	if cancelled {
		t.Error("run cancelled before the last symbol played out")
	}
	_ = p.Present(&synth.Asset{Symbol: "В"})
	if !cancelled {
		t.Error("run not cancelled after the limit")
	}
	if got := buf.String(); got != "А  .-\nБ  -...\n" {
		t.Errorf("output = %q", got)
	}
}

type fakeRecorder struct{ err error }

func (f fakeRecorder) Record(context.Context, trainer.Achievement) error { return f.err }

func TestTrackingRecorder(t *testing.T) {
	r := &trackingRecorder{inner: fakeRecorder{}}
	if err := r.Record(context.Background(), trainer.Achievement{}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if !r.takeSaved() {
		t.Error("takeSaved() = false after a successful record")
	}
	if r.takeSaved() {
		t.Error("takeSaved() should reset")
	}

	r.inner = fakeRecorder{err: errors.New("disk full")}
	_ = r.Record(context.Background(), trainer.Achievement{})
	if r.takeSaved() {
		t.Error("takeSaved() = true after a failed record")
	}
}

func TestDescribeRecord(t *testing.T) {
	tests := []struct {
		rec  store.Record
		want string
	}{
		{store.Record{Achievement: trainer.Achievement{Mode: trainer.ModeNormal, Score: 12, Accuracy: 80}}, "score 12, 80.0%"},
		{store.Record{Achievement: trainer.Achievement{Mode: trainer.ModeSpeedTest, WPM: 17.25, Accuracy: 90, Elapsed: 41234 * time.Millisecond}}, "17.2 WPM, 90.0% in 41.2s"},
		{store.Record{Achievement: trainer.Achievement{Mode: trainer.ModeTimeAttack, Score: 30, Accuracy: 75, WPM: 9}}, "score 30, 75.0%, 9.0 WPM"},
	}
	for _, tt := range tests {
		if got := describeRecord(tt.rec); got != tt.want {
			t.Errorf("describeRecord(%s) = %q, want %q", tt.rec.Mode, got, tt.want)
		}
	}
}

func TestReadLine(t *testing.T) {
	got, err := readLine(strings.NewReader("hunter2\r\nignored\n"))
	if err != nil || got != "hunter2" {
		t.Errorf("readLine() = %q, %v", got, err)
	}
	if got, err := readLine(strings.NewReader("no newline")); err != nil || got != "no newline" {
		t.Errorf("readLine(no newline) = %q, %v", got, err)
	}
	if _, err := readLine(strings.NewReader("\n")); !errors.Is(err, store.ErrEmptyPassword) {
		t.Errorf("readLine(empty) error = %v, want %v", err, store.ErrEmptyPassword)
	}
}

func TestAppSessionOptions(t *testing.T) {
	settings := &config.Settings{
		ToneFrequency:     700,
		Speed:             1.37,
		SampleRate:        44100,
		Volume:            0.5,
		FadeMS:            5,
		AssetMode:         "inline",
		MaxAssets:         10,
		Mode:              "time-attack",
		Training:          true,
		SpeedTestTarget:   15,
		TimeAttackSeconds: 30,
		Output:            config.OutputNone,
	}
	a, err := newApp(settings, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("newApp() error = %v", err)
	}
	defer a.Close()
	if a.renderer.Mode() != synth.AssetInline {
		t.Errorf("asset mode = %s, want inline", a.renderer.Mode())
	}
	if a.surface(context.Background()) == nil {
		t.Error("surface() returned nil with no output")
	}

	opts, err := a.sessionOptions()
	if err != nil {
		t.Fatalf("sessionOptions() error = %v", err)
	}
	if opts.Mode != trainer.ModeTimeAttack || opts.TimeAttack != 30*time.Second || opts.SpeedTestTarget != 15 {
		t.Errorf("sessionOptions() = %+v", opts)
	}
	if opts.Speed != cw.ClampSpeed(1.37) || opts.Frequency != 700 {
		t.Errorf("speed/frequency = %v/%d", opts.Speed, opts.Frequency)
	}
}

func TestSetupLogging_TUIDefaultsToFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	stateHome := t.TempDir()
	t.Setenv("XDG_STATE_HOME", stateHome)

	logger, closeLog, err := setupLogging(&config.Settings{}, true)
	if err != nil {
		t.Fatalf("setupLogging() error = %v", err)
	}
	logger.Warn("alphabet load failed", "path", "missing.toml")
	closeLog()

	data, err := os.ReadFile(config.DefaultLogPath())
	if err != nil {
		t.Fatalf("read default log: %v", err)
	}
	if !strings.Contains(string(data), "alphabet load failed") {
		t.Errorf("log file = %q", data)
	}

	explicit := filepath.Join(t.TempDir(), "train.log")
	logger, closeLog, err = setupLogging(&config.Settings{LogFile: explicit}, true)
	if err != nil {
		t.Fatalf("setupLogging() error = %v", err)
	}
	logger.Info("run started")
	closeLog()
	if data, err := os.ReadFile(explicit); err != nil || !strings.Contains(string(data), "run started") {
		t.Errorf("log_file not honoured: %q, %v", data, err)
	}
}
