package dsp

import (
	"errors"
	"testing"
	"time"

	"github.com/ColonelBlimp/cwtrainer/internal/cw"
	"github.com/ColonelBlimp/cwtrainer/internal/synth"
)

// keyed builds a buffer of alternating tone and silence runs, starting with tone.
func keyed(runs ...time.Duration) []float32 {
	var out []float32
	for i, d := range runs {
		n := int(d.Seconds() * testSampleRate)
		if i%2 == 0 {
			out = append(out, generateSineWave(testToneFrequency, testSampleRate, n, 0.5)...)
		} else {
			out = append(out, make([]float32, n)...)
		}
	}
	return out
}

func newTestSegmenter(t *testing.T, blockSize int) *Segmenter {
	t.Helper()
	g, err := NewGoertzel(GoertzelConfig{
		TargetFrequency: testToneFrequency,
		SampleRate:      testSampleRate,
		BlockSize:       blockSize,
	})
	if err != nil {
		t.Fatalf("NewGoertzel failed: %v", err)
	}
	s, err := NewSegmenter(DefaultSegmenterConfig(), g)
	if err != nil {
		t.Fatalf("NewSegmenter failed: %v", err)
	}
	return s
}

func TestNewSegmenter_Validation(t *testing.T) {
	g := newTestGoertzel(t)
	testCases := []struct {
		name    string
		cfg     SegmenterConfig
		g       *Goertzel
		wantErr error
	}{
		{"nil goertzel", DefaultSegmenterConfig(), nil, ErrGoertzelRequired},
		{"zero threshold", SegmenterConfig{Threshold: 0, Hysteresis: 1}, g, ErrInvalidThreshold},
		{"threshold one", SegmenterConfig{Threshold: 1, Hysteresis: 1}, g, ErrInvalidThreshold},
		{"zero hysteresis", SegmenterConfig{Threshold: 0.5}, g, ErrInvalidHysteresis},
		{"negative floor", SegmenterConfig{Threshold: 0.5, Hysteresis: 1, MinLevel: -1}, g, ErrInvalidMinLevel},
		{"valid", DefaultSegmenterConfig(), g, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewSegmenter(tc.cfg, tc.g); err != tc.wantErr {
				t.Errorf("NewSegmenter() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestSegmenter_Segments(t *testing.T) {
	s := newTestSegmenter(t, 220)
	samples := keyed(40*time.Millisecond, 40*time.Millisecond, 120*time.Millisecond, 60*time.Millisecond)

	segs := s.Segments(samples)
	if len(segs) != 4 {
		t.Fatalf("got %d segments, want 4: %+v", len(segs), segs)
	}

	wantTone := []bool{true, false, true, false}
	wantDur := []time.Duration{40 * time.Millisecond, 40 * time.Millisecond, 120 * time.Millisecond, 60 * time.Millisecond}
	rate := testSampleRate
	blockDur := time.Duration(220 / rate * float64(time.Second))
	for i, seg := range segs {
		if seg.Tone != wantTone[i] {
			t.Errorf("segment %d Tone = %v, want %v", i, seg.Tone, wantTone[i])
		}
		if diff := seg.Duration - wantDur[i]; diff > blockDur || diff < -blockDur {
			t.Errorf("segment %d Duration = %v, want %v within one block", i, seg.Duration, wantDur[i])
		}
	}
	if segs[0].Start != 0 {
		t.Errorf("first segment starts at %v, want 0", segs[0].Start)
	}
}

func TestSegmenter_Silence(t *testing.T) {
	s := newTestSegmenter(t, 441)
	segs := s.Segments(make([]float32, 441*10))
	if len(segs) != 1 || segs[0].Tone {
		t.Fatalf("Segments(silence) = %+v, want one silent segment", segs)
	}
	if len(Marks(segs)) != 0 {
		t.Error("silence should have no marks")
	}
	if got := s.Segments(make([]float32, 100)); got != nil {
		t.Errorf("Segments(short) = %+v, want nil", got)
	}
}

func TestSegmenter_HysteresisIgnoresGlitch(t *testing.T) {
	g := newTestGoertzel(t)
	s, err := NewSegmenter(SegmenterConfig{Threshold: 0.5, Hysteresis: 2}, g)
	if err != nil {
		t.Fatalf("NewSegmenter failed: %v", err)
	}
	// One 10ms block of silence inside a long tone.
	samples := keyed(100*time.Millisecond, 10*time.Millisecond, 100*time.Millisecond)

	if marks := Marks(s.Segments(samples)); len(marks) != 1 {
		t.Errorf("got %d marks, want the dropout bridged into 1", len(marks))
	}
}

func TestClassify(t *testing.T) {
	dit := 80 * time.Millisecond
	marks := []Segment{
		{Tone: true, Duration: 70 * time.Millisecond},
		{Tone: true, Duration: 230 * time.Millisecond},
		{Tone: true, Duration: 159 * time.Millisecond},
	}
	got, err := Classify(marks, dit)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if got.String() != ".-." {
		t.Errorf("Classify() = %s, want .-.", got)
	}

	if _, err := Classify(nil, dit); err != cw.ErrEmptyPattern {
		t.Errorf("Classify(nil) error = %v, want %v", err, cw.ErrEmptyPattern)
	}
	if _, err := Classify(marks, 0); err != ErrInvalidDit {
		t.Errorf("Classify(dit=0) error = %v, want %v", err, ErrInvalidDit)
	}
	if _, err := Classify([]Segment{{Tone: false, Duration: dit}}, dit); err == nil {
		t.Error("Classify(silence) should fail")
	}
}

func TestVerify_RenderedAlphabet(t *testing.T) {
	s, err := synth.New(synth.DefaultConfig())
	if err != nil {
		t.Fatalf("synth.New() error = %v", err)
	}
	alphabet := cw.Default()

	for _, speed := range []float64{cw.MinSpeed, 1.5, cw.MaxSpeed} {
		for _, e := range alphabet.Entries() {
			plan := alphabet.Plan(e.Symbol, speed)
			pcm, err := s.Render(plan, testToneFrequency)
			if err != nil {
				t.Fatalf("Render(%s) error = %v", e.Symbol, err)
			}
			if _, err := Verify(pcm, synth.DefaultSampleRate, testToneFrequency, e.Pattern, plan.Dit); err != nil {
				t.Errorf("speed %.1f symbol %s: %v", speed, e.Symbol, err)
			}
		}
	}
}

func TestVerify_WrongPatternOrFrequency(t *testing.T) {
	s, err := synth.New(synth.DefaultConfig())
	if err != nil {
		t.Fatalf("synth.New() error = %v", err)
	}
	alphabet := cw.Default()
	plan := alphabet.Plan("Б", 1.0)
	pcm, err := s.Render(plan, testToneFrequency)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	other, _ := alphabet.Lookup("В")
	heard, err := Verify(pcm, synth.DefaultSampleRate, testToneFrequency, other.Pattern, plan.Dit)
	if !errors.Is(err, ErrPatternMismatch) {
		t.Errorf("Verify(wrong pattern) error = %v, want %v", err, ErrPatternMismatch)
	}
	if b, _ := alphabet.Lookup("Б"); heard.String() != b.Pattern.String() {
		t.Errorf("heard %s, want %s", heard, b.Pattern)
	}

	b, _ := alphabet.Lookup("Б")
	if _, err := Verify(pcm, synth.DefaultSampleRate, 1200, b.Pattern, plan.Dit); !errors.Is(err, cw.ErrEmptyPattern) {
		t.Errorf("Verify(wrong frequency) error = %v, want %v", err, cw.ErrEmptyPattern)
	}
}
