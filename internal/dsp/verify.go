package dsp

import (
	"errors"
	"fmt"
	"time"

	"github.com/ColonelBlimp/cwtrainer/internal/cw"
)

// VerifyBlock is the measurement window used by Verify
const VerifyBlock = 5 * time.Millisecond

// ErrPatternMismatch indicates the audio does not carry the expected marks
var ErrPatternMismatch = errors.New("decoded marks do not match pattern")

// Verify measures pcm at frequency and checks that its marks spell want.
// The buffer is scaled to full range first, so the output volume does not
// matter. It returns the pattern it heard.
func Verify(pcm []int16, sampleRate int, frequency float64, want cw.Pattern, dit time.Duration) (cw.Pattern, error) {
	block := int(float64(sampleRate) * VerifyBlock.Seconds())
	g, err := NewGoertzel(GoertzelConfig{
		TargetFrequency: frequency,
		SampleRate:      float64(sampleRate),
		BlockSize:       block,
	})
	if err != nil {
		return nil, err
	}
	seg, err := NewSegmenter(DefaultSegmenterConfig(), g)
	if err != nil {
		return nil, err
	}

	got, err := Classify(Marks(seg.Segments(normalize(Float32(pcm)))), dit)
	if err != nil {
		return nil, err
	}
	if got.String() != want.String() {
		return got, fmt.Errorf("%w: heard %s, want %s", ErrPatternMismatch, got, want)
	}
	return got, nil
}

// normalize scales samples in place so the loudest one is at full range.
func normalize(samples []float32) []float32 {
	var peak float32
	for _, x := range samples {
		peak = max(peak, x, -x)
	}
	if peak == 0 {
		return samples
	}
	for i := range samples {
		samples[i] /= peak
	}
	return samples
}
