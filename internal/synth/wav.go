package synth

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitDepth  = 16
	channels  = 1
	formatPCM = 1
)

// ErrNotWAV indicates the input is not a readable PCM WAV stream
var ErrNotWAV = errors.New("not a valid wav stream")

// EncodeWAV writes pcm as a 16-bit mono WAV file.
func EncodeWAV(w io.WriteSeeker, pcm []int16, sampleRate int) error {
	enc := wav.NewEncoder(w, sampleRate, bitDepth, channels, formatPCM)
	data := make([]int, len(pcm))
	for i, v := range pcm {
		data[i] = int(v)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalise wav: %w", err)
	}
	return nil
}

// WAVBytes encodes pcm into an in-memory WAV file.
func WAVBytes(pcm []int16, sampleRate int) ([]byte, error) {
	var f memFile
	if err := EncodeWAV(&f, pcm, sampleRate); err != nil {
		return nil, err
	}
	return f.buf, nil
}

// DecodeWAV reads a 16-bit mono WAV stream back into samples.
func DecodeWAV(r io.ReadSeeker) ([]int16, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, ErrNotWAV
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode wav: %w", err)
	}
	if dec.BitDepth != bitDepth || dec.NumChans != channels {
		return nil, 0, fmt.Errorf("%w: %d-bit %d-channel", ErrNotWAV, dec.BitDepth, dec.NumChans)
	}
	pcm := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		pcm[i] = int16(v)
	}
	return pcm, int(dec.SampleRate), nil
}

// memFile is a growable in-memory io.WriteSeeker; the wav encoder seeks back to patch chunk sizes.
type memFile struct {
	buf []byte
	pos int
}

func (m *memFile) Write(p []byte) (int, error) {
	if end := m.pos + len(p); end > len(m.buf) {
		m.buf = append(m.buf, make([]byte, end-len(m.buf))...)
	}
	n := copy(m.buf[m.pos:], p)
	m.pos += n
	return n, nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(m.pos)
	case io.SeekEnd:
		base = int64(len(m.buf))
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}
	next := base + offset
	if next < 0 {
		return 0, fmt.Errorf("seek: negative position %d", next)
	}
	m.pos = int(next)
	return next, nil
}
