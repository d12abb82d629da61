// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/ik5/declick/audio"
	"github.com/ik5/declick/utils"
)

// Writer encodes interleaved float32 samples as a 16-bit PCM WAV stream.
// The header sizes are patched on Close, so w must seek.
type Writer struct {
	enc      *gowav.Encoder
	buf      *goaudio.IntBuffer
	channels int
	frames   int
	closed   bool
}

// NewWriter returns a Writer producing 16-bit PCM at sampleRate.
func NewWriter(w io.WriteSeeker, sampleRate, channels int) *Writer {
	format := &goaudio.Format{NumChannels: channels, SampleRate: sampleRate}
	return &Writer{
		enc:      gowav.NewEncoder(w, sampleRate, 16, channels, formatPCM),
		buf:      &goaudio.IntBuffer{Format: format, SourceBitDepth: 16},
		channels: channels,
	}
}

// Frames returns the number of frames written so far.
func (w *Writer) Frames() int { return w.frames }

// Write quantises samples to 16 bits and appends them. len(samples) must be a
// multiple of the channel count.
func (w *Writer) Write(samples []float32) error {
	if w.closed {
		return ErrWriterClosed
	}
	if len(samples)%w.channels != 0 {
		return audio.ErrInvalidDstSize
	}

	if cap(w.buf.Data) < len(samples) {
		w.buf.Data = make([]int, len(samples))
	}
	w.buf.Data = w.buf.Data[:len(samples)]
	for i, s := range samples {
		w.buf.Data[i] = int(utils.Float32ToInt16(s))
	}

	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("%w", err)
	}
	w.frames += len(samples) / w.channels
	return nil
}

// Close finalises the RIFF and data sizes. It does not close the
// underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	if w.frames == 0 {
		// The encoder only emits its header on the first write.
		if err := w.Write(nil); err != nil {
			return err
		}
	}
	w.closed = true
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}
