// SPDX-License-Identifier: EPL-2.0

// Package pcmsource adapts the go-audio integer decoders to audio.Source.
package pcmsource

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/ik5/declick/utils"
)

// Reader is the part of the go-audio WAV and AIFF decoders a Source uses.
type Reader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// Source streams integer PCM from a go-audio decoder as float32 samples.
type Source struct {
	dec   Reader
	rate  int
	chans int
	bits  int
	buf   *goaudio.IntBuffer
}

func New(dec Reader, format *goaudio.Format, bits int) *Source {
	return &Source{
		dec:   dec,
		rate:  format.SampleRate,
		chans: format.NumChannels,
		bits:  bits,
		buf:   &goaudio.IntBuffer{Format: format, SourceBitDepth: bits},
	}
}

func (s *Source) SampleRate() int { return s.rate }
func (s *Source) Channels() int   { return s.chans }
func (s *Source) BitDepth() int   { return s.bits }
func (s *Source) Close() error    { return nil }

func (s *Source) ReadSamples(dst []float32) (int, error) {
	dst = dst[:len(dst)-len(dst)%max(s.chans, 1)]
	if len(dst) == 0 {
		return 0, nil
	}

	if cap(s.buf.Data) < len(dst) {
		s.buf.Data = make([]int, len(dst))
	}
	s.buf.Data = s.buf.Data[:len(dst)]

	n, err := s.dec.PCMBuffer(s.buf)
	for i, v := range s.buf.Data[:n] {
		dst[i] = utils.IntToFloat32(v, s.bits)
	}

	switch {
	case err != nil && !errors.Is(err, io.EOF):
		return n, fmt.Errorf("%w", err)
	case err != nil, n < len(dst):
		return n, io.EOF
	}
	return n, nil
}

// Seekable returns r when it already seeks and otherwise buffers it in
// memory, since the go-audio decoders need to seek between chunks.
func Seekable(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		return rs, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("buffering input: %w", err)
	}
	return bytes.NewReader(data), nil
}
