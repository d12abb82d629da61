// SPDX-License-Identifier: EPL-2.0

package declick

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ik5/declick/audio"
	"github.com/ik5/declick/formats/aiff"
	"github.com/ik5/declick/formats/mp3"
	"github.com/ik5/declick/formats/vorbis"
	"github.com/ik5/declick/formats/wav"
)

// CDRate is the sample rate Convert targets by default.
const CDRate = 44100

const convertBuffer = 8192

// Formats returns a registry holding every decoder the module ships.
func Formats() *audio.Registry {
	r := audio.NewRegistry()
	r.Register(wav.Decoder{}, "wav", "wave")
	r.Register(aiff.Decoder{}, "aif", "aiff", "aifc")
	r.Register(mp3.Decoder{}, "mp3")
	r.Register(vorbis.Decoder{}, "ogg", "oga")
	return r
}

// Convert writes src to w as a 16-bit stereo WAV at rate, which a Processor
// can then repair. A rate of 0 means CDRate. It returns the frames written.
// src is not closed.
func Convert(src audio.Source, w io.WriteSeeker, rate int) (int, error) {
	if rate == 0 {
		rate = CDRate
	}
	rs, err := audio.NewResampler(audio.NewStereoMixer(src), rate)
	if err != nil {
		return 0, err
	}

	out := wav.NewWriter(w, rate, 2)
	buf := make([]float32, convertBuffer)
	for {
		n, err := rs.ReadSamples(buf)
		if n > 0 {
			if werr := out.Write(buf[:n]); werr != nil {
				return out.Frames(), werr
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out.Frames(), err
		}
	}

	if err := out.Close(); err != nil {
		return out.Frames(), err
	}
	return out.Frames(), nil
}

// ConvertFile decodes the file at in, picking the decoder by extension,
// and writes the converted WAV to out.
func ConvertFile(in, out string, rate int) (frames int, err error) {
	dec, err := Formats().Lookup(in)
	if err != nil {
		return 0, err
	}

	f, err := os.Open(in)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	src, err := dec.Decode(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", in, err)
	}
	defer src.Close()

	o, err := os.Create(out)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := o.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(out)
		}
	}()

	frames, err = Convert(src, o, rate)
	if err != nil {
		return frames, fmt.Errorf("%s: %w", out, err)
	}
	return frames, nil
}
