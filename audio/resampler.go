// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/declick/utils"
)

// maxStalls bounds how many empty reads without an error a source may return
// in a row before the resampler gives up on it.
const maxStalls = 64

// Resampler streams src at another sample rate using cubic interpolation.
// Works on interleaved samples and preserves the channel count. When the
// rates already match samples pass through untouched.
type Resampler struct {
	src      Source
	rate     int
	step     float64 // source frames per output frame
	channels int

	// hist holds frames t-1, t0, t+1 and t+2 around the output position.
	hist [4][]float32
	real [4]bool
	pos  float64

	in     []float32
	inPos  int
	inLen  int
	srcEOF bool
	primed bool
}

func NewResampler(src Source, dstRate int) (*Resampler, error) {
	if dstRate <= 0 || src.SampleRate() <= 0 {
		return nil, ErrInvalidRate
	}
	channels := src.Channels()
	if channels <= 0 {
		return nil, ErrNoChannels
	}

	r := &Resampler{
		src:      src,
		rate:     dstRate,
		step:     float64(src.SampleRate()) / float64(dstRate),
		channels: channels,
		in:       make([]float32, channels*1024),
	}
	for i := range r.hist {
		r.hist[i] = make([]float32, channels)
	}
	return r, nil
}

func (r *Resampler) SampleRate() int { return r.rate }
func (r *Resampler) Channels() int   { return r.channels }

// Passthrough reports whether the source is already at the target rate.
func (r *Resampler) Passthrough() bool { return r.step == 1 }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// pull copies the next source frame into dst. It reports false once the
// source is exhausted.
func (r *Resampler) pull(dst []float32) (bool, error) {
	stalls := 0
	for r.inPos >= r.inLen {
		if r.srcEOF {
			return false, nil
		}
		n, err := r.src.ReadSamples(r.in)
		r.inPos, r.inLen = 0, n-n%r.channels
		switch {
		case errors.Is(err, io.EOF):
			r.srcEOF = true
		case err != nil:
			return false, fmt.Errorf("resample: %w", err)
		case n == 0:
			stalls++
			if stalls > maxStalls {
				return false, io.ErrNoProgress
			}
		}
	}
	copy(dst, r.in[r.inPos:r.inPos+r.channels])
	r.inPos += r.channels
	return true, nil
}

// fill loads slot i from the source, duplicating the previous slot at the end
// of the stream.
func (r *Resampler) fill(i int) error {
	ok, err := r.pull(r.hist[i])
	if err != nil {
		return err
	}
	r.real[i] = ok
	if !ok && i > 0 {
		copy(r.hist[i], r.hist[i-1])
	}
	return nil
}

func (r *Resampler) prime() error {
	r.primed = true
	if err := r.fill(1); err != nil {
		return err
	}
	copy(r.hist[0], r.hist[1])
	r.real[0] = r.real[1]
	if err := r.fill(2); err != nil {
		return err
	}
	return r.fill(3)
}

func (r *Resampler) advance() error {
	h := r.hist[0]
	copy(r.hist[:3], r.hist[1:])
	r.hist[3] = h
	copy(r.real[:3], r.real[1:])
	return r.fill(3)
}

// ReadSamples produces samples at the target rate. len(dst) must be a
// multiple of the channel count. The last source frame is only reached as
// an interpolation endpoint.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if r.Passthrough() {
		return r.src.ReadSamples(dst)
	}
	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	frames := len(dst) / r.channels
	written := 0
	for written < frames {
		for r.pos >= 1 {
			r.pos--
			if err := r.advance(); err != nil {
				return written * r.channels, err
			}
		}
		if !r.real[2] {
			return written * r.channels, io.EOF
		}

		x := float32(r.pos)
		out := dst[written*r.channels : (written+1)*r.channels]
		for c := range out {
			out[c] = utils.CubicInterpolate(r.hist[0][c], r.hist[1][c], r.hist[2][c], r.hist[3][c], x)
		}
		written++
		r.pos += r.step
	}

	return written * r.channels, nil
}
