// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// StereoMixer maps any channel layout to two channels. Mono is duplicated;
// wider layouts fold even channels into left and odd channels into right.
type StereoMixer struct {
	src Source
	tmp []float32
}

func NewStereoMixer(src Source) *StereoMixer {
	return &StereoMixer{src: src}
}

func (m *StereoMixer) SampleRate() int { return m.src.SampleRate() }
func (m *StereoMixer) Channels() int   { return 2 }

func (m *StereoMixer) Close() error {
	if err := m.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (m *StereoMixer) ReadSamples(dst []float32) (int, error) {
	if len(dst)%2 != 0 {
		return 0, ErrInvalidDstSize
	}
	if len(dst) == 0 {
		return 0, nil
	}

	channels := m.src.Channels()
	switch {
	case channels <= 0:
		return 0, ErrNoChannels
	case channels == 2:
		return m.src.ReadSamples(dst)
	}

	need := len(dst) / 2 * channels
	if cap(m.tmp) < need {
		m.tmp = make([]float32, need)
	}
	tmp := m.tmp[:need]

	n, err := m.src.ReadSamples(tmp)
	frames := n / channels

	if channels == 1 {
		for f, v := range tmp[:frames] {
			dst[2*f], dst[2*f+1] = v, v
		}
		return frames * 2, err
	}

	left := float32(1) / float32((channels+1)/2)
	right := float32(1) / float32(channels/2)
	for f := range frames {
		var l, r float32
		frame := tmp[f*channels : (f+1)*channels]
		for c, v := range frame {
			if c%2 == 0 {
				l += v
			} else {
				r += v
			}
		}
		dst[2*f], dst[2*f+1] = l*left, r*right
	}

	return frames * 2, err
}
