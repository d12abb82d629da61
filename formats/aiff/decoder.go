// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	"github.com/ik5/declick/audio"
	"github.com/ik5/declick/formats/internal/pcmsource"
)

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, err := pcmsource.Seekable(r)
	if err != nil {
		return nil, err
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}
	dec.ReadInfo()

	bits := int(dec.BitDepth)
	switch bits {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: got %d", ErrUnsupportedBitDepth, bits)
	}

	format := dec.Format()
	if format == nil || format.NumChannels <= 0 || format.SampleRate <= 0 {
		return nil, ErrUnsupportedAiffLayout
	}

	return pcmsource.New(dec, format, bits), nil
}
