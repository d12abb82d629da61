// SPDX-License-Identifier: EPL-2.0

package wavfile

import "errors"

var (
	ErrNotWavFile         = errors.New("not a RIFF file")
	ErrNotWaveForm        = errors.New("RIFF form is not WAVE")
	ErrIncompatibleFormat = errors.New("incompatible wave format")
	ErrNoDataChunk        = errors.New("no data chunk")
	ErrInvalidLayout      = errors.New("invalid file format")
	ErrTrimTooLarge       = errors.New("trim exceeds the track length")
)
