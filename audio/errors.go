// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDstSize = errors.New("dst size must be multiple of channels")
	ErrNoChannels     = errors.New("source has no channels")
	ErrInvalidRate    = errors.New("sample rate must be positive")
	ErrUnknownFormat  = errors.New("unknown audio format")
)

// FormatError reports a file extension no decoder is registered for.
type FormatError struct {
	Ext string
}

func (e *FormatError) Error() string {
	if e.Ext == "" {
		return fmt.Sprintf("%v: missing file extension", ErrUnknownFormat)
	}
	return fmt.Sprintf("%v: %q", ErrUnknownFormat, e.Ext)
}

func (e *FormatError) Unwrap() error { return ErrUnknownFormat }
