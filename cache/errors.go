// SPDX-License-Identifier: EPL-2.0

package cache

import "errors"

var (
	// ErrIO wraps seek, read and write failures on the underlying file.
	ErrIO = errors.New("cache: i/o error")

	// ErrMiss is returned when a read is still not covered after its window was refilled,
	// typically because the range lies past the end of the file.
	ErrMiss = errors.New("cache: range not available after fill")

	// ErrWindowSize indicates a window size or count that is not usable.
	ErrWindowSize = errors.New("cache: window size must be a power of two of at least one frame")

	// ErrAllocation indicates the window buffers could not be reserved.
	ErrAllocation = errors.New("cache: cannot reserve window buffers")
)
