// SPDX-License-Identifier: EPL-2.0

package declick

import "errors"

var (
	// ErrNothingToDo is returned by Options.Validate when no action is enabled.
	ErrNothingToDo = errors.New("no action requested")

	// ErrInvalidOptions wraps every other Options.Validate failure.
	ErrInvalidOptions = errors.New("invalid options")
)
