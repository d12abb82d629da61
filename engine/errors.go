// SPDX-License-Identifier: EPL-2.0

package engine

import "errors"

var (
	ErrSeverity = errors.New("severity must be between 0 and 9")
	ErrConfig   = errors.New("invalid engine configuration")
)
