// SPDX-License-Identifier: EPL-2.0

package engine

import "fmt"

const (
	// DefaultLookahead caps the frames inspected after a click candidate.
	DefaultLookahead = 8
	// DefaultSpan is the distance from a correction to its recheck.
	DefaultSpan = 75
	// DefaultHistory is the number of deltas a Tracker remembers.
	DefaultHistory = 150
	// DefaultMinCorrection is the smallest change worth writing.
	DefaultMinCorrection = 150

	// MaxSeverity is the most aggressive severity setting.
	MaxSeverity = 9
	// Unlimited is the allowed-delta ceiling for severity 0.
	Unlimited = 32767 * 2

	severityStep = 2 * 1200
)

// Config controls a correction pass.
type Config struct {
	// Declick enables detection. When false Run only reads every frame.
	Declick bool
	// Severity selects the ceiling for the allowed delta: 0 leaves it
	// unbounded, 9 caps it at 2400.
	Severity      int
	Lookahead     int
	Span          int
	History       int
	MinCorrection int
}

// DefaultConfig returns a declicking configuration at severity 0.
func DefaultConfig() Config {
	return Config{
		Declick:       true,
		Lookahead:     DefaultLookahead,
		Span:          DefaultSpan,
		History:       DefaultHistory,
		MinCorrection: DefaultMinCorrection,
	}
}

// LimitDiff returns the allowed-delta ceiling for a severity.
func LimitDiff(severity int) (int, error) {
	if severity < 0 || severity > MaxSeverity {
		return 0, fmt.Errorf("%w: %d", ErrSeverity, severity)
	}
	if severity == 0 {
		return Unlimited, nil
	}
	return (10 - severity) * severityStep, nil
}

// Validate checks the configuration. Zero tuning fields are not accepted;
// start from DefaultConfig.
func (c Config) Validate() error {
	if _, err := LimitDiff(c.Severity); err != nil {
		return err
	}
	switch {
	case c.Lookahead < 2:
		return fmt.Errorf("%w: lookahead %d is below 2", ErrConfig, c.Lookahead)
	case c.Span < 1:
		return fmt.Errorf("%w: span %d is below 1", ErrConfig, c.Span)
	case c.History <= c.Span:
		// a recheck addresses deltas up to Span frames back in the history
		return fmt.Errorf("%w: history %d must exceed span %d", ErrConfig, c.History, c.Span)
	case c.MinCorrection < 0:
		return fmt.Errorf("%w: negative minimum correction %d", ErrConfig, c.MinCorrection)
	}
	return nil
}
