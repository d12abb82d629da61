// SPDX-License-Identifier: EPL-2.0

package declick

import (
	"errors"
	"fmt"
	"math"

	"github.com/ik5/declick/cache"
	"github.com/ik5/declick/engine"
	"github.com/ik5/declick/pcm"
)

// DefaultNoiseFloor is the largest absolute sample value treated as silence.
const DefaultNoiseFloor = 1

// Options controls a Processor.
type Options struct {
	// Declick repairs clicks.
	Declick bool
	// Severity 0 leaves the allowed delta unbounded; 1..9 tighten it.
	Severity int
	// TestMode opens files read-only: clicks are counted but nothing is
	// written back and no trimming happens.
	TestMode bool
	// CreateIndex writes a peak index next to each file.
	CreateIndex bool

	// SkipLead and SkipTrail trim silence from the start and end.
	SkipLead  bool
	SkipTrail bool
	// MaxLeadSeconds and MaxTrailSeconds cap the trims; 0 means no cap.
	MaxLeadSeconds  int
	MaxTrailSeconds int
	// Padding keeps the trimmed track a whole number of CD sectors.
	Padding bool
	// RoughCut drops every chunk after the data chunk.
	RoughCut bool
	// NoiseFloor is the largest absolute sample value still silent.
	NoiseFloor int

	// WindowSize and Windows size the file cache.
	WindowSize int
	Windows    int
	// Lookahead caps the frames inspected after a click candidate.
	Lookahead int
	// Span is the distance from a correction to its recheck.
	Span int
}

// DefaultOptions returns options that declick at severity 0.
func DefaultOptions() Options {
	return Options{
		Declick:    true,
		NoiseFloor: DefaultNoiseFloor,
		WindowSize: cache.DefaultWindowSize,
		Windows:    cache.DefaultWindows,
		Lookahead:  engine.DefaultLookahead,
		Span:       engine.DefaultSpan,
	}
}

// HasAction reports whether any processing is enabled.
func (o Options) HasAction() bool {
	return o.Declick || o.CreateIndex || o.SkipLead || o.SkipTrail || o.Padding || o.RoughCut
}

// Trims reports whether the container may be shortened.
func (o Options) Trims() bool {
	return o.SkipLead || o.SkipTrail || o.Padding || o.RoughCut
}

// engineConfig derives the correction engine settings.
func (o Options) engineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.Declick = o.Declick
	cfg.Severity = o.Severity
	cfg.Lookahead = o.Lookahead
	cfg.Span = o.Span
	cfg.History = max(engine.DefaultHistory, 2*o.Span)
	return cfg
}

// MinWindowSize is the smallest window that still holds every frame a
// recheck reaches back to, so that shifted write-back never races a refill.
func (o Options) MinWindowSize() int {
	need := (o.Span + o.Lookahead) * pcm.FrameSize
	size := cache.MinWindowSize
	for size < need {
		size *= 2
	}
	return size
}

// Validate checks o. It returns ErrNothingToDo when no action is enabled
// and an error wrapping ErrInvalidOptions for bad values.
func (o Options) Validate() error {
	if !o.HasAction() {
		return ErrNothingToDo
	}

	var errs []error
	if err := o.engineConfig().Validate(); err != nil {
		errs = append(errs, err)
	}
	if o.NoiseFloor < 0 || o.NoiseFloor > math.MaxInt16 {
		errs = append(errs, fmt.Errorf("noise floor %d is outside 0..%d", o.NoiseFloor, math.MaxInt16))
	}
	if o.MaxLeadSeconds < 0 || o.MaxTrailSeconds < 0 {
		errs = append(errs, fmt.Errorf("negative trim cap %d/%d", o.MaxLeadSeconds, o.MaxTrailSeconds))
	}
	if o.Windows < 2 {
		errs = append(errs, fmt.Errorf("%d cache windows, need at least 2", o.Windows))
	}
	switch ws := o.WindowSize; {
	case ws <= 0 || ws&(ws-1) != 0 || ws > cache.MaxWindowSize:
		errs = append(errs, fmt.Errorf("window size %d is not a power of two up to %d", ws, cache.MaxWindowSize))
	case o.Span > 0 && o.Lookahead > 0 && ws < o.MinWindowSize():
		errs = append(errs, fmt.Errorf("window size %d is below %d", ws, o.MinWindowSize()))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, errors.Join(errs...))
	}
	return nil
}
