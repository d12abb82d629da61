// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ik5/declick/pcm"
)

// progressSteps is how many times Run reports progress over a stream.
const progressSteps = 200

// Frames is a 1-based array of stereo frames. *stream.Stream satisfies it.
type Frames interface {
	Len() int
	ReadFrame(i int) (pcm.Frame, error)
	WriteFrame(i int, f pcm.Frame) error
}

// ProgressFunc receives the number of frames processed so far.
type ProgressFunc func(done, total int)

// Result summarises a pass.
type Result struct {
	Samples int
	// Corrections counts clicks that are still corrected after all rechecks.
	Corrections int
	// Reverted counts corrections undone by a recheck.
	Reverted int
	Rechecks int
}

// Engine runs correction passes. An Engine holds no per-stream state and
// may be reused for any number of streams, one at a time.
type Engine struct {
	cfg   Config
	limit int
	log   logrus.FieldLogger
}

// New validates cfg and returns an Engine. A nil log uses the logrus
// standard logger.
func New(cfg Config, log logrus.FieldLogger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	limit, _ := LimitDiff(cfg.Severity)
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Engine{cfg: cfg, limit: limit, log: log}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Run makes one pass over frames. Corrections are written through
// frames.WriteFrame as they are made and reverted the same way.
// progress may be nil.
func (e *Engine) Run(frames Frames, progress ProgressFunc) (Result, error) {
	p := e.newPass(frames, progress)

	var err error
	if e.cfg.Declick {
		err = p.declick()
	} else {
		err = p.traverse()
	}
	if err != nil {
		return p.res, err
	}

	e.log.WithFields(logrus.Fields{
		"samples":     p.res.Samples,
		"corrections": p.res.Corrections,
		"reverted":    p.res.Reverted,
		"rechecks":    p.res.Rechecks,
	}).Info("pass complete")

	return p.res, nil
}

// pass is the state of one Run.
type pass struct {
	*Engine
	frames   Frames
	n        int
	progress ProgressFunc
	every    int

	chans [pcm.Channels]*channel
	last  pcm.Frame
	next  pcm.Frame
	// haveNext is set when next holds the frame after the current one.
	haveNext bool

	res Result
}

func (e *Engine) newPass(frames Frames, progress ProgressFunc) *pass {
	n := frames.Len()
	p := &pass{
		Engine:   e,
		frames:   frames,
		n:        n,
		progress: progress,
		every:    max(n/progressSteps, 1),
		res:      Result{Samples: n},
	}
	for id := range p.chans {
		p.chans[id] = newChannel(id, e.cfg, e.limit)
	}
	return p
}

func (p *pass) report(i int) {
	if p.progress != nil && (i%p.every == 0 || i == p.n) {
		p.progress(i, p.n)
	}
}

// traverse reads every frame once.
func (p *pass) traverse() error {
	for i := 1; i <= p.n; i++ {
		if _, err := p.frames.ReadFrame(i); err != nil {
			return err
		}
		p.report(i)
	}
	return nil
}

func (p *pass) declick() error {
	for i := 1; i <= p.n; i++ {
		for _, c := range p.chans {
			if c.active && c.trigger == i {
				if err := p.recheck(c, i); err != nil {
					return err
				}
			}
		}

		var f pcm.Frame
		if p.haveNext {
			f, p.haveNext = p.next, false
		} else {
			var err error
			if f, err = p.frames.ReadFrame(i); err != nil {
				return err
			}
		}

		if i > 1 {
			if err := p.inspect(i, &f); err != nil {
				return err
			}
		}

		p.last = f
		p.report(i)
	}
	return nil
}

// inspect checks frame i on both channels against its predecessor and
// corrects it in place when needed.
func (p *pass) inspect(i int, f *pcm.Frame) error {
	changed := false

	for _, c := range p.chans {
		v := int(f.Channel(c.id))
		last := int(p.last.Channel(c.id))
		if c.active {
			c.push(v)
		}

		delta := abs(v - last)
		if delta > c.tracker.Allowed() {
			target, err := p.interpolate(c, i, last)
			if err != nil {
				return err
			}
			if abs(target-v) >= p.cfg.MinCorrection {
				p.schedule(c, i, last, v)
				c.mark(target)
				f.SetChannel(c.id, int16(target))
				delta = abs(target - last)
				changed = true
				p.res.Corrections++
			}
		}
		c.tracker.Observe(delta)
	}

	if changed {
		if err := p.frames.WriteFrame(i, *f); err != nil {
			return err
		}
	}
	return nil
}

// interpolate looks ahead from frame i for the first frame that is within
// reach of last and returns the value on the straight line towards it.
func (p *pass) interpolate(c *channel, i, last int) (int, error) {
	if i == p.n {
		return last, nil
	}

	allowed := c.tracker.Allowed()
	steps, npos := 1, i
	var next pcm.Frame
	for {
		npos++
		steps++
		var err error
		if next, err = p.frames.ReadFrame(npos); err != nil {
			return 0, err
		}
		if npos >= p.n || steps >= p.cfg.Lookahead ||
			abs(int(next.Channel(c.id))-last) <= steps*allowed {
			break
		}
	}
	p.next, p.haveNext = next, npos == i+1

	return last + (int(next.Channel(c.id))-last)/steps, nil
}

// schedule queues the recheck of frame i and opens a recheck window if the
// channel has none.
func (p *pass) schedule(c *channel, i, last, v int) {
	r := record{index: i, trigger: min(i+p.cfg.Span, p.n)}
	// a correction inside the open window with the same trigger is
	// already covered by it
	if !c.active || c.queue.len() > 0 || c.trigger != r.trigger {
		c.queue.push(r)
	}

	if !c.active {
		r, _ = c.queue.pop()
		c.begin(r.trigger, last)
		c.push(v)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (r Result) String() string {
	return fmt.Sprintf("%d samples, %d corrections, %d reverted, %d rechecks",
		r.Samples, r.Corrections, r.Reverted, r.Rechecks)
}
