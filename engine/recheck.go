// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"github.com/sirupsen/logrus"

	"github.com/ik5/declick/pcm"
)

// channel is the per-channel state of a pass.
//
// While active, the recheck window holds one row per frame since the frame
// before the oldest pending correction: row 0 is that frame, row r is the
// r-th frame after it. orig keeps the values read from the stream, cur the
// values written back.
type channel struct {
	id      int
	tracker *Tracker
	queue   queue

	active  bool
	trigger int
	rows    int
	orig    []int
	cur     []int
	changed []bool

	frames  []pcm.Frame
	touched []bool
}

func newChannel(id int, cfg Config, limit int) *channel {
	return &channel{
		id:      id,
		tracker: NewTracker(cfg.History, limit),
		orig:    make([]int, cfg.Span+1),
		cur:     make([]int, cfg.Span+1),
		changed: make([]bool, cfg.Span+1),
		frames:  make([]pcm.Frame, cfg.Span),
		touched: make([]bool, cfg.Span),
	}
}

// begin opens a recheck window whose row 0 holds value.
func (c *channel) begin(trigger, value int) {
	c.active = true
	c.trigger = trigger
	c.rows = 0
	c.orig[0], c.cur[0], c.changed[0] = value, value, false
}

// push appends an unchanged row.
func (c *channel) push(v int) {
	c.rows++
	c.orig[c.rows], c.cur[c.rows], c.changed[c.rows] = v, v, false
}

// mark records that the newest row was corrected to target.
func (c *channel) mark(target int) {
	c.cur[c.rows] = target
	c.changed[c.rows] = true
}

// shift drops the first n rows of the window.
func (c *channel) shift(n int) {
	copy(c.orig, c.orig[n:c.rows+1])
	copy(c.cur, c.cur[n:c.rows+1])
	copy(c.changed, c.changed[n:c.rows+1])
	c.rows -= n
}

// recheck revisits the window of c now that frame count is reached. Rows
// 1..span map to frames count-span..count-1.
func (p *pass) recheck(c *channel, count int) error {
	span := c.rows
	first := count - span
	allowed := c.tracker.Rescan()

	buf := c.frames[:span]
	for x := range buf {
		f, err := p.frames.ReadFrame(first + x)
		if err != nil {
			return err
		}
		buf[x] = f
		c.touched[x] = false
	}

	reverted := 0
	for change := true; change; {
		change = false
		for x := range span {
			if !c.changed[x+1] {
				continue
			}
			d := abs(c.orig[x+1] - c.cur[x])
			if d > allowed {
				continue
			}

			// the original value fits: undo the correction
			allowed = c.tracker.Replace(span-x, d)
			buf[x].SetChannel(c.id, int16(c.orig[x+1]))
			c.touched[x] = true
			c.cur[x+1] = c.orig[x+1]
			c.changed[x+1] = false

			if x+1 < span {
				next := abs(c.cur[x+2] - c.cur[x+1])
				allowed = c.tracker.Replace(span-x-1, next)
			}

			c.queue.resolve(first + x)
			p.log.WithFields(logrus.Fields{
				"channel": c.id,
				"sample":  first + x,
				"value":   c.orig[x+1],
			}).Debug("correction reverted")

			change = true
			reverted++
		}
	}

	for x := range buf {
		if c.touched[x] {
			if err := p.frames.WriteFrame(first+x, buf[x]); err != nil {
				return err
			}
		}
	}

	if reverted > 0 {
		c.tracker.Rescan()
	}
	p.res.Corrections -= reverted
	p.res.Reverted += reverted
	p.res.Rechecks++
	// the next delta is measured against what is now on disk
	if span > 0 {
		p.last.SetChannel(c.id, int16(c.cur[span]))
	}

	p.log.WithFields(logrus.Fields{
		"channel":  c.id,
		"trigger":  count,
		"span":     span,
		"reverted": reverted,
	}).Debug("recheck")

	c.active = false
	c.queue.dropResolved()
	if r, ok := c.queue.pop(); ok {
		c.shift(r.index - first)
		c.trigger = r.trigger
		c.active = true
	}

	return nil
}
