// SPDX-License-Identifier: EPL-2.0

package engine

const (
	// floor is the lower bound of a tracker's maximum and sum, and the
	// value every history slot starts with.
	floor = 5
	// multiplier scales the rolling maximum into the allowed delta.
	multiplier = 2
)

// Tracker keeps a rolling history of inter-sample deltas for one channel
// and derives the largest delta that is not treated as a click.
type Tracker struct {
	history []int
	pos     int // slot the next observation replaces
	max     int
	sum     int
	limit   int
	allowed int
}

// NewTracker returns a Tracker remembering size deltas, with the allowed
// delta capped at limit.
func NewTracker(size, limit int) *Tracker {
	t := &Tracker{
		history: make([]int, size),
		limit:   limit,
	}
	for i := range t.history {
		t.history[i] = floor
	}
	t.Rescan()
	return t
}

// Observe records the delta of the next sample and returns the new allowed
// delta.
func (t *Tracker) Observe(delta int) int {
	t.update(t.pos, delta)
	t.pos++
	if t.pos == len(t.history) {
		t.pos = 0
	}
	return t.allowed
}

// Replace overwrites the delta observed back observations ago (1 is the
// most recent) and returns the new allowed delta.
func (t *Tracker) Replace(back, delta int) int {
	slot := t.pos - back
	if slot < 0 {
		slot += len(t.history)
	}
	t.update(slot, delta)
	return t.allowed
}

// Rescan recomputes the maximum and sum from the whole history.
func (t *Tracker) Rescan() int {
	t.max, t.sum = 0, 0
	for _, d := range t.history {
		t.sum += d
		t.max = max(t.max, d)
	}
	t.max = max(t.max, floor)
	t.sum = max(t.sum, floor)
	t.allowed = min(t.max*multiplier, t.limit)
	return t.allowed
}

// Allowed returns the largest delta that is not a click.
func (t *Tracker) Allowed() int { return t.allowed }

// Max returns the rolling maximum delta.
func (t *Tracker) Max() int { return t.max }

// Mean returns the rolling mean delta.
func (t *Tracker) Mean() int { return t.sum / len(t.history) }

func (t *Tracker) update(slot, delta int) {
	old := t.history[slot]
	t.history[slot] = delta

	switch {
	case delta >= t.max:
		t.max = delta
	case old >= t.max:
		// the evicted delta may have been the only maximum
		t.Rescan()
		return
	}
	t.max = max(t.max, floor)
	t.sum = max(t.sum-old+delta, floor)
	t.allowed = min(t.max*multiplier, t.limit)
}
