// SPDX-License-Identifier: EPL-2.0

package engine

// record schedules the recheck of a corrected frame.
type record struct {
	index    int // corrected frame
	trigger  int // frame at which the recheck runs
	resolved bool
}

// queue is a FIFO of records ordered by index. Popped slots at the front
// are reclaimed when they make up half of the backing array.
type queue struct {
	items []record
	head  int
}

func (q *queue) len() int { return len(q.items) - q.head }

// push appends r unless the tail already rechecks at the same trigger.
func (q *queue) push(r record) bool {
	if q.len() > 0 && q.items[len(q.items)-1].trigger == r.trigger {
		return false
	}
	q.items = append(q.items, r)
	return true
}

func (q *queue) pop() (record, bool) {
	if q.len() == 0 {
		return record{}, false
	}
	r := q.items[q.head]
	q.head++
	q.compact()
	return r, true
}

// resolve marks the queued record for frame index, if any.
func (q *queue) resolve(index int) {
	for i := q.head; i < len(q.items); i++ {
		switch {
		case q.items[i].index == index:
			q.items[i].resolved = true
			return
		case q.items[i].index > index:
			return
		}
	}
}

// dropResolved discards resolved records from the front.
func (q *queue) dropResolved() {
	for q.len() > 0 && q.items[q.head].resolved {
		q.head++
	}
	q.compact()
}

func (q *queue) reset() {
	q.items = q.items[:0]
	q.head = 0
}

func (q *queue) compact() {
	switch {
	case q.head == len(q.items):
		q.reset()
	case q.head > 0 && q.head*2 >= len(q.items):
		n := copy(q.items, q.items[q.head:])
		q.items = q.items[:n]
		q.head = 0
	}
}
