package hazard

import (
	"container/heap"
	"time"
)

// cooldown is one active per-label timer.
type cooldown struct {
	label  string
	expiry time.Time
	index  int
}

// cooldownQueue is a min-heap of cooldowns ordered by expiry, indexed by
// label so that insert, cancel and lookup are O(log n) or better.
type cooldownQueue struct {
	items   []*cooldown
	byLabel map[string]*cooldown
}

func newCooldownQueue() *cooldownQueue {
	return &cooldownQueue{byLabel: make(map[string]*cooldown)}
}

func (q *cooldownQueue) Len() int { return len(q.items) }

func (q *cooldownQueue) Less(i, j int) bool {
	return q.items[i].expiry.Before(q.items[j].expiry)
}

func (q *cooldownQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index = i
	q.items[j].index = j
}

func (q *cooldownQueue) Push(x any) {
	c := x.(*cooldown)
	c.index = len(q.items)
	q.items = append(q.items, c)
}

func (q *cooldownQueue) Pop() any {
	old := q.items
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	q.items = old[:n-1]
	c.index = -1
	return c
}

func (q *cooldownQueue) active(label string) bool {
	_, ok := q.byLabel[label]
	return ok
}

// start adds a timer for label. The caller checks active first; a label
// never has two timers.
func (q *cooldownQueue) start(label string, expiry time.Time) {
	c := &cooldown{label: label, expiry: expiry}
	q.byLabel[label] = c
	heap.Push(q, c)
}

func (q *cooldownQueue) cancel(label string) {
	c, ok := q.byLabel[label]
	if !ok {
		return
	}
	heap.Remove(q, c.index)
	delete(q.byLabel, label)
}

// expire removes every timer whose expiry is at or before now and returns
// their labels in expiry order.
func (q *cooldownQueue) expire(now time.Time) []string {
	var expired []string
	for len(q.items) > 0 && !q.items[0].expiry.After(now) {
		c := heap.Pop(q).(*cooldown)
		delete(q.byLabel, c.label)
		expired = append(expired, c.label)
	}
	return expired
}

func (q *cooldownQueue) next() (time.Time, bool) {
	if len(q.items) == 0 {
		return time.Time{}, false
	}
	return q.items[0].expiry, true
}

func (q *cooldownQueue) clear() {
	q.items = nil
	q.byLabel = make(map[string]*cooldown)
}

func (q *cooldownQueue) labels() []string {
	labels := make([]string, 0, len(q.items))
	for _, c := range q.items {
		labels = append(labels, c.label)
	}
	return labels
}
