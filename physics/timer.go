package physics

import "container/heap"

type timerEntry struct {
	id    int64
	due   float64
	index int
}

type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].due == h[j].due {
		return h[i].id < h[j].id
	}
	return h[i].due < h[j].due
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	e := x.(*timerEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// TimerQueue fires a repeating timer per drone on simulated time.
// It is advanced by the driver loop, independently of the movement tick.
type TimerQueue struct {
	interval float64
	now      float64
	entries  timerHeap
	byID     map[int64]*timerEntry
}

// NewTimerQueue creates a queue whose timers repeat every interval seconds.
// A non-positive interval disables firing.
func NewTimerQueue(interval float64) *TimerQueue {
	return &TimerQueue{
		interval: interval,
		byID:     make(map[int64]*timerEntry),
	}
}

// Schedule arms the timer for id to fire after delay seconds, replacing any existing one.
func (q *TimerQueue) Schedule(id int64, delay float64) {
	if e, ok := q.byID[id]; ok {
		e.due = q.now + delay
		heap.Fix(&q.entries, e.index)
		return
	}
	e := &timerEntry{id: id, due: q.now + delay}
	heap.Push(&q.entries, e)
	q.byID[id] = e
}

// Cancel disarms the timer for id
func (q *TimerQueue) Cancel(id int64) {
	e, ok := q.byID[id]
	if !ok {
		return
	}
	heap.Remove(&q.entries, e.index)
	delete(q.byID, id)
}

// Advance moves simulated time forward by dt and calls fire for every due
// timer, in due order. Fired timers are re-armed one interval later.
func (q *TimerQueue) Advance(dt float64, fire func(id int64)) int {
	q.now += dt
	if q.interval <= 0 {
		return 0
	}
	fired := 0
	for len(q.entries) > 0 && q.entries[0].due <= q.now {
		e := q.entries[0]
		fire(e.id)
		fired++
		e.due += q.interval
		heap.Fix(&q.entries, 0)
	}
	return fired
}

// Len returns the number of armed timers
func (q *TimerQueue) Len() int {
	return len(q.entries)
}

// Now returns the simulated time
func (q *TimerQueue) Now() float64 {
	return q.now
}
