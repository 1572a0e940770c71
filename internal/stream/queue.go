package stream

import "sync"

// recordQueue is a bounded FIFO between the decoder worker and the consumer.
// Overflow evicts the oldest record so the queue always holds the newest
// measurements.
type recordQueue struct {
	mu     sync.Mutex
	data   []Record
	start  int
	length int
}

func newRecordQueue(size int) *recordQueue {
	return &recordQueue{data: make([]Record, size)}
}

// push appends r, reporting whether an old record was evicted.
func (q *recordQueue) push(r Record) (evicted bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.length == len(q.data) {
		q.data[q.start] = r
		q.start = (q.start + 1) % len(q.data)
		return true
	}
	q.data[(q.start+q.length)%len(q.data)] = r
	q.length++
	return false
}

// popAll drains the queue in arrival order.
func (q *recordQueue) popAll() []Record {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.length == 0 {
		return nil
	}
	out := make([]Record, q.length)
	for i := range out {
		out[i] = q.data[(q.start+i)%len(q.data)]
	}
	q.start = 0
	q.length = 0
	return out
}

func (q *recordQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.length
}
