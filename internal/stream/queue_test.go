package stream

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestQueuePopAllPreservesOrder(t *testing.T) {
	q := newRecordQueue(8)
	for i := uint32(0); i < 5; i++ {
		q.push(Record{Index: i})
	}

	out := q.popAll()
	assert.Equal(t, len(out), 5)
	for i, r := range out {
		assert.Equal(t, r.Index, uint32(i))
	}
	assert.Equal(t, q.len(), 0)
	assert.Assert(t, q.popAll() == nil)
}

func TestQueueDropsOldestOnOverflow(t *testing.T) {
	q := newRecordQueue(3)
	for i := uint32(0); i < 3; i++ {
		assert.Assert(t, !q.push(Record{Index: i}))
	}
	assert.Assert(t, q.push(Record{Index: 3}))
	assert.Assert(t, q.push(Record{Index: 4}))

	out := q.popAll()
	assert.Equal(t, len(out), 3)
	assert.Equal(t, out[0].Index, uint32(2))
	assert.Equal(t, out[1].Index, uint32(3))
	assert.Equal(t, out[2].Index, uint32(4))
}

func TestQueueWrapsAround(t *testing.T) {
	q := newRecordQueue(4)
	for i := uint32(0); i < 3; i++ {
		q.push(Record{Index: i})
	}
	_ = q.popAll()
	for i := uint32(10); i < 14; i++ {
		q.push(Record{Index: i})
	}

	out := q.popAll()
	assert.Equal(t, len(out), 4)
	assert.Equal(t, out[0].Index, uint32(10))
	assert.Equal(t, out[3].Index, uint32(13))
}
