package waitlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnqueueAssignsPositionsAndSeqs(t *testing.T) {
	q := NewQueue()

	pos, seq := q.Enqueue(101, 2)
	assert.Equal(t, 1, pos)
	assert.Equal(t, int64(1), seq)

	pos, seq = q.Enqueue(102, 1)
	assert.Equal(t, 2, pos)
	assert.Equal(t, int64(2), seq)

	assert.Equal(t, 2, q.Len())
}

func TestPopIsFIFO(t *testing.T) {
	q := NewQueue()
	q.Enqueue(101, 1)
	q.Enqueue(102, 1)
	q.Enqueue(103, 1)

	e, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, int64(101), e.BookingID)

	e, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, int64(102), e.BookingID)

	assert.Equal(t, 1, q.Len())
}

func TestSeqMonotonicAcrossPops(t *testing.T) {
	q := NewQueue()
	q.Enqueue(101, 1)
	q.Enqueue(102, 1)
	q.Pop()
	q.Pop()

	// Queue is empty again, but sequence numbers never restart.
	_, seq := q.Enqueue(103, 1)
	assert.Equal(t, int64(3), seq)
}

func TestPositionShrinksAfterRemove(t *testing.T) {
	q := NewQueue()
	q.Enqueue(101, 1)
	q.Enqueue(102, 1)
	q.Enqueue(103, 1)

	pos, ok := q.Position(103)
	require.True(t, ok)
	assert.Equal(t, 3, pos)

	assert.True(t, q.Remove(102))

	pos, ok = q.Position(103)
	require.True(t, ok)
	assert.Equal(t, 2, pos)

	_, ok = q.Position(102)
	assert.False(t, ok)
}

func TestRemoveHead(t *testing.T) {
	q := NewQueue()
	q.Enqueue(101, 1)
	q.Enqueue(102, 1)

	assert.True(t, q.Remove(101))

	head, ok := q.Head()
	require.True(t, ok)
	assert.Equal(t, int64(102), head.BookingID)
}

func TestRemoveMissing(t *testing.T) {
	q := NewQueue()
	q.Enqueue(101, 1)
	assert.False(t, q.Remove(999))
	assert.Equal(t, 1, q.Len())
}

func TestRestoreBumpsNextSeq(t *testing.T) {
	q := NewQueue()
	q.Restore(Entry{BookingID: 101, Passengers: 2, Seq: 7})
	q.Restore(Entry{BookingID: 102, Passengers: 1, Seq: 9})

	assert.Equal(t, int64(10), q.NextSeq())

	_, seq := q.Enqueue(103, 1)
	assert.Equal(t, int64(10), seq)

	pos, ok := q.Position(101)
	require.True(t, ok)
	assert.Equal(t, 1, pos)
}

func TestHeadDoesNotRemove(t *testing.T) {
	q := NewQueue()
	q.Enqueue(101, 3)

	head, ok := q.Head()
	require.True(t, ok)
	assert.Equal(t, int64(101), head.BookingID)
	assert.Equal(t, 3, head.Passengers)
	assert.Equal(t, 1, q.Len())
}

func TestEmptyQueue(t *testing.T) {
	q := NewQueue()

	_, ok := q.Head()
	assert.False(t, ok)
	_, ok = q.Pop()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
	assert.Empty(t, q.Entries())
}

func TestEntriesCopies(t *testing.T) {
	q := NewQueue()
	q.Enqueue(101, 1)
	q.Enqueue(102, 2)

	entries := q.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(101), entries[0].BookingID)
	assert.Equal(t, int64(102), entries[1].BookingID)

	entries[0].BookingID = 999
	head, _ := q.Head()
	assert.Equal(t, int64(101), head.BookingID)
}
