// Package waitlist implements the FIFO queue behind one InventoryKey.
// Queues are not safe for concurrent use on their own; the owning
// inventory entry lock serializes every operation, so enqueue, position
// reads and promotion all happen inside the same critical section as
// the seat counter they depend on.
package waitlist

// Entry is one queued booking. Seq is a per-key monotonically
// increasing counter and the sole FIFO tie-break; wall-clock time is
// never consulted, so clock skew cannot reorder the queue.
type Entry struct {
	BookingID  int64
	Passengers int
	Seq        int64
}

// Queue is a slice-backed deque with O(1) enqueue and pop. head moves
// forward on pop instead of reslicing from zero so promotion passes do
// not reallocate.
type Queue struct {
	entries []Entry
	head    int
	nextSeq int64
}

// NewQueue returns an empty queue whose first sequence number is 1.
func NewQueue() *Queue {
	return &Queue{nextSeq: 1}
}

// Enqueue appends a booking and returns its 1-based position at insert
// time together with the assigned sequence number.
func (q *Queue) Enqueue(bookingID int64, passengers int) (pos int, seq int64) {
	seq = q.nextSeq
	q.nextSeq++
	q.entries = append(q.entries, Entry{BookingID: bookingID, Passengers: passengers, Seq: seq})
	return q.Len(), seq
}

// NextSeq returns the sequence number the next entry will receive.
// Callers that persist before inserting use it to write the entry with
// its final seq, then Restore it on commit.
func (q *Queue) NextSeq() int64 {
	return q.nextSeq
}

// Restore re-inserts a persisted entry during cache fill. Entries must
// be restored in ascending Seq order; nextSeq is bumped past the
// highest restored value.
func (q *Queue) Restore(e Entry) {
	q.entries = append(q.entries, e)
	if e.Seq >= q.nextSeq {
		q.nextSeq = e.Seq + 1
	}
}

// Len returns the number of queued bookings.
func (q *Queue) Len() int {
	return len(q.entries) - q.head
}

// Head returns the next booking to be promoted without removing it.
func (q *Queue) Head() (Entry, bool) {
	if q.Len() == 0 {
		return Entry{}, false
	}
	return q.entries[q.head], true
}

// Pop removes and returns the head of the queue.
func (q *Queue) Pop() (Entry, bool) {
	e, ok := q.Head()
	if !ok {
		return Entry{}, false
	}
	q.entries[q.head] = Entry{}
	q.head++
	if q.head == len(q.entries) {
		q.entries = q.entries[:0]
		q.head = 0
	}
	return e, true
}

// Position returns the effective 1-based position of a booking.
// Cancellations ahead of an entry shrink its position without any
// renumbering; this is a plain index scan, acceptable for realistic
// waitlist sizes.
func (q *Queue) Position(bookingID int64) (int, bool) {
	for i := q.head; i < len(q.entries); i++ {
		if q.entries[i].BookingID == bookingID {
			return i - q.head + 1, true
		}
	}
	return 0, false
}

// Remove deletes a booking from anywhere in the queue, e.g. on explicit
// cancellation of a still-waitlisted booking. O(n) scan and shift.
func (q *Queue) Remove(bookingID int64) bool {
	for i := q.head; i < len(q.entries); i++ {
		if q.entries[i].BookingID == bookingID {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			if q.head == len(q.entries) {
				q.entries = q.entries[:0]
				q.head = 0
			}
			return true
		}
	}
	return false
}

// Entries returns the queued entries in FIFO order (for diagnostics).
func (q *Queue) Entries() []Entry {
	out := make([]Entry, q.Len())
	copy(out, q.entries[q.head:])
	return out
}
