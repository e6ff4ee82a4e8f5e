package scheduler

import (
	"sort"
	"time"

	"github.com/emirpasic/gods/queues/priorityqueue"

	"croner/internal/job"
)

// Entry is one pending firing: a job and the instant it is due.
type Entry struct {
	At  time.Time
	Job job.Spec
}

// Queue is a min-heap of entries ordered by At. Entries with equal times come
// out in no particular order.
//
// It is not safe for concurrent use; the scheduler loop is its only user.
type Queue struct {
	pq *priorityqueue.Queue
}

func NewQueue() *Queue {
	return &Queue{pq: priorityqueue.NewWith(byTime)}
}

func byTime(a, b interface{}) int {
	ta, tb := a.(Entry).At, b.(Entry).At
	switch {
	case ta.Before(tb):
		return -1
	case ta.After(tb):
		return 1
	default:
		return 0
	}
}

func (q *Queue) Push(e Entry) { q.pq.Enqueue(e) }

func (q *Queue) Len() int { return q.pq.Size() }

// Peek returns the earliest entry without removing it.
func (q *Queue) Peek() (Entry, bool) {
	v, ok := q.pq.Peek()
	if !ok {
		return Entry{}, false
	}
	return v.(Entry), true
}

// Pop removes and returns the earliest entry.
func (q *Queue) Pop() (Entry, bool) {
	v, ok := q.pq.Dequeue()
	if !ok {
		return Entry{}, false
	}
	return v.(Entry), true
}

// PopDue removes every entry due at or before now, in pop order.
func (q *Queue) PopDue(now time.Time) []Entry {
	var due []Entry
	for {
		e, ok := q.Peek()
		if !ok || e.At.After(now) {
			return due
		}
		q.Pop()
		due = append(due, e)
	}
}

func (q *Queue) Clear() { q.pq.Clear() }

// Snapshot returns the pending entries sorted by time.
func (q *Queue) Snapshot() []Entry {
	vals := q.pq.Values()
	out := make([]Entry, 0, len(vals))
	for _, v := range vals {
		out = append(out, v.(Entry))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}
