package batch

import (
	"github.com/Chichichkin/EventLogAgent/internal/logging"
)

// Queue is an ordered buffer of entries waiting to be sent.
// It is not safe for concurrent use; the owner serializes access.
type Queue struct {
	entries []logging.LogEntry
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Add(entry logging.LogEntry) {
	q.entries = append(q.entries, entry)
}

func (q *Queue) Len() int {
	return len(q.entries)
}

// Snapshot returns a copy of the queued entries in insertion order.
func (q *Queue) Snapshot() []logging.LogEntry {
	entries := make([]logging.LogEntry, len(q.entries))
	copy(entries, q.entries)
	return entries
}

// DropFront removes the n oldest entries.
func (q *Queue) DropFront(n int) {
	if n <= 0 {
		return
	}
	if n >= len(q.entries) {
		q.entries = q.entries[:0]
		return
	}

	remaining := make([]logging.LogEntry, len(q.entries)-n)
	copy(remaining, q.entries[n:])
	q.entries = remaining
}
