package batch

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/Chichichkin/EventLogAgent/internal/logging"
)

func TestQueue_AddKeepsOrder(t *testing.T) {
	q := NewQueue()

	q.Add(logging.LogEntry{Message: "first", Type: logging.Error})
	q.Add(logging.LogEntry{Message: "second", Type: logging.Warning})
	q.Add(logging.LogEntry{Message: "third", Type: logging.Notice})

	entries := q.Snapshot()
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, "first", entries[0].Message)
	assert.Equal(t, "second", entries[1].Message)
	assert.Equal(t, "third", entries[2].Message)
}

func TestQueue_SnapshotIsCopy(t *testing.T) {
	q := NewQueue()
	q.Add(logging.LogEntry{Message: "original"})

	entries := q.Snapshot()
	entries[0].Message = "changed"

	assert.Equal(t, "original", q.Snapshot()[0].Message)
}

func TestQueue_DropFront(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 5; i++ {
		q.Add(logging.LogEntry{Message: fmt.Sprintf("m%d", i)})
	}

	q.DropFront(0)
	assert.Equal(t, 5, q.Len())

	q.DropFront(2)
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, "m2", q.Snapshot()[0].Message)

	q.DropFront(10)
	assert.Equal(t, 0, q.Len())
	assert.Empty(t, q.Snapshot())
}

func TestQueue_EmptySnapshot(t *testing.T) {
	q := NewQueue()
	assert.Equal(t, 0, q.Len())
	assert.Empty(t, q.Snapshot())
}

func TestProperty_QueuePreservesInsertionOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		messages := rapid.SliceOf(rapid.String()).Draw(t, "messages")
		drop := rapid.IntRange(0, len(messages)).Draw(t, "drop")

		q := NewQueue()
		for _, m := range messages {
			q.Add(logging.LogEntry{Message: m})
		}
		q.DropFront(drop)

		entries := q.Snapshot()
		if len(entries) != len(messages)-drop {
			t.Fatalf("len = %d, want %d", len(entries), len(messages)-drop)
		}
		for i, e := range entries {
			if e.Message != messages[drop+i] {
				t.Fatalf("entry %d = %q, want %q", i, e.Message, messages[drop+i])
			}
		}
	})
}
