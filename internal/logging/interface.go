package logging

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EventType is the EventLog event category. The numeric value is what goes on the wire.
type EventType int

const (
	Error EventType = iota + 1
	Warning
	Notice
	Success
	General
)

var eventTypeNames = map[EventType]string{
	Error:   "error",
	Warning: "warning",
	Notice:  "notice",
	Success: "success",
	General: "general",
}

func (t EventType) String() string {
	if name, ok := eventTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// WireValue is the form value sent as event_type.
func (t EventType) WireValue() string {
	return strconv.Itoa(int(t))
}

// ParseEventType accepts a type name (any case) or its decimal value.
func ParseEventType(s string) (EventType, error) {
	s = strings.TrimSpace(s)
	for t, name := range eventTypeNames {
		if strings.EqualFold(s, name) {
			return t, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		if _, ok := eventTypeNames[EventType(n)]; ok {
			return EventType(n), nil
		}
	}
	return 0, fmt.Errorf("unknown event type %q", s)
}

type LogEntry struct {
	Message   string
	Type      EventType
	Timestamp time.Time
	// Source is where the entry came from (a file path, "cli"). Never sent.
	Source string
}

// Shipper queues entries and delivers them to a remote log service.
type Shipper interface {
	Enqueue(entry LogEntry)
	Flush(ctx context.Context) error
	Pending() int
	// DropOldest gives up on the head entry, e.g. one the service refused.
	DropOldest() (LogEntry, bool)
}
