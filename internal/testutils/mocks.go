package testutils

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Chichichkin/EventLogAgent/internal/logging"
)

// ReceivedEvent is one POST seen by the fake EventLog server.
type ReceivedEvent struct {
	Username  string
	Password  string
	APIKey    string
	EventType string
	Message   string
}

// EventLogServer is an httptest server that speaks the EventLog protocol.
// Respond decides the JSON reply; the default accepts everything.
type EventLogServer struct {
	*httptest.Server

	mu       sync.Mutex
	events   []ReceivedEvent
	Respond  func(event ReceivedEvent) (status any, message string)
	RawReply string
}

func NewEventLogServer(t *testing.T) *EventLogServer {
	s := &EventLogServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// URL of the log_message endpoint.
func (s *EventLogServer) EndpointURL() string {
	return s.Server.URL + "/api/log_message"
}

func (s *EventLogServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/api/log_message" {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	event := ReceivedEvent{
		Username:  r.PostForm.Get("username"),
		Password:  r.PostForm.Get("password"),
		APIKey:    r.Header.Get("X_API_KEY"),
		EventType: r.PostForm.Get("event_type"),
		Message:   r.PostForm.Get("message"),
	}

	s.mu.Lock()
	s.events = append(s.events, event)
	respond := s.Respond
	raw := s.RawReply
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if raw != "" {
		_, _ = w.Write([]byte(raw))
		return
	}

	status, message := any(true), "Message logged"
	if respond != nil {
		status, message = respond(event)
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"status": status, "message": message})
}

func (s *EventLogServer) Events() []ReceivedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]ReceivedEvent, len(s.events))
	copy(events, s.events)
	return events
}

// RejectAfter makes the server accept n events and reject every later one with message.
func (s *EventLogServer) RejectAfter(n int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accepted := 0
	s.Respond = func(ReceivedEvent) (any, string) {
		if accepted < n {
			accepted++
			return true, "Message logged"
		}
		return false, message
	}
}

type MockShipper struct {
	Entries    []logging.LogEntry
	Flushed    []logging.LogEntry
	mu         sync.Mutex
	ShouldFail bool
	FlushCalls int
}

func (m *MockShipper) Enqueue(entry logging.LogEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Entries = append(m.Entries, entry)
}

func (m *MockShipper) Flush(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FlushCalls++
	if m.ShouldFail {
		return fmt.Errorf("mock flush failed")
	}
	m.Flushed = append(m.Flushed, m.Entries...)
	m.Entries = nil
	return nil
}

func (m *MockShipper) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Entries)
}

func (m *MockShipper) DropOldest() (logging.LogEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Entries) == 0 {
		return logging.LogEntry{}, false
	}
	entry := m.Entries[0]
	m.Entries = m.Entries[1:]
	return entry, true
}

// GetStats returns pending entries, flushed entries and flush calls.
func (m *MockShipper) GetStats() (int, int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Entries), len(m.Flushed), m.FlushCalls
}

func (m *MockShipper) FlushedEntries() []logging.LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := make([]logging.LogEntry, len(m.Flushed))
	copy(entries, m.Flushed)
	return entries
}

func (m *MockShipper) FlushedMessages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	messages := make([]string, 0, len(m.Flushed))
	for _, e := range m.Flushed {
		messages = append(messages, e.Message)
	}
	return messages
}

// WaitFor polls cond until it holds or the timeout passes.
func WaitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func CreateTempLogFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
	return path
}

func AppendLines(t *testing.T, path string, lines ...string) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	defer f.Close()
	for _, line := range lines {
		if _, err := f.WriteString(line + "\n"); err != nil {
			t.Fatalf("append %s: %v", path, err)
		}
	}
}
