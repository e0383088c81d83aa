// Package eventlog is a client for the EventLog service (http://eventlogapp.com).
//
// Basic usage:
//
//	logger := eventlog.New("foo@bar.com", "password", "your_app_api_key")
//	defer logger.Close(context.Background())
//	logger.Log("Something went horribly wrong!")
//
// Entries are queued in memory and sent, one POST per entry, on Flush or Close.
// An EventLogger is not safe for concurrent use.
package eventlog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/Chichichkin/EventLogAgent/internal/logging"
	"github.com/Chichichkin/EventLogAgent/internal/logging/batch"
)

type Config struct {
	Username    string
	Password    string
	APIKey      string
	EndpointURL string
}

type EventLogger struct {
	config     Config
	queue      *batch.Queue
	client     *Client
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

type Option func(*EventLogger)

func WithEndpointURL(endpointURL string) Option {
	return func(l *EventLogger) {
		l.config.EndpointURL = endpointURL
	}
}

// WithHTTPClient replaces the default transport. The client is copied, not modified.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(l *EventLogger) {
		if httpClient != nil {
			c := *httpClient
			l.httpClient = &c
		}
	}
}

// WithTimeout bounds each request. Zero keeps the transport default.
func WithTimeout(timeout time.Duration) Option {
	return func(l *EventLogger) {
		l.timeout = timeout
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *EventLogger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func New(username, password, apiKey string, opts ...Option) *EventLogger {
	l := &EventLogger{
		config: Config{
			Username:    username,
			Password:    password,
			APIKey:      apiKey,
			EndpointURL: DefaultEndpointURL,
		},
		queue:      batch.NewQueue(),
		httpClient: &http.Client{},
		logger:     zap.NewNop(),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.timeout > 0 {
		l.httpClient.Timeout = l.timeout
	}
	l.client = NewClient(l.httpClient, l.logger)

	return l
}

func (l *EventLogger) SetUsername(username string) *EventLogger {
	l.config.Username = username
	return l
}

func (l *EventLogger) SetPassword(password string) *EventLogger {
	l.config.Password = password
	return l
}

func (l *EventLogger) SetAPIKey(apiKey string) *EventLogger {
	l.config.APIKey = apiKey
	return l
}

func (l *EventLogger) SetEndpointURL(endpointURL string) *EventLogger {
	l.config.EndpointURL = endpointURL
	return l
}

func (l *EventLogger) Config() Config {
	return l.config
}

// Log queues message as an error event.
func (l *EventLogger) Log(message string) *EventLogger {
	return l.LogType(message, logging.Error)
}

// LogType queues message with the given event type. The type is not validated.
func (l *EventLogger) LogType(message string, eventType logging.EventType) *EventLogger {
	l.Enqueue(logging.LogEntry{
		Message: message,
		Type:    eventType,
		Source:  "api",
	})
	return l
}

// Enqueue queues a prepared entry as is. Only a missing timestamp is filled in.
func (l *EventLogger) Enqueue(entry logging.LogEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now()
	}
	l.queue.Add(entry)
}

func (l *EventLogger) Pending() int {
	return l.queue.Len()
}

// DropOldest removes the entry at the head of the queue and returns it.
func (l *EventLogger) DropOldest() (logging.LogEntry, bool) {
	entries := l.queue.Snapshot()
	if len(entries) == 0 {
		return logging.LogEntry{}, false
	}
	l.queue.DropFront(1)
	return entries[0], true
}

// Entries returns a copy of the queued entries in send order.
func (l *EventLogger) Entries() []logging.LogEntry {
	return l.queue.Snapshot()
}

// Flush writes every queued entry in insertion order. Delivered entries leave the queue.
// The first failure stops the flush; that entry and everything after it stay queued.
func (l *EventLogger) Flush(ctx context.Context) error {
	if l.queue.Len() == 0 {
		return nil
	}

	entries := l.queue.Snapshot()
	for i, entry := range entries {
		if err := l.Write(ctx, entry.Message, entry.Type); err != nil {
			l.queue.DropFront(i)
			l.logger.Warn("EventLog flush stopped",
				zap.Int("sent", i),
				zap.Int("pending", len(entries)-i),
				zap.Error(err))
			return fmt.Errorf("flush stopped with %d of %d entries pending: %w", len(entries)-i, len(entries), err)
		}
	}

	l.queue.DropFront(len(entries))
	l.logger.Debug("EventLog flush complete", zap.Int("sent", len(entries)))
	return nil
}

// Write sends a single event right away, bypassing the queue.
// It returns *EventLogError when the service reports a falsy status.
func (l *EventLogger) Write(ctx context.Context, message string, eventType logging.EventType) error {
	form := url.Values{
		"username":   {l.config.Username},
		"password":   {l.config.Password},
		"event_type": {eventType.WireValue()},
		"message":    {message},
	}

	resp, err := l.client.Send(ctx, l.config.EndpointURL, l.config.APIKey, form)
	if err != nil {
		return err
	}

	if !resp.Status {
		return &EventLogError{Message: resp.Message}
	}

	l.logger.Debug("EventLog event written",
		zap.Stringer("type", eventType),
		zap.String("response", resp.Message))
	return nil
}

// Close flushes the queue and releases idle transport connections.
// Defer it around the logger's lifetime so queued entries are not lost on exit.
func (l *EventLogger) Close(ctx context.Context) error {
	err := l.Flush(ctx)
	l.client.CloseIdleConnections()
	return err
}

var _ logging.Shipper = (*EventLogger)(nil)
