package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/hpcloud/tail"
	"go.uber.org/zap"

	"github.com/Chichichkin/EventLogAgent/internal/logging"
	"github.com/Chichichkin/EventLogAgent/internal/logging/eventlog"
)

// LogShipperService tails files and ships every line through a Shipper.
// The Shipper is only touched from the run loop, so it needs no locking.
type LogShipperService struct {
	config    Config
	shipper   logging.Shipper
	lines     chan logging.LogEntry
	tailers   []*tail.Tail
	tailersWg sync.WaitGroup
	loopWg    sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	metrics   *ShipperMetrics
	logger    *zap.Logger
	stopOnce  sync.Once
}

type Config struct {
	Files         []string
	FlushInterval time.Duration
	DefaultType   logging.EventType
	// FromStart ships existing file content instead of only new lines
	FromStart       bool
	LineBufferSize  int
	ShutdownTimeout time.Duration
	// If > 0, log shipping counters at this interval
	ReportInterval time.Duration
}

func NewLogShipperService(ctx context.Context, config Config, shipper logging.Shipper, logger *zap.Logger) *LogShipperService {
	nCtx, cancel := context.WithCancel(ctx)

	if config.LineBufferSize <= 0 {
		config.LineBufferSize = 1000
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}
	if config.DefaultType == 0 {
		config.DefaultType = logging.General
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LogShipperService{
		config:  config,
		shipper: shipper,
		lines:   make(chan logging.LogEntry, config.LineBufferSize),
		ctx:     nCtx,
		cancel:  cancel,
		metrics: &ShipperMetrics{},
		logger:  logger,
	}
}

// Start opens every configured file. Nothing is started if any file cannot be tailed.
func (s *LogShipperService) Start() error {
	whence := io.SeekEnd
	if s.config.FromStart {
		whence = io.SeekStart
	}

	for _, path := range s.config.Files {
		t, err := tail.TailFile(path, tail.Config{
			Follow:    true,
			ReOpen:    true,
			Poll:      true,
			MustExist: true,
			Location:  &tail.SeekInfo{Offset: 0, Whence: whence},
			Logger:    tail.DiscardingLogger,
		})
		if err != nil {
			s.stopTailers()
			s.tailers = nil
			return fmt.Errorf("failed to tail file %s: %w", path, err)
		}
		s.tailers = append(s.tailers, t)
	}

	for _, t := range s.tailers {
		s.tailersWg.Add(1)
		go s.follow(t)
	}

	s.loopWg.Add(1)
	go s.run()

	s.logger.Info("Log shipper started",
		zap.Strings("files", s.config.Files),
		zap.Duration("flush_interval", s.config.FlushInterval))
	return nil
}

// Stop cancels tailing, ships whatever is still queued and waits for the loop to exit.
func (s *LogShipperService) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping log shipper...")
		s.cancel()
		s.loopWg.Wait()
		s.stopTailers()
		s.logger.Info("Log shipper stopped")
	})
}

// Done is closed once the service context is cancelled.
func (s *LogShipperService) Done() <-chan struct{} {
	return s.ctx.Done()
}

func (s *LogShipperService) Metrics() ShipperMetrics {
	return s.metrics.GetMetricsStamp()
}

// stopTailers kills every tail and waits for it to exit. A tail blocked on
// sending a line only notices the kill after that send, so Lines is drained
// until the tail closes it.
func (s *LogShipperService) stopTailers() {
	for _, t := range s.tailers {
		t.Kill(nil)
		go func(lines <-chan *tail.Line) {
			for range lines {
			}
		}(t.Lines)
		if err := t.Wait(); err != nil {
			s.logger.Debug("Tailer exited", zap.String("file", t.Filename), zap.Error(err))
		}
		t.Cleanup()
	}
}

func (s *LogShipperService) follow(t *tail.Tail) {
	defer s.tailersWg.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Tailer panicked", zap.String("file", t.Filename), zap.Any("panic", r))
		}
	}()

	for {
		select {
		case line, ok := <-t.Lines:
			if !ok {
				return
			}
			if line == nil {
				continue
			}
			if line.Err != nil {
				s.logger.Warn("Error reading file", zap.String("file", t.Filename), zap.Error(line.Err))
				continue
			}

			s.metrics.IncLinesRead()
			text := strings.TrimRight(line.Text, "\r")
			if strings.TrimSpace(text) == "" {
				s.metrics.IncLinesSkipped()
				continue
			}

			entry := logging.LogEntry{
				Message:   text,
				Type:      ClassifyLine(text, s.config.DefaultType),
				Timestamp: line.Time,
				Source:    t.Filename,
			}

			select {
			case s.lines <- entry:
			case <-s.ctx.Done():
				return
			}

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *LogShipperService) run() {
	defer s.loopWg.Done()

	var flushC <-chan time.Time
	if s.config.FlushInterval > 0 {
		flushTicker := time.NewTicker(s.config.FlushInterval)
		defer flushTicker.Stop()
		flushC = flushTicker.C
	}

	var reportC <-chan time.Time
	if s.config.ReportInterval > 0 {
		reportTicker := time.NewTicker(s.config.ReportInterval)
		defer reportTicker.Stop()
		reportC = reportTicker.C
	}

	for {
		select {
		case entry := <-s.lines:
			s.enqueue(entry)

		case <-flushC:
			s.flush(s.ctx)

		case <-reportC:
			s.report()

		case <-s.ctx.Done():
			// tailers are gone once this returns, so the drain below sees every line they produced
			s.tailersWg.Wait()
			s.drain()

			ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
			s.flush(ctx)
			cancel()
			s.report()
			return
		}
	}
}

func (s *LogShipperService) drain() {
	for {
		select {
		case entry := <-s.lines:
			s.enqueue(entry)
		default:
			return
		}
	}
}

func (s *LogShipperService) enqueue(entry logging.LogEntry) {
	s.shipper.Enqueue(entry)
	s.metrics.IncEntriesQueued()
}

// flush ships the queue. An entry the service refuses is dropped so the entries
// behind it still go out; transport errors leave everything queued for the next tick.
func (s *LogShipperService) flush(ctx context.Context) {
	for s.shipper.Pending() > 0 {
		before := s.shipper.Pending()
		err := s.shipper.Flush(ctx)
		s.metrics.AddEntriesSent(before - s.shipper.Pending())
		s.metrics.IncFlushes()
		if err == nil {
			return
		}
		s.metrics.IncFlushFailures()

		var rejected *eventlog.EventLogError
		if !errors.As(err, &rejected) {
			s.logger.Error("Failed to ship entries",
				zap.Int("pending", s.shipper.Pending()),
				zap.Error(err))
			return
		}

		entry, ok := s.shipper.DropOldest()
		if !ok {
			return
		}
		s.metrics.IncEntriesRejected()
		s.logger.Warn("Entry rejected by EventLog, dropping it",
			zap.String("source", entry.Source),
			zap.Stringer("type", entry.Type),
			zap.String("reason", rejected.Message))
	}
}

func (s *LogShipperService) report() {
	m := s.metrics.GetMetricsStamp()
	s.logger.Info("Shipping metrics",
		zap.Int("lines_read", m.LinesRead),
		zap.Int("lines_skipped", m.LinesSkipped),
		zap.Int("entries_queued", m.EntriesQueued),
		zap.Int("entries_sent", m.EntriesSent),
		zap.Int("flushes", m.Flushes),
		zap.Int("flush_failures", m.FlushFailures),
		zap.Int("entries_rejected", m.EntriesRejected),
		zap.Int("pending", s.shipper.Pending()))
}

var classifiers = []struct {
	pattern   *regexp.Regexp
	eventType logging.EventType
}{
	{regexp.MustCompile(`(?i)\b(error|err|fatal|panic|crit|critical|exception)\b`), logging.Error},
	{regexp.MustCompile(`(?i)\b(warn|warning)\b`), logging.Warning},
	{regexp.MustCompile(`(?i)\b(notice|info)\b`), logging.Notice},
	{regexp.MustCompile(`(?i)\b(success|succeeded|ok|done|completed)\b`), logging.Success},
}

// ClassifyLine picks an event type from level keywords in line, first match wins.
func ClassifyLine(line string, fallback logging.EventType) logging.EventType {
	for _, c := range classifiers {
		if c.pattern.MatchString(line) {
			return c.eventType
		}
	}
	return fallback
}
