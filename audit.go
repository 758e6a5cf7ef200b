package storefront

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Audit event types.
const (
	AuditVerify   = "session_verify"
	AuditLogin    = "session_login"
	AuditRegister = "session_register"
	AuditLogout   = "session_logout"
	AuditStale    = "session_stale_response"
	AuditGate     = "gate_decision"
)

// AuditEvent is one recorded session or gate outcome.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AuditSink receives events from the dispatcher goroutine, one at a time.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// NoOpSink discards everything.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink hands events to a consumer. Emit waits for buffer room until ctx ends.
type ChannelSink struct {
	ch chan AuditEvent
}

func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{ch: make(chan AuditEvent, max(buffer, 1))}
}

func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.ch <- event:
	case <-ctx.Done():
	}
}

// Events is the consumer side.
func (s *ChannelSink) Events() <-chan AuditEvent {
	return s.ch
}

// JSONWriterSink appends newline-delimited JSON to w.
type JSONWriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	if w == nil {
		w = io.Discard
	}
	return &JSONWriterSink{enc: json.NewEncoder(w)}
}

func (s *JSONWriterSink) Emit(_ context.Context, event AuditEvent) {
	s.mu.Lock()
	_ = s.enc.Encode(event)
	s.mu.Unlock()
}

// LogrusSink writes events as log entries: failures at warn, the rest at info.
type LogrusSink struct {
	log logrus.FieldLogger
}

func NewLogrusSink(l logrus.FieldLogger) *LogrusSink {
	return &LogrusSink{log: l}
}

func (s *LogrusSink) Emit(_ context.Context, event AuditEvent) {
	if s == nil || s.log == nil {
		return
	}
	entry := s.log.WithField("event_type", event.EventType).WithField("success", event.Success)
	if event.UserID != "" {
		entry = entry.WithField("user_id", event.UserID)
	}
	for k, v := range event.Metadata {
		entry = entry.WithField(k, v)
	}
	if !event.Timestamp.IsZero() {
		entry = entry.WithTime(event.Timestamp)
	}
	if event.Error != "" {
		entry.WithField("error", event.Error).Warn("audit")
		return
	}
	entry.Info("audit")
}
