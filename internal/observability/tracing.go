package observability

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type SpanStatus string

const (
	SpanStatusOK    SpanStatus = "OK"
	SpanStatusError SpanStatus = "ERROR"
)

// Span times one operation. Spans started from a context that already holds
// one share its trace id and record it as their parent.
type Span struct {
	TraceID   string
	SpanID    string
	ParentID  string
	Operation string
	Start     time.Time
	Duration  time.Duration
	Status    SpanStatus
	Err       string

	tags []slog.Attr
	once sync.Once
}

type spanKey struct{}

func StartSpan(ctx context.Context, operation string) (context.Context, *Span) {
	id := newID()
	span := &Span{
		TraceID:   id,
		SpanID:    id[:16],
		Operation: operation,
		Start:     time.Now(),
		Status:    SpanStatusOK,
	}

	if parent := GetSpan(ctx); parent != nil {
		span.TraceID = parent.TraceID
		span.ParentID = parent.SpanID
	}

	return context.WithValue(ctx, spanKey{}, span), span
}

func GetSpan(ctx context.Context) *Span {
	span, _ := ctx.Value(spanKey{}).(*Span)
	return span
}

// SetTag records a key/value pair; a repeated key keeps the latest value.
func (s *Span) SetTag(key, value string) {
	for i := range s.tags {
		if s.tags[i].Key == key {
			s.tags[i].Value = slog.StringValue(value)
			return
		}
	}
	s.tags = append(s.tags, slog.String(key, value))
}

func (s *Span) SetError(err error) {
	s.Status = SpanStatusError
	if err != nil {
		s.Err = err.Error()
	}
}

// Finished reports whether End has been called.
func (s *Span) Finished() bool {
	return s.Duration > 0
}

// End fixes the span's duration. Only the first call counts.
func (s *Span) End() {
	s.once.Do(func() {
		s.Duration = max(time.Since(s.Start), time.Nanosecond)
	})
}

// Log ends the span and writes it at debug level, or warn when it failed.
func (s *Span) Log(ctx context.Context, logger *slog.Logger) {
	s.End()

	level := slog.LevelDebug
	if s.Status == SpanStatusError {
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		slog.String("trace_id", s.TraceID),
		slog.String("span_id", s.SpanID),
		slog.String("operation", s.Operation),
		slog.Duration("duration", s.Duration),
		slog.String("status", string(s.Status)),
	}
	if s.ParentID != "" {
		attrs = append(attrs, slog.String("parent_id", s.ParentID))
	}
	if s.Err != "" {
		attrs = append(attrs, slog.String("error", s.Err))
	}
	if len(s.tags) > 0 {
		attrs = append(attrs, slog.Attr{Key: "tags", Value: slog.GroupValue(s.tags...)})
	}
	logger.LogAttrs(ctx, level, "span finished", attrs...)
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
