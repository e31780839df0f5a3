package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"olist-dashboard/internal/config"
)

const serviceName = "olist-dashboard"

type requestIDKey struct{}

func NewLogger(cfg config.LoggerConfig) *slog.Logger {
	return NewLoggerTo(os.Stdout, cfg)
}

// NewLoggerTo builds the application logger writing to w. Records logged with
// a context carry that context's request and trace ids.
func NewLoggerTo(w io.Writer, cfg config.LoggerConfig) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     levelFromString(cfg.Level),
		AddSource: true,
	}

	var base slog.Handler = slog.NewJSONHandler(w, opts)
	if strings.EqualFold(cfg.Format, "text") {
		base = slog.NewTextHandler(w, opts)
	}

	return slog.New(contextHandler{base}).With("service", serviceName)
}

func levelFromString(level string) slog.Level {
	var l slog.Level
	if level == "warning" {
		level = "warn"
	}
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// contextHandler adds request_id and trace_id when the record's context has
// them and the call site did not set them already.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	has := map[string]bool{}
	r.Attrs(func(a slog.Attr) bool {
		has[a.Key] = true
		return true
	})

	if id := GetRequestID(ctx); id != "" && !has["request_id"] {
		r.AddAttrs(slog.String("request_id", id))
	}
	if span := GetSpan(ctx); span != nil && !has["trace_id"] {
		r.AddAttrs(slog.String("trace_id", span.TraceID))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
