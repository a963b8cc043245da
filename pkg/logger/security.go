package logger

import (
	"context"
	"log/slog"
	"time"
)

// SecurityRecord mirrors a security event for structured log output. The
// durable copy lives in Postgres; this stream exists so operators can tail
// violations without a database query.
type SecurityRecord struct {
	EventType string
	Severity  string
	ActorID   string
	IPAddress string
	UserAgent string
	Detail    map[string]string
}

// SecurityLogger writes security-relevant events to the structured log
type SecurityLogger struct {
	logger *slog.Logger
}

// NewSecurityLogger creates a new security logger
func NewSecurityLogger(logger *slog.Logger) *SecurityLogger {
	return &SecurityLogger{logger: logger}
}

// LogEvent emits one security event record. High severity logs at warn.
func (sl *SecurityLogger) LogEvent(record SecurityRecord) {
	attrs := []slog.Attr{
		slog.String("audit_type", "security"),
		slog.String("event_type", record.EventType),
		slog.String("severity", record.Severity),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if record.ActorID != "" {
		attrs = append(attrs, slog.String("actor_id", record.ActorID))
	}
	if record.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", record.IPAddress))
	}
	if record.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", record.UserAgent))
	}
	for key, val := range record.Detail {
		attrs = append(attrs, slog.String(key, val))
	}

	level := slog.LevelInfo
	if record.Severity == "high" || record.Severity == "medium" {
		level = slog.LevelWarn
	}

	sl.logger.LogAttrs(context.Background(), level, "security_event", attrs...)
}
