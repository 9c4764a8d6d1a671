package logging

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/isseis/go-code-encrypter/internal/encrypter"
)

// Placeholder replaces redacted values
const Placeholder = "***"

// RedactionConfig selects which attributes are masked
type RedactionConfig struct {
	// KeyPatterns match attribute keys whose values are always masked
	KeyPatterns []*regexp.Regexp
	// ValuePrefixes mark string values that are key material wherever they appear
	ValuePrefixes []string
}

// DefaultRedactionConfig masks anything named like a credential and every
// base64: key string
func DefaultRedactionConfig() *RedactionConfig {
	return &RedactionConfig{
		KeyPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(password|token|secret|^key$|_key$|^key_)`),
		},
		ValuePrefixes: []string{encrypter.KeyPrefix},
	}
}

// RedactingHandler is a decorator that redacts sensitive information before forwarding to the underlying handler
type RedactingHandler struct {
	handler slog.Handler
	config  *RedactionConfig
}

// NewRedactingHandler creates a new redacting handler that wraps the given handler
func NewRedactingHandler(handler slog.Handler, config *RedactionConfig) *RedactingHandler {
	if config == nil {
		config = DefaultRedactionConfig()
	}
	return &RedactingHandler{handler: handler, config: config}
}

// Enabled reports whether the handler handles records at the given level
func (r *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return r.handler.Enabled(ctx, level)
}

// Handle redacts the record's attributes and forwards it
func (r *RedactingHandler) Handle(ctx context.Context, record slog.Record) error {
	redacted := slog.NewRecord(record.Time, record.Level, r.redactString(record.Message), record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		redacted.AddAttrs(r.redactAttr(attr))
		return true
	})
	return r.handler.Handle(ctx, redacted)
}

// WithAttrs returns a new RedactingHandler with the given attributes redacted
func (r *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		redacted = append(redacted, r.redactAttr(attr))
	}
	return &RedactingHandler{handler: r.handler.WithAttrs(redacted), config: r.config}
}

// WithGroup returns a new RedactingHandler with the given group name
func (r *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{handler: r.handler.WithGroup(name), config: r.config}
}

func (r *RedactingHandler) redactAttr(attr slog.Attr) slog.Attr {
	for _, pattern := range r.config.KeyPatterns {
		if pattern.MatchString(attr.Key) {
			return slog.String(attr.Key, Placeholder)
		}
	}

	value := attr.Value.Resolve()
	switch value.Kind() {
	case slog.KindString:
		return slog.String(attr.Key, r.redactString(value.String()))
	case slog.KindGroup:
		group := value.Group()
		redacted := make([]slog.Attr, 0, len(group))
		for _, a := range group {
			redacted = append(redacted, r.redactAttr(a))
		}
		return slog.Attr{Key: attr.Key, Value: slog.GroupValue(redacted...)}
	case slog.KindAny:
		if err, ok := value.Any().(error); ok {
			return slog.String(attr.Key, r.redactString(err.Error()))
		}
	}
	return attr
}

// redactString masks every whitespace-separated token that starts with a
// configured prefix
func (r *RedactingHandler) redactString(s string) string {
	for _, prefix := range r.config.ValuePrefixes {
		if !strings.Contains(s, prefix) {
			continue
		}
		fields := strings.Fields(s)
		for i, f := range fields {
			if idx := strings.Index(f, prefix); idx >= 0 {
				fields[i] = f[:idx] + Placeholder
			}
		}
		s = strings.Join(fields, " ")
	}
	return s
}
