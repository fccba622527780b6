package extensions

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	treectx "github.com/treekit/treectx"
)

// LoggingExtension logs all protocol operations
type LoggingExtension struct {
	treectx.BaseExtension
	logger *slog.Logger
}

// NewLoggingExtension creates a new logging extension.
// logHandler: slog.Handler for output (use HumanHandler for formatted
// output, NewSilentHandler for tests, or any other slog.Handler)
func NewLoggingExtension(logHandler slog.Handler) *LoggingExtension {
	return &LoggingExtension{
		BaseExtension: treectx.NewBaseExtension("logging"),
		logger:        slog.New(logHandler),
	}
}

func (e *LoggingExtension) Wrap(next func() error, op *treectx.Operation) error {
	start := time.Now()
	err := next()

	attrs := []any{
		"kind", string(op.Kind),
		"context", op.Context.Name(),
		"node", op.Node.Name(),
		"duration", time.Since(start),
	}
	if op.Peer != nil {
		attrs = append(attrs, "peer", op.Peer.Name())
	}

	if err != nil {
		e.logger.Error("operation failed", append(attrs, "error", err.Error())...)
	} else {
		e.logger.Debug("operation completed", attrs...)
	}

	return err
}

func (e *LoggingExtension) OnNoProvider(consumer *treectx.Node, ctx treectx.AnyContext, attempt int) {
	e.logger.Warn("no provider found",
		"context", ctx.Name(),
		"consumer", consumer.Name(),
		"attempt", attempt,
	)
}

// SilentHandler is a slog.Handler that discards all log output
// Useful for testing when you don't want log output
type SilentHandler struct{}

// NewSilentHandler creates a new silent log handler
func NewSilentHandler() *SilentHandler {
	return &SilentHandler{}
}

func (h *SilentHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return false // Never enabled, discards everything
}

func (h *SilentHandler) Handle(ctx context.Context, record slog.Record) error {
	return nil // Do nothing
}

func (h *SilentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h // Return self, no state to modify
}

func (h *SilentHandler) WithGroup(name string) slog.Handler {
	return h // Return self, no state to modify
}

// HumanHandler is a slog.Handler that formats records for human readability,
// one attribute per line (tree renderings need their line breaks intact)
type HumanHandler struct {
	writer io.Writer
	level  slog.Level
}

// NewHumanHandler creates a new human-readable log handler
func NewHumanHandler(writer io.Writer, level slog.Level) *HumanHandler {
	return &HumanHandler{
		writer: writer,
		level:  level,
	}
}

func (h *HumanHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *HumanHandler) Handle(ctx context.Context, record slog.Record) error {
	if _, err := fmt.Fprintf(h.writer, "[%s] %s\n", record.Level, record.Message); err != nil {
		return err
	}
	var writeErr error
	record.Attrs(func(a slog.Attr) bool {
		if _, err := fmt.Fprintf(h.writer, "  %s: %v\n", a.Key, a.Value); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	return writeErr
}

func (h *HumanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	// For simplicity, return self (could create new handler with attrs if needed)
	return h
}

func (h *HumanHandler) WithGroup(name string) slog.Handler {
	// For simplicity, return self (could create new handler with group if needed)
	return h
}
