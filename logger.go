package xr

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip attribute formatting, which keeps
// disabled logging off the per-tick hot path.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called while a host thread is ticking the driver.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for xr and its sub-packages.
// By default xr produces no log output. Pass nil to restore silence.
//
// Log levels used by xr:
//   - [slog.LevelDebug]: per-tick diagnostics (events, frame timing, swapchain indices)
//   - [slog.LevelInfo]: lifecycle (runtime identity, session begun/ended)
//   - [slog.LevelWarn]: recoverable per-tick failures (wait-frame, sync, pose queries)
//   - [slog.LevelError]: fatal frame-protocol failures
//
// Example:
//
//	xr.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger used by xr.
// Sub-packages (xrtest, gfx/soft, trace) call this to share the same
// configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
