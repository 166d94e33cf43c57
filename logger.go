package darkroom

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for darkroom and its sub-packages.
// By default darkroom produces no log output.
//
// Pass nil to restore the silent default. SetLogger is safe for
// concurrent use.
//
// Log levels used by darkroom:
//   - [slog.LevelDebug]: per-frame diagnostics (queue drains, draw sizes)
//   - [slog.LevelInfo]: lifecycle events (device selected, session ready)
//   - [slog.LevelWarn]: fallbacks and recoverable failures (bad LUT, export error)
//
// Example:
//
//	darkroom.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	// Propagate to the device provider if it supports logging.
	providerMu.RLock()
	p := provider
	providerMu.RUnlock()
	if p != nil {
		propagateLogger(p, l)
	}
}

// Logger returns the current logger used by darkroom.
// Sub-packages (filter, gpu, integration/editorcanvas) call this to share
// the same configuration without import cycles.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

func slogger() *slog.Logger { return loggerPtr.Load() }

// loggerSetter is implemented by device providers that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the logger to a provider if it implements
// loggerSetter. Called from both SetLogger and RegisterDeviceProvider.
func propagateLogger(p DeviceProvider, l *slog.Logger) {
	if ls, ok := p.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
