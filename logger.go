package texgen

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/texgen/kernel"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

// Devices of open pipelines receive logger changes.
var (
	devicesMu sync.Mutex
	devices   = make(map[kernel.Device]int)
)

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for texgen and the devices of its open
// pipelines. By default, texgen produces no log output.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by texgen:
//   - [slog.LevelDebug]: per-pass diagnostics (kernel, dimensions, resource counts)
//   - [slog.LevelInfo]: lifecycle events (device opened, source loaded, map generated)
//   - [slog.LevelWarn]: non-fatal issues (release errors, failed background regeneration)
//
// Example:
//
//	texgen.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	devicesMu.Lock()
	defer devicesMu.Unlock()
	for dev := range devices {
		propagateLogger(dev, l)
	}
}

// Logger returns the current logger used by texgen.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by devices that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the logger to a device if it implements
// the loggerSetter interface.
func propagateLogger(dev kernel.Device, l *slog.Logger) {
	if ls, ok := dev.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}

func attachDevice(dev kernel.Device) {
	devicesMu.Lock()
	defer devicesMu.Unlock()
	devices[dev]++
	propagateLogger(dev, Logger())
}

func detachDevice(dev kernel.Device) {
	devicesMu.Lock()
	defer devicesMu.Unlock()
	if devices[dev]--; devices[dev] <= 0 {
		delete(devices, dev)
	}
}
