package fusion

import (
	"io"
	"log/slog"
	"sync/atomic"
)

var (
	pkgLogger atomic.Pointer[slog.Logger]
	discard   = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// SetLogger sets the logger used for debug diagnostics such as registrations
// and rejected lifecycle transitions. nil restores the default, which
// discards everything.
func SetLogger(l *slog.Logger) { pkgLogger.Store(l) }

func logger() *slog.Logger {
	if l := pkgLogger.Load(); l != nil {
		return l
	}
	return discard
}
