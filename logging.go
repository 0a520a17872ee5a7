package sibelia

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// newLogger builds an engine logger with timestamp formatting, matching
// the conventions used for other CLI-facing tools in this codebase.
// It writes to w at the given level; a nil w defaults to os.Stderr.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}
