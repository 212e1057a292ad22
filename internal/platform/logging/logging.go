package logging

import (
	"io"
	"os"

	hclog "github.com/hashicorp/go-hclog"
)

// New builds the process logger. Unknown levels fall back to info.
func New(level string, jsonFormat bool, out io.Writer) hclog.Logger {
	if out == nil {
		out = os.Stderr
	}
	parsed := hclog.LevelFromString(level)
	if parsed == hclog.NoLevel {
		parsed = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       "audiometer",
		Level:      parsed,
		Output:     out,
		JSONFormat: jsonFormat,
	})
}

// OrNull returns logger, or a discarding logger when it is nil.
func OrNull(logger hclog.Logger) hclog.Logger {
	if logger == nil {
		return hclog.NewNullLogger()
	}
	return logger
}
