// Package logging builds the process logger: a log/slog front end over a
// charmbracelet/log handler.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Formats accepted by New.
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatLogfmt = "logfmt"
)

// Formats lists the accepted format names.
var Formats = []any{FormatText, FormatJSON, FormatLogfmt}

// New returns a slog.Logger writing to w at level in the given format. An
// empty format selects text.
func New(w io.Writer, level slog.Level, format string) (*slog.Logger, error) {
	f, err := formatter(format)
	if err != nil {
		return nil, err
	}
	h := log.NewWithOptions(w, log.Options{
		Level:           log.Level(level),
		Formatter:       f,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	})
	return slog.New(h), nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(log.New(io.Discard))
}

func formatter(format string) (log.Formatter, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return log.TextFormatter, nil
	case FormatJSON:
		return log.JSONFormatter, nil
	case FormatLogfmt:
		return log.LogfmtFormatter, nil
	}
	return 0, fmt.Errorf("logging: unknown format %q", format)
}
