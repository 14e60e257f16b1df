// Package logger builds the zerolog loggers of the CLI and the API server and
// tags log lines with the run, request or statement they belong to.
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Field names shared by all log lines.
const (
	FieldRunID     = "run_id"
	FieldRequestID = "request_id"
	FieldFile      = "file"
	FieldDialect   = "dialect"
)

// New creates a console logger on stderr at the given level. Statement output
// goes to stdout, so log lines never mix with CSV or JSON written there.
func New(level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// ForRun tags the log lines of one batch run.
func ForRun(log zerolog.Logger, runID uuid.UUID) zerolog.Logger {
	return log.With().Str(FieldRunID, runID.String()).Logger()
}

// ForRequest tags the log lines of one HTTP request.
func ForRequest(log zerolog.Logger, requestID string) zerolog.Logger {
	return log.With().Str(FieldRequestID, requestID).Logger()
}

// ForStatement tags the log lines about one statement file. The dialect is
// left out while it is not known yet.
func ForStatement(log zerolog.Logger, file, dialect string) zerolog.Logger {
	ctx := log.With().Str(FieldFile, file)
	if dialect != "" {
		ctx = ctx.Str(FieldDialect, dialect)
	}
	return ctx.Logger()
}
