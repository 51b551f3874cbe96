package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shinyyama/furnimarket-backend/internal/reqctx"
)

var Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init configures the process-wide logger.
func Init(serviceName, level string, pretty bool) {
	InitWriter(os.Stdout, serviceName, level, pretty)
}

func InitWriter(w io.Writer, serviceName, level string, pretty bool) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	output := w
	if pretty {
		output = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}

	Logger = zerolog.New(output).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	log.Logger = Logger
}

func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// FromContext returns the logger enriched with the request id and user id
// carried by ctx.
func FromContext(ctx context.Context) *zerolog.Logger {
	lc := Logger.With()
	if rid := reqctx.RID(ctx); rid != "" {
		lc = lc.Str("rid", rid)
	}
	if uid := reqctx.UserID(ctx); uid != "" {
		lc = lc.Str("uid", uid)
	}
	l := lc.Logger()
	return &l
}
