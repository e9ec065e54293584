package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/voicecv-core/server/internal/core"
)

var DefaultLoggerOpts = &LoggerOpts{
	Environment: core.Development,
}

type LoggerOpts struct {
	Environment core.Environment
	// Service is attached to every production log line.
	Service string
	// Output defaults to stdout in production and a console writer elsewhere.
	Output io.Writer
}

func safe(otps ...LoggerOpts) *LoggerOpts {
	if len(otps) == 0 {
		return DefaultLoggerOpts
	}
	return &otps[0]
}

func Init(otps ...LoggerOpts) {
	opts := safe(otps...)
	level := opts.Environment.LogLevel()

	switch opts.Environment {
	case core.Production, core.Staging:
		out := opts.Output
		if out == nil {
			out = os.Stdout
		}
		ctx := zerolog.New(out).With().Timestamp().Str("env", opts.Environment.String())
		if opts.Service != "" {
			ctx = ctx.Str("service", opts.Service)
		}
		log.Logger = ctx.Logger().Level(level)
	case core.Testing:
		log.Logger = zerolog.New(console(opts.Output)).With().Timestamp().Logger().Level(level)
	default:
		log.Logger = zerolog.New(console(opts.Output)).With().Timestamp().Caller().Logger().Level(level)
	}
}

func console(out io.Writer) io.Writer {
	if out == nil {
		return zerolog.NewConsoleWriter()
	}
	return zerolog.ConsoleWriter{Out: out, NoColor: true}
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Panic() *zerolog.Event {
	return log.Panic()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}

// Truncate shortens s to limit runes for log fields, appending an ellipsis when cut.
func Truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
