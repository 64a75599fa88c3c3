// Package log is the process-wide structured logger of the node. It wraps a
// single zerolog.Logger that every package writes to through the level-named
// helpers below.
package log

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"path"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	RFC3339Milli = "2006-01-02T15:04:05.000Z07:00"
)

var (
	logger   zerolog.Logger
	loggerMu sync.RWMutex

	levels = map[string]zerolog.Level{
		LogLevelDebug: zerolog.DebugLevel,
		LogLevelInfo:  zerolog.InfoLevel,
		LogLevelWarn:  zerolog.WarnLevel,
		LogLevelError: zerolog.ErrorLevel,
	}
)

func init() {
	// $LOG_LEVEL also applies to tests, which never call Init themselves.
	Init(cmp.Or(os.Getenv("LOG_LEVEL"), LogLevelError), "stderr", nil)
}

// writer used by the package tests instead of a real output
var testWriter io.Writer

const testWriterName = "log_test_writer"

// Logger returns a copy of the current global logger.
func Logger() *zerolog.Logger {
	l := current()
	return &l
}

func current() zerolog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// warnWriter forwards only warning and error lines, used for the optional
// error log file.
type warnWriter struct {
	io.Writer
}

func (w *warnWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < zerolog.WarnLevel {
		return len(p), nil
	}
	return w.Writer.Write(p)
}

// Init (re)configures the global logger. Output can be "stdout", "stderr" or
// a file path; files ending in ".json" receive raw JSON lines while the
// console output goes to stdout. If errorOutput is not nil, warnings and
// errors are copied to it without colors. Init panics on an unknown level.
func Init(level, output string, errorOutput io.Writer) {
	lvl, ok := levels[level]
	if !ok {
		panic(fmt.Sprintf("invalid log level: %q", level))
	}

	var writers []io.Writer
	var console io.Writer
	switch output {
	case "stdout":
		console = os.Stdout
	case "stderr":
		console = os.Stderr
	case testWriterName:
		console = testWriter
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			panic(fmt.Sprintf("cannot create log output: %v", err))
		}
		console = f
		if strings.HasSuffix(output, ".json") {
			writers = append(writers, f)
			console = os.Stdout
		}
	}
	writers = append(writers, zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: RFC3339Milli,
		NoColor:    output == testWriterName,
	})
	if errorOutput != nil {
		writers = append(writers, &warnWriter{zerolog.ConsoleWriter{
			Out:        errorOutput,
			TimeFormat: RFC3339Milli,
			NoColor:    true,
		}})
	}

	var out io.Writer = writers[0]
	if len(writers) > 1 {
		out = zerolog.MultiLevelWriter(writers...)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	if output == testWriterName {
		fixed := time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)
		zerolog.TimestampFunc = func() time.Time { return fixed }
	}
	// skip the frames of this wrapper so the caller is the real call site
	zerolog.CallerSkipFrameCount = 3
	zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
		return fmt.Sprintf("%s/%s:%d", path.Base(path.Dir(file)), path.Base(file), line)
	}

	l := zerolog.New(out).With().Timestamp().Caller().Logger().Level(lvl)
	loggerMu.Lock()
	logger = l
	loggerMu.Unlock()
	l.Debug().Msgf("logger ready at level %s writing to %s", level, output)
}

// Level returns the name of the current log level.
func Level() string {
	lvl := current().GetLevel()
	for name, l := range levels {
		if l == lvl {
			return name
		}
	}
	return lvl.String()
}

func Debug(args ...any) {
	l := current()
	if l.GetLevel() > zerolog.DebugLevel {
		return
	}
	l.Debug().Msg(fmt.Sprint(args...))
}

func Info(args ...any) {
	l := current()
	l.Info().Msg(fmt.Sprint(args...))
}

func Warn(args ...any) {
	l := current()
	l.Warn().Msg(fmt.Sprint(args...))
}

func Error(args ...any) {
	l := current()
	l.Error().Msg(fmt.Sprint(args...))
}

// Fatal logs the message with the current stack and exits the process.
func Fatal(args ...any) {
	l := current()
	l.Fatal().Msg(fmt.Sprint(args...) + "\n" + string(debug.Stack()))
	panic("unreachable")
}

func Debugf(template string, args ...any) {
	Logger().Debug().Msgf(template, args...)
}

func Infof(template string, args ...any) {
	Logger().Info().Msgf(template, args...)
}

func Warnf(template string, args ...any) {
	Logger().Warn().Msgf(template, args...)
}

func Errorf(template string, args ...any) {
	Logger().Error().Msgf(template, args...)
}

func Fatalf(template string, args ...any) {
	Logger().Fatal().Msgf(template+"\n"+string(debug.Stack()), args...)
}

// Debugw logs msg at debug level with the given key/value pairs.
func Debugw(msg string, keyvalues ...any) {
	Logger().Debug().Fields(keyvalues).Msg(msg)
}

// Infow logs msg at info level with the given key/value pairs.
func Infow(msg string, keyvalues ...any) {
	Logger().Info().Fields(keyvalues).Msg(msg)
}

// Warnw logs msg at warning level with the given key/value pairs.
func Warnw(msg string, keyvalues ...any) {
	Logger().Warn().Fields(keyvalues).Msg(msg)
}

// Errorw logs err with msg at error level.
func Errorw(err error, msg string) {
	Logger().Error().Err(err).Msg(msg)
}

// Monitor logs a set of named values at info level without caller
// information. Used for periodic stats.
func Monitor(msg string, fields map[string]any) {
	Logger().Info().CallerSkipFrame(100).Fields(fields).Msg(msg)
}
