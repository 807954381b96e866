// Package logger provides structured logging for the eFIND core.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger wraps zerolog with eFIND-specific helpers.
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration.
type Config struct {
	Level      string // debug, info, warn, error
	Pretty     bool   // pretty-print for development
	Output     io.Writer
	WithCaller bool
}

// NewLogger creates a new structured logger.
func NewLogger(cfg Config) *Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	zlog := zerolog.New(output).
		With().
		Timestamp().
		Str("service", "efind").
		Logger()

	if cfg.WithCaller {
		zlog = zlog.With().Caller().Logger()
	}

	return &Logger{zlog: zlog}
}

// GetZerolog returns the underlying zerolog logger.
func (l *Logger) GetZerolog() *zerolog.Logger {
	return &l.zlog
}

func (l *Logger) Info(msg string) *zerolog.Event  { return l.zlog.Info().Str("msg", msg) }
func (l *Logger) Debug(msg string) *zerolog.Event { return l.zlog.Debug().Str("msg", msg) }
func (l *Logger) Warn(msg string) *zerolog.Event  { return l.zlog.Warn().Str("msg", msg) }
func (l *Logger) Error(msg string) *zerolog.Event { return l.zlog.Error().Str("msg", msg) }

// WithFields returns a logger with additional fields attached.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.zlog.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{zlog: ctx.Logger()}
}

// WithComponent returns a logger tagged with the given component name,
// the eFIND analogue of the teacher's GrpcLogger/DbLogger helpers.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{zlog: l.zlog.With().Str("component", component).Logger()}
}

// LogFlush logs a completed (or failed) flushing-unit write.
func (l *Logger) LogFlush(pageIDs []uint64, bytesWritten int, duration time.Duration, err error) {
	event := l.zlog.Info().
		Str("component", "flush").
		Ints64("page_ids", toInt64s(pageIDs)).
		Int("bytes_written", bytesWritten).
		Dur("duration_ms", duration)

	if err != nil {
		event = l.zlog.Error().
			Str("component", "flush").
			Ints64("page_ids", toInt64s(pageIDs)).
			Err(err)
	}
	event.Msg("flushing unit written")
}

// LogBufferOverflow logs a synchronous flush triggered by the write
// buffer's byte budget being exceeded.
func (l *Logger) LogBufferOverflow(currentBytes, capacityBytes, required int64) {
	l.zlog.Warn().
		Str("component", "writebuffer").
		Int64("current_bytes", currentBytes).
		Int64("capacity_bytes", capacityBytes).
		Int64("required_bytes", required).
		Msg("write buffer overflow, triggering flush")
}

// LogCompaction logs a durability-log compaction pass.
func (l *Logger) LogCompaction(num int, duration time.Duration, bytesBefore, bytesAfter int64, err error) {
	event := l.zlog.Info().
		Str("component", "durlog").
		Int("compaction_num", num).
		Dur("duration_ms", duration).
		Int64("bytes_before", bytesBefore).
		Int64("bytes_after", bytesAfter)

	if err != nil {
		event = l.zlog.Error().
			Str("component", "durlog").
			Int("compaction_num", num).
			Err(err)
	}
	event.Msg("durability log compaction")
}

// LogRecovery logs the outcome of a crash-recovery replay.
func (l *Logger) LogRecovery(entriesReplayed int, duration time.Duration, err error) {
	event := l.zlog.Info().
		Str("component", "durlog").
		Int("entries_replayed", entriesReplayed).
		Dur("duration_ms", duration)

	if err != nil {
		event = l.zlog.Error().Str("component", "durlog").Err(err)
	}
	event.Msg("durability log recovery")
}

func toInt64s(in []uint64) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}

// Global logger instance, mirroring the teacher's convenience accessor.
var globalLogger *Logger

// InitGlobalLogger initializes the global logger.
func InitGlobalLogger(cfg Config) {
	globalLogger = NewLogger(cfg)
	log.Logger = *globalLogger.GetZerolog()
}

// GetGlobalLogger returns the global logger instance, initializing it
// with defaults on first use.
func GetGlobalLogger() *Logger {
	if globalLogger == nil {
		InitGlobalLogger(Config{Level: "info", Pretty: true})
	}
	return globalLogger
}
