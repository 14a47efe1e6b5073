package logger

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/fatih/color"
)

// knownFrames skips runtime.Callers, TrailheadLogger.log and the exported level method.
const knownFrames = 3

// The Logger interface defines the levels a logging can occur at.
type Logger interface {
	Debug(msg string, ctx *LogContext)
	Error(msg string, ctx *LogContext)
	Info(msg string, ctx *LogContext)
	Warn(msg string, ctx *LogContext)
}

// The SkipLogger interface defines a Logger that scrolls back
// the number of frames provided in order to ascertain the call site.
type SkipLogger interface {
	AddSkip(i int) SkipLogger
	Skip() int
	Logger
}

// TrailheadLogger implements Logger on top of a [*log/slog.Logger],
// attributing each record to the code that called it.
type TrailheadLogger struct {
	l    *slog.Logger
	skip int
}

// New constructs a TrailheadLogger writing through l.
// A nil l falls back to [log/slog.Default].
func New(l *slog.Logger, opts ...LoggerOptFn) *TrailheadLogger {
	if l == nil {
		l = slog.Default()
	}

	tl := &TrailheadLogger{l: l}
	for _, opt := range opts {
		opt(tl)
	}

	return tl
}

// AddSkip replaces the current number of frames to scroll back
// when logging a message.
//
// Use Skip to get the current skip amount
// when needing to add to it with AddSkip.
func (tl *TrailheadLogger) AddSkip(i int) SkipLogger {
	newl := *tl
	newl.skip = i
	return &newl
}

// Debug writes a debug log.
func (tl *TrailheadLogger) Debug(msg string, ctx *LogContext) { tl.log(slog.LevelDebug, msg, ctx) }

// Error writes an error log.
func (tl *TrailheadLogger) Error(msg string, ctx *LogContext) { tl.log(slog.LevelError, msg, ctx) }

// Info writes an info log.
func (tl *TrailheadLogger) Info(msg string, ctx *LogContext) { tl.log(slog.LevelInfo, msg, ctx) }

// Warn writes a warning log.
func (tl *TrailheadLogger) Warn(msg string, ctx *LogContext) { tl.log(slog.LevelWarn, msg, ctx) }

// Skip returns the current amount of frames to scroll back
// when logging a message.
func (tl *TrailheadLogger) Skip() int { return tl.skip }

// Slog exposes the underlying [*log/slog.Logger].
func (tl *TrailheadLogger) Slog() *slog.Logger { return tl.l }

func (tl *TrailheadLogger) log(level slog.Level, msg string, ctx *LogContext) {
	bg := context.Background()
	if !tl.l.Enabled(bg, level) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(knownFrames+tl.skip, pcs[:])

	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	if ctx != nil {
		r.AddAttrs(slog.Any("log_context", *ctx))
	}

	_ = tl.l.Handler().Handle(bg, r)
}

// ColorizeLevel is a ReplaceAttr function for [log/slog.HandlerOptions]
// painting the level of a log line by its severity.
func ColorizeLevel(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 || a.Key != slog.LevelKey {
		return a
	}

	lvl, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}

	var c *color.Color
	switch {
	case lvl >= slog.LevelError:
		c = color.New(color.FgRed, color.Bold)
	case lvl >= slog.LevelWarn:
		c = color.New(color.FgYellow, color.Bold)
	case lvl >= slog.LevelInfo:
		c = color.New(color.FgBlue, color.Bold)
	default:
		c = color.New(color.FgWhite, color.Bold)
	}

	return slog.String(a.Key, c.Sprint(lvl.String()))
}

// TruncSourceAttr is a ReplaceAttr function for [log/slog.HandlerOptions]
// shortening the source of a log line to its parent directory, file and line.
func TruncSourceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 || a.Key != slog.SourceKey {
		return a
	}

	src, ok := a.Value.Any().(*slog.Source)
	if !ok || src == nil {
		return a
	}

	return slog.String(a.Key, fmt.Sprintf("%s:%d", immediateFilepath(src.File), src.Line))
}
