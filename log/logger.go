// Copyright (c) 2025 The blkreader developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"
)

// Logger is the interface used by every blkreader package (chain, reader,
// wire) to emit diagnostics.  Packages hold an unexported package-level
// Logger defaulting to Disabled and expose a UseLogger setter, the same
// backend-pluggable shape used per subsystem throughout the codebase.
type Logger interface {
	Tracef(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Criticalf(format string, args ...interface{})

	Trace(args ...interface{})
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Critical(args ...interface{})

	// SubSystem returns a Logger that tags every line, sharing this
	// logger's level and destination.
	SubSystem(tag string) Logger

	Level() Level
	SetLevel(level Level)
}

// Disabled is a Logger that drops every message.  It is the default for
// every package-level logger variable so that importing blkreader never
// requires wiring up logging first.
var Disabled Logger = &disabled{}

type disabled struct{}

func (disabled) Tracef(string, ...interface{})    {}
func (disabled) Debugf(string, ...interface{})    {}
func (disabled) Infof(string, ...interface{})     {}
func (disabled) Warnf(string, ...interface{})     {}
func (disabled) Errorf(string, ...interface{})    {}
func (disabled) Criticalf(string, ...interface{}) {}
func (disabled) Trace(...interface{})             {}
func (disabled) Debug(...interface{})             {}
func (disabled) Info(...interface{})              {}
func (disabled) Warn(...interface{})              {}
func (disabled) Error(...interface{})             {}
func (disabled) Critical(...interface{})          {}
func (disabled) SubSystem(string) Logger          { return Disabled }
func (disabled) Level() Level                     { return LevelOff }
func (disabled) SetLevel(Level)                   {}

// slog defines its own level scale. Extend it with trace/critical slots
// above and below the built-in range, mirroring flokicoin's log/v2
// level-mapping shim.
const (
	slogLevelTrace    slog.Level = -8
	slogLevelCritical slog.Level = 12
	slogLevelOff      slog.Level = 16
)

func toSlogLevel(l Level) slog.Level {
	switch l {
	case LevelTrace:
		return slogLevelTrace
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	case LevelCritical:
		return slogLevelCritical
	default:
		return slogLevelOff
	}
}

func fromSlogLevel(l slog.Level) Level {
	switch {
	case l < slog.LevelDebug:
		return LevelTrace
	case l < slog.LevelInfo:
		return LevelDebug
	case l < slog.LevelWarn:
		return LevelInfo
	case l < slog.LevelError:
		return LevelWarn
	case l < slogLevelCritical:
		return LevelError
	case l < slogLevelOff:
		return LevelCritical
	default:
		return LevelOff
	}
}

// Handler is a slog.Handler rendering "timestamp [LVL] tag: message" lines,
// the same compact one-line-per-record layout flokicoin's own log/v2
// handler produces.
type Handler struct {
	w          io.Writer
	level      *atomic.Int64
	timeSource func() time.Time
	noTime     bool
	tag        string
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithTimeSource overrides the clock used to stamp log lines. Tests use
// this to pin the output to a fixed time.
func WithTimeSource(src func() time.Time) HandlerOption {
	return func(h *Handler) { h.timeSource = src }
}

// WithNoTimestamp omits the leading timestamp entirely, useful for
// deterministic test output.
func WithNoTimestamp() HandlerOption {
	return func(h *Handler) { h.noTime = true }
}

// NewDefaultHandler returns a Handler writing to w at LevelInfo.
func NewDefaultHandler(w io.Writer, opts ...HandlerOption) *Handler {
	h := &Handler{
		w:          w,
		level:      new(atomic.Int64),
		timeSource: time.Now,
	}
	h.level.Store(int64(toSlogLevel(LevelInfo)))
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Level returns the handler's current minimum level.
func (h *Handler) Level() Level {
	return fromSlogLevel(slog.Level(h.level.Load()))
}

// SetLevel changes the handler's minimum level.
func (h *Handler) SetLevel(level Level) {
	h.level.Store(int64(toSlogLevel(level)))
}

// Enabled implements slog.Handler.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.Level(h.level.Load())
}

// Handle implements slog.Handler.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	level := fromSlogLevel(r.Level)

	var prefix string
	if !h.noTime {
		prefix = h.timeSource().Format("2006-01-02 15:04:05.000") + " "
	}
	if h.tag == "" {
		_, err := fmt.Fprintf(h.w, "%s[%s]: %s\n", prefix, level, r.Message)
		return err
	}
	_, err := fmt.Fprintf(h.w, "%s[%s] %s: %s\n", prefix, level, h.tag, r.Message)
	return err
}

// WithAttrs implements slog.Handler. blkreader's own log lines never
// attach structured attributes, so this returns h unchanged rather than
// building an attribute chain nothing will read.
func (h *Handler) WithAttrs(_ []slog.Attr) slog.Handler { return h }

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(_ string) slog.Handler { return h }

// withTag returns a copy of h tagged for a particular subsystem.
func (h *Handler) withTag(tag string) *Handler {
	tagged := *h
	tagged.tag = tag
	return &tagged
}

// slogger is the Logger implementation backing every package-level
// logger, wrapping a *log/slog.Logger over a Handler.
type slogger struct {
	handler *Handler
	sl      *slog.Logger
}

// NewSLogger returns a Logger backed by handler.
func NewSLogger(handler *Handler) Logger {
	return &slogger{handler: handler, sl: slog.New(handler)}
}

func (l *slogger) SubSystem(tag string) Logger {
	tagged := l.handler.withTag(tag)
	return &slogger{handler: tagged, sl: slog.New(tagged)}
}

func (l *slogger) Level() Level       { return l.handler.Level() }
func (l *slogger) SetLevel(lvl Level) { l.handler.SetLevel(lvl) }

func (l *slogger) log(level slog.Level, msg string) {
	l.sl.Log(context.Background(), level, msg)
}

func (l *slogger) Tracef(format string, args ...interface{}) {
	l.log(slogLevelTrace, fmt.Sprintf(format, args...))
}
func (l *slogger) Debugf(format string, args ...interface{}) {
	l.log(slog.LevelDebug, fmt.Sprintf(format, args...))
}
func (l *slogger) Infof(format string, args ...interface{}) {
	l.log(slog.LevelInfo, fmt.Sprintf(format, args...))
}
func (l *slogger) Warnf(format string, args ...interface{}) {
	l.log(slog.LevelWarn, fmt.Sprintf(format, args...))
}
func (l *slogger) Errorf(format string, args ...interface{}) {
	l.log(slog.LevelError, fmt.Sprintf(format, args...))
}
func (l *slogger) Criticalf(format string, args ...interface{}) {
	l.log(slogLevelCritical, fmt.Sprintf(format, args...))
}

func (l *slogger) Trace(args ...interface{})    { l.log(slogLevelTrace, fmt.Sprint(args...)) }
func (l *slogger) Debug(args ...interface{})    { l.log(slog.LevelDebug, fmt.Sprint(args...)) }
func (l *slogger) Info(args ...interface{})     { l.log(slog.LevelInfo, fmt.Sprint(args...)) }
func (l *slogger) Warn(args ...interface{})     { l.log(slog.LevelWarn, fmt.Sprint(args...)) }
func (l *slogger) Error(args ...interface{})    { l.log(slog.LevelError, fmt.Sprint(args...)) }
func (l *slogger) Critical(args ...interface{}) { l.log(slogLevelCritical, fmt.Sprint(args...)) }
