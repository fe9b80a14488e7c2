// Package logger builds the process-wide structured logger: a zap JSON core
// exposed through logr and carried in context.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/oakwood-commons/jlens/pkg/settings"
)

// Unexported context key type so no other package can collide with it.
type loggerContextKey struct{}

// Field names shared by every component.
const (
	CommandKey   = "command"    // cobra command name, set in setup
	SessionKey   = "session"    // viewer session uuid
	PathKey      = "path"       // canonical path such as $['a'][0]
	ModelKey     = "model"      // AI model identifier
	MatchesKey   = "matches"    // search hit count
	CommitKey    = "commit"     // build commit, attached to every entry
	VersionKey   = "version"    // build version, attached to every entry
	GoVersionKey = "go_version" // toolchain version, attached to every entry
	TimeStampKey = "timestamp"
	MessageKey   = "message"
)

// Verbosity levels passed to logr's V().
const (
	LevelDebug = 1
	LevelTrace = 2
)

var (
	once sync.Once // guards the global logger setup in Get

	// globalZap is kept for Sync; code logs through globalLogr.
	globalZap *zap.Logger
	// globalLogr is the fallback for FromContext when ctx carries no logger.
	globalLogr *logr.Logger

	discard = logr.Discard()
)

// Get initialises the global logger on first call, writing JSON to stderr at
// the given zap level (-1 debug, 0 info). Later calls return the same logger
// and ignore level.
// Every entry carries the commit, version and go_version fields; errors get
// a stack trace.
func Get(level int8) *logr.Logger {
	once.Do(func() {
		globalZap = newZap(zapcore.Lock(os.Stderr), level)
		l := zapr.NewLogger(globalZap)
		globalLogr = &l
	})
	if globalLogr == nil {
		return &discard
	}
	return globalLogr
}

// New builds a standalone logger writing to w. It does not touch the global
// logger.
func New(w io.Writer, level int8) *logr.Logger {
	l := zapr.NewLogger(newZap(zapcore.AddSync(w), level))
	return &l
}

func newZap(sink zapcore.WriteSyncer, level int8) *zap.Logger {
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.TimeKey = TimeStampKey
	enc.MessageKey = MessageKey

	goVersion := ""
	if bi, ok := debug.ReadBuildInfo(); ok {
		goVersion = bi.GoVersion
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(enc),
		sink,
		zap.NewAtomicLevelAt(zapcore.Level(level)),
	).With([]zapcore.Field{
		zap.String(CommitKey, settings.VersionInformation.Commit),
		zap.String(VersionKey, settings.VersionInformation.BuildVersion),
		zap.String(GoVersionKey, goVersion),
	})
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
}

// WithLogger attaches log to ctx.
func WithLogger(ctx context.Context, log *logr.Logger) context.Context {
	if lp, ok := ctx.Value(loggerContextKey{}).(*logr.Logger); ok && lp == log {
		return ctx
	}
	return context.WithValue(ctx, loggerContextKey{}, log)
}

// FromContext returns the logger in ctx, else the global one, else a no-op
// logger.
func FromContext(ctx context.Context) *logr.Logger {
	if ctx != nil {
		if log, ok := ctx.Value(loggerContextKey{}).(*logr.Logger); ok {
			return log
		}
	}
	if globalLogr != nil {
		return globalLogr
	}
	return &discard
}

// Discard returns a logger that drops everything.
func Discard() *logr.Logger { return &discard }

// WithValues returns lgr with extra key/value pairs.
func WithValues(lgr *logr.Logger, keysAndValues ...any) *logr.Logger {
	n := lgr.WithValues(keysAndValues...)
	return &n
}

// Sync flushes the global logger. Errors from syncing a terminal or pipe are
// ignored.
func Sync() {
	if globalZap == nil {
		return
	}
	if err := globalZap.Sync(); err != nil && !isIgnorableSyncError(err) {
		fmt.Fprintf(os.Stderr, "WARNING: failed to sync logger: %v\n", err)
	}
}

func isIgnorableSyncError(err error) bool {
	if errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.EIO) || errors.Is(err, syscall.EBADF) {
		return true
	}
	// Windows consoles wrap ERROR_INVALID_HANDLE in *os.PathError.
	return strings.Contains(err.Error(), "The handle is invalid")
}
