package logger

import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	mu    sync.RWMutex
	sugar = zap.NewNop().Sugar()
)

// Init builds the process-wide logger. Production environments get the JSON
// encoder at info level, everything else the console encoder at debug level.
func Init(env string) {
	var cfg zap.Config
	switch strings.ToLower(env) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	zl, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		zl = zap.NewExample()
	}

	mu.Lock()
	sugar = zl.Sugar()
	mu.Unlock()
}

// Sync flushes buffered entries.
func Sync() {
	_ = get().Sync()
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func Debug(msg string, keysAndValues ...interface{}) {
	get().Debugw(msg, pairs(keysAndValues)...)
}

func Info(msg string, keysAndValues ...interface{}) {
	get().Infow(msg, pairs(keysAndValues)...)
}

func Warn(msg string, keysAndValues ...interface{}) {
	get().Warnw(msg, pairs(keysAndValues)...)
}

func Error(msg string, keysAndValues ...interface{}) {
	get().Errorw(msg, pairs(keysAndValues)...)
}

func Fatal(msg string, keysAndValues ...interface{}) {
	get().Fatalw(msg, pairs(keysAndValues)...)
}

// Logger is a child logger carrying fixed fields.
type Logger struct {
	s *zap.SugaredLogger
}

func With(keysAndValues ...interface{}) *Logger {
	return &Logger{s: get().With(pairs(keysAndValues)...)}
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, pairs(keysAndValues)...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Infow(msg, pairs(keysAndValues)...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.s.Warnw(msg, pairs(keysAndValues)...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, pairs(keysAndValues)...)
}

// pairs keeps a dangling trailing value (e.g. logger.Error("msg", err))
// from being reported as a malformed key by zap.
func pairs(kv []interface{}) []interface{} {
	if len(kv)%2 == 0 {
		return kv
	}
	out := make([]interface{}, 0, len(kv)+1)
	out = append(out, kv[:len(kv)-1]...)
	last := kv[len(kv)-1]
	if err, ok := last.(error); ok {
		return append(out, "error", err)
	}
	return append(out, "value", last)
}
