// 指示: miu200521358
// Package logging はアプリ共通のロガーを提供する。
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// LogLevel はログ出力レベルを表す。
type LogLevel int

const (
	// LOG_LEVEL_DEBUG はデバッグレベル。
	LOG_LEVEL_DEBUG LogLevel = iota
	// LOG_LEVEL_INFO は情報レベル。
	LOG_LEVEL_INFO
	// LOG_LEVEL_WARN は警告レベル。
	LOG_LEVEL_WARN
	// LOG_LEVEL_ERROR はエラーレベル。
	LOG_LEVEL_ERROR
)

// String はレベル名を返す。
func (l LogLevel) String() string {
	switch l {
	case LOG_LEVEL_DEBUG:
		return "DEBUG"
	case LOG_LEVEL_INFO:
		return "INFO"
	case LOG_LEVEL_WARN:
		return "WARN"
	case LOG_LEVEL_ERROR:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// ILogger はログ出力契約を表す。
type ILogger interface {
	Debug(format string, params ...any)
	Info(format string, params ...any)
	Warn(format string, params ...any)
	Error(format string, params ...any)
	SetLevel(level LogLevel)
	Level() LogLevel
}

// Logger は標準logパッケージへ出力するロガー。
type Logger struct {
	mu     sync.Mutex
	level  LogLevel
	logger *log.Logger
}

var (
	defaultLoggerMu sync.RWMutex
	defaultLogger   ILogger = NewLogger(os.Stderr, LOG_LEVEL_INFO)
)

// NewLogger は出力先とレベルを指定してロガーを生成する。
func NewLogger(out io.Writer, level LogLevel) *Logger {
	if out == nil {
		out = io.Discard
	}
	return &Logger{
		level:  level,
		logger: log.New(out, "", log.LstdFlags|log.Lmicroseconds),
	}
}

// DefaultLogger は既定ロガーを返す。
func DefaultLogger() ILogger {
	defaultLoggerMu.RLock()
	defer defaultLoggerMu.RUnlock()
	return defaultLogger
}

// SetDefaultLogger は既定ロガーを差し替える。nil は無視する。
func SetDefaultLogger(logger ILogger) {
	if logger == nil {
		return
	}
	defaultLoggerMu.Lock()
	defer defaultLoggerMu.Unlock()
	defaultLogger = logger
}

// SetDebug はデバッグ出力の有効/無効を既定ロガーへ反映する。
func SetDebug(enabled bool) {
	logger := DefaultLogger()
	if logger == nil {
		return
	}
	if enabled {
		logger.SetLevel(LOG_LEVEL_DEBUG)
		return
	}
	logger.SetLevel(LOG_LEVEL_INFO)
}

// SetLevel は出力レベルを設定する。
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Level は現在の出力レベルを返す。
func (l *Logger) Level() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Debug はデバッグログを出力する。
func (l *Logger) Debug(format string, params ...any) {
	l.output(LOG_LEVEL_DEBUG, format, params...)
}

// Info は情報ログを出力する。
func (l *Logger) Info(format string, params ...any) {
	l.output(LOG_LEVEL_INFO, format, params...)
}

// Warn は警告ログを出力する。
func (l *Logger) Warn(format string, params ...any) {
	l.output(LOG_LEVEL_WARN, format, params...)
}

// Error はエラーログを出力する。
func (l *Logger) Error(format string, params ...any) {
	l.output(LOG_LEVEL_ERROR, format, params...)
}

func (l *Logger) output(level LogLevel, format string, params ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}
	l.logger.Printf("[%s] %s", level, fmt.Sprintf(format, params...))
}
