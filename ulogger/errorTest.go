package ulogger

import (
	"fmt"
	"sync"
)

type TestingT interface {
	Helper()
	Logf(format string, args ...any)
}

// ErrorTestLogger drops debug and info output but keeps every warning and error so a test
// can assert on them.
type ErrorTestLogger struct {
	t      TestingT
	mu     sync.Mutex
	errors []string
	warns  []string
}

func NewErrorTestLogger(t TestingT) *ErrorTestLogger {
	return &ErrorTestLogger{t: t}
}

func (l *ErrorTestLogger) LogLevel() int {
	return 0
}

func (l *ErrorTestLogger) SetLogLevel(string) {}

func (l *ErrorTestLogger) New(string, ...Option) Logger {
	return l
}

func (l *ErrorTestLogger) Duplicate(...Option) Logger {
	return l
}

func (l *ErrorTestLogger) Debugf(string, ...interface{}) {}

func (l *ErrorTestLogger) Infof(string, ...interface{}) {}

func (l *ErrorTestLogger) Warnf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.warns = append(l.warns, fmt.Sprintf(format, args...))
}

func (l *ErrorTestLogger) Errorf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.t.Helper()

	msg := fmt.Sprintf(format, args...)
	l.errors = append(l.errors, msg)
	l.t.Logf("ERR_LEVEL %s", msg)
}

func (l *ErrorTestLogger) Fatalf(format string, args ...interface{}) {
	l.Errorf("FATAL_LEVEL "+format, args...)
}

// Errors returns a copy of the messages logged at error level.
func (l *ErrorTestLogger) Errors() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.errors...)
}

func (l *ErrorTestLogger) Warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.warns...)
}
