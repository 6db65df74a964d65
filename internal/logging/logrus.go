package logging

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// logrusLogger implements Logger on top of a shared logrus entry.
type logrusLogger struct {
	entry *logrus.Entry
}

// New builds the process logger. Unknown levels fall back to info; format
// "json" selects the JSON formatter, anything else plain text.
func New(level, format string) Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if strings.EqualFold(strings.TrimSpace(format), "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &logrusLogger{entry: logrus.NewEntry(l)}
}

// Module returns a child logger namespaced under ns. Nested calls join
// with a slash so "server" -> "server/conn" reads as a path.
func (l *logrusLogger) Module(ns string) Logger {
	if prev, ok := l.entry.Data["module"].(string); ok && prev != "" {
		ns = prev + "/" + ns
	}
	return &logrusLogger{entry: l.entry.WithField("module", ns)}
}

func (l *logrusLogger) Debug(msg string, keyValues ...interface{}) {
	l.with(keyValues).Debug(msg)
}

func (l *logrusLogger) Info(msg string, keyValues ...interface{}) {
	l.with(keyValues).Info(msg)
}

func (l *logrusLogger) Warn(msg string, keyValues ...interface{}) {
	l.with(keyValues).Warn(msg)
}

func (l *logrusLogger) Error(msg string, keyValues ...interface{}) {
	l.with(keyValues).Error(msg)
}

// with folds alternating key/value pairs into logrus fields. A trailing
// key without a value is kept under "extra".
func (l *logrusLogger) with(keyValues []interface{}) *logrus.Entry {
	if len(keyValues) == 0 {
		return l.entry
	}
	fields := make(logrus.Fields, len(keyValues)/2+1)
	for i := 0; i+1 < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			key = fmt.Sprint(keyValues[i])
		}
		fields[key] = keyValues[i+1]
	}
	if len(keyValues)%2 != 0 {
		fields["extra"] = keyValues[len(keyValues)-1]
	}
	return l.entry.WithFields(fields)
}
