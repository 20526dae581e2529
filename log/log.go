package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type Fields map[string]interface{}

type Logger interface {
	Print(...interface{})
	Printf(string, ...interface{})
	Debugf(string, ...interface{})
	Infof(string, ...interface{})
	Warnf(string, ...interface{})
	Error(...interface{})
	Errorf(string, ...interface{})
	Fatal(...interface{})
	Fatalf(string, ...interface{})

	WithFields(Fields) Logger
}

type logger struct {
	*logrus.Entry
}

// New builds the logger of the teams command. It writes to stderr so that
// stdout only carries command output.
func New(env string) Logger {
	l := logrus.New()
	l.Out = os.Stderr

	if env == "prod" {
		l.Formatter = &logrus.JSONFormatter{}
		l.Level = logrus.InfoLevel
	} else {
		l.Formatter = &logrus.TextFormatter{}
		l.Level = logrus.DebugLevel
	}

	return logger{l.WithFields(logrus.Fields{"app": "teams", "env": env})}
}

// NewWithWriter builds a logger writing JSON lines to w, mostly for tests.
func NewWithWriter(w io.Writer, level string) (Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	l := logrus.New()
	l.Out = w
	l.Formatter = &logrus.JSONFormatter{}
	l.Level = lvl

	return logger{logrus.NewEntry(l)}, nil
}

// Discard drops every log line.
func Discard() Logger {
	l := logrus.New()
	l.Out = io.Discard
	return logger{logrus.NewEntry(l)}
}

func (l logger) Print(args ...interface{}) {
	l.Println(args...)
}

func (l logger) Error(args ...interface{}) {
	l.Errorln(args...)
}

func (l logger) Fatal(args ...interface{}) {
	l.Fatalln(args...)
}

func (l logger) WithFields(fields Fields) Logger {
	return logger{l.Entry.WithFields(logrus.Fields(fields))}
}
