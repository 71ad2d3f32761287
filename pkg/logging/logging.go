// Package logging wraps logrus with the level/format/output knobs the rest of
// gwsyncer reads from configuration, and a per-component constructor so every
// driver and queue logs under its own name.
package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger wraps *logrus.Logger so call sites get the familiar structured API.
type Logger struct {
	*logrus.Logger
}

// Config controls level/format/output; zero value yields sane defaults.
type Config struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// New builds a Logger from Config, defaulting to info/text on stdout.
func New(cfg Config) *Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	l.SetOutput(os.Stdout)

	return &Logger{Logger: l}
}

// NewDefault is the convenience constructor used by components that have no
// reason to vary level/format, tagged with a "component" field.
func NewDefault(component string) *Logger {
	l := New(Config{Level: "info", Format: "text"})
	l.Logger.AddHook(&componentHook{component: component})
	return l
}

type componentHook struct{ component string }

func (h *componentHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *componentHook) Fire(e *logrus.Entry) error {
	e.Data["component"] = h.component
	return nil
}
