package logger

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Init configures the global logger. Unknown levels fall back to info.
func Init(level, format string) {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// For returns a log entry tagged with the given component name
func For(component string) *logrus.Entry {
	return logrus.WithField("component", component)
}
