package obs

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	loggerOnce sync.Once
	logger     *logrus.Logger

	// rejectSampler bounds how often rejected authentications reach the log.
	rejectSampler = &rate.Sometimes{First: 20, Interval: time.Second}
)

// Logger returns the shared structured logger used across the service.
func Logger() *logrus.Logger {
	loggerOnce.Do(func() {
		logger = logrus.New()
		logger.SetOutput(os.Stdout)
		logger.SetFormatter(jsonFormatter())
		logger.SetLevel(logrus.InfoLevel)
	})
	return logger
}

func jsonFormatter() *logrus.JSONFormatter {
	return &logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "ts",
		},
	}
}

// Configure sets level ("debug", "info", ...) and format ("json" or "text") of the shared logger.
func Configure(level, format string) error {
	l := Logger()
	if level != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("obs: %w", err)
		}
		l.SetLevel(lvl)
	}
	switch strings.ToLower(format) {
	case "", "json":
		l.SetFormatter(jsonFormatter())
	case "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("obs: unknown log format %q", format)
	}
	return nil
}

// LogRequest emits one access log line.
func LogRequest(fields logrus.Fields) {
	Logger().WithFields(fields).Info("request_complete")
}

// LogAuthRejection counts a rejected authentication and logs it, sampled.
// reason carries the internal cause that is never shown to the client.
func LogAuthRejection(outcome string, fields logrus.Fields) {
	authDecisions.WithLabelValues(outcome).Inc()
	rejectSampler.Do(func() {
		Logger().WithFields(fields).WithField("outcome", outcome).Warn("authentication rejected")
	})
}
