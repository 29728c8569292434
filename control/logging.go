// File: control/logging.go
// Author: momentics <momentics@gmail.com>
//
// Structured logging wiring for the manager, thread contexts, and the
// AIO driver. Grounded on the corpus's only pairing of raw AIO/io_uring
// syscalls with a real structured logger (logrus).

package control

import (
	"os"

	"github.com/momentics/hioload-io/api"
	"github.com/sirupsen/logrus"
)

var _ api.ErrorPolicy = (*LogErrorPolicy)(nil)

// NewLogger returns a logrus logger configured for the io manager: text
// formatting with full timestamps, level read from IO_MANAGER_LOG_LEVEL
// (defaulting to info).
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level := logrus.InfoLevel
	if raw := os.Getenv("IO_MANAGER_LOG_LEVEL"); raw != "" {
		if parsed, err := logrus.ParseLevel(raw); err == nil {
			level = parsed
		}
	}
	log.SetLevel(level)
	return log
}

// LogErrorPolicy is the default api.ErrorPolicy: it logs through logrus.
// It does not touch Metrics; the driver bumps the relevant AIOMetrics
// counter itself before reporting.
type LogErrorPolicy struct {
	Log     logrus.FieldLogger
	Metrics *AIOMetrics
}

// NewLogErrorPolicy builds a LogErrorPolicy over the given logger and
// metrics block.
func NewLogErrorPolicy(log logrus.FieldLogger, metrics *AIOMetrics) *LogErrorPolicy {
	return &LogErrorPolicy{Log: log, Metrics: metrics}
}

func (p *LogErrorPolicy) ReportSubmissionError(op string, fd int, cookie any, err error) {
	p.Log.WithFields(logrus.Fields{"op": op, "fd": fd, "cookie": cookie}).WithError(err).
		Error("aio submission hard failure")
}

func (p *LogErrorPolicy) ReportCompletionError(fd int, cookie any, result int64) {
	p.Log.WithFields(logrus.Fields{"fd": fd, "cookie": cookie, "result": result}).
		Warn("aio completion error")
}

func (p *LogErrorPolicy) ReportFatal(op string, err error) {
	p.Log.WithField("op", op).WithError(err).Error("state machine violation, operation dropped")
}
