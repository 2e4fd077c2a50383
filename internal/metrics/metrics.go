// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gurkanbulca/taskboard/internal/errs"
)

var (
	Commands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_commands_total",
			Help: "Commands handled, by transport, method and outcome",
		},
		[]string{"transport", "method", "outcome"},
	)
	CommandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskboard_command_duration_seconds",
			Help:    "Command latency, by transport and method",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"transport", "method"},
	)
)

func init() {
	prometheus.MustRegister(Commands)
	prometheus.MustRegister(CommandDuration)
}

// Outcome labels err by its domain kind.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errs.IsValidation(err):
		return "invalid"
	case errs.IsNotFound(err):
		return "not_found"
	case errs.IsBackend(err):
		return "backend"
	default:
		return "error"
	}
}

// Observe records one finished command.
func Observe(transport, method string, start time.Time, err error) {
	Commands.WithLabelValues(transport, method, Outcome(err)).Inc()
	CommandDuration.WithLabelValues(transport, method).Observe(time.Since(start).Seconds())
}
