package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Proton-105/coinwatch-bot/internal/state"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot commands received labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	stateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "state_transitions_total",
			Help: "Total number of conversation state transitions",
		},
		[]string{"from", "to"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by kind and severity",
		},
		[]string{"kind", "severity"},
	)
	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Current number of conversation sessions waiting for input",
		},
	)
	sessionsByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sessions_by_state",
			Help: "Number of sessions per conversation state",
		},
		[]string{"state"},
	)
	marketRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_requests_total",
			Help: "Market data API requests labeled by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)
	marketRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "market_request_duration_seconds",
			Help:    "Latency of market data API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
	chartRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chart_render_duration_seconds",
			Help:    "Time spent rendering price charts",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)
	rateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limited_updates_total",
			Help: "Updates rejected by the per-user rate limiter",
		},
	)
)

var trackedStates = []state.State{
	state.StateAwaitingInfoSymbol,
	state.StateAwaitingPriceSymbol,
	state.StateAwaitingChartSymbol,
}

func init() {
	state.RegisterTransitionRecorder(RecordStateTransition)
}

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	if command == "" {
		command = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botCommandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordStateTransition tracks FSM transitions.
func RecordStateTransition(from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}

	stateTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(kind, severity string) {
	if kind == "" {
		kind = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(kind, severity).Inc()
}

// RecordMarketRequest observes one market data API call.
func RecordMarketRequest(endpoint, outcome string, duration time.Duration) {
	marketRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	marketRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordChartRender observes chart rendering time.
func RecordChartRender(duration time.Duration) {
	chartRenderDuration.Observe(duration.Seconds())
}

// RecordRateLimited counts an update dropped by the rate limiter.
func RecordRateLimited() {
	rateLimitedTotal.Inc()
}

// SetActiveSessions updates the gauge for pending sessions.
func SetActiveSessions(count int) {
	activeSessions.Set(float64(count))
}

// SetSessionsByState updates the gauge for the given state.
func SetSessionsByState(state string, count int) {
	if state == "" {
		state = "unknown"
	}

	sessionsByState.WithLabelValues(state).Set(float64(count))
}

// StateCollector gathers session counts from the FSM and emits gauge metrics.
type StateCollector struct {
	fsm state.StateMachine
}

// NewStateCollector builds a metrics collector bound to the provided FSM.
func NewStateCollector(fsm state.StateMachine) *StateCollector {
	return &StateCollector{fsm: fsm}
}

// Collect refreshes the session gauges once.
func (c *StateCollector) Collect(ctx context.Context) error {
	if c == nil || c.fsm == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sessions, err := c.fsm.GetAllStates(ctx)
	if err != nil {
		return err
	}

	SetActiveSessions(len(sessions))

	stateCounts := make(map[string]int, len(trackedStates))
	for _, s := range sessions {
		label := "unknown"
		if s != nil && s.State != "" {
			label = string(s.State)
		}
		stateCounts[label]++
	}

	sessionsByState.Reset()

	for _, tracked := range trackedStates {
		label := string(tracked)
		SetSessionsByState(label, stateCounts[label])
		delete(stateCounts, label)
	}

	for label, count := range stateCounts {
		SetSessionsByState(label, count)
	}

	return nil
}
