package pushchannel

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors a Channel reports to. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	attempts       prometheus.Counter
	drops          prometheus.Counter
	decodeFailures prometheus.Counter
	delivered      prometheus.Counter
	state          prometheus.Gauge
}

// NewMetrics registers the channel collectors with reg under namespace.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		attempts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pushchannel",
			Name:      "connect_attempts_total",
			Help:      "Connection attempts, initial and reconnects.",
		}),
		drops: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pushchannel",
			Name:      "connection_drops_total",
			Help:      "Failed attempts and dropped connections.",
		}),
		decodeFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pushchannel",
			Name:      "decode_failures_total",
			Help:      "Events discarded because the payload could not be decoded.",
		}),
		delivered: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pushchannel",
			Name:      "events_delivered_total",
			Help:      "Decoded events handed to the handler.",
		}),
		state: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pushchannel",
			Name:      "state",
			Help:      "Current channel state (0 disconnected, 1 connecting, 2 open, 3 retrying, 4 failed).",
		}),
	}
}

func (m *Metrics) attempt() {
	if m != nil {
		m.attempts.Inc()
	}
}

func (m *Metrics) drop() {
	if m != nil {
		m.drops.Inc()
	}
}

func (m *Metrics) decodeFailure() {
	if m != nil {
		m.decodeFailures.Inc()
	}
}

func (m *Metrics) deliver() {
	if m != nil {
		m.delivered.Inc()
	}
}

func (m *Metrics) setState(s State) {
	if m != nil {
		m.state.Set(float64(s))
	}
}
