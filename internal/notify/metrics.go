package notify

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome - итог выполнения задачи для метрик.
const (
	OutcomeSent      = "sent"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
	OutcomeMalformed = "malformed"
)

// Metrics - счетчики диспетчера. Нулевой указатель допустим и ничего не считает.
type Metrics struct {
	Enqueued *prometheus.CounterVec
	Executed *prometheus.CounterVec
}

// NewMetrics создает счетчики и регистрирует их в reg (если он задан).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Enqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blog",
			Subsystem: "notify",
			Name:      "jobs_enqueued_total",
			Help:      "Notification jobs accepted by the queue.",
		}, []string{"kind"}),
		Executed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blog",
			Subsystem: "notify",
			Name:      "jobs_executed_total",
			Help:      "Notification job executions by outcome.",
		}, []string{"kind", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.Enqueued, m.Executed)
	}
	return m
}

func (m *Metrics) enqueued(kind Kind) {
	if m == nil {
		return
	}
	m.Enqueued.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) executed(kind Kind, outcome string) {
	if m == nil {
		return
	}
	m.Executed.WithLabelValues(string(kind), outcome).Inc()
}
