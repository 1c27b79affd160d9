package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors exported by the ledger service.
type Metrics struct {
	commands      *prometheus.CounterVec
	sagaPhases    *prometheus.CounterVec
	deliveries    *prometheus.CounterVec
	interventions *prometheus.CounterVec
	expired       *prometheus.CounterVec
}

// New builds the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pointsledger_commands_total",
			Help: "Commands handled by name and result.",
		}, []string{"command", "result"}),
		sagaPhases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pointsledger_saga_transitions_total",
			Help: "Saga transitions by saga type and resulting phase.",
		}, []string{"saga", "phase"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pointsledger_bus_deliveries_total",
			Help: "Fact deliveries by subscriber and result.",
		}, []string{"subscriber", "result"}),
		interventions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pointsledger_interventions_total",
			Help: "Failures recorded for manual intervention by source.",
		}, []string{"source"}),
		expired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pointsledger_expired_batches_total",
			Help: "Expiration batches processed by the sweeper by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.commands, m.sagaPhases, m.deliveries, m.interventions, m.expired)
	return m
}

func (m *Metrics) ObserveCommand(name string, err error) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(name, result(err)).Inc()
}

func (m *Metrics) ObserveSagaPhase(saga, phase string) {
	if m == nil {
		return
	}
	m.sagaPhases.WithLabelValues(saga, phase).Inc()
}

func (m *Metrics) ObserveDelivery(subscriber string, err error) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(subscriber, result(err)).Inc()
}

func (m *Metrics) ObserveIntervention(source string) {
	if m == nil {
		return
	}
	if source == "" {
		source = "unknown"
	}
	m.interventions.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveExpiredBatch(err error) {
	if m == nil {
		return
	}
	m.expired.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
