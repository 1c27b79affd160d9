package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserversCountByLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveCommand("CreateAuthorizedTransaction", nil)
	m.ObserveCommand("CreateAuthorizedTransaction", errors.New("insufficient"))
	m.ObserveCommand("CreateAuthorizedTransaction", errors.New("insufficient"))
	m.ObserveSagaPhase("creation", "ended")
	m.ObserveDelivery("expiration", nil)
	m.ObserveIntervention("")
	m.ObserveExpiredBatch(nil)

	if got := testutil.ToFloat64(m.commands.WithLabelValues("CreateAuthorizedTransaction", "error")); got != 2 {
		t.Fatalf("expected 2 failed commands, got %v", got)
	}
	if got := testutil.ToFloat64(m.commands.WithLabelValues("CreateAuthorizedTransaction", "ok")); got != 1 {
		t.Fatalf("expected 1 successful command, got %v", got)
	}
	if got := testutil.ToFloat64(m.interventions.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("expected unknown source label, got %v", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if len(families) != 5 {
		t.Fatalf("expected 5 metric families, got %d", len(families))
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveCommand("x", nil)
	m.ObserveSagaPhase("s", "p")
	m.ObserveDelivery("d", nil)
	m.ObserveIntervention("i")
	m.ObserveExpiredBatch(nil)
}
