package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OperationSubmit     = "submit"
	OperationSync       = "sync"
	OperationGitHubSync = "github_sync"

	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultDisabled = "disabled"
)

// Metrics holds the sync counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	operations   *prometheus.CounterVec
	localRecords prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "msp_sync_operations_total",
			Help: "Remote delivery attempts by operation and result.",
		}, []string{"operation", "result"}),
		localRecords: factory.NewGauge(prometheus.GaugeOpts{
			Name: "msp_local_registrations",
			Help: "Registrations held in the local store at the last sync.",
		}),
	}
}

func (m *Metrics) RecordOperation(operation, result string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) SetLocalRecords(n int) {
	if m == nil {
		return
	}
	m.localRecords.Set(float64(n))
}
