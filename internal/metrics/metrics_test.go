package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordOperation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordOperation(OperationSync, ResultSuccess)
	m.RecordOperation(OperationSync, ResultSuccess)
	m.RecordOperation(OperationSubmit, ResultFailure)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues(OperationSync, ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues(OperationSubmit, ResultFailure)))
}

func TestSetLocalRecords(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SetLocalRecords(7)
	assert.Equal(t, 7.0, testutil.ToFloat64(m.localRecords))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordOperation(OperationSync, ResultFailure)
		m.SetLocalRecords(3)
	})
}
