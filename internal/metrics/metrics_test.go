package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ReportRendered("HTML", false, 10*time.Millisecond)
	m.ReportRendered("HTML", true, time.Millisecond)
	m.ReportRendered("DOCX", true, time.Millisecond)
	m.ActivityLogFailed("VULNERABILITY")
	m.AutoAttach("created")
	m.AutoAttach("exists")
	m.AutoAttach("exists")
	m.StorageOp("filesystem", "put", errors.New("disk full"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.reportsGenerated.WithLabelValues("HTML", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reportsGenerated.WithLabelValues("HTML", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activityFailures.WithLabelValues("VULNERABILITY")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.autoAttach.WithLabelValues("exists")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storageOps.WithLabelValues("filesystem", "put", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.renderDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ReportRendered("HTML", false, time.Second)
		m.ActivityLogFailed("PROJECT")
		m.AutoAttach("created")
		m.StorageOp("s3", "get", nil)
	})
}
