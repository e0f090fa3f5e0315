package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveBuild("flat", 0.1)
		m.ObserveSearch("flat", true, 0.01)
		m.SetLibrariesIndexed(3)
	})
}

func TestMetrics_RecordsObservations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NotNil(t, m)

	m.ObserveSearch("flat", false, 0.02)
	m.ObserveSearch("flat", true, 0.01)
	m.SetLibrariesIndexed(2)

	families, err := reg.Gather()
	require.NoError(t, err)

	var sawGauge bool
	for _, f := range families {
		if f.GetName() == "corvus_libraries_indexed" {
			sawGauge = true
			require.Len(t, f.Metric, 1)
			assert.Equal(t, float64(2), f.Metric[0].GetGauge().GetValue())
		}
	}
	assert.True(t, sawGauge)
}

func TestNew_NilRegistryDisablesMetrics(t *testing.T) {
	m := New(nil)
	assert.Nil(t, m)
}
