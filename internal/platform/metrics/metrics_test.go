// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/plume/internal/platform/metrics"
)

func TestMetrics_Counters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	m.ObserveTransition("kyc", "approved")
	m.ObserveTransition("kyc", "approved")
	m.ObserveConflict("kyc")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("kyc", "approved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReviewConflicts.WithLabelValues("kyc")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.ObserveTransition("story", "published")
		m.ObserveOTP("verify", "mismatch")
		m.ObserveNotification("welcome", true)
	})
}
