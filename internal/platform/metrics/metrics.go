// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package metrics exposes Prometheus collectors for lifecycle transitions,
// OTP outcomes and HTTP traffic.
//
// A nil [*Metrics] is valid and records nothing, so services can be built in
// tests without a registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector owned by the service.
type Metrics struct {
	Transitions     *prometheus.CounterVec
	ReviewConflicts *prometheus.CounterVec
	OTPOutcomes     *prometheus.CounterVec
	Notifications   *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

// New registers the collectors on registerer.
//
// Pass a fresh [prometheus.NewRegistry] in tests to avoid duplicate registration.
func New(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plume_lifecycle_transitions_total",
			Help: "Total number of committed lifecycle transitions",
		}, []string{"entity", "status"}),
		ReviewConflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plume_review_conflicts_total",
			Help: "Total number of reviews rejected because another reviewer won",
		}, []string{"entity"}),
		OTPOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plume_otp_outcomes_total",
			Help: "Total number of OTP issue and verify outcomes",
		}, []string{"operation", "outcome"}),
		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plume_notifications_emitted_total",
			Help: "Total number of notifications stored, by type and whether the key was new",
		}, []string{"type", "created"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "plume_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
}

// ObserveTransition counts a committed status change.
func (m *Metrics) ObserveTransition(entity, status string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(entity, status).Inc()
}

// ObserveConflict counts a lost review race.
func (m *Metrics) ObserveConflict(entity string) {
	if m == nil {
		return
	}
	m.ReviewConflicts.WithLabelValues(entity).Inc()
}

// ObserveOTP counts an OTP issue or verify outcome.
func (m *Metrics) ObserveOTP(operation, outcome string) {
	if m == nil {
		return
	}
	m.OTPOutcomes.WithLabelValues(operation, outcome).Inc()
}

// ObserveNotification counts an Emit call.
func (m *Metrics) ObserveNotification(notificationType string, created bool) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(notificationType, strconv.FormatBool(created)).Inc()
}

// ObserveHTTP records the latency of a finished request.
func (m *Metrics) ObserveHTTP(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
