// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package resolver

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bureau-foundation/strata/lib/fserr"
	"github.com/bureau-foundation/strata/lib/pathspec"
)

// Metrics are the resolver's Prometheus collectors. A nil *Metrics
// records nothing.
type Metrics struct {
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	backendOpens    *prometheus.CounterVec
	openFailures    *prometheus.CounterVec
	evictions       *prometheus.CounterVec
	openFileSystems prometheus.Gauge
}

// NewMetrics creates the resolver collectors and registers them with
// registerer. A nil registerer leaves them unregistered, which tests
// use to read values directly.
func NewMetrics(registerer prometheus.Registerer) (*Metrics, error) {
	const (
		backendType = "type"
		errorKind   = "kind"
	)

	metrics := &Metrics{
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strata_resolver_cache_hits_total",
			Help: "file system opens served from the cache",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "strata_resolver_cache_misses_total",
			Help: "file system opens that required a backend open",
		}),
		backendOpens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "strata_resolver_backend_opens_total",
			Help: "successful backend opens",
		}, []string{backendType}),
		openFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "strata_resolver_backend_open_failures_total",
			Help: "failed backend opens",
		}, []string{backendType, errorKind}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "strata_resolver_evictions_total",
			Help: "backends closed after their last reference was released",
		}, []string{backendType}),
		openFileSystems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "strata_resolver_open_file_systems",
			Help: "backends currently open",
		}),
	}

	if registerer != nil {
		for _, collector := range []prometheus.Collector{
			metrics.cacheHits, metrics.cacheMisses, metrics.backendOpens,
			metrics.openFailures, metrics.evictions, metrics.openFileSystems,
		} {
			if err := registerer.Register(collector); err != nil {
				return nil, err
			}
		}
	}
	return metrics, nil
}

func (m *Metrics) hit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

func (m *Metrics) opened(tag pathspec.Tag) {
	if m != nil {
		m.backendOpens.WithLabelValues(string(tag)).Inc()
		m.openFileSystems.Inc()
	}
}

func (m *Metrics) failed(tag pathspec.Tag, err error) {
	if m == nil {
		return
	}
	kind := "unclassified"
	if found, ok := fserr.KindOf(err); ok {
		kind = found.String()
	}
	m.openFailures.WithLabelValues(string(tag), kind).Inc()
}

func (m *Metrics) evicted(tag pathspec.Tag) {
	if m != nil {
		m.evictions.WithLabelValues(string(tag)).Inc()
		m.openFileSystems.Dec()
	}
}
