// Package metrics exposes the process-level Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PageViewsCollected counts page views accepted on the live tracking path.
	PageViewsCollected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ctarchive_page_views_collected_total",
		Help: "Page views stored via the tracking endpoint.",
	})

	// NormalizationFailures counts tracking requests rejected during URL
	// normalization, by failure reason.
	NormalizationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ctarchive_normalization_failures_total",
		Help: "Tracking payloads that failed URL normalization.",
	}, []string{"reason"})

	// ImportedLines and SkippedLines count log-import outcomes.
	ImportedLines = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ctarchive_import_lines_imported_total",
		Help: "Log lines imported as page views.",
	})
	SkippedLines = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ctarchive_import_lines_skipped_total",
		Help: "Log lines skipped during import (blank, unmatched, or unnormalizable).",
	})
)
