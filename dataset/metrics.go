// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dataset

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for source table reads. Registered once at package
// init via promauto; hosts that expose the default registry get these
// for free.
var (
	tableRowsParsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cwetree_table_rows_parsed_total",
			Help: "Total data rows parsed from CWE source tables",
		},
		[]string{"table"},
	)

	tableLoadErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cwetree_table_load_errors_total",
			Help: "Total CWE source table read failures",
		},
		[]string{"table"},
	)

	tableLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cwetree_table_load_duration_seconds",
			Help:    "Duration of CWE source table reads",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 2.5},
		},
		[]string{"table"},
	)
)

// observeRead records the outcome of one table read.
func observeRead(table string, start time.Time, rows int, err error) {
	tableLoadDuration.WithLabelValues(table).Observe(time.Since(start).Seconds())
	if err != nil {
		tableLoadErrors.WithLabelValues(table).Inc()
		return
	}
	tableRowsParsed.WithLabelValues(table).Add(float64(rows))
}
