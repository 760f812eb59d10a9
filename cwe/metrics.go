// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cwe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for tree operations. API-only: without
// an SDK configured by the host these are no-ops.
var (
	tracer = otel.Tracer("aleutian.cwe")
	meter  = otel.Meter("aleutian.cwe")
)

// Metrics for tree load and query operations.
var (
	buildLatency metric.Float64Histogram
	buildTotal   metric.Int64Counter
	nodesLoaded  metric.Int64Histogram
	edgesLoaded  metric.Int64Histogram
	queryLatency metric.Float64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		buildLatency, err = meter.Float64Histogram(
			"cwe_build_duration_seconds",
			metric.WithDescription("Duration of tree load operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		buildTotal, err = meter.Int64Counter(
			"cwe_build_total",
			metric.WithDescription("Total number of tree load operations"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		nodesLoaded, err = meter.Int64Histogram(
			"cwe_nodes_loaded",
			metric.WithDescription("Number of nodes loaded per build"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		edgesLoaded, err = meter.Int64Histogram(
			"cwe_edges_loaded",
			metric.WithDescription("Number of edges loaded per build"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		queryLatency, err = meter.Float64Histogram(
			"cwe_query_duration_seconds",
			metric.WithDescription("Duration of tree query operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// recordBuildMetrics records metrics for a load operation.
func recordBuildMetrics(ctx context.Context, duration time.Duration, nodeCount, edgeCount int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Bool("success", success))

	buildLatency.Record(ctx, duration.Seconds(), attrs)
	buildTotal.Add(ctx, 1, attrs)

	if success {
		nodesLoaded.Record(ctx, int64(nodeCount))
		edgesLoaded.Record(ctx, int64(edgeCount))
	}
}

// recordQueryMetrics records metrics for a query operation.
func recordQueryMetrics(ctx context.Context, queryType string, duration time.Duration, resultCount int) {
	if err := initMetrics(); err != nil {
		return
	}

	queryLatency.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.String("query_type", queryType)),
	)
}

// startBuildSpan creates a span for a load operation.
func startBuildSpan(ctx context.Context, nodeRows, edgeRows int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Builder.Build",
		trace.WithAttributes(
			attribute.Int("cwe.node_rows", nodeRows),
			attribute.Int("cwe.edge_rows", edgeRows),
		),
	)
}

// setBuildSpanResult sets the result attributes on a load span.
func setBuildSpanResult(span trace.Span, nodeCount, edgeCount int, failed bool) {
	span.SetAttributes(
		attribute.Int("cwe.node_count", nodeCount),
		attribute.Int("cwe.edge_count", edgeCount),
		attribute.Bool("cwe.failed", failed),
	)
}

// startQuerySpan creates a span for a query operation.
func startQuerySpan(ctx context.Context, queryType, nodeID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Tree."+queryType,
		trace.WithAttributes(
			attribute.String("cwe.query_type", queryType),
			attribute.String("cwe.node_id", nodeID),
		),
	)
}
