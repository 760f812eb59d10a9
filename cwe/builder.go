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
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/cwetree/dataset"
	"github.com/AleutianAI/cwetree/pkg/logging"
)

// ProgressPhase identifies the load phase in progress reports.
type ProgressPhase int

const (
	// ProgressPhaseNodes indicates node table rows are being registered.
	ProgressPhaseNodes ProgressPhase = iota

	// ProgressPhaseEdges indicates relationship rows are being wired.
	ProgressPhaseEdges

	// ProgressPhaseSealing indicates the tree is being sealed.
	ProgressPhaseSealing
)

// String returns a human-readable phase name.
func (p ProgressPhase) String() string {
	switch p {
	case ProgressPhaseNodes:
		return "nodes"
	case ProgressPhaseEdges:
		return "edges"
	case ProgressPhaseSealing:
		return "sealing"
	default:
		return "unknown"
	}
}

// BuildProgress carries progress information during a load.
type BuildProgress struct {
	// Phase is the current load phase.
	Phase ProgressPhase

	// RowsTotal is the combined row count across both tables.
	RowsTotal int

	// RowsProcessed is the number of rows consumed so far.
	RowsProcessed int

	// NodesLoaded is the number of nodes registered so far.
	NodesLoaded int

	// EdgesLoaded is the number of edges wired so far.
	EdgesLoaded int
}

// ProgressFunc is a callback for load progress updates. Called from the
// loading goroutine; keep it fast.
type ProgressFunc func(progress BuildProgress)

// BuilderOptions configures Builder behavior.
type BuilderOptions struct {
	// Logger receives load lifecycle events.
	// Default: logging.NullLogger()
	Logger *logging.Logger

	// ProgressCallback is called periodically during the load.
	// May be nil.
	ProgressCallback ProgressFunc

	// MaxNodes is passed through to the tree. Default: DefaultMaxNodes
	MaxNodes int

	// MaxEdges is passed through to the tree. Default: DefaultMaxEdges
	MaxEdges int
}

// DefaultBuilderOptions returns options with sensible defaults.
func DefaultBuilderOptions() BuilderOptions {
	return BuilderOptions{
		Logger:   logging.NullLogger(),
		MaxNodes: DefaultMaxNodes,
		MaxEdges: DefaultMaxEdges,
	}
}

// BuilderOption is a functional option for configuring a Builder.
type BuilderOption func(*BuilderOptions)

// WithLogger sets the logger for load lifecycle events.
func WithLogger(logger *logging.Logger) BuilderOption {
	return func(o *BuilderOptions) {
		o.Logger = logger
	}
}

// WithProgressCallback sets the progress callback.
func WithProgressCallback(fn ProgressFunc) BuilderOption {
	return func(o *BuilderOptions) {
		o.ProgressCallback = fn
	}
}

// WithBuilderMaxNodes sets the maximum node count for built trees.
func WithBuilderMaxNodes(n int) BuilderOption {
	return func(o *BuilderOptions) {
		if n > 0 {
			o.MaxNodes = n
		}
	}
}

// WithBuilderMaxEdges sets the maximum edge count for built trees.
func WithBuilderMaxEdges(n int) BuilderOption {
	return func(o *BuilderOptions) {
		if n > 0 {
			o.MaxEdges = n
		}
	}
}

// Builder loads sealed trees from pre-parsed rows, table files, or a
// manifest.
//
// Unlike queries, construction is all-or-nothing: the first integrity
// fault aborts the load and no tree is returned. A partially wired
// hierarchy would answer ancestry questions wrongly, which in this
// domain is worse than answering none.
//
// Thread Safety:
//
//	Builder is stateless and safe for concurrent use. Each Build call
//	operates on its own tree.
type Builder struct {
	options BuilderOptions
}

// NewBuilder creates a Builder with the given options.
func NewBuilder(opts ...BuilderOption) *Builder {
	options := DefaultBuilderOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = logging.NullLogger()
	}
	return &Builder{options: options}
}

// BuildStats contains statistics about one completed load.
type BuildStats struct {
	NodesLoaded   int   `json:"nodes_loaded"`
	EdgesLoaded   int   `json:"edges_loaded"`
	Roots         int   `json:"roots"`
	DurationMilli int64 `json:"duration_milli"`
	DurationMicro int64 `json:"duration_micro"`
}

// BuildResult contains the outcome of a successful load.
type BuildResult struct {
	// Tree is the sealed tree. Never nil when Build returns nil error.
	Tree *Tree

	// Stats contains load statistics.
	Stats BuildStats
}

// buildState holds mutable state for a single load.
type buildState struct {
	tree          *Tree
	rowsTotal     int
	rowsProcessed int
}

// Build constructs a sealed tree from pre-parsed rows.
//
// Description:
//
//	Registers every node row, wires every relationship row, then
//	seals. Any integrity fault (blank or duplicate id, unknown
//	endpoint, self-edge) aborts with a line-precise *IntegrityError
//	and no tree. Context cancellation, polled every 100 rows, aborts
//	with ErrBuildCancelled.
//
// Build Phases:
//
//  1. NODES: register node table rows
//  2. EDGES: wire relationship rows
//  3. SEAL: freeze the tree and record statistics
//
// Outputs:
//
//	*BuildResult - Sealed tree plus load statistics.
//	error - ErrBuildCancelled, a capacity sentinel, or *IntegrityError.
func (b *Builder) Build(ctx context.Context, nodes []dataset.NodeRow, relations []dataset.EdgeRow) (*BuildResult, error) {
	ctx, span := startBuildSpan(ctx, len(nodes), len(relations))
	defer span.End()

	buildID := uuid.NewString()[:12] // 48 bits of entropy
	logger := b.options.Logger.With("build_id", buildID)
	start := time.Now()

	logger.Info("tree load started",
		"node_rows", len(nodes),
		"edge_rows", len(relations),
	)

	tree := NewTree(
		WithMaxNodes(b.options.MaxNodes),
		WithMaxEdges(b.options.MaxEdges),
	)
	state := &buildState{tree: tree, rowsTotal: len(nodes) + len(relations)}

	// Phase 1: register nodes.
	if err := b.loadNodes(ctx, state, nodes); err != nil {
		return nil, b.fail(ctx, span, logger, start, state, err)
	}

	// Phase 2: wire edges.
	if err := b.wireEdges(ctx, state, relations); err != nil {
		return nil, b.fail(ctx, span, logger, start, state, err)
	}

	// Phase 3: seal.
	b.reportProgress(state, ProgressPhaseSealing)
	tree.Seal()

	duration := time.Since(start)
	result := &BuildResult{
		Tree: tree,
		Stats: BuildStats{
			NodesLoaded:   tree.NodeCount(),
			EdgesLoaded:   tree.EdgeCount(),
			Roots:         len(tree.GetRoots()),
			DurationMilli: duration.Milliseconds(),
			DurationMicro: duration.Microseconds(),
		},
	}

	setBuildSpanResult(span, tree.NodeCount(), tree.EdgeCount(), false)
	recordBuildMetrics(ctx, duration, tree.NodeCount(), tree.EdgeCount(), true)
	logger.Info("tree sealed",
		"nodes", result.Stats.NodesLoaded,
		"edges", result.Stats.EdgesLoaded,
		"roots", result.Stats.Roots,
		"duration_ms", result.Stats.DurationMilli,
	)
	return result, nil
}

// BuildFromFiles reads both tables from disk and builds the tree.
//
// Inputs:
//
//	nodesPath - Path to the node table CSV.
//	relationsPath - Path to the relationship table CSV.
func (b *Builder) BuildFromFiles(ctx context.Context, nodesPath, relationsPath string) (*BuildResult, error) {
	nodes, err := dataset.ReadNodeFile(nodesPath)
	if err != nil {
		return nil, fmt.Errorf("load node table: %w", err)
	}
	relations, err := dataset.ReadRelationFile(relationsPath)
	if err != nil {
		return nil, fmt.Errorf("load relationship table: %w", err)
	}
	return b.Build(ctx, nodes, relations)
}

// BuildFromManifest resolves table paths from a YAML manifest and builds
// the tree.
func (b *Builder) BuildFromManifest(ctx context.Context, manifestPath string) (*BuildResult, error) {
	manifest, err := dataset.LoadManifest(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	return b.BuildFromFiles(ctx, manifest.Nodes, manifest.Relations)
}

// loadNodes registers node table rows (phase 1).
func (b *Builder) loadNodes(ctx context.Context, state *buildState, rows []dataset.NodeRow) error {
	for i, row := range rows {
		if i%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrBuildCancelled, err)
			}
		}
		if _, err := state.tree.AddNode(row); err != nil {
			return err
		}
		state.rowsProcessed++
		if (i+1)%contextCheckInterval == 0 || i+1 == len(rows) {
			b.reportProgress(state, ProgressPhaseNodes)
		}
	}
	return nil
}

// wireEdges wires relationship rows (phase 2).
func (b *Builder) wireEdges(ctx context.Context, state *buildState, rows []dataset.EdgeRow) error {
	for i, row := range rows {
		if i%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrBuildCancelled, err)
			}
		}
		if err := state.tree.AddEdge(row); err != nil {
			return err
		}
		state.rowsProcessed++
		if (i+1)%contextCheckInterval == 0 || i+1 == len(rows) {
			b.reportProgress(state, ProgressPhaseEdges)
		}
	}
	return nil
}

// fail records failure telemetry and returns the load error.
func (b *Builder) fail(ctx context.Context, span trace.Span, logger *logging.Logger, start time.Time, state *buildState, err error) error {
	setBuildSpanResult(span, state.tree.NodeCount(), state.tree.EdgeCount(), true)
	recordBuildMetrics(ctx, time.Since(start), state.tree.NodeCount(), state.tree.EdgeCount(), false)
	logger.Error("tree load failed",
		"rows_processed", state.rowsProcessed,
		"error", err.Error(),
	)
	return err
}

// reportProgress invokes the progress callback if configured.
func (b *Builder) reportProgress(state *buildState, phase ProgressPhase) {
	if b.options.ProgressCallback == nil {
		return
	}
	b.options.ProgressCallback(BuildProgress{
		Phase:         phase,
		RowsTotal:     state.rowsTotal,
		RowsProcessed: state.rowsProcessed,
		NodesLoaded:   state.tree.NodeCount(),
		EdgesLoaded:   state.tree.EdgeCount(),
	})
}

// Load builds a sealed tree from the two table files. It is the plain
// entry point for callers that want explicit construction and an owned
// tree, with no process-global instance anywhere.
//
// Example:
//
//	tree, err := cwe.Load(ctx, "data/nodes.csv", "data/rels.csv")
//	if err != nil {
//	    return err
//	}
//	children := tree.GetChildren("CWE-732")
func Load(ctx context.Context, nodesPath, relationsPath string, opts ...BuilderOption) (*Tree, error) {
	result, err := NewBuilder(opts...).BuildFromFiles(ctx, nodesPath, relationsPath)
	if err != nil {
		return nil, err
	}
	return result.Tree, nil
}

// LoadRows builds a sealed tree from pre-parsed rows.
func LoadRows(ctx context.Context, nodes []dataset.NodeRow, relations []dataset.EdgeRow, opts ...BuilderOption) (*Tree, error) {
	result, err := NewBuilder(opts...).Build(ctx, nodes, relations)
	if err != nil {
		return nil, err
	}
	return result.Tree, nil
}
