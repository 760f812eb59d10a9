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
)

// Query configuration limits.
const (
	// DefaultQueryLimit is the default maximum number of results for
	// traversal queries.
	DefaultQueryLimit = 1000

	// MaxQueryLimit is the maximum allowed result limit.
	MaxQueryLimit = 10000

	// DefaultMaxDepth is the default maximum traversal depth. The
	// deepest view in the published catalog is well under this, so
	// unbounded-feeling walks still terminate on malformed input.
	DefaultMaxDepth = 25

	// MaxTraversalDepth is the maximum allowed traversal depth.
	MaxTraversalDepth = 100

	// contextCheckInterval is how often (in iterations) to poll the
	// context during traversals and loads.
	contextCheckInterval = 100
)

// QueryOptions configures traversal behavior.
type QueryOptions struct {
	// Limit is the maximum number of results to return.
	// Default: 1000, Max: 10000
	Limit int

	// MaxDepth is the maximum traversal depth.
	// Default: 25, Max: 100
	MaxDepth int
}

// QueryOption is a functional option for configuring queries.
type QueryOption func(*QueryOptions)

// WithLimit sets the maximum number of results.
// Values <= 0 use the default; values above MaxQueryLimit are clamped.
func WithLimit(n int) QueryOption {
	return func(o *QueryOptions) {
		if n <= 0 {
			n = DefaultQueryLimit
		}
		if n > MaxQueryLimit {
			n = MaxQueryLimit
		}
		o.Limit = n
	}
}

// WithMaxDepth sets the maximum traversal depth.
// Values <= 0 use the default; values above MaxTraversalDepth are clamped.
func WithMaxDepth(n int) QueryOption {
	return func(o *QueryOptions) {
		if n <= 0 {
			n = DefaultMaxDepth
		}
		if n > MaxTraversalDepth {
			n = MaxTraversalDepth
		}
		o.MaxDepth = n
	}
}

// applyOptions builds QueryOptions from functional options.
func applyOptions(opts []QueryOption) QueryOptions {
	options := QueryOptions{
		Limit:    DefaultQueryLimit,
		MaxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

// GetNode retrieves a node by identifier.
//
// Description:
//
//	O(1) registry lookup. The id is normalized first, so "732" and
//	"CWE-732" resolve identically. Absence is a normal outcome, not an
//	error: callers routinely probe identifiers scraped from advisories
//	and scanner output.
//
// Outputs:
//
//	*Node - The node if found, nil otherwise. Treat as read-only.
//	bool - True if the node exists.
func (t *Tree) GetNode(id string) (*Node, bool) {
	node, ok := t.nodes[NormalizeID(id)]
	return node, ok
}

// HasNode reports whether the identifier names a registered node.
func (t *Tree) HasNode(id string) bool {
	_, ok := t.nodes[NormalizeID(id)]
	return ok
}

// GetParents returns the direct parent identifiers of id in first-seen
// order. Unknown identifiers yield an empty slice, never an error.
func (t *Tree) GetParents(id string) []string {
	node, ok := t.GetNode(id)
	if !ok {
		return []string{}
	}
	return node.Parents()
}

// GetChildren returns the direct child identifiers of id in first-seen
// order. Unknown identifiers yield an empty slice, never an error.
func (t *Tree) GetChildren(id string) []string {
	node, ok := t.GetNode(id)
	if !ok {
		return []string{}
	}
	return node.Children()
}

// GetLayer returns a copy of the node's view to depth mapping. Unknown
// identifiers and nodes without layer data yield an empty map.
func (t *Tree) GetLayer(id string) map[string]int {
	node, ok := t.GetNode(id)
	if !ok {
		return map[string]int{}
	}
	return node.Layer()
}

// GetMetadata returns the fixed metadata record for id.
//
// Outputs:
//
//	Metadata - Value snapshot; safe to hold or marshal.
//	bool - True if the node exists.
func (t *Tree) GetMetadata(id string) (Metadata, bool) {
	node, ok := t.GetNode(id)
	if !ok {
		return Metadata{}, false
	}
	return node.Metadata(), true
}

// GetRoots returns every node with no parents, in registry insertion
// order, so results are stable across calls and mirror the source table.
//
// Roots are defined by empty parent sets, which only the full registry
// knows, so this is an O(n) scan on every call.
func (t *Tree) GetRoots() []*Node {
	roots := make([]*Node, 0)
	for _, id := range t.order {
		if node := t.nodes[id]; node.IsRoot() {
			roots = append(roots, node)
		}
	}
	return roots
}

// GetNodesByAbstraction returns all nodes carrying the given
// classification tag, in registry insertion order. The slice is a fresh
// copy; unknown tags yield an empty slice.
func (t *Tree) GetNodesByAbstraction(abstraction Abstraction) []*Node {
	indexed := t.nodesByAbstraction[abstraction]
	nodes := make([]*Node, len(indexed))
	copy(nodes, indexed)
	return nodes
}

// GetNodesByView returns all nodes participating in the named view, in
// registry insertion order. The slice is a fresh copy; unknown views
// yield an empty slice.
func (t *Tree) GetNodesByView(view string) []*Node {
	indexed := t.nodesByView[view]
	nodes := make([]*Node, len(indexed))
	copy(nodes, indexed)
	return nodes
}

// TraversalResult contains the outcome of one ancestry walk.
type TraversalResult struct {
	// Origin is the normalized identifier the walk started from.
	Origin string

	// IDs are the visited identifiers in breadth-first order, excluding
	// the origin itself.
	IDs []string

	// Depth is the maximum depth reached (1 = direct parents/children).
	Depth int

	// Truncated indicates the walk stopped early due to the result
	// limit, the depth limit, or context cancellation.
	Truncated bool
}

// GetAncestors walks parent links breadth-first from id.
//
// Description:
//
//	Iterative BFS with a visited set, so cyclic input degrades to a
//	bounded walk instead of hanging. Unknown identifiers yield an
//	empty result, not an error, matching the point queries. A node
//	reachable along several paths appears once, at its shallowest
//	depth.
//
// Inputs:
//
//	ctx - Cancellation; polled every 100 dequeues. A cancelled walk
//	returns the partial result with Truncated set.
//	id - Origin identifier, normalized before the walk.
//	opts - WithLimit and WithMaxDepth options.
func (t *Tree) GetAncestors(ctx context.Context, id string, opts ...QueryOption) *TraversalResult {
	start := time.Now()
	ctx, span := startQuerySpan(ctx, "GetAncestors", id)
	defer span.End()

	options := applyOptions(opts)
	origin := NormalizeID(id)
	result := &TraversalResult{
		Origin: origin,
		IDs:    make([]string, 0),
	}

	node, ok := t.nodes[origin]
	if !ok {
		recordQueryMetrics(ctx, "GetAncestors", time.Since(start), 0)
		return result
	}

	type queueItem struct {
		node  *Node
		depth int
	}

	visited := map[string]bool{origin: true}
	queue := make([]queueItem, 0, len(node.parentIDs))
	for _, parentID := range node.parentIDs {
		visited[parentID] = true
		queue = append(queue, queueItem{t.nodes[parentID], 1})
	}

	checkCounter := 0
	for len(queue) > 0 {
		checkCounter++
		if checkCounter%contextCheckInterval == 0 {
			if ctx.Err() != nil {
				result.Truncated = true
				break
			}
		}

		item := queue[0]
		queue = queue[1:]

		result.IDs = append(result.IDs, item.node.ID)
		if item.depth > result.Depth {
			result.Depth = item.depth
		}
		if len(result.IDs) >= options.Limit {
			result.Truncated = true
			break
		}
		if item.depth >= options.MaxDepth {
			if len(item.node.parentIDs) > 0 {
				result.Truncated = true
			}
			continue
		}

		for _, parentID := range item.node.parentIDs {
			if visited[parentID] {
				continue
			}
			visited[parentID] = true
			queue = append(queue, queueItem{t.nodes[parentID], item.depth + 1})
		}
	}

	recordQueryMetrics(ctx, "GetAncestors", time.Since(start), len(result.IDs))
	return result
}

// GetDescendants walks child links breadth-first from id.
//
// Description:
//
//	Mirror of GetAncestors in the child direction: iterative BFS with
//	a visited set, unknown identifiers yield an empty result, and each
//	reachable node appears once at its shallowest depth.
//
// Inputs:
//
//	ctx - Cancellation; polled every 100 dequeues. A cancelled walk
//	returns the partial result with Truncated set.
//	id - Origin identifier, normalized before the walk.
//	opts - WithLimit and WithMaxDepth options.
func (t *Tree) GetDescendants(ctx context.Context, id string, opts ...QueryOption) *TraversalResult {
	start := time.Now()
	ctx, span := startQuerySpan(ctx, "GetDescendants", id)
	defer span.End()

	options := applyOptions(opts)
	origin := NormalizeID(id)
	result := &TraversalResult{
		Origin: origin,
		IDs:    make([]string, 0),
	}

	node, ok := t.nodes[origin]
	if !ok {
		recordQueryMetrics(ctx, "GetDescendants", time.Since(start), 0)
		return result
	}

	type queueItem struct {
		node  *Node
		depth int
	}

	visited := map[string]bool{origin: true}
	queue := make([]queueItem, 0, len(node.childIDs))
	for _, childID := range node.childIDs {
		visited[childID] = true
		queue = append(queue, queueItem{t.nodes[childID], 1})
	}

	checkCounter := 0
	for len(queue) > 0 {
		checkCounter++
		if checkCounter%contextCheckInterval == 0 {
			if ctx.Err() != nil {
				result.Truncated = true
				break
			}
		}

		item := queue[0]
		queue = queue[1:]

		result.IDs = append(result.IDs, item.node.ID)
		if item.depth > result.Depth {
			result.Depth = item.depth
		}
		if len(result.IDs) >= options.Limit {
			result.Truncated = true
			break
		}
		if item.depth >= options.MaxDepth {
			if len(item.node.childIDs) > 0 {
				result.Truncated = true
			}
			continue
		}

		for _, childID := range item.node.childIDs {
			if visited[childID] {
				continue
			}
			visited[childID] = true
			queue = append(queue, queueItem{t.nodes[childID], item.depth + 1})
		}
	}

	recordQueryMetrics(ctx, "GetDescendants", time.Since(start), len(result.IDs))
	return result
}

// Validate checks structural invariants across the whole tree.
//
// Description:
//
//	Verifies referential closure (every adjacency identifier resolves
//	in the registry) and parent/child symmetry (every parent link has
//	its reciprocal child link and vice versa). Construction maintains
//	both; Validate lets load pipelines and tests prove it on arbitrary
//	trees.
//
// Outputs:
//
//	error - Non-nil describing the first violation found.
func (t *Tree) Validate() error {
	for id, node := range t.nodes {
		for _, parentID := range node.parentIDs {
			parent, ok := t.nodes[parentID]
			if !ok {
				return fmt.Errorf("node %s: parent %q not in registry", id, parentID)
			}
			if _, ok := parent.childSet[id]; !ok {
				return fmt.Errorf("node %s: parent %s missing reciprocal child link", id, parentID)
			}
		}
		for _, childID := range node.childIDs {
			child, ok := t.nodes[childID]
			if !ok {
				return fmt.Errorf("node %s: child %q not in registry", id, childID)
			}
			if _, ok := child.parentSet[id]; !ok {
				return fmt.Errorf("node %s: child %s missing reciprocal parent link", id, childID)
			}
		}
	}
	return nil
}
