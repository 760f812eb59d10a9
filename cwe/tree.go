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
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/cwetree/dataset"
)

// Default capacity limits for tree construction. The full CWE catalog is
// under two thousand entries; the defaults leave generous headroom while
// still bounding runaway input.
const (
	// DefaultMaxNodes is the default maximum number of nodes.
	DefaultMaxNodes = 100_000

	// DefaultMaxEdges is the default maximum number of edges.
	DefaultMaxEdges = 1_000_000
)

// Source table names carried in integrity faults.
const (
	TableNodes     = "nodes"
	TableRelations = "relations"
)

// TreeState represents the lifecycle state of a Tree.
type TreeState int

const (
	// TreeStateBuilding indicates the tree is accepting AddNode and
	// AddEdge calls.
	TreeStateBuilding TreeState = iota

	// TreeStateSealed indicates the tree is sealed and read-only.
	TreeStateSealed
)

// String returns a human-readable state name.
func (s TreeState) String() string {
	switch s {
	case TreeStateBuilding:
		return "building"
	case TreeStateSealed:
		return "sealed"
	default:
		return "unknown"
	}
}

// TreeOptions configures tree capacity limits.
type TreeOptions struct {
	// MaxNodes is the maximum number of nodes the tree will accept.
	// Default: 100,000
	MaxNodes int

	// MaxEdges is the maximum number of edges the tree will accept.
	// Default: 1,000,000
	MaxEdges int
}

// DefaultTreeOptions returns options with default limits.
func DefaultTreeOptions() TreeOptions {
	return TreeOptions{
		MaxNodes: DefaultMaxNodes,
		MaxEdges: DefaultMaxEdges,
	}
}

// TreeOption is a functional option for configuring a Tree.
type TreeOption func(*TreeOptions)

// WithMaxNodes sets the maximum node count.
func WithMaxNodes(n int) TreeOption {
	return func(o *TreeOptions) {
		if n > 0 {
			o.MaxNodes = n
		}
	}
}

// WithMaxEdges sets the maximum edge count.
func WithMaxEdges(n int) TreeOption {
	return func(o *TreeOptions) {
		if n > 0 {
			o.MaxEdges = n
		}
	}
}

// Tree is the owning container for the CWE hierarchy.
//
// Thread Safety:
//
//	Tree is NOT safe for concurrent use while building. Populate it
//	from a single goroutine, call Seal(), then read from as many
//	goroutines as needed.
type Tree struct {
	// nodes maps normalized identifier to node. Unexported so adjacency
	// invariants cannot be bypassed.
	nodes map[string]*Node

	// order records registry insertion order. GetRoots scans it, so
	// root order is stable across calls and mirrors the source table.
	order []string

	// nodesByAbstraction indexes nodes by classification tag.
	// Maintained incrementally by AddNode.
	nodesByAbstraction map[Abstraction][]*Node

	// nodesByView indexes nodes by the views naming them in the layer
	// field. Maintained incrementally by AddNode.
	nodesByView map[string][]*Node

	edgeCount int

	state TreeState

	options TreeOptions

	// BuiltAtMilli is the Unix timestamp in milliseconds when Seal()
	// was called. Zero while building.
	BuiltAtMilli int64
}

// NewTree creates an empty tree in the Building state.
//
// Example:
//
//	tree := cwe.NewTree(cwe.WithMaxNodes(10_000))
func NewTree(opts ...TreeOption) *Tree {
	options := DefaultTreeOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Tree{
		nodes:              make(map[string]*Node),
		order:              make([]string, 0),
		nodesByAbstraction: make(map[Abstraction][]*Node),
		nodesByView:        make(map[string][]*Node),
		state:              TreeStateBuilding,
		options:            options,
	}
}

// State returns the current lifecycle state.
func (t *Tree) State() TreeState {
	return t.state
}

// IsSealed returns true if the tree is read-only.
func (t *Tree) IsSealed() bool {
	return t.state == TreeStateSealed
}

// NodeCount returns the number of nodes in the tree.
func (t *Tree) NodeCount() int {
	return len(t.nodes)
}

// EdgeCount returns the number of distinct edges in the tree.
func (t *Tree) EdgeCount() int {
	return t.edgeCount
}

// AddNode registers one node table row.
//
// Description:
//
//	Normalizes the identifier, parses the layer field (malformed layer
//	data degrades to an empty mapping, never an error), and registers
//	the node with empty adjacency. A duplicate identifier is an
//	integrity fault: two rows claiming one id have no safe merge, so
//	the load aborts rather than guessing.
//
// Inputs:
//
//	row - Raw node table row. ID must be non-blank; Name, Abstraction,
//	and Layer pass through as-is.
//
// Outputs:
//
//	*Node - The registered node.
//	error - ErrTreeSealed, ErrMaxNodesExceeded, or *IntegrityError
//	wrapping ErrInvalidNode (blank id) or ErrDuplicateNode.
func (t *Tree) AddNode(row dataset.NodeRow) (*Node, error) {
	if t.state == TreeStateSealed {
		return nil, ErrTreeSealed
	}
	if strings.TrimSpace(row.ID) == "" {
		return nil, &IntegrityError{
			Table: TableNodes,
			Line:  row.Line,
			Cause: fmt.Errorf("%w: blank id", ErrInvalidNode),
		}
	}
	if len(t.nodes) >= t.options.MaxNodes {
		return nil, ErrMaxNodesExceeded
	}

	id := NormalizeID(row.ID)
	if _, exists := t.nodes[id]; exists {
		return nil, &IntegrityError{
			Table:  TableNodes,
			Line:   row.Line,
			NodeID: id,
			Cause:  ErrDuplicateNode,
		}
	}

	node := newNode(id, row.Name, Abstraction(row.Abstraction), dataset.ParseLayer(row.Layer))
	t.nodes[id] = node
	t.order = append(t.order, id)

	if node.Abstraction != "" {
		t.nodesByAbstraction[node.Abstraction] = append(t.nodesByAbstraction[node.Abstraction], node)
	}
	for view := range node.layer {
		t.nodesByView[view] = append(t.nodesByView[view], node)
	}

	return node, nil
}

// AddEdge wires one relationship row: source becomes a parent of target.
//
// Description:
//
//	Resolves both endpoints against the registry, then inserts the two
//	adjacency entries in one step so parent/child symmetry holds after
//	every call. A row repeating an existing edge is a no-op (edges are
//	a set). Directionality is preserved exactly: source is the parent,
//	target the child, never inverted. Cycles are not checked here;
//	traversals carry visited sets instead.
//
// Inputs:
//
//	row - Raw relationship row. Both endpoints must be non-blank and
//	name registered nodes.
//
// Outputs:
//
//	error - ErrTreeSealed, ErrMaxEdgesExceeded, or *IntegrityError
//	wrapping ErrInvalidNode (blank endpoint), ErrSelfReference, or
//	ErrNodeNotFound (NodeID names the unresolved endpoint). Integrity
//	faults abort the load: discard the tree rather than continue.
func (t *Tree) AddEdge(row dataset.EdgeRow) error {
	if t.state == TreeStateSealed {
		return ErrTreeSealed
	}
	if t.edgeCount >= t.options.MaxEdges {
		return ErrMaxEdgesExceeded
	}
	if strings.TrimSpace(row.Source) == "" || strings.TrimSpace(row.Target) == "" {
		return &IntegrityError{
			Table:  TableRelations,
			Line:   row.Line,
			Source: row.Source,
			Target: row.Target,
			Cause:  fmt.Errorf("%w: blank endpoint", ErrInvalidNode),
		}
	}

	source := NormalizeID(row.Source)
	target := NormalizeID(row.Target)
	if source == target {
		return &IntegrityError{
			Table:  TableRelations,
			Line:   row.Line,
			Source: source,
			Target: target,
			Cause:  ErrSelfReference,
		}
	}

	parent, ok := t.nodes[source]
	if !ok {
		return &IntegrityError{
			Table:  TableRelations,
			Line:   row.Line,
			NodeID: source,
			Source: source,
			Target: target,
			Cause:  ErrNodeNotFound,
		}
	}
	child, ok := t.nodes[target]
	if !ok {
		return &IntegrityError{
			Table:  TableRelations,
			Line:   row.Line,
			NodeID: target,
			Source: source,
			Target: target,
			Cause:  ErrNodeNotFound,
		}
	}

	// Both directions inserted together; no observable state ever
	// carries a one-sided link.
	if parent.addChild(target) {
		child.addParent(source)
		t.edgeCount++
	}
	return nil
}

// Seal transitions the tree to read-only mode.
//
// Description:
//
//	After Seal(), AddNode and AddEdge return ErrTreeSealed. The
//	transition is irreversible; build a new tree to load new data.
//
// Thread Safety:
//
//	Once Seal() returns, the tree can be read from multiple goroutines
//	concurrently.
func (t *Tree) Seal() {
	t.state = TreeStateSealed
	t.BuiltAtMilli = time.Now().UnixMilli()
}

// Nodes returns an iterator over all nodes keyed by identifier.
// Iteration order is unspecified; use GetRoots or the order-preserving
// accessors for deterministic views.
//
// Example:
//
//	for id, node := range tree.Nodes() {
//	    fmt.Println(id, node.Name)
//	}
func (t *Tree) Nodes() func(yield func(string, *Node) bool) {
	return func(yield func(string, *Node) bool) {
		for id, node := range t.nodes {
			if !yield(id, node) {
				return
			}
		}
	}
}

// TreeStats is a point-in-time summary of tree contents.
type TreeStats struct {
	Nodes        int            `json:"nodes"`
	Edges        int            `json:"edges"`
	Roots        int            `json:"roots"`
	Leaves       int            `json:"leaves"`
	Abstractions map[string]int `json:"abstractions"`
	Views        []string       `json:"views"`
	State        string         `json:"state"`
	BuiltAtMilli int64          `json:"built_at_milli"`
}

// Stats computes a summary snapshot. O(n) over the registry.
func (t *Tree) Stats() TreeStats {
	stats := TreeStats{
		Nodes:        len(t.nodes),
		Edges:        t.edgeCount,
		Abstractions: make(map[string]int, len(t.nodesByAbstraction)),
		Views:        make([]string, 0, len(t.nodesByView)),
		State:        t.state.String(),
		BuiltAtMilli: t.BuiltAtMilli,
	}
	for abstraction, nodes := range t.nodesByAbstraction {
		stats.Abstractions[string(abstraction)] = len(nodes)
	}
	for view := range t.nodesByView {
		stats.Views = append(stats.Views, view)
	}
	sort.Strings(stats.Views)
	for _, node := range t.nodes {
		if node.IsRoot() {
			stats.Roots++
		}
		if node.IsLeaf() {
			stats.Leaves++
		}
	}
	return stats
}
