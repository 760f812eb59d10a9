// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cwe provides the in-memory CWE hierarchy: weakness nodes keyed
// by identifier, parent/child adjacency loaded from two flat tables, and
// read-only queries over the sealed result.
//
// # Ownership Model
//
// The tree owns every node it contains:
//   - *Node values returned by queries must be treated as read-only
//   - Node accessors returning slices or maps return fresh copies that
//     callers may keep or modify freely
//
// # Thread Safety
//
// Tree is NOT safe for concurrent use while building. It is designed for
// single-writer access during load. After Seal() the tree is immutable
// and can be read from any number of goroutines concurrently.
//
// # Lifecycle
//
//  1. Create with NewTree() (or use Load / Builder for the whole flow)
//  2. Populate with AddNode() and AddEdge() calls
//  3. Call Seal() to make the tree read-only
//  4. Query with GetNode(), GetParents(), GetRoots(), GetAncestors(), ...
package cwe

import (
	"errors"
	"fmt"
)

// Sentinel errors for tree construction. Integrity faults reach callers
// wrapped in *IntegrityError with row context; test with errors.Is.
var (
	// ErrTreeSealed is returned when attempting to modify a sealed tree.
	// Trees are immutable after Seal() is called.
	ErrTreeSealed = errors.New("tree is sealed and cannot be modified")

	// ErrNodeNotFound is returned when a relationship row references an
	// identifier absent from the node table. Queries never return it;
	// probing unknown identifiers yields empty results.
	ErrNodeNotFound = errors.New("node not found")

	// ErrDuplicateNode is returned when adding a node whose identifier
	// is already registered.
	ErrDuplicateNode = errors.New("duplicate node ID")

	// ErrInvalidNode is returned when a row fails basic validation,
	// such as a blank identifier.
	ErrInvalidNode = errors.New("invalid node")

	// ErrSelfReference is returned when a relationship row names the
	// same node as both parent and child.
	ErrSelfReference = errors.New("self-referential edge")

	// ErrMaxNodesExceeded is returned when adding a node would exceed
	// the configured maximum node count.
	ErrMaxNodesExceeded = errors.New("maximum node count exceeded")

	// ErrMaxEdgesExceeded is returned when adding an edge would exceed
	// the configured maximum edge count.
	ErrMaxEdgesExceeded = errors.New("maximum edge count exceeded")

	// ErrBuildCancelled is returned when a load is cancelled via
	// context before completion.
	ErrBuildCancelled = errors.New("build cancelled")
)

// IntegrityError describes a source table row that violates the
// hierarchy's integrity rules. A load aborts on the first such fault;
// the offending table and line make the fix findable in the source data.
type IntegrityError struct {
	// Table is the source table, "nodes" or "relations".
	Table string

	// Line is the 1-based line in the source table.
	// Zero when the row was constructed in memory.
	Line int

	// NodeID is the offending identifier, normalized. For edge faults
	// it names the endpoint that failed resolution.
	NodeID string

	// Source and Target are the normalized edge endpoints.
	// Empty for node table faults.
	Source string
	Target string

	// Cause classifies the fault, wrapping one of the sentinel errors.
	Cause error
}

// Error returns a formatted error message with available context.
func (e *IntegrityError) Error() string {
	loc := e.Table
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Table, e.Line)
	}
	switch {
	case e.Source != "" || e.Target != "":
		if e.NodeID != "" {
			return fmt.Sprintf("%s: edge %s -> %s: %v: %s", loc, e.Source, e.Target, e.Cause, e.NodeID)
		}
		return fmt.Sprintf("%s: edge %s -> %s: %v", loc, e.Source, e.Target, e.Cause)
	case e.NodeID != "":
		return fmt.Sprintf("%s: node %s: %v", loc, e.NodeID, e.Cause)
	default:
		return fmt.Sprintf("%s: %v", loc, e.Cause)
	}
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *IntegrityError) Unwrap() error {
	return e.Cause
}

// IsIntegrityError checks if an error is an IntegrityError.
func IsIntegrityError(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}
