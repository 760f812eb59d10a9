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

import "strings"

// IDPrefix is the canonical CWE identifier prefix.
const IDPrefix = "CWE-"

// NormalizeID returns the canonical form of a CWE identifier. Bare
// identifiers gain the "CWE-" prefix, so "732" and "CWE-732" name the
// same node. Identifiers already carrying the prefix pass through
// unchanged. Every identifier entering the tree is normalized, on load
// and on query, so callers may use either form throughout.
func NormalizeID(id string) string {
	if strings.HasPrefix(id, IDPrefix) {
		return id
	}
	return IDPrefix + id
}

// Abstraction is the CWE classification level of a node. Values are
// stored exactly as they appear in the node table; the constants below
// cover the vocabulary MITRE uses, but unknown tags are preserved rather
// than rejected.
type Abstraction string

// Classification levels from the CWE schema, broadest to narrowest.
const (
	AbstractionPillar   Abstraction = "Pillar"
	AbstractionClass    Abstraction = "Class"
	AbstractionBase     Abstraction = "Base"
	AbstractionVariant  Abstraction = "Variant"
	AbstractionCompound Abstraction = "Compound"
)

// Node is one CWE entry: identity, descriptive metadata, and adjacency
// within the hierarchy.
//
// Ownership:
//
//	Nodes are owned by their Tree. Pointers returned by queries must be
//	treated as read-only; accessors returning slices or maps return
//	fresh copies.
type Node struct {
	// ID is the normalized identifier (e.g. "CWE-732").
	ID string

	// Name is the human-readable weakness title.
	Name string

	// Abstraction is the classification tag from the node table.
	// Empty when the source column was absent or blank.
	Abstraction Abstraction

	// layer maps view name to this node's depth within that view.
	layer map[string]int

	// parentSet and childSet back O(1) membership checks; parentIDs and
	// childIDs preserve first-seen order for stable accessor output.
	// The tree keeps set and slice in lockstep.
	parentSet map[string]struct{}
	childSet  map[string]struct{}
	parentIDs []string
	childIDs  []string
}

// newNode creates a node with empty adjacency. The id must already be
// normalized; the layer map is owned by the node from here on.
func newNode(id, name string, abstraction Abstraction, layer map[string]int) *Node {
	if layer == nil {
		layer = make(map[string]int)
	}
	return &Node{
		ID:          id,
		Name:        name,
		Abstraction: abstraction,
		layer:       layer,
		parentSet:   make(map[string]struct{}),
		childSet:    make(map[string]struct{}),
	}
}

// Layer returns a copy of the node's view to depth mapping. Empty when
// the node carries no layer data.
func (n *Node) Layer() map[string]int {
	layer := make(map[string]int, len(n.layer))
	for view, depth := range n.layer {
		layer[view] = depth
	}
	return layer
}

// LayerDepth returns the node's depth within one named view.
func (n *Node) LayerDepth(view string) (int, bool) {
	depth, ok := n.layer[view]
	return depth, ok
}

// Parents returns a copy of the direct parent identifiers in first-seen
// order.
func (n *Node) Parents() []string {
	out := make([]string, len(n.parentIDs))
	copy(out, n.parentIDs)
	return out
}

// Children returns a copy of the direct child identifiers in first-seen
// order.
func (n *Node) Children() []string {
	out := make([]string, len(n.childIDs))
	copy(out, n.childIDs)
	return out
}

// HasParent reports whether id names a direct parent. The id is
// normalized before the lookup.
func (n *Node) HasParent(id string) bool {
	_, ok := n.parentSet[NormalizeID(id)]
	return ok
}

// HasChild reports whether id names a direct child. The id is
// normalized before the lookup.
func (n *Node) HasChild(id string) bool {
	_, ok := n.childSet[NormalizeID(id)]
	return ok
}

// IsRoot reports whether the node has no parents.
func (n *Node) IsRoot() bool {
	return len(n.parentSet) == 0
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.childSet) == 0
}

// addParent records id as a direct parent and reports whether the link
// was new. The id must already be normalized.
func (n *Node) addParent(id string) bool {
	if _, ok := n.parentSet[id]; ok {
		return false
	}
	n.parentSet[id] = struct{}{}
	n.parentIDs = append(n.parentIDs, id)
	return true
}

// addChild records id as a direct child and reports whether the link was
// new. The id must already be normalized.
func (n *Node) addChild(id string) bool {
	if _, ok := n.childSet[id]; ok {
		return false
	}
	n.childSet[id] = struct{}{}
	n.childIDs = append(n.childIDs, id)
	return true
}

// Metadata is the fixed, serializable record describing one node. It is
// a value snapshot: the layer map and identifier slices are copies, safe
// to hold or marshal after the tree itself is gone.
type Metadata struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Abstraction Abstraction    `json:"abstraction"`
	Layer       map[string]int `json:"layer"`
	Parents     []string       `json:"parents"`
	Children    []string       `json:"children"`
}

// Metadata returns the node's snapshot record.
func (n *Node) Metadata() Metadata {
	return Metadata{
		ID:          n.ID,
		Name:        n.Name,
		Abstraction: n.Abstraction,
		Layer:       n.Layer(),
		Parents:     n.Parents(),
		Children:    n.Children(),
	}
}
