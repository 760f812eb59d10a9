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

import "sync"

// Holder provides thread-safe access to a swappable tree reference.
//
// Description:
//
//	Wraps a tree pointer with a mutex so long-lived processes can
//	publish a freshly loaded catalog without pausing readers. Trees
//	themselves stay immutable; only the reference moves.
//
// Thread Safety:
//
//	All methods are safe for concurrent use.
type Holder struct {
	tree *Tree
	mu   sync.RWMutex
}

// NewHolder creates a Holder for the given tree. The tree may be nil
// until the first load completes.
func NewHolder(tree *Tree) *Holder {
	return &Holder{tree: tree}
}

// Get returns the current tree.
func (h *Holder) Get() *Tree {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.tree
}

// Set replaces the current tree.
func (h *Holder) Set(tree *Tree) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tree = tree
}

// Swap replaces the current tree and returns the previous one.
func (h *Holder) Swap(tree *Tree) *Tree {
	h.mu.Lock()
	defer h.mu.Unlock()
	previous := h.tree
	h.tree = tree
	return previous
}
