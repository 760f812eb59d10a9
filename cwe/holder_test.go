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
	"sync"
	"testing"

	"github.com/AleutianAI/cwetree/dataset"
)

// sealedTree builds a sealed single-node tree for holder tests.
func sealedTree(t *testing.T, id string) *Tree {
	t.Helper()
	tree := NewTree()
	if _, err := tree.AddNode(dataset.NodeRow{ID: id, Name: id}); err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}
	tree.Seal()
	return tree
}

func TestNewHolder(t *testing.T) {
	tree := sealedTree(t, "CWE-1")
	holder := NewHolder(tree)

	if holder.Get() != tree {
		t.Error("Get should return the held tree")
	}
}

func TestNewHolder_Nil(t *testing.T) {
	holder := NewHolder(nil)
	if holder.Get() != nil {
		t.Error("Empty holder should return nil")
	}
}

func TestHolder_Set(t *testing.T) {
	first := sealedTree(t, "CWE-1")
	second := sealedTree(t, "CWE-2")

	holder := NewHolder(first)
	holder.Set(second)

	if holder.Get() != second {
		t.Error("Get should return the replacement tree")
	}
}

func TestHolder_Swap(t *testing.T) {
	first := sealedTree(t, "CWE-1")
	second := sealedTree(t, "CWE-2")

	holder := NewHolder(first)
	previous := holder.Swap(second)

	if previous != first {
		t.Error("Swap should return the previous tree")
	}
	if holder.Get() != second {
		t.Error("Swap should install the replacement tree")
	}
}

func TestHolder_ConcurrentAccess(t *testing.T) {
	holder := NewHolder(sealedTree(t, "CWE-1"))
	replacement := sealedTree(t, "CWE-2")

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tree := holder.Get(); tree != nil {
				_ = tree.NodeCount()
			}
		}()
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			holder.Set(replacement)
		}()
	}
	wg.Wait()

	if holder.Get() != replacement {
		t.Error("Holder should end up with the replacement tree")
	}
}
