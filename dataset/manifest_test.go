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
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadManifest(t *testing.T) {
	m, err := LoadManifest("testdata/manifest.yaml")
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if m.Nodes != filepath.Join("testdata", "nodes.csv") {
		t.Errorf("Nodes = %q, want relative path resolved to manifest dir", m.Nodes)
	}
	if m.Relations != filepath.Join("testdata", "rels.csv") {
		t.Errorf("Relations = %q, want relative path resolved to manifest dir", m.Relations)
	}
}

func TestLoadManifest_AbsolutePaths(t *testing.T) {
	tmpDir := t.TempDir()
	nodesPath := filepath.Join(tmpDir, "n.csv")
	relsPath := filepath.Join(tmpDir, "r.csv")

	manifestPath := filepath.Join(tmpDir, "manifest.yaml")
	content := "nodes: " + nodesPath + "\nrelations: " + relsPath + "\n"
	if err := os.WriteFile(manifestPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}

	m, err := LoadManifest(manifestPath)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if m.Nodes != nodesPath {
		t.Errorf("Nodes = %q, want absolute path untouched: %q", m.Nodes, nodesPath)
	}
	if m.Relations != relsPath {
		t.Errorf("Relations = %q, want absolute path untouched: %q", m.Relations, relsPath)
	}
}

func TestLoadManifest_MissingFile(t *testing.T) {
	_, err := LoadManifest("testdata/does_not_exist.yaml")
	if err == nil {
		t.Fatal("Expected error for missing manifest")
	}
}

func TestLoadManifest_MissingRequiredField(t *testing.T) {
	_, err := LoadManifest("testdata/bad_manifest.yaml")
	if err == nil {
		t.Fatal("Expected validation error for manifest without relations")
	}
	if !strings.Contains(err.Error(), "invalid manifest") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestLoadManifest_MalformedYAML(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "broken.yaml")
	if err := os.WriteFile(path, []byte("nodes: [unclosed\n"), 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}

	_, err := LoadManifest(path)
	if err == nil {
		t.Fatal("Expected parse error for malformed YAML")
	}
}

func TestLoadManifest_Oversized(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "huge.yaml")

	data := make([]byte, MaxManifestSize+1)
	for i := range data {
		data[i] = '#'
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}

	_, err := LoadManifest(path)
	if err == nil {
		t.Fatal("Expected error for oversized manifest")
	}
	if !strings.Contains(err.Error(), "manifest too large") {
		t.Errorf("Unexpected error: %v", err)
	}
}
