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
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// MaxManifestSize is the maximum allowed manifest file size (1MB).
// Guards against loading huge files into memory.
const MaxManifestSize = 1024 * 1024

// Manifest names the two source tables for one tree load.
//
// Relative paths are resolved against the manifest's own directory, so a
// manifest can travel with its data files.
//
// Example:
//
//	nodes: nodes.csv
//	relations: rels.csv
type Manifest struct {
	// Nodes is the path to the node table.
	Nodes string `yaml:"nodes" validate:"required"`

	// Relations is the path to the relationship table.
	Relations string `yaml:"relations" validate:"required"`
}

var manifestValidate *validator.Validate

func init() {
	manifestValidate = validator.New()
}

// LoadManifest reads, validates, and resolves a YAML manifest.
//
// Outputs:
//
//	*Manifest - Manifest with both paths resolved to the manifest's
//	directory when relative.
//	error - Non-nil on stat/read failure, oversized file, YAML parse
//	failure, or a missing required field.
func LoadManifest(path string) (*Manifest, error) {
	m, err := loadManifest(path)
	if err != nil {
		tableLoadErrors.WithLabelValues("manifest").Inc()
	}
	return m, err
}

func loadManifest(path string) (*Manifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat manifest: %w", err)
	}
	if info.Size() > MaxManifestSize {
		return nil, fmt.Errorf("manifest too large: %d bytes (max %d)", info.Size(), MaxManifestSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if err := manifestValidate.Struct(&m); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}

	base := filepath.Dir(path)
	m.Nodes = resolvePath(base, m.Nodes)
	m.Relations = resolvePath(base, m.Relations)
	return &m, nil
}

func resolvePath(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
