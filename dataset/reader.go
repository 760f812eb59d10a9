// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dataset reads the flat CWE source tables (nodes and
// relationships) and the optional load manifest that names them.
//
// The package deliberately knows nothing about hierarchy semantics: it
// turns CSV input into ordered row slices and leaves identifier
// normalization, adjacency, and integrity policy to the cwe package.
//
// # Table Format
//
// Both tables are CSV with a header row. Header cells are matched
// case-insensitively with surrounding whitespace ignored; a UTF-8 BOM on
// the first cell is stripped. The node table requires "id" and "name"
// columns and optionally carries "abstract" (alias "abstraction") and
// "layer". The relationship table requires "source" and "target".
// Unknown columns are ignored. Ragged rows fail the read.
//
// # Thread Safety
//
// All exported functions are stateless and safe for concurrent use.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Sentinel errors for table reads. Wrapped with position context; test
// with errors.Is.
var (
	// ErrNoHeader is returned when a table is empty or its header row
	// cannot be read.
	ErrNoHeader = errors.New("table has no header row")

	// ErrMissingColumn is returned when a required column is absent
	// from a table header.
	ErrMissingColumn = errors.New("required column missing")
)

// Canonical column names. The abstraction column accepts the "abstract"
// spelling as an alias.
const (
	columnID          = "id"
	columnName        = "name"
	columnAbstraction = "abstraction"
	columnAbstract    = "abstract"
	columnLayer       = "layer"
	columnSource      = "source"
	columnTarget      = "target"
)

// Table names used in metrics and error context.
const (
	tableNodes     = "nodes"
	tableRelations = "relations"
)

// ReadNodeTable reads every data row from a node table.
//
// Description:
//
//	Columns are resolved by header name, not position, so tables may
//	order or interleave columns freely. The read is strict about shape
//	(missing required columns and ragged rows fail immediately) and
//	lenient about content: field values pass through untouched for the
//	cwe package to judge.
//
// Outputs:
//
//	[]NodeRow - Rows in source order, with 1-based source lines.
//	error - ErrNoHeader, ErrMissingColumn, or a csv parse error.
func ReadNodeTable(r io.Reader) ([]NodeRow, error) {
	start := time.Now()
	rows, err := readNodeRows(r)
	observeRead(tableNodes, start, len(rows), err)
	return rows, err
}

// ReadRelationTable reads every data row from a relationship table.
//
// Outputs:
//
//	[]EdgeRow - Rows in source order, with 1-based source lines.
//	error - ErrNoHeader, ErrMissingColumn, or a csv parse error.
func ReadRelationTable(r io.Reader) ([]EdgeRow, error) {
	start := time.Now()
	rows, err := readEdgeRows(r)
	observeRead(tableRelations, start, len(rows), err)
	return rows, err
}

// ReadNodeFile reads a node table from disk.
func ReadNodeFile(path string) ([]NodeRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open node table: %w", err)
	}
	defer f.Close()

	rows, err := ReadNodeTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// ReadRelationFile reads a relationship table from disk.
func ReadRelationFile(path string) ([]EdgeRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open relationship table: %w", err)
	}
	defer f.Close()

	rows, err := ReadRelationTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

func readNodeRows(r io.Reader) ([]NodeRow, error) {
	cr := csv.NewReader(r)

	cols, err := readHeader(cr, tableNodes, columnID, columnName)
	if err != nil {
		return nil, err
	}

	rows := make([]NodeRow, 0)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read node table: %w", err)
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, NodeRow{
			ID:          field(record, cols, columnID),
			Name:        field(record, cols, columnName),
			Abstraction: field(record, cols, columnAbstraction),
			Layer:       field(record, cols, columnLayer),
			Line:        line,
		})
	}
	return rows, nil
}

func readEdgeRows(r io.Reader) ([]EdgeRow, error) {
	cr := csv.NewReader(r)

	cols, err := readHeader(cr, tableRelations, columnSource, columnTarget)
	if err != nil {
		return nil, err
	}

	rows := make([]EdgeRow, 0)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read relationship table: %w", err)
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, EdgeRow{
			Source: field(record, cols, columnSource),
			Target: field(record, cols, columnTarget),
			Line:   line,
		})
	}
	return rows, nil
}

// readHeader consumes the header row and maps canonical column names to
// field positions, verifying the required columns are present.
func readHeader(cr *csv.Reader, table string, required ...string) (map[string]int, error) {
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s table: %w", table, ErrNoHeader)
	}
	if err != nil {
		return nil, fmt.Errorf("%s table header: %w", table, err)
	}

	cols := make(map[string]int, len(header))
	for i, cell := range header {
		if i == 0 {
			cell = strings.TrimPrefix(cell, "\uFEFF")
		}
		name := strings.ToLower(strings.TrimSpace(cell))
		if name == columnAbstract {
			name = columnAbstraction
		}
		cols[name] = i
	}

	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%s table: %w: %s", table, ErrMissingColumn, name)
		}
	}
	return cols, nil
}

// field returns the named column's value, or "" when the column is
// absent from the table.
func field(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return record[idx]
}
