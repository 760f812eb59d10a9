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
	"strconv"
	"strings"
)

// Layer field delimiters. A layer field is zero or more "view:depth"
// pairs joined by ";", e.g. "CWE-1000:3;CWE-699:2".
const (
	// PairSeparator separates view entries within a layer field.
	PairSeparator = ";"

	// KeyValueSeparator separates a view name from its depth.
	KeyValueSeparator = ":"
)

// ParseLayer parses a raw layer field into a view name to depth mapping.
//
// Description:
//
//	Parsing is all-or-nothing: one malformed pair (missing separator,
//	empty view name, non-integer depth, empty segment) discards the
//	whole field and yields an empty mapping. Layer data is auxiliary,
//	so degraded fields never fail a load; integrity policy applies to
//	identifiers and edges only.
//
// Inputs:
//
//	field - Raw layer column value. Surrounding whitespace on the
//	field, on each pair, and around each separator is ignored.
//
// Outputs:
//
//	map[string]int - View to depth mapping. Never nil; empty for a
//	blank or malformed field. A view repeated within one field keeps
//	the last depth.
func ParseLayer(field string) map[string]int {
	layer := make(map[string]int)

	field = strings.TrimSpace(field)
	if field == "" {
		return layer
	}

	for _, pair := range strings.Split(field, PairSeparator) {
		view, value, ok := strings.Cut(pair, KeyValueSeparator)
		if !ok {
			return map[string]int{}
		}
		view = strings.TrimSpace(view)
		if view == "" {
			return map[string]int{}
		}
		depth, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return map[string]int{}
		}
		layer[view] = depth
	}

	return layer
}
