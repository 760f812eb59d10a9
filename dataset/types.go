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

// NodeRow is one data row from the node table, exactly as it appeared in
// the source. No normalization or layer parsing happens here; the cwe
// package owns identifier and integrity policy.
type NodeRow struct {
	// ID is the raw node identifier (e.g. "CWE-732" or "732").
	ID string

	// Name is the human-readable weakness title.
	Name string

	// Abstraction is the classification tag. The source column may be
	// headed "abstract" or "abstraction"; both land here.
	Abstraction string

	// Layer is the raw layer field: zero or more "view:depth" pairs
	// joined by ";". See ParseLayer.
	Layer string

	// Line is the 1-based line of the row in the source table.
	// Zero when the row was constructed in memory.
	Line int
}

// EdgeRow is one data row from the relationship table. Source is the
// parent of Target; directionality is preserved exactly as read.
type EdgeRow struct {
	// Source is the raw parent identifier.
	Source string

	// Target is the raw child identifier.
	Target string

	// Line is the 1-based line of the row in the source table.
	// Zero when the row was constructed in memory.
	Line int
}
