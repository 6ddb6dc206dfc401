package dataset

import (
	"slices"
	"strconv"

	"github.com/sells-group/bestres/internal/model"
	"github.com/sells-group/bestres/pkg/rcsb"
)

// FormatResolution renders a resolution for a FlatRow. Absent is "".
func FormatResolution(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Flatten expands entries into one row per (PDB id, UniProt id) pair.
// Entries are visited in order; keys missing from order follow in ascending
// order. Entries without UniProt ids produce no rows.
func Flatten(entries map[string]rcsb.Entry, order []string) []model.FlatRow {
	var rows []model.FlatRow
	seen := make(map[string]bool, len(entries))

	emit := func(id string) {
		if seen[id] {
			return
		}
		entry, ok := entries[id]
		if !ok {
			return
		}
		seen[id] = true
		res := FormatResolution(entry.Resolution)
		for _, uid := range entry.UniProtIDs {
			rows = append(rows, model.FlatRow{PDBID: id, Resolution: res, UniProtID: uid})
		}
	}

	for _, id := range order {
		emit(id)
	}

	var rest []string
	for id := range entries {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	slices.Sort(rest)
	for _, id := range rest {
		emit(id)
	}

	return rows
}
