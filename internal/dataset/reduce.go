package dataset

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/sells-group/bestres/internal/model"
)

type pairKey struct {
	pdb, uniprot string
}

type cleanRow struct {
	pdb, uniprot string
	res          float64
}

// ParseResolution parses a decimal resolution cell. Blank, unparseable,
// hexadecimal, infinite and NaN values report false.
func ParseResolution(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "xX") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Reduce keeps, for each UniProt accession, the PDB entry with the lowest
// resolution. Rows without an accession or with a non-numeric resolution
// are dropped, duplicate (PDB, UniProt) pairs keep their first occurrence,
// and exact ties go to the earlier row. Output is ordered by accession.
func Reduce(rows []model.FlatRow) ([]model.ReducedRow, model.ReduceStats) {
	stats := model.ReduceStats{Input: len(rows)}

	cleaned := make([]cleanRow, 0, len(rows))
	seen := make(map[pairKey]bool, len(rows))
	for _, r := range rows {
		uid := strings.TrimSpace(r.UniProtID)
		if uid == "" {
			stats.DroppedMissingID++
			continue
		}
		res, ok := ParseResolution(r.Resolution)
		if !ok {
			stats.DroppedBadResolution++
			continue
		}
		pdb := strings.TrimSpace(r.PDBID)
		key := pairKey{pdb: pdb, uniprot: uid}
		if seen[key] {
			stats.Duplicates++
			continue
		}
		seen[key] = true
		cleaned = append(cleaned, cleanRow{pdb: pdb, uniprot: uid, res: res})
	}

	slices.SortStableFunc(cleaned, func(a, b cleanRow) int {
		return cmp.Or(
			strings.Compare(a.uniprot, b.uniprot),
			cmp.Compare(a.res, b.res),
		)
	})

	var out []model.ReducedRow
	for i, r := range cleaned {
		if i > 0 && cleaned[i-1].uniprot == r.uniprot {
			continue
		}
		out = append(out, model.ReducedRow{UniProtID: r.uniprot, PDBID: r.pdb, Resolution: r.res})
	}
	stats.Groups = len(out)

	return out, stats
}

// ReducedToFlat converts reduced rows back to flat rows, so a reduced table
// can be fed through Reduce again.
func ReducedToFlat(rows []model.ReducedRow) []model.FlatRow {
	out := make([]model.FlatRow, len(rows))
	for i, r := range rows {
		res := r.Resolution
		out[i] = model.FlatRow{PDBID: r.PDBID, Resolution: FormatResolution(&res), UniProtID: r.UniProtID}
	}
	return out
}
