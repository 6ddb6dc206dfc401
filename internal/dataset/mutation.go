package dataset

import (
	"go.uber.org/zap"

	"github.com/sells-group/bestres/internal/model"
	"github.com/sells-group/bestres/pkg/rcsb"
)

// FilterMutated keeps rows whose PDB entry reports at least one mutated
// polymer entity, and returns how many rows were dropped. Rows whose entry
// is unknown are dropped too.
func FilterMutated(rows []model.FlatRow, entries map[string]rcsb.Entry) ([]model.FlatRow, int) {
	kept := make([]model.FlatRow, 0, len(rows))
	for _, r := range rows {
		if e, ok := entries[r.PDBID]; ok && e.Mutated() {
			kept = append(kept, r)
		}
	}
	dropped := len(rows) - len(kept)

	zap.L().Info("mutation filter applied",
		zap.Int("rows_kept", len(kept)),
		zap.Int("rows_dropped", dropped),
	)
	return kept, dropped
}
