package export

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bestres/internal/fetcher"
	"github.com/sells-group/bestres/internal/model"
)

// ReadFlatRows loads an all-entries table (CSV or XLSX). Columns are found
// by header name, so extra or reordered columns are fine. Resolution values
// are passed through as text for the reducer to validate.
func ReadFlatRows(ctx context.Context, path string) ([]model.FlatRow, error) {
	tbl, err := fetcher.ReadTable(ctx, path)
	if err != nil {
		return nil, err
	}

	pdb, res, uid := tbl.Column(model.ColPDBID), tbl.Column(model.ColResolution), tbl.Column(model.ColUniProtID)
	if missing := missingColumns(map[string]int{
		model.ColPDBID:      pdb,
		model.ColResolution: res,
		model.ColUniProtID:  uid,
	}); len(missing) > 0 {
		return nil, eris.Errorf("export: %s lacks columns %s", path, strings.Join(missing, ", "))
	}

	rows := make([]model.FlatRow, 0, len(tbl.Rows))
	for _, r := range tbl.Rows {
		rows = append(rows, model.FlatRow{
			PDBID:      fetcher.Cell(r, pdb),
			Resolution: fetcher.Cell(r, res),
			UniProtID:  fetcher.Cell(r, uid),
		})
	}
	return rows, nil
}

// ReadAccessions returns the distinct non-blank UniProt ids of a table, in
// first-seen order.
func ReadAccessions(ctx context.Context, path string) ([]string, error) {
	return ReadDistinct(ctx, path, model.ColUniProtID)
}

// ReadDistinct returns the distinct non-blank values of the named column,
// in first-seen order.
func ReadDistinct(ctx context.Context, path, column string) ([]string, error) {
	tbl, err := fetcher.ReadTable(ctx, path)
	if err != nil {
		return nil, err
	}
	col := tbl.Column(column)
	if col < 0 {
		return nil, eris.Errorf("export: %s lacks column %s", path, column)
	}

	seen := make(map[string]bool)
	var out []string
	for _, r := range tbl.Rows {
		id := strings.TrimSpace(fetcher.Cell(r, col))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

func missingColumns(cols map[string]int) []string {
	var missing []string
	for _, name := range []string{model.ColPDBID, model.ColResolution, model.ColUniProtID} {
		if idx, ok := cols[name]; ok && idx < 0 {
			missing = append(missing, name)
		}
	}
	return missing
}
