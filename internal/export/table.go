// Package export writes the dataset tables as CSV or XLSX and the run
// report as YAML, and reads previously written tables back.
package export

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bestres/internal/model"
)

// Format selects the table file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a format name. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", eris.Errorf("export: unknown format %q (want csv or xlsx)", s)
	}
}

// PathFor replaces the extension of path with the one matching f.
func PathFor(path string, f Format) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "." + string(f)
}

// Table is a header plus string records, the common shape of every table
// this package writes.
type Table struct {
	Sheet   string
	Header  []string
	Records [][]string
}

// FlatTable builds the all-entries table.
func FlatTable(rows []model.FlatRow) Table {
	t := Table{Sheet: "all_pdb_entries", Header: model.FlatColumns, Records: make([][]string, len(rows))}
	for i, r := range rows {
		t.Records[i] = r.Record()
	}
	return t
}

// BestTable builds the best-resolution table.
func BestTable(rows []model.ReducedRow) Table {
	t := Table{Sheet: "best_pdb_entries", Header: model.BestColumns, Records: make([][]string, len(rows))}
	for i, r := range rows {
		t.Records[i] = []string{r.UniProtID, r.PDBID, strconv.FormatFloat(r.Resolution, 'f', -1, 64)}
	}
	return t
}

// FunctionRow is one accession with its molecular function keywords.
type FunctionRow struct {
	UniProtID string
	Functions []string
}

// FunctionsTable builds the molecular-function table. Names are joined by ";".
func FunctionsTable(rows []FunctionRow) Table {
	t := Table{
		Sheet:   "molecular_functions",
		Header:  []string{model.ColUniProtID, "Molecular_Functions"},
		Records: make([][]string, len(rows)),
	}
	for i, r := range rows {
		t.Records[i] = []string{r.UniProtID, strings.Join(r.Functions, ";")}
	}
	return t
}

// Write writes t to path in format f.
func Write(path string, f Format, t Table) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(path, t)
	default:
		return WriteCSV(path, t)
	}
}
