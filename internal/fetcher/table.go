package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is a header row plus data rows read from a CSV or XLSX file.
type Table struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of the named header column, or -1. Matching
// ignores case and surrounding spaces.
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// Cell returns row[i], or "" when the row is short or i is negative.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// ReadTable loads a table from path. Files ending in .xlsx are read from
// their first sheet; everything else is parsed as CSV. The first row is the
// header.
func ReadTable(ctx context.Context, path string) (*Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		rows, err := ReadXLSX(path, XLSXOptions{})
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, eris.Errorf("table: %s has no header row", path)
		}
		return &Table{Header: rows[0], Rows: rows[1:]}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "table: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	headerCh := make(chan []string, 1)
	rowCh, errCh := StreamCSV(ctx, f, CSVOptions{HasHeader: true, HeaderCh: headerCh, TrimSpace: true})

	t := &Table{}
	for row := range rowCh {
		t.Rows = append(t.Rows, row)
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrapf(err, "table: read %s", path)
	}
	select {
	case t.Header = <-headerCh:
	default:
		return nil, eris.Errorf("table: %s has no header row", path)
	}
	return t, nil
}
