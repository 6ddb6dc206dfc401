package dataset

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bestres/internal/fetcher"
)

// LoadIdentifiers reads a comma-separated identifier file. Line breaks also
// separate tokens, surrounding spaces are trimmed and blank tokens skipped.
// Order and duplicates are preserved.
func LoadIdentifiers(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open identifier file %s", path)
	}
	defer f.Close() //nolint:errcheck

	rowCh, errCh := fetcher.StreamCSV(ctx, f, fetcher.CSVOptions{TrimSpace: true, LazyQuotes: true})

	var ids []string
	for row := range rowCh {
		for _, tok := range row {
			if tok = strings.TrimSpace(tok); tok != "" {
				ids = append(ids, tok)
			}
		}
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrapf(err, "dataset: read identifier file %s", path)
	}
	return ids, nil
}
