package export

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// EncodeCSV writes the header and records of t to w.
func EncodeCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	if err := cw.WriteAll(t.Records); err != nil {
		return eris.Wrap(err, "export: write csv records")
	}
	return nil
}

// WriteCSV writes t to a CSV file at path, creating parent directories.
// A table without records still gets its header row.
func WriteCSV(path string, t Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "export: create dir for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	if err := EncodeCSV(f, t); err != nil {
		return err
	}
	return eris.Wrapf(f.Close(), "export: close %s", path)
}
