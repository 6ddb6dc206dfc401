package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bestres/internal/fetcher"
)

// DownloadStructures fetches one structure file per identifier into dir as
// <ID>.pdb and returns the identifiers that could not be downloaded. Only a
// failure to create dir is returned as an error.
func DownloadStructures(ctx context.Context, f fetcher.Fetcher, urlFor func(string) string, ids []string, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "dataset: create download dir %s", dir)
	}

	var failed []string
	for i, id := range ids {
		if ctx.Err() != nil {
			failed = append(failed, ids[i:]...)
			zap.L().Warn("download cancelled", zap.Int("remaining", len(ids)-i))
			break
		}

		if !safeFileID(id) {
			failed = append(failed, id)
			zap.L().Warn("refusing unsafe structure identifier", zap.String("pdb_id", id))
			continue
		}

		u := urlFor(id)
		path := filepath.Join(dir, id+".pdb")
		n, err := f.DownloadToFile(ctx, u, path)
		if err != nil {
			failed = append(failed, id)
			zap.L().Warn("structure download failed",
				zap.String("pdb_id", id),
				zap.String("url", u),
				zap.Error(err),
			)
			continue
		}
		zap.L().Debug("structure downloaded",
			zap.String("pdb_id", id),
			zap.String("path", path),
			zap.Int64("bytes", n),
		)
	}

	zap.L().Info("structure download complete",
		zap.Int("requested", len(ids)),
		zap.Int("failed", len(failed)),
	)
	return failed, nil
}

// safeFileID reports whether id can be used as a file name inside the
// download directory.
func safeFileID(id string) bool {
	return id != "" && !strings.ContainsAny(id, `/\`) && !strings.Contains(id, "..")
}
