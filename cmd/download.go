package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bestres/internal/config"
	"github.com/sells-group/bestres/internal/dataset"
	"github.com/sells-group/bestres/internal/export"
	"github.com/sells-group/bestres/internal/fetcher"
	"github.com/sells-group/bestres/internal/model"
)

var (
	downloadIDsPath string
	downloadTable   string
	downloadDir     string
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download PDB structure files for an identifier file or a best-resolution table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cmd.Flags().Changed("dir") {
			cfg.Download.Dir = downloadDir
		}
		if err := cfg.Validate("download"); err != nil {
			return err
		}
		if (downloadIDsPath == "") == (downloadTable == "") {
			return eris.New("download: exactly one of --ids or --table is required")
		}

		ids, err := downloadIdentifiers(ctx, downloadIDsPath, downloadTable)
		if err != nil {
			return err
		}
		_, err = runDownload(ctx, cfg, newDownloader(cfg), ids)
		return err
	},
}

func downloadIdentifiers(ctx context.Context, idsPath, tablePath string) ([]string, error) {
	if idsPath != "" {
		ids, err := dataset.LoadIdentifiers(ctx, idsPath)
		return ids, eris.Wrap(err, "download: load identifiers")
	}
	ids, err := export.ReadDistinct(ctx, tablePath, model.ColPDBID)
	return ids, eris.Wrap(err, "download: read table")
}

func runDownload(ctx context.Context, c *config.Config, f fetcher.Fetcher, ids []string) ([]string, error) {
	client, err := newRCSBClient(c)
	if err != nil {
		return nil, eris.Wrap(err, "download: rcsb client")
	}

	failed, err := dataset.DownloadStructures(ctx, f, client.StructureURL, ids, c.Download.Dir)
	if err != nil {
		return nil, err
	}
	if len(failed) > 0 {
		zap.L().Warn("some structures were not downloaded",
			zap.Int("failed", len(failed)),
			zap.Strings("ids", failed),
		)
	}
	return failed, nil
}

func init() {
	downloadCmd.Flags().StringVar(&downloadIDsPath, "ids", "", "comma-separated PDB identifier file")
	downloadCmd.Flags().StringVar(&downloadTable, "table", "", "table with a PDB_ID column, e.g. the best-resolution output")
	downloadCmd.Flags().StringVar(&downloadDir, "dir", "", "destination directory (default from config)")
	rootCmd.AddCommand(downloadCmd)
}
