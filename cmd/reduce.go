package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bestres/internal/dataset"
	"github.com/sells-group/bestres/internal/export"
	"github.com/sells-group/bestres/internal/model"
)

var (
	reduceIn     string
	reduceOut    string
	reduceFormat string
)

var reduceCmd = &cobra.Command{
	Use:   "reduce",
	Short: "Reduce an existing all-entries table to the best structure per UniProt accession",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("reduce"); err != nil {
			return err
		}
		out := reduceOut
		if out == "" {
			out = cfg.Output.BestPath
		}
		format := reduceFormat
		if format == "" {
			format = cfg.Output.Format
		}
		_, err := runReduce(cmd.Context(), reduceIn, out, format)
		return err
	},
}

func runReduce(ctx context.Context, in, out, format string) (model.ReduceStats, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return model.ReduceStats{}, err
	}

	rows, err := export.ReadFlatRows(ctx, in)
	if err != nil {
		return model.ReduceStats{}, eris.Wrap(err, "reduce: read input")
	}

	best, stats := dataset.Reduce(rows)

	path := export.PathFor(out, f)
	if err := export.Write(path, f, export.BestTable(best)); err != nil {
		return stats, eris.Wrap(err, "reduce: write output")
	}

	zap.L().Info("reduce complete",
		zap.String("in", in),
		zap.String("out", path),
		zap.Int("input_rows", stats.Input),
		zap.Int("groups", stats.Groups),
		zap.Int("dropped_missing_id", stats.DroppedMissingID),
		zap.Int("dropped_bad_resolution", stats.DroppedBadResolution),
		zap.Int("duplicates", stats.Duplicates),
	)
	return stats, nil
}

func init() {
	reduceCmd.Flags().StringVar(&reduceIn, "in", "", "all-entries table, CSV or XLSX (required)")
	reduceCmd.Flags().StringVar(&reduceOut, "out", "", "best-resolution output path (default from config)")
	reduceCmd.Flags().StringVar(&reduceFormat, "format", "", "output format: csv or xlsx (default from config)")
	_ = reduceCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(reduceCmd)
}
