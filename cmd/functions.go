package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bestres/internal/export"
	"github.com/sells-group/bestres/internal/resilience"
	"github.com/sells-group/bestres/pkg/uniprot"
)

var (
	functionsIn     string
	functionsOut    string
	functionsFormat string
)

var functionsCmd = &cobra.Command{
	Use:   "functions",
	Short: "Look up UniProt molecular function keywords for the accessions of a table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("functions"); err != nil {
			return err
		}
		format := functionsFormat
		if format == "" {
			format = cfg.Output.Format
		}
		_, err := runFunctions(ctx, newUniProtClient(cfg), functionsIn, functionsOut, format)
		return err
	},
}

// runFunctions looks accessions up one at a time. Failed lookups are logged
// and left out of the output.
func runFunctions(ctx context.Context, client uniprot.Client, in, out, format string) ([]export.FunctionRow, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, err
	}

	accessions, err := export.ReadAccessions(ctx, in)
	if err != nil {
		return nil, eris.Wrap(err, "functions: read input")
	}

	var rows []export.FunctionRow
	var failed int
	for _, acc := range accessions {
		if ctx.Err() != nil {
			zap.L().Warn("functions lookup cancelled", zap.Int("remaining", len(accessions)-len(rows)-failed))
			break
		}
		entry, err := client.Entry(ctx, acc)
		if err != nil {
			failed++
			zap.L().Warn("uniprot lookup failed",
				zap.String("uniprot_id", acc),
				zap.String("kind", resilience.Classify(err)),
				zap.Error(err),
			)
			continue
		}
		rows = append(rows, export.FunctionRow{UniProtID: acc, Functions: entry.MolecularFunctions()})
	}

	path := export.PathFor(out, f)
	if err := export.Write(path, f, export.FunctionsTable(rows)); err != nil {
		return rows, eris.Wrap(err, "functions: write output")
	}

	zap.L().Info("functions complete",
		zap.String("out", path),
		zap.Int("accessions", len(accessions)),
		zap.Int("written", len(rows)),
		zap.Int("failed", failed),
	)
	return rows, nil
}

func init() {
	functionsCmd.Flags().StringVar(&functionsIn, "in", "", "table with a UniProt_ID column (required)")
	functionsCmd.Flags().StringVar(&functionsOut, "out", "molecular_functions.csv", "output path")
	functionsCmd.Flags().StringVar(&functionsFormat, "format", "", "output format: csv or xlsx (default from config)")
	_ = functionsCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(functionsCmd)
}
