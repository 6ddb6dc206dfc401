package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bestres/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "bestres",
	Short: "Best-resolution PDB structure dataset builder",
	Long:  "Fetches PDB entry metadata from the RCSB GraphQL API in throttled chunks, flattens it to (PDB_ID, Resolution, UniProt_ID) rows and keeps the best-resolution structure per UniProt accession.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
