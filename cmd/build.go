package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bestres/internal/config"
	"github.com/sells-group/bestres/internal/dataset"
	"github.com/sells-group/bestres/internal/export"
	"github.com/sells-group/bestres/internal/model"
)

var (
	buildIDsPath  string
	buildAllPath  string
	buildBestPath string
	buildFormat   string
	buildOrganism string
	buildMutated  bool
	buildReport   string
	buildSize     int
	buildDelayMs  int
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the all-entries and best-resolution tables from an identifier file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		flags := cmd.Flags()
		if flags.Changed("all") {
			cfg.Output.AllPath = buildAllPath
		}
		if flags.Changed("best") {
			cfg.Output.BestPath = buildBestPath
		}
		if flags.Changed("format") {
			cfg.Output.Format = buildFormat
		}
		if flags.Changed("organism") {
			cfg.UniProt.Organism = buildOrganism
		}
		if flags.Changed("mutated-only") {
			cfg.RCSB.MutatedOnly = buildMutated
		}
		if flags.Changed("report") {
			cfg.Output.ReportPath = buildReport
		}
		if flags.Changed("batch-size") {
			cfg.Batch.Size = buildSize
		}
		if flags.Changed("delay-ms") {
			cfg.Batch.DelayMs = buildDelayMs
		}
		if err := cfg.Validate("build"); err != nil {
			return err
		}

		_, err := runBuild(ctx, cfg, buildIDsPath)
		return err
	},
}

// runBuild executes one build and writes every configured output. Only
// setup and output errors are returned; fetch failures end up on the run.
func runBuild(ctx context.Context, c *config.Config, idsPath string) (*dataset.Result, error) {
	format, err := export.ParseFormat(c.Output.Format)
	if err != nil {
		return nil, err
	}

	ids, err := dataset.LoadIdentifiers(ctx, idsPath)
	if err != nil {
		return nil, eris.Wrap(err, "build: load identifiers")
	}

	client, err := newRCSBClient(c)
	if err != nil {
		return nil, eris.Wrap(err, "build: rcsb client")
	}
	orch, err := dataset.NewOrchestrator(client, c.Batch.Size, time.Duration(c.Batch.DelayMs)*time.Millisecond)
	if err != nil {
		return nil, eris.Wrap(err, "build: orchestrator")
	}

	b := &dataset.Builder{
		Orchestrator: orch,
		Organism:     c.UniProt.Organism,
		MutatedOnly:  c.RCSB.MutatedOnly,
	}
	if b.Organism != "" {
		b.UniProt = newUniProtClient(c)
	}
	res := b.Build(ctx, ids)

	// Outputs are written even when the run was interrupted.
	outCtx := context.WithoutCancel(ctx)

	allPath := export.PathFor(c.Output.AllPath, format)
	bestPath := export.PathFor(c.Output.BestPath, format)
	if err := export.Write(allPath, format, export.FlatTable(res.Flat)); err != nil {
		return res, eris.Wrap(err, "build: write all-entries table")
	}
	if err := export.Write(bestPath, format, export.BestTable(res.Best)); err != nil {
		return res, eris.Wrap(err, "build: write best table")
	}

	if c.Output.ReportPath != "" {
		report := export.Report{
			Run:      res.Run,
			Outputs:  map[string]string{"all": allPath, "best": bestPath},
			Rejected: res.Rejected,
		}
		if err := export.WriteReport(c.Output.ReportPath, report); err != nil {
			return res, eris.Wrap(err, "build: write report")
		}
	}

	if c.Store.Driver != "" {
		st, err := initStore(outCtx, c)
		if err != nil {
			return res, eris.Wrap(err, "build: open store")
		}
		defer st.Close() //nolint:errcheck
		if err := st.SaveRun(outCtx, res.Run, res.Flat, res.Best); err != nil {
			return res, eris.Wrap(err, "build: save run")
		}
	}

	log := zap.L().With(zap.String("run_id", res.Run.ID))
	if res.Run.Status != model.RunStatusComplete {
		log.Warn("build incomplete",
			zap.String("status", string(res.Run.Status)),
			zap.Strings("failed_ids", res.Run.FailedIDs()),
		)
	}
	log.Info("outputs written",
		zap.String("all", allPath),
		zap.String("best", bestPath),
		zap.String("report", c.Output.ReportPath),
	)
	return res, nil
}

func init() {
	f := buildCmd.Flags()
	f.StringVar(&buildIDsPath, "ids", "", "path to the comma-separated PDB identifier file (required)")
	f.StringVar(&buildAllPath, "all", "", "all-entries output path (default from config)")
	f.StringVar(&buildBestPath, "best", "", "best-resolution output path (default from config)")
	f.StringVar(&buildFormat, "format", "", "output format: csv or xlsx (default from config)")
	f.StringVar(&buildOrganism, "organism", "", "keep only accessions of this organism in the best table")
	f.BoolVar(&buildMutated, "mutated-only", false, "reduce only entries with at least one mutated polymer entity")
	f.StringVar(&buildReport, "report", "", "write a YAML run report to this path")
	f.IntVar(&buildSize, "batch-size", 0, "identifiers per request (default from config)")
	f.IntVar(&buildDelayMs, "delay-ms", 0, "pause between requests in milliseconds (default from config)")
	_ = buildCmd.MarkFlagRequired("ids")
	rootCmd.AddCommand(buildCmd)
}
