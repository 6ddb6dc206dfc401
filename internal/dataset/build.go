package dataset

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/bestres/internal/model"
	"github.com/sells-group/bestres/pkg/uniprot"
)

// Result is everything one build produces.
type Result struct {
	Run      *model.Run
	Flat     []model.FlatRow    // all-entries table, never organism-filtered
	Best     []model.ReducedRow // best-resolution table
	Rejected []OrganismRejection
}

// Builder runs the fetch, flatten, filter and reduce stages.
type Builder struct {
	Orchestrator *Orchestrator
	UniProt      uniprot.Client // only used when Organism is set
	Organism     string
	MutatedOnly  bool // feed only entries with mutated polymer entities to the reducer
	Now          func() time.Time
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now().UTC()
}

// Build produces both tables for ids. It does not fail: fetch errors are
// recorded on the run and the affected identifiers are left out.
func (b *Builder) Build(ctx context.Context, ids []string) *Result {
	run := &model.Run{
		ID:          uuid.NewString(),
		StartedAt:   b.now(),
		Identifiers: len(ids),
		BatchSize:   b.Orchestrator.BatchSize(),
		Organism:    b.Organism,
		MutatedOnly: b.MutatedOnly,
	}
	log := zap.L().With(zap.String("run_id", run.ID))
	log.Info("build started", zap.Int("identifiers", len(ids)))

	fetched := b.Orchestrator.FetchAll(ctx, ids)
	run.Chunks = fetched.Chunks
	run.Entries = len(fetched.Entries)
	run.Failures = fetched.Failures

	flat := Flatten(fetched.Entries, fetched.Order)
	run.FlatRows = len(flat)

	candidates := flat
	if b.MutatedOnly {
		candidates, run.NonMutated = FilterMutated(flat, fetched.Entries)
	}

	candidates, rejected := FilterOrganism(ctx, b.UniProt, candidates, b.Organism)
	run.Rejected = len(rejected)

	best, stats := Reduce(candidates)
	run.BestRows = len(best)
	run.Reduce = stats

	switch {
	case fetched.Cancelled:
		run.Status = model.RunStatusCancelled
	case len(fetched.Failures) > 0:
		run.Status = model.RunStatusPartial
	default:
		run.Status = model.RunStatusComplete
	}
	run.FinishedAt = b.now()

	log.Info("build finished",
		zap.String("status", string(run.Status)),
		zap.Int("entries", run.Entries),
		zap.Int("flat_rows", run.FlatRows),
		zap.Int("best_rows", run.BestRows),
		zap.Int("failed_chunks", len(run.Failures)),
		zap.Int("dropped_missing_id", stats.DroppedMissingID),
		zap.Int("dropped_bad_resolution", stats.DroppedBadResolution),
		zap.Int("duplicates", stats.Duplicates),
	)

	return &Result{Run: run, Flat: flat, Best: best, Rejected: rejected}
}
