package model

import "time"

// RunStatus summarizes how a dataset build ended.
type RunStatus string

const (
	RunStatusComplete  RunStatus = "complete"  // every chunk fetched
	RunStatusPartial   RunStatus = "partial"   // at least one chunk dropped
	RunStatusCancelled RunStatus = "cancelled" // interrupted before the last chunk
)

// ChunkFailure records one chunk whose fetch failed and whose identifiers
// were dropped from the run.
type ChunkFailure struct {
	Index int      `json:"index" yaml:"index"` // 1-based
	IDs   []string `json:"ids" yaml:"ids"`
	Kind  string   `json:"kind" yaml:"kind"`
	Error string   `json:"error" yaml:"error"`
}

// Run is the summary of one dataset build.
type Run struct {
	ID          string         `json:"id" yaml:"id"`
	Status      RunStatus      `json:"status" yaml:"status"`
	StartedAt   time.Time      `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time      `json:"finished_at" yaml:"finished_at"`
	Identifiers int            `json:"identifiers" yaml:"identifiers"`
	BatchSize   int            `json:"batch_size" yaml:"batch_size"`
	Chunks      int            `json:"chunks" yaml:"chunks"`
	Entries     int            `json:"entries" yaml:"entries"`
	FlatRows    int            `json:"flat_rows" yaml:"flat_rows"`
	BestRows    int            `json:"best_rows" yaml:"best_rows"`
	MutatedOnly bool           `json:"mutated_only,omitempty" yaml:"mutated_only,omitempty"`
	NonMutated  int            `json:"non_mutated_dropped,omitempty" yaml:"non_mutated_dropped,omitempty"`
	Organism    string         `json:"organism,omitempty" yaml:"organism,omitempty"`
	Rejected    int            `json:"organism_rejected,omitempty" yaml:"organism_rejected,omitempty"`
	Reduce      ReduceStats    `json:"reduce" yaml:"reduce"`
	Failures    []ChunkFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// FailedIDs returns the identifiers of every failed chunk, in chunk order.
func (r *Run) FailedIDs() []string {
	var ids []string
	for _, f := range r.Failures {
		ids = append(ids, f.IDs...)
	}
	return ids
}
