// Package dataset builds the best-resolution structure dataset: batched
// retrieval from RCSB, flattening into (PDB, UniProt) rows, and reduction to
// one row per UniProt accession.
package dataset

import (
	"context"
	"maps"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/bestres/internal/model"
	"github.com/sells-group/bestres/internal/resilience"
	"github.com/sells-group/bestres/pkg/rcsb"
)

// Defaults for the batch orchestrator.
const (
	DefaultBatchSize = 20
	DefaultDelay     = time.Second
)

// Partition splits ids into consecutive chunks of at most size elements,
// preserving order. It returns nil for an empty list or a non-positive size.
func Partition(ids []string, size int) [][]string {
	if size <= 0 || len(ids) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end:end])
	}
	return chunks
}

// FetchResult is the fold of every chunk of one FetchAll call.
type FetchResult struct {
	Entries   map[string]rcsb.Entry // merged entries of all successful chunks
	Order     []string              // identifiers in request order
	Failures  []model.ChunkFailure
	Chunks    int // chunks planned
	Attempted int // chunks sent to the client
	Cancelled bool
}

// FailedChunks returns the number of dropped chunks.
func (r *FetchResult) FailedChunks() int {
	return len(r.Failures)
}

func (r *FetchResult) merge(entries map[string]rcsb.Entry) {
	maps.Copy(r.Entries, entries)
}

func (r *FetchResult) fail(index int, ids []string, err error) {
	r.Failures = append(r.Failures, model.ChunkFailure{
		Index: index,
		IDs:   append([]string(nil), ids...),
		Kind:  resilience.Classify(err),
		Error: err.Error(),
	})
}

// Orchestrator fetches an identifier list chunk by chunk with a fixed pause
// between requests. A failed chunk is recorded and skipped; the run goes on.
type Orchestrator struct {
	client  rcsb.Client
	size    int
	limiter *rate.Limiter
}

// NewOrchestrator creates an orchestrator sending at most size ids per
// request and starting consecutive requests at least delay apart.
func NewOrchestrator(client rcsb.Client, size int, delay time.Duration) (*Orchestrator, error) {
	if client == nil {
		return nil, eris.New("dataset: nil rcsb client")
	}
	if size <= 0 {
		return nil, eris.Errorf("dataset: batch size must be positive, got %d", size)
	}
	if delay < 0 {
		return nil, eris.Errorf("dataset: negative batch delay %s", delay)
	}
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Orchestrator{
		client:  client,
		size:    size,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// BatchSize returns the configured chunk size.
func (o *Orchestrator) BatchSize() int {
	return o.size
}

// FetchAll fetches every identifier and returns whatever the successful
// chunks produced. It never fails: chunk errors end up in Failures, and a
// cancelled context stops the loop before the next chunk.
func (o *Orchestrator) FetchAll(ctx context.Context, ids []string) *FetchResult {
	chunks := Partition(ids, o.size)
	res := &FetchResult{
		Entries: make(map[string]rcsb.Entry, len(ids)),
		Order:   ids,
		Chunks:  len(chunks),
	}

	log := zap.L().With(zap.Int("chunks", len(chunks)), zap.Int("batch_size", o.size))

	for i, chunk := range chunks {
		index := i + 1
		if err := o.limiter.Wait(ctx); err != nil {
			res.Cancelled = true
			log.Warn("fetch cancelled", zap.Int("next_chunk", index), zap.Error(err))
			break
		}

		res.Attempted++
		entries, err := o.client.FetchEntries(ctx, chunk)
		if err != nil {
			res.fail(index, chunk, err)
			log.Error("chunk failed, dropping its identifiers",
				zap.Int("chunk", index),
				zap.Strings("ids", chunk),
				zap.String("kind", resilience.Classify(err)),
				zap.Error(err),
			)
			continue
		}

		res.merge(entries)
		log.Debug("chunk fetched",
			zap.Int("chunk", index),
			zap.Int("requested", len(chunk)),
			zap.Int("returned", len(entries)),
		)
	}

	if ctx.Err() != nil {
		res.Cancelled = true
	}

	log.Info("fetch complete",
		zap.Int("attempted", res.Attempted),
		zap.Int("failed", res.FailedChunks()),
		zap.Int("entries", len(res.Entries)),
	)
	return res
}
