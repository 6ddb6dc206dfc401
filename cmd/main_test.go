package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/bestres/internal/config"
)

// testConfig returns the default configuration with every output path
// redirected into a temp dir.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c, err := config.Load()
	require.NoError(t, err)

	dir := t.TempDir()
	c.Batch.DelayMs = 0
	c.Output.AllPath = filepath.Join(dir, "all_pdb_entries.csv")
	c.Output.BestPath = filepath.Join(dir, "best_pdb_entries_by_uniprot.csv")
	c.Download.Dir = filepath.Join(dir, "pdb")
	return c
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

type fakeEntry struct {
	Resolution float64
	UniProtIDs []string
	Mutations  int // reported on the first polymer entity
}

// newFakeRCSB serves the entries GraphQL query from fixtures. A request
// that names an id starting with "BAD" gets a 502.
func newFakeRCSB(t *testing.T, fixtures map[string]fakeEntry) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables struct {
				EntryIDs []string `json:"entry_ids"`
			} `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		var entries []map[string]any
		for _, id := range req.Variables.EntryIDs {
			if strings.HasPrefix(id, "BAD") {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			fx, ok := fixtures[id]
			if !ok {
				continue
			}
			var entities []map[string]any
			for i, uid := range fx.UniProtIDs {
				entity := map[string]any{
					"rcsb_polymer_entity_container_identifiers": map[string]any{"uniprot_ids": []string{uid}},
				}
				if i == 0 {
					entity["entity_poly"] = map[string]any{"rcsb_mutation_count": fx.Mutations}
				}
				entities = append(entities, entity)
			}
			entries = append(entries, map[string]any{
				"rcsb_id":          id,
				"rcsb_entry_info":  map[string]any{"resolution_combined": []float64{fx.Resolution}},
				"polymer_entities": entities,
			})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"entries": entries}}) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv
}
