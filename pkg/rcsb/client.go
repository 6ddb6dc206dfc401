// Package rcsb provides a client for the RCSB PDB GraphQL data API.
package rcsb

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"

	"github.com/sells-group/bestres/internal/resilience"
)

const (
	defaultGraphQLURL = "https://data.rcsb.org/graphql"
	defaultFilesURL   = "https://files.rcsb.org/download"

	opFetchEntries = "rcsb: fetch entries"
)

//go:embed queries/entries.graphql
var defaultQuery string

// DefaultQuery returns the embedded entries query.
func DefaultQuery() string {
	return defaultQuery
}

// Entry is the normalized view of one PDB entry.
type Entry struct {
	Resolution *float64 `json:"resolution,omitempty"` // first combined resolution, nil if unreported
	UniProtIDs []string `json:"uniprot_ids"`          // de-duplicated, first-seen order

	// MutationCount sums rcsb_mutation_count over the polymer entities.
	// Zero when the query does not select it.
	MutationCount int `json:"mutation_count"`
}

// Mutated reports whether any polymer entity carries a mutation.
func (e Entry) Mutated() bool {
	return e.MutationCount > 0
}

// Client defines the RCSB PDB operations.
type Client interface {
	// FetchEntries queries all ids in a single request and returns the
	// entries the API reported, keyed by the requested id.
	FetchEntries(ctx context.Context, ids []string) (map[string]Entry, error)
	// StructureURL returns the download URL of the PDB-format file for id.
	StructureURL(id string) string
}

// Option configures the RCSB client.
type Option func(*httpClient)

// WithBaseURL sets a custom GraphQL endpoint (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithFilesURL sets a custom structure file download base.
func WithFilesURL(url string) Option {
	return func(c *httpClient) {
		c.filesURL = strings.TrimRight(url, "/")
	}
}

// WithQuery replaces the embedded GraphQL query. The query must declare an
// $entry_ids variable.
func WithQuery(query string) Option {
	return func(c *httpClient) {
		c.query = query
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

// WithRetry sets the retry policy. The default performs a single attempt.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	baseURL  string
	filesURL string
	query    string
	retry    resilience.RetryConfig
	http     *http.Client
}

// NewClient creates a new RCSB client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:  defaultGraphQLURL,
		filesURL: defaultFilesURL,
		query:    defaultQuery,
		retry:    resilience.DefaultRetryConfig(),
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger("rcsb", "fetch_entries")
	}
	return c
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func (c *httpClient) StructureURL(id string) string {
	return c.filesURL + "/" + id + ".pdb"
}

func (c *httpClient) FetchEntries(ctx context.Context, ids []string) (map[string]Entry, error) {
	if len(ids) == 0 {
		return map[string]Entry{}, nil
	}
	return resilience.DoVal(ctx, c.retry, func(ctx context.Context) (map[string]Entry, error) {
		return c.fetchOnce(ctx, ids)
	})
}

func (c *httpClient) fetchOnce(ctx context.Context, ids []string) (map[string]Entry, error) {
	payload, err := json.Marshal(graphQLRequest{
		Query:     c.query,
		Variables: map[string]any{"entry_ids": ids},
	})
	if err != nil {
		return nil, eris.Wrap(err, "rcsb: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "rcsb: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.NewTransportError(opFetchEntries, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransportError(opFetchEntries, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.NewRemoteError(opFetchEntries, resp.StatusCode, snippet(body))
	}

	return parseEntries(ids, body)
}

// parseEntries normalizes a GraphQL response body. Entries are keyed by the
// rcsb_id they carry, mapped back to the caller's spelling of the id; only
// entries without an rcsb_id fall back to their position in the request.
func parseEntries(ids []string, body []byte) (map[string]Entry, error) {
	if !gjson.ValidBytes(body) {
		return nil, resilience.NewDataShapeError(opFetchEntries, "response is not valid JSON")
	}
	root := gjson.ParseBytes(body)

	if errs := root.Get("errors"); errs.IsArray() && len(errs.Array()) > 0 {
		first := errs.Array()[0]
		msg := first.Get("message").String()
		if msg == "" {
			msg = first.Raw
		}
		return nil, resilience.NewRemoteError(opFetchEntries, http.StatusOK, msg)
	}

	entries := root.Get("data.entries")
	if !entries.IsArray() {
		return nil, resilience.NewDataShapeError(opFetchEntries, "missing data.entries")
	}
	list := entries.Array()
	if len(list) == 0 {
		return nil, resilience.NewDataShapeError(opFetchEntries, "no entries returned")
	}

	requested := make(map[string]string, len(ids))
	for _, id := range ids {
		key := strings.ToUpper(strings.TrimSpace(id))
		if _, ok := requested[key]; !ok {
			requested[key] = id
		}
	}

	out := make(map[string]Entry, len(list))
	for i, e := range list {
		if !e.IsObject() {
			continue
		}

		var id string
		if rid := e.Get("rcsb_id").String(); rid != "" {
			if reqID, ok := requested[strings.ToUpper(rid)]; ok {
				id = reqID
			} else {
				id = rid
			}
		} else if i < len(ids) {
			id = ids[i]
		} else {
			continue
		}

		out[id] = normalizeEntry(e)
	}
	return out, nil
}

func normalizeEntry(e gjson.Result) Entry {
	var entry Entry
	if res := e.Get("rcsb_entry_info.resolution_combined.0"); res.Type == gjson.Number {
		v := res.Float()
		entry.Resolution = &v
	}

	seen := make(map[string]struct{})
	for _, pe := range arrayOf(e.Get("polymer_entities")) {
		if mc := pe.Get("entity_poly.rcsb_mutation_count"); mc.Type == gjson.Number && mc.Int() > 0 {
			entry.MutationCount += int(mc.Int())
		}
		for _, u := range arrayOf(pe.Get("rcsb_polymer_entity_container_identifiers.uniprot_ids")) {
			if u.Type != gjson.String || u.Str == "" {
				continue
			}
			if _, dup := seen[u.Str]; dup {
				continue
			}
			seen[u.Str] = struct{}{}
			entry.UniProtIDs = append(entry.UniProtIDs, u.Str)
		}
	}
	return entry
}

// arrayOf returns the elements of r, treating null and absent values as empty.
func arrayOf(r gjson.Result) []gjson.Result {
	if !r.IsArray() {
		return nil
	}
	return r.Array()
}

func snippet(body []byte) string {
	const limit = 256
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
