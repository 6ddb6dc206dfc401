// Package uniprot provides a client for the UniProt REST API.
package uniprot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bestres/internal/resilience"
)

const (
	defaultBaseURL = "https://rest.uniprot.org"

	// CategoryMolecularFunction is the keyword category of GO-style
	// molecular function annotations.
	CategoryMolecularFunction = "Molecular function"

	opGetEntry = "uniprot: get entry"
)

// Client defines the UniProt operations.
type Client interface {
	// Entry fetches a single UniProtKB entry by accession.
	Entry(ctx context.Context, accession string) (*Entry, error)
}

// Entry is the subset of a UniProtKB JSON entry this project reads.
type Entry struct {
	Accession string    `json:"primaryAccession"`
	Organism  Organism  `json:"organism"`
	Keywords  []Keyword `json:"keywords"`
}

// Organism identifies the source organism of an entry.
type Organism struct {
	ScientificName string `json:"scientificName"`
	CommonName     string `json:"commonName"`
	TaxonID        int    `json:"taxonId"`
}

// Keyword is a controlled-vocabulary annotation.
type Keyword struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Name     string `json:"name"`
}

// MolecularFunctions returns the names of the entry's molecular function keywords.
func (e *Entry) MolecularFunctions() []string {
	var out []string
	for _, kw := range e.Keywords {
		if kw.Category == CategoryMolecularFunction {
			out = append(out, kw.Name)
		}
	}
	return out
}

// Option configures the UniProt client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
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

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a new UniProt client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Entry(ctx context.Context, accession string) (*Entry, error) {
	if accession == "" {
		return nil, eris.New("uniprot: empty accession")
	}
	reqURL := fmt.Sprintf("%s/uniprotkb/%s.json", c.baseURL, url.PathEscape(accession))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "uniprot: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.NewTransportError(opGetEntry, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransportError(opGetEntry, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.NewRemoteError(opGetEntry, resp.StatusCode,
			fmt.Sprintf("unable to retrieve %s", accession))
	}

	var entry Entry
	if err := json.Unmarshal(body, &entry); err != nil {
		return nil, resilience.NewDataShapeError(opGetEntry, err.Error())
	}
	if entry.Accession == "" {
		entry.Accession = accession
	}
	return &entry, nil
}
