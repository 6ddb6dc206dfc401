package main

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bestres/internal/config"
	"github.com/sells-group/bestres/internal/fetcher"
	"github.com/sells-group/bestres/internal/resilience"
	"github.com/sells-group/bestres/internal/store"
	"github.com/sells-group/bestres/pkg/rcsb"
	"github.com/sells-group/bestres/pkg/uniprot"
)

func newRCSBClient(c *config.Config) (rcsb.Client, error) {
	opts := []rcsb.Option{
		rcsb.WithBaseURL(c.RCSB.GraphQLURL),
		rcsb.WithFilesURL(c.RCSB.FilesURL),
		rcsb.WithRetry(resilience.FromRetryConfig(c.RCSB.MaxAttempts, c.RCSB.InitialBackoffMs)),
	}
	if c.RCSB.TimeoutSecs > 0 {
		opts = append(opts, rcsb.WithTimeout(time.Duration(c.RCSB.TimeoutSecs)*time.Second))
	}
	if c.RCSB.QueryFile != "" {
		q, err := os.ReadFile(c.RCSB.QueryFile)
		if err != nil {
			return nil, eris.Wrapf(err, "read query file %s", c.RCSB.QueryFile)
		}
		opts = append(opts, rcsb.WithQuery(string(q)))
	}
	return rcsb.NewClient(opts...), nil
}

func newUniProtClient(c *config.Config) uniprot.Client {
	opts := []uniprot.Option{uniprot.WithBaseURL(c.UniProt.BaseURL)}
	if c.UniProt.TimeoutSecs > 0 {
		opts = append(opts, uniprot.WithTimeout(time.Duration(c.UniProt.TimeoutSecs)*time.Second))
	}
	return uniprot.NewClient(opts...)
}

func newDownloader(c *config.Config) *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:    c.Download.UserAgent,
		Timeout:      time.Duration(c.Download.TimeoutSecs) * time.Second,
		MaxRetries:   c.Download.MaxRetries,
		RateLimiters: fetcher.DefaultRateLimiters(),
	})
}

// initStore opens the configured store and applies its schema.
func initStore(ctx context.Context, c *config.Config) (store.Store, error) {
	st, err := store.Open(ctx, c.Store.Driver, c.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	zap.L().Debug("store ready", zap.String("driver", c.Store.Driver))
	return st, nil
}
