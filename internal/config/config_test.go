package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://data.rcsb.org/graphql", cfg.RCSB.GraphQLURL)
	assert.Equal(t, "https://files.rcsb.org/download", cfg.RCSB.FilesURL)
	assert.Empty(t, cfg.RCSB.QueryFile)
	assert.Equal(t, 60, cfg.RCSB.TimeoutSecs)
	assert.Equal(t, 1, cfg.RCSB.MaxAttempts)
	assert.False(t, cfg.RCSB.MutatedOnly)
	assert.Equal(t, "https://rest.uniprot.org", cfg.UniProt.BaseURL)
	assert.Empty(t, cfg.UniProt.Organism)
	assert.Equal(t, 20, cfg.Batch.Size)
	assert.Equal(t, 1000, cfg.Batch.DelayMs)
	assert.Equal(t, 1, cfg.Download.MaxRetries)
	assert.Equal(t, "pdb", cfg.Download.Dir)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Equal(t, "all_pdb_entries.csv", cfg.Output.AllPath)
	assert.Equal(t, "best_pdb_entries_by_uniprot.csv", cfg.Output.BestPath)
	assert.Empty(t, cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.NoError(t, cfg.Validate("build"))
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
batch:
  size: 50
  delay_ms: 250
rcsb:
  mutated_only: true
uniprot:
  organism: Homo sapiens
output:
  format: xlsx
store:
  driver: sqlite
  database_url: bestres.db
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Batch.Size)
	assert.Equal(t, 250, cfg.Batch.DelayMs)
	assert.Equal(t, "Homo sapiens", cfg.UniProt.Organism)
	assert.True(t, cfg.RCSB.MutatedOnly)
	assert.Equal(t, "xlsx", cfg.Output.Format)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, 60, cfg.RCSB.TimeoutSecs)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("batch: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
batch:
  size: 5
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("BESTRES_BATCH_SIZE", "7")
	t.Setenv("BESTRES_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Batch.Size)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("BESTRES_SERVER_PORT", "3000")
	t.Setenv("BESTRES_RCSB_MAX_ATTEMPTS", "3")
	t.Setenv("BESTRES_UNIPROT_ORGANISM", "Mus musculus")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 3, cfg.RCSB.MaxAttempts)
	assert.Equal(t, "Mus musculus", cfg.UniProt.Organism)
}

func TestInitLoggerConsole(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	assert.Error(t, InitLogger(LogConfig{Level: "invalid", Format: "json"}))
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Batch.Size = 20
	cfg.Batch.DelayMs = 1000
	cfg.Output.Format = "csv"
	cfg.Server.Port = 8080
	return cfg
}

func TestValidate_Modes(t *testing.T) {
	for _, mode := range []string{"build", "reduce", "download", "functions"} {
		assert.NoError(t, validDefaults().Validate(mode), mode)
	}
}

func TestValidate_BatchBounds(t *testing.T) {
	cfg := validDefaults()
	cfg.Batch.Size = 0
	cfg.Batch.DelayMs = -1

	err := cfg.Validate("build")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch.size must be > 0")
	assert.Contains(t, err.Error(), "batch.delay_ms must be >= 0")
}

func TestValidate_OutputFormat(t *testing.T) {
	cfg := validDefaults()
	cfg.Output.Format = "XLSX"
	assert.NoError(t, cfg.Validate("build"))

	cfg.Output.Format = "parquet"
	err := cfg.Validate("build")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.format")
}

func TestValidateServe(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver is required")

	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "bestres.db"
	assert.NoError(t, cfg.Validate("serve"))

	cfg.Server.Port = 0
	err = cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateMigrate_PostgresNeedsURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"

	err := cfg.Validate("migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required for postgres")

	cfg.Store.DatabaseURL = "postgres://localhost/bestres"
	assert.NoError(t, cfg.Validate("migrate"))
}

func TestValidate_UnknownDriverAndMode(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
	assert.Contains(t, err.Error(), "unknown mode")
}
