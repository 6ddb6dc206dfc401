package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	RCSB     RCSBConfig     `yaml:"rcsb" mapstructure:"rcsb"`
	UniProt  UniProtConfig  `yaml:"uniprot" mapstructure:"uniprot"`
	Batch    BatchConfig    `yaml:"batch" mapstructure:"batch"`
	Download DownloadConfig `yaml:"download" mapstructure:"download"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// RCSBConfig configures the RCSB PDB GraphQL client.
type RCSBConfig struct {
	GraphQLURL       string `yaml:"graphql_url" mapstructure:"graphql_url"`
	FilesURL         string `yaml:"files_url" mapstructure:"files_url"`
	QueryFile        string `yaml:"query_file" mapstructure:"query_file"` // empty uses the embedded query
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts      int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int    `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MutatedOnly      bool   `yaml:"mutated_only" mapstructure:"mutated_only"` // reduce only entries with mutated entities
}

// UniProtConfig configures the UniProt REST client.
type UniProtConfig struct {
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Organism    string `yaml:"organism" mapstructure:"organism"` // e.g. "Homo sapiens"; empty disables the filter
}

// BatchConfig configures chunked retrieval.
type BatchConfig struct {
	Size    int `yaml:"size" mapstructure:"size"`
	DelayMs int `yaml:"delay_ms" mapstructure:"delay_ms"`
}

// DownloadConfig configures structure file downloads.
type DownloadConfig struct {
	Dir         string `yaml:"dir" mapstructure:"dir"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// OutputConfig configures the output tables.
type OutputConfig struct {
	Format     string `yaml:"format" mapstructure:"format"` // csv or xlsx
	AllPath    string `yaml:"all_path" mapstructure:"all_path"`
	BestPath   string `yaml:"best_path" mapstructure:"best_path"`
	ReportPath string `yaml:"report_path" mapstructure:"report_path"`
}

// StoreConfig configures the database backend. An empty driver disables
// persistence.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the read API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BESTRES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("rcsb.graphql_url", "https://data.rcsb.org/graphql")
	v.SetDefault("rcsb.files_url", "https://files.rcsb.org/download")
	v.SetDefault("rcsb.query_file", "")
	v.SetDefault("rcsb.timeout_secs", 60)
	v.SetDefault("rcsb.max_attempts", 1)
	v.SetDefault("rcsb.initial_backoff_ms", 1000)
	v.SetDefault("rcsb.mutated_only", false)
	v.SetDefault("uniprot.base_url", "https://rest.uniprot.org")
	v.SetDefault("uniprot.timeout_secs", 30)
	v.SetDefault("uniprot.organism", "")
	v.SetDefault("batch.size", 20)
	v.SetDefault("batch.delay_ms", 1000)
	v.SetDefault("download.dir", "pdb")
	v.SetDefault("download.max_retries", 1)
	v.SetDefault("download.timeout_secs", 60)
	v.SetDefault("download.user_agent", "bestres/1.0")
	v.SetDefault("output.format", "csv")
	v.SetDefault("output.all_path", "all_pdb_entries.csv")
	v.SetDefault("output.best_path", "best_pdb_entries_by_uniprot.csv")
	v.SetDefault("output.report_path", "")
	v.SetDefault("store.driver", "")
	v.SetDefault("store.database_url", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings required by the given command mode.
func (c *Config) Validate(mode string) error {
	var errs []string

	if c.Batch.Size <= 0 {
		errs = append(errs, fmt.Sprintf("batch.size must be > 0, got %d", c.Batch.Size))
	}
	if c.Batch.DelayMs < 0 {
		errs = append(errs, fmt.Sprintf("batch.delay_ms must be >= 0, got %d", c.Batch.DelayMs))
	}
	switch strings.ToLower(c.Output.Format) {
	case "csv", "xlsx":
	default:
		errs = append(errs, fmt.Sprintf("output.format must be csv or xlsx, got %q", c.Output.Format))
	}
	switch c.Store.Driver {
	case "", "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}

	switch mode {
	case "build", "reduce", "download", "functions":
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Store.Driver == "" {
			errs = append(errs, "store.driver is required")
		}
	case "migrate":
		if c.Store.Driver == "" {
			errs = append(errs, "store.driver is required")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown mode %q", mode))
	}

	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required for postgres")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
