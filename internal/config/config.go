//-------------------------------------------------------------------------
//
// pgEdge Brand Master
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for pgedge-brandmaster.
// Configuration is loaded from a config file, a .env file / DB_* environment
// variables for the database location, and CLI flags. CLI flags take
// precedence over config file values.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for pgedge-brandmaster.
type Config struct {
	// Connection is the PostgreSQL connection string. When empty, one is
	// assembled from Database.
	Connection string `mapstructure:"connection"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Database locates the catalog database when Connection is not set.
	Database DatabaseConfig `mapstructure:"database"`

	// Resolve holds configuration for the resolve subcommand.
	Resolve ResolveConfig `mapstructure:"resolve"`

	// Audit holds configuration for the audit subcommand.
	Audit AuditConfig `mapstructure:"audit"`

	// Evaluate holds configuration for the evaluate subcommand.
	Evaluate EvaluateConfig `mapstructure:"evaluate"`

	// Seed holds configuration for the init subcommand.
	Seed SeedConfig `mapstructure:"seed"`

	// Export holds configuration for the export subcommand.
	Export ExportConfig `mapstructure:"export"`
}

// DatabaseConfig mirrors the DB_* environment variables.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ResolveConfig holds configuration for a brand resolution run.
type ResolveConfig struct {
	// Threshold is the minimum similarity (0-100) for two keys to merge.
	Threshold float64 `mapstructure:"threshold"`

	// MaxLengthDelta is the largest key length difference still compared.
	MaxLengthDelta int `mapstructure:"max_length_delta"`

	// Source is recorded on every alias row as its origin table.
	Source string `mapstructure:"source"`

	// GroupEmpty gives brand texts with an empty normalized key their own
	// master instead of leaving their products unlinked.
	GroupEmpty bool `mapstructure:"group_empty"`

	// DryRun resolves against an in-memory snapshot and writes nothing.
	DryRun bool `mapstructure:"dry_run"`
}

// FamilyConfig names a base brand and a sub-brand that must stay distinct.
type FamilyConfig struct {
	Base string `mapstructure:"base"`
	Sub  string `mapstructure:"sub"`
}

// AuditConfig holds configuration for the quality checklist.
type AuditConfig struct {
	// SampleSize is how many canonical names to print for casing review.
	SampleSize int `mapstructure:"sample_size"`

	// CoverageThreshold is the minimum linked product percentage.
	CoverageThreshold float64 `mapstructure:"coverage_threshold"`

	// Families lists brand families expected to resolve separately.
	Families []FamilyConfig `mapstructure:"families"`
}

// EvaluateConfig holds configuration for the dry evaluation report.
type EvaluateConfig struct {
	// ReportLimit caps how many groups each report section prints.
	ReportLimit int `mapstructure:"report_limit"`

	// CandidateCap is how many keys are fuzzy-compared once CapTrigger
	// distinct keys are exceeded.
	CandidateCap int `mapstructure:"candidate_cap"`

	// CapTrigger is the distinct key count above which CandidateCap applies.
	CapTrigger int `mapstructure:"cap_trigger"`
}

// SeedConfig holds configuration for demo catalog generation.
type SeedConfig struct {
	// Brands is the number of distinct brands to generate.
	Brands int `mapstructure:"brands"`

	// Products is the number of products to generate.
	Products int `mapstructure:"products"`

	// Seed fixes the random sequence; 0 seeds from the clock.
	Seed uint64 `mapstructure:"seed"`

	// DropExisting drops the catalog and brand tables first.
	DropExisting bool `mapstructure:"drop_existing"`
}

// ExportConfig holds configuration for CSV export.
type ExportConfig struct {
	// Output is the destination file; "-" writes to stdout.
	Output string `mapstructure:"output"`

	// What selects the data set: "aliases" or "raw".
	What string `mapstructure:"what"`
}

// Export kinds.
const (
	ExportAliases = "aliases"
	ExportRaw     = "raw"
)

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			Name:     "asos_ecommerce",
			User:     "postgres",
			Password: "postgres",
		},
		Resolve: ResolveConfig{
			Threshold:      90,
			MaxLengthDelta: 3,
			Source:         "dim_brand",
		},
		Audit: AuditConfig{
			SampleSize:        10,
			CoverageThreshold: 95,
			Families: []FamilyConfig{
				{Base: "ASOS", Sub: "ASOS DESIGN"},
			},
		},
		Evaluate: EvaluateConfig{
			ReportLimit:  10,
			CandidateCap: 1000,
			CapTrigger:   5000,
		},
		Seed: SeedConfig{
			Brands:   50,
			Products: 1000,
		},
		Export: ExportConfig{
			Output: "brand_alias.csv",
			What:   ExportAliases,
		},
	}
}

// envBindings maps config keys to the environment variables that feed them.
var envBindings = map[string]string{
	"database.host":     "DB_HOST",
	"database.port":     "DB_PORT",
	"database.name":     "DB_NAME",
	"database.user":     "DB_USER",
	"database.password": "DB_PASSWORD",
	"database.sslmode":  "DB_SSLMODE",
}

// Load reads configuration from config files and the environment.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./pgedge-brandmaster.yaml
// 3. ~/.config/pgedge-brandmaster/config.yaml
//
// A .env file in the working directory is loaded first if present.
func Load(configFile string) (*Config, error) {
	// A missing .env is the normal case outside development.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("pgedge-brandmaster")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "pgedge-brandmaster"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("error binding %s: %w", env, err)
		}
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// ConnectionString returns Connection, or a postgres URL assembled from
// Database when Connection is empty.
func (c *Config) ConnectionString() string {
	if c.Connection != "" {
		return c.Connection
	}
	if c.Database.Host == "" || c.Database.Name == "" {
		return ""
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   c.Database.Host,
		Path:   "/" + c.Database.Name,
	}
	if c.Database.Port != "" {
		u.Host = net.JoinHostPort(c.Database.Host, c.Database.Port)
	}
	if c.Database.User != "" {
		if c.Database.Password != "" {
			u.User = url.UserPassword(c.Database.User, c.Database.Password)
		} else {
			u.User = url.User(c.Database.User)
		}
	}
	if c.Database.SSLMode != "" {
		q := url.Values{}
		q.Set("sslmode", c.Database.SSLMode)
		u.RawQuery = q.Encode()
	}

	return u.String()
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.ConnectionString() == "" {
		return fmt.Errorf("connection string is required")
	}
	return nil
}

// ValidateResolve checks configuration required for the resolve command.
func (c *Config) ValidateResolve() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Resolve.Threshold <= 0 || c.Resolve.Threshold > 100 {
		return fmt.Errorf("threshold must be in (0, 100]")
	}
	if c.Resolve.MaxLengthDelta < 0 {
		return fmt.Errorf("max_length_delta must be non-negative")
	}
	if c.Resolve.Source == "" {
		return fmt.Errorf("source is required")
	}
	return nil
}

// ValidateAudit checks configuration required for the audit command.
func (c *Config) ValidateAudit() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Audit.SampleSize < 0 {
		return fmt.Errorf("sample_size must be non-negative")
	}
	if c.Audit.CoverageThreshold < 0 || c.Audit.CoverageThreshold > 100 {
		return fmt.Errorf("coverage_threshold must be in [0, 100]")
	}
	for i, f := range c.Audit.Families {
		if f.Base == "" || f.Sub == "" {
			return fmt.Errorf("families[%d] needs both base and sub", i)
		}
	}
	return nil
}

// ValidateEvaluate checks configuration required for the evaluate command.
func (c *Config) ValidateEvaluate() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Evaluate.ReportLimit < 0 {
		return fmt.Errorf("report_limit must be non-negative")
	}
	if c.Evaluate.CandidateCap < 1 {
		return fmt.Errorf("candidate_cap must be at least 1")
	}
	if c.Evaluate.CapTrigger < c.Evaluate.CandidateCap {
		return fmt.Errorf("cap_trigger must be >= candidate_cap")
	}
	return nil
}

// ValidateSeed checks configuration required for the init command.
func (c *Config) ValidateSeed() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Seed.Brands < 1 {
		return fmt.Errorf("brands must be at least 1")
	}
	if c.Seed.Products < 0 {
		return fmt.Errorf("products must be non-negative")
	}
	return nil
}

// ValidateExport checks configuration required for the export command.
func (c *Config) ValidateExport() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Export.Output == "" {
		return fmt.Errorf("output is required")
	}
	if c.Export.What != ExportAliases && c.Export.What != ExportRaw {
		return fmt.Errorf("export kind must be '%s' or '%s'", ExportAliases, ExportRaw)
	}
	return nil
}
