// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`

	// File paths
	DataDirectory    string `mapstructure:"datadir"`
	CacheDirectory   string `mapstructure:"cachedir"`
	ReportsDirectory string `mapstructure:"reportsdir"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Analytics API settings
	PlausibleBaseURL string `mapstructure:"plausiblebaseurl"`
	PlausibleAPIKey  string `mapstructure:"plausibleapikey"`
	PlausibleSiteID  string `mapstructure:"plausiblesiteid"`

	// Taxonomy lookup settings
	EutilsBaseURL    string `mapstructure:"eutilsbaseurl"`
	DatasetsBaseURL  string `mapstructure:"datasetsbaseurl"`
	LookupIntervalMs int    `mapstructure:"lookupintervalms"`

	// Report preview server
	ServePort string `mapstructure:"serveport"`

	// Analysis settings
	BiasedAssemblyIDs  []string `mapstructure:"biasedassemblyids"`
	CommunityTablePath string   `mapstructure:"communitytablepath"`
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig returns the application configuration
func GetConfig() *Config {
	once.Do(func() {
		// A local .env is optional; real deployments set the variables
		// directly.
		_ = godotenv.Load()

		v := viper.New()

		v.SetDefault("appname", "brcstats")
		v.SetDefault("environment", Development)
		v.SetDefault("loglevel", string(LogLevelInfo))
		v.SetDefault("datadir", "data/fetched")
		v.SetDefault("cachedir", "data/taxonomy-cache")
		v.SetDefault("reportsdir", "reports")
		v.SetDefault("logsdir", "logs")
		v.SetDefault("logsmaxsizeinmb", 20)
		v.SetDefault("logsmaxbackups", 10)
		v.SetDefault("logsmaxageindays", 30)
		v.SetDefault("plausiblebaseurl", "https://plausible.io")
		v.SetDefault("eutilsbaseurl", "https://eutils.ncbi.nlm.nih.gov")
		v.SetDefault("datasetsbaseurl", "https://api.ncbi.nlm.nih.gov")
		v.SetDefault("lookupintervalms", 350)
		v.SetDefault("serveport", "3000")
		v.SetDefault("biasedassemblyids", []string{"GCA_001008285_1", "GCA_000826245_1"})
		v.SetDefault("communitytablepath", "")

		v.BindEnv("appname", "BRCSTATS_APP_NAME")
		v.BindEnv("environment", "BRCSTATS_ENV")
		v.BindEnv("loglevel", "BRCSTATS_LOG_LEVEL")
		v.BindEnv("datadir", "BRCSTATS_DATA_DIR")
		v.BindEnv("cachedir", "BRCSTATS_CACHE_DIR")
		v.BindEnv("reportsdir", "BRCSTATS_REPORTS_DIR")
		v.BindEnv("logsdir", "BRCSTATS_LOGS_DIR")
		v.BindEnv("logsmaxsizeinmb", "BRCSTATS_LOGS_MAX_SIZE_IN_MB")
		v.BindEnv("logsmaxbackups", "BRCSTATS_LOGS_MAX_BACKUPS")
		v.BindEnv("logsmaxageindays", "BRCSTATS_LOGS_MAX_AGE_IN_DAYS")
		v.BindEnv("plausiblebaseurl", "BRCSTATS_PLAUSIBLE_BASE_URL")
		v.BindEnv("plausibleapikey", "PLAUSIBLE_API_KEY")
		v.BindEnv("plausiblesiteid", "PLAUSIBLE_SITE_ID")
		v.BindEnv("eutilsbaseurl", "BRCSTATS_EUTILS_BASE_URL")
		v.BindEnv("datasetsbaseurl", "BRCSTATS_DATASETS_BASE_URL")
		v.BindEnv("lookupintervalms", "BRCSTATS_LOOKUP_INTERVAL_MS")
		v.BindEnv("serveport", "BRCSTATS_SERVE_PORT")
		v.BindEnv("communitytablepath", "BRCSTATS_COMMUNITY_TABLE")

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}
	})
	return cfg
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	validLevels := map[LogLevel]bool{
		LogLevelDebug: true,
		LogLevelInfo:  true,
		LogLevelWarn:  true,
		LogLevelError: true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	if c.LookupIntervalMs < 0 {
		return fmt.Errorf("invalid lookup interval: %d", c.LookupIntervalMs)
	}

	return nil
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// BiasedAssemblies returns the biased assembly IDs as a lookup set.
func (c *Config) BiasedAssemblies() map[string]bool {
	set := make(map[string]bool, len(c.BiasedAssemblyIDs))
	for _, id := range c.BiasedAssemblyIDs {
		set[id] = true
	}
	return set
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
