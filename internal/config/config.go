// Package config provides configuration loading and structs for the link
// recommendation service.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Datasets  DatasetsConfig  `yaml:"datasets"`
	MediaWiki MediaWikiConfig `yaml:"mediawiki"`
	Linker    LinkerConfig    `yaml:"linker"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatasetsConfig holds the lookup dataset backend settings. Backend is
// "sqlite" or "mysql"; DataDir holds the per-wiki SQLite files and model
// binaries.
type DatasetsConfig struct {
	Backend string      `yaml:"backend"`
	DataDir string      `yaml:"data_dir"`
	MySQL   MySQLConfig `yaml:"mysql"`
}

// MySQLConfig holds connection settings for the MySQL dataset backend.
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// DSN builds a go-sql-driver DSN for the configured server.
func (m MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		m.User, m.Password, m.Host, m.Port, m.Database)
}

// MediaWikiConfig holds the endpoints used to fetch article wikitext.
// ProxyAPIBaseURL takes precedence; it is how the service reaches MediaWiki
// inside production clusters.
type MediaWikiConfig struct {
	APIBaseURL      string `yaml:"api_base_url"`
	ProxyAPIBaseURL string `yaml:"proxy_api_base_url"`
}

// LinkerConfig holds the recommendation engine tunables.
type LinkerConfig struct {
	Threshold            float64 `yaml:"threshold"`
	MaxRecommendations   int     `yaml:"max_recommendations"`
	ContextChars         int     `yaml:"context_chars"`
	TimeBudgetSeconds    int     `yaml:"time_budget_seconds"`
	MaxSectionsToExclude int     `yaml:"max_sections_to_exclude"`
}

// Load reads and parses the config file at path, expands paths, applies
// defaults, and applies environment overrides for deployment secrets.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	applyEnv(&cfg)

	configDir := filepath.Dir(path)
	cfg.Datasets.DataDir = expandPath(cfg.Datasets.DataDir, configDir)

	return &cfg, nil
}

// applyEnv overrides settings that deployments inject via the environment
// rather than the config file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("DB_BACKEND"); v != "" {
		cfg.Datasets.Backend = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Datasets.MySQL.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Datasets.MySQL.Password = v
	}
	if v := os.Getenv("MEDIAWIKI_API_BASE_URL"); v != "" {
		cfg.MediaWiki.APIBaseURL = v
	}
	if v := os.Getenv("MEDIAWIKI_PROXY_API_BASE_URL"); v != "" {
		cfg.MediaWiki.ProxyAPIBaseURL = v
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
