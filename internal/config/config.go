package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort          = 2390
	defaultEnv           = "development"
	defaultDBHost        = "127.0.0.1"
	defaultDBPort        = 3306
	defaultDBUser        = "root"
	defaultDBPassword    = "password"
	defaultDBName        = "docspace"
	defaultRedisURL      = "redis://localhost:6379/0"
	defaultSessionTTL    = 8 * time.Hour
	defaultSweepInterval = 5 * time.Minute
	defaultIndexerHost   = "http://localhost:7700"
	defaultIndexPrefix   = "docspace"
	defaultBuildTimeout  = 5 * time.Minute
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int            `yaml:"port"`
	Env            string         `yaml:"env"` // "development" | "production"
	DSN            string         `yaml:"dsn"`
	Database       DatabaseConfig `yaml:"database"`
	RedisURL       string         `yaml:"redis_url"`
	JWTSecret      string         `yaml:"jwt_secret"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	Session        SessionConfig  `yaml:"session"`
	Indexer        IndexerConfig  `yaml:"indexer"`
	AI             AIConfig       `yaml:"ai"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type SessionConfig struct {
	TTLHours          int `yaml:"ttl_hours"`
	SweepIntervalMins int `yaml:"sweep_interval_minutes"`
}

// IndexerConfig points at the external search-index service (MeiliSearch API).
type IndexerConfig struct {
	Host                string `yaml:"host"`
	APIKey              string `yaml:"api_key"`
	IndexPrefix         string `yaml:"index_prefix"`
	BuildTimeoutSeconds int    `yaml:"build_timeout_seconds"`
}

// AIConfig configures the OpenAI-compatible provider used for grounded answers.
type AIConfig struct {
	Enable   bool   `yaml:"enable"`
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// Load reads and normalizes the YAML config file. A missing file yields a
// default development configuration.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && path == DefaultConfigPath:
		// fall through to defaults
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.normalize()
	return cfg, nil
}

func (c *AppConfig) normalize() {
	if c.Port <= 0 {
		c.Port = defaultPort
	}
	if strings.TrimSpace(c.Env) == "" {
		c.Env = defaultEnv
	}
	if c.DSN == "" {
		c.DSN = c.Database.buildDSN()
	}
	if strings.TrimSpace(c.RedisURL) == "" {
		c.RedisURL = defaultRedisURL
	}
	if strings.TrimSpace(c.Indexer.Host) == "" {
		c.Indexer.Host = defaultIndexerHost
	}
	if strings.TrimSpace(c.Indexer.IndexPrefix) == "" {
		c.Indexer.IndexPrefix = defaultIndexPrefix
	}
}

// IsDev reports whether the app runs in development mode.
func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, "development") || strings.EqualFold(c.Env, "dev")
}

// SessionTTL returns the configured session lifetime.
func (c *AppConfig) SessionTTL() time.Duration {
	if c.Session.TTLHours > 0 {
		return time.Duration(c.Session.TTLHours) * time.Hour
	}
	return defaultSessionTTL
}

// SweepInterval returns how often expired sessions are reclaimed.
func (c *AppConfig) SweepInterval() time.Duration {
	if c.Session.SweepIntervalMins > 0 {
		return time.Duration(c.Session.SweepIntervalMins) * time.Minute
	}
	return defaultSweepInterval
}

// BuildTimeout bounds a single external index build or teardown.
func (c *AppConfig) BuildTimeout() time.Duration {
	if c.Indexer.BuildTimeoutSeconds > 0 {
		return time.Duration(c.Indexer.BuildTimeoutSeconds) * time.Second
	}
	return defaultBuildTimeout
}

func (d DatabaseConfig) buildDSN() string {
	host := d.Host
	if host == "" {
		host = defaultDBHost
	}
	port := d.Port
	if port <= 0 {
		port = defaultDBPort
	}
	user := d.User
	if user == "" {
		user = defaultDBUser
	}
	password := d.Password
	if password == "" {
		password = defaultDBPassword
	}
	name := d.Name
	if name == "" {
		name = defaultDBName
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=%s",
		user, password, host, port, name, url.QueryEscape("Local"))
}
