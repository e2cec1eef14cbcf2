package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the funnel-probe service.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Agent   AgentConfig   `yaml:"agent"`
	Runner  RunnerConfig  `yaml:"runner"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
	Rules   RulesConfig   `yaml:"rules"`
}

// ServerConfig controls the HTTP API and metrics listeners.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// AgentConfig configures access to the external browser-automation provider.
type AgentConfig struct {
	BaseURL     string        `yaml:"baseURL"`
	APIKey      string        `yaml:"apiKey"`
	Timeout     time.Duration `yaml:"timeout"`
	SettleDelay time.Duration `yaml:"settleDelay"`
}

// RunnerConfig bounds concurrent funnel runs and their lifetime.
type RunnerConfig struct {
	MaxConcurrent int64         `yaml:"maxConcurrent"`
	RunTimeout    time.Duration `yaml:"runTimeout"`
}

// StoreConfig selects and configures the run registry backend.
type StoreConfig struct {
	Backend    string        `yaml:"backend"` // memory | valkey | sqlite
	SQLitePath string        `yaml:"sqlitePath"`
	ResultTTL  time.Duration `yaml:"resultTTL"`
	Valkey     ValkeyConfig  `yaml:"valkey"`
}

// ValkeyConfig holds connection parameters for a Valkey/Redis-compatible server.
type ValkeyConfig struct {
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// RulesConfig controls extra classifier rule-pack loading.
type RulesConfig struct {
	Path string `yaml:"path"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("FUNNEL_PROBE_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Agent: AgentConfig{
			Timeout:     90 * time.Second,
			SettleDelay: 1500 * time.Millisecond,
		},
		Runner: RunnerConfig{
			MaxConcurrent: 4,
			RunTimeout:    5 * time.Minute,
		},
		Store: StoreConfig{
			Backend:   "memory",
			ResultTTL: 24 * time.Hour,
			Valkey: ValkeyConfig{
				DialTimeout:  2 * time.Second,
				ReadTimeout:  500 * time.Millisecond,
				WriteTimeout: 500 * time.Millisecond,
				MaxRetries:   2,
			},
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Rules:   RulesConfig{Path: ""},
	}
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case "", "memory", "valkey", "sqlite":
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == "valkey" && c.Store.Valkey.Addr == "" {
		return fmt.Errorf("store backend valkey requires valkey.addr")
	}
	if c.Store.Backend == "sqlite" && c.Store.SQLitePath == "" {
		return fmt.Errorf("store backend sqlite requires sqlitePath")
	}
	if c.Runner.MaxConcurrent <= 0 {
		return fmt.Errorf("runner maxConcurrent must be positive")
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FUNNEL_PROBE_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("FUNNEL_PROBE_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("FUNNEL_PROBE_AGENT_BASE_URL"); v != "" {
		cfg.Agent.BaseURL = v
	}
	if v := os.Getenv("FUNNEL_PROBE_AGENT_API_KEY"); v != "" {
		cfg.Agent.APIKey = v
	}
	if v := os.Getenv("FUNNEL_PROBE_AGENT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Agent.Timeout = d
		}
	}
	if v := os.Getenv("FUNNEL_PROBE_SETTLE_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Agent.SettleDelay = d
		}
	}
	if v := os.Getenv("FUNNEL_PROBE_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Runner.MaxConcurrent = n
		}
	}
	if v := os.Getenv("FUNNEL_PROBE_RUN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Runner.RunTimeout = d
		}
	}
	if v := os.Getenv("FUNNEL_PROBE_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("FUNNEL_PROBE_SQLITE_PATH"); v != "" {
		cfg.Store.SQLitePath = v
	}
	if v := os.Getenv("FUNNEL_PROBE_RESULT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Store.ResultTTL = d
		}
	}
	if v := os.Getenv("FUNNEL_PROBE_VALKEY_ADDR"); v != "" {
		cfg.Store.Valkey.Addr = v
	}
	if v := os.Getenv("FUNNEL_PROBE_VALKEY_USERNAME"); v != "" {
		cfg.Store.Valkey.Username = v
	}
	if v := os.Getenv("FUNNEL_PROBE_VALKEY_PASSWORD"); v != "" {
		cfg.Store.Valkey.Password = v
	}
	if v := os.Getenv("FUNNEL_PROBE_VALKEY_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Store.Valkey.DB = db
		}
	}
	if v := os.Getenv("FUNNEL_PROBE_VALKEY_TLS"); strings.EqualFold(v, "true") || v == "1" {
		cfg.Store.Valkey.TLS = true
	}
	if v := os.Getenv("FUNNEL_PROBE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FUNNEL_PROBE_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("FUNNEL_PROBE_RULES_PATH"); v != "" {
		cfg.Rules.Path = v
	}
}
