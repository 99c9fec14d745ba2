package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/rethinkmon")
	}

	setDefaults(v)

	// Enable environment variable overrides
	v.SetEnvPrefix("RETHINKMON")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Cluster connection defaults
	v.SetDefault("rethinkdb.addresses", []string{"localhost:28015"})
	v.SetDefault("rethinkdb.username", "admin")
	v.SetDefault("rethinkdb.connect_timeout", "5s")
	v.SetDefault("rethinkdb.query_timeout", "10s")

	// Collector defaults
	v.SetDefault("collector.interval", "15s")
	v.SetDefault("collector.jitter", "0s")
	v.SetDefault("collector.timeout", "10s")
	v.SetDefault("collector.topology_policy", TopologySkip)
	v.SetDefault("collector.parallelism", 1)

	// Emitter defaults
	v.SetDefault("emitter.type", "nats")
	v.SetDefault("emitter.url", "nats://localhost:4222")
	v.SetDefault("emitter.subject", "rethinkmon.metrics")
	v.SetDefault("emitter.compress", false)

	// Registry defaults
	v.SetDefault("registry.enabled", false)
	v.SetDefault("registry.endpoints", []string{"http://localhost:2379"})
	v.SetDefault("registry.dial_timeout", "5s")
	v.SetDefault("registry.lease_ttl", 10)
	v.SetDefault("registry.cluster", "default")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 9882)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_path", "stdout")
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		RethinkDB: RethinkDBConfig{
			Addresses:      []string{"localhost:28015"},
			Username:       "admin",
			ConnectTimeout: 5 * time.Second,
			QueryTimeout:   10 * time.Second,
		},
		Collector: CollectorConfig{
			Interval:       15 * time.Second,
			Timeout:        10 * time.Second,
			TopologyPolicy: TopologySkip,
			Parallelism:    1,
		},
		Emitter: EmitterConfig{
			Type:    "nats",
			URL:     "nats://localhost:4222",
			Subject: "rethinkmon.metrics",
		},
		Registry: RegistryConfig{
			Enabled:     false,
			Endpoints:   []string{"http://localhost:2379"},
			DialTimeout: 5 * time.Second,
			LeaseTTL:    10,
			Cluster:     "default",
		},
		Server: ServerConfig{
			Host:     "0.0.0.0",
			HTTPPort: 9882,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}
