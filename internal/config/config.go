package config

import (
	"fmt"
	"time"
)

// Config represents the complete agent configuration
type Config struct {
	RethinkDB RethinkDBConfig `mapstructure:"rethinkdb"`
	Collector CollectorConfig `mapstructure:"collector"`
	Emitter   EmitterConfig   `mapstructure:"emitter"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// RethinkDBConfig represents the connection to the monitored cluster
type RethinkDBConfig struct {
	Addresses      []string      `mapstructure:"addresses"`       // host:port pairs, any cluster member
	Username       string        `mapstructure:"username"`        // Driver user (defaults to admin)
	Password       string        `mapstructure:"password"`        // Driver password
	TLSCert        string        `mapstructure:"tls_cert"`        // Path to client certificate (optional)
	TLSKey         string        `mapstructure:"tls_key"`         // Path to client key (optional)
	TLSCA          string        `mapstructure:"tls_ca"`          // Path to CA bundle (optional)
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"` // Session establishment timeout
	QueryTimeout   time.Duration `mapstructure:"query_timeout"`   // Per system-table fetch timeout
}

// CollectorConfig represents collection cycle behavior
type CollectorConfig struct {
	Interval time.Duration `mapstructure:"interval"` // Time between collection cycles
	Jitter   time.Duration `mapstructure:"jitter"`   // Random start delay added to each cycle
	Timeout  time.Duration `mapstructure:"timeout"`  // Budget for one whole cycle

	// TopologyPolicy decides what happens when table_status references a
	// table with no table_config row: "skip" drops that table's replica
	// rows with a warning, "fail" aborts the replica family for the cycle.
	TopologyPolicy string `mapstructure:"topology_policy"`

	// Parallelism bounds concurrent replica enrichment. 1 means sequential.
	Parallelism int `mapstructure:"parallelism"`

	// Tags are appended to every emitted metric (e.g. "env:prod").
	Tags []string `mapstructure:"tags"`
}

// EmitterConfig represents the metric sink configuration
type EmitterConfig struct {
	Type     string `mapstructure:"type"`     // Sink type: nats (default), redis, kafka, memory
	URL      string `mapstructure:"url"`      // Sink server URL (e.g. nats://localhost:4222)
	Subject  string `mapstructure:"subject"`  // Subject/stream/topic prefix (default: "rethinkmon.metrics")
	Compress bool   `mapstructure:"compress"` // Snappy-compress batch payloads
	Username string `mapstructure:"username"` // Optional authentication
	Password string `mapstructure:"password"` // Optional authentication

	// Redis-specific options
	RedisDB     int    `mapstructure:"redis_db"`     // Redis database number (default: 0)
	RedisStream string `mapstructure:"redis_stream"` // Redis stream name (defaults to Subject)

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"` // Kafka broker addresses
}

// RegistryConfig represents optional HA coordination via etcd.
// When enabled, only the elected leader among agent instances emits metrics.
type RegistryConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	LeaseTTL    int           `mapstructure:"lease_ttl"` // Seconds
	Cluster     string        `mapstructure:"cluster"`   // Election scope, one leader per monitored cluster
}

// ServerConfig represents the status HTTP server configuration
type ServerConfig struct {
	Host     string `mapstructure:"host"`      // Bind address (e.g. 0.0.0.0 for all interfaces)
	HTTPPort int    `mapstructure:"http_port"` // HTTP server port
}

// AuthConfig represents authentication for the status API
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
}

// Topology policies accepted by CollectorConfig.TopologyPolicy.
const (
	TopologySkip = "skip"
	TopologyFail = "fail"
)

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.RethinkDB.Validate(); err != nil {
		return fmt.Errorf("rethinkdb config: %w", err)
	}

	if err := c.Collector.Validate(); err != nil {
		return fmt.Errorf("collector config: %w", err)
	}

	if err := c.Emitter.Validate(); err != nil {
		return fmt.Errorf("emitter config: %w", err)
	}

	if err := c.Registry.Validate(); err != nil {
		return fmt.Errorf("registry config: %w", err)
	}

	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates cluster connection configuration
func (c *RethinkDBConfig) Validate() error {
	if len(c.Addresses) == 0 {
		return fmt.Errorf("rethinkdb.addresses is required")
	}

	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("rethinkdb.connect_timeout must be positive")
	}

	if c.QueryTimeout <= 0 {
		return fmt.Errorf("rethinkdb.query_timeout must be positive")
	}

	return nil
}

// Validate validates collector configuration
func (c *CollectorConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("collector.interval must be positive")
	}

	if c.Jitter < 0 {
		return fmt.Errorf("collector.jitter cannot be negative")
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("collector.timeout must be positive")
	}

	if c.Timeout > c.Interval {
		return fmt.Errorf("collector.timeout cannot exceed collector.interval")
	}

	if c.TopologyPolicy != TopologySkip && c.TopologyPolicy != TopologyFail {
		return fmt.Errorf("collector.topology_policy must be '%s' or '%s'", TopologySkip, TopologyFail)
	}

	if c.Parallelism < 1 {
		return fmt.Errorf("collector.parallelism must be at least 1")
	}

	return nil
}

// Validate validates emitter configuration
func (c *EmitterConfig) Validate() error {
	switch c.Type {
	case "", "nats", "redis", "kafka", "memory":
	default:
		return fmt.Errorf("emitter.type must be one of nats, redis, kafka, memory")
	}

	if c.Type == "kafka" && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("emitter.kafka_brokers is required for the kafka sink")
	}

	return nil
}

// Validate validates registry configuration
func (c *RegistryConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	if len(c.Endpoints) == 0 {
		return fmt.Errorf("registry.endpoints is required when registry is enabled")
	}

	if c.DialTimeout <= 0 {
		return fmt.Errorf("registry.dial_timeout must be positive")
	}

	if c.LeaseTTL < 1 {
		return fmt.Errorf("registry.lease_ttl must be at least 1 second")
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Level] {
		return fmt.Errorf("invalid logging.level: %s", c.Level)
	}

	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
