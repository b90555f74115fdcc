package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	NodeID          string        `yaml:"node_id"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ClusterConfig holds the static replication topology. The peer list
// is fixed for the process lifetime and must be identical on every
// node; NodeID must appear in Peers.
type ClusterConfig struct {
	Peers             []string      `yaml:"peers"`
	ReplicationFactor int           `yaml:"replication_factor"`
	WriteQuorum       int           `yaml:"write_quorum"`
	ReadQuorum        int           `yaml:"read_quorum"`
	VirtualNodes      int           `yaml:"virtual_nodes"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
}

// StorageConfig holds the durability engine configuration
type StorageConfig struct {
	DataDir          string        `yaml:"data_dir"`
	SyncWrites       bool          `yaml:"sync_writes"`
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
}

// RepairConfig bounds the background read-repair workers
type RepairConfig struct {
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`
}

// MetricsConfig holds metrics server configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Config represents the complete node configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Cluster ClusterConfig `yaml:"cluster"`
	Storage StorageConfig `yaml:"storage"`
	Repair  RepairConfig  `yaml:"repair"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// Load loads configuration from a YAML file plus environment variable
// overrides. The file is optional when the environment provides the
// required values.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnvironmentOverrides(cfg)
	setDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvironmentOverrides applies environment variable overrides,
// which take precedence over file values
func applyEnvironmentOverrides(cfg *Config) {
	if nodeID := os.Getenv("NODE_ID"); nodeID != "" {
		cfg.Server.NodeID = nodeID
	}
	if host := os.Getenv("HTTP_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("HTTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if peers := os.Getenv("PEERS"); peers != "" {
		cfg.Cluster.Peers = splitPeers(peers)
	}
	if rf := os.Getenv("REPLICATION_FACTOR"); rf != "" {
		if n, err := strconv.Atoi(rf); err == nil {
			cfg.Cluster.ReplicationFactor = n
		}
	}
	if w := os.Getenv("WRITE_QUORUM"); w != "" {
		if n, err := strconv.Atoi(w); err == nil {
			cfg.Cluster.WriteQuorum = n
		}
	}
	if r := os.Getenv("READ_QUORUM"); r != "" {
		if n, err := strconv.Atoi(r); err == nil {
			cfg.Cluster.ReadQuorum = n
		}
	}
	if dir := os.Getenv("DATA_DIR"); dir != "" {
		cfg.Storage.DataDir = dir
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

func splitPeers(s string) []string {
	parts := strings.Split(s, ",")
	peers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			peers = append(peers, p)
		}
	}
	return peers
}

// setDefaults sets default values for unspecified configuration
func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 10 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}

	if cfg.Cluster.ReplicationFactor == 0 {
		cfg.Cluster.ReplicationFactor = 3
	}
	if cfg.Cluster.WriteQuorum == 0 {
		cfg.Cluster.WriteQuorum = 2
	}
	if cfg.Cluster.ReadQuorum == 0 {
		cfg.Cluster.ReadQuorum = 2
	}
	if cfg.Cluster.VirtualNodes == 0 {
		cfg.Cluster.VirtualNodes = 5
	}
	if cfg.Cluster.RequestTimeout == 0 {
		cfg.Cluster.RequestTimeout = 800 * time.Millisecond
	}

	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "./data"
	}
	if cfg.Storage.SnapshotInterval == 0 {
		cfg.Storage.SnapshotInterval = 30 * time.Second
	}

	if cfg.Repair.Workers == 0 {
		cfg.Repair.Workers = 4
	}
	if cfg.Repair.QueueSize == 0 {
		cfg.Repair.QueueSize = 128
	}

	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9100
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.NodeID == "" {
		return fmt.Errorf("server.node_id is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if len(c.Cluster.Peers) == 0 {
		return fmt.Errorf("cluster.peers must not be empty")
	}

	found := false
	for _, p := range c.Cluster.Peers {
		if p == c.Server.NodeID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("cluster.peers must contain this node's ID %q", c.Server.NodeID)
	}

	if c.Cluster.WriteQuorum < 1 || c.Cluster.ReadQuorum < 1 {
		return fmt.Errorf("cluster quorums must be at least 1")
	}
	if c.Cluster.WriteQuorum > c.Cluster.ReplicationFactor {
		return fmt.Errorf("cluster.write_quorum cannot exceed cluster.replication_factor")
	}
	if c.Cluster.ReadQuorum > c.Cluster.ReplicationFactor {
		return fmt.Errorf("cluster.read_quorum cannot exceed cluster.replication_factor")
	}
	if c.Cluster.VirtualNodes < 1 {
		return fmt.Errorf("cluster.virtual_nodes must be at least 1")
	}

	return nil
}
