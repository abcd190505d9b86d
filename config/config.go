package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"swarmcore/swarm"
)

type Config struct {
	mu sync.RWMutex `yaml:"-"`

	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Web       WebConfig       `yaml:"web"`
	Messaging MessagingConfig `yaml:"messaging"`
	Swarm     SwarmConfig     `yaml:"swarm"`
}

type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// RedisConfig points at the state mirror. An empty address disables it.
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type WebConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	SessionSecret string `yaml:"session_secret"`
}

// MessagingConfig defines the messaging backend.
type MessagingConfig struct {
	Backend             string        `yaml:"backend"` // "kafka", "mqtt" or "" (disabled)
	MQTT                MQTTConfig    `yaml:"mqtt"`
	Kafka               KafkaConfig   `yaml:"kafka"`
	CommandsTopic       string        `yaml:"commands_topic"`
	NotifyTopic         string        `yaml:"notify_topic"`
	OutboxDrainInterval time.Duration `yaml:"outbox_drain_interval"`
	StationID           string        `yaml:"station_id"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
}

// SwarmConfig holds the capacities and scheduling knobs of the dispatch core.
type SwarmConfig struct {
	MaxSwarmSize        int    `yaml:"max_swarm_size"`
	MaxLocations        int    `yaml:"max_locations"`
	MaxCommandsPerRobot int    `yaml:"max_commands_per_robot"`
	MaxGlobalCommands   int    `yaml:"max_global_commands"`
	MaxTasksPerLocation int    `yaml:"max_tasks_per_location"`
	QueueMode           string `yaml:"queue_mode"` // "per_robot" or "global"

	TickInterval        time.Duration `yaml:"tick_interval"`
	MaxCommandWaitTicks uint64        `yaml:"max_command_wait_ticks"` // 0 disables expiry
	Debug               bool          `yaml:"debug"`
}

func Defaults() *Config {
	limits := swarm.DefaultLimits()
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{Path: "swarmcore.db"},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "swarmcore",
				User:     "swarmcore",
				Password: "",
				SSLMode:  "disable",
			},
		},
		Redis: RedisConfig{
			Address: "localhost:6379",
		},
		Web: WebConfig{
			Host:          "0.0.0.0",
			Port:          8084,
			SessionSecret: "change-me-in-production",
		},
		Messaging: MessagingConfig{
			Backend: "kafka",
			MQTT: MQTTConfig{
				Broker: "localhost",
				Port:   1883,
			},
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				GroupID: "swarmcore",
			},
			CommandsTopic:       "swarm.commands",
			NotifyTopic:         "swarm.notifications",
			OutboxDrainInterval: 5 * time.Second,
			StationID:           "swarmcore",
		},
		Swarm: SwarmConfig{
			MaxSwarmSize:        limits.MaxSwarmSize,
			MaxLocations:        limits.MaxLocations,
			MaxCommandsPerRobot: limits.MaxCommandsPerRobot,
			MaxGlobalCommands:   limits.MaxGlobalCommands,
			MaxTasksPerLocation: limits.MaxTasksPerLocation,
			QueueMode:           "per_robot",
			TickInterval:        time.Second,
			MaxCommandWaitTicks: 300,
		},
	}
}

// Load reads a YAML config file. If the file doesn't exist, defaults are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the core cannot run with.
func (c *Config) Validate() error {
	s := c.Swarm
	if s.MaxSwarmSize <= 0 || s.MaxLocations <= 0 || s.MaxCommandsPerRobot <= 0 ||
		s.MaxGlobalCommands <= 0 || s.MaxTasksPerLocation <= 0 {
		return fmt.Errorf("swarm capacities must be positive")
	}
	if s.QueueMode != "per_robot" && s.QueueMode != "global" {
		return fmt.Errorf("unknown swarm queue_mode %q", s.QueueMode)
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Messaging.Backend {
	case "", "kafka", "mqtt":
	default:
		return fmt.Errorf("unknown messaging backend %q", c.Messaging.Backend)
	}
	return nil
}

// Limits returns the swarm capacities as the core expects them.
func (c *Config) Limits() swarm.Limits {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return swarm.Limits{
		MaxSwarmSize:        c.Swarm.MaxSwarmSize,
		MaxLocations:        c.Swarm.MaxLocations,
		MaxCommandsPerRobot: c.Swarm.MaxCommandsPerRobot,
		MaxGlobalCommands:   c.Swarm.MaxGlobalCommands,
		MaxTasksPerLocation: c.Swarm.MaxTasksPerLocation,
	}
}

func (c *Config) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Lock()   { c.mu.Lock() }
func (c *Config) Unlock() { c.mu.Unlock() }
