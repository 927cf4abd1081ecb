package pinger_config

import (
	"runtime"
	"time"

	"github.com/NordCoder/ipwatch/internal/obs"
	kafkax "github.com/NordCoder/ipwatch/internal/repository/kafka"
	pginfra "github.com/NordCoder/ipwatch/internal/repository/postgres"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	ModeICMP = "icmp"
	ModeTCP  = "tcp"

	WorkersAuto = "auto"
)

type App struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type Storage struct {
	Driver      string   `mapstructure:"driver"`
	SeedTargets []string `mapstructure:"seed_targets"`
}

type Ping struct {
	Mode         string        `mapstructure:"mode"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Workers      string        `mapstructure:"workers"`
	MaxBatchSize int           `mapstructure:"max_batch_size"`
	Interval     time.Duration `mapstructure:"interval"`
	Count        int           `mapstructure:"count"`
	Privileged   bool          `mapstructure:"privileged"`
	TCPPort      int           `mapstructure:"tcp_port"`
}

type Kafka struct {
	Enable           bool     `mapstructure:"enable"`
	Brokers          []string `mapstructure:"brokers"`
	TransitionsTopic string   `mapstructure:"transitions_topic"`
	TriggerTopic     string   `mapstructure:"trigger_topic"`
	GroupID          string   `mapstructure:"group_id"`
}

type Outbox struct {
	Workers       int           `mapstructure:"workers"`
	BatchSize     int           `mapstructure:"batch_size"`
	Wait          time.Duration `mapstructure:"wait"`
	InProgressTTL time.Duration `mapstructure:"in_progress_ttl"`
}

type Server struct {
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type Config struct {
	App     App            `mapstructure:"app"`
	Log     obs.LogConfig  `mapstructure:"log"`
	OTEL    obs.OTELConfig `mapstructure:"otel"`
	DB      pginfra.Config `mapstructure:"db"`
	Storage Storage        `mapstructure:"storage"`
	Ping    Ping           `mapstructure:"ping"`
	Kafka   Kafka          `mapstructure:"kafka"`
	Outbox  Outbox         `mapstructure:"outbox"`
	Server  Server         `mapstructure:"server"`
}

func (c *Config) LoggerConfig() obs.LogConfig {
	lc := c.Log
	lc.App, lc.Env, lc.Ver = c.App.Name, c.App.Env, c.App.Version
	return lc
}

func (c *Config) OTELConfig() *obs.OTELConfig {
	oc := c.OTEL
	oc.ServiceName, oc.Env, oc.Version = c.App.Name, c.App.Env, c.App.Version
	return &oc
}

func (c *Config) TriggerConsumerConfig() *kafkax.ConsumerConfig {
	return &kafkax.ConsumerConfig{
		Brokers: c.Kafka.Brokers,
		GroupID: c.Kafka.GroupID,
		Topic:   c.Kafka.TriggerTopic,
	}
}

// ResolveWorkers turns ping.workers into a count. "auto" means
// min(GOMAXPROCS, 4).
func (p Ping) ResolveWorkers() int {
	n, err := parseWorkers(p.Workers)
	if err != nil || n == 0 {
		return min(runtime.GOMAXPROCS(0), 4)
	}
	return n
}
