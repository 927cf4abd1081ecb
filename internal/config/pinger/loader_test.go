package pinger_config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "pinger.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, ModeICMP, cfg.Ping.Mode)
	assert.Equal(t, 2*time.Second, cfg.Ping.Timeout)
	assert.Equal(t, 50, cfg.Ping.MaxBatchSize)
	assert.Equal(t, time.Minute, cfg.Ping.Interval)
	assert.Equal(t, min(runtime.GOMAXPROCS(0), 4), cfg.Ping.ResolveWorkers())
	assert.Equal(t, "ipwatch-pinger", cfg.LoggerConfig().App)
}

func TestLoadFile(t *testing.T) {
	p := writeConfig(t, `
app:
  env: prod
storage:
  driver: memory
  seed_targets: ["10.0.0.1", "10.0.0.2"]
ping:
  mode: tcp
  tcp_port: 443
  workers: 8
  interval: 15s
kafka:
  enable: true
  brokers: ["kafka:9092"]
`)
	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.Storage.SeedTargets)
	assert.Equal(t, 443, cfg.Ping.TCPPort)
	assert.Equal(t, 8, cfg.Ping.ResolveWorkers())
	assert.Equal(t, 15*time.Second, cfg.Ping.Interval)
	assert.Equal(t, "prod", cfg.OTELConfig().Env)
	assert.Equal(t, "ipwatch.cycles.trigger", cfg.TriggerConsumerConfig().Topic)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PING_MODE", "tcp")
	t.Setenv("PING_MAX_BATCH_SIZE", "10")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ModeTCP, cfg.Ping.Mode)
	assert.Equal(t, 10, cfg.Ping.MaxBatchSize)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"driver":  "storage:\n  driver: mongo\n",
		"mode":    "ping:\n  mode: udp\n",
		"workers": "ping:\n  workers: many\n",
		"batch":   "ping:\n  max_batch_size: 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.ErrorIs(t, err, ErrConfig)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
