package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, 11, cfg.Retry.MaxAttempts)
	assert.True(t, cfg.Jembi.InsecureSkipVerify)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
admin_addr: ":9090"
admin_token: from-file
postgres:
  dsn: postgres://hub@db/hub
kafka:
  brokers: [k1:9092, k2:9092]
  topic: hub.tasks
services:
  identity_store:
    url: http://identity
    token: id-token
    timeout: 3s
jembi:
  base_url: https://jembi
  insecure_skip_verify: false
  requests_per_second: 5
retry:
  max_attempts: 4
  base_delay: 250ms
stage_marker_ttl: 48h
task_max_attempts: 9
`)
	t.Setenv("HUB_ADMIN_TOKEN", "from-env")
	t.Setenv("KAFKA_BROKERS", "e1:9092, e2:9092,")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.AdminAddr)
	assert.Equal(t, "from-env", cfg.AdminToken)
	assert.Equal(t, "postgres://hub@db/hub", cfg.Postgres.DSN)
	assert.Equal(t, []string{"e1:9092", "e2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "hub.tasks", cfg.Kafka.Topic)
	assert.Equal(t, ServiceConfig{URL: "http://identity", Token: "id-token", Timeout: 3 * time.Second}, cfg.IdentityStore)
	assert.False(t, cfg.Jembi.InsecureSkipVerify)
	assert.Equal(t, 5.0, cfg.Jembi.RequestsPerSecond)
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 48*time.Hour, cfg.StageMarkerTTL)
	assert.Equal(t, 9, cfg.TaskMaxAttempts)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "bad duration", body: "retry:\n  base_delay: soon\n"},
		{name: "bad yaml", body: "kafka: [\n"},
		{name: "bad bool env", env: map[string]string{"JEMBI_INSECURE_SKIP_VERIFY": "maybe"}},
		{name: "bad attempts env", env: map[string]string{"SUBMISSION_MAX_ATTEMPTS": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.body != "" {
				path = writeConfig(t, tt.body)
			}
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "read config file")
}
