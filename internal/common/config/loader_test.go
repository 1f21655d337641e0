package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	path := writeConfig(t, "app:\n  name: franchise-service\n")

	cfg, err := LoadFromFile(path)

	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, 300, cfg.Store.Cache.TTLSeconds)
	assert.Equal(t, "franchises", cfg.Database.Elasticsearch.Index)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "franchise-service", cfg.Observability.ServiceName)
	assert.False(t, cfg.Camunda.Enabled)
}

func TestLoadFromFile_PostgresDriver(t *testing.T) {
	path := writeConfig(t, `
store:
  driver: postgres
database:
  postgres:
    host: localhost
    port: 5433
    database: franchises
    user: app
    password: secret
`)

	cfg, err := LoadFromFile(path)

	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "host=localhost port=5433 user=app password=secret dbname=franchises sslmode=disable",
		cfg.Database.Postgres.GetDSN())
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	t.Setenv("HTTP_ADDRESS", ":9090")
	t.Setenv("STORE_CACHE_TTL_SECONDS", "60")
	t.Setenv("FRANCHISE_SNS_TOPIC", "arn:aws:sns:us-east-1:123456789012:franchise-events")

	path := writeConfig(t, `
events:
  sns:
    enabled: true
    region: us-east-1
    topic_arn: ${FRANCHISE_SNS_TOPIC}
`)

	cfg, err := LoadFromFile(path)

	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Address)
	assert.Equal(t, 60, cfg.Store.Cache.TTLSeconds)
	assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:franchise-events", cfg.Events.SNS.TopicARN)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown driver",
			content: "store:\n  driver: mongo\n",
			wantErr: "store.driver",
		},
		{
			name:    "postgres without host",
			content: "store:\n  driver: postgres\n",
			wantErr: "database.postgres.host",
		},
		{
			name:    "elasticsearch without addresses",
			content: "store:\n  driver: elasticsearch\n",
			wantErr: "database.elasticsearch.addresses",
		},
		{
			name:    "cache without redis",
			content: "store:\n  cache:\n    enabled: true\n",
			wantErr: "database.redis.address",
		},
		{
			name:    "camunda without broker",
			content: "camunda:\n  enabled: true\n",
			wantErr: "camunda.broker_address",
		},
		{
			name:    "sns without topic",
			content: "events:\n  sns:\n    enabled: true\n    region: eu-west-1\n",
			wantErr: "events.sns.topic_arn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestCacheConfig_TTL(t *testing.T) {
	assert.Equal(t, "1m30s", CacheConfig{TTLSeconds: 90}.TTL().String())
}
