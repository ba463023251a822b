package config

import (
	"os"
	"testing"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Service ServiceConfig
	Db      DatabaseConfig
	Redis   RedisConfig
	Mongo   MongoConfig
	Jwt     JWTConfig
}

// unsetEnv removes keys for the duration of the test
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestReadEnv_Defaults(t *testing.T) {
	unsetEnv(t, "PERSISTENCE_TYPE", "TREE_PATH", "ATTEMPT_TTL", "REDIS_URL", "IDM_PG_PORT", "BOOTSTRAP_USERS")

	var cfg testConfig
	require.NoError(t, cleanenv.ReadEnv(&cfg))

	assert.Equal(t, PersistenceMemory, cfg.Service.Persistence)
	assert.Equal(t, "config/tree.yaml", cfg.Service.TreePath)
	assert.Equal(t, 5*time.Minute, cfg.Redis.AttemptTTL)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, uint16(5432), cfg.Db.Port)
	assert.Empty(t, cfg.Service.BootstrapUsers)
}

func TestReadEnv_Overrides(t *testing.T) {
	t.Setenv("PERSISTENCE_TYPE", "postgres")
	t.Setenv("ATTEMPT_TTL", "90s")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("BOOTSTRAP_USERS", "alice,bob")

	var cfg testConfig
	require.NoError(t, cleanenv.ReadEnv(&cfg))

	assert.Equal(t, PersistencePostgres, cfg.Service.Persistence)
	assert.Equal(t, 90*time.Second, cfg.Redis.AttemptTTL)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, []string{"alice", "bob"}, cfg.Service.BootstrapUsers)
}

func TestServiceConfig_Validate(t *testing.T) {
	valid := ServiceConfig{Persistence: "file", DataDir: "/tmp/x", TreePath: "tree.yaml", LogLevel: "info"}

	tests := []struct {
		name    string
		mutate  func(*ServiceConfig)
		wantErr []string
	}{
		{name: "valid", mutate: func(*ServiceConfig) {}},
		{name: "unknown persistence", mutate: func(c *ServiceConfig) { c.Persistence = "sqlite" }, wantErr: []string{"PERSISTENCE_TYPE"}},
		{name: "file without data dir", mutate: func(c *ServiceConfig) { c.DataDir = "" }, wantErr: []string{"DATA_DIR"}},
		{name: "missing tree and bad level", mutate: func(c *ServiceConfig) {
			c.TreePath = ""
			c.LogLevel = "trace"
		}, wantErr: []string{"TREE_PATH", "LOG_LEVEL"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			errs := cfg.Validate()
			fields := make([]string, 0, len(errs))
			for _, e := range errs {
				fields = append(fields, e.Field)
			}
			assert.ElementsMatch(t, tt.wantErr, fields)
		})
	}
}

func TestRedisConfig_Validate(t *testing.T) {
	assert.Empty(t, RedisConfig{AttemptTTL: time.Minute}.Validate())
	assert.Empty(t, RedisConfig{URL: "redis://cache:6379", AttemptTTL: time.Minute}.Validate())

	errs := RedisConfig{URL: "localhost", AttemptTTL: 0}.Validate()
	require.Len(t, errs, 2)
	assert.Equal(t, "ATTEMPT_TTL", errs[0].Field)
	assert.Equal(t, "REDIS_URL", errs[1].Field)
}

func TestJWTConfig_Validate(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	assert.Empty(t, JWTConfig{Secret: "short"}.Validate())
	assert.Len(t, JWTConfig{}.Validate(), 1)

	t.Setenv("APP_ENV", "production")
	assert.Len(t, JWTConfig{Secret: "short"}.Validate(), 1)
	assert.Empty(t, JWTConfig{Secret: "0123456789abcdef0123456789abcdef"}.Validate())
}

func TestDatabaseConfig_ToDatabaseURL(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5433, Database: "devices", User: "idm", Password: "p@ss", Schema: "idm"}
	assert.Equal(t, "postgres://idm:p%40ss@db:5433/devices?sslmode=disable&search_path=idm,public", d.ToDatabaseURL())
	assert.Empty(t, d.Validate())

	d.Port = 0
	assert.Len(t, d.Validate(), 1)
}

func TestValidate_CombinesValidators(t *testing.T) {
	err := Validate(
		ServiceConfig{Persistence: "memory", TreePath: "t.yaml", LogLevel: "info"}.Validate,
		MongoConfig{}.Validate,
	)
	require.Error(t, err)

	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Len(t, errs, 2)
	assert.Contains(t, err.Error(), "configuration validation failed")

	assert.NoError(t, Validate(MongoConfig{URI: "mongodb://localhost:27017", Database: "d"}.Validate))
}

func TestRateLimitConfig_Validate(t *testing.T) {
	cfg := RateLimitConfig{Enabled: true, AuthBurst: 5, AuthPerMinute: 10, DeviceBurst: 5, DevicePerMinute: 10, BucketTTL: time.Hour}
	assert.Empty(t, cfg.Validate())

	cfg.AuthPerMinute = 0
	cfg.BucketTTL = 0
	assert.Len(t, cfg.Validate(), 2)

	cfg.Enabled = false
	assert.Empty(t, cfg.Validate())
}
