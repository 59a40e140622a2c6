package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: "9090"
database:
  driver: sqlite
  path: /tmp/blog.db
redis:
  enabled: false
jwt:
  secret: "0123456789abcdef0123456789abcdef"
`

func readYAML(t *testing.T, body string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(body)))
	return v
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(readYAML(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, int64(24*30), cfg.JWT.Expire)
	assert.Equal(t, "token", cfg.JWT.CookieName)
	assert.Equal(t, int64(5), cfg.OSS.MaxSizeMB)
	assert.False(t, cfg.Redis.Enabled)
}

func TestValidate(t *testing.T) {
	valid := Config{
		JWT:      JWTConfig{Secret: strings.Repeat("s", 32), Expire: 1},
		Database: DatabaseConfig{Driver: "postgres", Host: "db", User: "blog", DBName: "blog"},
	}
	require.NoError(t, valid.Validate())

	short := valid
	short.JWT.Secret = "short"
	assert.Error(t, short.Validate())

	noPath := valid
	noPath.Database = DatabaseConfig{Driver: "sqlite"}
	assert.Error(t, noPath.Validate())

	unknown := valid
	unknown.Database.Driver = "mongo"
	assert.Error(t, unknown.Validate())

	redis := valid
	redis.Redis = RedisConfig{Enabled: true}
	assert.Error(t, redis.Validate())
}

func TestDatabaseURL(t *testing.T) {
	d := DatabaseConfig{Host: "localhost", User: "blog", Password: "pw", DBName: "cms", Port: "5432", SSLMode: "disable"}
	assert.Equal(t, "postgres://blog:pw@localhost:5432/cms?sslmode=disable", d.URL())
	assert.Contains(t, d.DSN(), "dbname=cms")
}
