package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUniversalOptions(t *testing.T) {
	cfg := &Config{
		Host:                    "redis",
		Port:                    "6379",
		HASentinelPort:          "26379",
		HASentinelMasterName:    "mymaster",
		Password:                "secret",
		HASentinelSocketTimeout: 0.5,
	}

	t.Run("single node", func(t *testing.T) {
		options := universalOptions(cfg, 2)
		assert.Equal(t, []string{"redis:6379"}, options.Addrs)
		assert.Equal(t, 2, options.DB)
		assert.Empty(t, options.MasterName)
		assert.Empty(t, options.Password)
	})

	t.Run("sentinel with auth", func(t *testing.T) {
		ha := *cfg
		ha.HAMode = true
		ha.AuthRequired = true
		options := universalOptions(&ha, 1)
		assert.Equal(t, []string{"redis:26379"}, options.Addrs)
		assert.Equal(t, "mymaster", options.MasterName)
		assert.Equal(t, 500*time.Millisecond, options.ReadTimeout)
		assert.Equal(t, "secret", options.Password)
	})
}

func TestReadEnvironmentDefaults(t *testing.T) {
	t.Setenv("MDL_COMN_REDIS_HOST", "localhost")
	t.Setenv("MDL_COMN_REDIS_PORT", "6379")
	cfg, err := readEnvironment()
	assert.NoError(t, err)
	assert.Equal(t, 3, cfg.LockExpirationSeconds)
	assert.Equal(t, 20, cfg.LockRetries)
	assert.False(t, cfg.HAMode)
}
