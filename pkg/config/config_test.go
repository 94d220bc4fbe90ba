package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("MAX_REPLY_DEPTH", "10")
	t.Setenv("SEED_FAKE_DATA", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.SecretKey)
	assert.Equal(t, 10, cfg.MaxReplyDepth)
	assert.Equal(t, 2000, cfg.MaxRepliesPerComment)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.True(t, cfg.SeedFakeData)
}

func TestLoadWithoutSecret(t *testing.T) {
	t.Setenv("SECRET_KEY", "")
	_, err := Load()
	assert.ErrorContains(t, err, "SECRET_KEY")
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		PostgresDSN:          "postgresql://localhost/forum",
		RedisAddr:            "redis://localhost:6379",
		MongoURI:             "mongodb://localhost:27017",
		SecretKey:            "k",
		MaxReplyDepth:        64,
		MaxRepliesPerComment: 100,
		NotificationsKeep:    10,
	}
	assert.NoError(t, cfg.Validate())

	cfg.MaxReplyDepth = 0
	assert.Error(t, cfg.Validate())
}
