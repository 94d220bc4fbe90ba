package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr  string
	PostgresDSN string
	RedisAddr   string
	MongoURI    string
	MongoDB     string
	SecretKey   string
	LogLevel    string

	MaxReplyDepth        int
	MaxRepliesPerComment int
	NotificationsKeep    int

	SeedFakeData bool
}

// Load reads .env (if any) into the environment and resolves the config from it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: failed reading .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		ListenAddr:           v.GetString("LISTEN_ADDR"),
		PostgresDSN:          v.GetString("POSTGRES_DSN"),
		RedisAddr:            v.GetString("REDIS_ADDR"),
		MongoURI:             v.GetString("MONGODB_URI"),
		MongoDB:              v.GetString("MONGODB_DB"),
		SecretKey:            v.GetString("SECRET_KEY"),
		LogLevel:             v.GetString("LOG_LEVEL"),
		MaxReplyDepth:        v.GetInt("MAX_REPLY_DEPTH"),
		MaxRepliesPerComment: v.GetInt("MAX_REPLIES_PER_COMMENT"),
		NotificationsKeep:    v.GetInt("NOTIFICATIONS_KEEP"),
		SeedFakeData:         v.GetBool("SEED_FAKE_DATA"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("POSTGRES_DSN", "postgresql://localhost/forum?sslmode=disable")
	v.SetDefault("REDIS_ADDR", "redis://localhost:6379")
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DB", "forum")
	v.SetDefault("SECRET_KEY", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REPLY_DEPTH", 64)
	v.SetDefault("MAX_REPLIES_PER_COMMENT", 2000)
	v.SetDefault("NOTIFICATIONS_KEEP", 200)
	v.SetDefault("SEED_FAKE_DATA", false)
}

func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("SECRET_KEY is required")
	}
	if c.PostgresDSN == "" || c.MongoURI == "" || c.RedisAddr == "" {
		return errors.New("POSTGRES_DSN, MONGODB_URI and REDIS_ADDR must be set")
	}
	if c.MaxReplyDepth <= 0 {
		return fmt.Errorf("MAX_REPLY_DEPTH must be positive, got %d", c.MaxReplyDepth)
	}
	if c.MaxRepliesPerComment <= 0 {
		return fmt.Errorf("MAX_REPLIES_PER_COMMENT must be positive, got %d", c.MaxRepliesPerComment)
	}
	if c.NotificationsKeep <= 0 {
		return fmt.Errorf("NOTIFICATIONS_KEEP must be positive, got %d", c.NotificationsKeep)
	}
	return nil
}
