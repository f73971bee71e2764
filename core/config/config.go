package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Server   ServerConfig
		Database DatabaseConfig
		Redis    RedisConfig
		JWT      JWTConfig
		S3       S3Config
		Plan     PlanConfig
	}

	ServerConfig struct {
		Port     int
		LogLevel string
	}

	DatabaseConfig struct {
		Host     string
		Port     int
		User     string
		Password string
		DBName   string
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
	}

	JWTConfig struct {
		Secret string
		TTL    time.Duration
	}

	S3Config struct {
		Bucket          string
		Region          string
		AccessKeyID     string
		SecretAccessKey string
		Endpoint        string
	}

	PlanConfig struct {
		// MinParticipants is the minimum plan size (owner + invitees) required
		// before ownership can be delegated. Product policy, not structural.
		MinParticipants int
		SweepInterval   time.Duration
	}
)

var instance *Config

// Get returns the loaded configuration. Load must be called first.
func Get() *Config {
	return instance
}

// Load reads configuration from the environment, with an optional .env file.
func Load() (*Config, error) {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 7070)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "tablepick")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("jwt.secret", "dev-secret-change-me")
	v.SetDefault("jwt.ttl", "24h")

	v.SetDefault("s3.bucket", "tablepick-photos")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.endpoint", "")

	v.SetDefault("plan.min_participants", 3)
	v.SetDefault("plan.sweep_interval", "1m")

	cfg := &Config{
		Server: ServerConfig{
			Port:     v.GetInt("server.port"),
			LogLevel: v.GetString("server.log_level"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("database.host"),
			Port:     v.GetInt("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			DBName:   v.GetString("database.dbname"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt.secret"),
			TTL:    v.GetDuration("jwt.ttl"),
		},
		S3: S3Config{
			Bucket:          v.GetString("s3.bucket"),
			Region:          v.GetString("s3.region"),
			AccessKeyID:     v.GetString("s3.access_key_id"),
			SecretAccessKey: v.GetString("s3.secret_access_key"),
			Endpoint:        v.GetString("s3.endpoint"),
		},
		Plan: PlanConfig{
			MinParticipants: v.GetInt("plan.min_participants"),
			SweepInterval:   v.GetDuration("plan.sweep_interval"),
		},
	}

	instance = cfg
	return cfg, nil
}
