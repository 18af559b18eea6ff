package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
}

type RabbitMQConfig struct {
	Host     string
	Port     string
	User     string
	Password string
}

type Config struct {
	HTTPPort int
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig

	// JWTSecret signs bearer tokens. The default is for local use only.
	JWTSecret string

	// MirrorEnabled publishes every dispatched event to RabbitMQ for
	// external consumers. The websocket fan-out works without it.
	MirrorEnabled bool
}

// Load reads .env when present, then the process environment. Defaults are
// insecure on purpose: production deployments override them.
func Load() Config {
	_ = godotenv.Load(".env")

	cfg := Config{}

	cfg.HTTPPort = cast.ToInt(getOrDefault("HTTP_PORT", 3000))

	cfg.Database.Host = cast.ToString(getOrDefault("DB_HOST", "localhost"))
	cfg.Database.Port = cast.ToString(getOrDefault("DB_PORT", "5432"))
	cfg.Database.User = cast.ToString(getOrDefault("DB_USER", "campus"))
	cfg.Database.Password = cast.ToString(getOrDefault("DB_PASSWORD", "campus"))
	cfg.Database.Database = cast.ToString(getOrDefault("DB_NAME", "campus_transport"))

	cfg.RabbitMQ.Host = cast.ToString(getOrDefault("RABBITMQ_HOST", "localhost"))
	cfg.RabbitMQ.Port = cast.ToString(getOrDefault("RABBITMQ_PORT", "5672"))
	cfg.RabbitMQ.User = cast.ToString(getOrDefault("RABBITMQ_USER", "guest"))
	cfg.RabbitMQ.Password = cast.ToString(getOrDefault("RABBITMQ_PASSWORD", "guest"))

	cfg.JWTSecret = cast.ToString(getOrDefault("JWT_SECRET", "campus_transport_secret"))
	cfg.MirrorEnabled = cast.ToBool(getOrDefault("MIRROR_ENABLED", false))

	return cfg
}

func getOrDefault(key string, defaultValue interface{}) interface{} {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
