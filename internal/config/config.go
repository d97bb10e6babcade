package config

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the runtime configuration, read from the environment.
type Config struct {
	AppPort        string
	Environment    string
	LogLevel       string
	DatabaseDriver string
	DatabaseDSN    string
	DatabaseDebug  bool
	JWTSecret      string
	// RabbitMQURL enables product events when non-empty.
	RabbitMQURL  string
	SeedProducts bool
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=catalog port=5432 sslmode=disable")
	v.SetDefault("DATABASE_DEBUG", false)
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("SEED_PRODUCTS", false)
}

// Load reads a .env file when present, then the environment.
func Load() Config {
	// a missing .env is fine, the environment still applies
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds a Config from an already prepared viper instance.
func FromViper(v *viper.Viper) Config {
	return Config{
		AppPort:        v.GetString("APP_PORT"),
		Environment:    v.GetString("ENVIRONMENT"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		DatabaseDriver: v.GetString("DATABASE_DRIVER"),
		DatabaseDSN:    v.GetString("DATABASE_DSN"),
		DatabaseDebug:  v.GetBool("DATABASE_DEBUG"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
		SeedProducts:   v.GetBool("SEED_PRODUCTS"),
	}
}
