package config

import (
	"fmt"
	"os"

	"property-desk/validator"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string `env:"ENV" validate:"oneof=development production test"`
	DBDriver    string `env:"DB_DRIVER" validate:"required,oneof=sqlite3 sqlite pgx"`
	DBDSN       string `env:"DB_DSN" validate:"required"`
	LogLevel    string `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFile     string `env:"LOG_FILE"`
	MenuLayout  string `env:"MENU_LAYOUT"`
	MetricsFile string `env:"METRICS_FILE"`
}

var AppConfig *Config

// Load reads the environment (and an optional .env file) into AppConfig.
func Load() error {
	_ = godotenv.Load()

	cfg := &Config{
		Env:         GetEnv("ENV", "development"),
		DBDriver:    GetEnv("DB_DRIVER", "sqlite3"),
		DBDSN:       GetEnv("DB_DSN", "./data/property-desk.db"),
		LogLevel:    GetEnv("LOG_LEVEL", "warn"),
		LogFile:     GetEnv("LOG_FILE", ""),
		MenuLayout:  GetEnv("MENU_LAYOUT", ""),
		MetricsFile: GetEnv("METRICS_FILE", ""),
	}

	if err := validator.New().Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	AppConfig = cfg
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
