package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr      string
	JWTSecret     string
	LogLevel      string
	AllowedOrigin string
	DB            DBConfig
}

// DBConfig uses the lowercase variable names of a Supabase connection panel.
type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
	SSLMode  string
}

// Enabled reports whether a journal database is configured.
func (c DBConfig) Enabled() bool {
	return c.Host != ""
}

func (c DBConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET is not set")

// Load reads an optional .env file, then the environment. Variables already
// set in the environment win over the file.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading env file: %w", err)
	}

	cfg := &Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		JWTSecret:     getenv("JWT_SECRET", ""),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		AllowedOrigin: getenv("ALLOWED_ORIGIN", "*"),
		DB: DBConfig{
			User:     getenv("user", ""),
			Password: getenv("password", ""),
			Host:     getenv("host", ""),
			Port:     getenv("port", "5432"),
			Name:     getenv("dbname", ""),
			SSLMode:  getenv("DB_SSLMODE", "require"),
		},
	}

	if cfg.JWTSecret == "" {
		return nil, ErrMissingJWTSecret
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
