package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDSN          string
	HTTPAddr       string
	TelegramToken  string
	SecretKey      string
	AdminEmail     string
	AdminPassword  string
	AllowedOrigins []string
	TokenTTLMin    int
	MigrationsPath string
	Environment    string
}

func Load() (*Config, error) {
	// Load .env if present, otherwise rely on the environment.
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	cfg := &Config{
		DBDSN:          os.Getenv("DB_DSN"),
		HTTPAddr:       os.Getenv("HTTP_ADDR"),
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		SecretKey:      os.Getenv("SECRET_KEY"),
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		Environment:    os.Getenv("ENV"),
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	cfg.TokenTTLMin = 60
	if ttl := os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES"); ttl != "" {
		n, err := strconv.Atoi(ttl)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be a positive integer, got %q", ttl)
		}
		cfg.TokenTTLMin = n
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8000"
	}
	if cfg.MigrationsPath == "" {
		cfg.MigrationsPath = "migrations"
	}
	if cfg.SecretKey == "" {
		cfg.SecretKey = "dev-secret"
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	return cfg, nil
}
