package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/signage/internal/db"
)

type Environment struct {
	Environment     string
	ServerAddress   string
	LogLevel        string
	DatabaseDriver  string
	DatabaseURL     string
	MediaRoot       string
	RedisAddress    string
	RedisUsername   string
	RedisPassword   string
	MQTTBroker      string
	OfflineAfter    time.Duration
	UseSpaces       bool
	SpacesEndpoint  string
	SpacesRegion    string
	SpacesBucket    string
	SpacesCDNURL    string
	SpacesAccessKey string
	SpacesSecretKey string
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// LoadEnvironment reads and validates env vars. A .env file in the working
// directory is loaded first when present; real env vars win over it.
func LoadEnvironment() (Environment, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env file")
	}

	env := Environment{
		Environment:    getenv("APP_ENV", "development"),
		ServerAddress:  getenv("SERVER_ADDRESS", ":8080"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		DatabaseDriver: getenv("DATABASE_DRIVER", db.DriverPostgres),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MediaRoot:      getenv("MEDIA_ROOT", "."),

		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisUsername: os.Getenv("REDIS_USERNAME"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		MQTTBroker: os.Getenv("MQTT_BROKER"),

		UseSpaces:       os.Getenv("USE_SPACES") == "true",
		SpacesEndpoint:  os.Getenv("SPACES_ENDPOINT"),
		SpacesRegion:    os.Getenv("SPACES_REGION"),
		SpacesBucket:    os.Getenv("SPACES_BUCKET"),
		SpacesCDNURL:    os.Getenv("SPACES_CDN_URL"),
		SpacesAccessKey: os.Getenv("SPACES_ACCESS_KEY"),
		SpacesSecretKey: os.Getenv("SPACES_SECRET_KEY"),
	}

	if v := os.Getenv("OFFLINE_AFTER"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return env, fmt.Errorf("invalid OFFLINE_AFTER %q: %w", v, err)
		}
		env.OfflineAfter = d
	}

	// Basic validation
	if env.DatabaseURL == "" {
		return env, errors.New("DATABASE_URL is required")
	}
	if env.DatabaseDriver != db.DriverPostgres && env.DatabaseDriver != db.DriverSQLite {
		return env, fmt.Errorf("DATABASE_DRIVER must be %s or %s", db.DriverPostgres, db.DriverSQLite)
	}
	if env.UseSpaces && (env.SpacesBucket == "" || env.SpacesEndpoint == "") {
		return env, errors.New("USE_SPACES requires SPACES_ENDPOINT and SPACES_BUCKET")
	}

	return env, nil
}
