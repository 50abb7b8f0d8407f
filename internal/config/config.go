// Package config loads application configuration from environment
// variables.  A .env file in the working directory, when present, is read
// first; variables already set in the environment win.
package config

import (
	"log"
	"os"
	"time"
	_ "time/tzdata" // RESORT_TIMEZONE must resolve in minimal containers

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string         // APP_ENV: dev, test or prod
	Port           string         // APP_PORT
	DBUser         string         // DB_USER
	DBPass         string         // DB_PASS (optional)
	DBHost         string         // DB_HOST
	DBPort         string         // DB_PORT
	DBName         string         // DB_NAME
	DBMigrate      bool           // DB_MIGRATE: create missing tables at startup
	JWTSecret      string         // JWT_SECRET: verifies bearer tokens
	BcryptCost     int            // BCRYPT_COST
	RequestTimeout time.Duration  // REQUEST_TIMEOUT: per-request deadline
	Location       *time.Location // RESORT_TIMEZONE: decides what "today" is
	CompletionCron string         // COMPLETION_CRON: schedule of the completion sweep
	RabbitURL      string         // RABBITMQ_URL (empty disables events)
	NotifyDir      string         // NOTIFY_DIR: where the consumer writes notifications
}

// Load reads configuration values from the environment.  Required
// variables are enforced by must() and missing values cause the program to
// exit with a fatal log message.
func Load() Config {
	_ = godotenv.Load() // .env is optional

	return Config{
		Env:            envStr("APP_ENV", "dev"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		DBMigrate:      envBool("DB_MIGRATE", false),
		JWTSecret:      must("JWT_SECRET"),
		BcryptCost:     envInt("BCRYPT_COST", 12),
		RequestTimeout: envDur("REQUEST_TIMEOUT", 10*time.Second),
		Location:       mustLocation("RESORT_TIMEZONE", "UTC"),
		CompletionCron: envStr("COMPLETION_CRON", "0 5 * * *"),
		RabbitURL:      rabbitURL(),
		NotifyDir:      envStr("NOTIFY_DIR", "logs"),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustLocation loads the IANA zone named by key (default def).  An unknown
// zone is fatal.
func mustLocation(key, def string) *time.Location {
	name := envStr(key, def)
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Fatalf("invalid time zone for %s: %q", key, name)
	}
	return loc
}

func rabbitURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}
