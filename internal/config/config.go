package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds application configuration loaded from environment variables.
// Defaults are suitable for local development.
type Config struct {
	AppName string
	Env     string // development, staging, production
	Port    string

	MongoURI      string
	MongoDatabase string

	JWTSecret string

	FrontendURL string

	// Redis (optional; rate limiting is disabled when RedisAddr is empty)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid int for %s: %v, using default %d", key, err, def)
			return def
		}
		return i
	}
	return def
}

func Load() *Config {
	return &Config{
		AppName:       getenv("APP_NAME", "doctor-appointment-api"),
		Env:           getenv("APP_ENV", "development"),
		Port:          getenv("PORT", "5000"),
		MongoURI:      getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getenv("MONGO_DATABASE", "doctor_appointments"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		FrontendURL:   getenv("FRONTEND_URL", "http://localhost:3000"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getint("REDIS_DB", 0),
		LogLevel:      getenv("LOG_LEVEL", "info"),
	}
}

// IsProduction gates the error detail included in 500 responses.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
