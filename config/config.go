// config/config.go
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Configuration constants for the application
var (
	// Cassandra configuration (match/feedback archive)
	CassandraHost     string
	CassandraUsername string
	CassandraPassword string
	CassandraKeyspace string
	CassandraPort     int

	// MongoDB configuration (legacy preference profiles)
	MongoURI      string
	MongoDatabase string

	// ServerPort is the port on which the server will run
	ServerPort int

	// AdminJWTSecret signs and verifies admin API tokens
	AdminJWTSecret string

	// Engine tuning
	IdempotencyTTLMinutes  int
	MatchMaxAgeHours       int
	CleanupIntervalMinutes int

	// Application configuration
	AppName    = "GOMATCH"
	AppVersion = "1.0.0"
)

func init() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
	}

	// Cassandra configuration
	CassandraHost = getEnv("CASSANDRA_HOST", "localhost")
	CassandraUsername = getEnv("CASSANDRA_USERNAME", "cassandra")
	CassandraPassword = getEnv("CASSANDRA_PASSWORD", "cassandra")
	CassandraKeyspace = getEnv("CASSANDRA_KEYSPACE", "matching")
	CassandraPort = getEnvInt("CASSANDRA_PORT", 9042)

	// Server configuration
	ServerPort = getEnvInt("SERVER_PORT", 8088)

	// Mongo configuration
	MongoURI = getEnv("MONGO_URI", "mongodb://localhost:27017")
	MongoDatabase = getEnv("MONGO_DATABASE", "matching")

	// Admin API
	AdminJWTSecret = getEnv("ADMIN_JWT_SECRET", "change-me-in-production")

	// Engine tuning
	IdempotencyTTLMinutes = getEnvInt("IDEMPOTENCY_TTL_MINUTES", 10)
	MatchMaxAgeHours = getEnvInt("MATCH_MAX_AGE_HOURS", 24)
	CleanupIntervalMinutes = getEnvInt("CLEANUP_INTERVAL_MINUTES", 5)
}

// getEnv gets environment variable with fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with fallback default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
