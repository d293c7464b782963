package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gocql/gocql"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"gomatch/config"
)

var (
	// Cassandra session instance (match/feedback archive)
	CassandraSession *gocql.Session

	// Mongo client instance (legacy preference profiles)
	MongoClient *mongo.Client
)

// InitDB initializes the optional storage backends. Both are best effort:
// the engine runs without them and callers must tolerate nil handles.
func InitDB() error {
	if err := InitCassandra(); err != nil {
		log.Printf("Cassandra unavailable, archive disabled: %v", err)
	}
	if err := InitMongo(); err != nil {
		log.Printf("MongoDB unavailable, preference profiles disabled: %v", err)
	}
	return nil
}

// InitCassandra initializes the Cassandra session
func InitCassandra() error {
	// Create cluster configuration
	cluster := gocql.NewCluster(config.CassandraHost)
	cluster.Port = config.CassandraPort
	cluster.Keyspace = config.CassandraKeyspace
	cluster.Authenticator = gocql.PasswordAuthenticator{
		Username: config.CassandraUsername,
		Password: config.CassandraPassword,
	}

	// Set consistency and timeout
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 10 * time.Second
	cluster.ConnectTimeout = 10 * time.Second

	// Enable retry policy
	cluster.RetryPolicy = &gocql.SimpleRetryPolicy{
		NumRetries: 3,
	}

	cluster.NumConns = 4

	log.Printf("Connecting to Cassandra at %s:%d...", config.CassandraHost, config.CassandraPort)

	session, err := cluster.CreateSession()
	if err != nil {
		return fmt.Errorf("failed to connect to Cassandra: %v", err)
	}

	// Test the connection
	if err := session.Query("SELECT release_version FROM system.local").Exec(); err != nil {
		return fmt.Errorf("failed to test Cassandra connection: %v", err)
	}

	CassandraSession = session
	log.Printf("Cassandra session initialized (keyspace: %s)", config.CassandraKeyspace)
	return nil
}

// InitMongo initializes the MongoDB client
func InitMongo() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.MongoURI))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	MongoClient = client
	log.Printf("MongoDB client initialized (database: %s)", config.MongoDatabase)
	return nil
}

// PreferenceProfiles returns the preference profile collection, or nil
// when Mongo is unavailable.
func PreferenceProfiles() *mongo.Collection {
	if MongoClient == nil {
		return nil
	}
	return MongoClient.Database(config.MongoDatabase).Collection("preference_profiles")
}

// CloseAllConnections closes all storage connections
func CloseAllConnections() {
	if CassandraSession != nil {
		CassandraSession.Close()
		log.Println("Cassandra connection closed")
	}
	if MongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := MongoClient.Disconnect(ctx); err != nil {
			log.Printf("Failed to disconnect MongoDB: %v", err)
		} else {
			log.Println("MongoDB connection closed")
		}
	}
}

// HealthCheck performs a health check on the Cassandra archive
func HealthCheck() error {
	if CassandraSession == nil {
		return fmt.Errorf("Cassandra session is not initialized")
	}
	return CassandraSession.Query("SELECT release_version FROM system.local").Exec()
}

// MongoHealthCheck performs a health check on MongoDB
func MongoHealthCheck() error {
	if MongoClient == nil {
		return fmt.Errorf("MongoDB client is not initialized")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return MongoClient.Ping(ctx, readpref.Primary())
}
