package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Service handles all Redis-related operations. Redis is the best-effort
// cache tier: the in-memory engine state stays authoritative and every
// method here may fail without affecting matching correctness.
type Service struct {
	client *redis.Client
	ctx    context.Context
}

// getRedisConfig gets Redis configuration from environment variables
func getRedisConfig() (string, string, int) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "localhost:6379"
	}

	password := os.Getenv("REDIS_PASSWORD")

	dbStr := os.Getenv("REDIS_DB")
	db := 0
	if dbStr != "" {
		if dbInt, err := strconv.Atoi(dbStr); err == nil {
			db = dbInt
		}
	}

	return url, password, db
}

// NewService creates a new Redis service instance
func NewService() *Service {
	url, password, db := getRedisConfig()

	client := redis.NewClient(&redis.Options{
		Addr:     url,
		Password: password,
		DB:       db,
		// Connection pool settings
		PoolSize:     10,
		MinIdleConns: 5,
		// Timeout settings
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx := context.Background()

	// Test the connection
	_, err := client.Ping(ctx).Result()
	if err != nil {
		// Silent fail - Redis might not be available
	}

	return &Service{
		client: client,
		ctx:    ctx,
	}
}

// Close closes the Redis connection
func (r *Service) Close() error {
	return r.client.Close()
}

// Set stores a key-value pair in Redis
func (r *Service) Set(key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %v", err)
	}

	err = r.client.Set(r.ctx, key, jsonValue, expiration).Err()
	if err != nil {
		return fmt.Errorf("failed to set key %s: %v", key, err)
	}
	return nil
}

// Get retrieves a value from Redis
func (r *Service) Get(key string, dest interface{}) error {
	val, err := r.client.Get(r.ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("key %s not found", key)
		}
		return fmt.Errorf("failed to get key %s: %v", key, err)
	}

	err = json.Unmarshal([]byte(val), dest)
	if err != nil {
		return fmt.Errorf("failed to unmarshal value for key %s: %v", key, err)
	}
	return nil
}

// Delete removes a key from Redis
func (r *Service) Delete(key string) error {
	err := r.client.Del(r.ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete key %s: %v", key, err)
	}
	return nil
}

// Exists checks if a key exists in Redis
func (r *Service) Exists(key string) (bool, error) {
	result, err := r.client.Exists(r.ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check existence of key %s: %v", key, err)
	}

	return result > 0, nil
}

// GetClient returns the Redis client for advanced operations
func (r *Service) GetClient() *redis.Client {
	return r.client
}

// GetContext returns the Redis context
func (r *Service) GetContext() context.Context {
	return r.ctx
}

// ConnectionData represents a signaling connection stored in Redis so
// operators can inspect who is connected where.
type ConnectionData struct {
	SocketID    string    `json:"socket_id"`
	UserID      string    `json:"user_id"`
	ConnectedAt time.Time `json:"connected_at"`
	LastSeen    time.Time `json:"last_seen"`
	Namespace   string    `json:"namespace,omitempty"`
}

// CacheConnection stores connection data in Redis
func (r *Service) CacheConnection(connectionData ConnectionData, expiration time.Duration) error {
	key := fmt.Sprintf("connection:%s", connectionData.SocketID)
	return r.Set(key, connectionData, expiration)
}

// GetConnection retrieves connection data from Redis
func (r *Service) GetConnection(socketID string) (*ConnectionData, error) {
	key := fmt.Sprintf("connection:%s", socketID)
	var connectionData ConnectionData
	err := r.Get(key, &connectionData)
	if err != nil {
		return nil, err
	}
	return &connectionData, nil
}

// DeleteConnection removes connection data from Redis
func (r *Service) DeleteConnection(socketID string) error {
	key := fmt.Sprintf("connection:%s", socketID)
	return r.Delete(key)
}

// UpdateConnectionLastSeen updates the last seen timestamp for a connection
func (r *Service) UpdateConnectionLastSeen(socketID string) error {
	connectionData, err := r.GetConnection(socketID)
	if err != nil {
		return err
	}

	connectionData.LastSeen = time.Now()
	key := fmt.Sprintf("connection:%s", socketID)
	return r.Set(key, connectionData, 24*time.Hour)
}

// GetConnectionCount returns the number of cached signaling connections
func (r *Service) GetConnectionCount() (int64, error) {
	keys, err := r.client.Keys(r.ctx, "connection:*").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get connection keys: %v", err)
	}
	return int64(len(keys)), nil
}

// CacheIdempotencyRecord mirrors a stored join response so a warm restart
// can inspect recently served request ids.
func (r *Service) CacheIdempotencyRecord(userID, requestID string, response interface{}, expiration time.Duration) error {
	key := fmt.Sprintf("idempotency:%s:%s", userID, requestID)
	return r.Set(key, response, expiration)
}

// IncrementMatchCounter bumps the daily pairing counter
func (r *Service) IncrementMatchCounter(day string) (int64, error) {
	key := fmt.Sprintf("matches:daily:%s", day)
	result, err := r.client.Incr(r.ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %v", key, err)
	}
	// Daily counters only need to survive the day they describe.
	r.client.Expire(r.ctx, key, 48*time.Hour)
	return result, nil
}

// GetMatchCounter reads the daily pairing counter
func (r *Service) GetMatchCounter(day string) (int64, error) {
	key := fmt.Sprintf("matches:daily:%s", day)
	result, err := r.client.Get(r.ctx, key).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get counter %s: %v", key, err)
	}
	return result, nil
}
