package controllers

import (
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"

	"gomatch/app/services"
	"gomatch/database"
	"gomatch/redis"
)

// SystemController serves the health and metrics endpoints. Both are
// read-only aggregates; neither mutates engine state.
type SystemController struct {
	matching  *services.MatchingService
	redisSvc  *redis.Service
	startedAt time.Time
}

// NewSystemController creates a new system controller instance
func NewSystemController(matching *services.MatchingService, redisSvc *redis.Service) *SystemController {
	return &SystemController{
		matching:  matching,
		redisSvc:  redisSvc,
		startedAt: time.Now().UTC(),
	}
}

// Health handles GET /healthz
func (c *SystemController) Health(ctx *fiber.Ctx) error {
	servicesHealth := map[string]string{}

	if c.redisSvc != nil {
		if _, err := c.redisSvc.GetClient().Ping(c.redisSvc.GetContext()).Result(); err != nil {
			servicesHealth["redis"] = "error: " + err.Error()
		} else {
			servicesHealth["redis"] = "ok"
		}
	}
	if err := database.HealthCheck(); err != nil {
		servicesHealth["cassandra"] = "unavailable"
	} else {
		servicesHealth["cassandra"] = "ok"
	}
	if err := database.MongoHealthCheck(); err != nil {
		servicesHealth["mongodb"] = "unavailable"
	} else {
		servicesHealth["mongodb"] = "ok"
	}

	return ctx.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  servicesHealth,
		"uptime":    time.Since(c.startedAt).Seconds(),
	})
}

// Metrics handles GET /metrics
func (c *SystemController) Metrics(ctx *fiber.Ctx) error {
	queueMetrics := c.matching.QueueMetrics()
	matchMetrics := c.matching.MatchMetrics()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	var connections, pairingsToday int64
	if c.redisSvc != nil {
		connections, _ = c.redisSvc.GetConnectionCount()
		pairingsToday, _ = c.redisSvc.GetMatchCounter(time.Now().UTC().Format("2006-01-02"))
	}

	return ctx.JSON(fiber.Map{
		"queues":         queueMetrics,
		"matches":        matchMetrics,
		"pairings_today": pairingsToday,
		"system": fiber.Map{
			"memory_usage": float64(memStats.HeapAlloc) / 1024 / 1024, // MB
			"goroutines":   runtime.NumGoroutine(),
			"connections":  connections,
		},
	})
}
