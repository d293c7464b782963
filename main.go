// main.go
package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"gomatch/app/controllers"
	"gomatch/app/models"
	"gomatch/app/routes"
	"gomatch/app/services"
	"gomatch/app/store"
	"gomatch/config"
	"gomatch/database"
	"gomatch/redis"
)

func main() {
	app := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		StrictRouting: true,
		ServerHeader:  "Fiber",
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			ctx.Status(code)
			return ctx.JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Initialize external connections first. All of them are optional
	// tiers; the engine itself runs on the in-memory stores.
	fmt.Println("🔌 Initializing database connections...")
	if err := database.InitDB(); err != nil {
		log.Printf("⚠️ Database initialization incomplete: %v", err)
	}
	fmt.Println("✅ Database initialization finished")

	fmt.Println("🔌 Initializing Redis...")
	redisService := redis.NewService()
	fmt.Println("✅ Redis initialized")

	// Engine stores and services
	queues := store.NewMemoryQueueStore()
	matchesStore := store.NewMemoryMatchStore()
	moderationStore := store.NewMemoryModerationStore()
	idempotency := store.NewMemoryIdempotencyStore()
	feedbackStore := store.NewMemoryFeedbackStore()
	locks := services.NewUserLocks()
	archive := database.NewArchive(database.CassandraSession)

	moderationService := services.NewModerationService(moderationStore, queues, locks)
	matchService := services.NewMatchService(matchesStore, archive)
	feedbackService := services.NewFeedbackService(feedbackStore, archive)
	matchingService := services.NewMatchingService(
		queues,
		idempotency,
		moderationService,
		matchService,
		feedbackService,
		locks,
		time.Duration(config.IdempotencyTTLMinutes)*time.Minute,
	)
	profileService := services.NewPreferenceProfileService(database.PreferenceProfiles())

	// Signaling relay over Socket.IO
	fmt.Println("🔌 Initializing signaling handler...")
	socketHandler := config.NewSocketHandler(matchingService, matchService, feedbackService, redisService)
	matchingService.SetMatchListener(func(m *models.Match) {
		socketHandler.NotifyMatch(m)
		go redisService.IncrementMatchCounter(time.Now().UTC().Format("2006-01-02"))
	})
	socketHandler.SetupSocketRoutes(app)
	fmt.Println("✅ Signaling handler initialized")

	// Controllers and HTTP routes
	matchController := controllers.NewMatchController(matchingService, matchService, feedbackService, redisService)
	adminController := controllers.NewAdminController(moderationService, matchingService)
	systemController := controllers.NewSystemController(matchingService, redisService)
	preferenceController := controllers.NewPreferenceController(profileService)
	routes.SetupRoutes(app, matchController, adminController, systemController, preferenceController)

	// Background cleanup of expired idempotency records, lapsed
	// deprioritizations and stale matches.
	cronService := services.NewCronService(matchingService, moderationService, matchService, time.Duration(config.MatchMaxAgeHours)*time.Hour)
	cronService.StartCleanupCron(time.Duration(config.CleanupIntervalMinutes) * time.Minute)

	port := config.ServerPort
	fmt.Printf("🚀 Server starting on port :%d\n", port)
	fmt.Printf("🔌 Signaling available at :%d/socket.io\n", port)

	log.Fatal(app.Listen(fmt.Sprintf(":%d", port)))
}
