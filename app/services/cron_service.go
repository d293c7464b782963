package services

import (
	"log"
	"time"
)

// CronService handles scheduled background maintenance: purging expired
// idempotency records and deprioritizations and expiring stale matches.
type CronService struct {
	matching    *MatchingService
	moderation  *ModerationService
	matches     *MatchService
	matchMaxAge time.Duration
	stopChan    chan bool
	isRunning   bool
}

// NewCronService creates a new cron service instance
func NewCronService(matching *MatchingService, moderation *ModerationService, matches *MatchService, matchMaxAge time.Duration) *CronService {
	return &CronService{
		matching:    matching,
		moderation:  moderation,
		matches:     matches,
		matchMaxAge: matchMaxAge,
		stopChan:    make(chan bool),
	}
}

// StartCleanupCron starts the periodic cleanup job
func (c *CronService) StartCleanupCron(interval time.Duration) {
	if c.isRunning {
		log.Println("Cleanup cron is already running")
		return
	}

	c.isRunning = true
	log.Printf("Starting cleanup cron job (interval: %v)", interval)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.runCleanup()
			case <-c.stopChan:
				log.Println("Stopping cleanup cron job")
				return
			}
		}
	}()
}

// StopCleanupCron stops the cleanup job
func (c *CronService) StopCleanupCron() {
	if !c.isRunning {
		return
	}
	c.isRunning = false
	c.stopChan <- true
}

// runCleanup executes one cleanup pass
func (c *CronService) runCleanup() {
	start := time.Now()
	now := time.Now().UTC()

	idem := c.matching.PurgeIdempotency(now)
	deprio := c.moderation.PurgeExpired(now)
	expired := c.matches.ExpireStale(c.matchMaxAge)

	if idem > 0 || deprio > 0 || expired > 0 {
		log.Printf("Cleanup finished in %v: %d idempotency records, %d deprioritizations, %d stale matches",
			time.Since(start), idem, deprio, expired)
	}
}

// IsRunning returns whether the cron service is currently running
func (c *CronService) IsRunning() bool {
	return c.isRunning
}
