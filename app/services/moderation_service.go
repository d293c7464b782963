package services

import (
	"fmt"
	"log"
	"time"

	"gomatch/app/store"
)

// ModerationService tracks banned and deprioritized users. It shares the
// per-user lock set with the matching service so a ban's queue sweep
// cannot interleave with an in-flight join for the same user.
type ModerationService struct {
	records store.ModerationStore
	queues  store.QueueStore
	locks   *UserLocks
}

// NewModerationService creates a new moderation service instance
func NewModerationService(records store.ModerationStore, queues store.QueueStore, locks *UserLocks) *ModerationService {
	return &ModerationService{
		records: records,
		queues:  queues,
		locks:   locks,
	}
}

// Ban marks the user banned and synchronously removes any pending queue
// entries across all partitions. Banning an already-banned user is a
// no-op success; the original ban record wins. After Ban returns the user
// can never be dequeued into a new match.
func (s *ModerationService) Ban(userID, reason string) error {
	if userID == "" {
		return fmt.Errorf("%w: userId is required", ErrInvalidRequest)
	}

	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	already := s.records.SetBanned(userID, reason, time.Now().UTC())
	removed := s.queues.RemoveUserByPrefix("", userID)
	if removed > 0 {
		log.Printf("Ban removed user %s from %d queue partition(s)", userID, removed)
	}
	if already {
		log.Printf("User %s was already banned", userID)
	}
	return nil
}

// Deprioritize applies an expiring priority penalty to the user,
// overwriting any prior deprioritization (no stacking of durations). A
// banned user stays banned.
func (s *ModerationService) Deprioritize(userID, reason string, durationMinutes int) error {
	if userID == "" {
		return fmt.Errorf("%w: userId is required", ErrInvalidRequest)
	}
	if durationMinutes <= 0 {
		durationMinutes = 60
	}
	if reason == "" {
		reason = "No reason provided"
	}

	until := time.Now().UTC().Add(time.Duration(durationMinutes) * time.Minute)
	s.records.SetDeprioritized(userID, reason, until)
	return nil
}

// Status resolves the user's effective moderation state at the given time
func (s *ModerationService) Status(userID string, now time.Time) string {
	return s.records.Get(userID).ActiveState(now)
}

// PurgeExpired drops deprioritization records whose window has passed
func (s *ModerationService) PurgeExpired(now time.Time) int {
	return s.records.PurgeExpired(now)
}
