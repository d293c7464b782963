package services

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"gomatch/app/models"
	"gomatch/app/store"
)

// Archiver persists ended matches and feedback to durable storage. The
// in-memory store stays authoritative; archive writes are best effort and
// never block or fail a caller.
type Archiver interface {
	ArchiveMatch(m *models.Match)
	ArchiveFeedback(f models.Feedback)
}

// MatchService owns the match lifecycle: creation on pairing, the single
// ACTIVE -> ENDED transition and stale-match expiry.
type MatchService struct {
	matches store.MatchStore
	archive Archiver
}

// NewMatchService creates a new match service instance
func NewMatchService(matches store.MatchStore, archive Archiver) *MatchService {
	return &MatchService{
		matches: matches,
		archive: archive,
	}
}

// Create registers a new active match between two users. userA is the
// dequeued candidate, userB the joiner that triggered the pairing.
// Returns false without creating anything when either user already
// occupies an active match.
func (s *MatchService) Create(mode, strictKey, userAID, userBID string) (*models.Match, bool) {
	m := &models.Match{
		ID:        uuid.NewString(),
		Mode:      mode,
		StrictKey: strictKey,
		UserAID:   userAID,
		UserBID:   userBID,
		Status:    models.MatchStatusActive,
		CreatedAt: time.Now().UTC(),
	}
	if !s.matches.Create(m) {
		return nil, false
	}
	return m, true
}

// Get returns the match by id
func (s *MatchService) Get(matchID string) (*models.Match, error) {
	m, ok := s.matches.Get(matchID)
	if !ok {
		return nil, fmt.Errorf("%w: match %s", ErrNotFound, matchID)
	}
	return m, nil
}

// ActiveFor returns the active match containing the user, if any
func (s *MatchService) ActiveFor(userID string) (*models.Match, bool) {
	return s.matches.ActiveFor(userID)
}

// MarkEnd transitions the match to ENDED and frees both participants.
// Ending an already-ended match is an idempotent success: the first
// caller's endedAt/endedBy/endReason are preserved. Returns the match in
// its terminal state.
func (s *MatchService) MarkEnd(matchID, userID, reason string) (*models.Match, error) {
	if matchID == "" || userID == "" {
		return nil, fmt.Errorf("%w: matchId and userId are required", ErrInvalidRequest)
	}

	m, already, found := s.matches.MarkEnd(matchID, userID, reason, time.Now().UTC())
	if !found {
		return nil, fmt.Errorf("%w: match %s", ErrNotFound, matchID)
	}
	if !already {
		s.archiveEnded(m)
	}
	return m, nil
}

// ExpireStale ends active matches older than maxAge, attributed to the
// system actor. Returns the number of matches expired.
func (s *MatchService) ExpireStale(maxAge time.Duration) int {
	cutoff := time.Now().UTC().Add(-maxAge)
	expired := s.matches.ExpireOlderThan(cutoff, "system", "expired")
	for _, m := range expired {
		s.archiveEnded(m)
	}
	return len(expired)
}

// ActiveCount returns the number of in-flight matches
func (s *MatchService) ActiveCount() int {
	return s.matches.ActiveCount()
}

// EndedToday counts matches ended since local midnight UTC
func (s *MatchService) EndedToday(now time.Time) int {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return s.matches.EndedSince(midnight)
}

// archiveEnded hands the ended match to the archive without blocking the
// caller.
func (s *MatchService) archiveEnded(m *models.Match) {
	if s.archive == nil {
		return
	}
	go func(cp models.Match) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("match archive panic: %v", r)
			}
		}()
		s.archive.ArchiveMatch(&cp)
	}(*m)
}
