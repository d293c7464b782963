package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"gomatch/app/models"
	"gomatch/app/store"
)

// deprioritizePenalty pushes a deprioritized user's priority score below
// any feedback-derived score (ratings live in [1,5]).
const deprioritizePenalty = 10.0

// MatchingService is the queue manager. It accepts join and cancel
// requests, pairs users per discipline partition and records the produced
// match through the match service. All queue mutation is serialized per
// partition by the queue store; per-user ordering against bans is
// serialized by the shared user locks. Match registration enforces
// participant exclusivity, so a queue entry that goes stale between
// dequeue and registration can never produce a second active match.
type MatchingService struct {
	queues     store.QueueStore
	idem       store.IdempotencyStore
	moderation *ModerationService
	matches    *MatchService
	feedback   *FeedbackService
	locks      *UserLocks

	idemTTL time.Duration

	// onMatch, when set, is invoked after every successful pairing so
	// the signaling layer can push match_found to the waiting peer. Must
	// be set before the service starts taking requests.
	onMatch func(m *models.Match)
}

// NewMatchingService creates a new matching service instance
func NewMatchingService(
	queues store.QueueStore,
	idem store.IdempotencyStore,
	moderation *ModerationService,
	matches *MatchService,
	feedback *FeedbackService,
	locks *UserLocks,
	idemTTL time.Duration,
) *MatchingService {
	return &MatchingService{
		queues:     queues,
		idem:       idem,
		moderation: moderation,
		matches:    matches,
		feedback:   feedback,
		locks:      locks,
		idemTTL:    idemTTL,
	}
}

// SetMatchListener registers the pairing notification hook
func (s *MatchingService) SetMatchListener(fn func(m *models.Match)) {
	s.onMatch = fn
}

// Join processes a join request: idempotency replay, ban gate,
// active-match gate, then an atomic pair-or-enqueue on the partition.
// Successful responses are stored under (userId, requestId) when a
// request id was supplied; failures are not, so a later retry can
// succeed.
func (s *MatchingService) Join(req models.JoinRequest) (*models.JoinResponse, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrInvalidRequest)
	}
	if req.Mode != models.ModeStrict && req.Mode != models.ModeLoose {
		return nil, fmt.Errorf("%w: mode must be strict or loose", ErrInvalidRequest)
	}
	if req.Mode == models.ModeLoose && req.Preferences.Language == "" {
		return nil, fmt.Errorf("%w: preferences.language is required for loose mode", ErrInvalidRequest)
	}

	now := time.Now().UTC()

	// Idempotency check-and-reserve before any mutation. A replayed
	// response is returned verbatim even if queue state has changed
	// since the original call.
	reserved := false
	if req.RequestID != "" {
		resp, execute := s.idem.Begin(req.UserID, req.RequestID, now)
		if !execute {
			return resp, nil
		}
		reserved = true
	}

	resp, err := s.executeJoin(req, now)
	if reserved {
		if err != nil {
			s.idem.Abort(req.UserID, req.RequestID)
		} else {
			s.idem.Complete(req.UserID, req.RequestID, resp, s.idemTTL, now)
		}
	}
	return resp, err
}

// executeJoin runs the matching logic under the joiner's user lock
func (s *MatchingService) executeJoin(req models.JoinRequest, now time.Time) (*models.JoinResponse, error) {
	s.locks.Lock(req.UserID)
	defer s.locks.Unlock(req.UserID)

	state := s.moderation.Status(req.UserID, now)
	if state == models.ModerationBanned {
		return nil, fmt.Errorf("%w: user %s is banned from matching", ErrForbidden, req.UserID)
	}
	if m, ok := s.matches.ActiveFor(req.UserID); ok {
		return nil, fmt.Errorf("%w: user %s is already in match %s", ErrConflict, req.UserID, m.ID)
	}

	entry := models.QueueEntry{
		UserID:        req.UserID,
		Preferences:   req.Preferences,
		EnqueuedAt:    now,
		Deprioritized: state == models.ModerationDeprioritized,
	}
	entry.PriorityScore = s.feedback.RatingFor(req.UserID).Mean
	if entry.Deprioritized {
		entry.PriorityScore -= deprioritizePenalty
	}

	key := req.Preferences.PartitionKey(req.Mode)
	mode := models.MatchModeLoose
	strictKey := ""
	if req.Mode == models.ModeStrict {
		mode = models.MatchModeStrict
		strictKey = req.Preferences.StrictKey()
	}

	// Match registration is the exclusivity authority: Create refuses a
	// pairing whose participants are not both free. A dequeued entry can
	// go stale in the gap between the dequeue and the registration (its
	// user got paired off an entry in another partition), so a refused
	// registration is resolved here: drop the stale candidate and pick
	// again, or hand the candidate back if the joiner itself lost the
	// race.
	for {
		candidate, matched := s.queues.TakeOrEnqueue(key, entry)
		if !matched {
			// The joiner may have been paired off an older entry in
			// another partition after the gate above. The fresh entry
			// must not stay behind in that case; if it is already gone,
			// this very entry produced the pairing and waiting stands.
			if m, ok := s.matches.ActiveFor(req.UserID); ok && s.queues.RemoveUser(key, req.UserID) {
				return nil, fmt.Errorf("%w: user %s is already in match %s", ErrConflict, req.UserID, m.ID)
			}
			return &models.JoinResponse{Status: models.JoinStatusWaiting}, nil
		}

		m, ok := s.matches.Create(mode, strictKey, candidate.UserID, req.UserID)
		if !ok {
			if active, conflicted := s.matches.ActiveFor(req.UserID); conflicted {
				s.queues.Restore(key, candidate)
				return nil, fmt.Errorf("%w: user %s is already in match %s", ErrConflict, req.UserID, active.ID)
			}
			log.Printf("Dropping stale queue entry for already-matched user %s", candidate.UserID)
			continue
		}

		// A fresh pair must not linger in any other partition.
		s.queues.RemoveUserByPrefix("", candidate.UserID)
		s.queues.RemoveUserByPrefix("", req.UserID)

		log.Printf("Matched %s with %s (%s, match %s)", candidate.UserID, req.UserID, mode, m.ID)
		if s.onMatch != nil {
			s.onMatch(m)
		}

		return &models.JoinResponse{
			Status:  models.JoinStatusMatched,
			MatchID: m.ID,
			PeerID:  candidate.UserID,
			PrefKey: strictKey,
		}, nil
	}
}

// Cancel removes the user's queue entry. With a mode it scans only that
// discipline's partitions; without one it scans everything. Cancelling a
// user who is not queued is still a success.
func (s *MatchingService) Cancel(req models.CancelRequest) error {
	if req.UserID == "" {
		return fmt.Errorf("%w: userId is required", ErrInvalidRequest)
	}
	if req.Mode != "" && req.Mode != models.ModeStrict && req.Mode != models.ModeLoose {
		return fmt.Errorf("%w: mode must be strict or loose", ErrInvalidRequest)
	}

	s.locks.Lock(req.UserID)
	defer s.locks.Unlock(req.UserID)

	prefix := ""
	if req.Mode != "" {
		prefix = req.Mode + ":"
	}
	s.queues.RemoveUserByPrefix(prefix, req.UserID)
	return nil
}

// QueueInfo returns a read-only, paginated view of one partition. An
// unknown key yields an empty queue, not an error.
func (s *MatchingService) QueueInfo(key string, page, limit int) models.QueueInfo {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	entries := s.queues.Snapshot(key)
	total := len(entries)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	users := make([]models.QueueEntryView, 0, end-start)
	for _, e := range entries[start:end] {
		users = append(users, models.QueueEntryView{
			UserID:      e.UserID,
			EnqueuedAt:  e.EnqueuedAt,
			Preferences: e.Preferences,
		})
	}

	return models.QueueInfo{
		QueueKey:   key,
		Length:     total,
		Users:      users,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}
}

// QueueMetrics aggregates current queue lengths per discipline
func (s *MatchingService) QueueMetrics() models.QueueMetrics {
	metrics := models.QueueMetrics{ByLanguage: make(map[string]int)}
	for key, length := range s.queues.Lengths() {
		switch {
		case strings.HasPrefix(key, models.ModeStrict+":"):
			metrics.StrictTotal += length
		case strings.HasPrefix(key, models.ModeLoose+":"):
			metrics.LooseTotal += length
			metrics.ByLanguage[strings.TrimPrefix(key, models.ModeLoose+":")] = length
		}
	}
	return metrics
}

// MatchMetrics aggregates match counts and the average wait time in
// seconds across all waiting entries.
func (s *MatchingService) MatchMetrics() models.MatchMetrics {
	now := time.Now().UTC()
	metrics := models.MatchMetrics{
		TotalActive:    s.matches.ActiveCount(),
		CompletedToday: s.matches.EndedToday(now),
	}
	if total, count := s.queues.TotalWait(now); count > 0 {
		metrics.AverageWaitTime = total.Seconds() / float64(count)
	}
	return metrics
}

// PurgeIdempotency drops idempotency records past their retention window
func (s *MatchingService) PurgeIdempotency(now time.Time) int {
	return s.idem.PurgeExpired(now)
}
