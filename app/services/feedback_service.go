package services

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"gomatch/app/models"
	"gomatch/app/store"
)

// FeedbackService records post-match ratings and maintains the rolling
// reputation aggregate the queue manager reads for priority ordering.
// Feedback is accepted even when the match record has already been
// cleaned up; the ledger is append-only.
type FeedbackService struct {
	ledger  store.FeedbackStore
	archive Archiver
}

// NewFeedbackService creates a new feedback service instance
func NewFeedbackService(ledger store.FeedbackStore, archive Archiver) *FeedbackService {
	return &FeedbackService{
		ledger:  ledger,
		archive: archive,
	}
}

// Submit validates and records one feedback entry, returning its id. The
// rating must be an integer in [1,5]; out-of-range values are rejected,
// never clamped.
func (s *FeedbackService) Submit(req models.FeedbackRequest) (string, error) {
	if req.MatchID == "" || req.FromUserID == "" || req.ToUserID == "" {
		return "", fmt.Errorf("%w: matchId, fromUserId and toUserId are required", ErrInvalidRequest)
	}
	if req.Rating < 1 || req.Rating > 5 {
		return "", fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidRequest)
	}

	f := models.Feedback{
		ID:         uuid.NewString(),
		MatchID:    req.MatchID,
		FromUserID: req.FromUserID,
		ToUserID:   req.ToUserID,
		Rating:     req.Rating,
		Tags:       req.Tags,
		CreatedAt:  time.Now().UTC(),
	}

	rating := s.ledger.Append(f)
	log.Printf("Feedback %s recorded for user %s (mean %.2f over %d)", f.ID, f.ToUserID, rating.Mean, rating.Count)

	if s.archive != nil {
		go func(cp models.Feedback) {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("feedback archive panic: %v", r)
				}
			}()
			s.archive.ArchiveFeedback(cp)
		}(f)
	}
	return f.ID, nil
}

// RatingFor returns the user's current reputation aggregate
func (s *FeedbackService) RatingFor(userID string) models.UserRating {
	return s.ledger.Rating(userID)
}

// Count returns the number of recorded feedback entries
func (s *FeedbackService) Count() int {
	return s.ledger.Count()
}
