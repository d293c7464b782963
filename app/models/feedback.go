package models

import "time"

// Feedback represents a single post-match rating. Append-only: records are
// never mutated or deleted once stored.
type Feedback struct {
	ID         string    `json:"id"`
	MatchID    string    `json:"matchId"`
	FromUserID string    `json:"fromUserId"`
	ToUserID   string    `json:"toUserId"`
	Rating     int       `json:"rating"` // integer in [1,5]
	Tags       []string  `json:"tags,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// UserRating holds the rolling reputation aggregate for one user. Mean is
// a simple moving average; acceptable for priority ranking, not for
// precise historical reporting.
type UserRating struct {
	UserID string  `json:"userId"`
	Mean   float64 `json:"mean"`
	Count  int     `json:"count"`
}
