package models

import "time"

// Join status constants
const (
	JoinStatusWaiting = "waiting"
	JoinStatusMatched = "matched"
)

// JoinRequest represents a request to enter a matching queue
type JoinRequest struct {
	UserID      string          `json:"userId"`
	Mode        string          `json:"mode"` // strict or loose
	Preferences UserPreferences `json:"preferences"`
	RequestID   string          `json:"requestId,omitempty"` // idempotency key
}

// JoinResponse is the outcome of a join call. Stored verbatim under the
// idempotency key so retries replay the exact first response.
type JoinResponse struct {
	Status  string `json:"status"` // waiting or matched
	MatchID string `json:"matchId,omitempty"`
	PeerID  string `json:"peerId,omitempty"`
	PrefKey string `json:"prefKey,omitempty"` // strict mode only
}

// CancelRequest represents a request to leave the matching queues
type CancelRequest struct {
	UserID string `json:"userId"`
	Mode   string `json:"mode,omitempty"` // optional: scan both disciplines when empty
}

// MarkEndRequest represents a request to end an active match
type MarkEndRequest struct {
	MatchID string `json:"matchId"`
	UserID  string `json:"userId"`
	Reason  string `json:"reason,omitempty"`
}

// FeedbackRequest represents a post-match feedback submission
type FeedbackRequest struct {
	MatchID    string   `json:"matchId"`
	FromUserID string   `json:"fromUserId"`
	ToUserID   string   `json:"toUserId"`
	Rating     int      `json:"rating"`
	Tags       []string `json:"tags,omitempty"`
}

// BanRequest represents an admin request to ban a user
type BanRequest struct {
	UserID string `json:"userId"`
	Reason string `json:"reason"`
}

// DeprioritizeRequest represents an admin request to deprioritize a user
type DeprioritizeRequest struct {
	UserID          string `json:"userId"`
	Reason          string `json:"reason,omitempty"`
	DurationMinutes int    `json:"duration,omitempty"` // minutes, defaults to 60
}

// QueueEntryView is the read-only projection of a waiting entry returned
// by the debug endpoint.
type QueueEntryView struct {
	UserID      string          `json:"userId"`
	EnqueuedAt  time.Time       `json:"enqueuedAt"`
	Preferences UserPreferences `json:"preferences"`
}

// QueueInfo is the debug projection of one partition
type QueueInfo struct {
	QueueKey   string           `json:"queueKey"`
	Length     int              `json:"length"`
	Users      []QueueEntryView `json:"users"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
}

// QueueMetrics aggregates queue lengths for the metrics endpoint
type QueueMetrics struct {
	StrictTotal int            `json:"strict_total"`
	LooseTotal  int            `json:"loose_total"`
	ByLanguage  map[string]int `json:"by_language"`
}

// MatchMetrics aggregates match counts for the metrics endpoint
type MatchMetrics struct {
	TotalActive     int     `json:"total_active"`
	CompletedToday  int     `json:"completed_today"`
	AverageWaitTime float64 `json:"average_wait_time"` // seconds
}
