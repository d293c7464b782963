package models

import "time"

// Match status constants
const (
	MatchStatusActive = "ACTIVE"
	MatchStatusEnded  = "ENDED"
)

// Match mode constants (stored uppercase, request modes arrive lowercase)
const (
	MatchModeStrict = "STRICT"
	MatchModeLoose  = "LOOSE"
)

// Match represents a pairing between two users. It is created atomically
// with the dequeue of the matched partner and owned by the match service
// for its whole life. Once ENDED it is immutable.
type Match struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"` // STRICT or LOOSE
	StrictKey string    `json:"strictKey,omitempty"`
	UserAID   string    `json:"userAId"`
	UserBID   string    `json:"userBId"`
	Status    string    `json:"status"` // ACTIVE or ENDED
	CreatedAt time.Time `json:"createdAt"`
	EndedAt   time.Time `json:"endedAt,omitempty"`
	EndedBy   string    `json:"endedBy,omitempty"`
	EndReason string    `json:"endReason,omitempty"`
}

// Ended reports whether the match has reached its terminal state.
func (m *Match) Ended() bool {
	return m.Status == MatchStatusEnded
}

// Other returns the peer of the given participant, or "" if the user is
// not part of the match.
func (m *Match) Other(userID string) string {
	switch userID {
	case m.UserAID:
		return m.UserBID
	case m.UserBID:
		return m.UserAID
	}
	return ""
}

// QueueEntry represents a user waiting inside exactly one queue partition.
type QueueEntry struct {
	UserID        string          `json:"userId"`
	Preferences   UserPreferences `json:"preferences"`
	EnqueuedAt    time.Time       `json:"enqueuedAt"`
	PriorityScore float64         `json:"priorityScore"`
	Deprioritized bool            `json:"deprioritized"`
}
