package models

import "time"

// Moderation state constants
const (
	ModerationNone          = "none"
	ModerationDeprioritized = "deprioritized"
	ModerationBanned        = "banned"
)

// ModerationRecord tracks the restriction applied to a user. A ban is
// terminal and supersedes any deprioritization; a deprioritization expires
// at Until.
type ModerationRecord struct {
	UserID   string    `json:"userId"`
	State    string    `json:"state"`
	Reason   string    `json:"reason,omitempty"`
	Until    time.Time `json:"until,omitempty"` // deprioritized only
	BannedAt time.Time `json:"bannedAt,omitempty"`
}

// ActiveState resolves the record to its effective state at the given
// time: an expired deprioritization counts as none.
func (r *ModerationRecord) ActiveState(now time.Time) string {
	if r == nil {
		return ModerationNone
	}
	if r.State == ModerationBanned {
		return ModerationBanned
	}
	if r.State == ModerationDeprioritized && now.Before(r.Until) {
		return ModerationDeprioritized
	}
	return ModerationNone
}
