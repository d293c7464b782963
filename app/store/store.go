package store

import (
	"time"

	"gomatch/app/models"
)

// QueueStore owns the partitioned wait queues. Implementations must
// serialize mutation per partition: TakeOrEnqueue is the single atomic
// step that either dequeues a counter-party or appends the joiner, so two
// concurrent joins on one partition can never both dequeue the same entry
// or both decide the queue is empty.
type QueueStore interface {
	// TakeOrEnqueue selects the best waiting candidate in the partition
	// (first non-deprioritized entry in FIFO order, falling back to the
	// head when all are deprioritized, never the joiner itself), removes
	// it and returns it with matched=true. When no candidate exists the
	// joiner entry is appended (at most once per user) and matched=false.
	TakeOrEnqueue(key string, entry models.QueueEntry) (candidate models.QueueEntry, matched bool)

	// RemoveUser removes the user's entry from the given partition.
	RemoveUser(key, userID string) bool

	// Restore puts a previously dequeued entry back into its partition
	// at the position its enqueue time warrants, so a pairing that falls
	// through after the dequeue does not cost the candidate their turn.
	// A no-op when the user already has an entry in the partition.
	Restore(key string, entry models.QueueEntry)

	// RemoveUserByPrefix removes the user from every partition whose key
	// starts with prefix, locking one partition at a time. An empty
	// prefix scans all partitions.
	RemoveUserByPrefix(prefix, userID string) int

	// Snapshot returns a copy of the partition's entries in queue order
	// without mutating state. An unknown key yields an empty slice.
	Snapshot(key string) []models.QueueEntry

	// Lengths returns the current length of every non-empty partition.
	Lengths() map[string]int

	// TotalWait returns the total wait duration and entry count across
	// all partitions, measured against now. Used for the average-wait
	// metric.
	TotalWait(now time.Time) (total time.Duration, count int)
}

// MatchStore owns the in-flight match table. It is the single
// authority on match exclusivity: Create refuses to register a pairing
// whose participants are not both free, so no interleaving of queue
// operations can put one user into two simultaneous active matches.
type MatchStore interface {
	// Create registers the match and indexes its participants. Returns
	// false without registering anything when either participant
	// already occupies an active match.
	Create(m *models.Match) bool

	Get(id string) (*models.Match, bool)

	// ActiveFor returns the active match containing the user, if any.
	ActiveFor(userID string) (*models.Match, bool)

	// MarkEnd transitions the match to ENDED. Returns the match, whether
	// it was already ended (idempotent success, first caller's audit
	// fields preserved) and whether it was found at all.
	MarkEnd(id, userID, reason string, now time.Time) (m *models.Match, already bool, found bool)

	ActiveCount() int
	EndedSince(t time.Time) int

	// ExpireOlderThan ends every active match created before cutoff and
	// returns the ended records.
	ExpireOlderThan(cutoff time.Time, actor, reason string) []*models.Match
}

// ModerationStore owns ban and deprioritization records.
type ModerationStore interface {
	Get(userID string) *models.ModerationRecord

	// SetBanned marks the user banned. Returns true if the user was
	// already banned (the original ban record wins).
	SetBanned(userID, reason string, now time.Time) (already bool)

	// SetDeprioritized overwrites any prior deprioritization for the
	// user (last-write-wins). A banned user is left untouched.
	SetDeprioritized(userID, reason string, until time.Time)

	// PurgeExpired drops deprioritization records whose window has
	// passed.
	PurgeExpired(now time.Time) int
}

// IdempotencyStore maps (userID, requestID) to the first successful join
// response. Begin/Complete/Abort implement an atomic check-and-reserve so
// concurrent retries of one key execute the matching logic exactly once:
// the second retry blocks until the first completes and then replays its
// response.
type IdempotencyStore interface {
	// Begin returns (resp, false) when a stored response exists, or
	// (nil, true) when the caller holds a fresh reservation and must
	// finish it with Complete or Abort.
	Begin(userID, requestID string, now time.Time) (resp *models.JoinResponse, execute bool)

	// Complete stores the response under the reservation with the given
	// retention window.
	Complete(userID, requestID string, resp *models.JoinResponse, ttl time.Duration, now time.Time)

	// Abort releases the reservation without storing anything, so a
	// failed join is not replayed.
	Abort(userID, requestID string)

	// PurgeExpired drops records past their retention window.
	PurgeExpired(now time.Time) int
}

// FeedbackStore is the append-only feedback ledger plus the per-user
// rating aggregate derived from it.
type FeedbackStore interface {
	// Append records the feedback and folds its rating into the
	// recipient's running mean in one atomic step.
	Append(f models.Feedback) models.UserRating

	// Rating returns the current aggregate for the user (zero value when
	// the user has no feedback yet).
	Rating(userID string) models.UserRating

	Count() int
}
