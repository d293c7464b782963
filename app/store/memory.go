package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"gomatch/app/models"
)

// MemoryQueueStore is the in-process queue substrate. A read-write mutex
// guards the partition map; each partition carries its own mutex so
// operations on independent partitions do not contend. Cross-partition
// scans lock one partition at a time.
type MemoryQueueStore struct {
	mu         sync.RWMutex
	partitions map[string]*partition
}

type partition struct {
	mu      sync.Mutex
	entries []models.QueueEntry
}

// NewMemoryQueueStore creates an empty queue store
func NewMemoryQueueStore() *MemoryQueueStore {
	return &MemoryQueueStore{
		partitions: make(map[string]*partition),
	}
}

func (s *MemoryQueueStore) getOrCreate(key string) *partition {
	s.mu.RLock()
	p := s.partitions[key]
	s.mu.RUnlock()
	if p != nil {
		return p
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p = s.partitions[key]; p == nil {
		p = &partition{}
		s.partitions[key] = p
	}
	return p
}

// TakeOrEnqueue implements the atomic dequeue-or-append step described on
// the QueueStore interface.
func (s *MemoryQueueStore) TakeOrEnqueue(key string, entry models.QueueEntry) (models.QueueEntry, bool) {
	p := s.getOrCreate(key)
	p.mu.Lock()
	defer p.mu.Unlock()

	if idx := selectCandidate(p.entries, entry.UserID); idx >= 0 {
		candidate := p.entries[idx]
		p.entries = append(p.entries[:idx], p.entries[idx+1:]...)
		return candidate, true
	}

	// No counter-party: append unless the user is already waiting here.
	for _, e := range p.entries {
		if e.UserID == entry.UserID {
			return models.QueueEntry{}, false
		}
	}
	p.entries = append(p.entries, entry)
	return models.QueueEntry{}, false
}

// selectCandidate returns the index of the best candidate, or -1. Entries
// are held in enqueue order, so the first non-deprioritized entry is the
// FIFO head among eligible users. Deprioritized entries are matchable only
// when no better candidate exists. Exact-timestamp ties fall back to the
// higher priority score.
func selectCandidate(entries []models.QueueEntry, joinerID string) int {
	best := -1
	bestDeprioritized := false
	for i, e := range entries {
		if e.UserID == joinerID {
			continue
		}
		if best < 0 {
			best, bestDeprioritized = i, e.Deprioritized
			continue
		}
		cur := entries[best]
		switch {
		case bestDeprioritized && !e.Deprioritized:
			best, bestDeprioritized = i, false
		case bestDeprioritized == e.Deprioritized && e.EnqueuedAt.Before(cur.EnqueuedAt):
			best, bestDeprioritized = i, e.Deprioritized
		case bestDeprioritized == e.Deprioritized && e.EnqueuedAt.Equal(cur.EnqueuedAt) && e.PriorityScore > cur.PriorityScore:
			best, bestDeprioritized = i, e.Deprioritized
		}
	}
	return best
}

// Restore reinserts a dequeued entry at the position its enqueue time
// warrants, so an aborted pairing does not cost the candidate their turn.
func (s *MemoryQueueStore) Restore(key string, entry models.QueueEntry) {
	p := s.getOrCreate(key)
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, e := range p.entries {
		if e.UserID == entry.UserID {
			return
		}
	}
	idx := len(p.entries)
	for i, e := range p.entries {
		if e.EnqueuedAt.After(entry.EnqueuedAt) {
			idx = i
			break
		}
	}
	p.entries = append(p.entries, models.QueueEntry{})
	copy(p.entries[idx+1:], p.entries[idx:])
	p.entries[idx] = entry
}

// RemoveUser removes the user's entry from one partition
func (s *MemoryQueueStore) RemoveUser(key, userID string) bool {
	s.mu.RLock()
	p := s.partitions[key]
	s.mu.RUnlock()
	if p == nil {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for i, e := range p.entries {
		if e.UserID == userID {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveUserByPrefix removes the user from every matching partition,
// holding at most one partition lock at a time.
func (s *MemoryQueueStore) RemoveUserByPrefix(prefix, userID string) int {
	s.mu.RLock()
	keys := make([]string, 0, len(s.partitions))
	for key := range s.partitions {
		if prefix == "" || strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	s.mu.RUnlock()

	removed := 0
	for _, key := range keys {
		if s.RemoveUser(key, userID) {
			removed++
		}
	}
	return removed
}

// Snapshot returns a copy of the partition's entries in queue order
func (s *MemoryQueueStore) Snapshot(key string) []models.QueueEntry {
	s.mu.RLock()
	p := s.partitions[key]
	s.mu.RUnlock()
	if p == nil {
		return []models.QueueEntry{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.QueueEntry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Lengths returns the current length of every non-empty partition
func (s *MemoryQueueStore) Lengths() map[string]int {
	s.mu.RLock()
	keys := make([]string, 0, len(s.partitions))
	for key := range s.partitions {
		keys = append(keys, key)
	}
	s.mu.RUnlock()
	sort.Strings(keys)

	lengths := make(map[string]int)
	for _, key := range keys {
		if n := len(s.Snapshot(key)); n > 0 {
			lengths[key] = n
		}
	}
	return lengths
}

// TotalWait sums the wait time of every queued entry against now
func (s *MemoryQueueStore) TotalWait(now time.Time) (time.Duration, int) {
	s.mu.RLock()
	keys := make([]string, 0, len(s.partitions))
	for key := range s.partitions {
		keys = append(keys, key)
	}
	s.mu.RUnlock()

	var total time.Duration
	count := 0
	for _, key := range keys {
		for _, e := range s.Snapshot(key) {
			total += now.Sub(e.EnqueuedAt)
			count++
		}
	}
	return total, count
}

// MemoryMatchStore is the in-process match table.
type MemoryMatchStore struct {
	mu      sync.RWMutex
	matches map[string]*models.Match
	active  map[string]string // userID -> active matchID
}

// NewMemoryMatchStore creates an empty match store
func NewMemoryMatchStore() *MemoryMatchStore {
	return &MemoryMatchStore{
		matches: make(map[string]*models.Match),
		active:  make(map[string]string),
	}
}

// Create registers a new match and indexes both participants. The check
// and the registration share the write lock, so a user with an active
// match can never be indexed into a second one: a pairing built from a
// queue entry that went stale while in flight is refused here.
func (s *MemoryMatchStore) Create(m *models.Match) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.active[m.UserAID]; taken {
		return false
	}
	if _, taken := s.active[m.UserBID]; taken {
		return false
	}
	cp := *m
	s.matches[m.ID] = &cp
	if !m.Ended() {
		s.active[m.UserAID] = m.ID
		s.active[m.UserBID] = m.ID
	}
	return true
}

// Get returns a copy of the match by id
func (s *MemoryMatchStore) Get(id string) (*models.Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, false
	}
	cp := *m
	return &cp, true
}

// ActiveFor returns the active match containing the user, if any
func (s *MemoryMatchStore) ActiveFor(userID string) (*models.Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.active[userID]
	if !ok {
		return nil, false
	}
	cp := *s.matches[id]
	return &cp, true
}

// MarkEnd transitions the match to ENDED, preserving the first caller's
// audit fields on repeat calls.
func (s *MemoryMatchStore) MarkEnd(id, userID, reason string, now time.Time) (*models.Match, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, false, false
	}
	if m.Ended() {
		cp := *m
		return &cp, true, true
	}

	m.Status = models.MatchStatusEnded
	m.EndedAt = now
	m.EndedBy = userID
	m.EndReason = reason
	s.releaseParticipants(m)
	cp := *m
	return &cp, false, true
}

// releaseParticipants drops the active index for both users; callers must
// hold the write lock.
func (s *MemoryMatchStore) releaseParticipants(m *models.Match) {
	if s.active[m.UserAID] == m.ID {
		delete(s.active, m.UserAID)
	}
	if s.active[m.UserBID] == m.ID {
		delete(s.active, m.UserBID)
	}
}

// ActiveCount returns the number of in-flight matches
func (s *MemoryMatchStore) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, m := range s.matches {
		if !m.Ended() {
			count++
		}
	}
	return count
}

// EndedSince counts matches that ended at or after t
func (s *MemoryMatchStore) EndedSince(t time.Time) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, m := range s.matches {
		if m.Ended() && !m.EndedAt.Before(t) {
			count++
		}
	}
	return count
}

// ExpireOlderThan ends every active match created before cutoff
func (s *MemoryMatchStore) ExpireOlderThan(cutoff time.Time, actor, reason string) []*models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	var expired []*models.Match
	now := time.Now().UTC()
	for _, m := range s.matches {
		if !m.Ended() && m.CreatedAt.Before(cutoff) {
			m.Status = models.MatchStatusEnded
			m.EndedAt = now
			m.EndedBy = actor
			m.EndReason = reason
			s.releaseParticipants(m)
			cp := *m
			expired = append(expired, &cp)
		}
	}
	return expired
}

// MemoryModerationStore is the in-process moderation table.
type MemoryModerationStore struct {
	mu      sync.RWMutex
	records map[string]*models.ModerationRecord
}

// NewMemoryModerationStore creates an empty moderation store
func NewMemoryModerationStore() *MemoryModerationStore {
	return &MemoryModerationStore{
		records: make(map[string]*models.ModerationRecord),
	}
}

// Get returns a copy of the user's record, or nil
func (s *MemoryModerationStore) Get(userID string) *models.ModerationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[userID]
	if !ok {
		return nil
	}
	cp := *r
	return &cp
}

// SetBanned marks the user banned; a repeat ban is a no-op
func (s *MemoryModerationStore) SetBanned(userID, reason string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[userID]; ok && r.State == models.ModerationBanned {
		return true
	}
	s.records[userID] = &models.ModerationRecord{
		UserID:   userID,
		State:    models.ModerationBanned,
		Reason:   reason,
		BannedAt: now,
	}
	return false
}

// SetDeprioritized overwrites any prior deprioritization; bans win
func (s *MemoryModerationStore) SetDeprioritized(userID, reason string, until time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[userID]; ok && r.State == models.ModerationBanned {
		return
	}
	s.records[userID] = &models.ModerationRecord{
		UserID: userID,
		State:  models.ModerationDeprioritized,
		Reason: reason,
		Until:  until,
	}
}

// PurgeExpired drops deprioritizations whose window has passed
func (s *MemoryModerationStore) PurgeExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for userID, r := range s.records {
		if r.State == models.ModerationDeprioritized && !now.Before(r.Until) {
			delete(s.records, userID)
			purged++
		}
	}
	return purged
}

// MemoryIdempotencyStore is the in-process idempotency table with
// in-flight reservations.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]*idemEntry
}

type idemEntry struct {
	done      chan struct{}
	resp      *models.JoinResponse
	completed bool
	expiresAt time.Time
}

// NewMemoryIdempotencyStore creates an empty idempotency store
func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{
		entries: make(map[string]*idemEntry),
	}
}

func idemKey(userID, requestID string) string {
	return userID + ":" + requestID
}

// Begin either replays a stored response or hands the caller a fresh
// reservation. A concurrent retry of the same key blocks here until the
// in-flight call completes or aborts.
func (s *MemoryIdempotencyStore) Begin(userID, requestID string, now time.Time) (*models.JoinResponse, bool) {
	key := idemKey(userID, requestID)
	for {
		s.mu.Lock()
		e := s.entries[key]
		if e == nil || (e.completed && now.After(e.expiresAt)) {
			e = &idemEntry{done: make(chan struct{})}
			s.entries[key] = e
			s.mu.Unlock()
			return nil, true
		}
		if e.completed {
			resp := e.resp
			s.mu.Unlock()
			return resp, false
		}
		s.mu.Unlock()
		<-e.done
	}
}

// Complete stores the response under the reservation
func (s *MemoryIdempotencyStore) Complete(userID, requestID string, resp *models.JoinResponse, ttl time.Duration, now time.Time) {
	key := idemKey(userID, requestID)
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[key]
	if e == nil || e.completed {
		return
	}
	e.resp = resp
	e.completed = true
	e.expiresAt = now.Add(ttl)
	close(e.done)
}

// Abort releases the reservation without storing anything
func (s *MemoryIdempotencyStore) Abort(userID, requestID string) {
	key := idemKey(userID, requestID)
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[key]
	if e == nil || e.completed {
		return
	}
	delete(s.entries, key)
	close(e.done)
}

// PurgeExpired drops records past their retention window
func (s *MemoryIdempotencyStore) PurgeExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for key, e := range s.entries {
		if e.completed && now.After(e.expiresAt) {
			delete(s.entries, key)
			purged++
		}
	}
	return purged
}

// MemoryFeedbackStore is the in-process append-only feedback ledger.
type MemoryFeedbackStore struct {
	mu      sync.RWMutex
	records []models.Feedback
	ratings map[string]models.UserRating
}

// NewMemoryFeedbackStore creates an empty feedback store
func NewMemoryFeedbackStore() *MemoryFeedbackStore {
	return &MemoryFeedbackStore{
		ratings: make(map[string]models.UserRating),
	}
}

// Append records the feedback and folds the rating into the recipient's
// running mean in one step.
func (s *MemoryFeedbackStore) Append(f models.Feedback) models.UserRating {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, f)

	r := s.ratings[f.ToUserID]
	r.UserID = f.ToUserID
	r.Mean = (r.Mean*float64(r.Count) + float64(f.Rating)) / float64(r.Count+1)
	r.Count++
	s.ratings[f.ToUserID] = r
	return r
}

// Rating returns the current aggregate for the user
func (s *MemoryFeedbackStore) Rating(userID string) models.UserRating {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.ratings[userID]
	if !ok {
		return models.UserRating{UserID: userID}
	}
	return r
}

// Count returns the number of recorded feedback entries
func (s *MemoryFeedbackStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
