package store

import (
	"testing"
	"time"

	"gomatch/app/models"
)

func entry(userID string, at time.Time) models.QueueEntry {
	return models.QueueEntry{UserID: userID, EnqueuedAt: at}
}

// seed loads entries into a partition directly, bypassing the
// pair-or-enqueue step, to set up multi-entry queue states.
func seed(s *MemoryQueueStore, key string, entries ...models.QueueEntry) {
	p := s.getOrCreate(key)
	p.mu.Lock()
	p.entries = append(p.entries, entries...)
	p.mu.Unlock()
}

func TestMemoryQueueStoreTakeOrEnqueue(t *testing.T) {
	now := time.Now().UTC()

	t.Run("enqueues into an empty partition", func(t *testing.T) {
		s := NewMemoryQueueStore()

		_, matched := s.TakeOrEnqueue("loose:go", entry("alice", now))
		if matched {
			t.Fatal("expected no match on an empty partition")
		}
		if got := len(s.Snapshot("loose:go")); got != 1 {
			t.Errorf("expected 1 queued entry, got %d", got)
		}
	})

	t.Run("pairs with the waiting entry", func(t *testing.T) {
		s := NewMemoryQueueStore()
		s.TakeOrEnqueue("loose:go", entry("alice", now))

		candidate, matched := s.TakeOrEnqueue("loose:go", entry("bob", now.Add(time.Second)))
		if !matched || candidate.UserID != "alice" {
			t.Fatalf("expected bob to pair with alice, got %v matched=%v", candidate.UserID, matched)
		}
		if got := len(s.Snapshot("loose:go")); got != 0 {
			t.Errorf("expected an empty partition after pairing, got %d entries", got)
		}
	})

	t.Run("dequeues in FIFO order", func(t *testing.T) {
		s := NewMemoryQueueStore()
		seed(s, "loose:go",
			entry("a", now),
			entry("b", now.Add(time.Second)),
			entry("c", now.Add(2*time.Second)),
		)

		candidate, matched := s.TakeOrEnqueue("loose:go", entry("d", now.Add(3*time.Second)))
		if !matched || candidate.UserID != "a" {
			t.Fatalf("expected the earliest entry a, got %v", candidate.UserID)
		}
		if got := len(s.Snapshot("loose:go")); got != 2 {
			t.Errorf("expected 2 remaining entries, got %d", got)
		}
	})

	t.Run("never matches the joiner with itself", func(t *testing.T) {
		s := NewMemoryQueueStore()
		s.TakeOrEnqueue("loose:go", entry("alice", now))

		_, matched := s.TakeOrEnqueue("loose:go", entry("alice", now.Add(time.Second)))
		if matched {
			t.Fatal("joiner must not be matched with its own queued entry")
		}
		if got := len(s.Snapshot("loose:go")); got != 1 {
			t.Errorf("duplicate join must not grow the queue, got %d entries", got)
		}
	})

	t.Run("skips deprioritized entries when a fresh one waits", func(t *testing.T) {
		s := NewMemoryQueueStore()
		dep := entry("slowpoke", now)
		dep.Deprioritized = true
		seed(s, "loose:go", dep, entry("fresh", now.Add(time.Second)))

		candidate, matched := s.TakeOrEnqueue("loose:go", entry("joiner", now.Add(2*time.Second)))
		if !matched || candidate.UserID != "fresh" {
			t.Fatalf("expected fresh to be selected over the deprioritized head, got %v", candidate.UserID)
		}
		if remaining := s.Snapshot("loose:go"); len(remaining) != 1 || remaining[0].UserID != "slowpoke" {
			t.Errorf("expected only slowpoke to remain, got %v", remaining)
		}
	})

	t.Run("falls back to a deprioritized entry when alone", func(t *testing.T) {
		s := NewMemoryQueueStore()
		dep := entry("slowpoke", now)
		dep.Deprioritized = true
		seed(s, "loose:go", dep)

		candidate, matched := s.TakeOrEnqueue("loose:go", entry("joiner", now.Add(time.Second)))
		if !matched || candidate.UserID != "slowpoke" {
			t.Fatal("a deprioritized user alone in the queue must still be matchable")
		}
	})

	t.Run("breaks exact timestamp ties by priority score", func(t *testing.T) {
		s := NewMemoryQueueStore()
		low := entry("low", now)
		low.PriorityScore = 2.0
		high := entry("high", now)
		high.PriorityScore = 4.5
		seed(s, "loose:go", low, high)

		candidate, matched := s.TakeOrEnqueue("loose:go", entry("joiner", now.Add(time.Second)))
		if !matched || candidate.UserID != "high" {
			t.Fatalf("expected the higher-rated user on a timestamp tie, got %v", candidate.UserID)
		}
	})

	t.Run("partitions are isolated", func(t *testing.T) {
		s := NewMemoryQueueStore()
		s.TakeOrEnqueue("loose:go", entry("gopher", now))

		_, matched := s.TakeOrEnqueue("loose:rust", entry("rustacean", now.Add(time.Second)))
		if matched {
			t.Fatal("a rust joiner must never see the go partition")
		}

		_, matched = s.TakeOrEnqueue("strict:lang=go|domain=|exp=|stack=", entry("strict-gopher", now.Add(time.Second)))
		if matched {
			t.Fatal("a strict joiner must never see a loose partition")
		}
	})
}

func TestMemoryQueueStoreRemove(t *testing.T) {
	now := time.Now().UTC()

	t.Run("removes from a single partition", func(t *testing.T) {
		s := NewMemoryQueueStore()
		s.TakeOrEnqueue("loose:go", entry("alice", now))

		if !s.RemoveUser("loose:go", "alice") {
			t.Fatal("expected removal to report true")
		}
		if s.RemoveUser("loose:go", "alice") {
			t.Error("second removal must report false")
		}
	})

	t.Run("restore reinserts by enqueue time", func(t *testing.T) {
		s := NewMemoryQueueStore()
		seed(s, "loose:go",
			entry("b", now.Add(time.Second)),
			entry("c", now.Add(2*time.Second)),
		)

		s.Restore("loose:go", entry("a", now))
		got := s.Snapshot("loose:go")
		if len(got) != 3 || got[0].UserID != "a" {
			t.Fatalf("expected a restored to the head, got %v", got)
		}

		s.Restore("loose:go", entry("b", now.Add(time.Second)))
		if got := len(s.Snapshot("loose:go")); got != 3 {
			t.Errorf("restore must not duplicate a queued user, got %d entries", got)
		}
	})

	t.Run("removes by prefix across partitions", func(t *testing.T) {
		s := NewMemoryQueueStore()
		s.TakeOrEnqueue("loose:go", entry("alice", now))
		s.TakeOrEnqueue("strict:lang=go|domain=|exp=|stack=", entry("alice", now))

		if got := s.RemoveUserByPrefix("loose:", "alice"); got != 1 {
			t.Errorf("expected 1 loose removal, got %d", got)
		}
		if got := s.RemoveUserByPrefix("", "alice"); got != 1 {
			t.Errorf("expected 1 remaining removal, got %d", got)
		}
	})
}

func TestMemoryMatchStore(t *testing.T) {
	now := time.Now().UTC()

	newMatch := func(id, a, b string) *models.Match {
		return &models.Match{
			ID:        id,
			Mode:      models.MatchModeLoose,
			UserAID:   a,
			UserBID:   b,
			Status:    models.MatchStatusActive,
			CreatedAt: now,
		}
	}

	t.Run("indexes both participants", func(t *testing.T) {
		s := NewMemoryMatchStore()
		s.Create(newMatch("m1", "alice", "bob"))

		for _, user := range []string{"alice", "bob"} {
			if m, ok := s.ActiveFor(user); !ok || m.ID != "m1" {
				t.Errorf("expected %s to be in match m1", user)
			}
		}
	})

	t.Run("refuses a second active match for a participant", func(t *testing.T) {
		s := NewMemoryMatchStore()
		if !s.Create(newMatch("m1", "alice", "bob")) {
			t.Fatal("first match must register")
		}

		if s.Create(newMatch("m2", "alice", "carol")) {
			t.Fatal("alice is already matched, registration must be refused")
		}
		if _, ok := s.Get("m2"); ok {
			t.Error("refused match must not be stored")
		}
		if _, ok := s.ActiveFor("carol"); ok {
			t.Error("refused match must not index its participants")
		}

		s.MarkEnd("m1", "alice", "", now)
		if !s.Create(newMatch("m2", "alice", "carol")) {
			t.Error("participants of an ended match must be pairable again")
		}
	})

	t.Run("MarkEnd is idempotent and keeps first attribution", func(t *testing.T) {
		s := NewMemoryMatchStore()
		s.Create(newMatch("m1", "alice", "bob"))

		first, already, found := s.MarkEnd("m1", "alice", "done", now)
		if !found || already {
			t.Fatal("first end must succeed as a fresh transition")
		}
		second, already, found := s.MarkEnd("m1", "bob", "changed my mind", now.Add(time.Minute))
		if !found || !already {
			t.Fatal("second end must be reported as already ended")
		}
		if second.EndedBy != first.EndedBy || second.EndReason != first.EndReason {
			t.Errorf("repeat end overwrote attribution: %+v", second)
		}
		if _, ok := s.ActiveFor("alice"); ok {
			t.Error("ended match must release its participants")
		}
	})

	t.Run("ExpireOlderThan ends only stale matches", func(t *testing.T) {
		s := NewMemoryMatchStore()
		stale := newMatch("old", "a", "b")
		stale.CreatedAt = now.Add(-48 * time.Hour)
		s.Create(stale)
		s.Create(newMatch("fresh", "c", "d"))

		expired := s.ExpireOlderThan(now.Add(-24*time.Hour), "system", "expired")
		if len(expired) != 1 || expired[0].ID != "old" {
			t.Fatalf("expected only the old match to expire, got %v", expired)
		}
		if s.ActiveCount() != 1 {
			t.Errorf("expected 1 active match, got %d", s.ActiveCount())
		}
	})
}

func TestMemoryIdempotencyStore(t *testing.T) {
	now := time.Now().UTC()

	t.Run("first begin reserves, complete replays", func(t *testing.T) {
		s := NewMemoryIdempotencyStore()

		resp, execute := s.Begin("alice", "req-1", now)
		if !execute || resp != nil {
			t.Fatal("first Begin must hand out a reservation")
		}

		stored := &models.JoinResponse{Status: models.JoinStatusWaiting}
		s.Complete("alice", "req-1", stored, time.Minute, now)

		resp, execute = s.Begin("alice", "req-1", now)
		if execute {
			t.Fatal("completed key must replay, not execute")
		}
		if resp != stored {
			t.Errorf("expected the stored response verbatim, got %+v", resp)
		}
	})

	t.Run("abort frees the key for a retry", func(t *testing.T) {
		s := NewMemoryIdempotencyStore()

		if _, execute := s.Begin("alice", "req-1", now); !execute {
			t.Fatal("expected a reservation")
		}
		s.Abort("alice", "req-1")

		if _, execute := s.Begin("alice", "req-1", now); !execute {
			t.Error("aborted key must be executable again")
		}
	})

	t.Run("keys are scoped per user", func(t *testing.T) {
		s := NewMemoryIdempotencyStore()
		s.Begin("alice", "req-1", now)
		s.Complete("alice", "req-1", &models.JoinResponse{Status: models.JoinStatusWaiting}, time.Minute, now)

		if _, execute := s.Begin("bob", "req-1", now); !execute {
			t.Error("the same request id from another user is a distinct key")
		}
	})

	t.Run("concurrent begin blocks until the first call settles", func(t *testing.T) {
		s := NewMemoryIdempotencyStore()
		s.Begin("alice", "req-1", now)

		got := make(chan *models.JoinResponse)
		go func() {
			resp, execute := s.Begin("alice", "req-1", now)
			if execute {
				t.Error("concurrent retry must not execute")
			}
			got <- resp
		}()

		stored := &models.JoinResponse{Status: models.JoinStatusMatched, MatchID: "m1"}
		s.Complete("alice", "req-1", stored, time.Minute, now)

		select {
		case resp := <-got:
			if resp != stored {
				t.Errorf("expected the first call's response, got %+v", resp)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("blocked retry never woke up")
		}
	})

	t.Run("purge drops only expired records", func(t *testing.T) {
		s := NewMemoryIdempotencyStore()
		s.Begin("alice", "req-1", now)
		s.Complete("alice", "req-1", &models.JoinResponse{Status: models.JoinStatusWaiting}, time.Minute, now)

		if purged := s.PurgeExpired(now.Add(30 * time.Second)); purged != 0 {
			t.Errorf("record purged before its TTL, purged=%d", purged)
		}
		if purged := s.PurgeExpired(now.Add(2 * time.Minute)); purged != 1 {
			t.Errorf("expected 1 purged record, got %d", purged)
		}
		if _, execute := s.Begin("alice", "req-1", now.Add(2*time.Minute)); !execute {
			t.Error("purged key must be executable again")
		}
	})
}

func TestMemoryFeedbackStore(t *testing.T) {
	s := NewMemoryFeedbackStore()
	now := time.Now().UTC()

	s.Append(models.Feedback{ID: "f1", ToUserID: "bob", Rating: 5, CreatedAt: now})
	rating := s.Append(models.Feedback{ID: "f2", ToUserID: "bob", Rating: 2, CreatedAt: now})

	if rating.Count != 2 {
		t.Errorf("expected count 2, got %d", rating.Count)
	}
	if rating.Mean != 3.5 {
		t.Errorf("expected mean 3.5, got %v", rating.Mean)
	}
	if got := s.Rating("nobody"); got.Count != 0 || got.Mean != 0 {
		t.Errorf("unknown user must have a zero aggregate, got %+v", got)
	}
	if s.Count() != 2 {
		t.Errorf("expected 2 ledger entries, got %d", s.Count())
	}
}
