package services

import (
	"errors"
	"testing"
	"time"

	"gomatch/app/models"
	"gomatch/app/store"
)

func newMatchService(t *testing.T) (*MatchService, *store.MemoryMatchStore) {
	t.Helper()
	ms := store.NewMemoryMatchStore()
	return NewMatchService(ms, nil), ms
}

func TestMarkEnd(t *testing.T) {
	t.Run("validates input", func(t *testing.T) {
		s, _ := newMatchService(t)
		if _, err := s.MarkEnd("", "alice", ""); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("expected ErrInvalidRequest, got %v", err)
		}
		if _, err := s.MarkEnd("m1", "", ""); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("expected ErrInvalidRequest, got %v", err)
		}
	})

	t.Run("unknown match is not found", func(t *testing.T) {
		s, _ := newMatchService(t)
		if _, err := s.MarkEnd("nope", "alice", ""); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("first caller's attribution wins", func(t *testing.T) {
		s, _ := newMatchService(t)
		m, _ := s.Create(models.MatchModeLoose, "", "alice", "bob")

		ended, err := s.MarkEnd(m.ID, "alice", "done")
		if err != nil {
			t.Fatalf("first end failed: %v", err)
		}
		if ended.Status != models.MatchStatusEnded || ended.EndedBy != "alice" {
			t.Fatalf("unexpected terminal state %+v", ended)
		}

		again, err := s.MarkEnd(m.ID, "bob", "network dropped")
		if err != nil {
			t.Fatalf("repeat end must succeed, got %v", err)
		}
		if again.EndedBy != "alice" || again.EndReason != "done" {
			t.Errorf("repeat end overwrote attribution: %+v", again)
		}
		if !again.EndedAt.Equal(ended.EndedAt) {
			t.Errorf("repeat end moved endedAt from %v to %v", ended.EndedAt, again.EndedAt)
		}
	})

	t.Run("frees both participants", func(t *testing.T) {
		s, _ := newMatchService(t)
		m, _ := s.Create(models.MatchModeStrict, "lang=go|domain=|exp=|stack=", "alice", "bob")

		s.MarkEnd(m.ID, "bob", "")
		if _, ok := s.ActiveFor("alice"); ok {
			t.Error("alice still reads as matched")
		}
		if _, ok := s.ActiveFor("bob"); ok {
			t.Error("bob still reads as matched")
		}
	})
}

func TestExpireStale(t *testing.T) {
	svc, ms := newMatchService(t)
	now := time.Now().UTC()

	ms.Create(&models.Match{
		ID:        "old",
		Mode:      models.MatchModeLoose,
		UserAID:   "a",
		UserBID:   "b",
		Status:    models.MatchStatusActive,
		CreatedAt: now.Add(-48 * time.Hour),
	})
	svc.Create(models.MatchModeLoose, "", "c", "d")

	if expired := svc.ExpireStale(24 * time.Hour); expired != 1 {
		t.Fatalf("expected 1 expired match, got %d", expired)
	}

	old, err := svc.Get("old")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if old.Status != models.MatchStatusEnded || old.EndedBy != "system" || old.EndReason != "expired" {
		t.Errorf("unexpected expiry attribution %+v", old)
	}
	if svc.ActiveCount() != 1 {
		t.Errorf("expected the fresh match to stay active, got %d", svc.ActiveCount())
	}
}

func TestEndedToday(t *testing.T) {
	svc, ms := newMatchService(t)
	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	ms.Create(&models.Match{ID: "yesterday", UserAID: "a", UserBID: "b", Status: models.MatchStatusEnded, EndedAt: midnight.Add(-time.Hour)})
	ms.Create(&models.Match{ID: "today", UserAID: "c", UserBID: "d", Status: models.MatchStatusEnded, EndedAt: midnight.Add(time.Minute)})

	if got := svc.EndedToday(now); got != 1 {
		t.Errorf("expected 1 match ended today, got %d", got)
	}
}
