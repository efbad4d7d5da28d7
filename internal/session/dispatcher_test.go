package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"swipereel/pkg/models"
)

type fakeStore struct {
	mu      sync.Mutex
	adds    []models.CollectionEntry
	creates []models.WatchedEntry
	updates []models.WatchedEntry
	err     error
	calls   chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{calls: make(chan struct{}, 16)}
}

func (f *fakeStore) Add(_ context.Context, e models.CollectionEntry) error {
	f.mu.Lock()
	f.adds = append(f.adds, e)
	err := f.err
	f.mu.Unlock()
	f.calls <- struct{}{}
	return err
}

func (f *fakeStore) CreateWatched(_ context.Context, e models.WatchedEntry) error {
	f.mu.Lock()
	f.creates = append(f.creates, e)
	err := f.err
	f.mu.Unlock()
	f.calls <- struct{}{}
	return err
}

func (f *fakeStore) UpdateWatchedRating(_ context.Context, e models.WatchedEntry) error {
	f.mu.Lock()
	f.updates = append(f.updates, e)
	err := f.err
	f.mu.Unlock()
	f.calls <- struct{}{}
	return err
}

func (f *fakeStore) waitRemote(t *testing.T) {
	t.Helper()
	select {
	case <-f.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for remote mutation")
	}
}

func (f *fakeStore) counts() (adds, creates, updates int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.adds), len(f.creates), len(f.updates)
}

func TestGestureCommit(t *testing.T) {
	t.Run("right swipe likes and advances", func(t *testing.T) {
		store := newFakeStore()
		clock := newFakeClock()
		m := NewManager(store, clock)
		s := m.Start("u1", deck(3), nil)

		res, err := m.Gesture(s, 150, 0)
		if err != nil {
			t.Fatalf("gesture failed: %v", err)
		}
		if res.Decision != DecisionLike {
			t.Errorf("expected like, got %q", res.Decision)
		}
		if res.Position != 1 {
			t.Errorf("expected position 1, got %d", res.Position)
		}
		if !res.RemoteIssued {
			t.Error("expected a remote mutation for a fresh like")
		}

		store.waitRemote(t)
		store.mu.Lock()
		defer store.mu.Unlock()
		if len(store.adds) != 1 {
			t.Fatalf("expected 1 add, got %d", len(store.adds))
		}
		if store.adds[0].List != models.ListLiked {
			t.Errorf("expected list %q, got %q", models.ListLiked, store.adds[0].List)
		}
		if store.adds[0].CatalogID != 1 {
			t.Errorf("expected catalog id 1, got %d", store.adds[0].CatalogID)
		}
	})

	t.Run("left swipe dislikes", func(t *testing.T) {
		store := newFakeStore()
		m := NewManager(store, newFakeClock())
		s := m.Start("u1", deck(1), nil)

		res, err := m.Gesture(s, -150, 0)
		if err != nil {
			t.Fatalf("gesture failed: %v", err)
		}
		if res.Decision != DecisionDislike {
			t.Errorf("expected dislike, got %q", res.Decision)
		}
		if !res.Done {
			t.Error("expected single-card session to be done")
		}

		store.waitRemote(t)
		store.mu.Lock()
		defer store.mu.Unlock()
		if store.adds[0].List != models.ListDisliked {
			t.Errorf("expected list %q, got %q", models.ListDisliked, store.adds[0].List)
		}
	})

	t.Run("sub-threshold release cancels without advancing", func(t *testing.T) {
		store := newFakeStore()
		m := NewManager(store, newFakeClock())
		s := m.Start("u1", deck(2), nil)

		res, err := m.Gesture(s, 40, -20)
		if err != nil {
			t.Fatalf("gesture failed: %v", err)
		}
		if !res.Cancelled {
			t.Error("expected cancelled result")
		}
		if res.Position != 0 {
			t.Errorf("expected position to stay 0, got %d", res.Position)
		}
		if adds, _, _ := store.counts(); adds != 0 {
			t.Errorf("expected no remote calls, got %d", adds)
		}
	})

	t.Run("gesture on a finished session errors", func(t *testing.T) {
		store := newFakeStore()
		m := NewManager(store, newFakeClock())
		s := m.Start("u1", nil, nil)

		if _, err := m.Gesture(s, 150, 0); !errors.Is(err, ErrComplete) {
			t.Errorf("expected ErrComplete, got %v", err)
		}
	})
}

func TestCommitLockout(t *testing.T) {
	t.Run("second gesture during the animation is dropped", func(t *testing.T) {
		store := newFakeStore()
		clock := newFakeClock()
		m := NewManager(store, clock)
		s := m.Start("u1", deck(3), nil)

		if _, err := m.Gesture(s, 150, 0); err != nil {
			t.Fatalf("first gesture failed: %v", err)
		}
		store.waitRemote(t)

		clock.Advance(200 * time.Millisecond)
		if _, err := m.Gesture(s, 150, 0); !errors.Is(err, ErrInFlight) {
			t.Fatalf("expected ErrInFlight during animation, got %v", err)
		}

		if st := s.Status(); st.Position != 1 {
			t.Errorf("expected position 1 after dropped gesture, got %d", st.Position)
		}
		if adds, _, _ := store.counts(); adds != 1 {
			t.Errorf("expected 1 remote call, got %d", adds)
		}
	})

	t.Run("button mash during the animation is dropped", func(t *testing.T) {
		store := newFakeStore()
		clock := newFakeClock()
		m := NewManager(store, clock)
		s := m.Start("u1", deck(3), nil)

		if _, err := m.Decide(s, DecisionLike, 0); err != nil {
			t.Fatalf("first decide failed: %v", err)
		}
		store.waitRemote(t)

		if _, err := m.Decide(s, DecisionDislike, 0); !errors.Is(err, ErrInFlight) {
			t.Errorf("expected ErrInFlight for the mash, got %v", err)
		}

		clock.Advance(CommitAnimation)
		if _, err := m.Decide(s, DecisionDislike, 0); err != nil {
			t.Errorf("expected decide after animation to succeed, got %v", err)
		}
		store.waitRemote(t)
	})

	t.Run("per-card busy window outlives the animation", func(t *testing.T) {
		store := newFakeStore()
		clock := newFakeClock()
		m := NewManager(store, clock)
		// the same card twice in a row, as a re-dealt deck would have it
		cards := []models.MovieCard{
			{CatalogID: 7, Title: "Repeat"},
			{CatalogID: 7, Title: "Repeat"},
		}
		s := m.Start("u1", cards, nil)

		if _, err := m.Decide(s, DecisionLike, 0); err != nil {
			t.Fatalf("first decide failed: %v", err)
		}
		store.waitRemote(t)

		// animation over, busy window still open for card 7
		clock.Advance(CommitAnimation)
		if _, err := m.Decide(s, DecisionLike, 0); !errors.Is(err, ErrInFlight) {
			t.Fatalf("expected ErrInFlight inside the busy window, got %v", err)
		}

		// the dropped decide re-armed the animation, clear both windows
		clock.Advance(CommitAnimation)
		res, err := m.Decide(s, DecisionLike, 0)
		if err != nil {
			t.Fatalf("decide after busy window failed: %v", err)
		}
		// already liked this session, so no second remote write
		if res.RemoteIssued {
			t.Error("expected duplicate like to skip the remote call")
		}
		if adds, _, _ := store.counts(); adds != 1 {
			t.Errorf("expected exactly 1 add, got %d", adds)
		}
	})
}

func TestWatchedFlow(t *testing.T) {
	t.Run("up swipe parks the card until a rating arrives", func(t *testing.T) {
		store := newFakeStore()
		m := NewManager(store, newFakeClock())
		s := m.Start("u1", deck(2), nil)

		res, err := m.Gesture(s, 0, -150)
		if err != nil {
			t.Fatalf("up swipe failed: %v", err)
		}
		if !res.NeedsRating {
			t.Fatal("expected needs_rating after up swipe")
		}
		if res.Position != 0 {
			t.Errorf("expected queue to hold at 0, got %d", res.Position)
		}
		if st := s.Status(); !st.AwaitingRating {
			t.Error("expected status to report awaiting rating")
		}

		// the rating follow-up bypasses the animation lockout
		res, err = m.Decide(s, DecisionWatched, 4.5)
		if err != nil {
			t.Fatalf("rating follow-up failed: %v", err)
		}
		if res.Position != 1 {
			t.Errorf("expected advance after rating, got position %d", res.Position)
		}

		store.waitRemote(t)
		store.mu.Lock()
		defer store.mu.Unlock()
		if len(store.creates) != 1 {
			t.Fatalf("expected 1 watched create, got %d creates / %d updates", len(store.creates), len(store.updates))
		}
		if store.creates[0].Rating != 4.5 {
			t.Errorf("expected rating 4.5, got %v", store.creates[0].Rating)
		}
	})

	t.Run("already-watched card gets a rating update instead", func(t *testing.T) {
		store := newFakeStore()
		clock := newFakeClock()
		m := NewManager(store, clock)
		s := m.Start("u1", deck(1), map[int64]float64{1: 3.0})

		if _, err := m.Decide(s, DecisionWatched, 5); err != nil {
			t.Fatalf("watched decide failed: %v", err)
		}

		store.waitRemote(t)
		_, creates, updates := store.counts()
		if creates != 0 || updates != 1 {
			t.Errorf("expected 0 creates and 1 update, got %d and %d", creates, updates)
		}
	})

	t.Run("like supersedes an earlier up swipe on the same card", func(t *testing.T) {
		store := newFakeStore()
		clock := newFakeClock()
		m := NewManager(store, clock)
		s := m.Start("u1", deck(2), nil)

		if _, err := m.Gesture(s, 0, -150); err != nil {
			t.Fatalf("up swipe failed: %v", err)
		}
		clock.Advance(CommitAnimation)

		res, err := m.Decide(s, DecisionLike, 0)
		if err != nil {
			t.Fatalf("like after up swipe failed: %v", err)
		}
		if res.Position != 1 {
			t.Errorf("expected advance to 1, got %d", res.Position)
		}
		if st := s.Status(); st.AwaitingRating {
			t.Error("expected the like to clear awaiting rating")
		}

		store.waitRemote(t)
		adds, creates, _ := store.counts()
		if adds != 1 || creates != 0 {
			t.Errorf("expected 1 liked add and 0 watched creates, got %d and %d", adds, creates)
		}
	})

	t.Run("invalid rating is rejected without advancing", func(t *testing.T) {
		store := newFakeStore()
		clock := newFakeClock()
		m := NewManager(store, clock)
		s := m.Start("u1", deck(1), nil)

		for _, bad := range []float64{-1, 5.5, 3.7} {
			clock.Advance(CommitAnimation)
			if _, err := m.Gesture(s, 0, -150); err != nil {
				t.Fatalf("up swipe failed: %v", err)
			}
			if _, err := m.Decide(s, DecisionWatched, bad); !errors.Is(err, ErrRating) {
				t.Errorf("rating %v: expected ErrRating, got %v", bad, err)
			}
			if st := s.Status(); st.Position != 0 {
				t.Fatalf("rating %v: expected position 0, got %d", bad, st.Position)
			}
		}

		if _, creates, updates := store.counts(); creates+updates != 0 {
			t.Errorf("expected no watched writes, got %d creates %d updates", creates, updates)
		}
	})
}

func TestRemoteFailureKeepsLocalState(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("backend down")
	m := NewManager(store, newFakeClock())
	s := m.Start("u1", deck(2), nil)

	res, err := m.Gesture(s, 150, 0)
	if err != nil {
		t.Fatalf("gesture failed: %v", err)
	}
	if res.Position != 1 {
		t.Errorf("expected optimistic advance to 1, got %d", res.Position)
	}

	store.waitRemote(t)

	// local decision survives the failed write
	s.mu.Lock()
	liked := s.sets.LikedHas(1)
	s.mu.Unlock()
	if !liked {
		t.Error("expected card to stay liked locally after remote failure")
	}
}

func TestTwoCardRun(t *testing.T) {
	store := newFakeStore()
	clock := newFakeClock()
	m := NewManager(store, clock)
	s := m.Start("u1", deck(2), nil)

	if _, err := m.Gesture(s, 150, 0); err != nil {
		t.Fatalf("like gesture failed: %v", err)
	}
	store.waitRemote(t)

	clock.Advance(CommitAnimation)
	res, err := m.Gesture(s, -150, 0)
	if err != nil {
		t.Fatalf("dislike gesture failed: %v", err)
	}
	if !res.Done {
		t.Error("expected session done after the second card")
	}
	store.waitRemote(t)

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.adds) != 2 {
		t.Fatalf("expected exactly 2 remote mutations, got %d", len(store.adds))
	}
	byID := map[int64]string{}
	for _, e := range store.adds {
		byID[e.CatalogID] = e.List
	}
	if byID[1] != models.ListLiked || byID[2] != models.ListDisliked {
		t.Errorf("unexpected list placement: %v", byID)
	}

	liked, disliked, ok := m.SessionCards(s.ID, "u1")
	if !ok {
		t.Fatal("expected session cards")
	}
	if len(liked) != 1 || liked[0].CatalogID != 1 {
		t.Errorf("unexpected liked set: %+v", liked)
	}
	if len(disliked) != 1 || disliked[0].CatalogID != 2 {
		t.Errorf("unexpected disliked set: %+v", disliked)
	}
}

func TestManagerSessions(t *testing.T) {
	t.Run("lookup enforces ownership", func(t *testing.T) {
		m := NewManager(newFakeStore(), newFakeClock())
		s := m.Start("u1", deck(1), nil)

		if _, ok := m.Get(s.ID, "u1"); !ok {
			t.Error("expected owner lookup to succeed")
		}
		if _, ok := m.Get(s.ID, "u2"); ok {
			t.Error("expected foreign lookup to fail")
		}
		if m.End(s.ID, "u2") {
			t.Error("expected foreign end to fail")
		}
		if !m.End(s.ID, "u1") {
			t.Error("expected owner end to succeed")
		}
		if _, ok := m.Get(s.ID, "u1"); ok {
			t.Error("expected session to be gone after end")
		}
	})

	t.Run("apply move flips the session side", func(t *testing.T) {
		store := newFakeStore()
		m := NewManager(store, newFakeClock())
		s := m.Start("u1", deck(1), nil)

		if _, err := m.Decide(s, DecisionLike, 0); err != nil {
			t.Fatalf("decide failed: %v", err)
		}
		store.waitRemote(t)

		m.ApplyMove(s.ID, "u1", 1, false)

		liked, disliked, ok := m.SessionCards(s.ID, "u1")
		if !ok {
			t.Fatal("expected session cards")
		}
		if len(liked) != 0 || len(disliked) != 1 {
			t.Errorf("expected card on disliked side, got %d liked / %d disliked", len(liked), len(disliked))
		}
	})
}
